package notification_test

import (
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-productform/pkg/notification"
)

func TestNewAppliesDefaults(t *testing.T) {
	msg := notification.New("saved", notification.Options{})
	if msg.Type != notification.TypeSuccess {
		t.Fatalf("expected success type, got %q", msg.Type)
	}
	if msg.Duration != notification.DefaultDuration {
		t.Fatalf("expected default duration, got %s", msg.Duration)
	}
}

func TestCenterAutoDismiss(t *testing.T) {
	center := notification.NewCenter()
	center.Show(notification.New("saved", notification.Options{Duration: 20 * time.Millisecond}))

	if got := center.Active(); len(got) != 1 || got[0].Text != "saved" {
		t.Fatalf("expected active message, got %#v", got)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(center.Active()) == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("message was not dismissed")
}

func TestCenterReplacesCurrentMessage(t *testing.T) {
	center := notification.NewCenter()
	center.Show(notification.New("first", notification.Options{Duration: time.Minute}))
	center.Show(notification.New("second", notification.Options{Duration: time.Minute, Type: notification.TypeError}))

	active := center.Active()
	if len(active) != 1 || active[0].Text != "second" || active[0].Type != notification.TypeError {
		t.Fatalf("expected only the second message, got %#v", active)
	}

	center.Dismiss(active[0].ID)
	if len(center.Active()) != 0 {
		t.Fatalf("expected dismissed message to be gone")
	}
}

func TestRenderEscapesText(t *testing.T) {
	out := notification.Render([]notification.Message{
		notification.New("<b>boom</b>", notification.Options{Type: notification.TypeError}),
	})
	if !strings.Contains(out, "notification_error") {
		t.Fatalf("expected error class, got %s", out)
	}
	if !strings.Contains(out, "&lt;b&gt;boom&lt;/b&gt;") {
		t.Fatalf("expected escaped text, got %s", out)
	}
	if !strings.Contains(out, `data-duration="2000"`) {
		t.Fatalf("expected duration attribute, got %s", out)
	}
}
