// Package notification implements transient user-facing messages with a
// severity and an auto-dismiss duration.
package notification

import (
	"html"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Type is the message severity.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
)

// DefaultDuration is used when Options.Duration is not positive.
const DefaultDuration = 2 * time.Second

// Options mirror the widget's construction settings.
type Options struct {
	Duration time.Duration
	Type     Type
}

// Message is one notification.
type Message struct {
	ID       uint64
	Text     string
	Type     Type
	Duration time.Duration
	ShownAt  time.Time
}

// New builds a message applying defaults.
func New(text string, opts Options) Message {
	msg := Message{
		Text:     text,
		Type:     opts.Type,
		Duration: opts.Duration,
	}
	if msg.Type == "" {
		msg.Type = TypeSuccess
	}
	if msg.Duration <= 0 {
		msg.Duration = DefaultDuration
	}
	return msg
}

// Notifier shows messages.
type Notifier interface {
	Show(msg Message)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Message)

// Show calls f.
func (f NotifierFunc) Show(msg Message) {
	if f != nil {
		f(msg)
	}
}

// CenterOption configures a Center.
type CenterOption func(*Center)

// WithLogger logs every shown message.
func WithLogger(logger *zap.Logger) CenterOption {
	return func(c *Center) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) CenterOption {
	return func(c *Center) {
		if now != nil {
			c.now = now
		}
	}
}

// Center keeps the currently visible messages and removes each one once its
// duration elapses. Showing a message replaces the one currently displayed.
type Center struct {
	mu     sync.Mutex
	nextID uint64
	active []Message
	timers map[uint64]*time.Timer
	logger *zap.Logger
	now    func() time.Time
}

// NewCenter constructs an empty Center.
func NewCenter(options ...CenterOption) *Center {
	c := &Center{
		timers: make(map[uint64]*time.Timer),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Show displays msg and schedules its removal.
func (c *Center) Show(msg Message) {
	msg = New(msg.Text, Options{Duration: msg.Duration, Type: msg.Type})

	c.mu.Lock()
	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.nextID++
	msg.ID = c.nextID
	msg.ShownAt = c.now()
	c.active = []Message{msg}

	id := msg.ID
	c.timers[id] = time.AfterFunc(msg.Duration, func() {
		c.dismiss(id)
	})
	c.mu.Unlock()

	c.logger.Info("notification",
		zap.String("type", string(msg.Type)),
		zap.String("text", msg.Text),
		zap.Duration("duration", msg.Duration))
}

// Active returns the messages still visible.
func (c *Center) Active() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Message(nil), c.active...)
}

// Dismiss removes the message with id before its duration elapses.
func (c *Center) Dismiss(id uint64) {
	c.dismiss(id)
}

func (c *Center) dismiss(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
	kept := c.active[:0]
	for _, msg := range c.active {
		if msg.ID != id {
			kept = append(kept, msg)
		}
	}
	c.active = kept
}

// HTML renders the active messages the way the widget attaches itself.
func (c *Center) HTML() string {
	return Render(c.Active())
}

// Render returns markup for msgs. The data-duration attribute lets a client
// runtime reproduce the auto-dismiss.
func Render(msgs []Message) string {
	if len(msgs) == 0 {
		return ""
	}
	var b strings.Builder
	for _, msg := range msgs {
		b.WriteString(`<div class="notification notification_`)
		b.WriteString(html.EscapeString(string(msg.Type)))
		b.WriteString(` show" data-duration="`)
		b.WriteString(strconv.FormatInt(msg.Duration.Milliseconds(), 10))
		b.WriteString(`" role="status">`)
		b.WriteString(`<div class="notification__content">`)
		b.WriteString(html.EscapeString(msg.Text))
		b.WriteString("</div></div>\n")
	}
	return b.String()
}
