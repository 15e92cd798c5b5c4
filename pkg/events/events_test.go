package events_test

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-productform/pkg/events"
)

func TestBusDeliversToTopicSubscribers(t *testing.T) {
	bus := events.NewBus()

	var saved, updated []events.Signal
	if _, err := bus.Subscribe(events.TopicProductSaved, func(sig events.Signal) { saved = append(saved, sig) }); err != nil {
		t.Fatalf("subscribe saved: %v", err)
	}
	if _, err := bus.Subscribe(events.TopicProductUpdated, func(sig events.Signal) { updated = append(updated, sig) }); err != nil {
		t.Fatalf("subscribe updated: %v", err)
	}

	sig := events.Signal{Topic: events.TopicProductSaved, Message: "data saved"}
	bus.Publish(sig)

	if diff := cmp.Diff([]events.Signal{sig}, saved); diff != "" {
		t.Fatalf("saved mismatch (-want +got):\n%s", diff)
	}
	if len(updated) != 0 {
		t.Fatalf("expected no updated signals, got %#v", updated)
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := events.NewBus()

	calls := 0
	unsubscribe, err := bus.Subscribe(events.TopicProductUpdated, func(events.Signal) { calls++ })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	bus.Publish(events.Signal{Topic: events.TopicProductUpdated})
	unsubscribe()
	bus.Publish(events.Signal{Topic: events.TopicProductUpdated})

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
	if bus.HasSubscribers(events.TopicProductUpdated) {
		t.Fatalf("expected no subscribers after unsubscribe")
	}
}

func TestBusAsync(t *testing.T) {
	bus := events.NewBus()

	var mu sync.Mutex
	got := 0
	if _, err := bus.SubscribeAsync(events.TopicProductSaved, func(events.Signal) {
		mu.Lock()
		got++
		mu.Unlock()
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	bus.Publish(events.Signal{Topic: events.TopicProductSaved})
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	if got != 1 {
		t.Fatalf("expected async handler to run once, got %d", got)
	}
}

func TestBusRejectsEmptySubscription(t *testing.T) {
	bus := events.NewBus()
	if _, err := bus.Subscribe("", func(events.Signal) {}); err == nil {
		t.Fatalf("expected error for empty topic")
	}
	if _, err := bus.Subscribe(events.TopicProductSaved, nil); err == nil {
		t.Fatalf("expected error for nil handler")
	}
}

func TestBusUnsubscribeRemovesOnlyItsHandler(t *testing.T) {
	bus := events.NewBus()

	var got []string
	if _, err := bus.Subscribe(events.TopicProductSaved, func(events.Signal) { got = append(got, "first") }); err != nil {
		t.Fatalf("subscribe first: %v", err)
	}
	unsubscribe, err := bus.Subscribe(events.TopicProductSaved, func(events.Signal) { got = append(got, "second") })
	if err != nil {
		t.Fatalf("subscribe second: %v", err)
	}

	bus.Publish(events.Signal{Topic: events.TopicProductSaved})
	unsubscribe()
	unsubscribe()
	bus.Publish(events.Signal{Topic: events.TopicProductSaved})

	want := []string{"first", "second", "first"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("deliveries mismatch (-want +got):\n%s", diff)
	}
	if !bus.HasSubscribers(events.TopicProductSaved) {
		t.Fatalf("expected the first subscriber to remain")
	}
}

func TestBusMixesSyncAndAsyncSubscribers(t *testing.T) {
	bus := events.NewBus()

	var mu sync.Mutex
	var got []string
	record := func(name string) events.Handler {
		return func(events.Signal) {
			mu.Lock()
			got = append(got, name)
			mu.Unlock()
		}
	}
	if _, err := bus.Subscribe(events.TopicProductUpdated, record("sync")); err != nil {
		t.Fatalf("subscribe sync: %v", err)
	}
	unsubscribeAsync, err := bus.SubscribeAsync(events.TopicProductUpdated, record("async"))
	if err != nil {
		t.Fatalf("subscribe async: %v", err)
	}

	bus.Publish(events.Signal{Topic: events.TopicProductUpdated})
	bus.Wait()
	unsubscribeAsync()
	bus.Publish(events.Signal{Topic: events.TopicProductUpdated})
	bus.Wait()

	mu.Lock()
	defer mu.Unlock()
	counts := map[string]int{}
	for _, name := range got {
		counts[name]++
	}
	if diff := cmp.Diff(map[string]int{"sync": 2, "async": 1}, counts); diff != "" {
		t.Fatalf("deliveries mismatch (-want +got):\n%s", diff)
	}
}
