package events

import "testing"

func TestPublishSubscribe(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(4)
	defer cancel()

	b.Publish(TypeListingCreated, map[string]string{"listing": "abc"})

	ev := <-ch
	if ev.Type != TypeListingCreated {
		t.Fatalf("type = %s", ev.Type)
	}
	if ev.Fields["listing"] != "abc" {
		t.Fatalf("fields = %+v", ev.Fields)
	}
	if ev.At.IsZero() {
		t.Fatal("timestamp not set")
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(1)
	cancel()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after cancel")
	}
	// double cancel is safe
	cancel()
	// publishing after cancel must not panic
	b.Publish(TypeListingCreated, nil)
}

func TestSlowSubscriberDropsEvents(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Publish(TypeListingCreated, nil)
	b.Publish(TypeListingDelisted, nil) // buffer full, dropped

	ev := <-ch
	if ev.Type != TypeListingCreated {
		t.Fatalf("type = %s", ev.Type)
	}
	select {
	case ev := <-ch:
		t.Fatalf("unexpected second event: %s", ev.Type)
	default:
	}
}
