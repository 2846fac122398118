package event

import "testing"

func TestPublishExactTopic(t *testing.T) {
	b := NewBus()

	var got []Event
	b.Subscribe("session.created", func(evt Event) {
		got = append(got, evt)
	})

	b.Publish(New("session.created", map[string]any{"name": "main"}))
	b.Publish(New("session.closed", nil))

	if len(got) != 1 {
		t.Fatalf("expected 1 delivery, got %d", len(got))
	}
	if got[0].Data["name"] != "main" {
		t.Errorf("unexpected payload: %v", got[0].Data)
	}
	if got[0].Time.IsZero() {
		t.Error("expected publish time set")
	}
}

func TestPublishPrefixPattern(t *testing.T) {
	b := NewBus()

	count := 0
	b.Subscribe("session.*", func(Event) { count++ })

	b.Publish(New("session.created", nil))
	b.Publish(New("session.closed", nil))
	b.Publish(New("config.reloaded", nil))

	if count != 2 {
		t.Errorf("expected 2 deliveries, got %d", count)
	}
}

func TestUnsubscribe(t *testing.T) {
	b := NewBus()

	count := 0
	id := b.Subscribe("a.b", func(Event) { count++ })

	b.Publish(New("a.b", nil))
	b.Unsubscribe(id)
	b.Publish(New("a.b", nil))

	if count != 1 {
		t.Errorf("expected 1 delivery after unsubscribe, got %d", count)
	}
	b.Unsubscribe(999)
}

func TestPanicContained(t *testing.T) {
	b := NewBus()

	delivered := false
	b.Subscribe("x", func(Event) { panic("boom") })
	b.Subscribe("x", func(Event) { delivered = true })

	b.Publish(New("x", nil))

	if !delivered {
		t.Error("expected delivery to continue past panicking handler")
	}
	if b.Delivered() != 1 {
		t.Errorf("expected 1 successful delivery, got %d", b.Delivered())
	}
}

func TestClosedBusDropsEvents(t *testing.T) {
	b := NewBus()

	count := 0
	b.Subscribe("x", func(Event) { count++ })
	b.Close()
	b.Publish(New("x", nil))

	if count != 0 {
		t.Error("expected no delivery on closed bus")
	}
	if b.Published() != 0 {
		t.Errorf("expected 0 published, got %d", b.Published())
	}
}

func TestSubscriberCount(t *testing.T) {
	b := NewBus()

	if b.SubscriberCount() != 0 {
		t.Error("expected empty bus")
	}
	b.Subscribe("a", func(Event) {})
	b.Subscribe("b", func(Event) {})
	if b.SubscriberCount() != 2 {
		t.Errorf("expected 2 subscribers, got %d", b.SubscriberCount())
	}
	if id := b.Subscribe("c", nil); id != 0 {
		t.Error("expected nil handler rejected")
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		pattern string
		topic   string
		want    bool
	}{
		{"a.b", "a.b", true},
		{"a.b", "a.c", false},
		{"a.*", "a.b", true},
		{"a.*", "a.b.c", true},
		{"a.*", "ab.c", false},
		{"a.*", "a", false},
		{"*", "anything", true},
		{"", "", true},
	}

	for _, tt := range tests {
		if got := Matches(tt.pattern, tt.topic); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.pattern, tt.topic, got, tt.want)
		}
	}
}
