package jobs

import "testing"

// TestEventBusSince verifies incremental event reads by sequence.
func TestEventBusSince(t *testing.T) {
	bus := NewEventBus(3)
	bus.Publish(Event{Type: EventTypeOutput, Line: "1"})
	bus.Publish(Event{Type: EventTypeOutput, Line: "2"})
	bus.Publish(Event{Type: EventTypeOutput, Line: "3"})

	events := bus.Since(1)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", events)
	}
}

// TestEventBusCapsHistory verifies buffer limit trimming behavior.
func TestEventBusCapsHistory(t *testing.T) {
	bus := NewEventBus(2)
	bus.Publish(Event{Line: "1"})
	bus.Publish(Event{Line: "2"})
	bus.Publish(Event{Line: "3"})

	events := bus.Since(0)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Line != "2" || events[1].Line != "3" {
		t.Fatalf("unexpected events: %+v", events)
	}
}
