package jobs

import (
	"sync"
	"time"

	"render-queue/internal/domain"
)

// EventType classifies messages emitted during a render session.
type EventType string

const (
	EventTypeJobState EventType = "job_state"
	EventTypeSession  EventType = "session"
	EventTypeOutput   EventType = "output"
	EventTypeProgress EventType = "progress"
	EventTypeError    EventType = "error"
)

// Event is one sequenced message about session progress. Only the fields
// relevant to the event type are populated.
type Event struct {
	Seq         int64               `json:"seq"`
	Timestamp   time.Time           `json:"timestamp"`
	JobID       string              `json:"jobId,omitempty"`
	Type        EventType           `json:"type"`
	JobState    domain.JobState     `json:"jobState,omitempty"`
	Session     domain.SessionState `json:"session,omitempty"`
	Stream      string              `json:"stream,omitempty"`
	Line        string              `json:"line,omitempty"`
	Frame       int                 `json:"frame,omitempty"`
	TotalFrames int                 `json:"totalFrames,omitempty"`
	ExitCode    int                 `json:"exitCode,omitempty"`
	Message     string              `json:"message,omitempty"`
}

// EventBus keeps a bounded window of recent events so the UI can catch up
// after missing pushes. Old events fall off the front once the cap is hit.
type EventBus struct {
	mu   sync.RWMutex
	seq  int64
	cap  int
	ring []Event
}

// NewEventBus creates a bus holding at most maxEvents entries.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &EventBus{cap: maxEvents}
}

// Publish stamps the event with the next sequence number and a UTC
// timestamp, stores it, and returns the stamped copy.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	event.Seq = b.seq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	if len(b.ring) == b.cap {
		copy(b.ring, b.ring[1:])
		b.ring[len(b.ring)-1] = event
	} else {
		b.ring = append(b.ring, event)
	}
	return event
}

// Since returns retained events with sequence strictly greater than seq,
// oldest first.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	// Retained events are sorted by Seq; find the first one past seq.
	first := len(b.ring)
	for i, event := range b.ring {
		if event.Seq > seq {
			first = i
			break
		}
	}
	if first == len(b.ring) {
		return nil
	}
	return append([]Event(nil), b.ring[first:]...)
}
