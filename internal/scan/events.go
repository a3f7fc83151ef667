package scan

import "time"

// EventType identifies the kind of notification emitted during a scan.
type EventType string

const (
	EventScanStarted   EventType = "scan_started"
	EventProgress      EventType = "progress_update"
	EventFinding       EventType = "finding_discovered"
	EventError         EventType = "error_occurred"
	EventScanCompleted EventType = "scan_completed"
)

// Event is a single notification delivered to observers. Events are
// advisory: a missing or slow subscriber never affects scan correctness.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	// Progress fields (EventProgress).
	Processed int64   `json:"processed,omitempty"`
	Total     int64   `json:"total,omitempty"`
	Percent   float64 `json:"percent,omitempty"`

	// Finding payload (EventFinding).
	Result *Result `json:"result,omitempty"`

	// Error description (EventError).
	Reason string `json:"reason,omitempty"`

	// Final summary (EventScanCompleted).
	Summary *Summary `json:"summary,omitempty"`
}

// Publisher fans events out to a bounded channel without ever blocking the
// pipeline. When the buffer is full the event is dropped.
type Publisher struct {
	ch chan Event
}

// NewPublisher creates a publisher with the given buffer size. Size <= 0
// disables buffering entirely (every publish is dropped unless consumed
// immediately), so callers normally pass a few hundred.
func NewPublisher(buffer int) *Publisher {
	if buffer < 0 {
		buffer = 0
	}
	return &Publisher{ch: make(chan Event, buffer)}
}

// Events returns the receive side of the publisher.
func (p *Publisher) Events() <-chan Event { return p.ch }

// Publish delivers an event if buffer space is available, otherwise drops it.
func (p *Publisher) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	select {
	case p.ch <- ev:
	default: // observer too slow; drop rather than stall workers
	}
}

// Close closes the event channel. Publish must not be called afterwards.
func (p *Publisher) Close() { close(p.ch) }
