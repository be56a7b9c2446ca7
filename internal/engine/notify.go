package engine

import "log/slog"

// EventType discriminates Event.
type EventType uint8

const (
	// EventDataReady announces a fresh committed cache entry for
	// Event.Kind. The consumer should re-read the cache; the event
	// itself carries no payload.
	EventDataReady EventType = iota
	// EventProgress reports partial progress of a long-running job.
	EventProgress
	// EventFailed reports a surfaced job failure.
	EventFailed
)

// Event is what the engine delivers to its single consumer. Events are
// ephemeral: they trigger a redraw or a message line and are not
// retained.
type Event struct {
	Type     EventType
	Kind     Kind
	Fraction float64   // EventProgress; negative means indeterminate
	Err      ErrorKind // EventFailed
	Detail   string    // EventFailed; human-readable cause
}

// notifier is a non-blocking fan-in onto the consumer channel. When
// the buffer is full the event is dropped: the consumer re-reads cache
// state on every redraw, so a lost wake-up for a kind it is already
// going to repaint loses nothing.
type notifier struct {
	ch  chan Event
	log *slog.Logger
}

func newNotifier(buffer int, log *slog.Logger) *notifier {
	return &notifier{ch: make(chan Event, buffer), log: log}
}

func (n *notifier) send(ev Event) {
	select {
	case n.ch <- ev:
	default:
		n.log.Debug("notification dropped", "type", ev.Type, "kind", ev.Kind)
	}
}

func (n *notifier) close() {
	close(n.ch)
}
