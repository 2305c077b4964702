package inference

import (
	"time"

	"go.uber.org/zap"
)

// EventType identifies a request lifecycle event.
type EventType string

const (
	EventSubmitted  EventType = "submitted"
	EventDispatched EventType = "dispatched"
	EventCompleted  EventType = "completed"
	EventFailed     EventType = "failed"
	EventSuperseded EventType = "superseded"
	EventCancelled  EventType = "cancelled"
	EventDiscarded  EventType = "discarded"
)

// Event describes a change in a request's lifecycle. Duration is set for
// completed, failed and discarded events.
type Event struct {
	Type      EventType
	RequestID uint64
	Backend   string
	Duration  time.Duration
	Err       error
	Timestamp time.Time
}

// Observer receives lifecycle events. Events are emitted from both the
// interactive and the background goroutine, so implementations must be safe
// for concurrent use.
type Observer interface {
	OnEvent(event Event)
}

// NoopObserver discards all events.
type NoopObserver struct{}

func (NoopObserver) OnEvent(Event) {}

// MultiObserver fans events out to several observers.
type MultiObserver []Observer

// NewMultiObserver drops nil observers.
func NewMultiObserver(observers ...Observer) MultiObserver {
	out := make(MultiObserver, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func (m MultiObserver) OnEvent(event Event) {
	for _, o := range m {
		o.OnEvent(event)
	}
}

// LogObserver writes lifecycle events to a zap logger.
type LogObserver struct {
	logger *zap.Logger
}

func NewLogObserver(logger *zap.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnEvent(event Event) {
	fields := []zap.Field{
		zap.Uint64("request_id", event.RequestID),
		zap.String("backend", event.Backend),
	}
	if event.Duration > 0 {
		fields = append(fields, zap.Duration("duration", event.Duration))
	}

	switch event.Type {
	case EventFailed:
		o.logger.Warn("inference request failed", append(fields, zap.Error(event.Err))...)
	case EventCompleted:
		o.logger.Info("inference request completed", fields...)
	default:
		// superseded and discarded requests are expected, not failures
		o.logger.Debug("inference request "+string(event.Type), fields...)
	}
}
