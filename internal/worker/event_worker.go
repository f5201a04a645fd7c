package worker

import (
	"context"
	"time"

	"billpay/internal/core"
	"billpay/internal/log"
)

// Publisher delivers a ledger event to an external system.
type Publisher interface {
	PublishEvent(ctx context.Context, e core.Event) error
}

// EventWorker forwards ledger events to a Publisher off the caller's path.
// Observe never blocks; Run does the publishing.
type EventWorker struct {
	publisher    Publisher
	events       chan core.Event
	drainTimeout time.Duration
	logger       *log.Logger
}

func NewEventWorker(publisher Publisher, buffer int, drainTimeout time.Duration, logger *log.Logger) *EventWorker {
	if buffer < 1 {
		buffer = 1
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &EventWorker{
		publisher:    publisher,
		events:       make(chan core.Event, buffer),
		drainTimeout: drainTimeout,
		logger:       logger.WithComponent(log.ComponentWorker),
	}
}

// Observe implements ledger.Observer. The event is dropped with a warning
// when the buffer is full.
func (w *EventWorker) Observe(ctx context.Context, e core.Event) {
	select {
	case w.events <- e:
	default:
		w.logger.WarnContext(ctx, "Event buffer full, dropping event",
			log.FieldEventID, e.ID,
			log.FieldEventKind, string(e.Kind),
			"buffer", cap(w.events))
	}
}

// Run publishes events until ctx is cancelled, then flushes whatever is
// already buffered within drainTimeout. It always returns nil.
func (w *EventWorker) Run(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Event worker started", "buffer", cap(w.events))

	for {
		select {
		case <-ctx.Done():
			w.drain()
			w.logger.Info("Event worker stopped")
			return nil
		case e := <-w.events:
			w.publish(ctx, e)
		}
	}
}

func (w *EventWorker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), w.drainTimeout)
	defer cancel()

	for {
		select {
		case e := <-w.events:
			if ctx.Err() != nil {
				w.logger.Warn("Drain timeout reached, dropping event", log.FieldEventID, e.ID)
				continue
			}
			w.publish(ctx, e)
		default:
			return
		}
	}
}

func (w *EventWorker) publish(ctx context.Context, e core.Event) {
	if err := w.publisher.PublishEvent(ctx, e); err != nil {
		w.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.NewFields().
				WithOperation(log.OpPublish).
				WithError(err).
				WithErrorType(log.ErrorTypeNetwork).
				With(log.FieldEventID, e.ID).
				With(log.FieldEventKind, string(e.Kind)).ToSlice()...)
	}
}
