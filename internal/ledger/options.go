package ledger

import (
	"context"
	"time"

	"billpay/internal/core"
	"billpay/internal/log"
)

// Observer is notified after every committed mutation. Observers must not
// call back into the ledger.
type Observer interface {
	Observe(ctx context.Context, e core.Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, e core.Event)

func (f ObserverFunc) Observe(ctx context.Context, e core.Event) { f(ctx, e) }

type Option func(*Ledger)

// WithClock sets the source of "today" for payment dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithBills replaces the default seed bills.
func WithBills(bills []core.Bill) Option {
	return func(l *Ledger) {
		l.seed = bills
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger.WithComponent(log.ComponentLedger)
		}
	}
}

// WithObserver registers an observer. May be given more than once.
func WithObserver(o Observer) Option {
	return func(l *Ledger) {
		if o != nil {
			l.observers = append(l.observers, o)
		}
	}
}
