package core

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventCashIn           EventKind = "cash_in"
	EventPaymentProcessed EventKind = "payment_processed"
	EventBillScheduled    EventKind = "bill_scheduled"
)

type EventKind string

// Event describes one committed ledger mutation.
type Event struct {
	ID         string
	Kind       EventKind
	BillID     int
	PaymentID  int
	Amount     int64
	Balance    int64 // balance right after the mutation
	OccurredAt time.Time
}

// NewEvent stamps a fresh event id.
func NewEvent(kind EventKind, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		OccurredAt: at,
	}
}
