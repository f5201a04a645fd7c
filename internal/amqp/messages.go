package amqp

import (
	"encoding/json"
	"time"

	"billpay/internal/core"
)

// EventMessage is the JSON body published for every committed ledger event.
type EventMessage struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	BillID     int       `json:"bill_id,omitempty"`
	PaymentID  int       `json:"payment_id,omitempty"`
	Amount     int64     `json:"amount"`
	Balance    int64     `json:"balance"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEventMessage converts a ledger event into its wire form.
func NewEventMessage(e core.Event) *EventMessage {
	return &EventMessage{
		ID:         e.ID,
		Kind:       string(e.Kind),
		BillID:     e.BillID,
		PaymentID:  e.PaymentID,
		Amount:     e.Amount,
		Balance:    e.Balance,
		OccurredAt: e.OccurredAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventMessageFromJSON creates a message from JSON bytes
func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Event converts the message back into a ledger event.
func (m *EventMessage) Event() core.Event {
	return core.Event{
		ID:         m.ID,
		Kind:       core.EventKind(m.Kind),
		BillID:     m.BillID,
		PaymentID:  m.PaymentID,
		Amount:     m.Amount,
		Balance:    m.Balance,
		OccurredAt: m.OccurredAt,
	}
}
