package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Electric BillType = "ELECTRIC"
	Water    BillType = "WATER"
	Internet BillType = "INTERNET"
)

const (
	BillNotPaid BillState = iota
	BillPaid
)

const (
	PaymentPending PaymentState = iota
	PaymentProcessed
)

type (
	BillType string

	BillState int

	PaymentState int

	Bill struct {
		ID            int
		Type          BillType
		Amount        int64
		DueDate       Date
		Provider      string
		State         BillState
		ScheduledDate Date // zero when the bill has not been scheduled
	}

	Payment struct {
		ID          int
		Amount      int64
		PaymentDate Date
		State       PaymentState
		BillID      int
	}
)

var (
	ErrInvalidBillID    = errors.New("invalid bill id")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyBillType    = errors.New("empty bill type")
	ErrEmptyProvider    = errors.New("empty provider")
	ErrMissingDueDate   = errors.New("missing due date")
	ErrUnknownBillState = errors.New("unknown bill state")
)

func (s BillState) String() string {
	switch s {
	case BillNotPaid:
		return "NOT_PAID"
	case BillPaid:
		return "PAID"
	default:
		return fmt.Sprintf("BillState(%d)", int(s))
	}
}

func (s PaymentState) String() string {
	switch s {
	case PaymentPending:
		return "PENDING"
	case PaymentProcessed:
		return "PROCESSED"
	default:
		return fmt.Sprintf("PaymentState(%d)", int(s))
	}
}

// NewBill returns an unpaid, unscheduled bill.
func NewBill(id int, typ BillType, amount int64, due Date, provider string) Bill {
	return Bill{
		ID:       id,
		Type:     typ,
		Amount:   amount,
		DueDate:  due,
		Provider: provider,
		State:    BillNotPaid,
	}
}

func (b Bill) Validate() error {
	if b.ID <= 0 {
		return ErrInvalidBillID
	}
	if b.Amount < 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(string(b.Type)) == "" {
		return ErrEmptyBillType
	}
	if strings.TrimSpace(b.Provider) == "" {
		return ErrEmptyProvider
	}
	if b.DueDate.IsZero() {
		return ErrMissingDueDate
	}
	switch b.State {
	case BillNotPaid, BillPaid:
	default:
		return ErrUnknownBillState
	}
	return nil
}

// IsScheduled reports whether a payment date has been registered for the bill.
func (b Bill) IsScheduled() bool {
	return !b.ScheduledDate.IsZero()
}

// MarkPaid moves the bill from NOT_PAID to PAID. A paid bill stays paid.
func (b *Bill) MarkPaid() error {
	switch b.State {
	case BillNotPaid:
		b.State = BillPaid
		return nil
	case BillPaid:
		return &InvalidStateError{BillID: b.ID, Reason: ReasonAlreadyPaid}
	default:
		return fmt.Errorf("bill %d: %w", b.ID, ErrUnknownBillState)
	}
}

// Schedule records the intended payment date. It can only happen once,
// on an unpaid bill, and never after the due date.
func (b *Bill) Schedule(on Date) error {
	if b.State == BillPaid {
		return &InvalidStateError{BillID: b.ID, Reason: ReasonAlreadyPaid}
	}
	if b.IsScheduled() {
		return &InvalidStateError{BillID: b.ID, Reason: ReasonAlreadyScheduled, Date: b.ScheduledDate}
	}
	if on.After(b.DueDate.Time) {
		return &DateOrderError{BillID: b.ID, Scheduled: on, Due: b.DueDate}
	}
	b.ScheduledDate = on
	return nil
}

func (b Bill) String() string {
	return fmt.Sprintf("%d. %s %d %s %s %s", b.ID, b.Type, b.Amount, b.DueDate, b.State, b.Provider)
}

// Process settles a pending payment on the given date. Processed payments are terminal.
func (p *Payment) Process(on Date) error {
	switch p.State {
	case PaymentPending:
		p.State = PaymentProcessed
		p.PaymentDate = on
		return nil
	case PaymentProcessed:
		return &InvalidStateError{BillID: p.BillID, Reason: ReasonPaymentProcessed}
	default:
		return fmt.Errorf("payment %d: unknown state %s", p.ID, p.State)
	}
}

func (p Payment) String() string {
	return fmt.Sprintf("%d. %d %s %s %d", p.ID, p.Amount, p.PaymentDate, p.State, p.BillID)
}

// Date is a calendar day at UTC midnight.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// String renders the date as yyyy-MM-dd, the format used in reports.
func (d Date) String() string {
	if d.IsZero() {
		return "-"
	}
	return d.Format("2006-01-02")
}

// Display renders the date as dd/MM/yyyy, the format users type.
func (d Date) Display() string {
	if d.IsZero() {
		return "-"
	}
	return d.Format(DateLayout)
}
