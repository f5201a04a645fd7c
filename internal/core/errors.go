package core

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is. Every typed error below unwraps to one of them.
var (
	ErrUsage             = errors.New("usage error")
	ErrNotFound          = errors.New("not found")
	ErrInvalidState      = errors.New("invalid state")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrDateFormat        = errors.New("invalid date format")
	ErrDateOrder         = errors.New("scheduled date after due date")
	ErrPaymentFailed     = errors.New("payment failed")
)

// Reasons an operation was refused because of a bill or payment state.
const (
	ReasonAlreadyPaid      = "already_paid"
	ReasonAlreadyScheduled = "already_scheduled"
	ReasonPaymentProcessed = "payment_processed"
)

// UsageError reports malformed or missing arguments.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return "Usage: " + e.Usage
}

func (e *UsageError) Unwrap() error { return ErrUsage }

// NotFoundError reports an id that does not resolve to an entity.
type NotFoundError struct {
	Entity string
	ID     int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Sorry! Not found a %s with such id: %d", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type InvalidStateError struct {
	BillID int
	Reason string
	Date   Date // the existing schedule date for ReasonAlreadyScheduled
}

func (e *InvalidStateError) Error() string {
	switch e.Reason {
	case ReasonAlreadyPaid:
		return fmt.Sprintf("Bill with id %d already paid.", e.BillID)
	case ReasonAlreadyScheduled:
		return fmt.Sprintf("Bill with id %d is already scheduled on %s.", e.BillID, e.Date.Display())
	case ReasonPaymentProcessed:
		return fmt.Sprintf("Payment for bill with id %d is already processed.", e.BillID)
	default:
		return fmt.Sprintf("Bill with id %d is in an invalid state: %s", e.BillID, e.Reason)
	}
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

type InsufficientFundsError struct {
	Required int64
	Balance  int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("Sorry! Not enough funds to proceed with payment. Total amount needed: %d, current balance: %d",
		e.Required, e.Balance)
}

func (e *InsufficientFundsError) Unwrap() error { return ErrInsufficientFunds }

type DateFormatError struct {
	Text string
	Err  error
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("Invalid date format %q, expected dd/MM/yyyy.", e.Text)
}

func (e *DateFormatError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrDateFormat}
	}
	return []error{ErrDateFormat, e.Err}
}

type DateOrderError struct {
	BillID    int
	Scheduled Date
	Due       Date
}

func (e *DateOrderError) Error() string {
	return fmt.Sprintf("Scheduled date %s is after the due date %s of bill with id %d.",
		e.Scheduled.Display(), e.Due.Display(), e.BillID)
}

func (e *DateOrderError) Unwrap() error { return ErrDateOrder }

// PaymentError aggregates every per-bill problem found while validating a
// payment request. Nothing is committed when it is returned.
type PaymentError struct {
	Errs []error
}

func (e *PaymentError) Error() string {
	lines := make([]string, 0, len(e.Errs)+1)
	for _, err := range e.Errs {
		lines = append(lines, err.Error())
	}
	lines = append(lines, e.Summary())
	return strings.Join(lines, "\n")
}

// Summary is the final aggregate line reported after the per-bill errors.
func (e *PaymentError) Summary() string {
	return fmt.Sprintf("Payment failed: %d problem(s) found, no bills were paid.", len(e.Errs))
}

func (e *PaymentError) Unwrap() []error {
	return append([]error{ErrPaymentFailed}, e.Errs...)
}
