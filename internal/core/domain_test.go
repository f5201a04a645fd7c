package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillString(t *testing.T) {
	b := NewBill(1, Electric, 150000, NewDate(2025, 8, 28), "EVN")
	assert.Equal(t, "1. ELECTRIC 150000 2025-08-28 NOT_PAID EVN", b.String())

	require.NoError(t, b.MarkPaid())
	assert.Equal(t, "1. ELECTRIC 150000 2025-08-28 PAID EVN", b.String())
}

func TestBillMarkPaid(t *testing.T) {
	b := NewBill(1, Electric, 150000, NewDate(2025, 8, 28), "EVN")
	require.Equal(t, BillNotPaid, b.State)

	require.NoError(t, b.MarkPaid())
	assert.Equal(t, BillPaid, b.State)

	err := b.MarkPaid()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidState))
	assert.Equal(t, BillPaid, b.State)
}

func TestBillSchedule(t *testing.T) {
	due := NewDate(2020, 10, 25)

	t.Run("on due date", func(t *testing.T) {
		b := NewBill(1, Electric, 200000, due, "EVN HCMC")
		require.NoError(t, b.Schedule(due))
		assert.True(t, b.IsScheduled())
		assert.Equal(t, due, b.ScheduledDate)
	})

	t.Run("after due date", func(t *testing.T) {
		b := NewBill(1, Electric, 200000, due, "EVN HCMC")
		err := b.Schedule(NewDate(2020, 10, 26))

		var orderErr *DateOrderError
		require.ErrorAs(t, err, &orderErr)
		assert.Equal(t, due, orderErr.Due)
		assert.False(t, b.IsScheduled())
	})

	t.Run("only once", func(t *testing.T) {
		b := NewBill(1, Electric, 200000, due, "EVN HCMC")
		require.NoError(t, b.Schedule(NewDate(2020, 10, 1)))

		err := b.Schedule(NewDate(2020, 10, 2))
		var stateErr *InvalidStateError
		require.ErrorAs(t, err, &stateErr)
		assert.Equal(t, ReasonAlreadyScheduled, stateErr.Reason)
		assert.Equal(t, NewDate(2020, 10, 1), b.ScheduledDate)
	})

	t.Run("paid bill", func(t *testing.T) {
		b := NewBill(1, Electric, 200000, due, "EVN HCMC")
		require.NoError(t, b.MarkPaid())

		err := b.Schedule(NewDate(2020, 10, 1))
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.False(t, b.IsScheduled())
	})
}

func TestBillValidate(t *testing.T) {
	due := NewDate(2020, 10, 25)
	require.NoError(t, NewBill(1, Water, 0, due, "SAVACO").Validate())

	bads := []Bill{
		NewBill(0, Water, 1, due, "SAVACO"),
		NewBill(1, Water, -1, due, "SAVACO"),
		NewBill(1, "", 1, due, "SAVACO"),
		NewBill(1, Water, 1, due, " "),
		NewBill(1, Water, 1, Date{}, "SAVACO"),
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestPaymentProcess(t *testing.T) {
	p := Payment{ID: 1, Amount: 175000, PaymentDate: NewDate(2020, 10, 1), State: PaymentPending, BillID: 2}
	assert.Equal(t, "1. 175000 2020-10-01 PENDING 2", p.String())

	require.NoError(t, p.Process(NewDate(2020, 10, 5)))
	assert.Equal(t, PaymentProcessed, p.State)
	assert.Equal(t, "1. 175000 2020-10-05 PROCESSED 2", p.String())

	assert.ErrorIs(t, p.Process(NewDate(2020, 10, 6)), ErrInvalidState)
	assert.Equal(t, NewDate(2020, 10, 5), p.PaymentDate)
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "NOT_PAID", BillNotPaid.String())
	assert.Equal(t, "PAID", BillPaid.String())
	assert.Equal(t, "PENDING", PaymentPending.String())
	assert.Equal(t, "PROCESSED", PaymentProcessed.String())
	assert.Equal(t, "BillState(7)", BillState(7).String())
}

func TestPaymentErrorUnwrap(t *testing.T) {
	err := error(&PaymentError{Errs: []error{
		&NotFoundError{Entity: "bill", ID: 99},
		&InvalidStateError{BillID: 1, Reason: ReasonAlreadyPaid},
	}})

	assert.ErrorIs(t, err, ErrPaymentFailed)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.NotErrorIs(t, err, ErrInsufficientFunds)

	assert.Equal(t,
		"Sorry! Not found a bill with such id: 99\n"+
			"Bill with id 1 already paid.\n"+
			"Payment failed: 2 problem(s) found, no bills were paid.",
		err.Error())
}
