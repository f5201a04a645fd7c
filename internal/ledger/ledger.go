// Package ledger holds the balance, bills and payments of one user and is the
// only place they are mutated.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"billpay/internal/core"
	"billpay/internal/log"
)

// PayUsage is reported when PayBills is called without bill ids.
const PayUsage = "PAY <billId> [<billId> ...]"

// Ledger owns the balance, the bills and the payment records. All mutating
// operations hold mu for their whole validate-then-commit sequence.
type Ledger struct {
	mu sync.Mutex

	balance  int64
	bills    []*core.Bill
	billByID map[int]*core.Bill
	payments []*core.Payment
	// PENDING payment per bill, created by ScheduleBill and consumed by PayBills
	pending       map[int]*core.Payment
	nextPaymentID int

	seed      []core.Bill
	now       func() time.Time
	logger    *log.Logger
	observers []Observer
}

// PayResult describes a committed PayBills call.
type PayResult struct {
	Paid    []core.Payment // one processed payment per paid bill, in payment order
	Balance int64
}

// Count returns the number of bills paid.
func (r PayResult) Count() int {
	return len(r.Paid)
}

// New creates a ledger with a zero balance, no payments and the default
// seed bills unless WithBills is given.
func New(opts ...Option) (*Ledger, error) {
	l := &Ledger{
		billByID:      make(map[int]*core.Bill),
		pending:       make(map[int]*core.Payment),
		nextPaymentID: 1,
		seed:          DefaultBills(),
		now:           time.Now,
		logger:        log.Discard().WithComponent(log.ComponentLedger),
	}
	for _, opt := range opts {
		opt(l)
	}

	for _, b := range l.seed {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("seed bill %d: %w", b.ID, err)
		}
		if _, dup := l.billByID[b.ID]; dup {
			return nil, fmt.Errorf("seed bill %d: duplicate id", b.ID)
		}
		bill := b
		l.bills = append(l.bills, &bill)
		l.billByID[bill.ID] = &bill
	}
	l.seed = nil

	return l, nil
}

// CashIn adds amount to the balance and returns the new balance. Any amount
// is accepted, including zero and negative values.
func (l *Ledger) CashIn(ctx context.Context, amount int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.balance += amount

	l.logger.InfoContext(ctx, "Cash in",
		log.NewFields().WithOperation(log.OpCashIn).With(log.FieldAmount, amount).WithBalance(l.balance).ToSlice()...)

	e := core.NewEvent(core.EventCashIn, l.now())
	e.Amount = amount
	e.Balance = l.balance
	l.emit(ctx, e)

	return l.balance
}

func (l *Ledger) Balance() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// Bill returns a copy of the bill with the given id.
func (l *Ledger) Bill(id int) (core.Bill, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.billByID[id]
	if !ok {
		return core.Bill{}, false
	}
	return *b, true
}

// Bills returns every bill in insertion order.
func (l *Ledger) Bills() []core.Bill {
	return l.filterBills(func(core.Bill) bool { return true })
}

// UnpaidBills returns the NOT_PAID bills in insertion order.
func (l *Ledger) UnpaidBills() []core.Bill {
	return l.filterBills(func(b core.Bill) bool { return b.State == core.BillNotPaid })
}

// BillsByProvider returns the bills whose provider equals provider exactly.
func (l *Ledger) BillsByProvider(provider string) []core.Bill {
	return l.filterBills(func(b core.Bill) bool { return b.Provider == provider })
}

// DueBills returns the unpaid bills ordered by due date, earliest first.
func (l *Ledger) DueBills() []core.Bill {
	bills := l.UnpaidBills()
	slices.SortStableFunc(bills, func(a, b core.Bill) int {
		return a.DueDate.Compare(b.DueDate.Time)
	})
	return bills
}

func (l *Ledger) filterBills(keep func(core.Bill) bool) []core.Bill {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]core.Bill, 0, len(l.bills))
	for _, b := range l.bills {
		if keep(*b) {
			out = append(out, *b)
		}
	}
	return out
}

// Payments returns every payment record in insertion order.
func (l *Ledger) Payments() []core.Payment {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]core.Payment, 0, len(l.payments))
	for _, p := range l.payments {
		out = append(out, *p)
	}
	return out
}

// PayBills pays every listed bill or none of them.
//
// Duplicate ids are paid once. All ids are checked before anything changes:
// unknown and already paid ids are collected into a *core.PaymentError, and a
// balance below the total gives a *core.InsufficientFundsError. On success
// each bill is paid in first-occurrence order; a PENDING record left by
// ScheduleBill is processed in place, otherwise a new PROCESSED record is
// created.
func (l *Ledger) PayBills(ctx context.Context, ids []int) (PayResult, error) {
	if len(ids) == 0 {
		err := &core.UsageError{Usage: PayUsage}
		l.logFailure(ctx, log.OpPay, err)
		return PayResult{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		errs    []error
		payable []*core.Bill
		total   int64
	)
	for _, id := range distinct(ids) {
		b, ok := l.billByID[id]
		switch {
		case !ok:
			errs = append(errs, &core.NotFoundError{Entity: "bill", ID: id})
		case b.State == core.BillPaid:
			errs = append(errs, &core.InvalidStateError{BillID: id, Reason: core.ReasonAlreadyPaid})
		default:
			payable = append(payable, b)
			total += b.Amount
		}
	}

	if len(errs) > 0 {
		err := &core.PaymentError{Errs: errs}
		l.logFailure(ctx, log.OpPay, err, log.FieldBillIDs, ids)
		return PayResult{Balance: l.balance}, err
	}
	if l.balance < total {
		err := &core.InsufficientFundsError{Required: total, Balance: l.balance}
		l.logFailure(ctx, log.OpPay, err, log.FieldRequired, total, log.FieldBalance, l.balance)
		return PayResult{Balance: l.balance}, err
	}

	now := l.now()
	today := core.DateOf(now)
	result := PayResult{Paid: make([]core.Payment, 0, len(payable))}
	events := make([]core.Event, 0, len(payable))
	for _, b := range payable {
		l.balance -= b.Amount
		// Cannot fail: every bill in payable was NOT_PAID under the same lock.
		_ = b.MarkPaid()
		p := l.settle(b, today)
		result.Paid = append(result.Paid, *p)

		e := core.NewEvent(core.EventPaymentProcessed, now)
		e.BillID = b.ID
		e.PaymentID = p.ID
		e.Amount = b.Amount
		e.Balance = l.balance
		events = append(events, e)
	}
	result.Balance = l.balance

	l.logger.InfoContext(ctx, "Bills paid",
		log.NewFields().WithOperation(log.OpPay).
			With(log.FieldCount, result.Count()).
			With(log.FieldAmount, total).
			WithBalance(l.balance).ToSlice()...)

	l.emit(ctx, events...)

	return result, nil
}

// settle returns the PROCESSED payment record for a bill being paid today.
func (l *Ledger) settle(b *core.Bill, today core.Date) *core.Payment {
	if p, ok := l.pending[b.ID]; ok {
		delete(l.pending, b.ID)
		if err := p.Process(today); err == nil {
			return p
		}
	}

	p := &core.Payment{
		ID:          l.allocatePaymentID(),
		Amount:      b.Amount,
		PaymentDate: today,
		State:       core.PaymentProcessed,
		BillID:      b.ID,
	}
	l.payments = append(l.payments, p)
	return p
}

// ScheduleBill registers a future payment date (dd/MM/yyyy) for an unpaid
// bill and creates its PENDING payment record. A bill can be scheduled once.
func (l *Ledger) ScheduleBill(ctx context.Context, id int, dateText string) (core.Bill, error) {
	on, err := core.ParseDate(dateText)
	if err != nil {
		l.logFailure(ctx, log.OpSchedule, err, log.FieldBillID, id)
		return core.Bill{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.billByID[id]
	if !ok {
		err := &core.NotFoundError{Entity: "bill", ID: id}
		l.logFailure(ctx, log.OpSchedule, err, log.FieldBillID, id)
		return core.Bill{}, err
	}
	if err := b.Schedule(on); err != nil {
		l.logFailure(ctx, log.OpSchedule, err, log.FieldBillID, id, log.FieldDate, on.String())
		return core.Bill{}, err
	}

	now := l.now()
	p := &core.Payment{
		ID:          l.allocatePaymentID(),
		Amount:      b.Amount,
		PaymentDate: core.DateOf(now),
		State:       core.PaymentPending,
		BillID:      b.ID,
	}
	l.payments = append(l.payments, p)
	l.pending[b.ID] = p

	l.logger.InfoContext(ctx, "Bill scheduled",
		log.NewFields().WithOperation(log.OpSchedule).
			WithBill(b.ID, b.Amount).
			With(log.FieldPaymentID, p.ID).
			With(log.FieldDate, on.String()).ToSlice()...)

	e := core.NewEvent(core.EventBillScheduled, now)
	e.BillID = b.ID
	e.PaymentID = p.ID
	e.Amount = b.Amount
	e.Balance = l.balance
	l.emit(ctx, e)

	return *b, nil
}

func (l *Ledger) allocatePaymentID() int {
	id := l.nextPaymentID
	l.nextPaymentID++
	return id
}

func (l *Ledger) emit(ctx context.Context, events ...core.Event) {
	for _, e := range events {
		for _, o := range l.observers {
			o.Observe(ctx, e)
		}
	}
}

func (l *Ledger) logFailure(ctx context.Context, op string, err error, args ...any) {
	fields := log.NewFields().WithOperation(op).WithError(err).WithErrorType(ErrorType(err)).ToSlice()
	l.logger.WarnContext(ctx, "Operation rejected", append(fields, args...)...)
}

// ErrorType maps a domain error to its log category.
func ErrorType(err error) string {
	switch {
	case errors.Is(err, core.ErrPaymentFailed):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrUsage):
		return log.ErrorTypeUsage
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrInvalidState):
		return log.ErrorTypeInvalidState
	case errors.Is(err, core.ErrInsufficientFunds):
		return log.ErrorTypeInsufficientFunds
	case errors.Is(err, core.ErrDateFormat):
		return log.ErrorTypeDateFormat
	case errors.Is(err, core.ErrDateOrder):
		return log.ErrorTypeDateOrder
	default:
		return log.ErrorTypeInternal
	}
}

// distinct drops repeated ids, keeping first occurrences in order.
func distinct(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
