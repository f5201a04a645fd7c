package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billpay/internal/core"
)

var today = time.Date(2020, 10, 20, 9, 30, 0, 0, time.UTC)

type recorder struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *recorder) Observe(_ context.Context, e core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) kinds() []core.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]core.EventKind, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Kind)
	}
	return out
}

func newLedger(t *testing.T, opts ...Option) *Ledger {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return today })}, opts...)
	l, err := New(opts...)
	require.NoError(t, err)
	return l
}

func TestNewSeedsDefaultBills(t *testing.T) {
	l := newLedger(t)

	assert.Zero(t, l.Balance())
	assert.Empty(t, l.Payments())

	bills := l.Bills()
	require.Len(t, bills, 3)
	assert.Equal(t, "1. ELECTRIC 200000 2020-10-25 NOT_PAID EVN HCMC", bills[0].String())
	assert.Equal(t, "2. WATER 175000 2020-10-30 NOT_PAID SAVACO HCMC", bills[1].String())
	assert.Equal(t, "3. INTERNET 800000 2020-11-30 NOT_PAID VNPT", bills[2].String())
}

func TestNewRejectsBadSeed(t *testing.T) {
	due := core.NewDate(2020, 1, 1)

	_, err := New(WithBills([]core.Bill{
		core.NewBill(1, core.Water, 10, due, "A"),
		core.NewBill(1, core.Water, 20, due, "B"),
	}))
	assert.ErrorContains(t, err, "duplicate id")

	_, err = New(WithBills([]core.Bill{core.NewBill(1, core.Water, -5, due, "A")}))
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestCashIn(t *testing.T) {
	tests := []struct {
		name    string
		amounts []int64
		want    int64
	}{
		{name: "zero", amounts: []int64{0}, want: 0},
		{name: "single", amounts: []int64{500000}, want: 500000},
		{name: "sum", amounts: []int64{100, 200, 300}, want: 600},
		{name: "negative goes below zero", amounts: []int64{-50000}, want: -50000},
		{name: "mixed", amounts: []int64{300000, -100000, 5}, want: 200005},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t)
			var got int64
			for _, a := range tt.amounts {
				got = l.CashIn(context.Background(), a)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, l.Balance())
		})
	}
}

func TestBillFilters(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.CashIn(ctx, 1000000)
	_, err := l.PayBills(ctx, []int{2})
	require.NoError(t, err)

	unpaid := l.UnpaidBills()
	require.Len(t, unpaid, 2)
	assert.Equal(t, 1, unpaid[0].ID)
	assert.Equal(t, 3, unpaid[1].ID)

	byProvider := l.BillsByProvider("VNPT")
	require.Len(t, byProvider, 1)
	assert.Equal(t, 3, byProvider[0].ID)

	assert.Empty(t, l.BillsByProvider("vnpt"), "provider match is case-sensitive")
	assert.Empty(t, l.BillsByProvider("EVN"), "provider match is exact")
}

func TestDueBillsOrderedByDueDate(t *testing.T) {
	l := newLedger(t, WithBills([]core.Bill{
		core.NewBill(1, core.Internet, 10, core.NewDate(2020, 12, 1), "C"),
		core.NewBill(2, core.Water, 20, core.NewDate(2020, 10, 1), "A"),
		core.NewBill(3, core.Electric, 30, core.NewDate(2020, 11, 1), "B"),
		core.NewBill(4, core.Electric, 40, core.NewDate(2020, 10, 1), "D"),
	}))
	l.CashIn(context.Background(), 100)
	_, err := l.PayBills(context.Background(), []int{3})
	require.NoError(t, err)

	var ids []int
	for _, b := range l.DueBills() {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []int{2, 4, 1}, ids)
}

func TestPayBillsSuccess(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	l := newLedger(t, WithObserver(rec))

	assert.EqualValues(t, 300000, l.CashIn(ctx, 300000))

	res, err := l.PayBills(ctx, []int{1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count())
	assert.EqualValues(t, 100000, res.Balance)
	assert.EqualValues(t, 100000, l.Balance())

	bill, ok := l.Bill(1)
	require.True(t, ok)
	assert.Equal(t, core.BillPaid, bill.State)

	payments := l.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, core.Payment{
		ID:          1,
		Amount:      200000,
		PaymentDate: core.NewDate(2020, 10, 20),
		State:       core.PaymentProcessed,
		BillID:      1,
	}, payments[0])

	assert.Equal(t, []core.EventKind{core.EventCashIn, core.EventPaymentProcessed}, rec.kinds())
}

func TestPayBillsMultipleInInputOrder(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.CashIn(ctx, 1175000)

	res, err := l.PayBills(ctx, []int{3, 1, 3, 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Count())
	assert.Zero(t, res.Balance)

	payments := l.Payments()
	require.Len(t, payments, 3)
	for i, billID := range []int{3, 1, 2} {
		assert.Equal(t, i+1, payments[i].ID)
		assert.Equal(t, billID, payments[i].BillID)
	}
	assert.Empty(t, l.UnpaidBills())
}

func TestPayBillsDuplicatesPayOnce(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.CashIn(ctx, 500000)

	res, err := l.PayBills(ctx, []int{1, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count())
	assert.EqualValues(t, 300000, l.Balance())
	assert.Len(t, l.Payments(), 1)
}

func TestPayBillsExactFunds(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.CashIn(ctx, 200000)

	res, err := l.PayBills(ctx, []int{1})
	require.NoError(t, err)
	assert.Zero(t, res.Balance)
}

func TestPayBillsIsAtomic(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(*Ledger)
		ids     []int
		wantErr []error
	}{
		{
			name:    "unknown id on fresh ledger",
			ids:     []int{1, 99},
			wantErr: []error{core.ErrPaymentFailed, core.ErrNotFound},
		},
		{
			name: "already paid among payable",
			prepare: func(l *Ledger) {
				l.CashIn(ctx, 2000000)
				_, err := l.PayBills(ctx, []int{2})
				require.NoError(t, err)
			},
			ids:     []int{1, 2, 3},
			wantErr: []error{core.ErrPaymentFailed, core.ErrInvalidState},
		},
		{
			name:    "insufficient funds",
			prepare: func(l *Ledger) { l.CashIn(ctx, 374999) },
			ids:     []int{1, 2},
			wantErr: []error{core.ErrInsufficientFunds},
		},
		{
			name:    "negative balance",
			prepare: func(l *Ledger) { l.CashIn(ctx, -1) },
			ids:     []int{1},
			wantErr: []error{core.ErrInsufficientFunds},
		},
		{
			name:    "empty input",
			ids:     nil,
			wantErr: []error{core.ErrUsage},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t)
			if tt.prepare != nil {
				tt.prepare(l)
			}
			balance, bills, payments := l.Balance(), l.Bills(), l.Payments()

			_, err := l.PayBills(ctx, tt.ids)
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}

			assert.Equal(t, balance, l.Balance())
			assert.Equal(t, bills, l.Bills())
			assert.Equal(t, payments, l.Payments())
		})
	}
}

func TestPayBillsReportsEveryFailingID(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.CashIn(ctx, 1000000)
	_, err := l.PayBills(ctx, []int{1})
	require.NoError(t, err)

	_, err = l.PayBills(ctx, []int{99, 1, 2, 98, 99})

	var payErr *core.PaymentError
	require.ErrorAs(t, err, &payErr)
	require.Len(t, payErr.Errs, 3)

	var nf *core.NotFoundError
	require.ErrorAs(t, payErr.Errs[0], &nf)
	assert.Equal(t, 99, nf.ID)

	var st *core.InvalidStateError
	require.ErrorAs(t, payErr.Errs[1], &st)
	assert.Equal(t, 1, st.BillID)
	assert.Equal(t, core.ReasonAlreadyPaid, st.Reason)

	require.ErrorAs(t, payErr.Errs[2], &nf)
	assert.Equal(t, 98, nf.ID)
}

func TestInsufficientFundsReportsTotal(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.CashIn(ctx, 100000)

	_, err := l.PayBills(ctx, []int{1, 2})

	var funds *core.InsufficientFundsError
	require.ErrorAs(t, err, &funds)
	assert.EqualValues(t, 375000, funds.Required)
	assert.EqualValues(t, 100000, funds.Balance)
}

func TestScheduleBill(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	l := newLedger(t, WithObserver(rec))

	bill, err := l.ScheduleBill(ctx, 2, "20/10/2020")
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2020, 10, 20), bill.ScheduledDate)

	payments := l.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, core.Payment{
		ID:          1,
		Amount:      175000,
		PaymentDate: core.NewDate(2020, 10, 20),
		State:       core.PaymentPending,
		BillID:      2,
	}, payments[0])

	stored, _ := l.Bill(2)
	assert.Equal(t, core.BillNotPaid, stored.State)
	assert.Zero(t, l.Balance())
	assert.Equal(t, []core.EventKind{core.EventBillScheduled}, rec.kinds())
}

func TestScheduleBillRejections(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(*Ledger)
		id      int
		date    string
		wantErr error
	}{
		{name: "malformed date", id: 1, date: "2020-10-20", wantErr: core.ErrDateFormat},
		{name: "impossible date", id: 1, date: "32/10/2020", wantErr: core.ErrDateFormat},
		{name: "unknown bill", id: 42, date: "20/10/2020", wantErr: core.ErrNotFound},
		{name: "after due date", id: 1, date: "26/10/2020", wantErr: core.ErrDateOrder},
		{
			name: "already paid",
			prepare: func(l *Ledger) {
				l.CashIn(ctx, 200000)
				_, err := l.PayBills(ctx, []int{1})
				require.NoError(t, err)
			},
			id: 1, date: "20/10/2020", wantErr: core.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t)
			if tt.prepare != nil {
				tt.prepare(l)
			}
			payments := l.Payments()

			_, err := l.ScheduleBill(ctx, tt.id, tt.date)
			assert.ErrorIs(t, err, tt.wantErr)

			if b, ok := l.Bill(tt.id); ok {
				assert.False(t, b.IsScheduled())
			}
			assert.Equal(t, payments, l.Payments())
		})
	}
}

func TestScheduleBillAfterDueDateNamesBothDates(t *testing.T) {
	l := newLedger(t)

	_, err := l.ScheduleBill(context.Background(), 1, "26/10/2020")

	var order *core.DateOrderError
	require.ErrorAs(t, err, &order)
	assert.Equal(t, core.NewDate(2020, 10, 26), order.Scheduled)
	assert.Equal(t, core.NewDate(2020, 10, 25), order.Due)
	assert.Contains(t, err.Error(), "26/10/2020")
	assert.Contains(t, err.Error(), "25/10/2020")
}

func TestScheduleBillOnlyOnce(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)

	_, err := l.ScheduleBill(ctx, 1, "24/10/2020")
	require.NoError(t, err)

	for _, date := range []string{"24/10/2020", "01/10/2020", "30/12/2020", "bad"} {
		_, err := l.ScheduleBill(ctx, 1, date)
		if date == "bad" {
			assert.ErrorIs(t, err, core.ErrDateFormat)
			continue
		}
		var st *core.InvalidStateError
		require.ErrorAs(t, err, &st, date)
		assert.Equal(t, core.ReasonAlreadyScheduled, st.Reason)
	}

	bill, _ := l.Bill(1)
	assert.Equal(t, core.NewDate(2020, 10, 24), bill.ScheduledDate)
	assert.Len(t, l.Payments(), 1)
}

func TestPayingScheduledBillUpgradesPendingRecord(t *testing.T) {
	ctx := context.Background()
	clock := today
	l := newLedger(t, WithClock(func() time.Time { return clock }))

	_, err := l.ScheduleBill(ctx, 2, "20/10/2020")
	require.NoError(t, err)
	l.CashIn(ctx, 200000)

	clock = clock.AddDate(0, 0, 3)
	res, err := l.PayBills(ctx, []int{2})
	require.NoError(t, err)
	assert.EqualValues(t, 25000, res.Balance)

	payments := l.Payments()
	require.Len(t, payments, 1)
	assert.Equal(t, 1, payments[0].ID)
	assert.Equal(t, core.PaymentProcessed, payments[0].State)
	assert.Equal(t, core.NewDate(2020, 10, 23), payments[0].PaymentDate)
	assert.Equal(t, payments[0], res.Paid[0])
}

func TestPaymentIDsAreSequential(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.CashIn(ctx, 2000000)

	_, err := l.ScheduleBill(ctx, 3, "01/11/2020")
	require.NoError(t, err)
	_, err = l.PayBills(ctx, []int{1, 3})
	require.NoError(t, err)
	_, err = l.PayBills(ctx, []int{2})
	require.NoError(t, err)

	var got [][2]int
	for _, p := range l.Payments() {
		got = append(got, [2]int{p.ID, p.BillID})
	}
	assert.Equal(t, [][2]int{{1, 3}, {2, 1}, {3, 2}}, got)
}

func TestConcurrentPayBillsOnSameBill(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t)
	l.CashIn(ctx, 10000000)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.PayBills(ctx, []int{3}); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.EqualValues(t, 9200000, l.Balance())
	assert.Len(t, l.Payments(), 1)
}

func TestReturnedSlicesAreCopies(t *testing.T) {
	l := newLedger(t)

	bills := l.Bills()
	bills[0].State = core.BillPaid
	bills[0].Amount = 1

	b, _ := l.Bill(1)
	assert.Equal(t, core.BillNotPaid, b.State)
	assert.EqualValues(t, 200000, b.Amount)
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "validation_error", ErrorType(&core.PaymentError{Errs: []error{&core.NotFoundError{ID: 1}}}))
	assert.Equal(t, "not_found_error", ErrorType(&core.NotFoundError{ID: 1}))
	assert.Equal(t, "insufficient_funds_error", ErrorType(&core.InsufficientFundsError{}))
	assert.Equal(t, "date_order_error", ErrorType(&core.DateOrderError{}))
	assert.Equal(t, "internal_error", ErrorType(assert.AnError))
}
