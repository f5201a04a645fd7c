// Package repl is the line-oriented command interpreter in front of the
// ledger. It parses arguments, calls the ledger and prints the outcome.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"billpay/internal/core"
	"billpay/internal/ledger"
	"billpay/internal/log"
	"billpay/internal/trace"
)

const (
	Prompt         = "\nEnter command: "
	Welcome        = "Welcome to Bill Payment System!"
	Goodbye        = "Goodbye!"
	UnknownCommand = "Unknown command. Type HELP for the list of commands."

	defaultHistoryLimit = 10
)

const helpText = `Available commands:
CASHIN <amount>
BALANCE
LISTBILLS
LISTUNPAID
DUEDATE
SEARCH <provider>
PAY <billId> [<billId> ...]
SCHEDULE <billId> <dd/MM/yyyy>
LISTPAYMENTS
HISTORY [<count>]
HELP
EXIT`

// HistoryReader lists recent ledger events, newest first.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]core.Event, error)
}

type Interpreter struct {
	ledger      *ledger.Ledger
	history     HistoryReader
	in          io.Reader
	out         io.Writer
	interactive bool
	tracer      *trace.Tracer
	logger      *log.Logger
}

type Option func(*Interpreter)

// WithHistory enables the HISTORY command.
func WithHistory(h HistoryReader) Option {
	return func(it *Interpreter) { it.history = h }
}

// WithInteractive prints a prompt before every command.
func WithInteractive(interactive bool) Option {
	return func(it *Interpreter) { it.interactive = interactive }
}

func WithLogger(logger *log.Logger) Option {
	return func(it *Interpreter) {
		if logger != nil {
			it.logger = logger.WithComponent(log.ComponentREPL)
		}
	}
}

func New(l *ledger.Ledger, in io.Reader, out io.Writer, opts ...Option) *Interpreter {
	it := &Interpreter{
		ledger: l,
		in:     in,
		out:    out,
		tracer: trace.NewTracer(),
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Run reads commands until EXIT, end of input or ctx cancellation.
func (it *Interpreter) Run(ctx context.Context) error {
	defer func() {
		m := it.tracer.Metrics()
		it.logger.Info("Session ended",
			log.FieldCount, m.TotalCommands,
			"avg_duration_us", m.AverageDuration)
	}()

	it.println(Welcome)
	it.println(helpText)

	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(it.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		if it.interactive {
			it.printf("%s", Prompt)
		}

		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read command: %w", err)
					}
				default:
				}
				return nil
			}
			if quit := it.Execute(ctx, line); quit {
				return nil
			}
		}
	}
}

// Execute runs a single command line and reports whether the session should end.
func (it *Interpreter) Execute(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd := strings.ToUpper(fields[0])
	args := fields[1:]

	ctx, done := it.tracer.Start(ctx)
	defer func() {
		it.logger.DebugContext(ctx, "Command completed",
			log.FieldCommand, cmd,
			"duration_us", done().Microseconds())
	}()
	it.logger.DebugContext(ctx, "Command received", log.FieldCommand, cmd)

	switch cmd {
	case "EXIT", "QUIT":
		it.println(Goodbye)
		return true
	case "HELP":
		it.println(helpText)
	case "CASHIN", "CASH_IN":
		it.cashIn(ctx, args)
	case "BALANCE":
		it.printf("Your available balance: %d\n", it.ledger.Balance())
	case "LISTBILLS", "LIST_BILL":
		it.writeBills(it.ledger.Bills())
	case "LISTUNPAID":
		it.writeBills(it.ledger.UnpaidBills())
	case "DUEDATE", "DUE_DATE":
		it.writeBills(it.ledger.DueBills())
	case "SEARCH", "SEARCH_BILL_BY_PROVIDER":
		it.search(line)
	case "PAY":
		it.pay(ctx, args)
	case "SCHEDULE":
		it.schedule(ctx, args)
	case "LISTPAYMENTS", "LIST_PAYMENT":
		if err := ledger.WritePayments(it.out, it.ledger.Payments()); err != nil {
			it.logger.ErrorContext(ctx, "Failed to write payments", log.FieldError, err)
		}
	case "HISTORY":
		it.showHistory(ctx, args)
	default:
		it.println(UnknownCommand)
	}
	return false
}

func (it *Interpreter) cashIn(ctx context.Context, args []string) {
	if len(args) < 1 {
		it.println("Usage: CASHIN <amount>")
		return
	}
	amount, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		it.println("Invalid amount.")
		return
	}
	it.printf("Your available balance: %d\n", it.ledger.CashIn(ctx, amount))
}

// search takes the provider from the raw line so names with spaces survive.
func (it *Interpreter) search(line string) {
	_, provider, _ := strings.Cut(strings.TrimSpace(line), " ")
	provider = strings.TrimSpace(provider)
	if provider == "" {
		it.println("Usage: SEARCH <provider>")
		return
	}
	it.writeBills(it.ledger.BillsByProvider(provider))
}

func (it *Interpreter) pay(ctx context.Context, args []string) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		id, err := strconv.Atoi(a)
		if err != nil {
			it.println("Invalid bill id.")
			return
		}
		ids = append(ids, id)
	}

	res, err := it.ledger.PayBills(ctx, ids)
	if err != nil {
		it.println(err.Error())
		return
	}

	for _, p := range res.Paid {
		it.printf("Payment has been completed for Bill with id %d.\n", p.BillID)
	}
	it.printf("%d bill(s) paid.\n", res.Count())
	it.printf("Your current balance after payment: %d\n", res.Balance)
}

func (it *Interpreter) schedule(ctx context.Context, args []string) {
	if len(args) < 2 {
		it.println("Usage: SCHEDULE <billId> <dd/MM/yyyy>")
		return
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		it.println("Invalid bill id.")
		return
	}

	bill, err := it.ledger.ScheduleBill(ctx, id, args[1])
	if err != nil {
		it.println(err.Error())
		return
	}
	it.printf("Payment for bill id %d is scheduled on %s\n", bill.ID, bill.ScheduledDate.Display())
}

func (it *Interpreter) showHistory(ctx context.Context, args []string) {
	if it.history == nil {
		it.println("History is not available.")
		return
	}
	limit := defaultHistoryLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			it.println("Usage: HISTORY [<count>]")
			return
		}
		limit = n
	}

	events, err := it.history.Recent(ctx, limit)
	if err != nil {
		it.logger.ErrorContext(ctx, "Failed to read history", log.FieldError, err)
		it.println("History is not available.")
		return
	}
	if len(events) == 0 {
		it.println("No events recorded.")
		return
	}
	for _, e := range events {
		it.printf("%s %s bill=%d payment=%d amount=%d balance=%d\n",
			e.OccurredAt.Format("2006-01-02 15:04:05"), e.Kind, e.BillID, e.PaymentID, e.Amount, e.Balance)
	}
}

// Metrics reports how many commands ran and their average duration.
func (it *Interpreter) Metrics() trace.Metrics {
	return it.tracer.Metrics()
}

func (it *Interpreter) writeBills(bills []core.Bill) {
	if err := ledger.WriteBills(it.out, bills); err != nil {
		it.logger.Error("Failed to write bills", log.FieldError, err)
	}
}

func (it *Interpreter) println(s string) {
	fmt.Fprintln(it.out, s)
}

func (it *Interpreter) printf(format string, args ...any) {
	fmt.Fprintf(it.out, format, args...)
}
