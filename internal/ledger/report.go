package ledger

import (
	"fmt"
	"io"

	"billpay/internal/core"
)

const (
	BillHeader      = "Bill No. Type Amount Due Date State PROVIDER"
	PaymentHeader   = "No. Amount Payment Date State Bill Id"
	NoPaymentsLabel = "No payments yet."
)

// WriteBills prints the bill report: a header line, then one line per bill.
// An empty slice prints only the header.
func WriteBills(w io.Writer, bills []core.Bill) error {
	if _, err := fmt.Fprintln(w, BillHeader); err != nil {
		return err
	}
	for _, b := range bills {
		if _, err := fmt.Fprintln(w, b); err != nil {
			return err
		}
	}
	return nil
}

// WritePayments prints the payment report, or NoPaymentsLabel when there are none.
func WritePayments(w io.Writer, payments []core.Payment) error {
	if len(payments) == 0 {
		_, err := fmt.Fprintln(w, NoPaymentsLabel)
		return err
	}
	if _, err := fmt.Fprintln(w, PaymentHeader); err != nil {
		return err
	}
	for _, p := range payments {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	return nil
}
