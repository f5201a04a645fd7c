package ledger

import "billpay/internal/core"

// DefaultBills is the fixed data every new ledger starts with.
func DefaultBills() []core.Bill {
	return []core.Bill{
		core.NewBill(1, core.Electric, 200000, core.NewDate(2020, 10, 25), "EVN HCMC"),
		core.NewBill(2, core.Water, 175000, core.NewDate(2020, 10, 30), "SAVACO HCMC"),
		core.NewBill(3, core.Internet, 800000, core.NewDate(2020, 11, 30), "VNPT"),
	}
}
