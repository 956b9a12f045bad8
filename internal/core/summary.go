package core

// Totals are the ledger aggregates. They are derived on every read and
// never stored.
type Totals struct {
	TotalIncome  Amount `json:"totalIncome"`
	TotalExpense Amount `json:"totalExpense"`
	Balance      Amount `json:"balance"`
}

// Summarize sums amounts per type. Transactions of any other type
// contribute to neither total.
func Summarize(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			t.TotalIncome = t.TotalIncome.Add(tx.Amount)
		case Expense:
			t.TotalExpense = t.TotalExpense.Add(tx.Amount)
		}
	}
	t.Balance = t.TotalIncome.Sub(t.TotalExpense)
	return t
}

// Progress describes how far a goal is from its target.
type Progress struct {
	// Percent is clamped to 100 for display.
	Percent float64 `json:"percent"`
	// Complete uses the unclamped ratio.
	Complete  bool   `json:"complete"`
	Remaining Amount `json:"remaining"`
}
