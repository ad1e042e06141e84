package core

// DetailGroup is one side (income or expense) of a day's transaction detail.
type DetailGroup struct {
	TotalAmount  int64         `json:"totalAmount"`
	Transactions []Transaction `json:"transactions"`
}

// DayDetail partitions a single day's transactions by type with per-group
// subtotals, for the transaction-detail panel.
type DayDetail struct {
	Income  DetailGroup `json:"income"`
	Expense DetailGroup `json:"expense"`
}

// ResolveDayDetail splits one day's transactions into income and expense
// groups. Transactions keep the order the repository returned them in; the
// resolver never re-sorts.
func ResolveDayDetail(txs []Transaction) DayDetail {
	detail := DayDetail{
		Income:  DetailGroup{Transactions: []Transaction{}},
		Expense: DetailGroup{Transactions: []Transaction{}},
	}
	for _, tx := range txs {
		switch tx.Type {
		case Income:
			detail.Income.Transactions = append(detail.Income.Transactions, tx)
			detail.Income.TotalAmount += tx.Amount.Yen
		case Expense:
			detail.Expense.Transactions = append(detail.Expense.Transactions, tx)
			detail.Expense.TotalAmount += tx.Amount.Yen
		}
	}
	return detail
}
