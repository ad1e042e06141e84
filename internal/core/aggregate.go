package core

import "log/slog"

// DailySummary is one calendar day's income total, expense total and derived
// balance. Date is the day of month (1-based).
type DailySummary struct {
	Date    int   `json:"date"`
	Income  int64 `json:"income"`
	Expense int64 `json:"expense"`
	Balance int64 `json:"balance"`
}

// MonthlyTotal is the month-level reduction over the daily summaries.
type MonthlyTotal struct {
	TotalIncome  int64 `json:"totalIncome"`
	TotalExpense int64 `json:"totalExpense"`
	Balance      int64 `json:"balance"`
}

// MonthlyData is the calendar payload: one summary per day plus the monthly
// total.
type MonthlyData struct {
	DailySummaries []DailySummary `json:"dailySummaries"`
	MonthlyTotal   MonthlyTotal   `json:"monthlyTotal"`
}

// AggregateDaily folds a month's transactions into one summary per calendar
// day, ordered by day ascending. Every day of the month is present even with
// zero transactions. Day extraction uses the UTC calendar, the same basis the
// repository uses for range filtering; a transaction whose UTC year/month
// disagrees with the requested month is skipped with a diagnostic instead of
// corrupting an unrelated bucket.
func AggregateDaily(year, month int, txs []Transaction) []DailySummary {
	days := DaysInMonth(year, month)
	summaries := make([]DailySummary, days)
	for i := range summaries {
		summaries[i] = DailySummary{Date: i + 1}
	}

	for _, tx := range txs {
		d := tx.Date.UTC()
		if d.Year() != year || int(d.Month()) != month {
			slog.Warn("transaction outside requested month, skipping",
				"transaction_id", tx.ID,
				"requested_year", year,
				"requested_month", month,
				"transaction_date", tx.Date)
			continue
		}
		s := &summaries[d.Day()-1]
		switch tx.Type {
		case Income:
			s.Income += tx.Amount.Yen
		case Expense:
			s.Expense += tx.Amount.Yen
		default:
			slog.Warn("transaction with unknown type, skipping",
				"transaction_id", tx.ID, "type", tx.Type)
			continue
		}
		s.Balance = s.Income - s.Expense
	}

	return summaries
}

// SummarizeMonth reduces daily summaries to the monthly total.
func SummarizeMonth(dailies []DailySummary) MonthlyTotal {
	var total MonthlyTotal
	for _, d := range dailies {
		total.TotalIncome += d.Income
		total.TotalExpense += d.Expense
	}
	total.Balance = total.TotalIncome - total.TotalExpense
	return total
}
