package core

import "time"

// BudgetProgress reports how much of a budget's allotment is consumed as of a
// reference date. RemainingAmount may be negative once the budget is
// overspent; UsagePercentage is half-up rounded.
type BudgetProgress struct {
	UsedAmount        int64               `json:"usedAmount"`
	RemainingAmount   int64               `json:"remainingAmount"`
	UsagePercentage   int                 `json:"usagePercentage"`
	TransactionCount  int64               `json:"transactionCount"`
	IsOverBudget      bool                `json:"isOverBudget"`
	DaysRemaining     int                 `json:"daysRemaining"`
	CategoryBreakdown []CategoryBreakdown `json:"categoryBreakdown,omitempty"`
}

// CategoryStat is one row of the repository's expense group-by aggregate for
// a budget: main category id, summed amount and row count.
type CategoryStat struct {
	MainCategoryID   int64
	CategoryName     string
	Amount           int64
	TransactionCount int64
}

// CategoryBreakdown is a category's share of a budget's consumed amount.
type CategoryBreakdown struct {
	MainCategoryID   int64  `json:"mainCategoryId"`
	CategoryName     string `json:"categoryName"`
	Amount           int64  `json:"amount"`
	TransactionCount int64  `json:"transactionCount"`
	Percentage       int    `json:"percentage"`
}

// ComputeProgress derives a budget's consumption figures. The caller supplies
// usedAmount (sum of expense transactions linked to the budget; income never
// counts against a budget) and the linked transaction count. Validation keeps
// zero/negative TotalAmount out of here, so the percentage division is safe
// by construction.
func ComputeProgress(b Budget, usedAmount, txCount int64, ref time.Time) BudgetProgress {
	return BudgetProgress{
		UsedAmount:       usedAmount,
		RemainingAmount:  b.TotalAmount.Yen - usedAmount,
		UsagePercentage:  RoundPercent(usedAmount, b.TotalAmount.Yen),
		TransactionCount: txCount,
		IsOverBudget:     usedAmount > b.TotalAmount.Yen,
		DaysRemaining:    daysRemaining(b.EndDate, ref),
	}
}

// daysRemaining counts whole days until end, rounding fractions up and
// flooring at zero once the period has passed.
func daysRemaining(end, ref time.Time) int {
	d := end.Sub(ref)
	if d <= 0 {
		return 0
	}
	const day = 24 * time.Hour
	return int((d + day - 1) / day)
}

// ComputeBreakdown turns the repository's grouped expense stats into
// per-category shares of usedAmount. With usedAmount zero every percentage is
// zero, never a division by zero.
func ComputeBreakdown(stats []CategoryStat, usedAmount int64) []CategoryBreakdown {
	breakdown := make([]CategoryBreakdown, 0, len(stats))
	for _, s := range stats {
		breakdown = append(breakdown, CategoryBreakdown{
			MainCategoryID:   s.MainCategoryID,
			CategoryName:     s.CategoryName,
			Amount:           s.Amount,
			TransactionCount: s.TransactionCount,
			Percentage:       RoundPercent(s.Amount, usedAmount),
		})
	}
	return breakdown
}

// BudgetPeriod is the candidate window checked for overlap on budget
// create/update.
type BudgetPeriod struct {
	Name      string
	StartDate time.Time
	EndDate   time.Time
}

// HasOverlap reports whether the candidate window collides with any existing
// budget of the same name, bounds inclusive. Three cases: candidate start
// inside an existing range, candidate end inside an existing range, candidate
// fully containing an existing range. Budgets with different names may
// overlap freely.
func HasOverlap(candidate BudgetPeriod, existing []Budget, excludeID int64) bool {
	for _, b := range existing {
		if b.ID == excludeID {
			continue
		}
		if b.Name != candidate.Name {
			continue
		}
		startInside := !candidate.StartDate.Before(b.StartDate) && !candidate.StartDate.After(b.EndDate)
		endInside := !candidate.EndDate.Before(b.StartDate) && !candidate.EndDate.After(b.EndDate)
		contains := !b.StartDate.Before(candidate.StartDate) && !b.EndDate.After(candidate.EndDate)
		if startInside || endInside || contains {
			return true
		}
	}
	return false
}
