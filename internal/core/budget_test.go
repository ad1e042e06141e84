package core

import (
	"testing"
	"time"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestComputeProgress(t *testing.T) {
	budget := Budget{
		ID:          1,
		Name:        "Groceries",
		TotalAmount: Money{Yen: 100000},
		StartDate:   date(2024, 3, 1),
		EndDate:     date(2024, 3, 31),
	}

	got := ComputeProgress(budget, 33333, 12, date(2024, 3, 10))

	if got.UsedAmount != 33333 {
		t.Errorf("UsedAmount = %d, want 33333", got.UsedAmount)
	}
	if got.RemainingAmount != 66667 {
		t.Errorf("RemainingAmount = %d, want 66667", got.RemainingAmount)
	}
	if got.UsagePercentage != 33 {
		t.Errorf("UsagePercentage = %d, want 33", got.UsagePercentage)
	}
	if got.IsOverBudget {
		t.Error("IsOverBudget = true, want false")
	}
	if got.TransactionCount != 12 {
		t.Errorf("TransactionCount = %d, want 12", got.TransactionCount)
	}
}

func TestComputeProgress_OverBudget(t *testing.T) {
	budget := Budget{
		TotalAmount: Money{Yen: 10000},
		StartDate:   date(2024, 1, 1),
		EndDate:     date(2024, 1, 31),
	}

	got := ComputeProgress(budget, 15000, 3, date(2024, 1, 20))

	if !got.IsOverBudget {
		t.Error("IsOverBudget = false, want true")
	}
	if got.RemainingAmount != -5000 {
		t.Errorf("RemainingAmount = %d, want -5000", got.RemainingAmount)
	}
	if got.UsagePercentage != 150 {
		t.Errorf("UsagePercentage = %d, want 150", got.UsagePercentage)
	}
}

func TestComputeProgress_DaysRemaining(t *testing.T) {
	budget := Budget{
		TotalAmount: Money{Yen: 1000},
		StartDate:   date(2024, 3, 1),
		EndDate:     date(2024, 3, 10),
	}

	tests := []struct {
		name string
		ref  time.Time
		want int
	}{
		{"well before end", date(2024, 3, 1), 9},
		{"fractional day rounds up", time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC), 1},
		{"at end", date(2024, 3, 10), 0},
		{"after end floors to zero", date(2024, 4, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeProgress(budget, 0, 0, tt.ref)
			if got.DaysRemaining != tt.want {
				t.Errorf("DaysRemaining = %d, want %d", got.DaysRemaining, tt.want)
			}
		})
	}
}

func TestRoundPercent(t *testing.T) {
	tests := []struct {
		name  string
		part  int64
		whole int64
		want  int
	}{
		{"exact third rounds down", 33333, 100000, 33},
		{"half rounds up", 335, 1000, 34},
		{"zero whole guarded", 500, 0, 0},
		{"zero part", 0, 1000, 0},
		{"full", 1000, 1000, 100},
		{"over", 1500, 1000, 150},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoundPercent(tt.part, tt.whole); got != tt.want {
				t.Errorf("RoundPercent(%d, %d) = %d, want %d", tt.part, tt.whole, got, tt.want)
			}
		})
	}
}

func TestComputeBreakdown_ZeroGuard(t *testing.T) {
	stats := []CategoryStat{
		{MainCategoryID: 1, CategoryName: "食費", Amount: 0, TransactionCount: 0},
		{MainCategoryID: 2, CategoryName: "交通費", Amount: 0, TransactionCount: 0},
	}

	got := ComputeBreakdown(stats, 0)

	for _, b := range got {
		if b.Percentage != 0 {
			t.Errorf("category %d percentage = %d, want 0 with zero used amount", b.MainCategoryID, b.Percentage)
		}
	}
}

func TestComputeBreakdown(t *testing.T) {
	stats := []CategoryStat{
		{MainCategoryID: 1, CategoryName: "食費", Amount: 7500, TransactionCount: 5},
		{MainCategoryID: 2, CategoryName: "交通費", Amount: 2500, TransactionCount: 2},
	}

	got := ComputeBreakdown(stats, 10000)

	if len(got) != 2 {
		t.Fatalf("breakdown has %d entries, want 2", len(got))
	}
	if got[0].Percentage != 75 {
		t.Errorf("first category percentage = %d, want 75", got[0].Percentage)
	}
	if got[1].Percentage != 25 {
		t.Errorf("second category percentage = %d, want 25", got[1].Percentage)
	}
	if got[0].CategoryName != "食費" || got[0].TransactionCount != 5 {
		t.Errorf("first entry = %+v, want name and count carried through", got[0])
	}
}

func TestHasOverlap(t *testing.T) {
	existing := []Budget{
		{
			ID:        1,
			Name:      "Trip",
			StartDate: date(2024, 3, 1),
			EndDate:   date(2024, 3, 5),
		},
	}

	tests := []struct {
		name      string
		candidate BudgetPeriod
		excludeID int64
		want      bool
	}{
		{
			name:      "same name, end inside existing range",
			candidate: BudgetPeriod{Name: "Trip", StartDate: date(2024, 3, 4), EndDate: date(2024, 3, 10)},
			want:      true,
		},
		{
			name:      "different name may overlap freely",
			candidate: BudgetPeriod{Name: "Other", StartDate: date(2024, 3, 4), EndDate: date(2024, 3, 10)},
			want:      false,
		},
		{
			name:      "same name, start inside existing range",
			candidate: BudgetPeriod{Name: "Trip", StartDate: date(2024, 3, 5), EndDate: date(2024, 3, 20)},
			want:      true,
		},
		{
			name:      "same name, candidate contains existing",
			candidate: BudgetPeriod{Name: "Trip", StartDate: date(2024, 2, 1), EndDate: date(2024, 4, 1)},
			want:      true,
		},
		{
			name:      "same name, disjoint after",
			candidate: BudgetPeriod{Name: "Trip", StartDate: date(2024, 3, 6), EndDate: date(2024, 3, 10)},
			want:      false,
		},
		{
			name:      "same name, disjoint before",
			candidate: BudgetPeriod{Name: "Trip", StartDate: date(2024, 2, 1), EndDate: date(2024, 2, 29)},
			want:      false,
		},
		{
			name:      "inclusive boundary: same single day",
			candidate: BudgetPeriod{Name: "Trip", StartDate: date(2024, 3, 5), EndDate: date(2024, 3, 5)},
			want:      true,
		},
		{
			name:      "excluded budget is ignored on update",
			candidate: BudgetPeriod{Name: "Trip", StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 5)},
			excludeID: 1,
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasOverlap(tt.candidate, existing, tt.excludeID); got != tt.want {
				t.Errorf("HasOverlap() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{
		Name:        "Monthly",
		TotalAmount: Money{Yen: 50000},
		StartDate:   date(2024, 1, 1),
		EndDate:     date(2024, 1, 31),
	}

	tests := []struct {
		name    string
		mutate  func(Budget) Budget
		wantErr error
	}{
		{"valid", func(b Budget) Budget { return b }, nil},
		{"zero total amount rejected before progress", func(b Budget) Budget { b.TotalAmount = Money{}; return b }, ErrInvalidAmount},
		{"negative total amount", func(b Budget) Budget { b.TotalAmount = Money{Yen: -1}; return b }, ErrInvalidAmount},
		{"end before start", func(b Budget) Budget { b.EndDate = date(2023, 12, 31); return b }, ErrInvalidPeriod},
		{"empty name", func(b Budget) Budget { b.Name = "  "; return b }, ErrEmptyName},
		{"single day window allowed", func(b Budget) Budget { b.EndDate = b.StartDate; return b }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(valid).Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetActiveAt(t *testing.T) {
	b := Budget{StartDate: date(2024, 3, 1), EndDate: date(2024, 3, 31)}

	if !b.ActiveAt(date(2024, 3, 1)) || !b.ActiveAt(date(2024, 3, 31)) {
		t.Error("budget must be active on inclusive bounds")
	}
	if b.ActiveAt(date(2024, 2, 29)) || b.ActiveAt(date(2024, 4, 1)) {
		t.Error("budget must not be active outside its window")
	}
}
