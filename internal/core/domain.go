package core

import (
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

const (
	Cash         PaymentMethodType = "cash"
	Credit       PaymentMethodType = "credit"
	EMoney       PaymentMethodType = "e_money"
	BankTransfer PaymentMethodType = "bank_transfer"
)

type (
	TransactionType   string
	PaymentMethodType string

	// MainCategory is a top-level income or expense category. SubCategories
	// is populated on demand by list queries.
	MainCategory struct {
		ID            int64
		Name          string
		Type          TransactionType
		SubCategories []SubCategory
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}

	SubCategory struct {
		ID             int64
		MainCategoryID int64
		Name           string
		CreatedAt      time.Time
		UpdatedAt      time.Time
	}

	PaymentMethod struct {
		ID          int64
		Name        string
		Type        PaymentMethodType
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Budget covers the inclusive window [StartDate, EndDate]. There is no
	// stored status; "active" and "over budget" are derived on every read.
	Budget struct {
		ID          int64
		Name        string
		TotalAmount Money
		StartDate   time.Time
		EndDate     time.Time
		Description string
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Transaction always carries a positive Amount; income vs expense is
	// expressed by Type, never by sign. The *Name fields are denormalized
	// display names filled in by repository joins.
	Transaction struct {
		ID                int64
		Amount            Money
		Type              TransactionType
		Date              time.Time
		MainCategoryID    int64
		SubCategoryID     *int64
		BudgetID          *int64
		PaymentMethodID   int64
		Description       string
		MainCategoryName  string
		SubCategoryName   string
		BudgetName        string
		PaymentMethodName string
		CreatedAt         time.Time
		UpdatedAt         time.Time
	}
)

// Patch structs model partial updates: a nil field means "leave unchanged".
// ClearSubCategory/ClearBudget distinguish "set to null" from "leave".
type (
	TransactionPatch struct {
		Amount           *Money
		Type             *TransactionType
		Date             *time.Time
		MainCategoryID   *int64
		SubCategoryID    *int64
		ClearSubCategory bool
		BudgetID         *int64
		ClearBudget      bool
		PaymentMethodID  *int64
		Description      *string
	}

	MainCategoryPatch struct {
		Name *string
		Type *TransactionType
	}

	SubCategoryPatch struct {
		Name *string
	}

	PaymentMethodPatch struct {
		Name        *string
		Type        *PaymentMethodType
		Description *string
	}

	BudgetPatch struct {
		Name        *string
		TotalAmount *Money
		StartDate   *time.Time
		EndDate     *time.Time
		Description *string
	}
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (t PaymentMethodType) Valid() bool {
	switch t {
	case Cash, Credit, EMoney, BankTransfer:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if t.MainCategoryID <= 0 {
		return ErrInvalidReference
	}
	if t.PaymentMethodID <= 0 {
		return ErrInvalidReference
	}
	if t.SubCategoryID != nil && *t.SubCategoryID <= 0 {
		return ErrInvalidReference
	}
	if t.BudgetID != nil && *t.BudgetID <= 0 {
		return ErrInvalidReference
	}
	if len(t.Description) > 500 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (c MainCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return ErrNameTooLong
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

func (s SubCategory) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	if len(s.Name) > 100 {
		return ErrNameTooLong
	}
	if s.MainCategoryID <= 0 {
		return ErrInvalidReference
	}
	return nil
}

func (p PaymentMethod) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if len(p.Name) > 50 {
		return ErrNameTooLong
	}
	if !p.Type.Valid() {
		return ErrInvalidType
	}
	if len(p.Description) > 500 {
		return ErrDescriptionTooLong
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if len(b.Name) > 100 {
		return ErrNameTooLong
	}
	if err := b.TotalAmount.Validate(); err != nil {
		return err
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return ErrInvalidDate
	}
	if b.EndDate.Before(b.StartDate) {
		return ErrInvalidPeriod
	}
	if len(b.Description) > 1000 {
		return ErrDescriptionTooLong
	}
	return nil
}

// ActiveAt reports whether ref falls inside the budget window, bounds
// inclusive.
func (b Budget) ActiveAt(ref time.Time) bool {
	return !ref.Before(b.StartDate) && !ref.After(b.EndDate)
}

// DaysInMonth returns the number of calendar days in the given month.
func DaysInMonth(year, month int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MonthInterval returns the inclusive UTC range covering a whole month,
// from the first day 00:00:00 to the last day 23:59:59.999999999. Range
// filtering and day extraction share the UTC basis so transactions never
// drift across a day boundary.
func MonthInterval(year, month int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// DayInterval returns the inclusive UTC range covering one calendar day.
func DayInterval(year, month, day int) (start, end time.Time) {
	start = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}

// ValidateYearMonth rejects impossible year/month pairs before they reach
// range computation.
func ValidateYearMonth(year, month int) error {
	if year < 1 || year > 9999 {
		return ErrInvalidDate
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// ValidateDate additionally checks the day against the month's actual length.
func ValidateDate(year, month, day int) error {
	if err := ValidateYearMonth(year, month); err != nil {
		return err
	}
	if day < 1 || day > DaysInMonth(year, month) {
		return ErrInvalidDay
	}
	return nil
}
