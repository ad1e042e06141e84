package http

import (
	"time"

	"kakeibo/internal/core"
)

// Wire representations. Core types carry time.Time and Money; the API speaks
// plain yen integers, "2006-01-02" dates and RFC 3339 timestamps.

type transactionJSON struct {
	ID                int64  `json:"id"`
	Amount            int64  `json:"amount"`
	Type              string `json:"type"`
	Date              string `json:"date"`
	MainCategoryID    int64  `json:"mainCategoryId"`
	MainCategoryName  string `json:"mainCategoryName"`
	SubCategoryID     *int64 `json:"subCategoryId,omitempty"`
	SubCategoryName   string `json:"subCategoryName,omitempty"`
	BudgetID          *int64 `json:"budgetId,omitempty"`
	BudgetName        string `json:"budgetName,omitempty"`
	PaymentMethodID   int64  `json:"paymentMethodId"`
	PaymentMethodName string `json:"paymentMethodName"`
	Description       string `json:"description,omitempty"`
	CreatedAt         string `json:"createdAt"`
	UpdatedAt         string `json:"updatedAt"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:                t.ID,
		Amount:            t.Amount.Yen,
		Type:              string(t.Type),
		Date:              t.Date.UTC().Format("2006-01-02"),
		MainCategoryID:    t.MainCategoryID,
		MainCategoryName:  t.MainCategoryName,
		SubCategoryID:     t.SubCategoryID,
		SubCategoryName:   t.SubCategoryName,
		BudgetID:          t.BudgetID,
		BudgetName:        t.BudgetName,
		PaymentMethodID:   t.PaymentMethodID,
		PaymentMethodName: t.PaymentMethodName,
		Description:       t.Description,
		CreatedAt:         t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:         t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toTransactionListJSON(txs []core.Transaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionJSON(t))
	}
	return out
}

type budgetJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	TotalAmount int64  `json:"totalAmount"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toBudgetJSON(b core.Budget) budgetJSON {
	return budgetJSON{
		ID:          b.ID,
		Name:        b.Name,
		TotalAmount: b.TotalAmount.Yen,
		StartDate:   b.StartDate.UTC().Format("2006-01-02"),
		EndDate:     b.EndDate.UTC().Format("2006-01-02"),
		Description: b.Description,
		CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toBudgetListJSON(budgets []core.Budget) []budgetJSON {
	out := make([]budgetJSON, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetJSON(b))
	}
	return out
}

type detailGroupJSON struct {
	TotalAmount  int64             `json:"totalAmount"`
	Transactions []transactionJSON `json:"transactions"`
}

type dayDetailJSON struct {
	Income  detailGroupJSON `json:"income"`
	Expense detailGroupJSON `json:"expense"`
}

func toDayDetailJSON(d core.DayDetail) dayDetailJSON {
	return dayDetailJSON{
		Income:  detailGroupJSON{d.Income.TotalAmount, toTransactionListJSON(d.Income.Transactions)},
		Expense: detailGroupJSON{d.Expense.TotalAmount, toTransactionListJSON(d.Expense.Transactions)},
	}
}

type subCategoryJSON struct {
	ID             int64  `json:"id"`
	MainCategoryID int64  `json:"mainCategoryId"`
	Name           string `json:"name"`
}

type mainCategoryJSON struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	Type          string            `json:"type"`
	SubCategories []subCategoryJSON `json:"subCategories"`
}

func toMainCategoryJSON(c core.MainCategory) mainCategoryJSON {
	subs := make([]subCategoryJSON, 0, len(c.SubCategories))
	for _, s := range c.SubCategories {
		subs = append(subs, toSubCategoryJSON(s))
	}
	return mainCategoryJSON{ID: c.ID, Name: c.Name, Type: string(c.Type), SubCategories: subs}
}

func toSubCategoryJSON(s core.SubCategory) subCategoryJSON {
	return subCategoryJSON{ID: s.ID, MainCategoryID: s.MainCategoryID, Name: s.Name}
}

type paymentMethodJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

func toPaymentMethodJSON(p core.PaymentMethod) paymentMethodJSON {
	return paymentMethodJSON{ID: p.ID, Name: p.Name, Type: string(p.Type), Description: p.Description}
}

// Request bodies. Pointer fields on update requests distinguish "omitted"
// from an explicit value; clear flags detach optional references.

type createTransactionRequest struct {
	Amount          int64  `json:"amount"`
	Type            string `json:"type"`
	Date            string `json:"date"`
	MainCategoryID  int64  `json:"mainCategoryId"`
	SubCategoryID   *int64 `json:"subCategoryId"`
	BudgetID        *int64 `json:"budgetId"`
	PaymentMethodID int64  `json:"paymentMethodId"`
	Description     string `json:"description"`
}

type updateTransactionRequest struct {
	Amount           *int64  `json:"amount"`
	Type             *string `json:"type"`
	Date             *string `json:"date"`
	MainCategoryID   *int64  `json:"mainCategoryId"`
	SubCategoryID    *int64  `json:"subCategoryId"`
	ClearSubCategory bool    `json:"clearSubCategory"`
	BudgetID         *int64  `json:"budgetId"`
	ClearBudget      bool    `json:"clearBudget"`
	PaymentMethodID  *int64  `json:"paymentMethodId"`
	Description      *string `json:"description"`
}

type createBudgetRequest struct {
	Name        string `json:"name"`
	TotalAmount int64  `json:"totalAmount"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`
	Description string `json:"description"`
}

type updateBudgetRequest struct {
	Name        *string `json:"name"`
	TotalAmount *int64  `json:"totalAmount"`
	StartDate   *string `json:"startDate"`
	EndDate     *string `json:"endDate"`
	Description *string `json:"description"`
}

type categoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type updateCategoryRequest struct {
	Name *string `json:"name"`
	Type *string `json:"type"`
}

type subCategoryRequest struct {
	MainCategoryID int64  `json:"mainCategoryId"`
	Name           string `json:"name"`
}

type updateSubCategoryRequest struct {
	Name *string `json:"name"`
}

type paymentMethodRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

type updatePaymentMethodRequest struct {
	Name        *string `json:"name"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
}

// parseAPIDate parses the wire date format at UTC midnight.
func parseAPIDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, core.ErrInvalidDate
	}
	return t.UTC(), nil
}
