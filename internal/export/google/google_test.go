package google

import (
	"testing"
	"time"

	"kakeibo/internal/core"
)

func TestTransactionRow(t *testing.T) {
	sub := int64(3)
	tx := core.Transaction{
		ID:                42,
		Amount:            core.Money{Yen: 1250000},
		Type:              core.Expense,
		Date:              time.Date(2024, 3, 15, 23, 30, 0, 0, time.UTC),
		Description:       "家賃",
		MainCategoryID:    1,
		MainCategoryName:  "住居費",
		SubCategoryID:     &sub,
		SubCategoryName:   "家賃",
		PaymentMethodID:   2,
		PaymentMethodName: "銀行振込",
	}

	row := transactionRow(tx)
	if len(row) != 10 {
		t.Fatalf("len(row) = %d, want 10", len(row))
	}
	if row[0] != int64(42) {
		t.Errorf("id column = %v, want 42", row[0])
	}
	if row[1] != "2024-03-15" {
		t.Errorf("date column = %v, want 2024-03-15", row[1])
	}
	if row[3] != int64(1250000) {
		t.Errorf("amount column = %v, want 1250000", row[3])
	}
	if row[4] != "¥1,250,000" {
		t.Errorf("formatted amount column = %v, want ¥1,250,000", row[4])
	}
	if row[8] != "" {
		t.Errorf("budget column = %v, want empty for unlinked transaction", row[8])
	}
}
