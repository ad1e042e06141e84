package services

import (
	"context"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

// Ports for the storage and messaging adapters, declared where they are
// consumed. *storage.SQLiteRepository satisfies all store interfaces.
type (
	TransactionStore interface {
		CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, int64, error)
		ListTransactionsByRange(ctx context.Context, from, to time.Time) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, id int64, p core.TransactionPatch) (core.Transaction, error)
		SoftDeleteTransaction(ctx context.Context, id int64) error

		GetMainCategory(ctx context.Context, id int64) (core.MainCategory, error)
		GetSubCategory(ctx context.Context, id int64) (core.SubCategory, error)
		GetPaymentMethod(ctx context.Context, id int64) (core.PaymentMethod, error)
		GetBudget(ctx context.Context, id int64) (core.Budget, error)
	}

	BudgetStore interface {
		ListBudgets(ctx context.Context, f storage.BudgetFilter) ([]core.Budget, int64, error)
		GetBudget(ctx context.Context, id int64) (core.Budget, error)
		ListBudgetsByName(ctx context.Context, name string) ([]core.Budget, error)
		ListActiveBudgets(ctx context.Context, ref time.Time) ([]core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		UpdateBudget(ctx context.Context, id int64, p core.BudgetPatch) (core.Budget, error)
		SoftDeleteBudget(ctx context.Context, id int64) error

		BudgetUsage(ctx context.Context, budgetID int64) (used int64, count int64, err error)
		BudgetCategoryStats(ctx context.Context, budgetID int64) ([]core.CategoryStat, error)
		DetachBudget(ctx context.Context, budgetID int64) (int64, error)
	}

	CategoryStore interface {
		ListMainCategories(ctx context.Context, typ *core.TransactionType) ([]core.MainCategory, error)
		GetMainCategory(ctx context.Context, id int64) (core.MainCategory, error)
		MainCategoryExists(ctx context.Context, name string, typ core.TransactionType, excludeID int64) (bool, error)
		CreateMainCategory(ctx context.Context, c core.MainCategory) (core.MainCategory, error)
		UpdateMainCategory(ctx context.Context, id int64, p core.MainCategoryPatch) (core.MainCategory, error)
		SoftDeleteMainCategory(ctx context.Context, id int64) error

		GetSubCategory(ctx context.Context, id int64) (core.SubCategory, error)
		SubCategoryExists(ctx context.Context, mainCategoryID int64, name string, excludeID int64) (bool, error)
		CreateSubCategory(ctx context.Context, s core.SubCategory) (core.SubCategory, error)
		UpdateSubCategory(ctx context.Context, id int64, p core.SubCategoryPatch) (core.SubCategory, error)
		SoftDeleteSubCategory(ctx context.Context, id int64) error

		CountTransactionsByMainCategory(ctx context.Context, id int64) (int64, error)
		CountTransactionsBySubCategory(ctx context.Context, id int64) (int64, error)
	}

	PaymentMethodStore interface {
		ListPaymentMethods(ctx context.Context, typ *core.PaymentMethodType) ([]core.PaymentMethod, error)
		GetPaymentMethod(ctx context.Context, id int64) (core.PaymentMethod, error)
		PaymentMethodExists(ctx context.Context, name string, typ core.PaymentMethodType, excludeID int64) (bool, error)
		CreatePaymentMethod(ctx context.Context, p core.PaymentMethod) (core.PaymentMethod, error)
		UpdatePaymentMethod(ctx context.Context, id int64, p core.PaymentMethodPatch) (core.PaymentMethod, error)
		SoftDeletePaymentMethod(ctx context.Context, id int64) error

		CountTransactionsByPaymentMethod(ctx context.Context, id int64) (int64, error)
	}

	// TransactionPublisher emits export events after successful writes.
	TransactionPublisher interface {
		PublishTransactionSync(ctx context.Context, id int64) error
		PublishTransactionDelete(ctx context.Context, id int64) error
	}
)
