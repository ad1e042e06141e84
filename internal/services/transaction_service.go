package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

// TransactionService orchestrates transaction writes across SQLite and AMQP
// and serves the aggregated calendar reads.
type TransactionService struct {
	store     TransactionStore
	publisher TransactionPublisher
}

func NewTransactionService(store TransactionStore, publisher TransactionPublisher) *TransactionService {
	return &TransactionService{store: store, publisher: publisher}
}

// TransactionPage is one page of a filtered listing.
type TransactionPage struct {
	Transactions []core.Transaction `json:"transactions"`
	TotalCount   int64              `json:"totalCount"`
	HasMore      bool               `json:"hasMore"`
}

// MonthlyStats aggregates one month by category. ByCategory is ordered by
// amount, largest first.
type MonthlyStats struct {
	TotalIncome  int64             `json:"totalIncome"`
	TotalExpense int64             `json:"totalExpense"`
	Balance      int64             `json:"balance"`
	ByCategory   []CategoryTypeSum `json:"byCategory"`
}

type CategoryTypeSum struct {
	MainCategoryID   int64                `json:"mainCategoryId"`
	CategoryName     string               `json:"categoryName"`
	Type             core.TransactionType `json:"type"`
	Amount           int64                `json:"amount"`
	TransactionCount int64                `json:"transactionCount"`
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > maxPageSize {
		return maxPageSize
	}
	return limit
}

func (s *TransactionService) List(ctx context.Context, f storage.TransactionFilter) (TransactionPage, error) {
	f.Limit = clampLimit(f.Limit, defaultPageSize)
	if f.Offset < 0 {
		f.Offset = 0
	}

	txs, total, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return TransactionPage{}, fmt.Errorf("list transactions: %w", err)
	}
	return TransactionPage{
		Transactions: txs,
		TotalCount:   total,
		HasMore:      int64(f.Offset+len(txs)) < total,
	}, nil
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.verifyReferences(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	// Publish failure never fails the write: the row stays pending and the
	// worker's backlog sweep picks it up.
	if err := s.publishSync(ctx, created.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", created.ID, "error", err)
	}
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, id int64, p core.TransactionPatch) (core.Transaction, error) {
	existing, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}

	candidate := applyTransactionPatch(existing, p)
	if err := candidate.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.verifyReferences(ctx, candidate); err != nil {
		return core.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, id, p)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}

	if err := s.publishSync(ctx, updated.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", updated.ID, "error", err)
	}
	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	if err := s.store.SoftDeleteTransaction(ctx, id); err != nil {
		return err
	}
	if err := s.publishDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
	}
	return nil
}

// MonthlySummary returns the per-day calendar and the monthly totals for one
// month.
func (s *TransactionService) MonthlySummary(ctx context.Context, year, month int) (core.MonthlyData, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return core.MonthlyData{}, err
	}

	start, end := core.MonthInterval(year, month)
	txs, err := s.store.ListTransactionsByRange(ctx, start, end)
	if err != nil {
		return core.MonthlyData{}, fmt.Errorf("%w: monthly transactions %d-%02d: %v", core.ErrDataFetch, year, month, err)
	}

	dailies := core.AggregateDaily(year, month, txs)
	return core.MonthlyData{
		DailySummaries: dailies,
		MonthlyTotal:   core.SummarizeMonth(dailies),
	}, nil
}

// DayDetail returns one day's transactions grouped by type.
func (s *TransactionService) DayDetail(ctx context.Context, year, month, day int) (core.DayDetail, error) {
	if err := core.ValidateDate(year, month, day); err != nil {
		return core.DayDetail{}, err
	}

	start, end := core.DayInterval(year, month, day)
	txs, err := s.store.ListTransactionsByRange(ctx, start, end)
	if err != nil {
		return core.DayDetail{}, fmt.Errorf("%w: day transactions %d-%02d-%02d: %v", core.ErrDataFetch, year, month, day, err)
	}
	return core.ResolveDayDetail(txs), nil
}

// MonthlyStats aggregates one month by main category, optionally narrowed to
// a single category.
func (s *TransactionService) MonthlyStats(ctx context.Context, year, month int, mainCategoryID *int64) (MonthlyStats, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return MonthlyStats{}, err
	}

	start, end := core.MonthInterval(year, month)
	txs, err := s.store.ListTransactionsByRange(ctx, start, end)
	if err != nil {
		return MonthlyStats{}, fmt.Errorf("%w: monthly stats %d-%02d: %v", core.ErrDataFetch, year, month, err)
	}

	stats := MonthlyStats{ByCategory: []CategoryTypeSum{}}
	index := map[int64]int{}
	for _, t := range txs {
		if mainCategoryID != nil && t.MainCategoryID != *mainCategoryID {
			continue
		}
		switch t.Type {
		case core.Income:
			stats.TotalIncome += t.Amount.Yen
		case core.Expense:
			stats.TotalExpense += t.Amount.Yen
		default:
			continue
		}
		i, ok := index[t.MainCategoryID]
		if !ok {
			i = len(stats.ByCategory)
			index[t.MainCategoryID] = i
			stats.ByCategory = append(stats.ByCategory, CategoryTypeSum{
				MainCategoryID: t.MainCategoryID,
				CategoryName:   t.MainCategoryName,
				Type:           t.Type,
			})
		}
		stats.ByCategory[i].Amount += t.Amount.Yen
		stats.ByCategory[i].TransactionCount++
	}
	stats.Balance = stats.TotalIncome - stats.TotalExpense

	sort.SliceStable(stats.ByCategory, func(i, j int) bool {
		return stats.ByCategory[i].Amount > stats.ByCategory[j].Amount
	})
	return stats, nil
}

// verifyReferences checks every entity the transaction points at. The checks
// are independent, so they run concurrently and the first failure wins.
func (s *TransactionService) verifyReferences(ctx context.Context, t core.Transaction) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if _, err := s.store.GetMainCategory(ctx, t.MainCategoryID); err != nil {
			return refError("main category", t.MainCategoryID, err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := s.store.GetPaymentMethod(ctx, t.PaymentMethodID); err != nil {
			return refError("payment method", t.PaymentMethodID, err)
		}
		return nil
	})
	if t.SubCategoryID != nil {
		subID := *t.SubCategoryID
		g.Go(func() error {
			sub, err := s.store.GetSubCategory(ctx, subID)
			if err != nil {
				return refError("sub category", subID, err)
			}
			if sub.MainCategoryID != t.MainCategoryID {
				return fmt.Errorf("sub category %d does not belong to main category %d: %w",
					subID, t.MainCategoryID, core.ErrInvalidReference)
			}
			return nil
		})
	}
	if t.BudgetID != nil {
		budgetID := *t.BudgetID
		g.Go(func() error {
			if _, err := s.store.GetBudget(ctx, budgetID); err != nil {
				return refError("budget", budgetID, err)
			}
			return nil
		})
	}

	return g.Wait()
}

func refError(kind string, id int64, err error) error {
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("%s %d: %w", kind, id, core.ErrInvalidReference)
	}
	return fmt.Errorf("verify %s %d: %w", kind, id, err)
}

func applyTransactionPatch(t core.Transaction, p core.TransactionPatch) core.Transaction {
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.MainCategoryID != nil {
		t.MainCategoryID = *p.MainCategoryID
	}
	if p.PaymentMethodID != nil {
		t.PaymentMethodID = *p.PaymentMethodID
	}
	if p.ClearSubCategory {
		t.SubCategoryID = nil
	} else if p.SubCategoryID != nil {
		t.SubCategoryID = p.SubCategoryID
	}
	if p.ClearBudget {
		t.BudgetID = nil
	} else if p.BudgetID != nil {
		t.BudgetID = p.BudgetID
	}
	return t
}

func (s *TransactionService) publishSync(ctx context.Context, id int64) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishTransactionSync(ctx, id)
}

func (s *TransactionService) publishDelete(ctx context.Context, id int64) error {
	if s.publisher == nil {
		return nil
	}
	return s.publisher.PublishTransactionDelete(ctx, id)
}
