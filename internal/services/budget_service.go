package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"kakeibo/internal/core"
	"kakeibo/internal/storage"
)

// BudgetService owns budget CRUD, the same-name overlap rule and progress
// computation.
type BudgetService struct {
	store BudgetStore
}

func NewBudgetService(store BudgetStore) *BudgetService {
	return &BudgetService{store: store}
}

type BudgetPage struct {
	Budgets    []core.Budget `json:"budgets"`
	TotalCount int64         `json:"totalCount"`
	HasMore    bool          `json:"hasMore"`
}

// BudgetWithProgress pairs a budget with its optionally computed progress.
type BudgetWithProgress struct {
	Budget   core.Budget          `json:"budget"`
	Progress *core.BudgetProgress `json:"progress,omitempty"`
}

const defaultBudgetPageSize = 20

func (s *BudgetService) List(ctx context.Context, f storage.BudgetFilter) (BudgetPage, error) {
	f.Limit = clampLimit(f.Limit, defaultBudgetPageSize)
	if f.Offset < 0 {
		f.Offset = 0
	}

	budgets, total, err := s.store.ListBudgets(ctx, f)
	if err != nil {
		return BudgetPage{}, fmt.Errorf("list budgets: %w", err)
	}
	return BudgetPage{
		Budgets:    budgets,
		TotalCount: total,
		HasMore:    int64(f.Offset+len(budgets)) < total,
	}, nil
}

func (s *BudgetService) Get(ctx context.Context, id int64) (core.Budget, error) {
	return s.store.GetBudget(ctx, id)
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := s.checkOverlap(ctx, core.BudgetPeriod{Name: b.Name, StartDate: b.StartDate, EndDate: b.EndDate}, 0); err != nil {
		return core.Budget{}, err
	}

	created, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return created, nil
}

func (s *BudgetService) Update(ctx context.Context, id int64, p core.BudgetPatch) (core.Budget, error) {
	existing, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.Budget{}, err
	}

	candidate := applyBudgetPatch(existing, p)
	if err := candidate.Validate(); err != nil {
		return core.Budget{}, err
	}
	period := core.BudgetPeriod{Name: candidate.Name, StartDate: candidate.StartDate, EndDate: candidate.EndDate}
	if err := s.checkOverlap(ctx, period, id); err != nil {
		return core.Budget{}, err
	}

	updated, err := s.store.UpdateBudget(ctx, id, p)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", id, err)
	}
	return updated, nil
}

// Delete removes the budget and detaches its live transactions, reporting
// how many were detached.
func (s *BudgetService) Delete(ctx context.Context, id int64) (detached int64, err error) {
	if _, err := s.store.GetBudget(ctx, id); err != nil {
		return 0, err
	}

	detached, err = s.store.DetachBudget(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("detach transactions of budget %d: %w", id, err)
	}
	if err := s.store.SoftDeleteBudget(ctx, id); err != nil {
		return 0, fmt.Errorf("delete budget %d: %w", id, err)
	}

	slog.InfoContext(ctx, "Budget deleted", "id", id, "detached_transactions", detached)
	return detached, nil
}

// Progress computes usage against the budget's total as of ref, optionally
// with the per-category breakdown.
func (s *BudgetService) Progress(ctx context.Context, id int64, groupByCategory bool, ref time.Time) (core.BudgetProgress, error) {
	budget, err := s.store.GetBudget(ctx, id)
	if err != nil {
		return core.BudgetProgress{}, err
	}

	used, count, err := s.store.BudgetUsage(ctx, id)
	if err != nil {
		return core.BudgetProgress{}, fmt.Errorf("budget usage %d: %w", id, err)
	}
	progress := core.ComputeProgress(budget, used, count, ref)

	if groupByCategory {
		stats, err := s.store.BudgetCategoryStats(ctx, id)
		if err != nil {
			return core.BudgetProgress{}, fmt.Errorf("budget category stats %d: %w", id, err)
		}
		progress.CategoryBreakdown = core.ComputeBreakdown(stats, used)
	}
	return progress, nil
}

// Active lists budgets whose window contains ref, optionally with progress
// computed per budget.
func (s *BudgetService) Active(ctx context.Context, ref time.Time, includeProgress bool) ([]BudgetWithProgress, error) {
	budgets, err := s.store.ListActiveBudgets(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}

	out := make([]BudgetWithProgress, 0, len(budgets))
	for _, b := range budgets {
		entry := BudgetWithProgress{Budget: b}
		if includeProgress {
			used, count, err := s.store.BudgetUsage(ctx, b.ID)
			if err != nil {
				return nil, fmt.Errorf("budget usage %d: %w", b.ID, err)
			}
			p := core.ComputeProgress(b, used, count, ref)
			entry.Progress = &p
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *BudgetService) checkOverlap(ctx context.Context, candidate core.BudgetPeriod, excludeID int64) error {
	sameName, err := s.store.ListBudgetsByName(ctx, candidate.Name)
	if err != nil {
		return fmt.Errorf("list budgets named %q: %w", candidate.Name, err)
	}
	if core.HasOverlap(candidate, sameName, excludeID) {
		return fmt.Errorf("budget %q overlaps an existing period: %w", candidate.Name, core.ErrConflict)
	}
	return nil
}

func applyBudgetPatch(b core.Budget, p core.BudgetPatch) core.Budget {
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.TotalAmount != nil {
		b.TotalAmount = *p.TotalAmount
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		b.EndDate = *p.EndDate
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	return b
}
