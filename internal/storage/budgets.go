package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"kakeibo/internal/core"
)

// BudgetFilter narrows and pages a budget listing. Search matches a name
// substring; ActiveAt keeps only budgets whose window contains the instant.
type BudgetFilter struct {
	Search   *string
	ActiveAt *time.Time
	Limit    int
	Offset   int
}

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b                            core.Budget
		start, end, created, updated int64
	)
	if err := row.Scan(&b.ID, &b.Name, &b.TotalAmount.Yen, &start, &end, &b.Description, &created, &updated); err != nil {
		return core.Budget{}, err
	}
	b.StartDate = fromUnix(start)
	b.EndDate = fromUnix(end)
	b.CreatedAt = fromUnix(created)
	b.UpdatedAt = fromUnix(updated)
	return b, nil
}

const budgetColumns = "id, name, total_amount, start_date, end_date, description, created_at, updated_at"

func (r *SQLiteRepository) ListBudgets(ctx context.Context, f BudgetFilter) ([]core.Budget, int64, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any
	if f.Search != nil && *f.Search != "" {
		where = append(where, "name LIKE ?")
		args = append(args, "%"+*f.Search+"%")
	}
	if f.ActiveAt != nil {
		where = append(where, "start_date <= ? AND end_date >= ?")
		args = append(args, toUnix(*f.ActiveAt), toUnix(*f.ActiveAt))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM budgets WHERE "+cond, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count budgets: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE "+cond+" ORDER BY start_date DESC, id DESC LIMIT ? OFFSET ?",
		append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, total, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE id = ? AND deleted_at IS NULL", id)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, err)
	}
	return b, nil
}

// ListBudgetsByName returns all live budgets carrying exactly this name.
// Overlap checks run against this set.
func (r *SQLiteRepository) ListBudgetsByName(ctx context.Context, name string) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE name = ? AND deleted_at IS NULL ORDER BY start_date ASC", name)
	if err != nil {
		return nil, fmt.Errorf("list budgets by name: %w", err)
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

// ListActiveBudgets returns live budgets whose inclusive window contains ref.
func (r *SQLiteRepository) ListActiveBudgets(ctx context.Context, ref time.Time) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+budgetColumns+" FROM budgets WHERE deleted_at IS NULL AND start_date <= ? AND end_date >= ? ORDER BY start_date ASC, id ASC",
		toUnix(ref), toUnix(ref))
	if err != nil {
		return nil, fmt.Errorf("list active budgets: %w", err)
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now := toUnix(time.Now())
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO budgets (name, total_amount, start_date, end_date, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		b.Name, b.TotalAmount.Yen, toUnix(b.StartDate), toUnix(b.EndDate), b.Description, now, now)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget insert id: %w", err)
	}
	return r.GetBudget(ctx, id)
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, id int64, p core.BudgetPatch) (core.Budget, error) {
	set := []string{"updated_at = ?"}
	args := []any{toUnix(time.Now())}
	if p.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *p.Name)
	}
	if p.TotalAmount != nil {
		set = append(set, "total_amount = ?")
		args = append(args, p.TotalAmount.Yen)
	}
	if p.StartDate != nil {
		set = append(set, "start_date = ?")
		args = append(args, toUnix(*p.StartDate))
	}
	if p.EndDate != nil {
		set = append(set, "end_date = ?")
		args = append(args, toUnix(*p.EndDate))
	}
	if p.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *p.Description)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE budgets SET "+strings.Join(set, ", ")+" WHERE id = ? AND deleted_at IS NULL",
		append(args, id)...)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget rows: %w", err)
	}
	if n == 0 {
		return core.Budget{}, core.ErrNotFound
	}
	return r.GetBudget(ctx, id)
}

func (r *SQLiteRepository) SoftDeleteBudget(ctx context.Context, id int64) error {
	now := toUnix(time.Now())
	res, err := r.db.ExecContext(ctx,
		"UPDATE budgets SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete budget rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
