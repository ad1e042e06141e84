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

// TransactionFilter narrows and pages a transaction listing. Nil fields are
// ignored. SortBy accepts "date", "amount" or "created_at"; SortOrder "asc"
// or "desc".
type TransactionFilter struct {
	Type            *core.TransactionType
	MainCategoryID  *int64
	SubCategoryID   *int64
	PaymentMethodID *int64
	BudgetID        *int64
	From            *time.Time
	To              *time.Time
	SortBy          string
	SortOrder       string
	Limit           int
	Offset          int
}

const transactionColumns = `
	t.id, t.amount, t.type, t.date, t.description,
	t.main_category_id, mc.name,
	t.sub_category_id, sc.name,
	t.payment_method_id, pm.name,
	t.budget_id, b.name,
	t.created_at, t.updated_at`

const transactionJoins = `
	FROM transactions t
	JOIN main_categories mc ON mc.id = t.main_category_id
	JOIN payment_methods pm ON pm.id = t.payment_method_id
	LEFT JOIN sub_categories sc ON sc.id = t.sub_category_id
	LEFT JOIN budgets b ON b.id = t.budget_id`

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t                      core.Transaction
		date, created, updated int64
		subID, budgetID        sql.NullInt64
		subName, budgetName    sql.NullString
	)
	err := row.Scan(
		&t.ID, &t.Amount.Yen, &t.Type, &date, &t.Description,
		&t.MainCategoryID, &t.MainCategoryName,
		&subID, &subName,
		&t.PaymentMethodID, &t.PaymentMethodName,
		&budgetID, &budgetName,
		&created, &updated,
	)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date = fromUnix(date)
	t.CreatedAt = fromUnix(created)
	t.UpdatedAt = fromUnix(updated)
	t.SubCategoryID = int64Ptr(subID)
	t.BudgetID = int64Ptr(budgetID)
	t.SubCategoryName = subName.String
	t.BudgetName = budgetName.String
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	now := toUnix(time.Now())
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(amount, type, date, description, main_category_id, sub_category_id,
			 payment_method_id, budget_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Amount.Yen, t.Type, toUnix(t.Date), t.Description, t.MainCategoryID,
		nullInt64(t.SubCategoryID), t.PaymentMethodID, nullInt64(t.BudgetID), now, now,
	)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}
	return r.GetTransaction(ctx, id)
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT"+transactionColumns+transactionJoins+" WHERE t.id = ? AND t.deleted_at IS NULL", id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return t, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, int64, error) {
	where := []string{"t.deleted_at IS NULL"}
	var args []any

	if f.Type != nil {
		where = append(where, "t.type = ?")
		args = append(args, *f.Type)
	}
	if f.MainCategoryID != nil {
		where = append(where, "t.main_category_id = ?")
		args = append(args, *f.MainCategoryID)
	}
	if f.SubCategoryID != nil {
		where = append(where, "t.sub_category_id = ?")
		args = append(args, *f.SubCategoryID)
	}
	if f.PaymentMethodID != nil {
		where = append(where, "t.payment_method_id = ?")
		args = append(args, *f.PaymentMethodID)
	}
	if f.BudgetID != nil {
		where = append(where, "t.budget_id = ?")
		args = append(args, *f.BudgetID)
	}
	if f.From != nil {
		where = append(where, "t.date >= ?")
		args = append(args, toUnix(*f.From))
	}
	if f.To != nil {
		where = append(where, "t.date <= ?")
		args = append(args, toUnix(*f.To))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*)"+transactionJoins+" WHERE "+cond, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	sortCol := "t.date"
	switch f.SortBy {
	case "amount":
		sortCol = "t.amount"
	case "created_at":
		sortCol = "t.created_at"
	}
	dir := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		dir = "ASC"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf("SELECT%s%s WHERE %s ORDER BY %s %s, t.id %s LIMIT ? OFFSET ?",
		transactionColumns, transactionJoins, cond, sortCol, dir, dir)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, total, nil
}

// ListTransactionsByRange returns all live transactions with date inside
// [from, to], oldest first. Aggregation reads go through here.
func (r *SQLiteRepository) ListTransactionsByRange(ctx context.Context, from, to time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT"+transactionColumns+transactionJoins+
			" WHERE t.deleted_at IS NULL AND t.date >= ? AND t.date <= ? ORDER BY t.date ASC, t.id ASC",
		toUnix(from), toUnix(to))
	if err != nil {
		return nil, fmt.Errorf("list transactions by range: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, p core.TransactionPatch) (core.Transaction, error) {
	set := []string{"updated_at = ?"}
	args := []any{toUnix(time.Now())}

	if p.Amount != nil {
		set = append(set, "amount = ?")
		args = append(args, p.Amount.Yen)
	}
	if p.Type != nil {
		set = append(set, "type = ?")
		args = append(args, *p.Type)
	}
	if p.Date != nil {
		set = append(set, "date = ?")
		args = append(args, toUnix(*p.Date))
	}
	if p.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *p.Description)
	}
	if p.MainCategoryID != nil {
		set = append(set, "main_category_id = ?")
		args = append(args, *p.MainCategoryID)
	}
	if p.PaymentMethodID != nil {
		set = append(set, "payment_method_id = ?")
		args = append(args, *p.PaymentMethodID)
	}
	if p.ClearSubCategory {
		set = append(set, "sub_category_id = NULL")
	} else if p.SubCategoryID != nil {
		set = append(set, "sub_category_id = ?")
		args = append(args, *p.SubCategoryID)
	}
	if p.ClearBudget {
		set = append(set, "budget_id = NULL")
	} else if p.BudgetID != nil {
		set = append(set, "budget_id = ?")
		args = append(args, *p.BudgetID)
	}

	// An edit reopens the export question for this row.
	set = append(set, "sync_status = 'pending'")

	query := "UPDATE transactions SET " + strings.Join(set, ", ") + " WHERE id = ? AND deleted_at IS NULL"
	res, err := r.db.ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction rows: %w", err)
	}
	if n == 0 {
		return core.Transaction{}, core.ErrNotFound
	}
	return r.GetTransaction(ctx, id)
}

func (r *SQLiteRepository) SoftDeleteTransaction(ctx context.Context, id int64) error {
	now := toUnix(time.Now())
	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete transaction rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// BudgetUsage sums live expense transactions attached to a budget.
func (r *SQLiteRepository) BudgetUsage(ctx context.Context, budgetID int64) (used int64, count int64, err error) {
	err = r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM transactions
		WHERE budget_id = ? AND type = 'expense' AND deleted_at IS NULL`,
		budgetID).Scan(&used, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("budget usage %d: %w", budgetID, err)
	}
	return used, count, nil
}

// BudgetCategoryStats groups a budget's live expense transactions by main
// category, largest first.
func (r *SQLiteRepository) BudgetCategoryStats(ctx context.Context, budgetID int64) ([]core.CategoryStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT t.main_category_id, mc.name, COALESCE(SUM(t.amount), 0), COUNT(*)
		FROM transactions t
		JOIN main_categories mc ON mc.id = t.main_category_id
		WHERE t.budget_id = ? AND t.type = 'expense' AND t.deleted_at IS NULL
		GROUP BY t.main_category_id, mc.name
		ORDER BY SUM(t.amount) DESC`,
		budgetID)
	if err != nil {
		return nil, fmt.Errorf("budget category stats %d: %w", budgetID, err)
	}
	defer rows.Close()

	stats := []core.CategoryStat{}
	for rows.Next() {
		var s core.CategoryStat
		if err := rows.Scan(&s.MainCategoryID, &s.CategoryName, &s.Amount, &s.TransactionCount); err != nil {
			return nil, fmt.Errorf("scan category stat: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category stats: %w", err)
	}
	return stats, nil
}

// DetachBudget clears budget_id on live transactions referencing the budget
// and reports how many rows it touched.
func (r *SQLiteRepository) DetachBudget(ctx context.Context, budgetID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET budget_id = NULL, updated_at = ? WHERE budget_id = ? AND deleted_at IS NULL",
		toUnix(time.Now()), budgetID)
	if err != nil {
		return 0, fmt.Errorf("detach budget %d: %w", budgetID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("detach budget rows: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) countTransactionsWhere(ctx context.Context, column string, id int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE "+column+" = ? AND deleted_at IS NULL",
		id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions by %s: %w", column, err)
	}
	return n, nil
}

func (r *SQLiteRepository) CountTransactionsByMainCategory(ctx context.Context, id int64) (int64, error) {
	return r.countTransactionsWhere(ctx, "main_category_id", id)
}

func (r *SQLiteRepository) CountTransactionsBySubCategory(ctx context.Context, id int64) (int64, error) {
	return r.countTransactionsWhere(ctx, "sub_category_id", id)
}

func (r *SQLiteRepository) CountTransactionsByPaymentMethod(ctx context.Context, id int64) (int64, error) {
	return r.countTransactionsWhere(ctx, "payment_method_id", id)
}

// ListPendingSync returns live transactions awaiting export, oldest first.
func (r *SQLiteRepository) ListPendingSync(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT"+transactionColumns+transactionJoins+
			" WHERE t.deleted_at IS NULL AND t.sync_status = 'pending' ORDER BY t.created_at ASC, t.id ASC LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("list pending sync: %w", err)
	}
	defer rows.Close()

	txs := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending sync: %w", err)
	}
	return txs, nil
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET sync_status = 'synced', updated_at = ? WHERE id = ?",
		toUnix(time.Now()), id)
	if err != nil {
		return fmt.Errorf("mark transaction %d synced: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET sync_status = 'error', updated_at = ? WHERE id = ?",
		toUnix(time.Now()), id)
	if err != nil {
		return fmt.Errorf("mark transaction %d sync error: %w", id, err)
	}
	return nil
}
