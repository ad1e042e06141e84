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

func scanMainCategory(row interface{ Scan(...any) error }) (core.MainCategory, error) {
	var (
		c                core.MainCategory
		created, updated int64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Type, &created, &updated); err != nil {
		return core.MainCategory{}, err
	}
	c.CreatedAt = fromUnix(created)
	c.UpdatedAt = fromUnix(updated)
	return c, nil
}

func scanSubCategory(row interface{ Scan(...any) error }) (core.SubCategory, error) {
	var (
		s                core.SubCategory
		created, updated int64
	)
	if err := row.Scan(&s.ID, &s.MainCategoryID, &s.Name, &created, &updated); err != nil {
		return core.SubCategory{}, err
	}
	s.CreatedAt = fromUnix(created)
	s.UpdatedAt = fromUnix(updated)
	return s, nil
}

// ListMainCategories returns live main categories with their live
// sub-categories attached, optionally narrowed to one transaction type.
func (r *SQLiteRepository) ListMainCategories(ctx context.Context, typ *core.TransactionType) ([]core.MainCategory, error) {
	query := "SELECT id, name, type, created_at, updated_at FROM main_categories WHERE deleted_at IS NULL"
	var args []any
	if typ != nil {
		query += " AND type = ?"
		args = append(args, *typ)
	}
	query += " ORDER BY type ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list main categories: %w", err)
	}
	defer rows.Close()

	cats := []core.MainCategory{}
	for rows.Next() {
		c, err := scanMainCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan main category: %w", err)
		}
		c.SubCategories = []core.SubCategory{}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate main categories: %w", err)
	}

	subs, err := r.listAllSubCategories(ctx)
	if err != nil {
		return nil, err
	}
	byMain := map[int64][]core.SubCategory{}
	for _, s := range subs {
		byMain[s.MainCategoryID] = append(byMain[s.MainCategoryID], s)
	}
	for i := range cats {
		if got := byMain[cats[i].ID]; got != nil {
			cats[i].SubCategories = got
		}
	}
	return cats, nil
}

func (r *SQLiteRepository) listAllSubCategories(ctx context.Context) ([]core.SubCategory, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, main_category_id, name, created_at, updated_at FROM sub_categories WHERE deleted_at IS NULL ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("list sub categories: %w", err)
	}
	defer rows.Close()

	subs := []core.SubCategory{}
	for rows.Next() {
		s, err := scanSubCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sub category: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sub categories: %w", err)
	}
	return subs, nil
}

func (r *SQLiteRepository) GetMainCategory(ctx context.Context, id int64) (core.MainCategory, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, type, created_at, updated_at FROM main_categories WHERE id = ? AND deleted_at IS NULL", id)
	c, err := scanMainCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MainCategory{}, core.ErrNotFound
	}
	if err != nil {
		return core.MainCategory{}, fmt.Errorf("get main category %d: %w", id, err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, main_category_id, name, created_at, updated_at FROM sub_categories WHERE main_category_id = ? AND deleted_at IS NULL ORDER BY id ASC", id)
	if err != nil {
		return core.MainCategory{}, fmt.Errorf("get sub categories of %d: %w", id, err)
	}
	defer rows.Close()

	c.SubCategories = []core.SubCategory{}
	for rows.Next() {
		s, err := scanSubCategory(rows)
		if err != nil {
			return core.MainCategory{}, fmt.Errorf("scan sub category: %w", err)
		}
		c.SubCategories = append(c.SubCategories, s)
	}
	if err := rows.Err(); err != nil {
		return core.MainCategory{}, fmt.Errorf("iterate sub categories: %w", err)
	}
	return c, nil
}

// MainCategoryExists reports whether a live main category with the same name
// and type exists. excludeID skips the row being updated.
func (r *SQLiteRepository) MainCategoryExists(ctx context.Context, name string, typ core.TransactionType, excludeID int64) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM main_categories WHERE name = ? AND type = ? AND id != ? AND deleted_at IS NULL",
		name, typ, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("main category exists: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) CreateMainCategory(ctx context.Context, c core.MainCategory) (core.MainCategory, error) {
	now := toUnix(time.Now())
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO main_categories (name, type, created_at, updated_at) VALUES (?, ?, ?, ?)",
		c.Name, c.Type, now, now)
	if err != nil {
		return core.MainCategory{}, fmt.Errorf("insert main category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.MainCategory{}, fmt.Errorf("main category insert id: %w", err)
	}
	return r.GetMainCategory(ctx, id)
}

func (r *SQLiteRepository) UpdateMainCategory(ctx context.Context, id int64, p core.MainCategoryPatch) (core.MainCategory, error) {
	set := []string{"updated_at = ?"}
	args := []any{toUnix(time.Now())}
	if p.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *p.Name)
	}
	if p.Type != nil {
		set = append(set, "type = ?")
		args = append(args, *p.Type)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE main_categories SET "+strings.Join(set, ", ")+" WHERE id = ? AND deleted_at IS NULL",
		append(args, id)...)
	if err != nil {
		return core.MainCategory{}, fmt.Errorf("update main category %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.MainCategory{}, fmt.Errorf("update main category rows: %w", err)
	}
	if n == 0 {
		return core.MainCategory{}, core.ErrNotFound
	}
	return r.GetMainCategory(ctx, id)
}

// SoftDeleteMainCategory marks the category deleted and cascades to its live
// sub-categories in the same database transaction.
func (r *SQLiteRepository) SoftDeleteMainCategory(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete main category: %w", err)
	}
	defer tx.Rollback()

	now := toUnix(time.Now())
	res, err := tx.ExecContext(ctx,
		"UPDATE main_categories SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, id)
	if err != nil {
		return fmt.Errorf("delete main category %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete main category rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE sub_categories SET deleted_at = ?, updated_at = ? WHERE main_category_id = ? AND deleted_at IS NULL",
		now, now, id)
	if err != nil {
		return fmt.Errorf("cascade delete sub categories of %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete main category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetSubCategory(ctx context.Context, id int64) (core.SubCategory, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, main_category_id, name, created_at, updated_at FROM sub_categories WHERE id = ? AND deleted_at IS NULL", id)
	s, err := scanSubCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SubCategory{}, core.ErrNotFound
	}
	if err != nil {
		return core.SubCategory{}, fmt.Errorf("get sub category %d: %w", id, err)
	}
	return s, nil
}

// SubCategoryExists checks for a live duplicate name under the same main
// category.
func (r *SQLiteRepository) SubCategoryExists(ctx context.Context, mainCategoryID int64, name string, excludeID int64) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sub_categories WHERE main_category_id = ? AND name = ? AND id != ? AND deleted_at IS NULL",
		mainCategoryID, name, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("sub category exists: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) CreateSubCategory(ctx context.Context, s core.SubCategory) (core.SubCategory, error) {
	now := toUnix(time.Now())
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO sub_categories (main_category_id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		s.MainCategoryID, s.Name, now, now)
	if err != nil {
		return core.SubCategory{}, fmt.Errorf("insert sub category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.SubCategory{}, fmt.Errorf("sub category insert id: %w", err)
	}
	return r.GetSubCategory(ctx, id)
}

func (r *SQLiteRepository) UpdateSubCategory(ctx context.Context, id int64, p core.SubCategoryPatch) (core.SubCategory, error) {
	set := []string{"updated_at = ?"}
	args := []any{toUnix(time.Now())}
	if p.Name != nil {
		set = append(set, "name = ?")
		args = append(args, *p.Name)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE sub_categories SET "+strings.Join(set, ", ")+" WHERE id = ? AND deleted_at IS NULL",
		append(args, id)...)
	if err != nil {
		return core.SubCategory{}, fmt.Errorf("update sub category %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.SubCategory{}, fmt.Errorf("update sub category rows: %w", err)
	}
	if n == 0 {
		return core.SubCategory{}, core.ErrNotFound
	}
	return r.GetSubCategory(ctx, id)
}

func (r *SQLiteRepository) SoftDeleteSubCategory(ctx context.Context, id int64) error {
	now := toUnix(time.Now())
	res, err := r.db.ExecContext(ctx,
		"UPDATE sub_categories SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, id)
	if err != nil {
		return fmt.Errorf("delete sub category %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete sub category rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
