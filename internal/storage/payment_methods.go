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

func scanPaymentMethod(row interface{ Scan(...any) error }) (core.PaymentMethod, error) {
	var (
		p                core.PaymentMethod
		created, updated int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Type, &p.Description, &created, &updated); err != nil {
		return core.PaymentMethod{}, err
	}
	p.CreatedAt = fromUnix(created)
	p.UpdatedAt = fromUnix(updated)
	return p, nil
}

func (r *SQLiteRepository) ListPaymentMethods(ctx context.Context, typ *core.PaymentMethodType) ([]core.PaymentMethod, error) {
	query := "SELECT id, name, type, description, created_at, updated_at FROM payment_methods WHERE deleted_at IS NULL"
	var args []any
	if typ != nil {
		query += " AND type = ?"
		args = append(args, *typ)
	}
	query += " ORDER BY id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	defer rows.Close()

	methods := []core.PaymentMethod{}
	for rows.Next() {
		p, err := scanPaymentMethod(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment method: %w", err)
		}
		methods = append(methods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment methods: %w", err)
	}
	return methods, nil
}

func (r *SQLiteRepository) GetPaymentMethod(ctx context.Context, id int64) (core.PaymentMethod, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, type, description, created_at, updated_at FROM payment_methods WHERE id = ? AND deleted_at IS NULL", id)
	p, err := scanPaymentMethod(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaymentMethod{}, core.ErrNotFound
	}
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("get payment method %d: %w", id, err)
	}
	return p, nil
}

func (r *SQLiteRepository) PaymentMethodExists(ctx context.Context, name string, typ core.PaymentMethodType, excludeID int64) (bool, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payment_methods WHERE name = ? AND type = ? AND id != ? AND deleted_at IS NULL",
		name, typ, excludeID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("payment method exists: %w", err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) CreatePaymentMethod(ctx context.Context, p core.PaymentMethod) (core.PaymentMethod, error) {
	now := toUnix(time.Now())
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO payment_methods (name, type, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		p.Name, p.Type, p.Description, now, now)
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("insert payment method: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("payment method insert id: %w", err)
	}
	return r.GetPaymentMethod(ctx, id)
}

func (r *SQLiteRepository) UpdatePaymentMethod(ctx context.Context, id int64, p core.PaymentMethodPatch) (core.PaymentMethod, error) {
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
	if p.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *p.Description)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE payment_methods SET "+strings.Join(set, ", ")+" WHERE id = ? AND deleted_at IS NULL",
		append(args, id)...)
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("update payment method %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("update payment method rows: %w", err)
	}
	if n == 0 {
		return core.PaymentMethod{}, core.ErrNotFound
	}
	return r.GetPaymentMethod(ctx, id)
}

func (r *SQLiteRepository) SoftDeletePaymentMethod(ctx context.Context, id int64) error {
	now := toUnix(time.Now())
	res, err := r.db.ExecContext(ctx,
		"UPDATE payment_methods SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL",
		now, now, id)
	if err != nil {
		return fmt.Errorf("delete payment method %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete payment method rows: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
