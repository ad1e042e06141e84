package services

import (
	"context"
	"fmt"

	"kakeibo/internal/core"
)

type PaymentMethodService struct {
	store PaymentMethodStore
}

func NewPaymentMethodService(store PaymentMethodStore) *PaymentMethodService {
	return &PaymentMethodService{store: store}
}

func (s *PaymentMethodService) List(ctx context.Context, typ *core.PaymentMethodType) ([]core.PaymentMethod, error) {
	if typ != nil && !typ.Valid() {
		return nil, core.ErrInvalidType
	}
	methods, err := s.store.ListPaymentMethods(ctx, typ)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	return methods, nil
}

func (s *PaymentMethodService) Get(ctx context.Context, id int64) (core.PaymentMethod, error) {
	return s.store.GetPaymentMethod(ctx, id)
}

func (s *PaymentMethodService) Create(ctx context.Context, p core.PaymentMethod) (core.PaymentMethod, error) {
	if err := p.Validate(); err != nil {
		return core.PaymentMethod{}, err
	}
	if err := s.checkDuplicate(ctx, p.Name, p.Type, 0); err != nil {
		return core.PaymentMethod{}, err
	}

	created, err := s.store.CreatePaymentMethod(ctx, p)
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("create payment method: %w", err)
	}
	return created, nil
}

func (s *PaymentMethodService) Update(ctx context.Context, id int64, p core.PaymentMethodPatch) (core.PaymentMethod, error) {
	existing, err := s.store.GetPaymentMethod(ctx, id)
	if err != nil {
		return core.PaymentMethod{}, err
	}

	candidate := existing
	if p.Name != nil {
		candidate.Name = *p.Name
	}
	if p.Type != nil {
		candidate.Type = *p.Type
	}
	if p.Description != nil {
		candidate.Description = *p.Description
	}
	if err := candidate.Validate(); err != nil {
		return core.PaymentMethod{}, err
	}
	if err := s.checkDuplicate(ctx, candidate.Name, candidate.Type, id); err != nil {
		return core.PaymentMethod{}, err
	}

	updated, err := s.store.UpdatePaymentMethod(ctx, id, p)
	if err != nil {
		return core.PaymentMethod{}, fmt.Errorf("update payment method %d: %w", id, err)
	}
	return updated, nil
}

// Delete refuses while live transactions still use the method.
func (s *PaymentMethodService) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.GetPaymentMethod(ctx, id); err != nil {
		return err
	}

	used, err := s.store.CountTransactionsByPaymentMethod(ctx, id)
	if err != nil {
		return fmt.Errorf("count transactions of payment method %d: %w", id, err)
	}
	if used > 0 {
		return fmt.Errorf("payment method %d is referenced by %d transactions: %w", id, used, core.ErrPreconditionFailed)
	}

	if err := s.store.SoftDeletePaymentMethod(ctx, id); err != nil {
		return fmt.Errorf("delete payment method %d: %w", id, err)
	}
	return nil
}

func (s *PaymentMethodService) checkDuplicate(ctx context.Context, name string, typ core.PaymentMethodType, excludeID int64) error {
	exists, err := s.store.PaymentMethodExists(ctx, name, typ, excludeID)
	if err != nil {
		return fmt.Errorf("check duplicate payment method: %w", err)
	}
	if exists {
		return fmt.Errorf("payment method %q (%s) already exists: %w", name, typ, core.ErrConflict)
	}
	return nil
}
