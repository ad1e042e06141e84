package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"kakeibo/internal/core"
)

// CategoryService owns the two-level category hierarchy.
type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) ListMain(ctx context.Context, typ *core.TransactionType) ([]core.MainCategory, error) {
	if typ != nil && !typ.Valid() {
		return nil, core.ErrInvalidType
	}
	cats, err := s.store.ListMainCategories(ctx, typ)
	if err != nil {
		return nil, fmt.Errorf("list main categories: %w", err)
	}
	return cats, nil
}

func (s *CategoryService) GetMain(ctx context.Context, id int64) (core.MainCategory, error) {
	return s.store.GetMainCategory(ctx, id)
}

func (s *CategoryService) CreateMain(ctx context.Context, c core.MainCategory) (core.MainCategory, error) {
	if err := c.Validate(); err != nil {
		return core.MainCategory{}, err
	}
	if err := s.checkMainDuplicate(ctx, c.Name, c.Type, 0); err != nil {
		return core.MainCategory{}, err
	}

	created, err := s.store.CreateMainCategory(ctx, c)
	if err != nil {
		return core.MainCategory{}, fmt.Errorf("create main category: %w", err)
	}
	return created, nil
}

func (s *CategoryService) UpdateMain(ctx context.Context, id int64, p core.MainCategoryPatch) (core.MainCategory, error) {
	existing, err := s.store.GetMainCategory(ctx, id)
	if err != nil {
		return core.MainCategory{}, err
	}

	candidate := existing
	if p.Name != nil {
		candidate.Name = *p.Name
	}
	if p.Type != nil {
		candidate.Type = *p.Type
	}
	if err := candidate.Validate(); err != nil {
		return core.MainCategory{}, err
	}
	if err := s.checkMainDuplicate(ctx, candidate.Name, candidate.Type, id); err != nil {
		return core.MainCategory{}, err
	}

	updated, err := s.store.UpdateMainCategory(ctx, id, p)
	if err != nil {
		return core.MainCategory{}, fmt.Errorf("update main category %d: %w", id, err)
	}
	return updated, nil
}

// DeleteMain refuses while live transactions still reference the category,
// then soft-deletes it together with its sub-categories.
func (s *CategoryService) DeleteMain(ctx context.Context, id int64) error {
	if _, err := s.store.GetMainCategory(ctx, id); err != nil {
		return err
	}

	used, err := s.store.CountTransactionsByMainCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count transactions of category %d: %w", id, err)
	}
	if used > 0 {
		return fmt.Errorf("category %d is referenced by %d transactions: %w", id, used, core.ErrPreconditionFailed)
	}

	if err := s.store.SoftDeleteMainCategory(ctx, id); err != nil {
		return fmt.Errorf("delete main category %d: %w", id, err)
	}
	slog.InfoContext(ctx, "Main category deleted", "id", id)
	return nil
}

func (s *CategoryService) GetSub(ctx context.Context, id int64) (core.SubCategory, error) {
	return s.store.GetSubCategory(ctx, id)
}

func (s *CategoryService) CreateSub(ctx context.Context, sub core.SubCategory) (core.SubCategory, error) {
	if err := sub.Validate(); err != nil {
		return core.SubCategory{}, err
	}
	if _, err := s.store.GetMainCategory(ctx, sub.MainCategoryID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.SubCategory{}, fmt.Errorf("main category %d: %w", sub.MainCategoryID, core.ErrInvalidReference)
		}
		return core.SubCategory{}, fmt.Errorf("verify main category %d: %w", sub.MainCategoryID, err)
	}
	if err := s.checkSubDuplicate(ctx, sub.MainCategoryID, sub.Name, 0); err != nil {
		return core.SubCategory{}, err
	}

	created, err := s.store.CreateSubCategory(ctx, sub)
	if err != nil {
		return core.SubCategory{}, fmt.Errorf("create sub category: %w", err)
	}
	return created, nil
}

func (s *CategoryService) UpdateSub(ctx context.Context, id int64, p core.SubCategoryPatch) (core.SubCategory, error) {
	existing, err := s.store.GetSubCategory(ctx, id)
	if err != nil {
		return core.SubCategory{}, err
	}

	candidate := existing
	if p.Name != nil {
		candidate.Name = *p.Name
	}
	if err := candidate.Validate(); err != nil {
		return core.SubCategory{}, err
	}
	if err := s.checkSubDuplicate(ctx, existing.MainCategoryID, candidate.Name, id); err != nil {
		return core.SubCategory{}, err
	}

	updated, err := s.store.UpdateSubCategory(ctx, id, p)
	if err != nil {
		return core.SubCategory{}, fmt.Errorf("update sub category %d: %w", id, err)
	}
	return updated, nil
}

func (s *CategoryService) DeleteSub(ctx context.Context, id int64) error {
	if _, err := s.store.GetSubCategory(ctx, id); err != nil {
		return err
	}

	used, err := s.store.CountTransactionsBySubCategory(ctx, id)
	if err != nil {
		return fmt.Errorf("count transactions of sub category %d: %w", id, err)
	}
	if used > 0 {
		return fmt.Errorf("sub category %d is referenced by %d transactions: %w", id, used, core.ErrPreconditionFailed)
	}

	if err := s.store.SoftDeleteSubCategory(ctx, id); err != nil {
		return fmt.Errorf("delete sub category %d: %w", id, err)
	}
	return nil
}

func (s *CategoryService) checkMainDuplicate(ctx context.Context, name string, typ core.TransactionType, excludeID int64) error {
	exists, err := s.store.MainCategoryExists(ctx, name, typ, excludeID)
	if err != nil {
		return fmt.Errorf("check duplicate category: %w", err)
	}
	if exists {
		return fmt.Errorf("category %q (%s) already exists: %w", name, typ, core.ErrConflict)
	}
	return nil
}

func (s *CategoryService) checkSubDuplicate(ctx context.Context, mainID int64, name string, excludeID int64) error {
	exists, err := s.store.SubCategoryExists(ctx, mainID, name, excludeID)
	if err != nil {
		return fmt.Errorf("check duplicate sub category: %w", err)
	}
	if exists {
		return fmt.Errorf("sub category %q already exists under category %d: %w", name, mainID, core.ErrConflict)
	}
	return nil
}
