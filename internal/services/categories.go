package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

type CategoryService struct {
	store    *storage.Store
	activity *ActivityLogger
	budgets  *BudgetService
}

// NewCategoryService returns the category use cases. Category changes
// reshape every month's pacing, so all cached pacing is dropped on writes.
func NewCategoryService(store *storage.Store, activity *ActivityLogger, budgets *BudgetService) *CategoryService {
	return &CategoryService{store: store, activity: activity, budgets: budgets}
}

type categorySnapshot struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
}

func snapshotCategory(c core.Category) categorySnapshot {
	return categorySnapshot{Name: c.Name, Description: c.Description, IsActive: c.IsActive}
}

// List returns categories ordered by name.
func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]core.Category, error) {
	return s.store.ListCategories(ctx, activeOnly)
}

func (s *CategoryService) Get(ctx context.Context, id int64) (core.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// GetByName matches the name ignoring case.
func (s *CategoryService) GetByName(ctx context.Context, name string) (core.Category, error) {
	return s.store.GetCategoryByName(ctx, strings.TrimSpace(name))
}

// DefaultCategoryID returns the id of "Uncategorized". The boolean is false
// when no such category exists.
func (s *CategoryService) DefaultCategoryID(ctx context.Context) (int64, bool, error) {
	c, err := s.store.GetCategoryByName(ctx, core.DefaultCategoryName)
	if errors.Is(err, ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return c.ID, true, nil
}

// catchAllCategory returns the first of "Uncategorized" and "Other" that
// exists.
func (s *CategoryService) catchAllCategory(ctx context.Context) (core.Category, bool, error) {
	for _, name := range []string{core.DefaultCategoryName, core.OtherCategoryName} {
		c, err := s.store.GetCategoryByName(ctx, name)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return core.Category{}, false, err
		}
		return c, true, nil
	}
	return core.Category{}, false, nil
}

func (s *CategoryService) Create(ctx context.Context, c core.Category, actor string) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, invalid(err)
	}

	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.budgets.InvalidateAll()

	s.activity.Record(ctx, Entry{
		EntityName:  EntityCategory,
		EntityID:    idPtr(created.ID),
		Action:      ActionCreate,
		Description: fmt.Sprintf("Created category: %s", created.Name),
		NewValues:   snapshotCategory(created),
		Actor:       actor,
	})
	return created, nil
}

func (s *CategoryService) Update(ctx context.Context, c core.Category, actor string) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, invalid(err)
	}

	existing, err := s.store.GetCategory(ctx, c.ID)
	if err != nil {
		return core.Category{}, err
	}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	s.budgets.InvalidateAll()

	updated := existing
	updated.Name = strings.TrimSpace(c.Name)
	updated.Description = c.Description
	updated.IsActive = c.IsActive

	s.activity.Record(ctx, Entry{
		EntityName:  EntityCategory,
		EntityID:    idPtr(c.ID),
		Action:      ActionUpdate,
		Description: fmt.Sprintf("Updated category: %s", updated.Name),
		OldValues:   snapshotCategory(existing),
		NewValues:   snapshotCategory(updated),
		Actor:       actor,
	})
	return updated, nil
}

// Delete refuses to remove a category that still has transactions. Budgets
// and rules of the category are removed with it.
func (s *CategoryService) Delete(ctx context.Context, id int64, actor string) (Result, error) {
	category, err := s.store.GetCategory(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fail("Category not found."), nil
	}
	if err != nil {
		return Result{}, err
	}

	n, err := s.store.CountTransactionsByCategory(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if n > 0 {
		return fail("Cannot delete category with existing transactions. Consider deactivating it instead."), nil
	}

	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return Result{}, err
	}
	s.budgets.InvalidateAll()

	s.activity.Record(ctx, Entry{
		EntityName:  EntityCategory,
		EntityID:    idPtr(id),
		Action:      ActionDelete,
		Description: fmt.Sprintf("Deleted category: %s", category.Name),
		OldValues:   categorySnapshot{Name: category.Name, Description: category.Description},
		Actor:       actor,
	})
	return ok("Category deleted successfully."), nil
}
