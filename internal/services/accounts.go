package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

type AccountService struct {
	store    *storage.Store
	activity *ActivityLogger
}

func NewAccountService(store *storage.Store, activity *ActivityLogger) *AccountService {
	return &AccountService{store: store, activity: activity}
}

type accountSnapshot struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive bool   `json:"is_active"`
}

func snapshotAccount(a core.Account) accountSnapshot {
	return accountSnapshot{Name: a.Name, Type: a.Type, IsActive: a.IsActive}
}

// List returns accounts ordered by name.
func (s *AccountService) List(ctx context.Context, activeOnly bool) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, activeOnly)
}

func (s *AccountService) Get(ctx context.Context, id int64) (core.Account, error) {
	return s.store.GetAccount(ctx, id)
}

// GetByName matches the name ignoring case.
func (s *AccountService) GetByName(ctx context.Context, name string) (core.Account, error) {
	return s.store.GetAccountByName(ctx, strings.TrimSpace(name))
}

func (s *AccountService) Create(ctx context.Context, a core.Account, actor string) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, invalid(err)
	}

	created, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, err
	}

	s.activity.Record(ctx, Entry{
		EntityName:  EntityAccount,
		EntityID:    idPtr(created.ID),
		Action:      ActionCreate,
		Description: fmt.Sprintf("Created account: %s (%s)", created.Name, created.Type),
		NewValues:   snapshotAccount(created),
		Actor:       actor,
	})
	return created, nil
}

func (s *AccountService) Update(ctx context.Context, a core.Account, actor string) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, invalid(err)
	}

	existing, err := s.store.GetAccount(ctx, a.ID)
	if err != nil {
		return core.Account{}, err
	}
	if err := s.store.UpdateAccount(ctx, a); err != nil {
		return core.Account{}, err
	}

	updated := existing
	updated.Name = strings.TrimSpace(a.Name)
	updated.Type = a.Type
	updated.IsActive = a.IsActive

	s.activity.Record(ctx, Entry{
		EntityName:  EntityAccount,
		EntityID:    idPtr(a.ID),
		Action:      ActionUpdate,
		Description: fmt.Sprintf("Updated account: %s", updated.Name),
		OldValues:   snapshotAccount(existing),
		NewValues:   snapshotAccount(updated),
		Actor:       actor,
	})
	return updated, nil
}

// Delete refuses to remove an account that still has transactions.
func (s *AccountService) Delete(ctx context.Context, id int64, actor string) (Result, error) {
	account, err := s.store.GetAccount(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fail("Account not found."), nil
	}
	if err != nil {
		return Result{}, err
	}

	n, err := s.store.CountTransactionsByAccount(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if n > 0 {
		return fail("Cannot delete account with existing transactions. Consider deactivating it instead."), nil
	}

	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return Result{}, err
	}

	s.activity.Record(ctx, Entry{
		EntityName:  EntityAccount,
		EntityID:    idPtr(id),
		Action:      ActionDelete,
		Description: fmt.Sprintf("Deleted account: %s", account.Name),
		OldValues:   accountSnapshot{Name: account.Name, Type: account.Type},
		Actor:       actor,
	})
	return ok("Account deleted successfully."), nil
}
