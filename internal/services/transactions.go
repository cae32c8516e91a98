package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

const (
	msgCreateLocked        = "Cannot create transaction in a locked month. Mark as adjustment if needed."
	msgEditLocked          = "Cannot edit transaction in a locked month."
	msgDeleteLocked        = "Cannot delete transaction in a locked month."
	msgTransactionNotFound = "Transaction not found."
)

// TransactionResult is a Result that carries the saved transaction on
// success.
type TransactionResult struct {
	Result
	Transaction *core.Transaction `json:"transaction,omitempty"`
}

type TransactionService struct {
	store    *storage.Store
	activity *ActivityLogger
	locking  *LockingService
	budgets  *BudgetService
}

func NewTransactionService(store *storage.Store, activity *ActivityLogger, locking *LockingService, budgets *BudgetService) *TransactionService {
	return &TransactionService{store: store, activity: activity, locking: locking, budgets: budgets}
}

type transactionSnapshot struct {
	Date         string          `json:"date"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	CategoryID   int64           `json:"category_id"`
	AccountID    int64           `json:"account_id"`
	Notes        string          `json:"notes,omitempty"`
	IsAdjustment bool            `json:"is_adjustment"`
}

func snapshotTransaction(tx core.Transaction) transactionSnapshot {
	return transactionSnapshot{
		Date:         tx.Date.Format(time.DateOnly),
		Description:  tx.Description,
		Amount:       tx.Amount,
		CategoryID:   tx.CategoryID,
		AccountID:    tx.AccountID,
		Notes:        tx.Notes,
		IsAdjustment: tx.IsAdjustment,
	}
}

// List returns one page of matching transactions, newest first.
func (s *TransactionService) List(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, f.Normalize())
}

func (s *TransactionService) Count(ctx context.Context, f storage.TransactionFilter) (int, error) {
	return s.store.CountTransactions(ctx, f)
}

func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *TransactionService) ForMonth(ctx context.Context, ym core.YearMonth) ([]core.Transaction, error) {
	return s.store.TransactionsInMonth(ctx, ym)
}

// TotalSpent sums the expenses of a month as a positive amount, optionally
// narrowed to one category or account.
func (s *TransactionService) TotalSpent(ctx context.Context, ym core.YearMonth, categoryID, accountID *int64) (decimal.Decimal, error) {
	return s.store.TotalSpent(ctx, ym, categoryID, accountID)
}

// TopExpenses returns the n largest expenses of a month.
func (s *TransactionService) TopExpenses(ctx context.Context, ym core.YearMonth, n int) ([]core.Transaction, error) {
	return s.store.TopExpenses(ctx, ym, n)
}

func (s *TransactionService) Create(ctx context.Context, tx core.Transaction, actor string) (TransactionResult, error) {
	if err := tx.Validate(); err != nil {
		return TransactionResult{}, invalid(err)
	}

	allowed, err := s.locking.CanCreate(ctx, tx)
	if err != nil {
		return TransactionResult{}, err
	}
	if !allowed {
		return TransactionResult{Result: fail(msgCreateLocked)}, nil
	}

	tx.UserID = actor
	saved, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return TransactionResult{}, mapReferenceError(err)
	}
	s.budgets.Invalidate(core.YearMonthOf(saved.Date))

	s.activity.Record(ctx, Entry{
		EntityName:  EntityTransaction,
		EntityID:    idPtr(saved.ID),
		Action:      ActionCreate,
		Description: fmt.Sprintf("Created transaction: %s (%s)", saved.Description, core.FormatCurrency(saved.Amount)),
		NewValues:   snapshotTransaction(saved),
		Actor:       actor,
	})
	return TransactionResult{Result: ok("Transaction created successfully."), Transaction: &saved}, nil
}

// Update replaces the editable fields of an existing transaction. Both the
// stored row and the edited row must pass the lock gate, so a row cannot be
// moved into or out of a locked month.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction, actor string) (TransactionResult, error) {
	if err := tx.Validate(); err != nil {
		return TransactionResult{}, invalid(err)
	}

	existing, err := s.store.GetTransaction(ctx, tx.ID)
	if errors.Is(err, ErrNotFound) {
		return TransactionResult{Result: fail(msgTransactionNotFound)}, nil
	}
	if err != nil {
		return TransactionResult{}, err
	}

	for _, candidate := range []core.Transaction{existing, tx} {
		allowed, err := s.locking.CanEdit(ctx, candidate)
		if err != nil {
			return TransactionResult{}, err
		}
		if !allowed {
			return TransactionResult{Result: fail(msgEditLocked)}, nil
		}
	}

	tx.UserID = existing.UserID
	tx.CreatedAt = existing.CreatedAt
	saved, err := s.store.UpdateTransaction(ctx, tx)
	if errors.Is(err, ErrNotFound) {
		return TransactionResult{Result: fail(msgTransactionNotFound)}, nil
	}
	if err != nil {
		return TransactionResult{}, mapReferenceError(err)
	}
	s.budgets.Invalidate(core.YearMonthOf(existing.Date))
	s.budgets.Invalidate(core.YearMonthOf(saved.Date))

	s.activity.Record(ctx, Entry{
		EntityName:  EntityTransaction,
		EntityID:    idPtr(saved.ID),
		Action:      ActionUpdate,
		Description: fmt.Sprintf("Updated transaction: %s", saved.Description),
		OldValues:   snapshotTransaction(existing),
		NewValues:   snapshotTransaction(saved),
		Actor:       actor,
	})
	return TransactionResult{Result: ok("Transaction updated successfully."), Transaction: &saved}, nil
}

func (s *TransactionService) Delete(ctx context.Context, id int64, actor string) (Result, error) {
	existing, err := s.store.GetTransaction(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fail(msgTransactionNotFound), nil
	}
	if err != nil {
		return Result{}, err
	}

	allowed, err := s.locking.CanDelete(ctx, existing)
	if err != nil {
		return Result{}, err
	}
	if !allowed {
		return fail(msgDeleteLocked), nil
	}

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(msgTransactionNotFound), nil
		}
		return Result{}, err
	}
	s.budgets.Invalidate(core.YearMonthOf(existing.Date))

	s.activity.Record(ctx, Entry{
		EntityName:  EntityTransaction,
		EntityID:    idPtr(id),
		Action:      ActionDelete,
		Description: fmt.Sprintf("Deleted transaction: %s (%s)", existing.Description, core.FormatCurrency(existing.Amount)),
		OldValues:   snapshotTransaction(existing),
		Actor:       actor,
	})
	return ok("Transaction deleted successfully."), nil
}

// mapReferenceError turns a foreign key failure on category_id or
// account_id into a validation error.
func mapReferenceError(err error) error {
	if err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
		return invalid(err)
	}
	return err
}
