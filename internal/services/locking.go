package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

// LockingService guards transactions in closed months. A month is locked
// exactly when a locked_months row exists for it.
type LockingService struct {
	store    *storage.Store
	activity *ActivityLogger
}

func NewLockingService(store *storage.Store, activity *ActivityLogger) *LockingService {
	return &LockingService{store: store, activity: activity}
}

type monthSnapshot struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func (s *LockingService) IsLocked(ctx context.Context, ym core.YearMonth) (bool, error) {
	return s.store.IsMonthLocked(ctx, ym)
}

func (s *LockingService) Get(ctx context.Context, ym core.YearMonth) (core.LockedMonth, error) {
	return s.store.GetLockedMonth(ctx, ym)
}

// List returns every locked month, newest first.
func (s *LockingService) List(ctx context.Context) ([]core.LockedMonth, error) {
	return s.store.ListLockedMonths(ctx)
}

func (s *LockingService) Lock(ctx context.Context, ym core.YearMonth, actor string) (Result, error) {
	locked, err := s.store.IsMonthLocked(ctx, ym)
	if err != nil {
		return Result{}, err
	}
	if locked {
		return fail(core.AlreadyLockedMessage(ym)), nil
	}

	lm, err := s.store.InsertLockedMonth(ctx, ym, actor)
	if errors.Is(err, ErrConflict) {
		// Lost a race with a concurrent lock of the same month.
		return fail(core.AlreadyLockedMessage(ym)), nil
	}
	if err != nil {
		return Result{}, err
	}

	slog.InfoContext(ctx, "Month locked", "year", ym.Year, "month", ym.Month, "actor", actor)
	s.activity.Record(ctx, Entry{
		EntityName:  EntityLockedMonth,
		EntityID:    idPtr(lm.ID),
		Action:      ActionLock,
		Description: fmt.Sprintf("Locked %s", ym),
		NewValues:   monthSnapshot{Year: ym.Year, Month: ym.Month},
		Actor:       actor,
	})
	return ok(core.LockedMessage(ym)), nil
}

func (s *LockingService) Unlock(ctx context.Context, ym core.YearMonth, actor string) (Result, error) {
	lm, err := s.store.GetLockedMonth(ctx, ym)
	if errors.Is(err, ErrNotFound) {
		return fail(core.NotLockedMessage(ym)), nil
	}
	if err != nil {
		return Result{}, err
	}

	if err := s.store.DeleteLockedMonth(ctx, lm.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return fail(core.NotLockedMessage(ym)), nil
		}
		return Result{}, err
	}

	slog.InfoContext(ctx, "Month unlocked", "year", ym.Year, "month", ym.Month, "actor", actor)
	s.activity.Record(ctx, Entry{
		EntityName:  EntityLockedMonth,
		EntityID:    idPtr(lm.ID),
		Action:      ActionUnlock,
		Description: fmt.Sprintf("Unlocked %s", ym),
		OldValues:   monthSnapshot{Year: ym.Year, Month: ym.Month},
		Actor:       actor,
	})
	return ok(core.UnlockedMessage(ym)), nil
}

func (s *LockingService) monthLocked(ctx context.Context, tx core.Transaction) (bool, error) {
	if tx.IsAdjustment {
		return false, nil
	}
	return s.store.IsMonthLocked(ctx, core.YearMonthOf(tx.Date))
}

// CanCreate reports whether tx may be inserted. Adjustments always may.
func (s *LockingService) CanCreate(ctx context.Context, tx core.Transaction) (bool, error) {
	locked, err := s.monthLocked(ctx, tx)
	if err != nil {
		return false, err
	}
	return core.CanCreate(tx.IsAdjustment, locked), nil
}

func (s *LockingService) CanEdit(ctx context.Context, tx core.Transaction) (bool, error) {
	locked, err := s.monthLocked(ctx, tx)
	if err != nil {
		return false, err
	}
	return core.CanEdit(tx.IsAdjustment, locked), nil
}

func (s *LockingService) CanDelete(ctx context.Context, tx core.Transaction) (bool, error) {
	locked, err := s.monthLocked(ctx, tx)
	if err != nil {
		return false, err
	}
	return core.CanDelete(tx.IsAdjustment, locked), nil
}
