package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"budgetmanager/internal/cache"
	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

const pacingKeyPrefix = "pacing:"

// BudgetService manages monthly budgets and computes pacing against spend.
type BudgetService struct {
	store    *storage.Store
	activity *ActivityLogger
	clock    core.Clock
	pacing   cache.Cache[core.MonthPacing]
}

func NewBudgetService(store *storage.Store, activity *ActivityLogger, clock core.Clock, pacing cache.Cache[core.MonthPacing]) *BudgetService {
	if clock == nil {
		clock = core.SystemClock
	}
	return &BudgetService{store: store, activity: activity, clock: clock, pacing: pacing}
}

func pacingMonthPrefix(ym core.YearMonth) string {
	return pacingKeyPrefix + ym.Key() + ":"
}

// pacingKey includes the day when ym is the current month, since the
// prorated figures change every day.
func pacingKey(ym core.YearMonth, now time.Time) string {
	if ym.Contains(now) {
		return fmt.Sprintf("%sd%02d", pacingMonthPrefix(ym), now.Day())
	}
	return pacingMonthPrefix(ym) + "all"
}

// Invalidate drops the cached pacing of ym.
func (s *BudgetService) Invalidate(ym core.YearMonth) {
	if s.pacing != nil {
		s.pacing.DeletePrefix(pacingMonthPrefix(ym))
	}
}

// InvalidateAll drops every cached month.
func (s *BudgetService) InvalidateAll() {
	if s.pacing != nil {
		s.pacing.DeletePrefix(pacingKeyPrefix)
	}
}

// ForMonth returns the budgets of ym ordered by category name.
func (s *BudgetService) ForMonth(ctx context.Context, ym core.YearMonth) ([]core.MonthlyBudget, error) {
	return s.store.BudgetsForMonth(ctx, ym)
}

func (s *BudgetService) Get(ctx context.Context, id int64) (core.MonthlyBudget, error) {
	return s.store.GetBudgetByID(ctx, id)
}

func (s *BudgetService) GetFor(ctx context.Context, ym core.YearMonth, categoryID int64) (core.MonthlyBudget, error) {
	return s.store.GetBudget(ctx, ym, categoryID)
}

// CreateOrUpdate sets the budget of one category in ym, creating the row
// when it does not exist yet.
func (s *BudgetService) CreateOrUpdate(ctx context.Context, ym core.YearMonth, categoryID int64, amount decimal.Decimal, actor string) (core.MonthlyBudget, error) {
	b := core.MonthlyBudget{Year: ym.Year, Month: ym.Month, CategoryID: categoryID, Amount: core.RoundAmount(amount)}
	if err := b.Validate(); err != nil {
		return core.MonthlyBudget{}, invalid(err)
	}

	existing, err := s.store.GetBudget(ctx, ym, categoryID)
	switch {
	case err == nil:
		return s.update(ctx, existing, b.Amount, actor)
	case !errors.Is(err, ErrNotFound):
		return core.MonthlyBudget{}, err
	}

	created, err := s.store.InsertBudget(ctx, b)
	if errors.Is(err, ErrConflict) {
		// Created concurrently; fall back to an update of that row.
		existing, err := s.store.GetBudget(ctx, ym, categoryID)
		if err != nil {
			return core.MonthlyBudget{}, err
		}
		return s.update(ctx, existing, b.Amount, actor)
	}
	if err != nil {
		return core.MonthlyBudget{}, mapReferenceError(err)
	}
	s.Invalidate(ym)

	s.activity.Record(ctx, Entry{
		EntityName: EntityBudget,
		EntityID:   idPtr(created.ID),
		Action:     ActionCreate,
		Description: fmt.Sprintf("Created budget for category %d (%d/%d): %s",
			categoryID, ym.Year, ym.Month, core.FormatCurrency(created.Amount)),
		NewValues: map[string]any{
			"year": ym.Year, "month": ym.Month, "category_id": categoryID, "amount": created.Amount,
		},
		Actor: actor,
	})
	return created, nil
}

func (s *BudgetService) update(ctx context.Context, existing core.MonthlyBudget, amount decimal.Decimal, actor string) (core.MonthlyBudget, error) {
	if err := s.store.UpdateBudgetAmount(ctx, existing.ID, amount); err != nil {
		return core.MonthlyBudget{}, err
	}
	ym := core.YearMonth{Year: existing.Year, Month: existing.Month}
	s.Invalidate(ym)

	oldAmount := existing.Amount
	existing.Amount = amount
	s.activity.Record(ctx, Entry{
		EntityName: EntityBudget,
		EntityID:   idPtr(existing.ID),
		Action:     ActionUpdate,
		Description: fmt.Sprintf("Updated budget for category %d (%d/%d): %s → %s",
			existing.CategoryID, ym.Year, ym.Month, core.FormatCurrency(oldAmount), core.FormatCurrency(amount)),
		OldValues: map[string]any{"old_amount": oldAmount},
		NewValues: map[string]any{"new_amount": amount},
		Actor:     actor,
	})
	return existing, nil
}

func (s *BudgetService) Delete(ctx context.Context, id int64, actor string) error {
	b, err := s.store.GetBudgetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteBudget(ctx, id); err != nil {
		return err
	}
	s.Invalidate(core.YearMonth{Year: b.Year, Month: b.Month})

	s.activity.Record(ctx, Entry{
		EntityName:  EntityBudget,
		EntityID:    idPtr(id),
		Action:      ActionDelete,
		Description: fmt.Sprintf("Deleted budget for category %d (%d/%d)", b.CategoryID, b.Year, b.Month),
		OldValues: map[string]any{
			"year": b.Year, "month": b.Month, "category_id": b.CategoryID, "amount": b.Amount,
		},
		Actor: actor,
	})
	return nil
}

// lines joins the active categories with their budget and spend for ym.
func (s *BudgetService) lines(ctx context.Context, ym core.YearMonth) ([]core.PacingLine, error) {
	categories, err := s.store.ListCategories(ctx, true)
	if err != nil {
		return nil, err
	}
	budgets, err := s.store.BudgetsForMonth(ctx, ym)
	if err != nil {
		return nil, err
	}
	spent, err := s.store.SpentByCategory(ctx, ym)
	if err != nil {
		return nil, err
	}

	budgeted := make(map[int64]decimal.Decimal, len(budgets))
	for _, b := range budgets {
		budgeted[b.CategoryID] = budgeted[b.CategoryID].Add(b.Amount)
	}

	lines := make([]core.PacingLine, 0, len(categories))
	for _, c := range categories {
		lines = append(lines, core.PacingLine{
			CategoryID:   c.ID,
			CategoryName: c.Name,
			Budget:       budgeted[c.ID],
			Spent:        spent[c.ID],
		})
	}
	return lines, nil
}

// Summary returns one pacing line per active category, ordered by name.
func (s *BudgetService) Summary(ctx context.Context, ym core.YearMonth) ([]core.CategoryPacing, error) {
	p, err := s.Pacing(ctx, ym)
	if err != nil {
		return nil, err
	}
	return p.Categories, nil
}

// Pacing returns the month totals with every category line. Results are
// cached per month, and per day for the current month, until a write
// touches that month.
func (s *BudgetService) Pacing(ctx context.Context, ym core.YearMonth) (core.MonthPacing, error) {
	now := s.clock.Now()
	key := pacingKey(ym, now)
	if s.pacing != nil {
		if p, ok := s.pacing.Get(key); ok {
			return p, nil
		}
	}

	lines, err := s.lines(ctx, ym)
	if err != nil {
		return core.MonthPacing{}, fmt.Errorf("budget pacing %s: %w", ym.Key(), err)
	}
	p := core.SummarizePacing(ym, lines, now)
	if s.pacing != nil {
		s.pacing.Set(key, p)
	}
	return p, nil
}

// CopyFromPreviousMonth copies every budget of the previous month whose
// category has no budget in ym yet. Existing budgets of ym are left alone.
func (s *BudgetService) CopyFromPreviousMonth(ctx context.Context, ym core.YearMonth, actor string) (int, error) {
	prev := ym.Previous()

	previous, err := s.store.BudgetsForMonth(ctx, prev)
	if err != nil {
		return 0, err
	}
	current, err := s.store.BudgetsForMonth(ctx, ym)
	if err != nil {
		return 0, err
	}

	existing := make(map[int64]bool, len(current))
	for _, b := range current {
		existing[b.CategoryID] = true
	}

	copied := 0
	for _, b := range previous {
		if existing[b.CategoryID] {
			continue
		}
		if _, err := s.CreateOrUpdate(ctx, ym, b.CategoryID, b.Amount, actor); err != nil {
			return copied, err
		}
		copied++
	}

	if copied > 0 {
		s.activity.Record(ctx, Entry{
			EntityName:  EntityBudget,
			Action:      ActionCopy,
			Description: CopyBudgetsMessage(copied, prev, ym),
			NewValues: map[string]any{
				"source_month": prev.Month, "source_year": prev.Year,
				"target_month": ym.Month, "target_year": ym.Year,
				"count": copied,
			},
			Actor: actor,
		})
	}
	return copied, nil
}

// CopyBudgetsMessage describes a completed copy, e.g.
// "Copied 3 budgets from 12/2023 to 1/2024".
func CopyBudgetsMessage(n int, from, to core.YearMonth) string {
	return fmt.Sprintf("Copied %d budgets from %d/%d to %d/%d", n, from.Month, from.Year, to.Month, to.Year)
}
