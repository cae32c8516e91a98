package services

import (
	"context"
	"fmt"
	"log/slog"

	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

// RuleService manages categorization rules and applies them to
// descriptions.
type RuleService struct {
	store      *storage.Store
	activity   *ActivityLogger
	categories *CategoryService
	budgets    *BudgetService
}

func NewRuleService(store *storage.Store, activity *ActivityLogger, categories *CategoryService, budgets *BudgetService) *RuleService {
	return &RuleService{store: store, activity: activity, categories: categories, budgets: budgets}
}

type ruleSnapshot struct {
	ContainsText string `json:"contains_text"`
	CategoryID   int64  `json:"category_id"`
	Priority     int    `json:"priority"`
	IsActive     bool   `json:"is_active"`
}

func snapshotRule(r core.Rule) ruleSnapshot {
	return ruleSnapshot{ContainsText: r.ContainsText, CategoryID: r.CategoryID, Priority: r.Priority, IsActive: r.IsActive}
}

// List returns rules in evaluation order.
func (s *RuleService) List(ctx context.Context, activeOnly bool) ([]core.Rule, error) {
	return s.store.ListRules(ctx, activeOnly)
}

func (s *RuleService) Get(ctx context.Context, id int64) (core.Rule, error) {
	return s.store.GetRule(ctx, id)
}

func (s *RuleService) Create(ctx context.Context, r core.Rule, actor string) (core.Rule, error) {
	if err := r.Validate(); err != nil {
		return core.Rule{}, invalid(err)
	}

	created, err := s.store.CreateRule(ctx, r)
	if err != nil {
		return core.Rule{}, mapReferenceError(err)
	}

	s.activity.Record(ctx, Entry{
		EntityName:  EntityRule,
		EntityID:    idPtr(created.ID),
		Action:      ActionCreate,
		Description: fmt.Sprintf("Created rule: '%s' → Category %d", created.ContainsText, created.CategoryID),
		NewValues:   snapshotRule(created),
		Actor:       actor,
	})
	return created, nil
}

func (s *RuleService) Update(ctx context.Context, r core.Rule, actor string) (core.Rule, error) {
	if err := r.Validate(); err != nil {
		return core.Rule{}, invalid(err)
	}

	existing, err := s.store.GetRule(ctx, r.ID)
	if err != nil {
		return core.Rule{}, err
	}
	if err := s.store.UpdateRule(ctx, r); err != nil {
		return core.Rule{}, mapReferenceError(err)
	}

	updated, err := s.store.GetRule(ctx, r.ID)
	if err != nil {
		return core.Rule{}, err
	}

	s.activity.Record(ctx, Entry{
		EntityName:  EntityRule,
		EntityID:    idPtr(r.ID),
		Action:      ActionUpdate,
		Description: fmt.Sprintf("Updated rule: '%s'", updated.ContainsText),
		OldValues:   snapshotRule(existing),
		NewValues:   snapshotRule(updated),
		Actor:       actor,
	})
	return updated, nil
}

func (s *RuleService) Delete(ctx context.Context, id int64, actor string) error {
	existing, err := s.store.GetRule(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteRule(ctx, id); err != nil {
		return err
	}

	s.activity.Record(ctx, Entry{
		EntityName:  EntityRule,
		EntityID:    idPtr(id),
		Action:      ActionDelete,
		Description: fmt.Sprintf("Deleted rule: '%s'", existing.ContainsText),
		OldValues:   snapshotRule(existing),
		Actor:       actor,
	})
	return nil
}

// Reorder assigns new priorities in one transaction. Unknown ids are
// ignored.
func (s *RuleService) Reorder(ctx context.Context, priorities []storage.RulePriority, actor string) (int, error) {
	n, err := s.store.SetRulePriorities(ctx, priorities)
	if err != nil {
		return 0, err
	}

	s.activity.Record(ctx, Entry{
		EntityName:  EntityRule,
		Action:      ActionReorder,
		Description: "Reordered categorization rules",
		Actor:       actor,
	})
	return n, nil
}

// Suggest returns the category of the first active rule matching
// description.
func (s *RuleService) Suggest(ctx context.Context, description string) (int64, bool, error) {
	rules, err := s.store.ListRules(ctx, true)
	if err != nil {
		return 0, false, err
	}
	rule, matched := core.MatchRule(description, rules)
	if !matched {
		return 0, false, nil
	}
	return rule.CategoryID, true, nil
}

// ApplyToUncategorized runs the rules over every transaction filed under
// the catch-all category and moves the matched ones. All moves commit
// together. It returns how many transactions were moved.
func (s *RuleService) ApplyToUncategorized(ctx context.Context, actor string) (int, error) {
	catchAll, found, err := s.categories.catchAllCategory(ctx)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}

	txs, err := s.store.TransactionsByCategory(ctx, catchAll.ID)
	if err != nil {
		return 0, err
	}
	rules, err := s.store.ListRules(ctx, true)
	if err != nil {
		return 0, err
	}

	var (
		changes []storage.CategoryChange
		months  = make(map[core.YearMonth]bool)
	)
	for _, tx := range txs {
		rule, matched := core.MatchRule(tx.Description, rules)
		if !matched || rule.CategoryID == catchAll.ID || core.IsDefaultCategoryName(rule.CategoryName) {
			continue
		}
		changes = append(changes, storage.CategoryChange{TransactionID: tx.ID, CategoryID: rule.CategoryID})
		months[core.YearMonthOf(tx.Date)] = true
	}
	if len(changes) == 0 {
		return 0, nil
	}

	if err := s.store.Recategorize(ctx, changes); err != nil {
		return 0, fmt.Errorf("apply rules: %w", err)
	}
	for ym := range months {
		s.budgets.Invalidate(ym)
	}

	slog.InfoContext(ctx, "Rules applied to uncategorized transactions",
		"category", catchAll.Name, "scanned", len(txs), "categorized", len(changes))
	s.activity.Record(ctx, Entry{
		EntityName:  EntityTransaction,
		Action:      ActionBulkCategorize,
		Description: fmt.Sprintf("Applied rules to %d uncategorized transactions", len(changes)),
		NewValues:   map[string]int{"categorized_count": len(changes)},
		Actor:       actor,
	})
	return len(changes), nil
}
