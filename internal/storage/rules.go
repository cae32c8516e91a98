package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"budgetmanager/internal/core"
)

const ruleSelect = `SELECT r.id, r.priority, r.contains_text, r.category_id, r.is_active, r.created_at,
	COALESCE(c.name, '')
FROM categorization_rules r
LEFT JOIN categories c ON c.id = r.category_id`

func scanRule(row scanner) (core.Rule, error) {
	var (
		r       core.Rule
		created string
	)
	if err := row.Scan(&r.ID, &r.Priority, &r.ContainsText, &r.CategoryID, &r.IsActive, &created, &r.CategoryName); err != nil {
		return core.Rule{}, err
	}
	t, err := parseTimestamp(created)
	if err != nil {
		return core.Rule{}, fmt.Errorf("parse rule created_at: %w", err)
	}
	r.CreatedAt = t
	return r, nil
}

// ListRules returns rules in evaluation order: priority, then id.
func (q *Queries) ListRules(ctx context.Context, activeOnly bool) ([]core.Rule, error) {
	query := ruleSelect
	if activeOnly {
		query += ` WHERE r.is_active = 1`
	}
	query += ` ORDER BY r.priority, r.id`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []core.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (q *Queries) GetRule(ctx context.Context, id int64) (core.Rule, error) {
	r, err := scanRule(q.db.QueryRowContext(ctx, ruleSelect+` WHERE r.id = ?`, id))
	if err != nil {
		return core.Rule{}, fmt.Errorf("get rule %d: %w", id, notFound(err))
	}
	return r, nil
}

func (q *Queries) CreateRule(ctx context.Context, r core.Rule) (core.Rule, error) {
	r.ContainsText = strings.TrimSpace(r.ContainsText)
	r.CreatedAt = q.now().UTC()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO categorization_rules (priority, contains_text, category_id, is_active, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.Priority, r.ContainsText, r.CategoryID, r.IsActive, formatTimestamp(r.CreatedAt))
	if err != nil {
		return core.Rule{}, fmt.Errorf("create rule: %w", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return core.Rule{}, fmt.Errorf("rule id: %w", err)
	}

	slog.InfoContext(ctx, "Rule saved to SQLite", "id", r.ID, "priority", r.Priority, "category_id", r.CategoryID)
	return r, nil
}

func (q *Queries) UpdateRule(ctx context.Context, r core.Rule) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE categorization_rules SET priority = ?, contains_text = ?, category_id = ?, is_active = ? WHERE id = ?`,
		r.Priority, strings.TrimSpace(r.ContainsText), r.CategoryID, r.IsActive, r.ID)
	if err != nil {
		return fmt.Errorf("update rule %d: %w", r.ID, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("update rule %d: %w", r.ID, err)
	}
	return nil
}

func (q *Queries) DeleteRule(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categorization_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete rule %d: %w", id, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("delete rule %d: %w", id, err)
	}
	return nil
}

// RulePriority assigns a new priority to one rule.
type RulePriority struct {
	RuleID   int64 `json:"rule_id"`
	Priority int   `json:"priority"`
}

// SetRulePriorities applies the whole reorder atomically. Unknown rule ids
// are skipped; the number of rules actually updated is returned.
func (s *Store) SetRulePriorities(ctx context.Context, priorities []RulePriority) (int, error) {
	updated := 0
	err := s.InTx(ctx, func(q *Queries) error {
		updated = 0
		for _, p := range priorities {
			res, err := q.db.ExecContext(ctx,
				`UPDATE categorization_rules SET priority = ? WHERE id = ?`, p.Priority, p.RuleID)
			if err != nil {
				return fmt.Errorf("set priority of rule %d: %w", p.RuleID, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			updated += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
