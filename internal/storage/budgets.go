package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"budgetmanager/internal/core"
)

const budgetSelect = `SELECT b.id, b.year, b.month, b.category_id, b.amount_cents, b.created_at, b.updated_at,
	COALESCE(c.name, '')
FROM monthly_budgets b
LEFT JOIN categories c ON c.id = b.category_id`

func scanBudget(row scanner) (core.MonthlyBudget, error) {
	var (
		b       core.MonthlyBudget
		cents   int64
		created string
		updated sql.NullString
	)
	err := row.Scan(&b.ID, &b.Year, &b.Month, &b.CategoryID, &cents, &created, &updated, &b.CategoryName)
	if err != nil {
		return core.MonthlyBudget{}, err
	}
	if b.CreatedAt, err = parseTimestamp(created); err != nil {
		return core.MonthlyBudget{}, fmt.Errorf("parse budget created_at: %w", err)
	}
	if b.UpdatedAt, err = parseNullTimestamp(updated); err != nil {
		return core.MonthlyBudget{}, fmt.Errorf("parse budget updated_at: %w", err)
	}
	b.Amount = core.FromCents(cents)
	return b, nil
}

// BudgetsForMonth returns the budgets of ym ordered by category name.
func (q *Queries) BudgetsForMonth(ctx context.Context, ym core.YearMonth) ([]core.MonthlyBudget, error) {
	rows, err := q.db.QueryContext(ctx,
		budgetSelect+` WHERE b.year = ? AND b.month = ? ORDER BY c.name COLLATE NOCASE, b.id`,
		ym.Year, ym.Month)
	if err != nil {
		return nil, fmt.Errorf("budgets for %s: %w", ym.Key(), err)
	}
	defer rows.Close()

	var budgets []core.MonthlyBudget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (q *Queries) GetBudget(ctx context.Context, ym core.YearMonth, categoryID int64) (core.MonthlyBudget, error) {
	row := q.db.QueryRowContext(ctx,
		budgetSelect+` WHERE b.year = ? AND b.month = ? AND b.category_id = ?`,
		ym.Year, ym.Month, categoryID)
	b, err := scanBudget(row)
	if err != nil {
		return core.MonthlyBudget{}, fmt.Errorf("get budget %s/%d: %w", ym.Key(), categoryID, notFound(err))
	}
	return b, nil
}

func (q *Queries) GetBudgetByID(ctx context.Context, id int64) (core.MonthlyBudget, error) {
	row := q.db.QueryRowContext(ctx, budgetSelect+` WHERE b.id = ?`, id)
	b, err := scanBudget(row)
	if err != nil {
		return core.MonthlyBudget{}, fmt.Errorf("get budget %d: %w", id, notFound(err))
	}
	return b, nil
}

// InsertBudget fails with ErrConflict when (year, month, category) exists.
func (q *Queries) InsertBudget(ctx context.Context, b core.MonthlyBudget) (core.MonthlyBudget, error) {
	b.Amount = core.RoundAmount(b.Amount)
	b.CreatedAt = q.now().UTC()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO monthly_budgets (year, month, category_id, amount_cents, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.Year, b.Month, b.CategoryID, core.ToCents(b.Amount), formatTimestamp(b.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return core.MonthlyBudget{}, fmt.Errorf("insert budget %d-%02d/%d: %w", b.Year, b.Month, b.CategoryID, ErrConflict)
		}
		return core.MonthlyBudget{}, fmt.Errorf("insert budget: %w", err)
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.MonthlyBudget{}, fmt.Errorf("budget id: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved to SQLite",
		"id", b.ID, "year", b.Year, "month", b.Month, "category_id", b.CategoryID,
		"amount_cents", core.ToCents(b.Amount))
	return b, nil
}

func (q *Queries) UpdateBudgetAmount(ctx context.Context, id int64, amount decimal.Decimal) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE monthly_budgets SET amount_cents = ?, updated_at = ? WHERE id = ?`,
		core.ToCents(amount), formatTimestamp(q.now()), id)
	if err != nil {
		return fmt.Errorf("update budget %d: %w", id, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("update budget %d: %w", id, err)
	}
	return nil
}

func (q *Queries) DeleteBudget(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM monthly_budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}

// TotalBudget sums every category budget of ym.
func (q *Queries) TotalBudget(ctx context.Context, ym core.YearMonth) (decimal.Decimal, error) {
	var cents int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM monthly_budgets WHERE year = ? AND month = ?`,
		ym.Year, ym.Month).Scan(&cents)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total budget %s: %w", ym.Key(), err)
	}
	return core.FromCents(cents), nil
}
