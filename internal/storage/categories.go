package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"budgetmanager/internal/core"
)

const categoryColumns = `id, name, description, is_active, created_at`

func scanCategory(row scanner) (core.Category, error) {
	var (
		c       core.Category
		created string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.IsActive, &created); err != nil {
		return core.Category{}, err
	}
	t, err := parseTimestamp(created)
	if err != nil {
		return core.Category{}, fmt.Errorf("parse category created_at: %w", err)
	}
	c.CreatedAt = t
	return c, nil
}

// ListCategories returns categories ordered by name.
func (q *Queries) ListCategories(ctx context.Context, activeOnly bool) ([]core.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name COLLATE NOCASE`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (q *Queries) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, notFound(err))
	}
	return c, nil
}

// GetCategoryByName matches name case-insensitively.
func (q *Queries) GetCategoryByName(ctx context.Context, name string) (core.Category, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = ? COLLATE NOCASE`, strings.TrimSpace(name))
	c, err := scanCategory(row)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %q: %w", name, notFound(err))
	}
	return c, nil
}

func (q *Queries) CountCategories(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count categories: %w", err)
	}
	return n, nil
}

func (q *Queries) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.CreatedAt = q.now().UTC()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (name, description, is_active, created_at) VALUES (?, ?, ?, ?)`,
		c.Name, c.Description, c.IsActive, formatTimestamp(c.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, fmt.Errorf("create category %q: %w", c.Name, ErrConflict)
		}
		return core.Category{}, fmt.Errorf("create category: %w", err)
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}

	slog.InfoContext(ctx, "Category saved to SQLite", "id", c.ID, "name", c.Name)
	return c, nil
}

func (q *Queries) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ?, is_active = ? WHERE id = ?`,
		strings.TrimSpace(c.Name), c.Description, c.IsActive, c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update category %d: %w", c.ID, ErrConflict)
		}
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	return nil
}

// DeleteCategory removes the category together with its budgets and rules.
func (q *Queries) DeleteCategory(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

func (q *Queries) CountTransactionsByCategory(ctx context.Context, id int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count category transactions: %w", err)
	}
	return n, nil
}
