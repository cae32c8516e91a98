package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"budgetmanager/internal/core"
)

const accountColumns = `id, name, type, is_active, created_at`

func scanAccount(row scanner) (core.Account, error) {
	var (
		a       core.Account
		created string
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Type, &a.IsActive, &created); err != nil {
		return core.Account{}, err
	}
	t, err := parseTimestamp(created)
	if err != nil {
		return core.Account{}, fmt.Errorf("parse account created_at: %w", err)
	}
	a.CreatedAt = t
	return a, nil
}

// ListAccounts returns accounts ordered by name.
func (q *Queries) ListAccounts(ctx context.Context, activeOnly bool) ([]core.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name COLLATE NOCASE`

	rows, err := q.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (q *Queries) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %d: %w", id, notFound(err))
	}
	return a, nil
}

// GetAccountByName matches name case-insensitively.
func (q *Queries) GetAccountByName(ctx context.Context, name string) (core.Account, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE name = ? COLLATE NOCASE`, strings.TrimSpace(name))
	a, err := scanAccount(row)
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %q: %w", name, notFound(err))
	}
	return a, nil
}

func (q *Queries) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	a.CreatedAt = q.now().UTC()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO accounts (name, type, is_active, created_at) VALUES (?, ?, ?, ?)`,
		a.Name, a.Type, a.IsActive, formatTimestamp(a.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Account{}, fmt.Errorf("create account %q: %w", a.Name, ErrConflict)
		}
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}

	slog.InfoContext(ctx, "Account saved to SQLite", "id", a.ID, "name", a.Name, "type", a.Type)
	return a, nil
}

func (q *Queries) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, type = ?, is_active = ? WHERE id = ?`,
		strings.TrimSpace(a.Name), a.Type, a.IsActive, a.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update account %d: %w", a.ID, ErrConflict)
		}
		return fmt.Errorf("update account %d: %w", a.ID, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return nil
}

func (q *Queries) DeleteAccount(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return nil
}

func (q *Queries) CountTransactionsByAccount(ctx context.Context, id int64) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = ?`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count account transactions: %w", err)
	}
	return n, nil
}
