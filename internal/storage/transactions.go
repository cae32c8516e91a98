package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"budgetmanager/internal/core"
)

const DefaultPageSize = 50

// TransactionFilter narrows ListTransactions and CountTransactions. Nil
// fields are ignored. Amount bounds apply to the absolute value.
type TransactionFilter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	CategoryID   *int64
	AccountID    *int64
	Search       string
	MinAmount    *decimal.Decimal
	MaxAmount    *decimal.Decimal
	IsAdjustment *bool
	Page         int
	PageSize     int
}

// Normalize fills the paging defaults.
func (f TransactionFilter) Normalize() TransactionFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = DefaultPageSize
	}
	return f
}

func (f TransactionFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.StartDate != nil {
		clauses = append(clauses, "t.date >= ?")
		args = append(args, formatDate(*f.StartDate))
	}
	if f.EndDate != nil {
		clauses = append(clauses, "t.date <= ?")
		args = append(args, formatDate(*f.EndDate))
	}
	if f.CategoryID != nil {
		clauses = append(clauses, "t.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.AccountID != nil {
		clauses = append(clauses, "t.account_id = ?")
		args = append(args, *f.AccountID)
	}
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		clauses = append(clauses, "(instr(lower(t.description), ?) > 0 OR instr(lower(t.notes), ?) > 0)")
		args = append(args, term, term)
	}
	if f.MinAmount != nil {
		minCents := core.ToCents(*f.MinAmount)
		clauses = append(clauses, "(t.amount_cents >= ? OR t.amount_cents <= ?)")
		args = append(args, minCents, -minCents)
	}
	if f.MaxAmount != nil {
		maxCents := core.ToCents(*f.MaxAmount)
		clauses = append(clauses, "(t.amount_cents <= ? AND t.amount_cents >= ?)")
		args = append(args, maxCents, -maxCents)
	}
	if f.IsAdjustment != nil {
		clauses = append(clauses, "t.is_adjustment = ?")
		args = append(args, *f.IsAdjustment)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

const transactionSelect = `SELECT t.id, t.date, t.description, t.amount_cents, t.notes, t.is_adjustment,
	t.category_id, t.account_id, t.user_id, t.created_at, t.updated_at,
	COALESCE(c.name, ''), COALESCE(a.name, '')
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id
LEFT JOIN accounts a ON a.id = t.account_id`

const newestFirst = ` ORDER BY t.date DESC, t.created_at DESC, t.id DESC`

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		tx      core.Transaction
		date    string
		cents   int64
		created string
		updated sql.NullString
	)
	err := row.Scan(&tx.ID, &date, &tx.Description, &cents, &tx.Notes, &tx.IsAdjustment,
		&tx.CategoryID, &tx.AccountID, &tx.UserID, &created, &updated,
		&tx.CategoryName, &tx.AccountName)
	if err != nil {
		return core.Transaction{}, err
	}
	if tx.Date, err = parseDate(date); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction date: %w", err)
	}
	if tx.CreatedAt, err = parseTimestamp(created); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction created_at: %w", err)
	}
	if tx.UpdatedAt, err = parseNullTimestamp(updated); err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction updated_at: %w", err)
	}
	tx.Amount = core.FromCents(cents)
	return tx, nil
}

func (q *Queries) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// ListTransactions returns one page of matches, newest first.
func (q *Queries) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	f = f.Normalize()
	where, args := f.where()
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	txs, err := q.queryTransactions(ctx, transactionSelect+where+newestFirst+` LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (q *Queries) CountTransactions(ctx context.Context, f TransactionFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions t`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

func (q *Queries) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := q.db.QueryRowContext(ctx, transactionSelect+` WHERE t.id = ?`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, notFound(err))
	}
	return tx, nil
}

// TransactionsInMonth returns every transaction dated inside ym, newest first.
func (q *Queries) TransactionsInMonth(ctx context.Context, ym core.YearMonth) ([]core.Transaction, error) {
	txs, err := q.queryTransactions(ctx, transactionSelect+` WHERE t.date >= ? AND t.date < ?`+newestFirst,
		formatDate(ym.Start()), formatDate(ym.End()))
	if err != nil {
		return nil, fmt.Errorf("transactions in %s: %w", ym.Key(), err)
	}
	return txs, nil
}

// RecentTransactions returns the latest n transactions of ym.
func (q *Queries) RecentTransactions(ctx context.Context, ym core.YearMonth, n int) ([]core.Transaction, error) {
	txs, err := q.queryTransactions(ctx, transactionSelect+` WHERE t.date >= ? AND t.date < ?`+newestFirst+` LIMIT ?`,
		formatDate(ym.Start()), formatDate(ym.End()), n)
	if err != nil {
		return nil, fmt.Errorf("recent transactions in %s: %w", ym.Key(), err)
	}
	return txs, nil
}

// TransactionsByCategory returns every transaction filed under categoryID.
func (q *Queries) TransactionsByCategory(ctx context.Context, categoryID int64) ([]core.Transaction, error) {
	txs, err := q.queryTransactions(ctx, transactionSelect+` WHERE t.category_id = ? ORDER BY t.id`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("transactions by category %d: %w", categoryID, err)
	}
	return txs, nil
}

// TransactionsOn returns the dedup candidates: same calendar date and account.
func (q *Queries) TransactionsOn(ctx context.Context, date time.Time, accountID int64) ([]core.Transaction, error) {
	txs, err := q.queryTransactions(ctx, transactionSelect+` WHERE t.date = ? AND t.account_id = ?`,
		formatDate(date), accountID)
	if err != nil {
		return nil, fmt.Errorf("transactions on %s: %w", formatDate(date), err)
	}
	return txs, nil
}

// TopExpenses returns the n largest expenses of ym, biggest first.
func (q *Queries) TopExpenses(ctx context.Context, ym core.YearMonth, n int) ([]core.Transaction, error) {
	txs, err := q.queryTransactions(ctx,
		transactionSelect+` WHERE t.date >= ? AND t.date < ? AND t.amount_cents < 0 ORDER BY t.amount_cents ASC, t.id ASC LIMIT ?`,
		formatDate(ym.Start()), formatDate(ym.End()), n)
	if err != nil {
		return nil, fmt.Errorf("top expenses in %s: %w", ym.Key(), err)
	}
	return txs, nil
}

// SpentByCategory sums the expenses of ym per category as positive amounts.
func (q *Queries) SpentByCategory(ctx context.Context, ym core.YearMonth) (map[int64]decimal.Decimal, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT category_id, SUM(-amount_cents) FROM transactions
		WHERE date >= ? AND date < ? AND amount_cents < 0
		GROUP BY category_id`,
		formatDate(ym.Start()), formatDate(ym.End()))
	if err != nil {
		return nil, fmt.Errorf("spent by category: %w", err)
	}
	defer rows.Close()

	spent := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var (
			id    int64
			cents int64
		)
		if err := rows.Scan(&id, &cents); err != nil {
			return nil, fmt.Errorf("scan spent: %w", err)
		}
		spent[id] = core.FromCents(cents)
	}
	return spent, rows.Err()
}

// ExpensesByCategoryName sums the expenses of ym per category name.
func (q *Queries) ExpensesByCategoryName(ctx context.Context, ym core.YearMonth) (map[string]decimal.Decimal, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT COALESCE(c.name, ?), SUM(-t.amount_cents) FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.date >= ? AND t.date < ? AND t.amount_cents < 0
		GROUP BY 1`,
		core.DefaultCategoryName, formatDate(ym.Start()), formatDate(ym.End()))
	if err != nil {
		return nil, fmt.Errorf("expenses by category name: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			name  string
			cents int64
		)
		if err := rows.Scan(&name, &cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals[name] = core.FromCents(cents)
	}
	return totals, rows.Err()
}

// MonthFlow is the income/expense split of one month.
type MonthFlow struct {
	Income   decimal.Decimal
	Expenses decimal.Decimal
	Count    int
}

func (q *Queries) MonthFlow(ctx context.Context, ym core.YearMonth) (MonthFlow, error) {
	var income, expenses int64
	var flow MonthFlow
	err := q.db.QueryRowContext(ctx,
		`SELECT
			COALESCE(SUM(CASE WHEN amount_cents > 0 THEN amount_cents END), 0),
			COALESCE(SUM(CASE WHEN amount_cents < 0 THEN -amount_cents END), 0),
			COUNT(*)
		FROM transactions WHERE date >= ? AND date < ?`,
		formatDate(ym.Start()), formatDate(ym.End())).Scan(&income, &expenses, &flow.Count)
	if err != nil {
		return MonthFlow{}, fmt.Errorf("month flow %s: %w", ym.Key(), err)
	}
	flow.Income = core.FromCents(income)
	flow.Expenses = core.FromCents(expenses)
	return flow, nil
}

// TotalSpent sums the expenses of ym, optionally narrowed to one category or
// account.
func (q *Queries) TotalSpent(ctx context.Context, ym core.YearMonth, categoryID, accountID *int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(-amount_cents), 0) FROM transactions
		WHERE date >= ? AND date < ? AND amount_cents < 0`
	args := []any{formatDate(ym.Start()), formatDate(ym.End())}
	if categoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *categoryID)
	}
	if accountID != nil {
		query += ` AND account_id = ?`
		args = append(args, *accountID)
	}

	var cents int64
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&cents); err != nil {
		return decimal.Zero, fmt.Errorf("total spent: %w", err)
	}
	return core.FromCents(cents), nil
}

// DaySpend is the expense total of one calendar day.
type DaySpend struct {
	Day    int
	Amount decimal.Decimal
	Count  int
}

// DailySpending returns one entry per day of ym that has expenses.
func (q *Queries) DailySpending(ctx context.Context, ym core.YearMonth) ([]DaySpend, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT date, SUM(-amount_cents), COUNT(*) FROM transactions
		WHERE date >= ? AND date < ? AND amount_cents < 0
		GROUP BY date ORDER BY date`,
		formatDate(ym.Start()), formatDate(ym.End()))
	if err != nil {
		return nil, fmt.Errorf("daily spending: %w", err)
	}
	defer rows.Close()

	var out []DaySpend
	for rows.Next() {
		var (
			date  string
			cents int64
			ds    DaySpend
		)
		if err := rows.Scan(&date, &cents, &ds.Count); err != nil {
			return nil, fmt.Errorf("scan daily spending: %w", err)
		}
		d, err := parseDate(date)
		if err != nil {
			return nil, fmt.Errorf("parse daily spending date: %w", err)
		}
		ds.Day = d.Day()
		ds.Amount = core.FromCents(cents)
		out = append(out, ds)
	}
	return out, rows.Err()
}

// InsertTransaction stores tx with its amount rounded to cents.
func (q *Queries) InsertTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	tx.Date = core.DateOnly(tx.Date)
	tx.Amount = core.RoundAmount(tx.Amount)
	tx.CreatedAt = q.now().UTC()
	tx.UpdatedAt = nil

	res, err := q.db.ExecContext(ctx,
		`INSERT INTO transactions (date, description, amount_cents, notes, is_adjustment,
			category_id, account_id, user_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		formatDate(tx.Date), strings.TrimSpace(tx.Description), core.ToCents(tx.Amount), tx.Notes, tx.IsAdjustment,
		tx.CategoryID, tx.AccountID, tx.UserID, formatTimestamp(tx.CreatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	if tx.ID, err = res.LastInsertId(); err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}

	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", tx.ID,
		"date", formatDate(tx.Date),
		"amount_cents", core.ToCents(tx.Amount),
		"account_id", tx.AccountID,
		"category_id", tx.CategoryID)
	return tx, nil
}

// UpdateTransaction rewrites every editable column and stamps updated_at.
func (q *Queries) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	now := q.now().UTC()
	tx.Date = core.DateOnly(tx.Date)
	tx.Amount = core.RoundAmount(tx.Amount)
	tx.UpdatedAt = &now

	res, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET date = ?, description = ?, amount_cents = ?, notes = ?,
			is_adjustment = ?, category_id = ?, account_id = ?, updated_at = ?
		WHERE id = ?`,
		formatDate(tx.Date), strings.TrimSpace(tx.Description), core.ToCents(tx.Amount), tx.Notes,
		tx.IsAdjustment, tx.CategoryID, tx.AccountID, nullTimestamp(tx.UpdatedAt), tx.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", tx.ID, err)
	}
	return tx, nil
}

func (q *Queries) SetTransactionCategory(ctx context.Context, id, categoryID int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE transactions SET category_id = ?, updated_at = ? WHERE id = ?`,
		categoryID, formatTimestamp(q.now()), id)
	if err != nil {
		return fmt.Errorf("recategorize transaction %d: %w", id, err)
	}
	return affectedOrNotFound(res)
}

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// CategoryChange moves one transaction to another category.
type CategoryChange struct {
	TransactionID int64
	CategoryID    int64
}

// Recategorize applies every change in a single database transaction.
func (s *Store) Recategorize(ctx context.Context, changes []CategoryChange) error {
	return s.InTx(ctx, func(q *Queries) error {
		for _, c := range changes {
			if err := q.SetTransactionCategory(ctx, c.TransactionID, c.CategoryID); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertTransactions stores the batch atomically: either every row lands or
// none does.
func (s *Store) InsertTransactions(ctx context.Context, txs []core.Transaction) ([]core.Transaction, error) {
	created := make([]core.Transaction, 0, len(txs))
	err := s.InTx(ctx, func(q *Queries) error {
		for _, tx := range txs {
			saved, err := q.InsertTransaction(ctx, tx)
			if err != nil {
				return err
			}
			created = append(created, saved)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
