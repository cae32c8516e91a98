package storage

import (
	"context"
	"fmt"
	"log/slog"

	"budgetmanager/internal/core"
)

const lockColumns = `id, year, month, locked_at, locked_by`

func scanLock(row scanner) (core.LockedMonth, error) {
	var (
		l        core.LockedMonth
		lockedAt string
	)
	if err := row.Scan(&l.ID, &l.Year, &l.Month, &lockedAt, &l.LockedBy); err != nil {
		return core.LockedMonth{}, err
	}
	t, err := parseTimestamp(lockedAt)
	if err != nil {
		return core.LockedMonth{}, fmt.Errorf("parse locked_at: %w", err)
	}
	l.LockedAt = t
	return l, nil
}

func (q *Queries) IsMonthLocked(ctx context.Context, ym core.YearMonth) (bool, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM locked_months WHERE year = ? AND month = ?`, ym.Year, ym.Month).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check lock %s: %w", ym.Key(), err)
	}
	return n > 0, nil
}

func (q *Queries) GetLockedMonth(ctx context.Context, ym core.YearMonth) (core.LockedMonth, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+lockColumns+` FROM locked_months WHERE year = ? AND month = ?`, ym.Year, ym.Month)
	l, err := scanLock(row)
	if err != nil {
		return core.LockedMonth{}, fmt.Errorf("get lock %s: %w", ym.Key(), notFound(err))
	}
	return l, nil
}

// ListLockedMonths returns locks newest month first.
func (q *Queries) ListLockedMonths(ctx context.Context) ([]core.LockedMonth, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+lockColumns+` FROM locked_months ORDER BY year DESC, month DESC`)
	if err != nil {
		return nil, fmt.Errorf("list locks: %w", err)
	}
	defer rows.Close()

	var locks []core.LockedMonth
	for rows.Next() {
		l, err := scanLock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lock: %w", err)
		}
		locks = append(locks, l)
	}
	return locks, rows.Err()
}

// InsertLockedMonth fails with ErrConflict when ym is already locked.
func (q *Queries) InsertLockedMonth(ctx context.Context, ym core.YearMonth, lockedBy string) (core.LockedMonth, error) {
	l := core.LockedMonth{Year: ym.Year, Month: ym.Month, LockedAt: q.now().UTC(), LockedBy: lockedBy}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO locked_months (year, month, locked_at, locked_by) VALUES (?, ?, ?, ?)`,
		l.Year, l.Month, formatTimestamp(l.LockedAt), l.LockedBy)
	if err != nil {
		if isUniqueViolation(err) {
			return core.LockedMonth{}, fmt.Errorf("lock %s: %w", ym.Key(), ErrConflict)
		}
		return core.LockedMonth{}, fmt.Errorf("lock %s: %w", ym.Key(), err)
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return core.LockedMonth{}, fmt.Errorf("lock id: %w", err)
	}

	slog.InfoContext(ctx, "Month locked in SQLite", "id", l.ID, "year", l.Year, "month", l.Month)
	return l, nil
}

func (q *Queries) DeleteLockedMonth(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM locked_months WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("unlock %d: %w", id, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("unlock %d: %w", id, err)
	}
	return nil
}
