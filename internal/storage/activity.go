package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"budgetmanager/internal/core"
)

const activityColumns = `id, entity_name, entity_id, action, description, old_values, new_values, actor, timestamp, mirrored_at`

func scanActivity(row scanner) (core.ActivityEntry, error) {
	var (
		e        core.ActivityEntry
		entityID sql.NullInt64
		ts       string
		mirrored sql.NullString
	)
	err := row.Scan(&e.ID, &e.EntityName, &entityID, &e.Action, &e.Description,
		&e.OldValues, &e.NewValues, &e.Actor, &ts, &mirrored)
	if err != nil {
		return core.ActivityEntry{}, err
	}
	if entityID.Valid {
		id := entityID.Int64
		e.EntityID = &id
	}
	if e.Timestamp, err = parseTimestamp(ts); err != nil {
		return core.ActivityEntry{}, fmt.Errorf("parse activity timestamp: %w", err)
	}
	if e.MirroredAt, err = parseNullTimestamp(mirrored); err != nil {
		return core.ActivityEntry{}, fmt.Errorf("parse activity mirrored_at: %w", err)
	}
	return e, nil
}

func (q *Queries) queryActivity(ctx context.Context, query string, args ...any) ([]core.ActivityEntry, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []core.ActivityEntry
	for rows.Next() {
		e, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// InsertActivity appends e. A zero Timestamp is replaced with the current time.
func (q *Queries) InsertActivity(ctx context.Context, e core.ActivityEntry) (core.ActivityEntry, error) {
	if e.Timestamp.IsZero() {
		e.Timestamp = q.now().UTC()
	}
	var entityID sql.NullInt64
	if e.EntityID != nil {
		entityID = sql.NullInt64{Int64: *e.EntityID, Valid: true}
	}
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO activity_log (entity_name, entity_id, action, description, old_values, new_values, actor, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.EntityName, entityID, e.Action, e.Description, e.OldValues, e.NewValues, e.Actor, formatTimestamp(e.Timestamp))
	if err != nil {
		return core.ActivityEntry{}, fmt.Errorf("insert activity: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return core.ActivityEntry{}, fmt.Errorf("activity id: %w", err)
	}
	return e, nil
}

func (q *Queries) GetActivity(ctx context.Context, id int64) (core.ActivityEntry, error) {
	e, err := scanActivity(q.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activity_log WHERE id = ?`, id))
	if err != nil {
		return core.ActivityEntry{}, fmt.Errorf("get activity %d: %w", id, notFound(err))
	}
	return e, nil
}

// ListActivity returns one page of entries, newest first.
func (q *Queries) ListActivity(ctx context.Context, page, pageSize int) ([]core.ActivityEntry, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	entries, err := q.queryActivity(ctx,
		`SELECT `+activityColumns+` FROM activity_log ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`,
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}

func (q *Queries) ListActivityForEntity(ctx context.Context, entityName string, entityID int64) ([]core.ActivityEntry, error) {
	entries, err := q.queryActivity(ctx,
		`SELECT `+activityColumns+` FROM activity_log WHERE entity_name = ? AND entity_id = ?
		ORDER BY timestamp DESC, id DESC`,
		entityName, entityID)
	if err != nil {
		return nil, fmt.Errorf("list activity for %s %d: %w", entityName, entityID, err)
	}
	return entries, nil
}

func (q *Queries) CountActivity(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_log`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count activity: %w", err)
	}
	return n, nil
}

// UnmirroredActivity returns up to limit entries not yet copied to the
// audit sheet, oldest first.
func (q *Queries) UnmirroredActivity(ctx context.Context, limit int) ([]core.ActivityEntry, error) {
	entries, err := q.queryActivity(ctx,
		`SELECT `+activityColumns+` FROM activity_log WHERE mirrored_at IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("unmirrored activity: %w", err)
	}
	return entries, nil
}

func (q *Queries) MarkActivityMirrored(ctx context.Context, id int64, at time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE activity_log SET mirrored_at = ? WHERE id = ?`, formatTimestamp(at), id)
	if err != nil {
		return fmt.Errorf("mark activity %d mirrored: %w", id, err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("mark activity %d mirrored: %w", id, err)
	}
	return nil
}
