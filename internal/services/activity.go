package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"budgetmanager/internal/amqp"
	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

// Entity names recorded in the activity log.
const (
	EntityAccount     = "Account"
	EntityCategory    = "Category"
	EntityTransaction = "Transaction"
	EntityBudget      = "MonthlyBudget"
	EntityRule        = "CategorizationRule"
	EntityLockedMonth = "LockedMonth"
)

// Actions recorded in the activity log.
const (
	ActionCreate         = "Create"
	ActionUpdate         = "Update"
	ActionDelete         = "Delete"
	ActionCopy           = "Copy"
	ActionReorder        = "Reorder"
	ActionBulkCategorize = "BulkCategorize"
	ActionImport         = "Import"
	ActionLock           = "Lock"
	ActionUnlock         = "Unlock"
)

// ActivityStore is the persistence the logger needs.
type ActivityStore interface {
	InsertActivity(ctx context.Context, e core.ActivityEntry) (core.ActivityEntry, error)
	ListActivity(ctx context.Context, page, pageSize int) ([]core.ActivityEntry, error)
	ListActivityForEntity(ctx context.Context, entityName string, entityID int64) ([]core.ActivityEntry, error)
	CountActivity(ctx context.Context) (int, error)
}

// EventPublisher announces new activity entries to the mirror worker.
type EventPublisher interface {
	PublishActivity(ctx context.Context, event *amqp.ActivityEvent) error
}

// Entry is one activity record before persistence. OldValues and NewValues
// are serialized to JSON when non-nil.
type Entry struct {
	EntityName  string
	EntityID    *int64
	Action      string
	Description string
	OldValues   any
	NewValues   any
	Actor       string
}

// ActivityLogger writes the append-only audit trail.
type ActivityLogger struct {
	store     ActivityStore
	publisher EventPublisher
}

func NewActivityLogger(store ActivityStore, publisher EventPublisher) *ActivityLogger {
	return &ActivityLogger{store: store, publisher: publisher}
}

// Log persists the entry, then publishes its event. Publishing failures are
// logged and do not fail the call.
func (l *ActivityLogger) Log(ctx context.Context, e Entry) (core.ActivityEntry, error) {
	oldValues, err := marshalValues(e.OldValues)
	if err != nil {
		return core.ActivityEntry{}, fmt.Errorf("encode old values: %w", err)
	}
	newValues, err := marshalValues(e.NewValues)
	if err != nil {
		return core.ActivityEntry{}, fmt.Errorf("encode new values: %w", err)
	}

	saved, err := l.store.InsertActivity(ctx, core.ActivityEntry{
		EntityName:  e.EntityName,
		EntityID:    e.EntityID,
		Action:      e.Action,
		Description: e.Description,
		OldValues:   oldValues,
		NewValues:   newValues,
		Actor:       e.Actor,
	})
	if err != nil {
		return core.ActivityEntry{}, fmt.Errorf("save activity: %w", err)
	}

	if err := l.publish(ctx, saved); err != nil {
		slog.ErrorContext(ctx, "Failed to publish activity event",
			"activity_id", saved.ID, "error", err)
	}
	return saved, nil
}

// Record is Log for callers whose mutation has already been committed: a
// failure is logged and swallowed.
func (l *ActivityLogger) Record(ctx context.Context, e Entry) {
	if _, err := l.Log(ctx, e); err != nil {
		slog.ErrorContext(ctx, "Failed to record activity",
			"entity", e.EntityName, "action", e.Action, "error", err)
	}
}

func (l *ActivityLogger) publish(ctx context.Context, saved core.ActivityEntry) error {
	if l.publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping activity event")
		return nil
	}
	return l.publisher.PublishActivity(ctx, amqp.NewActivityEvent(saved.ID, saved.EntityName, saved.Action))
}

// List returns one page of entries, newest first. Page numbers start at 1.
func (l *ActivityLogger) List(ctx context.Context, page, pageSize int) ([]core.ActivityEntry, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = storage.DefaultPageSize
	}
	entries, err := l.store.ListActivity(ctx, page, pageSize)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}

func (l *ActivityLogger) ForEntity(ctx context.Context, entityName string, entityID int64) ([]core.ActivityEntry, error) {
	entries, err := l.store.ListActivityForEntity(ctx, entityName, entityID)
	if err != nil {
		return nil, fmt.Errorf("list activity for %s %d: %w", entityName, entityID, err)
	}
	return entries, nil
}

func (l *ActivityLogger) Count(ctx context.Context) (int, error) {
	n, err := l.store.CountActivity(ctx)
	if err != nil {
		return 0, fmt.Errorf("count activity: %w", err)
	}
	return n, nil
}

func marshalValues(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func idPtr(id int64) *int64 {
	return &id
}
