package sheets

import (
	"context"
	"strconv"

	"budgetmanager/internal/core"
)

// Ports for outbound adapters.
type (
	// ActivityWriter appends one audit entry to an external sheet.
	ActivityWriter interface {
		AppendActivity(ctx context.Context, e core.ActivityEntry) (rowRef string, err error)
	}
)

// ActivityHeader is the first row of an audit sheet.
var ActivityHeader = []string{
	"ID", "Timestamp", "Entity", "Entity ID", "Action", "Description", "Actor", "Old Values", "New Values",
}

// ActivityRow renders e in ActivityHeader column order.
func ActivityRow(e core.ActivityEntry) []any {
	entityID := ""
	if e.EntityID != nil {
		entityID = strconv.FormatInt(*e.EntityID, 10)
	}
	return []any{
		e.ID,
		e.Timestamp.UTC().Format("2006-01-02 15:04:05"),
		e.EntityName,
		entityID,
		e.Action,
		e.Description,
		e.Actor,
		e.OldValues,
		e.NewValues,
	}
}
