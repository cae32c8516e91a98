package sheets

import (
	"testing"
	"time"

	"budgetmanager/internal/core"
)

func TestActivityRow(t *testing.T) {
	id := int64(42)
	e := core.ActivityEntry{
		ID:          7,
		EntityName:  "Transaction",
		EntityID:    &id,
		Action:      "Create",
		Description: "Created transaction: Coffee ($4.50)",
		NewValues:   `{"amount":"-4.5"}`,
		Actor:       "alex",
		Timestamp:   time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC),
	}

	row := ActivityRow(e)
	if len(row) != len(ActivityHeader) {
		t.Fatalf("row has %d columns, header has %d", len(row), len(ActivityHeader))
	}
	want := []any{int64(7), "2024-03-09 14:05:06", "Transaction", "42", "Create",
		"Created transaction: Coffee ($4.50)", "alex", "", `{"amount":"-4.5"}`}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("column %s = %v, want %v", ActivityHeader[i], row[i], want[i])
		}
	}
}

func TestActivityRowWithoutEntityID(t *testing.T) {
	row := ActivityRow(core.ActivityEntry{ID: 1, EntityName: "MonthlyBudget", Action: "Copy"})
	if row[3] != "" {
		t.Errorf("entity id column = %v, want empty", row[3])
	}
}
