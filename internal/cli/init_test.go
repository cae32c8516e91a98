package cli

import (
	"context"
	"path/filepath"
	"testing"

	"budgetmanager/internal/config"
	applog "budgetmanager/internal/log"
)

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, applog.ComponentWorker)
	if logger.Component() != applog.ComponentWorker {
		t.Errorf("Component() = %q", logger.Component())
	}
	if !logger.Enabled(context.Background(), -4) {
		t.Error("debug level not enabled")
	}
}

func TestOpenStoreSeeds(t *testing.T) {
	logger := applog.New(applog.DefaultConfig())
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "budget.db")

	store := OpenStore(ctx, logger, path, true)
	accounts, err := store.ListAccounts(ctx, false)
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("seeded %d accounts, want 2", len(accounts))
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopening an already seeded database leaves it as it is.
	store = OpenStore(ctx, logger, path, true)
	defer store.Close()
	accounts, err = store.ListAccounts(ctx, false)
	if err != nil {
		t.Fatalf("ListAccounts() error = %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("reseed left %d accounts, want 2", len(accounts))
	}
}
