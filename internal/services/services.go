// Package services implements the budget tracker's use cases on top of the
// SQLite store. Every mutating method writes its own activity entry once the
// mutation has succeeded.
package services

import (
	"errors"
	"fmt"
	"time"

	"budgetmanager/internal/cache"
	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

var (
	// ErrNotFound is returned when an id does not resolve to a row.
	ErrNotFound = storage.ErrNotFound
	// ErrConflict is returned when a unique name or key is already taken.
	ErrConflict = storage.ErrConflict
	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid input")
)

// Result reports a business outcome. A refused operation is a Result with
// Success false and a nil error.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(message string) Result {
	return Result{Success: true, Message: message}
}

func fail(message string) Result {
	return Result{Success: false, Message: message}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalid, err)
}

// Options tunes the caches and the clock shared by the services.
type Options struct {
	Clock            core.Clock
	PacingCacheTTL   time.Duration
	PacingCacheSize  int
	ImportPreviewTTL time.Duration
	ImportCacheSize  int
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = core.SystemClock
	}
	if o.PacingCacheTTL <= 0 {
		o.PacingCacheTTL = 5 * time.Minute
	}
	if o.PacingCacheSize <= 0 {
		o.PacingCacheSize = 64
	}
	if o.ImportPreviewTTL <= 0 {
		o.ImportPreviewTTL = 30 * time.Minute
	}
	if o.ImportCacheSize <= 0 {
		o.ImportCacheSize = 32
	}
	return o
}

// Services bundles every use case over one store.
type Services struct {
	Activity     *ActivityLogger
	Accounts     *AccountService
	Categories   *CategoryService
	Locking      *LockingService
	Transactions *TransactionService
	Rules        *RuleService
	Budgets      *BudgetService
	Import       *ImportService
	Dashboard    *DashboardService
	Reports      *ReportService

	caches *cache.Manager
}

// New wires the services together. publisher may be nil, in which case
// activity entries are only written to the store.
func New(store *storage.Store, publisher EventPublisher, opts Options) *Services {
	opts = opts.withDefaults()

	pacing := cache.NewLRUCache[core.MonthPacing](opts.PacingCacheSize, opts.PacingCacheTTL)
	previews := cache.NewLRUCache[*ImportPreview](opts.ImportCacheSize, opts.ImportPreviewTTL)

	manager := cache.NewManager()
	manager.Register("pacing", pacing)
	manager.Register("import_previews", previews)

	activity := NewActivityLogger(store, publisher)
	locking := NewLockingService(store, activity)
	budgets := NewBudgetService(store, activity, opts.Clock, pacing)
	categories := NewCategoryService(store, activity, budgets)
	transactions := NewTransactionService(store, activity, locking, budgets)
	rules := NewRuleService(store, activity, categories, budgets)

	return &Services{
		Activity:     activity,
		Accounts:     NewAccountService(store, activity),
		Categories:   categories,
		Locking:      locking,
		Transactions: transactions,
		Rules:        rules,
		Budgets:      budgets,
		Import:       NewImportService(store, activity, rules, categories, locking, budgets, previews),
		Dashboard:    NewDashboardService(store, budgets, locking, categories, opts.Clock),
		Reports:      NewReportService(store, budgets),
		caches:       manager,
	}
}

// StartCacheCleanup sweeps expired pacing and preview entries every
// interval until Close is called.
func (s *Services) StartCacheCleanup(interval time.Duration) {
	s.caches.StartCleanup(interval)
}

func (s *Services) Close() {
	s.caches.Stop()
}
