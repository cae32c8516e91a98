package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

const (
	dashboardTopCategories = 5
	dashboardRecent        = 10
	dashboardTopExpenses   = 5
)

// Dashboard is the one-month overview.
type Dashboard struct {
	Year               int                   `json:"year"`
	Month              int                   `json:"month"`
	MonthName          string                `json:"month_name"`
	TotalIncome        decimal.Decimal       `json:"total_income"`
	TotalExpenses      decimal.Decimal       `json:"total_expenses"`
	NetChange          decimal.Decimal       `json:"net_change"`
	Pacing             core.Pacing           `json:"pacing"`
	TopCategories      []core.CategoryPacing `json:"top_categories"`
	OverBudget         []core.CategoryPacing `json:"over_budget"`
	RecentTransactions []core.Transaction    `json:"recent_transactions"`
	TopExpenses        []core.Transaction    `json:"top_expenses"`
	IsLocked           bool                  `json:"is_locked"`
	UncategorizedCount int                   `json:"uncategorized_count"`
}

type DashboardService struct {
	store      *storage.Store
	budgets    *BudgetService
	locking    *LockingService
	categories *CategoryService
	clock      core.Clock
}

func NewDashboardService(store *storage.Store, budgets *BudgetService, locking *LockingService, categories *CategoryService, clock core.Clock) *DashboardService {
	if clock == nil {
		clock = core.SystemClock
	}
	return &DashboardService{store: store, budgets: budgets, locking: locking, categories: categories, clock: clock}
}

// CurrentMonth is the month the clock is in.
func (s *DashboardService) CurrentMonth() core.YearMonth {
	return core.YearMonthOf(s.clock.Now())
}

// Get assembles the dashboard of ym. The independent reads run
// concurrently; the first failure cancels the rest.
func (s *DashboardService) Get(ctx context.Context, ym core.YearMonth) (Dashboard, error) {
	d := Dashboard{Year: ym.Year, Month: ym.Month, MonthName: ym.String()}

	var (
		pacing core.MonthPacing
		flow   storage.MonthFlow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pacing, err = s.budgets.Pacing(gctx, ym)
		return err
	})
	g.Go(func() error {
		var err error
		flow, err = s.store.MonthFlow(gctx, ym)
		return err
	})
	g.Go(func() error {
		var err error
		d.RecentTransactions, err = s.store.RecentTransactions(gctx, ym, dashboardRecent)
		return err
	})
	g.Go(func() error {
		var err error
		d.TopExpenses, err = s.store.TopExpenses(gctx, ym, dashboardTopExpenses)
		return err
	})
	g.Go(func() error {
		var err error
		d.IsLocked, err = s.locking.IsLocked(gctx, ym)
		return err
	})
	g.Go(func() error {
		id, found, err := s.categories.DefaultCategoryID(gctx)
		if err != nil || !found {
			return err
		}
		d.UncategorizedCount, err = s.store.CountTransactionsByCategory(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("dashboard %s: %w", ym.Key(), err)
	}

	d.TotalIncome = flow.Income
	d.TotalExpenses = flow.Expenses
	d.NetChange = flow.Income.Sub(flow.Expenses)
	d.Pacing = pacing.Totals
	d.TopCategories = topBySpent(pacing.Categories, dashboardTopCategories)
	d.OverBudget = pacing.OverBudget()
	return d, nil
}

func topBySpent(lines []core.CategoryPacing, n int) []core.CategoryPacing {
	sorted := make([]core.CategoryPacing, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Spent.GreaterThan(sorted[j].Spent)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
