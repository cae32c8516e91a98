package services

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

const defaultTopExpenses = 10

type BudgetVsActualLine struct {
	CategoryID   int64           `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Budget       decimal.Decimal `json:"budget"`
	Actual       decimal.Decimal `json:"actual"`
	Variance     decimal.Decimal `json:"variance"`
	PercentUsed  decimal.Decimal `json:"percent_used"`
}

type BudgetVsActualReport struct {
	Year          int                  `json:"year"`
	Month         int                  `json:"month"`
	MonthName     string               `json:"month_name"`
	Categories    []BudgetVsActualLine `json:"categories"`
	TotalBudget   decimal.Decimal      `json:"total_budget"`
	TotalActual   decimal.Decimal      `json:"total_actual"`
	TotalVariance decimal.Decimal      `json:"total_variance"`
}

type MonthTotals struct {
	Year           int                        `json:"year"`
	Month          int                        `json:"month"`
	MonthName      string                     `json:"month_name"`
	TotalIncome    decimal.Decimal            `json:"total_income"`
	TotalExpenses  decimal.Decimal            `json:"total_expenses"`
	NetChange      decimal.Decimal            `json:"net_change"`
	CategoryTotals map[string]decimal.Decimal `json:"category_totals"`
}

type MonthOverMonthReport struct {
	Year       int           `json:"year"`
	Months     []MonthTotals `json:"months"`
	Categories []string      `json:"categories"`
}

type TopExpensesReport struct {
	Year        int                `json:"year"`
	Month       int                `json:"month"`
	MonthName   string             `json:"month_name"`
	TopCount    int                `json:"top_count"`
	Expenses    []core.Transaction `json:"expenses"`
	TotalAmount decimal.Decimal    `json:"total_amount"`
}

type DailySpend struct {
	Day   int             `json:"day"`
	Spent decimal.Decimal `json:"spent"`
	Count int             `json:"count"`
}

type DailySpendingReport struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	MonthName   string          `json:"month_name"`
	Days        []DailySpend    `json:"days"`
	MaxSpend    decimal.Decimal `json:"max_spend"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	DailyTarget decimal.Decimal `json:"daily_target"`
}

// ReportService produces the raw numbers behind the reports.
type ReportService struct {
	store   *storage.Store
	budgets *BudgetService
}

func NewReportService(store *storage.Store, budgets *BudgetService) *ReportService {
	return &ReportService{store: store, budgets: budgets}
}

// BudgetVsActual lists the categories of ym that have a budget or spend.
func (s *ReportService) BudgetVsActual(ctx context.Context, ym core.YearMonth) (BudgetVsActualReport, error) {
	lines, err := s.budgets.Summary(ctx, ym)
	if err != nil {
		return BudgetVsActualReport{}, err
	}

	report := BudgetVsActualReport{
		Year:        ym.Year,
		Month:       ym.Month,
		MonthName:   ym.String(),
		Categories:  []BudgetVsActualLine{},
		TotalBudget: decimal.Zero,
		TotalActual: decimal.Zero,
	}
	for _, l := range lines {
		report.TotalBudget = report.TotalBudget.Add(l.Budget)
		report.TotalActual = report.TotalActual.Add(l.Spent)
		if !l.Budget.IsPositive() && !l.Spent.IsPositive() {
			continue
		}
		report.Categories = append(report.Categories, BudgetVsActualLine{
			CategoryID:   l.CategoryID,
			CategoryName: l.CategoryName,
			Budget:       l.Budget,
			Actual:       l.Spent,
			Variance:     l.Budget.Sub(l.Spent),
			PercentUsed:  l.PercentUsed,
		})
	}
	report.TotalVariance = report.TotalBudget.Sub(report.TotalActual)
	return report, nil
}

// MonthOverMonth reports every month of year that has transactions.
func (s *ReportService) MonthOverMonth(ctx context.Context, year int) (MonthOverMonthReport, error) {
	if _, err := core.NewYearMonth(year, 1); err != nil {
		return MonthOverMonthReport{}, invalid(err)
	}

	report := MonthOverMonthReport{Year: year, Months: []MonthTotals{}, Categories: []string{}}
	seen := make(map[string]bool)
	for m := 1; m <= 12; m++ {
		ym := core.YearMonth{Year: year, Month: m}
		flow, err := s.store.MonthFlow(ctx, ym)
		if err != nil {
			return MonthOverMonthReport{}, err
		}
		if flow.Count == 0 {
			continue
		}
		totals, err := s.store.ExpensesByCategoryName(ctx, ym)
		if err != nil {
			return MonthOverMonthReport{}, err
		}
		for name := range totals {
			if !seen[name] {
				seen[name] = true
				report.Categories = append(report.Categories, name)
			}
		}
		report.Months = append(report.Months, MonthTotals{
			Year:           year,
			Month:          m,
			MonthName:      ym.Short(),
			TotalIncome:    flow.Income,
			TotalExpenses:  flow.Expenses,
			NetChange:      flow.Income.Sub(flow.Expenses),
			CategoryTotals: totals,
		})
	}
	sort.Strings(report.Categories)
	return report, nil
}

// TopExpenses returns the n largest expenses of ym; n defaults to 10.
func (s *ReportService) TopExpenses(ctx context.Context, ym core.YearMonth, n int) (TopExpensesReport, error) {
	if n <= 0 {
		n = defaultTopExpenses
	}
	txs, err := s.store.TopExpenses(ctx, ym, n)
	if err != nil {
		return TopExpensesReport{}, err
	}
	if txs == nil {
		txs = []core.Transaction{}
	}

	total := decimal.Zero
	for _, tx := range txs {
		total = total.Sub(tx.Amount)
	}
	return TopExpensesReport{
		Year:        ym.Year,
		Month:       ym.Month,
		MonthName:   ym.String(),
		TopCount:    n,
		Expenses:    txs,
		TotalAmount: total,
	}, nil
}

// DailySpending returns one entry per calendar day of ym together with the
// even daily share of the month's total budget.
func (s *ReportService) DailySpending(ctx context.Context, ym core.YearMonth) (DailySpendingReport, error) {
	spends, err := s.store.DailySpending(ctx, ym)
	if err != nil {
		return DailySpendingReport{}, err
	}
	budget, err := s.store.TotalBudget(ctx, ym)
	if err != nil {
		return DailySpendingReport{}, err
	}

	days := ym.Days()
	report := DailySpendingReport{
		Year:        ym.Year,
		Month:       ym.Month,
		MonthName:   ym.String(),
		Days:        make([]DailySpend, days),
		MaxSpend:    decimal.Zero,
		TotalSpent:  decimal.Zero,
		DailyTarget: budget.Div(decimal.NewFromInt(int64(days))),
	}
	for i := range report.Days {
		report.Days[i] = DailySpend{Day: i + 1, Spent: decimal.Zero}
	}
	for _, ds := range spends {
		report.Days[ds.Day-1] = DailySpend{Day: ds.Day, Spent: ds.Amount, Count: ds.Count}
		report.TotalSpent = report.TotalSpent.Add(ds.Amount)
		if ds.Amount.GreaterThan(report.MaxSpend) {
			report.MaxSpend = ds.Amount
		}
	}
	return report, nil
}
