package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Clock supplies the current time to pacing computations.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a plain function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Pacing is the prorated view of a budget against spend for one month.
type Pacing struct {
	Budget           decimal.Decimal `json:"budget"`
	Spent            decimal.Decimal `json:"spent"`
	Remaining        decimal.Decimal `json:"remaining"`
	ExpectedToDate   decimal.Decimal `json:"expected_to_date"`
	SafeToSpendToday decimal.Decimal `json:"safe_to_spend_today"`
	PercentUsed      decimal.Decimal `json:"percent_used"`
	Status           BudgetStatus    `json:"status"`
	DaysInMonth      int             `json:"days_in_month"`
	CurrentDay       int             `json:"current_day"`
	RemainingDays    int             `json:"remaining_days"`
}

// PacingLine is the raw input for one category.
type PacingLine struct {
	CategoryID   int64
	CategoryName string
	Budget       decimal.Decimal
	Spent        decimal.Decimal
}

type CategoryPacing struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	Pacing
}

// MonthPacing aggregates every category line of a month.
type MonthPacing struct {
	Year       int              `json:"year"`
	Month      int              `json:"month"`
	Totals     Pacing           `json:"totals"`
	Categories []CategoryPacing `json:"categories"`
}

// CurrentDayIn returns today's day of month when now falls in ym, and the
// last day of ym otherwise. Past and future months are treated as complete.
func CurrentDayIn(ym YearMonth, now time.Time) int {
	if ym.Contains(now) {
		return now.Day()
	}
	return ym.Days()
}

// ComputePacing derives remaining, expected-to-date, safe-to-spend and the
// status for one budget/spent pair.
func ComputePacing(ym YearMonth, budget, spent decimal.Decimal, now time.Time) Pacing {
	days := ym.Days()
	currentDay := CurrentDayIn(ym, now)
	remainingDays := days - currentDay + 1

	remaining := budget.Sub(spent)
	expected := budget.Mul(decimal.NewFromInt(int64(currentDay))).Div(decimal.NewFromInt(int64(days)))

	safe := decimal.Zero
	if remainingDays > 0 {
		safe = decimal.Max(decimal.Zero, remaining.Div(decimal.NewFromInt(int64(remainingDays))))
	}

	percent := decimal.Zero
	if budget.IsPositive() {
		percent = spent.Div(budget).Mul(hundred)
	}

	return Pacing{
		Budget:           budget,
		Spent:            spent,
		Remaining:        remaining,
		ExpectedToDate:   expected,
		SafeToSpendToday: safe,
		PercentUsed:      percent,
		Status:           PacingStatus(budget, spent, expected),
		DaysInMonth:      days,
		CurrentDay:       currentDay,
		RemainingDays:    remainingDays,
	}
}

// PacingStatus applies OVER, then WATCH, then OK. A zero budget is always OK.
func PacingStatus(budget, spent, expected decimal.Decimal) BudgetStatus {
	if !budget.IsPositive() {
		return StatusOK
	}
	if spent.GreaterThan(budget) {
		return StatusOver
	}
	if spent.GreaterThan(expected) {
		return StatusWatch
	}
	return StatusOK
}

// SummarizePacing computes every category line and the month totals with
// the same formulas. Line order is preserved.
func SummarizePacing(ym YearMonth, lines []PacingLine, now time.Time) MonthPacing {
	out := MonthPacing{
		Year:       ym.Year,
		Month:      ym.Month,
		Categories: make([]CategoryPacing, 0, len(lines)),
	}

	totalBudget, totalSpent := decimal.Zero, decimal.Zero
	for _, line := range lines {
		out.Categories = append(out.Categories, CategoryPacing{
			CategoryID:   line.CategoryID,
			CategoryName: line.CategoryName,
			Pacing:       ComputePacing(ym, line.Budget, line.Spent, now),
		})
		totalBudget = totalBudget.Add(line.Budget)
		totalSpent = totalSpent.Add(line.Spent)
	}
	out.Totals = ComputePacing(ym, totalBudget, totalSpent, now)
	return out
}

// OverBudget returns the lines whose status is OVER.
func (m MonthPacing) OverBudget() []CategoryPacing {
	var over []CategoryPacing
	for _, c := range m.Categories {
		if c.Status == StatusOver {
			over = append(over, c)
		}
	}
	return over
}
