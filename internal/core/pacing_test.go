package core

import (
	"testing"
	"time"
)

var jan2024 = YearMonth{Year: 2024, Month: 1}

func TestComputePacingOverBudget(t *testing.T) {
	p := ComputePacing(jan2024, dec("100"), dec("150"), NewDate(2024, 1, 15))
	if p.Status != StatusOver {
		t.Fatalf("expected OVER, got %s", p.Status)
	}
	if !p.Remaining.Equal(dec("-50")) {
		t.Fatalf("expected remaining -50, got %s", p.Remaining)
	}
	if !p.SafeToSpendToday.IsZero() {
		t.Fatalf("negative remaining must give safe=0, got %s", p.SafeToSpendToday)
	}
	if !p.PercentUsed.Equal(dec("150")) {
		t.Fatalf("expected 150%%, got %s", p.PercentUsed)
	}
}

func TestComputePacingZeroBudget(t *testing.T) {
	p := ComputePacing(jan2024, dec("0"), dec("50"), NewDate(2024, 1, 15))
	if p.Status != StatusOK {
		t.Fatalf("zero budget must be OK, got %s", p.Status)
	}
	if !p.PercentUsed.IsZero() {
		t.Fatalf("zero budget must give 0%%, got %s", p.PercentUsed)
	}
}

func TestComputePacingWatch(t *testing.T) {
	// 310 over 31 days is 10 per day; by the 10th 100 is expected.
	p := ComputePacing(jan2024, dec("310"), dec("120"), NewDate(2024, 1, 10))
	if !p.ExpectedToDate.Equal(dec("100")) {
		t.Fatalf("expected 100 to date, got %s", p.ExpectedToDate)
	}
	if p.Status != StatusWatch {
		t.Fatalf("expected WATCH, got %s", p.Status)
	}
	if p.CurrentDay != 10 || p.RemainingDays != 22 || p.DaysInMonth != 31 {
		t.Fatalf("unexpected day counters %+v", p)
	}
	if !p.SafeToSpendToday.Equal(dec("190").Div(dec("22"))) {
		t.Fatalf("unexpected safe to spend %s", p.SafeToSpendToday)
	}
}

func TestComputePacingOnTrack(t *testing.T) {
	p := ComputePacing(jan2024, dec("310"), dec("100"), NewDate(2024, 1, 10))
	if p.Status != StatusOK {
		t.Fatalf("spend equal to expected must stay OK, got %s", p.Status)
	}
}

func TestComputePacingOtherMonths(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
	}{
		{"past month", NewDate(2024, 3, 5)},
		{"future month", NewDate(2023, 11, 20)},
	}
	for _, tc := range cases {
		p := ComputePacing(jan2024, dec("200"), dec("50"), tc.now)
		if p.CurrentDay != 31 || p.RemainingDays != 1 {
			t.Fatalf("%s: expected full month, got day %d remaining %d", tc.name, p.CurrentDay, p.RemainingDays)
		}
		if !p.ExpectedToDate.Equal(dec("200")) {
			t.Fatalf("%s: expected whole budget to date, got %s", tc.name, p.ExpectedToDate)
		}
		if !p.SafeToSpendToday.Equal(dec("150")) {
			t.Fatalf("%s: expected safe 150, got %s", tc.name, p.SafeToSpendToday)
		}
		if !p.PercentUsed.Equal(dec("25")) {
			t.Fatalf("%s: expected 25%%, got %s", tc.name, p.PercentUsed)
		}
	}
}

func TestSummarizePacing(t *testing.T) {
	lines := []PacingLine{
		{CategoryID: 1, CategoryName: "Dining Out", Budget: dec("100"), Spent: dec("150")},
		{CategoryID: 2, CategoryName: "Groceries", Budget: dec("400"), Spent: dec("100")},
		{CategoryID: 3, CategoryName: "Travel", Budget: dec("0"), Spent: dec("0")},
	}
	m := SummarizePacing(jan2024, lines, NewDate(2024, 2, 1))
	if len(m.Categories) != 3 || m.Categories[0].CategoryName != "Dining Out" {
		t.Fatalf("line order not preserved: %+v", m.Categories)
	}
	if !m.Totals.Budget.Equal(dec("500")) || !m.Totals.Spent.Equal(dec("250")) {
		t.Fatalf("unexpected totals %+v", m.Totals)
	}
	if m.Totals.Status != StatusOK {
		t.Fatalf("expected OK totals, got %s", m.Totals.Status)
	}
	over := m.OverBudget()
	if len(over) != 1 || over[0].CategoryID != 1 {
		t.Fatalf("expected only Dining Out over budget, got %+v", over)
	}
}

func TestClockFunc(t *testing.T) {
	fixed := NewDate(2024, 6, 1)
	var c Clock = ClockFunc(func() time.Time { return fixed })
	if !c.Now().Equal(fixed) {
		t.Fatalf("ClockFunc returned %v", c.Now())
	}
}
