package core

import (
	"errors"
	"testing"
)

func TestNewYearMonth(t *testing.T) {
	cases := []struct {
		year, month int
		ok          bool
	}{
		{2024, 1, true},
		{2000, 12, true},
		{2100, 6, true},
		{1999, 12, false},
		{2101, 1, false},
		{2024, 0, false},
		{2024, 13, false},
	}
	for _, tc := range cases {
		_, err := NewYearMonth(tc.year, tc.month)
		if tc.ok && err != nil {
			t.Fatalf("%d-%d expected ok, got %v", tc.year, tc.month, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidYearMonth) {
			t.Fatalf("%d-%d expected ErrInvalidYearMonth, got %v", tc.year, tc.month, err)
		}
	}
}

func TestYearMonthNavigation(t *testing.T) {
	jan := YearMonth{Year: 2024, Month: 1}
	if got := jan.Previous(); got != (YearMonth{Year: 2023, Month: 12}) {
		t.Fatalf("Previous of Jan 2024 expected Dec 2023, got %v", got)
	}
	december := YearMonth{Year: 2023, Month: 12}
	if got := december.Next(); got != jan {
		t.Fatalf("Next of Dec 2023 expected Jan 2024, got %v", got)
	}
	if got := (YearMonth{Year: 2024, Month: 2}).Days(); got != 29 {
		t.Fatalf("Feb 2024 expected 29 days, got %d", got)
	}
	if got := (YearMonth{Year: 2023, Month: 2}).Days(); got != 28 {
		t.Fatalf("Feb 2023 expected 28 days, got %d", got)
	}
	if !jan.End().Equal(NewDate(2024, 2, 1)) {
		t.Fatalf("End expected Feb 1, got %v", jan.End())
	}
	if !jan.Contains(NewDate(2024, 1, 31)) || jan.Contains(NewDate(2024, 2, 1)) {
		t.Fatalf("Contains boundary check failed")
	}
}

func TestYearMonthLabels(t *testing.T) {
	ym := YearMonth{Year: 2024, Month: 3}
	if ym.String() != "March 2024" {
		t.Fatalf("unexpected String %q", ym.String())
	}
	if ym.Short() != "Mar 2024" {
		t.Fatalf("unexpected Short %q", ym.Short())
	}
	if ym.Key() != "2024-03" {
		t.Fatalf("unexpected Key %q", ym.Key())
	}
}
