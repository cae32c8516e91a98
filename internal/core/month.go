package core

import (
	"fmt"
	"time"
)

const (
	minYear = 2000
	maxYear = 2100
)

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month int
}

// NewYearMonth validates year in [2000, 2100] and month in [1, 12].
func NewYearMonth(year, month int) (YearMonth, error) {
	if year < minYear || year > maxYear {
		return YearMonth{}, fmt.Errorf("%w: year %d out of range %d-%d", ErrInvalidYearMonth, year, minYear, maxYear)
	}
	if month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("%w: month %d out of range 1-12", ErrInvalidYearMonth, month)
	}
	return YearMonth{Year: year, Month: month}, nil
}

// YearMonthOf returns the month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// Previous returns the month before ym, rolling January back to December.
func (ym YearMonth) Previous() YearMonth {
	if ym.Month == 1 {
		return YearMonth{Year: ym.Year - 1, Month: 12}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// Next returns the month after ym.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == 12 {
		return YearMonth{Year: ym.Year + 1, Month: 1}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// Days returns the number of calendar days in the month.
func (ym YearMonth) Days() int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(ym.Year, time.Month(ym.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Start is the first day of the month.
func (ym YearMonth) Start() time.Time {
	return NewDate(ym.Year, ym.Month, 1)
}

// End is the first day of the following month (exclusive bound).
func (ym YearMonth) End() time.Time {
	return ym.Next().Start()
}

// Contains reports whether t falls inside the month.
func (ym YearMonth) Contains(t time.Time) bool {
	return t.Year() == ym.Year && int(t.Month()) == ym.Month
}

// MonthName is the full English month name, e.g. "January".
func (ym YearMonth) MonthName() string {
	return time.Month(ym.Month).String()
}

// String renders "January 2024".
func (ym YearMonth) String() string {
	return fmt.Sprintf("%s %d", ym.MonthName(), ym.Year)
}

// Short renders "Jan 2024".
func (ym YearMonth) Short() string {
	return ym.Start().Format("Jan 2006")
}

// Key is a stable "2024-01" identifier used for cache keys and sheet rows.
func (ym YearMonth) Key() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}
