package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Date:        NewDate(2024, 1, 15),
		Description: "Coffee",
		Amount:      dec("-4.50"),
		CategoryID:  1,
		AccountID:   1,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrInvalidDate},
		{"year out of range", func(tx *Transaction) { tx.Date = NewDate(1999, 12, 31) }, ErrInvalidYearMonth},
		{"blank description", func(tx *Transaction) { tx.Description = "   " }, ErrEmptyDescription},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 501) }, ErrFieldTooLong},
		{"long notes", func(tx *Transaction) { tx.Notes = strings.Repeat("x", 1001) }, ErrFieldTooLong},
		{"no category", func(tx *Transaction) { tx.CategoryID = 0 }, ErrMissingCategory},
		{"no account", func(tx *Transaction) { tx.AccountID = 0 }, ErrMissingAccount},
	}
	for _, tc := range cases {
		tx := good
		tc.mutate(&tx)
		if err := tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	if err := (MonthlyBudget{Year: 2024, Month: 3, CategoryID: 2, Amount: dec("0")}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (MonthlyBudget{Year: 2024, Month: 3, CategoryID: 2, Amount: dec("-1")}).Validate(); !errors.Is(err, ErrNegativeBudget) {
		t.Fatalf("expected ErrNegativeBudget, got %v", err)
	}
	if err := (MonthlyBudget{Year: 2024, Month: 13, CategoryID: 2}).Validate(); !errors.Is(err, ErrInvalidYearMonth) {
		t.Fatalf("expected ErrInvalidYearMonth, got %v", err)
	}
}

func TestRuleValidate(t *testing.T) {
	if err := (Rule{ContainsText: "netflix", CategoryID: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Rule{ContainsText: " ", CategoryID: 1}).Validate(); !errors.Is(err, ErrEmptyRuleText) {
		t.Fatalf("expected ErrEmptyRuleText, got %v", err)
	}
	if err := (Rule{ContainsText: strings.Repeat("a", 201), CategoryID: 1}).Validate(); !errors.Is(err, ErrFieldTooLong) {
		t.Fatalf("expected ErrFieldTooLong, got %v", err)
	}
}

func TestAccountAndCategoryValidate(t *testing.T) {
	if err := (Account{Name: "Main", Type: "Checking"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Account{Name: "Main"}).Validate(); !errors.Is(err, ErrEmptyAccountType) {
		t.Fatalf("expected ErrEmptyAccountType, got %v", err)
	}
	if err := (Category{Name: ""}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	b := time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)
	if !SameDay(a, b) {
		t.Fatalf("expected same day")
	}
	if SameDay(a, a.AddDate(0, 0, 1)) {
		t.Fatalf("expected different days")
	}
	if !DateOnly(b).Equal(NewDate(2024, 1, 15)) {
		t.Fatalf("DateOnly dropped the wrong part: %v", DateOnly(b))
	}
}
