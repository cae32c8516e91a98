package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus classifies spend against the prorated budget.
type BudgetStatus string

const (
	StatusOK    BudgetStatus = "OK"
	StatusWatch BudgetStatus = "WATCH"
	StatusOver  BudgetStatus = "OVER"
)

// Well known category names.
const (
	DefaultCategoryName = "Uncategorized"
	OtherCategoryName   = "Other"
)

const (
	maxNameLength        = 100
	maxAccountTypeLength = 50
	maxDescriptionLength = 500
	maxNotesLength       = 1000
	maxRuleTextLength    = 200
)

type (
	Account struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		Type      string    `json:"type"` // Checking, Savings, Credit Card, ...
		IsActive  bool      `json:"is_active"`
		CreatedAt time.Time `json:"created_at"`
	}

	Category struct {
		ID          int64     `json:"id"`
		Name        string    `json:"name"`
		Description string    `json:"description,omitempty"`
		IsActive    bool      `json:"is_active"`
		CreatedAt   time.Time `json:"created_at"`
	}

	// Transaction is a signed money movement. Positive amounts are income,
	// negative amounts are expenses.
	Transaction struct {
		ID           int64           `json:"id"`
		Date         time.Time       `json:"date"`
		Description  string          `json:"description"`
		Amount       decimal.Decimal `json:"amount"`
		Notes        string          `json:"notes,omitempty"`
		IsAdjustment bool            `json:"is_adjustment"`
		CategoryID   int64           `json:"category_id"`
		AccountID    int64           `json:"account_id"`
		UserID       string          `json:"user_id,omitempty"`
		CreatedAt    time.Time       `json:"created_at"`
		UpdatedAt    *time.Time      `json:"updated_at,omitempty"`

		// Populated on reads that join the referenced rows.
		CategoryName string `json:"category_name,omitempty"`
		AccountName  string `json:"account_name,omitempty"`
	}

	MonthlyBudget struct {
		ID           int64           `json:"id"`
		Year         int             `json:"year"`
		Month        int             `json:"month"`
		CategoryID   int64           `json:"category_id"`
		Amount       decimal.Decimal `json:"amount"`
		CreatedAt    time.Time       `json:"created_at"`
		UpdatedAt    *time.Time      `json:"updated_at,omitempty"`
		CategoryName string          `json:"category_name,omitempty"`
	}

	// Rule maps descriptions containing ContainsText to a category.
	// Lower priority values are evaluated first.
	Rule struct {
		ID           int64     `json:"id"`
		Priority     int       `json:"priority"`
		ContainsText string    `json:"contains_text"`
		CategoryID   int64     `json:"category_id"`
		IsActive     bool      `json:"is_active"`
		CreatedAt    time.Time `json:"created_at"`
		CategoryName string    `json:"category_name,omitempty"`
	}

	LockedMonth struct {
		ID       int64     `json:"id"`
		Year     int       `json:"year"`
		Month    int       `json:"month"`
		LockedAt time.Time `json:"locked_at"`
		LockedBy string    `json:"locked_by,omitempty"`
	}

	// ActivityEntry is one append-only audit record.
	ActivityEntry struct {
		ID          int64      `json:"id"`
		EntityName  string     `json:"entity_name"`
		EntityID    *int64     `json:"entity_id,omitempty"`
		Action      string     `json:"action"`
		Description string     `json:"description,omitempty"`
		OldValues   string     `json:"old_values,omitempty"`
		NewValues   string     `json:"new_values,omitempty"`
		Actor       string     `json:"actor,omitempty"`
		Timestamp   time.Time  `json:"timestamp"`
		MirroredAt  *time.Time `json:"mirrored_at,omitempty"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrNegativeBudget   = errors.New("budget amount cannot be negative")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidYearMonth = errors.New("invalid year or month")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrEmptyAccountType = errors.New("empty account type")
	ErrEmptyRuleText    = errors.New("empty rule text")
	ErrMissingCategory  = errors.New("missing category")
	ErrMissingAccount   = errors.New("missing account")
	ErrFieldTooLong     = errors.New("field too long")
)

// NewDate returns the UTC midnight of the given calendar day.
func NewDate(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// DateOnly drops the time of day, keeping the calendar date of t.
func DateOnly(t time.Time) time.Time {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (a Account) Validate() error {
	name := strings.TrimSpace(a.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLength {
		return ErrFieldTooLong
	}
	if strings.TrimSpace(a.Type) == "" {
		return ErrEmptyAccountType
	}
	if len(a.Type) > maxAccountTypeLength {
		return ErrFieldTooLong
	}
	return nil
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > maxNameLength || len(c.Description) > maxDescriptionLength {
		return ErrFieldTooLong
	}
	return nil
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	if _, err := NewYearMonth(t.Date.Year(), int(t.Date.Month())); err != nil {
		return err
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > maxDescriptionLength || len(t.Notes) > maxNotesLength {
		return ErrFieldTooLong
	}
	if t.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if t.AccountID <= 0 {
		return ErrMissingAccount
	}
	return nil
}

func (b MonthlyBudget) Validate() error {
	if _, err := NewYearMonth(b.Year, b.Month); err != nil {
		return err
	}
	if b.CategoryID <= 0 {
		return ErrMissingCategory
	}
	if b.Amount.IsNegative() {
		return ErrNegativeBudget
	}
	return nil
}

func (r Rule) Validate() error {
	text := strings.TrimSpace(r.ContainsText)
	if text == "" {
		return ErrEmptyRuleText
	}
	if len(r.ContainsText) > maxRuleTextLength {
		return ErrFieldTooLong
	}
	if r.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}
