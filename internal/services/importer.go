package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"budgetmanager/internal/cache"
	"budgetmanager/internal/core"
	"budgetmanager/internal/csvimport"
	"budgetmanager/internal/storage"
)

// RowStatus classifies a previewed CSV row.
type RowStatus string

const (
	RowOK        RowStatus = "OK"
	RowDuplicate RowStatus = "Duplicate"
	RowInvalid   RowStatus = "Invalid"
)

// ImportRow is one parsed CSV row with its suggested category.
type ImportRow struct {
	Row             int             `json:"row"`
	Date            *time.Time      `json:"date,omitempty"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	CategoryID      int64           `json:"category_id"`
	CategoryName    string          `json:"category_name"`
	SuggestedByRule bool            `json:"suggested_by_rule"`
	Status          RowStatus       `json:"status"`
	Errors          []string        `json:"errors,omitempty"`
}

// ImportPreview is a parsed file waiting to be committed under Token.
type ImportPreview struct {
	Token         string      `json:"token"`
	AccountID     int64       `json:"account_id"`
	Rows          []ImportRow `json:"rows"`
	TotalRows     int         `json:"total_rows"`
	ValidRows     int         `json:"valid_rows"`
	DuplicateRows int         `json:"duplicate_rows"`
	InvalidRows   int         `json:"invalid_rows"`
}

type ImportResult struct {
	Result
	Imported int `json:"imported"`
	Failed   int `json:"failed"`
}

// ImportService turns bank CSV exports into transactions in two steps: a
// preview that is staged in memory, then a commit of the selected rows.
type ImportService struct {
	store      *storage.Store
	activity   *ActivityLogger
	rules      *RuleService
	categories *CategoryService
	locking    *LockingService
	budgets    *BudgetService
	previews   cache.Cache[*ImportPreview]
}

func NewImportService(
	store *storage.Store,
	activity *ActivityLogger,
	rules *RuleService,
	categories *CategoryService,
	locking *LockingService,
	budgets *BudgetService,
	previews cache.Cache[*ImportPreview],
) *ImportService {
	return &ImportService{
		store:      store,
		activity:   activity,
		rules:      rules,
		categories: categories,
		locking:    locking,
		budgets:    budgets,
		previews:   previews,
	}
}

// IsDuplicate reports whether the account already holds a transaction on
// the same day with the same rounded amount and normalized description.
func (s *ImportService) IsDuplicate(ctx context.Context, date time.Time, amount decimal.Decimal, description string, accountID int64) (bool, error) {
	existing, err := s.store.TransactionsOn(ctx, date, accountID)
	if err != nil {
		return false, err
	}
	return core.IsDuplicate(date, amount, description, accountID, existing), nil
}

// previewContext caches the lookups shared by every row of one file.
type previewContext struct {
	rules        []core.Rule
	byName       map[string]core.Category
	byID         map[int64]core.Category
	defaultID    int64
	lockedMonths map[core.YearMonth]bool
}

func (s *ImportService) newPreviewContext(ctx context.Context) (*previewContext, error) {
	rules, err := s.rules.List(ctx, true)
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx, false)
	if err != nil {
		return nil, err
	}
	pc := &previewContext{
		rules:        rules,
		byName:       make(map[string]core.Category, len(categories)),
		byID:         make(map[int64]core.Category, len(categories)),
		lockedMonths: make(map[core.YearMonth]bool),
	}
	for _, c := range categories {
		pc.byName[strings.ToLower(c.Name)] = c
		pc.byID[c.ID] = c
		if c.Name == core.DefaultCategoryName {
			pc.defaultID = c.ID
		}
	}
	return pc, nil
}

func (s *ImportService) isLocked(ctx context.Context, pc *previewContext, ym core.YearMonth) (bool, error) {
	if locked, ok := pc.lockedMonths[ym]; ok {
		return locked, nil
	}
	locked, err := s.locking.IsLocked(ctx, ym)
	if err != nil {
		return false, err
	}
	pc.lockedMonths[ym] = locked
	return locked, nil
}

// Preview parses the CSV in r for accountID and stages the result. Bad rows
// are marked Invalid with their reasons; the rest of the file still parses.
func (s *ImportService) Preview(ctx context.Context, r io.Reader, accountID int64) (*ImportPreview, error) {
	if _, err := s.store.GetAccount(ctx, accountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, invalid(core.ErrMissingAccount)
		}
		return nil, err
	}

	records, err := csvimport.Read(r)
	if err != nil {
		return nil, invalid(err)
	}

	pc, err := s.newPreviewContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare import: %w", err)
	}

	preview := &ImportPreview{
		Token:     uuid.NewString(),
		AccountID: accountID,
		Rows:      make([]ImportRow, 0, len(records)),
	}
	for _, rec := range records {
		row, err := s.previewRow(ctx, pc, rec, accountID)
		if err != nil {
			return nil, fmt.Errorf("preview row %d: %w", rec.Row, err)
		}
		preview.Rows = append(preview.Rows, row)
		switch row.Status {
		case RowOK:
			preview.ValidRows++
		case RowDuplicate:
			preview.DuplicateRows++
		case RowInvalid:
			preview.InvalidRows++
		}
	}
	preview.TotalRows = len(preview.Rows)

	s.previews.Set(preview.Token, preview)
	slog.InfoContext(ctx, "Import preview staged",
		"token", preview.Token,
		"account_id", accountID,
		"total", preview.TotalRows,
		"valid", preview.ValidRows,
		"duplicates", preview.DuplicateRows,
		"invalid", preview.InvalidRows)
	return preview, nil
}

func (s *ImportService) previewRow(ctx context.Context, pc *previewContext, rec csvimport.Record, accountID int64) (ImportRow, error) {
	row := ImportRow{Row: rec.Row, Description: rec.Description}
	if rec.Err != nil {
		row.Status = RowInvalid
		row.Errors = append(row.Errors, fmt.Sprintf("Error parsing row: %s", rec.Err))
		return row, nil
	}

	date, err := csvimport.ParseDate(rec.Date)
	if err == nil {
		_, err = core.NewYearMonth(date.Year(), int(date.Month()))
	}
	if err != nil {
		row.Errors = append(row.Errors, fmt.Sprintf("Invalid date format: %s", rec.Date))
	} else {
		row.Date = &date
	}

	if strings.TrimSpace(rec.Description) == "" {
		row.Errors = append(row.Errors, "Description is required")
	}

	if amount, err := core.ParseAmount(rec.Amount); err != nil {
		row.Errors = append(row.Errors, fmt.Sprintf("Invalid amount format: %s", rec.Amount))
	} else {
		row.Amount = amount
	}

	s.categorize(pc, &row, rec.Category)

	if len(row.Errors) > 0 {
		row.Status = RowInvalid
		return row, nil
	}

	duplicate, err := s.IsDuplicate(ctx, date, row.Amount, row.Description, accountID)
	if err != nil {
		return row, err
	}
	ym := core.YearMonthOf(date)
	locked, err := s.isLocked(ctx, pc, ym)
	if err != nil {
		return row, err
	}

	switch {
	case duplicate:
		row.Status = RowDuplicate
	case locked:
		row.Status = RowInvalid
		row.Errors = append(row.Errors, fmt.Sprintf("Month %s is locked", ym.Short()))
	default:
		row.Status = RowOK
	}
	return row, nil
}

// categorize prefers a category named in the file, then a rule match, then
// the default category.
func (s *ImportService) categorize(pc *previewContext, row *ImportRow, named string) {
	if named = strings.TrimSpace(named); named != "" {
		if c, ok := pc.byName[strings.ToLower(named)]; ok {
			row.CategoryID = c.ID
			row.CategoryName = c.Name
			return
		}
	}
	if rule, ok := core.MatchRule(row.Description, pc.rules); ok {
		row.CategoryID = rule.CategoryID
		row.CategoryName = rule.CategoryName
		if c, ok := pc.byID[rule.CategoryID]; ok {
			row.CategoryName = c.Name
		}
		row.SuggestedByRule = true
		return
	}
	row.CategoryID = pc.defaultID
	row.CategoryName = core.DefaultCategoryName
}

// GetPreview returns a staged preview without consuming it.
func (s *ImportService) GetPreview(token string) (*ImportPreview, bool) {
	return s.previews.Get(token)
}

// Commit imports the OK rows of a staged preview. When rows is non-empty
// only those row numbers are considered. Rows whose month was locked after
// the preview count as failures. The preview is consumed unless the
// commit fails.
func (s *ImportService) Commit(ctx context.Context, token string, rows []int, actor string) (_ ImportResult, err error) {
	preview, found := s.previews.Take(token)
	if !found {
		return ImportResult{}, fmt.Errorf("import preview %s: %w", token, ErrNotFound)
	}
	// A failed commit leaves the preview staged for a retry.
	defer func() {
		if err != nil {
			s.previews.Set(token, preview)
		}
	}()

	selected := make(map[int]bool, len(rows))
	for _, n := range rows {
		selected[n] = true
	}

	pc := &previewContext{lockedMonths: make(map[core.YearMonth]bool)}
	var (
		txs    []core.Transaction
		failed int
		months = make(map[core.YearMonth]bool)
	)
	for _, row := range preview.Rows {
		if row.Status != RowOK || (len(selected) > 0 && !selected[row.Row]) {
			continue
		}
		tx := core.Transaction{
			Date:        *row.Date,
			Description: row.Description,
			Amount:      row.Amount,
			CategoryID:  row.CategoryID,
			AccountID:   preview.AccountID,
			UserID:      actor,
		}
		if err := tx.Validate(); err != nil {
			failed++
			continue
		}
		ym := core.YearMonthOf(tx.Date)
		locked, err := s.isLocked(ctx, pc, ym)
		if err != nil {
			return ImportResult{}, err
		}
		if locked {
			failed++
			continue
		}
		txs = append(txs, tx)
		months[ym] = true
	}

	created, err := s.store.InsertTransactions(ctx, txs)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import transactions: %w", mapReferenceError(err))
	}
	for ym := range months {
		s.budgets.Invalidate(ym)
	}

	result := ImportResult{Imported: len(created), Failed: failed}
	if failed == 0 {
		result.Result = ok(fmt.Sprintf("Successfully imported %d transactions.", result.Imported))
	} else {
		result.Result = fail(fmt.Sprintf("Imported %d transactions with %d failures.", result.Imported, failed))
	}

	slog.InfoContext(ctx, "Import committed",
		"token", token, "account_id", preview.AccountID, "imported", result.Imported, "failed", failed)
	s.activity.Record(ctx, Entry{
		EntityName:  EntityTransaction,
		Action:      ActionImport,
		Description: fmt.Sprintf("Imported %d transactions from CSV (Account: %d)", result.Imported, preview.AccountID),
		NewValues: map[string]any{
			"account_id":     preview.AccountID,
			"imported_count": result.Imported,
			"failed_count":   failed,
		},
		Actor: actor,
	})
	return result, nil
}
