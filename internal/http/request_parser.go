package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

const maxJSONBody = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads a single JSON object into dst. Unknown fields are
// rejected.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// pathID parses a positive int64 route parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return id, nil
}

// pathYearMonth reads the {year} and {month} route parameters.
func pathYearMonth(r *http.Request) (core.YearMonth, error) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		return core.YearMonth{}, core.ErrInvalidYearMonth
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		return core.YearMonth{}, core.ErrInvalidYearMonth
	}
	return core.NewYearMonth(year, month)
}

// queryYearMonth reads ?year=&month=, defaulting each missing part to the
// month containing now.
func queryYearMonth(query url.Values, now time.Time) (core.YearMonth, error) {
	year, month := now.Year(), int(now.Month())
	if v := strings.TrimSpace(query.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return core.YearMonth{}, core.ErrInvalidYearMonth
		}
		year = y
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return core.YearMonth{}, core.ErrInvalidYearMonth
		}
		month = m
	}
	return core.NewYearMonth(year, month)
}

// queryInt returns the integer value of key, or def when it is absent.
func queryInt(query url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

func queryInt64Ptr(query url.Values, key string) (*int64, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, v)
	}
	return &n, nil
}

func queryDatePtr(query url.Values, key string) (*time.Time, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	t, err := parseDate(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, v)
	}
	return &t, nil
}

func queryDecimalPtr(query url.Values, key string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(query.Get(key))
	if v == "" {
		return nil, nil
	}
	d, err := core.ParseAmount(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, v)
	}
	return &d, nil
}

// ParseTransactionFilter builds a storage filter from the query string of
// GET /api/transactions.
func ParseTransactionFilter(query url.Values) (storage.TransactionFilter, error) {
	var (
		f   storage.TransactionFilter
		err error
	)
	if f.StartDate, err = queryDatePtr(query, "start_date"); err != nil {
		return f, err
	}
	if f.EndDate, err = queryDatePtr(query, "end_date"); err != nil {
		return f, err
	}
	if f.CategoryID, err = queryInt64Ptr(query, "category_id"); err != nil {
		return f, err
	}
	if f.AccountID, err = queryInt64Ptr(query, "account_id"); err != nil {
		return f, err
	}
	if f.MinAmount, err = queryDecimalPtr(query, "min_amount"); err != nil {
		return f, err
	}
	if f.MaxAmount, err = queryDecimalPtr(query, "max_amount"); err != nil {
		return f, err
	}
	if v := strings.TrimSpace(query.Get("adjustment")); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return f, fmt.Errorf("invalid adjustment %q", v)
		}
		f.IsAdjustment = &b
	}
	if f.Page, err = queryInt(query, "page", 1); err != nil {
		return f, err
	}
	if f.PageSize, err = queryInt(query, "page_size", storage.DefaultPageSize); err != nil {
		return f, err
	}
	f.Search = sanitizeInput(query.Get("search"))
	return f.Normalize(), nil
}
