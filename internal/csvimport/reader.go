// Package csvimport reads bank export CSV files into raw records.
//
// The first row is a header. Date, Description, Amount and Category
// columns are located by case-insensitive name; the first three fall back
// to positions 0, 1 and 2 when the header does not name them.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var ErrEmptyFile = errors.New("csv file has no header row")

// Record is one data row with its fields still as text.
type Record struct {
	Row         int // line number in the file; the header is line 1
	Date        string
	Description string
	Amount      string
	Category    string
	// Err is set when the row itself could not be parsed; the text fields
	// are then empty.
	Err error
}

type columns struct {
	date, description, amount, category int
}

func resolveColumns(header []string) columns {
	cols := columns{date: 0, description: 1, amount: 2, category: -1}
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))) {
		case "date":
			cols.date = i
		case "description":
			cols.description = i
		case "amount":
			cols.amount = i
		case "category":
			cols.category = i
		}
	}
	return cols
}

func field(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

// Read parses every data row of r. Rows may have any number of fields;
// missing columns read as empty strings. A malformed row is returned as a
// Record carrying its parse error and reading continues with the next line.
func Read(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := resolveColumns(header)

	var records []Record
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				records = append(records, Record{Row: pe.StartLine, Err: pe.Err})
				continue
			}
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		line, _ := cr.FieldPos(0)
		records = append(records, Record{
			Row:         line,
			Date:        field(rec, cols.date),
			Description: field(rec, cols.description),
			Amount:      field(rec, cols.amount),
			Category:    field(rec, cols.category),
		})
	}
	return records, nil
}

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"01-02-2006",
	"1/2/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
}

// ParseDate accepts the date layouts common in US bank exports and returns
// the calendar date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
