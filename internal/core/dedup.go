package core

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	hashNumber    = regexp.MustCompile(`#\d+`)
	longNumber    = regexp.MustCompile(`\b\d{4,}\b`)
)

// NormalizeDescription reduces a bank description to a comparable form:
// lower-cased, whitespace collapsed, with "#123" references and standalone
// numbers of four or more digits removed.
//
// "#<digits>" goes first so that "SHOP #12345" becomes "shop" rather than
// "shop #".
func NormalizeDescription(description string) string {
	if strings.TrimSpace(description) == "" {
		return ""
	}
	normalized := whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(description)), " ")
	normalized = hashNumber.ReplaceAllString(normalized, "")
	normalized = longNumber.ReplaceAllString(normalized, "")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(normalized, " "))
}

// IsDuplicate reports whether existing holds a transaction on the same
// calendar date and account whose normalized description and rounded amount
// both equal the candidate's.
func IsDuplicate(date time.Time, amount decimal.Decimal, description string, accountID int64, existing []Transaction) bool {
	wantDesc := NormalizeDescription(description)
	wantAmount := RoundAmount(amount)

	for _, tx := range existing {
		if tx.AccountID != accountID || !SameDay(tx.Date, date) {
			continue
		}
		if NormalizeDescription(tx.Description) == wantDesc && RoundAmount(tx.Amount).Equal(wantAmount) {
			return true
		}
	}
	return false
}
