package http

import (
	"net/http"
	"strings"
	"time"

	"budgetmanager/internal/core"
)

// HeaderUser names the acting user on mutating requests.
const HeaderUser = "X-User"

const maxActorLength = 100

// actorFrom returns the X-User header value, or fallback when it is blank.
func actorFrom(r *http.Request, fallback string) string {
	actor := sanitizeInput(r.Header.Get(HeaderUser))
	if actor == "" {
		return fallback
	}
	if len(actor) > maxActorLength {
		actor = actor[:maxActorLength]
	}
	return actor
}

// parseDate parses a date string in YYYY-MM-DD format.
func parseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, core.ErrInvalidDate
	}
	return t, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
