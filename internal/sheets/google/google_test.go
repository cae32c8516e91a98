package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"budgetmanager/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// fakeSheets records the requests made against a minimal Sheets values API.
type fakeSheets struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []gsheet.ValueRange
	header   [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, r)
	var body gsheet.ValueRange
	if r.Body != nil && r.Method != http.MethodGet {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	f.bodies = append(f.bodies, body)

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Audit!A1:I1", "values": f.header})
	case strings.HasSuffix(r.URL.Path, ":append"):
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId": "sheet-123",
			"updates":       map[string]any{"updatedRange": "Audit!A5:I5", "updatedRows": 1},
		})
	default:
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRange": "Audit!A1:I1"})
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return NewWithService(svc, "sheet-123", "")
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "Audit")
	if err == nil || err.Error() != "missing spreadsheet id" {
		t.Fatalf("expected missing spreadsheet id error, got %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), "sheet-123", "Audit")
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/nonexistent/credentials.json")

	_, err := New(context.Background(), "sheet-123", "Audit")
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected file read error, got %v", err)
	}
}

func TestNewWithServiceDefaultsSheetName(t *testing.T) {
	c := NewWithService(nil, "id", " ")
	if c.auditSheet != DefaultAuditSheet {
		t.Errorf("audit sheet = %q, want %q", c.auditSheet, DefaultAuditSheet)
	}
}

func TestAppendActivity_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.AppendActivity(context.Background(), core.ActivityEntry{ID: 1}); err == nil {
		t.Fatal("expected error with uninitialized service")
	}
}

func TestAppendActivity(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	id := int64(3)
	ref, err := c.AppendActivity(context.Background(), core.ActivityEntry{
		ID:         11,
		EntityName: "Account",
		EntityID:   &id,
		Action:     "Create",
		Actor:      "alex",
		Timestamp:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ref != "Audit!A5:I5" {
		t.Errorf("ref = %q", ref)
	}

	if len(fake.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(fake.requests))
	}
	req := fake.requests[0]
	if req.Method != http.MethodPost || !strings.HasSuffix(req.URL.Path, ":append") {
		t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
	}
	if !strings.Contains(req.URL.Path, "/v4/spreadsheets/sheet-123/values/") {
		t.Errorf("unexpected path %s", req.URL.Path)
	}
	if got := req.URL.Query().Get("insertDataOption"); got != "INSERT_ROWS" {
		t.Errorf("insertDataOption = %q", got)
	}

	values := fake.bodies[0].Values
	if len(values) != 1 || len(values[0]) != 9 {
		t.Fatalf("unexpected values %v", values)
	}
	if values[0][2] != "Account" || values[0][3] != "3" || values[0][4] != "Create" {
		t.Errorf("unexpected row %v", values[0])
	}
}

func TestEnsureHeader(t *testing.T) {
	t.Run("writes header on empty sheet", func(t *testing.T) {
		fake := &fakeSheets{}
		c := newTestClient(t, fake)

		if err := c.EnsureHeader(context.Background()); err != nil {
			t.Fatalf("ensure header: %v", err)
		}
		if len(fake.requests) != 2 {
			t.Fatalf("expected read and write, got %d requests", len(fake.requests))
		}
		if fake.requests[1].Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", fake.requests[1].Method)
		}
		if got := fake.bodies[1].Values[0][0]; got != "ID" {
			t.Errorf("first header cell = %v", got)
		}
	})

	t.Run("leaves existing header alone", func(t *testing.T) {
		fake := &fakeSheets{header: [][]any{{"ID", "Timestamp"}}}
		c := newTestClient(t, fake)

		if err := c.EnsureHeader(context.Background()); err != nil {
			t.Fatalf("ensure header: %v", err)
		}
		if len(fake.requests) != 1 {
			t.Fatalf("expected only the read, got %d requests", len(fake.requests))
		}
	})
}
