package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func serve(t *testing.T, m *Middleware, req *http.Request, status int) (*httptest.ResponseRecorder, string) {
	t.Helper()
	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
		w.WriteHeader(status)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func TestMiddlewareMintsRequestID(t *testing.T) {
	m := NewMiddleware(nil)
	rec, seen := serve(t, m, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil), http.StatusOK)

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("request id %q is not a UUID: %v", seen, err)
	}
	if got := rec.Header().Get(HeaderRequestID); got != seen {
		t.Errorf("response header = %q, context = %q", got, seen)
	}
}

func TestMiddlewareReusesSaneIncomingID(t *testing.T) {
	m := NewMiddleware(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	_, seen := serve(t, m, req, http.StatusOK)
	if seen != "abc-123" {
		t.Errorf("request id = %q, want abc-123", seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set(HeaderRequestID, "bad id\nwith newline")
	_, seen = serve(t, m, req, http.StatusOK)
	if seen == "bad id\nwith newline" {
		t.Error("unsafe incoming request id was reused")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("a", 100))
	_, seen = serve(t, m, req, http.StatusOK)
	if len(seen) == 100 {
		t.Error("overlong incoming request id was reused")
	}
}

func TestMetrics(t *testing.T) {
	m := NewMiddleware(func(*http.Request) string { return "10.0.0.1" })
	serve(t, m, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK)
	serve(t, m, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusNotFound)
	serve(t, m, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusInternalServerError)

	got := m.GetMetrics()
	if got.TotalRequests != 3 {
		t.Errorf("TotalRequests = %d, want 3", got.TotalRequests)
	}
	if got.ServerErrors != 1 {
		t.Errorf("ServerErrors = %d, want 1", got.ServerErrors)
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	if id := GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()); id != "" {
		t.Errorf("GetRequestID() = %q, want empty", id)
	}
}
