package http

import (
	"net/http"
	"strings"

	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

// ActivityPage is one page of the audit log.
type ActivityPage struct {
	Entries  []core.ActivityEntry `json:"entries"`
	Total    int                  `json:"total"`
	Page     int                  `json:"page"`
	PageSize int                  `json:"page_size"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ym, err := queryYearMonth(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	dashboard, err := s.svc.Dashboard.Get(r.Context(), ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, dashboard)
}

func (s *Server) handleBudgetVsActual(w http.ResponseWriter, r *http.Request) {
	ym, err := queryYearMonth(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	report, err := s.svc.Reports.BudgetVsActual(r.Context(), ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleMonthOverMonth(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r.URL.Query(), "year", s.now().Year())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	report, err := s.svc.Reports.MonthOverMonth(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleTopExpenses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	ym, err := queryYearMonth(query, s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	n, err := queryInt(query, "limit", 0)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	report, err := s.svc.Reports.TopExpenses(r.Context(), ym, n)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleDailySpending(w http.ResponseWriter, r *http.Request) {
	ym, err := queryYearMonth(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	report, err := s.svc.Reports.DailySpending(r.Context(), ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, report)
}

// handleListActivity pages the whole log, or lists one entity's history
// when ?entity= and ?entity_id= are both given.
func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if entity := strings.TrimSpace(query.Get("entity")); entity != "" {
		entityID, err := queryInt64Ptr(query, "entity_id")
		if err != nil || entityID == nil {
			BadRequestError("entity_id is required with entity").Write(w)
			return
		}
		entries, err := s.svc.Activity.ForEntity(r.Context(), entity, *entityID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if entries == nil {
			entries = []core.ActivityEntry{}
		}
		writeJSON(w, ActivityPage{Entries: entries, Total: len(entries), Page: 1, PageSize: len(entries)})
		return
	}

	page, err := queryInt(query, "page", 1)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	pageSize, err := queryInt(query, "page_size", storage.DefaultPageSize)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = storage.DefaultPageSize
	}

	entries, err := s.svc.Activity.List(r.Context(), page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, err := s.svc.Activity.Count(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.ActivityEntry{}
	}
	writeJSON(w, ActivityPage{Entries: entries, Total: total, Page: page, PageSize: pageSize})
}
