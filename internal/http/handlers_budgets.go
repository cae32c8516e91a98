package http

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"budgetmanager/internal/core"
	"budgetmanager/internal/services"
)

type budgetRequest struct {
	CategoryID int64           `json:"category_id"`
	Amount     decimal.Decimal `json:"amount"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	budgets, err := s.svc.Budgets.ForMonth(r.Context(), ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if budgets == nil {
		budgets = []core.MonthlyBudget{}
	}
	writeJSON(w, budgets)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if req.CategoryID <= 0 {
		UnprocessableEntityError(core.ErrMissingCategory.Error()).Write(w)
		return
	}
	budget, err := s.svc.Budgets.CreateOrUpdate(r.Context(), ym, req.CategoryID, req.Amount, s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, budget)
}

func (s *Server) handleCopyBudgets(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	n, err := s.svc.Budgets.CopyFromPreviousMonth(r.Context(), ym, s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, CountResponse{
		Success: true,
		Count:   n,
		Message: services.CopyBudgetsMessage(n, ym.Previous(), ym),
	})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Budgets.Delete(r.Context(), id, s.actorFrom(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePacing(w http.ResponseWriter, r *http.Request) {
	ym, err := pathYearMonth(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	pacing, err := s.svc.Budgets.Pacing(r.Context(), ym)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, pacing)
}

func (s *Server) handleListLocks(w http.ResponseWriter, r *http.Request) {
	locks, err := s.svc.Locking.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if locks == nil {
		locks = []core.LockedMonth{}
	}
	writeJSON(w, locks)
}

func (s *Server) handleLockMonth(w http.ResponseWriter, r *http.Request) {
	s.toggleLock(w, r, s.svc.Locking.Lock)
}

func (s *Server) handleUnlockMonth(w http.ResponseWriter, r *http.Request) {
	s.toggleLock(w, r, s.svc.Locking.Unlock)
}

func (s *Server) toggleLock(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, ym core.YearMonth, actor string) (services.Result, error)) {
	ym, err := pathYearMonth(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	result, err := op(r.Context(), ym, s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, result)
}
