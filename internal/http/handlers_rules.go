package http

import (
	"net/http"
	"strings"

	"budgetmanager/internal/core"
	"budgetmanager/internal/storage"
)

type ruleRequest struct {
	Priority     int    `json:"priority"`
	ContainsText string `json:"contains_text"`
	CategoryID   int64  `json:"category_id"`
	IsActive     *bool  `json:"is_active"`
}

func (req ruleRequest) toRule(id int64) core.Rule {
	return core.Rule{
		ID:           id,
		Priority:     req.Priority,
		ContainsText: sanitizeInput(req.ContainsText),
		CategoryID:   req.CategoryID,
		IsActive:     req.IsActive == nil || *req.IsActive,
	}
}

type reorderRequest struct {
	Rules []struct {
		ID       int64 `json:"id"`
		Priority int   `json:"priority"`
	} `json:"rules"`
}

// CountResponse reports how many rows an operation touched.
type CountResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Message string `json:"message,omitempty"`
}

// SuggestResponse is the category a description would be filed under.
type SuggestResponse struct {
	Matched    bool  `json:"matched"`
	CategoryID int64 `json:"category_id,omitempty"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.svc.Rules.List(r.Context(), activeOnly(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, rules)
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rule, err := s.svc.Rules.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, rule)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rule, err := s.svc.Rules.Create(r.Context(), req.toRule(0), s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, rule)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	rule, err := s.svc.Rules.Update(r.Context(), req.toRule(id), s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	if err := s.svc.Rules.Delete(r.Context(), id, s.actorFrom(r)); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderRules(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	priorities := make([]storage.RulePriority, 0, len(req.Rules))
	for _, p := range req.Rules {
		priorities = append(priorities, storage.RulePriority{RuleID: p.ID, Priority: p.Priority})
	}
	n, err := s.svc.Rules.Reorder(r.Context(), priorities, s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, CountResponse{Success: true, Count: n})
}

func (s *Server) handleApplyRules(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.Rules.ApplyToUncategorized(r.Context(), s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, CountResponse{Success: true, Count: n})
}

func (s *Server) handleSuggestRule(w http.ResponseWriter, r *http.Request) {
	description := strings.TrimSpace(r.URL.Query().Get("description"))
	if description == "" {
		BadRequestError("description is required").Write(w)
		return
	}
	categoryID, matched, err := s.svc.Rules.Suggest(r.Context(), description)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, SuggestResponse{Matched: matched, CategoryID: categoryID})
}
