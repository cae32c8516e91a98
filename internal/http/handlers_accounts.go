package http

import (
	"net/http"
	"strconv"

	"budgetmanager/internal/core"
)

type accountRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsActive *bool  `json:"is_active"`
}

func (req accountRequest) toAccount(id int64) core.Account {
	return core.Account{
		ID:       id,
		Name:     sanitizeInput(req.Name),
		Type:     sanitizeInput(req.Type),
		IsActive: req.IsActive == nil || *req.IsActive,
	}
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (req categoryRequest) toCategory(id int64) core.Category {
	return core.Category{
		ID:          id,
		Name:        sanitizeInput(req.Name),
		Description: sanitizeInput(req.Description),
		IsActive:    req.IsActive == nil || *req.IsActive,
	}
}

// activeOnly reads ?active=true.
func activeOnly(r *http.Request) bool {
	active, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	return active
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.Accounts.List(r.Context(), activeOnly(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, accounts)
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	account, err := s.svc.Accounts.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, account)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	account, err := s.svc.Accounts.Create(r.Context(), req.toAccount(0), s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, account)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	account, err := s.svc.Accounts.Update(r.Context(), req.toAccount(id), s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, account)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	result, err := s.svc.Accounts.Delete(r.Context(), id, s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.svc.Categories.List(r.Context(), activeOnly(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, categories)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	category, err := s.svc.Categories.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, category)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	category, err := s.svc.Categories.Create(r.Context(), req.toCategory(0), s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCreated(w, category)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	category, err := s.svc.Categories.Update(r.Context(), req.toCategory(id), s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, category)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	result, err := s.svc.Categories.Delete(r.Context(), id, s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, result)
}
