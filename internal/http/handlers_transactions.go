package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"budgetmanager/internal/core"
)

type transactionRequest struct {
	Date         string          `json:"date"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Notes        string          `json:"notes"`
	IsAdjustment bool            `json:"is_adjustment"`
	CategoryID   int64           `json:"category_id"`
	AccountID    int64           `json:"account_id"`
}

func (req transactionRequest) toTransaction(id int64) (core.Transaction, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:           id,
		Date:         date,
		Description:  sanitizeInput(req.Description),
		Amount:       core.RoundAmount(req.Amount),
		Notes:        sanitizeInput(req.Notes),
		IsAdjustment: req.IsAdjustment,
		CategoryID:   req.CategoryID,
		AccountID:    req.AccountID,
	}, nil
}

// TransactionPage is one page of GET /api/transactions.
type TransactionPage struct {
	Transactions []core.Transaction `json:"transactions"`
	Total        int                `json:"total"`
	Page         int                `json:"page"`
	PageSize     int                `json:"page_size"`
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	txs, err := s.svc.Transactions.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, err := s.svc.Transactions.Count(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	writeJSON(w, TransactionPage{
		Transactions: txs,
		Total:        total,
		Page:         filter.Page,
		PageSize:     filter.PageSize,
	})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tx, err := s.svc.Transactions.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, tx)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tx, err := req.toTransaction(0)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	result, err := s.svc.Transactions.Create(r.Context(), tx, s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tx, err := req.toTransaction(id)
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}
	result, err := s.svc.Transactions.Update(r.Context(), tx, s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	result, err := s.svc.Transactions.Delete(r.Context(), id, s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, result)
}
