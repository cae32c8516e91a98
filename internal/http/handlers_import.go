package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	applog "budgetmanager/internal/log"
)

const maxUploadSize = 10 << 20

type commitRequest struct {
	Rows []int `json:"rows"`
}

// handleImportPreview parses a multipart upload with a "file" part and an
// "account_id" field, and stages the result.
func (s *Server) handleImportPreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		BadRequestError("expected a multipart form with a CSV file").Write(w)
		return
	}

	accountID, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("account_id")), 10, 64)
	if err != nil || accountID <= 0 {
		UnprocessableEntityError("account_id is required").Write(w)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		BadRequestError("file is required").Write(w)
		return
	}
	defer func() { _ = file.Close() }()

	fields := applog.NewFields().WithComponent(applog.ComponentImport).WithAccount(accountID)
	fields["filename"] = header.Filename
	applog.FromContext(r.Context()).InfoContext(r.Context(), "Import upload received", fields.ToSlice()...)

	preview, err := s.svc.Import.Preview(r.Context(), file, accountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, preview)
}

// handleImportCommit imports the staged rows of {token}. An empty body
// commits every OK row.
func (s *Server) handleImportCommit(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, err := uuid.Parse(token); err != nil {
		BadRequestError("invalid import token").Write(w)
		return
	}

	var req commitRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		BadRequestError(err.Error()).Write(w)
		return
	}

	result, err := s.svc.Import.Commit(r.Context(), token, req.Rows, s.actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, result)
}
