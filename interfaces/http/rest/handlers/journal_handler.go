package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"journals-backend/application/services"
	"journals-backend/domain/journal"
	"journals-backend/pkg/common"
	apperrors "journals-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxBodyBytes bounds a create or update payload
const maxBodyBytes = 1 << 20

// JournalHandler handles journal-related HTTP requests
type JournalHandler struct {
	service *services.JournalService
	errors  *apperrors.ErrorHandler
	logger  *zap.Logger
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(
	service *services.JournalService,
	errorHandler *apperrors.ErrorHandler,
	logger *zap.Logger,
) *JournalHandler {
	return &JournalHandler{
		service: service,
		errors:  errorHandler,
		logger:  logger,
	}
}

// ListJournals handles GET /api/journals. The optional fields parameter is a
// comma separated projection.
func (h *JournalHandler) ListJournals(w http.ResponseWriter, r *http.Request) {
	var fields []string
	if raw := r.URL.Query().Get("fields"); raw != "" {
		fields = strings.Split(raw, ",")
	}

	journals, err := h.service.List(r.Context(), fields)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, journals)
}

// CreateJournal handles POST /api/journals
func (h *JournalHandler) CreateJournal(w http.ResponseWriter, r *http.Request) {
	var fields journal.Fields
	if !h.decode(w, r, &fields) {
		return
	}

	created, err := h.service.Create(r.Context(), fields)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, created)
}

// UpdateJournal handles PUT /api/journals/{id}
func (h *JournalHandler) UpdateJournal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch journal.Patch
	if !h.decode(w, r, &patch) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, updated)
}

// DeleteJournal handles DELETE /api/journals/{id}
func (h *JournalHandler) DeleteJournal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondMessage(w, http.StatusOK, "Journal deleted")
}

// decode reads a JSON object body into dst, answering 400 on failure. An
// empty body is an empty object and leaves dst untouched.
func (h *JournalHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Debug("Rejected request body",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		h.errors.HandleStatus(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
