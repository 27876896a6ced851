package handler

import (
	"log/slog"
	"net/http"

	"imposter/internal/domain/repositories"
	"imposter/internal/httputil"
)

// BureauHandler serves the read-only bureau endpoints.
type BureauHandler struct {
	bureaus repositories.BureauRepository
	logger  *slog.Logger
}

// NewBureauHandler creates a bureau handler.
func NewBureauHandler(bureaus repositories.BureauRepository, logger *slog.Logger) *BureauHandler {
	return &BureauHandler{bureaus: bureaus, logger: logger}
}

// List handles GET /api/bureaus.
func (h *BureauHandler) List(w http.ResponseWriter, r *http.Request) {
	bureaus, err := h.bureaus.List(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, bureaus)
}

// Get handles GET /api/bureaus/{id}.
func (h *BureauHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid bureau id")
		return
	}

	bureau, err := h.bureaus.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, bureau)
}
