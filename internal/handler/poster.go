package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"imposter/internal/domain/fieldtree"
	"imposter/internal/domain/repositories"
	"imposter/internal/httputil"
	"imposter/internal/service"
)

// posterRequest is the JSON body for poster creation and update. Fields is
// kept raw and parsed into a field tree after structural validation.
type posterRequest struct {
	Bureau int64           `json:"bureau"`
	Spec   int64           `json:"spec"`
	Fields json.RawMessage `json:"fields"`
}

func (r posterRequest) validateCreate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Bureau, validation.Required, validation.Min(1)),
		validation.Field(&r.Spec, validation.Required, validation.Min(1)),
		validation.Field(&r.Fields, validation.Required),
	)
}

func (r posterRequest) validateUpdate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Bureau, validation.Min(1)),
		validation.Field(&r.Spec, validation.Min(1)),
	)
}

// PosterHandler serves the poster CRUD endpoints.
type PosterHandler struct {
	posters *service.PosterService
	logger  *slog.Logger
}

// NewPosterHandler creates a poster handler.
func NewPosterHandler(posters *service.PosterService, logger *slog.Logger) *PosterHandler {
	return &PosterHandler{posters: posters, logger: logger}
}

// List handles GET /api/posters with optional since/until/bureau/spec/
// limit/offset query filters.
func (h *PosterHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePosterFilter(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	posters, err := h.posters.List(r.Context(), filter)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	views, err := h.posters.Views(r.Context(), posters)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, views)
}

// Get handles GET /api/posters/{id}.
func (h *PosterHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid poster id")
		return
	}

	poster, err := h.posters.Get(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	view, err := h.posters.View(r.Context(), poster)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, view)
}

// Create handles POST /api/posters.
func (h *PosterHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req posterRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validateCreate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	fields, err := fieldtree.Parse(req.Fields)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "malformed fields: "+err.Error())
		return
	}

	poster, err := h.posters.Create(r.Context(), service.PosterInput{
		BureauID:   req.Bureau,
		TemplateID: req.Spec,
		Fields:     fields,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	view, err := h.posters.View(r.Context(), poster)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.logger.Info("poster created", "id", poster.ID, "subject", httputil.GetSubject(r))
	httputil.RespondJSON(w, http.StatusCreated, view)
}

// Update handles PUT /api/posters/{id}. Omitted fields keep their saved
// values; submitted field params are merged into the saved tree.
func (h *PosterHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid poster id")
		return
	}

	var req posterRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.validateUpdate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var fields fieldtree.Tree
	if len(req.Fields) > 0 {
		if fields, err = fieldtree.Parse(req.Fields); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, "malformed fields: "+err.Error())
			return
		}
	}

	poster, err := h.posters.Update(r.Context(), id, service.PosterInput{
		BureauID:   req.Bureau,
		TemplateID: req.Spec,
		Fields:     fields,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	view, err := h.posters.View(r.Context(), poster)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, view)
}

// Delete handles DELETE /api/posters/{id}.
func (h *PosterHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid poster id")
		return
	}
	if err := h.posters.Delete(r.Context(), id); err != nil {
		handleError(w, h.logger, err)
		return
	}
	h.logger.Info("poster deleted", "id", id, "subject", httputil.GetSubject(r))
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// parsePosterFilter reads list query parameters. Dates accept either
// 2006-01-02 or RFC 3339.
func parsePosterFilter(r *http.Request) (repositories.PosterFilter, error) {
	var filter repositories.PosterFilter
	q := r.URL.Query()

	var err error
	if filter.Since, err = parseTimeParam(q.Get("since")); err != nil {
		return filter, err
	}
	if filter.Until, err = parseTimeParam(q.Get("until")); err != nil {
		return filter, err
	}
	if filter.BureauID, err = parseIDParam(q.Get("bureau")); err != nil {
		return filter, err
	}
	if filter.TemplateID, err = parseIDParam(q.Get("spec")); err != nil {
		return filter, err
	}
	if filter.Limit, err = parseIntParam(q.Get("limit")); err != nil {
		return filter, err
	}
	if filter.Offset, err = parseIntParam(q.Get("offset")); err != nil {
		return filter, err
	}

	err = validation.Errors{
		"bureau": validation.Validate(filter.BureauID, validation.Min(int64(0))),
		"spec":   validation.Validate(filter.TemplateID, validation.Min(int64(0))),
		"limit":  validation.Validate(filter.Limit, validation.Min(0)),
		"offset": validation.Validate(filter.Offset, validation.Min(0)),
	}.Filter()
	return filter, err
}

func parseTimeParam(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or RFC 3339", raw)
}

func parseIDParam(raw string) (int64, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func parseIntParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
