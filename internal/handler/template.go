package handler

import (
	"log/slog"
	"net/http"

	"imposter/internal/domain/models"
	"imposter/internal/httputil"
	"imposter/internal/service"
)

// templateSummary is the list form of a template.
type templateSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Thumb string `json:"thumb"`
}

// templateDetail adds the editable part of the field schema, which is what
// the frontend needs to build the poster form.
type templateDetail struct {
	templateSummary
	W              int                `json:"w"`
	H              int                `json:"h"`
	EditableFields models.FieldSchema `json:"editable_fields"`
}

// TemplateHandler serves the read-only template endpoints.
type TemplateHandler struct {
	templates *service.TemplateService
	logger    *slog.Logger
}

// NewTemplateHandler creates a template handler.
func NewTemplateHandler(templates *service.TemplateService, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{templates: templates, logger: logger}
}

// List handles GET /api/specs.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.List(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	summaries := make([]templateSummary, 0, len(templates))
	for _, tpl := range templates {
		summaries = append(summaries, summarize(&tpl))
	}
	httputil.RespondJSON(w, http.StatusOK, summaries)
}

// Get handles GET /api/specs/{id}.
func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid spec id")
		return
	}

	tpl, err := h.templates.Get(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, templateDetail{
		templateSummary: summarize(tpl),
		W:               tpl.W,
		H:               tpl.H,
		EditableFields:  tpl.Fields.Editable(),
	})
}

func summarize(tpl *models.Template) templateSummary {
	return templateSummary{ID: tpl.ID, Name: tpl.Name, Color: tpl.Color, Thumb: tpl.ThumbURL}
}
