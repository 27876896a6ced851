package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"imposter/internal/domain"
	"imposter/internal/httputil"
)

// handleError translates core errors into problem+json responses. Field and
// image errors carry their kind and offending names as extra members so the
// frontend can highlight inputs.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var fieldErr *domain.FieldError
	if errors.As(err, &fieldErr) {
		extras := map[string]interface{}{
			"kind":  string(fieldErr.Kind),
			"names": fieldErr.Names,
		}
		if fieldErr.Field != "" {
			extras["field"] = fieldErr.Field
		}
		httputil.RespondErrorWithExtras(w, fieldErr.StatusCode(), fieldErr.Error(), extras)
		return
	}

	var imgErr *domain.ImageError
	if errors.As(err, &imgErr) {
		httputil.RespondErrorWithExtras(w, imgErr.StatusCode(), imgErr.Error(), map[string]interface{}{
			"kind":     string(imgErr.Kind),
			"filename": imgErr.Filename,
		})
		return
	}

	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Error())
		return
	}

	switch {
	case errors.Is(err, domain.ErrTemplateNotFound), errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	default:
		logger.Error("unhandled error", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
