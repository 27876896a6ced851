package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"imposter/internal/httputil"
)

// Recovery converts handler panics into problem+json 500 responses. The
// stack trace and the authenticated subject go to the log, never to the
// client.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				logger.Error("panic recovered",
					"error", v,
					"method", r.Method,
					"path", r.URL.Path,
					"subject", httputil.GetSubject(r),
					"stack", string(debug.Stack()),
				)
				httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
