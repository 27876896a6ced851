package httputil

import (
	"context"
	"net/http"
)

// Context key type to avoid collisions
type contextKey string

const subjectKey contextKey = "subject"

// WithSubject adds the authenticated subject to the request context
func WithSubject(r *http.Request, subject string) *http.Request {
	ctx := context.WithValue(r.Context(), subjectKey, subject)
	return r.WithContext(ctx)
}

// GetSubject retrieves the subject from context, returns "" if not found
func GetSubject(r *http.Request) string {
	subject, _ := r.Context().Value(subjectKey).(string)
	return subject
}
