package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"imposter/internal/domain"
)

func TestHandleErrorFieldError(t *testing.T) {
	rec := httptest.NewRecorder()
	logger := slog.New(slog.DiscardHandler)

	handleError(rec, logger, &domain.FieldError{
		Kind:      domain.ParamsNotAllowed,
		Field:     "title",
		FieldType: "text",
		Names:     []string{"filename"},
	})

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["kind"] != string(domain.ParamsNotAllowed) {
		t.Errorf("kind = %v", body["kind"])
	}
	if body["field"] != "title" {
		t.Errorf("field = %v", body["field"])
	}
	names, _ := body["names"].([]interface{})
	if len(names) != 1 || names[0] != "filename" {
		t.Errorf("names = %v", body["names"])
	}
}

func TestHandleErrorStatusMapping(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"field error", &domain.FieldError{Kind: domain.MissingRequiredFields, Names: []string{"title"}}, http.StatusBadRequest},
		{"image error", &domain.ImageError{Kind: domain.UnsupportedExtension, Filename: "a.pdf"}, http.StatusBadRequest},
		{"not found", domain.ErrNotFound, http.StatusNotFound},
		{"template not found", domain.ErrTemplateNotFound, http.StatusNotFound},
		{"edit window", &domain.ForbiddenError{Message: "closed", Target: domain.ErrEditWindowClosed}, http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleError(rec, logger, tt.err)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestParsePosterFilter(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/posters", nil)
	req.URL.RawQuery = url.Values{
		"since":  {"2026-03-01"},
		"until":  {"2026-03-14T23:59:59Z"},
		"bureau": {"2"},
		"spec":   {"1"},
		"limit":  {"25"},
		"offset": {"50"},
	}.Encode()

	filter, err := parsePosterFilter(req)
	if err != nil {
		t.Fatalf("parsePosterFilter() error = %v", err)
	}
	if filter.Since.IsZero() || filter.Until.IsZero() {
		t.Error("date filters not parsed")
	}
	if filter.BureauID != 2 || filter.TemplateID != 1 {
		t.Errorf("ids = %d/%d", filter.BureauID, filter.TemplateID)
	}
	if filter.Limit != 25 || filter.Offset != 50 {
		t.Errorf("paging = %d/%d", filter.Limit, filter.Offset)
	}
}

func TestParsePosterFilterRejections(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
	}{
		{"bad date", url.Values{"since": {"last tuesday"}}},
		{"bad int", url.Values{"limit": {"many"}}},
		{"negative id", url.Values{"bureau": {"-1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/posters", nil)
			req.URL.RawQuery = tt.query.Encode()
			if _, err := parsePosterFilter(req); err == nil {
				t.Error("parsePosterFilter() accepted invalid input")
			}
		})
	}
}
