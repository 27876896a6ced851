package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface keeps the transport layer free of
// per-kind switch statements.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound         = errors.New("not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrEditWindowClosed = errors.New("poster is no longer editable")
	ErrImmutableField   = errors.New("immutable field change")
	ErrValidation       = errors.New("validation failed")
	ErrUnauthorized     = errors.New("unauthorized")
)

// FieldErrorKind enumerates schema-level validation failures.
type FieldErrorKind string

const (
	FieldsNotAllowed      FieldErrorKind = "fields_not_allowed"
	MissingRequiredFields FieldErrorKind = "missing_required_fields"
	ParamsNotAllowed      FieldErrorKind = "params_not_allowed"
	MissingRequiredParams FieldErrorKind = "missing_required_params"
)

// FieldError reports a field-schema violation. Names is always sorted
// ascending; Field and FieldType are set only for the parameter-level kinds.
type FieldError struct {
	Kind      FieldErrorKind
	Field     string
	FieldType string
	Names     []string
}

func (e *FieldError) Error() string {
	names := strings.Join(e.Names, ", ")
	switch e.Kind {
	case FieldsNotAllowed:
		return "fields not allowed: " + names
	case MissingRequiredFields:
		return "missing required fields: " + names
	case ParamsNotAllowed:
		return fmt.Sprintf("params not allowed for %s field '%s': %s", e.FieldType, e.Field, names)
	case MissingRequiredParams:
		return fmt.Sprintf("missing required params for %s field '%s': %s", e.FieldType, e.Field, names)
	}
	return "field validation failed: " + names
}

func (e *FieldError) StatusCode() int { return http.StatusBadRequest }

// Is allows errors.Is() to match against ErrValidation
func (e *FieldError) Is(target error) bool { return target == ErrValidation }

// ImageErrorKind enumerates image ingestion failures.
type ImageErrorKind string

const (
	UnsupportedExtension ImageErrorKind = "unsupported_extension"
	FileTooLarge         ImageErrorKind = "file_too_large"
	DecodeError          ImageErrorKind = "decode_error"
	NoImageData          ImageErrorKind = "no_image_data"
)

// ImageError reports an image ingestion failure; it always carries the
// offending filename.
type ImageError struct {
	Kind     ImageErrorKind
	Filename string
	Detail   string
}

func (e *ImageError) Error() string {
	switch e.Kind {
	case UnsupportedExtension:
		return "unsupported image extension: " + e.Filename
	case FileTooLarge:
		return "image exceeds maximum file size: " + e.Filename
	case DecodeError:
		if e.Detail != "" {
			return fmt.Sprintf("can't decode image data: %s (%s)", e.Filename, e.Detail)
		}
		return "can't decode image data: " + e.Filename
	case NoImageData:
		return "no image data: " + e.Filename
	}
	return "image error: " + e.Filename
}

func (e *ImageError) StatusCode() int { return http.StatusBadRequest }

func (e *ImageError) Is(target error) bool { return target == ErrValidation }

// NotFoundError indicates a resource was not found
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string       { return e.Message }
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ForbiddenError indicates a policy failure (edit window, immutable fields)
type ForbiddenError struct {
	Message string
	Target  error
}

func (e *ForbiddenError) Error() string       { return e.Message }
func (e *ForbiddenError) StatusCode() int     { return http.StatusForbidden }
func (e *ForbiddenError) Is(target error) bool { return target == e.Target }
