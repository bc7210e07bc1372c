package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/yamdb/yamdb-server/internal/errors"
	"github.com/yamdb/yamdb-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Field errors keyed by request field"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
//
// Huma's own request validation (status 422) is reported as a 400 with the
// same field-keyed details the services produce, and a malformed path
// parameter is reported as a missing resource.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}

			var storeErr *store.Error
			if errors.As(err, &storeErr) {
				return &APIError{
					status:  storeErr.HTTPCode(),
					Code:    string(domainerrors.CodeForStatus(storeErr.HTTPCode())),
					Message: storeErr.Message,
				}
			}
		}

		if status == http.StatusUnprocessableEntity || (status == http.StatusBadRequest && len(errs) > 0) {
			if hasPathError(errs) {
				return &APIError{
					status:  http.StatusNotFound,
					Code:    string(domainerrors.CodeNotFound),
					Message: "not found",
				}
			}
			return &APIError{
				status:  http.StatusBadRequest,
				Code:    string(domainerrors.CodeValidation),
				Message: "validation failed",
				Details: requestFieldErrors(errs),
			}
		}

		return &APIError{
			status:  status,
			Code:    string(domainerrors.CodeForStatus(status)),
			Message: message,
		}
	}
}

func hasPathError(errs []error) bool {
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) && strings.HasPrefix(detail.Location, "path.") {
			return true
		}
	}
	return false
}

// requestFieldErrors converts huma's error details into field-keyed messages.
func requestFieldErrors(errs []error) domainerrors.FieldErrors {
	fields := domainerrors.FieldErrors{}
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if !errors.As(err, &detail) {
			fields = fields.Add("non_field_errors", err.Error())
			continue
		}
		fields = fields.Add(detailField(detail), detail.Message)
	}
	return fields
}

// detailField derives the request field from a huma error location such as
// "body.genre[0]" or "query.limit". Missing properties are reported against
// the enclosing object, so the name is read from the message.
func detailField(detail *huma.ErrorDetail) string {
	loc := detail.Location
	if _, rest, ok := strings.Cut(loc, "."); ok {
		loc = rest
	} else {
		loc = ""
	}
	if i := strings.IndexAny(loc, ".["); i >= 0 {
		loc = loc[:i]
	}
	if loc != "" {
		return loc
	}

	const marker = "required property "
	if i := strings.Index(detail.Message, marker); i >= 0 {
		name := detail.Message[i+len(marker):]
		if j := strings.IndexByte(name, ' '); j >= 0 {
			name = name[:j]
		}
		if name != "" {
			return name
		}
	}
	return "non_field_errors"
}
