package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/booksapp/books-server/internal/errors"
	"github.com/booksapp/books-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
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
// Unexpected errors are logged and reported without their cause.
func RegisterErrorHandler(logger *slog.Logger) {
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
			if errors.As(err, &storeErr) && storeErr.HTTPCode() < http.StatusInternalServerError {
				return &APIError{
					status:  storeErr.HTTPCode(),
					Code:    statusToCode(storeErr.HTTPCode()),
					Message: storeErr.Message,
				}
			}
		}

		if status >= http.StatusInternalServerError {
			if logger != nil {
				logger.Error("API request failed", "status", status, "error", errors.Join(errs...))
			}
			message = http.StatusText(status)
		}

		apiErr := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		if status == http.StatusUnprocessableEntity || status == http.StatusBadRequest {
			apiErr.Details = errorDetails(errs)
		}
		return apiErr
	}
}

// errorDetails lists huma's per-field validation failures.
func errorDetails(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	details := make([]string, 0, len(errs))
	for _, err := range errs {
		details = append(details, err.Error())
	}
	return details
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusUnauthorized:
		return string(domainerrors.CodeUnauthorized)
	case http.StatusForbidden:
		return string(domainerrors.CodeForbidden)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusConflict:
		return string(domainerrors.CodeAlreadyExists)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeTooManyRequests)
	default:
		return string(domainerrors.CodeInternal)
	}
}
