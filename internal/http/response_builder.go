// Package http provides the JSON API server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses
// with consistent formatting and domain-error to status-code mapping.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"parcela/internal/core"
	"parcela/internal/services"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Payload sets the body, marshalled as JSON on Write.
func (b *JSONResponseBuilder) Payload(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	body, err := json.Marshal(b.payload)
	if err != nil {
		slog.Error("Failed to marshal response payload", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(body)
}

// errorPayload is the uniform error body.
type errorPayload struct {
	Error string `json:"error"`
}

// ErrorResponse creates an error response with the uniform body shape.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Payload(errorPayload{Error: message})
}

// DomainErrorResponse maps a domain error onto the appropriate HTTP status.
// Unrecognized errors are reported as 500 without leaking their message.
func DomainErrorResponse(err error) *JSONResponseBuilder {
	switch {
	case isValidationError(err):
		return ErrorResponse(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrNotFound):
		return ErrorResponse(http.StatusNotFound, err.Error())
	case errors.Is(err, core.ErrForbidden):
		return ErrorResponse(http.StatusForbidden, err.Error())
	case errors.Is(err, core.ErrUnsupportedGroupEdit):
		return ErrorResponse(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUsernameTaken):
		return ErrorResponse(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return ErrorResponse(http.StatusUnauthorized, err.Error())
	default:
		return ErrorResponse(http.StatusInternalServerError, "internal error")
	}
}

// isValidationError reports whether the error was raised before any storage
// interaction, purely by request validation.
func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidFrequency,
		core.ErrInvalidCount,
		core.ErrInvalidAmount,
		core.ErrInvalidKind,
		core.ErrDegenerateGroup,
		core.ErrInsufficientHistory,
		core.ErrEmptyUsername,
		core.ErrEmptyPassword,
		services.ErrAmbiguousIntent,
		services.ErrInvalidScope,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
