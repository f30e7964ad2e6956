// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses.
// It provides a fluent API for status, headers and body so every handler
// answers with the same envelope.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"fieldlog/internal/core"
)

// ResponseBuilder provides a fluent API for building API responses.
type ResponseBuilder struct {
	statusCode int
	body       []byte
	value      any
	hasValue   bool
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v as the body, encoded when the response is written.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.headers["Content-Type"] = "application/json; charset=utf-8"
	b.value = v
	b.hasValue = true
	return b
}

// Body sets the response body as bytes.
func (b *ResponseBuilder) Body(content []byte) *ResponseBuilder {
	b.body = content
	b.hasValue = false
	return b
}

// BodyString sets the response body as a string.
func (b *ResponseBuilder) BodyString(content string) *ResponseBuilder {
	return b.Body([]byte(content))
}

// Attachment marks the body as a file download named filename.
func (b *ResponseBuilder) Attachment(filename, contentType string) *ResponseBuilder {
	b.headers["Content-Type"] = contentType
	b.headers["Content-Disposition"] = `attachment; filename="` + filename + `"`
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	body := b.body
	if b.hasValue {
		encoded, err := json.Marshal(b.value)
		if err != nil {
			slog.Error("Failed to encode response", "error", err)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		body = append(encoded, '\n')
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	w.WriteHeader(b.statusCode)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}

// OKResponse is the acknowledgement returned by mutating endpoints.
func OKResponse() *ResponseBuilder {
	return NewResponse().JSON(map[string]bool{"ok": true})
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().
		Status(statusCode).
		JSON(map[string]string{"error": message})
}

// ValidationErrorResponse creates the 400 response carrying field errors.
func ValidationErrorResponse(verr core.ValidationErrors) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusBadRequest).
		JSON(map[string]core.ValidationErrors{"error": verr.Normalized()})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, message)
}
