// Package http provides the JSON API over the shopping-list store.
//
// This file implements the Builder Pattern for constructing JSON responses.
// Handlers describe status, headers and payload fluently and write once.

package http

import (
	"encoding/json"
	"net/http"

	"shoplist/internal/core"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
}

// errorBody is the shape of every error response.
type errorBody struct {
	Error  string           `json:"error"`
	Fields core.FieldErrors `json:"errors,omitempty"`
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

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Payload sets the value encoded as the response body.
func (b *JSONResponseBuilder) Payload(v any) *JSONResponseBuilder {
	b.payload = v
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
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"encoding response failed"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(append(body, '\n'))
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Payload(errorBody{Error: message})
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// ValidationError creates a 422 response carrying per-field messages.
func ValidationError(fields core.FieldErrors) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Payload(errorBody{Error: "validation failed", Fields: fields})
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// ConflictError creates a 409 Conflict error response.
func ConflictError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NoContent creates an empty 204 response.
func NoContent() *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusNoContent)
}
