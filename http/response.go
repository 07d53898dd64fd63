package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/km-arc/go-webbeans/framework/container"
	"github.com/km-arc/go-webbeans/framework/contexts"
	"github.com/km-arc/go-webbeans/framework/passivation"
	"github.com/km-arc/go-webbeans/framework/validation"
)

// ── Response ─────────────────────────────────────────────────────────────────

// Response wraps http.ResponseWriter with JSON helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// NoContent sends 204 with no body.
func (res *Response) NoContent() {
	res.w.WriteHeader(http.StatusNoContent)
}

// Error sends a JSON error response.
//
//	res.Error(http.StatusNotFound, "no such bean")
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	res.Error(http.StatusNotFound, first(message, "Not found."))
}

// ServerError sends 500.
func (res *Response) ServerError(message ...string) {
	res.Error(http.StatusInternalServerError, first(message, "Server Error."))
}

// ValidationError sends 422 with the error bag.
func (res *Response) ValidationError(errors *validation.Errors) {
	res.JSON(http.StatusUnprocessableEntity, errors)
}

// Fail maps a container error to its status code and sends it.
//
//	validation errors              → 422
//	nonexistent conversation       → 404
//	no passivated session          → 404
//	busy conversation, inactive    → 409
//	container shut down            → 503
//	anything else                  → 500
func (res *Response) Fail(err error) {
	res.Error(StatusFor(err), err.Error())
}

// StatusFor returns the status code Fail uses for err.
func StatusFor(err error) int {
	var bag *validation.Errors
	switch {
	case errors.As(err, &bag):
		return http.StatusUnprocessableEntity
	case errors.Is(err, contexts.ErrNonexistentConversation), errors.Is(err, passivation.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contexts.ErrBusyConversation),
		errors.Is(err, contexts.ErrContextNotActive):
		return http.StatusConflict
	case errors.Is(err, container.ErrShutdown):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
