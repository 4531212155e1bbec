// Package httpx holds the JSON response helpers shared by the read API.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/Micevski239/gerbera-sub000/internal/platform/requestctx"
	"github.com/Micevski239/gerbera-sub000/internal/platform/textutil"
)

// Error is a failed request as reported to clients.
type Error struct {
	Code      string
	Message   string
	Status    int
	Retryable bool
	Details   map[string]any
}

// NewError builds an Error; a zero status means 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{
		Code:    textutil.Clip(code, 80),
		Message: textutil.Clip(message, 512),
		Status:  status,
	}
}

// AsRetryable marks the failure as transient. A retryable 503 carries Retry-After.
func (e Error) AsRetryable() Error {
	e.Retryable = true
	return e
}

// WithDetails returns a copy of e carrying extra top-level envelope fields.
// Keys that collide with the standard fields are dropped when written.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	e.Details = make(map[string]any, len(details))
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

func (e Error) envelope(ctx context.Context) map[string]any {
	body := map[string]any{
		"error":   e.Code,
		"message": e.Message,
		"status":  e.Status,
	}
	if e.Retryable {
		body["retryable"] = true
	}
	if id := textutil.Clip(middleware.GetReqID(ctx), 80); id != "" {
		body["request_id"] = id
	}
	if id := textutil.Clip(requestctx.TraceID(ctx), 64); id != "" {
		body["trace_id"] = id
	}
	for k, v := range e.Details {
		if _, taken := body[k]; !taken {
			body[k] = v
		}
	}
	return body
}

// WriteError writes the error envelope, tagged with the request and trace ids found on ctx.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	if err.Status == 0 {
		err.Status = http.StatusInternalServerError
	}
	if err.Retryable && err.Status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	WriteJSON(w, err.Status, err.envelope(ctx))
}

// WriteJSON encodes payload with the given status. A nil payload writes headers only.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}
