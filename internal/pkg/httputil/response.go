// Package httputil provides HTTP response helpers and middleware for the
// console gateway.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bissquit/incident-console/internal/domain"
)

// JSON writes a raw JSON response without envelope.
// Use Success for {"data": ...} wrapped responses.
func JSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Envelope is the success body. Demo marks data served from the built-in
// dataset, Provisional marks records that exist only in this process.
type Envelope struct {
	Data        any  `json:"data"`
	Demo        bool `json:"demo,omitempty"`
	Provisional bool `json:"provisional,omitempty"`
}

// Success writes a JSON response with {"data": ...} envelope.
func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Data: data})
}

// Respond writes a full envelope, markers included.
func Respond(w http.ResponseWriter, status int, env Envelope) {
	JSON(w, status, env)
}

type errorBody struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Error writes a JSON response with {"error": {"message": ...}} envelope.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]any{"error": errorBody{Message: message}})
}

// Unauthorized writes a 401 carrying the path to sign in again.
func Unauthorized(w http.ResponseWriter, message string) {
	JSON(w, http.StatusUnauthorized, map[string]any{
		"error": errorBody{Message: message},
		"login": LoginPath,
	})
}

// ValidationError writes a 400 with per-field details when err carries
// them, err.Error() otherwise.
func ValidationError(w http.ResponseWriter, err error) {
	var details any = err.Error()
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		details = verr.Fields
	}
	JSON(w, http.StatusBadRequest, map[string]any{
		"error": errorBody{Message: "validation error", Details: details},
	})
}
