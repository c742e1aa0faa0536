package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/league-app/internal/league"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	http.Error(w, msg, http.StatusBadRequest)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	http.Error(w, msg, http.StatusNotFound)
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	slog.Warn("conflict", "message", msg, "error", err)
	http.Error(w, msg, http.StatusConflict)
}

// DomainError maps the core's typed errors onto HTTP statuses. Anything
// unrecognized is treated as an internal failure.
func DomainError(w http.ResponseWriter, err error) {
	var constraint *league.ConstraintViolationError
	var invalid *league.InvalidResultError

	switch {
	case errors.Is(err, league.ErrNotFound):
		NotFound(w, err.Error(), err)
	case errors.Is(err, league.ErrMatchFinalized), errors.Is(err, league.ErrStateConflict):
		Conflict(w, err.Error(), err)
	case errors.As(err, &constraint):
		Conflict(w, err.Error(), err)
	case errors.As(err, &invalid):
		BadRequest(w, err.Error(), err)
	default:
		InternalServerError(w, "unexpected error", err)
	}
}
