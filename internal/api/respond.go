// Package api exposes the PayMate services over REST.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"paymate/internal/auth"
	"paymate/internal/calculator"
	"paymate/internal/service"
	"paymate/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON serializes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// writeError maps a domain error onto an HTTP status. Unrecognized errors
// become opaque 500s so internal details never leak.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, storage.ErrGroupNotFound),
		errors.Is(err, storage.ErrExpenseNotFound),
		errors.Is(err, storage.ErrTransactionNotFound),
		errors.Is(err, calculator.ErrParticipantNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})

	case errors.Is(err, calculator.ErrInvalidSplitParameters),
		errors.Is(err, calculator.ErrEmptyParticipants),
		errors.Is(err, service.ErrPayerNotParticipant),
		errors.Is(err, service.ErrDuplicateParticipant),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, auth.ErrWeakPassword):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})

	case errors.Is(err, service.ErrNotGroupMember):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})

	case errors.Is(err, auth.ErrEmailExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})

	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})

	default:
		slog.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

// decodeBody parses a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}
