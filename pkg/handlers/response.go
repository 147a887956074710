// Package handlers implements the HTTP surface of workbench-engine.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/labfoundry/workbench-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteServiceError maps a service-layer error onto the HTTP taxonomy:
// Forbidden -> 403, NotFound -> 404, the BadRequest class -> 400,
// anything else -> 500 with the detail kept out of the response body.
func WriteServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var writeErr error
	switch {
	case errors.Is(err, apperrors.ErrForbidden):
		writeErr = ErrorResponse(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		writeErr = ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	case apperrors.IsBadRequestClass(err):
		writeErr = ErrorResponse(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeErr = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
	if writeErr != nil {
		logger.Error("failed to write error response", zap.Error(writeErr))
	}
}
