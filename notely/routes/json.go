package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"notely/notely/controllers"
	"notely/notely/types"
	"notely/notely/utils/logging"

	"go.uber.org/zap"
)

// handleJSON adapts a handler returning (body, status, error) to
// net/http. Errors are mapped to the client-facing error body.
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			writeFailure(w, r, err)
			return
		}
		writeJSON(w, status, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg})
}

func writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, controllers.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, controllers.ErrNoteNotFound):
		writeError(w, http.StatusNotFound, "Note not found")
	case errors.Is(err, controllers.ErrImageNotFound):
		writeError(w, http.StatusNotFound, "Image not found")
	case errors.Is(err, controllers.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.ErrorLogger.Error("request failed",
			zap.String("request_id", logging.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error")
	}
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", controllers.ErrInvalidInput, fmt.Sprintf(format, args...))
}

func parseID(raw, name string) (int, error) {
	if raw == "" {
		return 0, badRequest("%s is required", name)
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, badRequest("%s must be a positive integer", name)
	}
	return id, nil
}
