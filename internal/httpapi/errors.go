package httpapi

import (
	"errors"
	"net/http"

	"restro-pos/internal/database"
	"restro-pos/internal/logger"
	"restro-pos/internal/models"
)

// StatusFor maps a service error onto an HTTP status and a message safe to return
func StatusFor(err error) (int, string) {
	var verr models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}

// Fail logs err under action and writes the mapped error response
func Fail(w http.ResponseWriter, r *http.Request, log *logger.Logger, action string, err error) {
	requestID := RequestID(r.Context())
	status, message := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(action, "Request failed", requestID, err, map[string]interface{}{"path": r.URL.Path})
	} else {
		log.Warn(action, err.Error(), requestID, map[string]interface{}{"path": r.URL.Path, "status": status})
	}
	WriteError(w, status, message, requestID)
}
