package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kai/internal/assistant"
	kerrors "kai/internal/errors"
	"kai/internal/logging"
	"kai/internal/notification"
)

// APIResponse is the envelope of every JSON response.
type APIResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeData(c *gin.Context, status int, message string, data any) {
	c.JSON(status, APIResponse{Success: true, Message: message, Data: data})
}

func writeBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, APIResponse{Success: false, Error: message})
}

// writeError maps domain errors to statuses. Another user's reminder is
// reported as missing.
func writeError(c *gin.Context, logger logging.Logger, err error) {
	status, message := errorStatus(err)
	log := logging.FromContext(c.Request.Context(), logger)
	if status >= http.StatusInternalServerError {
		log.Error("HTTP %d %s: %v", status, c.FullPath(), err)
	} else {
		log.Warn("HTTP %d %s: %v", status, c.FullPath(), err)
	}
	c.JSON(status, APIResponse{Success: false, Error: message})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, notification.ErrNotFound), errors.Is(err, notification.ErrForbidden):
		return http.StatusNotFound, "reminder not found"
	case errors.Is(err, assistant.ErrNothingPending):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, notification.ErrInvalid):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, notification.ErrLimitReached):
		return http.StatusConflict, "maximum number of active reminders reached"
	case kerrors.IsTransient(err):
		return http.StatusServiceUnavailable, kerrors.FormatForUser(err)
	default:
		return http.StatusInternalServerError, kerrors.FormatForUser(err)
	}
}
