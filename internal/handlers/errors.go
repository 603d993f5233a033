package handlers

import (
	"errors"
	"net/http"

	"todo_api/internal/service"

	"github.com/gin-gonic/gin"
)

// Client-facing error messages.
const (
	errInvalidID          = "Invalid ID"
	errTodoNotFound       = "Todo not found"
	errInternal           = "Internal server error"
	errInvalidCredentials = "invalid credentials"
	errInvalidBodyPref    = "invalid body: "
)

// respondError maps a service error to its HTTP status. Errors outside the
// domain taxonomy get fallback, and are logged under logKey.
func (h *Handler) respondError(c *gin.Context, err error, fallback int, logKey string, kv ...interface{}) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.Is(err, service.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidID})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidCredentials})
	case errors.Is(err, service.ErrUnauthenticated):
		c.AbortWithStatus(http.StatusUnauthorized)
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errTodoNotFound})
	default:
		fields := append([]interface{}{"err", err, "request_id", c.GetString(ctxRequestID)}, kv...)
		h.log.Errorw(logKey, fields...)
		msg := errInternal
		if fallback != http.StatusInternalServerError {
			msg = http.StatusText(fallback)
		}
		c.JSON(fallback, gin.H{"error": msg})
	}
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.log.Infow("bad_request_body", "path", c.Request.URL.Path, "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return false
	}
	return true
}
