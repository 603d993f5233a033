package handlers

import (
	"errors"
	"net/http"
	"time"

	"todo_api/internal/models"
	"todo_api/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Gin context keys set by the middleware.
const (
	ctxUser      = "user"
	ctxToken     = "token"
	ctxRequestID = "requestId"

	requestIDHeader = "X-Request-ID"
)

// authMiddleware resolves the x-auth token to a user or aborts with 401 and no body.
func (h *Handler) authMiddleware(c *gin.Context) {
	token := c.GetHeader(authHeader)
	if token == "" {
		h.authFailed(c, "missing_token", nil)
		return
	}

	user, err := h.services.Authenticate(c.Request.Context(), token)
	if err != nil {
		reason := "invalid_token"
		if !errors.Is(err, service.ErrUnauthenticated) {
			reason = "lookup_failed"
		}
		h.authFailed(c, reason, err)
		return
	}

	// store in Gin context
	c.Set(ctxUser, user)
	c.Set(ctxToken, token)
	c.Next()
}

func (h *Handler) authFailed(c *gin.Context, reason string, err error) {
	if h.metrics != nil {
		h.metrics.AuthFailure(reason)
	}
	if reason == "lookup_failed" {
		h.log.Errorw("auth_lookup_failed", "path", c.Request.URL.Path, "err", err)
	} else {
		h.log.Infow("auth_rejected", "reason", reason, "path", c.Request.URL.Path, "err", err)
	}
	c.AbortWithStatus(http.StatusUnauthorized)
}

// currentUser returns the user attached by authMiddleware.
func currentUser(c *gin.Context) *models.User {
	u, _ := c.Get(ctxUser)
	user, _ := u.(*models.User)
	return user
}

func currentToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}

// requestLogger tags each request with an id and logs it once it completes.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	id := requestID(c.GetHeader(requestIDHeader))
	c.Set(ctxRequestID, id)
	c.Header(requestIDHeader, id)

	c.Next()

	status := c.Writer.Status()
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", status,
		"latency", time.Since(start),
		"request_id", id,
	}
	if status >= http.StatusInternalServerError {
		h.log.Errorw("http_request", fields...)
		return
	}
	h.log.Infow("http_request", fields...)
}

// requestID keeps an inbound id only if it is a UUID; anything else is replaced.
func requestID(inbound string) string {
	if parsed, err := uuid.Parse(inbound); err == nil {
		return parsed.String()
	}
	return uuid.NewString()
}

// observe feeds request metrics, labelled by route pattern to keep cardinality bounded.
func (h *Handler) observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	h.metrics.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
}

// limitLogin rejects login bursts from one client IP with 429.
func (h *Handler) limitLogin(c *gin.Context) {
	if h.loginLimiter == nil {
		c.Next()
		return
	}
	if !h.loginLimiter.Allow(c.ClientIP()) {
		if h.metrics != nil {
			h.metrics.AuthFailure("throttled")
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
		return
	}
	c.Next()
}
