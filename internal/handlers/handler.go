package handlers

import (
	"net/http"

	_ "todo_api/docs"
	"todo_api/internal/logger"
	"todo_api/internal/metrics"
	"todo_api/internal/ratelimit"
	"todo_api/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// authHeader carries the session token on requests and responses.
const authHeader = "x-auth"

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services     *service.Service
	log          *logger.Logger
	metrics      *metrics.Metrics
	loginLimiter *ratelimit.Registry
	corsOrigins  []string
	proxies      []string
}

// Option configures optional Handler collaborators.
type Option func(*Handler)

// WithMetrics records request metrics and serves them on /metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithLoginLimiter throttles POST /users/login per client IP.
func WithLoginLimiter(r *ratelimit.Registry) Option {
	return func(h *Handler) { h.loginLimiter = r }
}

// WithCORS allows browser clients from origins ("*" allows all).
func WithCORS(origins []string) Option {
	return func(h *Handler) { h.corsOrigins = origins }
}

// WithTrustedProxies names the proxies whose X-Forwarded-For sets the client IP.
// Without it only the TCP peer address counts.
func WithTrustedProxies(proxies []string) Option {
	return func(h *Handler) { h.proxies = proxies }
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{services: services, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	// gin.New trusts every proxy; only the configured ones may set the client IP
	if err := router.SetTrustedProxies(h.proxies); err != nil {
		h.log.Errorw("trusted_proxies_invalid", "proxies", h.proxies, "err", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(h.requestLogger, gin.Recovery())

	if h.metrics != nil {
		router.Use(h.observe)
		router.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
	if len(h.corsOrigins) > 0 {
		router.Use(cors.New(h.corsConfig()))
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerUserRoutes(router)
	h.registerTodoRoutes(router)

	// Live todo list for the caller, over WebSocket on the same port
	router.GET("/ws/todos", h.authMiddleware, h.wsTodos)

	return router
}

func (h *Handler) registerUserRoutes(r *gin.Engine) {
	users := r.Group("/users")
	{
		users.POST("", h.signUp)
		users.POST("/login", h.limitLogin, h.signIn)

		me := users.Group("/me", h.authMiddleware)
		me.GET("", h.me)
		me.DELETE("/token", h.signOut)
	}
}

func (h *Handler) registerTodoRoutes(r *gin.Engine) {
	todos := r.Group("/todos", h.authMiddleware)
	{
		todos.POST("", h.createTodo)
		todos.GET("", h.listTodos)
		todos.GET("/:id", h.getTodo)
		todos.PATCH("/:id", h.updateTodo)
		todos.DELETE("/:id", h.deleteTodo)
	}
}

func (h *Handler) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if len(h.corsOrigins) == 1 && h.corsOrigins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = h.corsOrigins
	}
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", authHeader}
	// clients read the session token from the login/registration response
	cfg.ExposeHeaders = []string{authHeader}
	return cfg
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
