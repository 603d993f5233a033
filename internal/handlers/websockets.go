package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"todo_api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 2 * time.Second
	maxInterval      = 30 * time.Second
	maxIntervalMilli = 30_000

	wsTypeTodos   = "todos"
	wsTypeRevoked = "revoked"
)

// Envelope used for WebSocket messages.
type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// CORS middleware does not cover the upgrade; origin checks are left to the
// x-auth token, which browsers never attach on their own.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// @Summary      Stream todos
// @Description  Upgrades to WebSocket and pushes {"type":"todos","data":[...]} every interval (?interval=2s or ?interval_ms=2000). The stream ends with a "revoked" message once the session token is logged out.
// @Tags         todos
// @Param        interval     query  string  false  "Push interval, Go duration (max 30s)"
// @Param        interval_ms  query  int     false  "Push interval in milliseconds (max 30000)"
// @Success      101
// @Failure      401
// @Router       /ws/todos [get]
// @Security     TokenAuth
func (h *Handler) wsTodos(c *gin.Context) {
	interval := h.parseInterval(c)
	user := currentUser(c)
	token := currentToken(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Errorw("ws_upgrade_failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine to handle control frames and detect disconnects.
	done := make(chan struct{})
	go h.startReader(conn, done)

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	ctx := c.Request.Context()
	if err := h.sendTodos(ctx, conn, user); err != nil {
		h.log.Infow("ws_write_failed_initial", "err", err)
		return
	}

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.log.Infow("ws_ping_failed", "err", err)
				return
			}
		case <-ticker.C:
			// the session may have been logged out since the upgrade
			if _, err := h.services.Authenticate(ctx, token); err != nil {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteJSON(wsEnvelope{Type: wsTypeRevoked, Error: "session ended"})
				return
			}
			if err := h.sendTodos(ctx, conn, user); err != nil {
				h.log.Infow("ws_write_failed", "err", err)
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}

	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}

	return defaultInterval
}

// startReader drains incoming messages to handle control frames and detect closure.
func (h *Handler) startReader(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.log.Debugw("ws_read_closed", "err", err)
			return
		}
	}
}

func (h *Handler) sendTodos(ctx context.Context, conn *websocket.Conn, user *models.User) error {
	todos, err := h.services.Todos.List(ctx, user.ID)
	if err != nil {
		h.log.Errorw("ws_list_todos_failed", "user", user.ID.Hex(), "err", err)
		return err
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: wsTypeTodos, Data: todos})
}
