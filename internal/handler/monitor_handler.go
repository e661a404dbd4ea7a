package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/classmark/cbt-backend/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	monitorWriteWait  = 10 * time.Second
	monitorPingPeriod = 30 * time.Second
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allow-list permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live audit events to admin dashboards over
// WebSocket. Events arrive via the Redis Pub/Sub channel the audit
// service publishes to, so every server instance sees every event.
type MonitorHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "monitor_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// MonitorStream godoc
// WS /ws/v1/admin/monitor
// Forwards live audit events to the connected admin until either side
// closes.
func (h *MonitorHandler) MonitorStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	sub := h.rdb.Subscribe(ctx, config.WorkerKey.MonitorChannel)
	defer sub.Close()

	h.log.Info().Str("remote", c.ClientIP()).Msg("monitor connected")

	// Reader goroutine: detect client close and control frames.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(monitorPingPeriod)
	defer ping.Stop()

	events := sub.Channel()
	for {
		select {
		case msg, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(monitorWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				h.log.Debug().Err(err).Msg("monitor write failed")
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(monitorWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			h.log.Info().Str("remote", c.ClientIP()).Msg("monitor disconnected")
			return
		case <-ctx.Done():
			return
		}
	}
}
