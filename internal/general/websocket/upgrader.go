package websocket

import (
	"net/http"
	"sync"
	"time"

	"drive-hub/internal/broadcast"
	"drive-hub/internal/domain/user"
	"drive-hub/internal/duty"
	"drive-hub/internal/general/jwt"
	"drive-hub/internal/general/logger"
	"drive-hub/internal/ports"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second

	readDeadline = 60 * time.Second
	pingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// WebSocket handles the live stream endpoints with first-frame JWT auth.
type WebSocket struct {
	logger     *logger.Logger
	jwtMgr     *jwt.Manager
	pub        ports.MessagePublisher
	tripSvc    ports.TripService
	dutySvc    ports.DutyService
	registry   *duty.Registry
	streams    *broadcast.Broadcaster
	writeLocks sync.Map // key: *websocket.Conn -> *sync.Mutex
}

// NewWebSocket creates the stream handler.
func NewWebSocket(
	logger *logger.Logger,
	jwtMgr *jwt.Manager,
	pub ports.MessagePublisher,
	tripSvc ports.TripService,
	dutySvc ports.DutyService,
	registry *duty.Registry,
	streams *broadcast.Broadcaster,
) *WebSocket {
	return &WebSocket{
		logger:   logger,
		jwtMgr:   jwtMgr,
		pub:      pub,
		tripSvc:  tripSvc,
		dutySvc:  dutySvc,
		registry: registry,
		streams:  streams,
	}
}

// authenticate upgrades the request and runs first-frame JWT auth against
// the allowed roles. Returns the live connection and the token claims; on
// any failure the connection is already answered and closed.
func (ws *WebSocket) authenticate(w http.ResponseWriter, r *http.Request, authWindow time.Duration, roles ...user.Role) (*websocket.Conn, *jwt.Claims, bool) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return nil, nil, false
	}

	conn.SetReadLimit(1 << 20) // 1 MiB
	if err := conn.SetReadDeadline(time.Now().Add(authWindow)); err != nil {
		ws.logger.Error(r.Context(), "ws_set_deadline_failed", "Failed to set initial read deadline", err, nil)
		ws.sendAuthError(conn, "internal server error")
		ws.discard(conn)
		return nil, nil, false
	}

	msgType, firstFrame, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
			ws.logger.Error(r.Context(), "ws_auth_timeout", "Client disconnected before authentication", err, nil)
		} else {
			ws.logger.Error(r.Context(), "ws_auth_read_failed", "Failed to read auth message", err, nil)
		}
		ws.sendAuthError(conn, "authentication timeout: send auth message first")
		ws.discard(conn)
		return nil, nil, false
	}

	if msgType != websocket.TextMessage {
		ws.logger.Error(r.Context(), "ws_auth_invalid_format", "Auth message must be text format", nil, nil)
		ws.sendAuthError(conn, "auth message must be in text format")
		ws.discard(conn)
		return nil, nil, false
	}

	res, err := jwt.ValidateWSAuth(firstFrame, ws.jwtMgr, roles...)
	if err != nil {
		ws.logger.Error(r.Context(), "ws_auth_failed", "Invalid auth message or token", err, nil)
		ws.sendAuthError(conn, "authentication failed: invalid token")
		ws.discard(conn)
		return nil, nil, false
	}
	claims := res.Claims

	if err := ws.sendAuthSuccess(conn, claims.Role, claims.Subject); err != nil {
		ws.logger.Error(r.Context(), "ws_auth_success_failed", "Failed to send auth success message", err, nil)
		ws.discard(conn)
		return nil, nil, false
	}

	// reset read deadline after auth and keep it fresh on pongs
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	return conn, claims, true
}

// pingLoop sends pings until stop closes or a write fails, in which case
// the socket is closed to unblock the reader.
func (ws *WebSocket) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			mu := ws.lockOf(conn)
			mu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
			mu.Unlock()
			if err != nil {
				_ = conn.Close()
				return
			}
		}
	}
}

// discard closes a connection that never made it past auth.
func (ws *WebSocket) discard(conn *websocket.Conn) {
	ws.writeLocks.Delete(conn)
	_ = conn.Close()
}
