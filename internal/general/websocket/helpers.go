package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"drive-hub/internal/domain/user"

	"github.com/gorilla/websocket"
)

// wsWriteClose sends a close control frame with the given code and reason.
// The write lock stays registered until the stream handler tears down; the
// ping loop may still be writing control frames after the close goes out.
func (ws *WebSocket) wsWriteClose(conn *websocket.Conn, code int, reason string) {
	mu := ws.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
}

// wsWriteMessage sets a short write deadline and writes a message.
func (ws *WebSocket) wsWriteMessage(conn *websocket.Conn, mt int, payload []byte) error {
	mu := ws.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(mt, payload)
}

// lockOf returns the mutex for a specific connection
func (ws *WebSocket) lockOf(conn *websocket.Conn) *sync.Mutex {
	if v, ok := ws.writeLocks.Load(conn); ok {
		if mu, ok := v.(*sync.Mutex); ok && mu != nil {
			return mu
		}
	}
	mu := &sync.Mutex{}
	actual, _ := ws.writeLocks.LoadOrStore(conn, mu)
	return actual.(*sync.Mutex)
}

// writeJSON marshals v and writes a single TextMessage to the given connection.
func (ws *WebSocket) writeJSON(conn *websocket.Conn, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.wsWriteMessage(conn, websocket.TextMessage, payload)
}

// writeError sends a typed error frame; failures are ignored, the read
// loop will notice a dead connection on its own.
func (ws *WebSocket) writeError(conn *websocket.Conn, msg string) {
	_ = ws.writeJSON(conn, map[string]any{"type": "error", "error": msg})
}

// sendAuthError sends an authentication error message to the client.
func (ws *WebSocket) sendAuthError(conn *websocket.Conn, message string) error {
	return ws.writeJSON(conn, map[string]any{
		"type":    "auth_error",
		"error":   message,
		"success": false,
	})
}

// sendAuthSuccess confirms authentication, echoing the subject under a
// role-specific key.
func (ws *WebSocket) sendAuthSuccess(conn *websocket.Conn, role user.Role, subject string) error {
	msg := map[string]any{
		"type":      "auth_success",
		"message":   "Authentication successful",
		"success":   true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	switch role {
	case user.RoleDriver:
		msg["driver_id"] = subject
	default:
		msg["passenger_id"] = subject
	}
	return ws.writeJSON(conn, msg)
}
