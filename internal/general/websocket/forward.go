package websocket

import (
	"net/http"
	"time"

	"drive-hub/internal/broadcast"

	"github.com/gorilla/websocket"
)

// forward pumps broadcast events to the client until the stream ends or
// the client hangs up. The read side is drained only to notice the close;
// inbound frames on one-way streams are ignored.
func (ws *WebSocket) forward(conn *websocket.Conn, r *http.Request, events <-chan broadcast.Event, onClose func()) {
	stop := make(chan struct{})
	defer close(stop)
	go ws.pingLoop(conn, stop)

	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer onClose()
	for {
		select {
		case <-clientGone:
			return
		case ev, ok := <-events:
			if !ok {
				// subject terminated; say goodbye cleanly
				ws.wsWriteClose(conn, websocket.CloseNormalClosure, "stream ended")
				return
			}
			if err := ws.writeJSON(conn, ev.Payload); err != nil {
				ws.logger.Error(r.Context(), "ws_forward_failed", "Failed to forward stream event", err, nil)
				return
			}
		}
	}
}
