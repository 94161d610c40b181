package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"drive-hub/internal/domain/user"
	"drive-hub/internal/general/contracts"
	"drive-hub/internal/pkg/errs"
	"drive-hub/internal/ports"

	"github.com/gorilla/websocket"
)

// StreamDuty serves GET /stream/duty for drivers. Holding this socket IS
// being on duty: opening it starts a duty session and registers the
// driver for trip offers, closing it (either side) ends the registration.
//
// Inbound frames:
//
//	{"type":"trip_accept","data":{"trip_id":"..."}}
//	{"type":"location_update","data":{"location":{"lat":..,"lng":..}}}
func (ws *WebSocket) StreamDuty(w http.ResponseWriter, r *http.Request) {
	conn, claims, ok := ws.authenticate(w, r, 5*time.Second, user.RoleDriver)
	if !ok {
		return
	}
	driverID := claims.Subject
	defer conn.Close()
	defer ws.writeLocks.Delete(conn)

	onDuty, err := ws.dutySvc.GoOnDuty(r.Context(), driverID)
	if err != nil {
		ws.logger.Error(r.Context(), "duty_start_failed", "Failed to go on duty", err,
			map[string]any{"driver_id": driverID})
		if errs.IsInvalidRequest(err) {
			ws.writeError(conn, "not eligible for duty")
		} else {
			ws.writeError(conn, "internal error")
		}
		return
	}

	sub := ws.registry.Register(driverID, onDuty.SessionID)
	defer func() {
		// a stale socket losing the deregister race must leave the duty
		// session to the registration that replaced it
		if !ws.registry.Deregister(driverID, sub) {
			return
		}
		if _, err := ws.dutySvc.GoOffDuty(r.Context(), driverID); err != nil {
			ws.logger.Error(r.Context(), "duty_end_failed", "Failed to go off duty", err,
				map[string]any{"driver_id": driverID})
		}
	}()

	_ = ws.writeJSON(conn, contracts.WSDutyStatus{
		Type:      "duty_status",
		Status:    "ON_DUTY",
		SessionID: onDuty.SessionID,
		Timestamp: time.Now().UTC(),
	})

	ws.logger.Info(r.Context(), "duty_stream_opened", "Driver duty stream opened",
		map[string]any{"driver_id": driverID, "session_id": onDuty.SessionID})

	stop := make(chan struct{})
	defer close(stop)
	go ws.pingLoop(conn, stop)

	// writer: forward trip offers from the registry subscription
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for ev := range sub.C {
			if err := ws.writeJSON(conn, ev.Payload); err != nil {
				_ = conn.Close() // unblock the read loop
				return
			}
		}
	}()

	// reader: route inbound driver frames
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				ws.logger.Error(r.Context(), "ws_unexpected_close", "Driver connection closed unexpectedly", err,
					map[string]any{"driver_id": driverID})
			} else {
				ws.logger.Info(r.Context(), "ws_connection_closed", "Driver connection closed normally",
					map[string]any{"driver_id": driverID})
				ws.wsWriteClose(conn, websocket.CloseNormalClosure, "bye")
			}
			break
		}

		var msg struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			ws.writeError(conn, "bad json")
			continue
		}

		switch msg.Type {
		case "trip_accept":
			if err := ws.handleTripAccept(conn, driverID, msg.Data); err != nil {
				ws.logger.Error(r.Context(), "duty_ws_message_failed", "trip.accept publish failed", err,
					map[string]any{"driver_id": driverID})
				ws.writeError(conn, "failed to submit acceptance")
			}

		case "location_update":
			if err := ws.handleLocationUpdate(r, driverID, msg.Data); err != nil {
				ws.logger.Error(r.Context(), "duty_ws_message_failed", "location update failed", err,
					map[string]any{"driver_id": driverID})
				ws.writeError(conn, "failed to record location")
			}

		default:
			ws.writeError(conn, "unknown message type")
		}
	}

	<-writerDone
}

// handleTripAccept publishes the driver's claim to the accepts queue.
// Claims serialize through the queue consumer, which arbitrates the race
// and answers over the trip status stream.
func (ws *WebSocket) handleTripAccept(conn *websocket.Conn, driverID string, data json.RawMessage) error {
	var in struct {
		TripID string `json:"trip_id"`
	}
	if err := json.Unmarshal(data, &in); err != nil || in.TripID == "" {
		ws.writeError(conn, "trip_id is required")
		return nil
	}

	msg := contracts.TripAcceptMessage{
		TripID:    in.TripID,
		DriverID:  driverID,
		Timestamp: time.Now().UTC(),
		Envelope: contracts.Envelope{
			Producer: "trip-service",
			SentAt:   time.Now().UTC(),
		},
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := ws.pub.Publish(contracts.ExchangeTripTopic, contracts.RouteTripAcceptPrefix+in.TripID, body); err != nil {
		return err
	}

	return ws.writeJSON(conn, map[string]any{
		"type":    "trip_accept_queued",
		"trip_id": in.TripID,
	})
}

// handleLocationUpdate records a position report against the driver's
// active trip.
func (ws *WebSocket) handleLocationUpdate(r *http.Request, driverID string, data json.RawMessage) error {
	var in struct {
		Location contracts.GeoPoint `json:"location"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	err := ws.tripSvc.RecordDriverLocation(r.Context(), ports.LocationUpdateInput{
		DriverID:  driverID,
		Latitude:  in.Location.Lat,
		Longitude: in.Location.Lng,
	})
	if err != nil && !errs.IsNotFound(err) {
		// reports with no active trip are dropped quietly
		return err
	}
	return nil
}
