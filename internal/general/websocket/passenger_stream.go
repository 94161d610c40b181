package websocket

import (
	"net/http"
	"time"

	"drive-hub/internal/domain/user"
	"drive-hub/internal/general/contracts"
	"drive-hub/internal/pkg/errs"
	"drive-hub/internal/ports"

	"github.com/gorilla/websocket"
)

// StreamTripStatus serves GET /stream/status for passengers. After auth it
// replays the current state of the passenger's active trip, then forwards
// every status event until the trip reaches a terminal state or the
// client hangs up.
func (ws *WebSocket) StreamTripStatus(w http.ResponseWriter, r *http.Request) {
	conn, claims, ok := ws.authenticate(w, r, 10*time.Second, user.RolePassenger)
	if !ok {
		return
	}
	passengerID := claims.Subject
	defer conn.Close()
	defer ws.writeLocks.Delete(conn)

	active, err := ws.tripSvc.FindActiveForPassenger(r.Context(), passengerID)
	if err != nil {
		if errs.IsNotFound(err) {
			ws.writeError(conn, "no active trip")
			ws.wsWriteClose(conn, websocket.CloseNormalClosure, "no active trip")
			return
		}
		ws.logger.Error(r.Context(), "stream_status_lookup_failed", "Failed to look up active trip", err,
			map[string]any{"passenger_id": passengerID})
		ws.writeError(conn, "internal error")
		return
	}

	sub := ws.streams.Subscribe(contracts.TripStatusSubject(active.TripID))
	defer sub.Cancel()

	// snapshot first, so the client does not depend on catching the
	// next transition to learn where the trip stands
	snapshot := contracts.WSTripStatus{
		Type:   "trip_status_update",
		TripID: active.TripID,
		Status: active.Status,
		Price:  &active.Price,
	}
	if active.DriverID != nil {
		snapshot.DriverInfo = &contracts.DriverBrief{DriverID: *active.DriverID}
	}
	if err := ws.writeJSON(conn, snapshot); err != nil {
		return
	}

	ws.logger.Info(r.Context(), "stream_status_opened", "Passenger status stream opened",
		map[string]any{"passenger_id": passengerID, "trip_id": active.TripID})

	ws.forward(conn, r, sub.C, func() {
		ws.logger.Info(r.Context(), "stream_status_closed", "Passenger status stream closed",
			map[string]any{"passenger_id": passengerID, "trip_id": active.TripID})
	})
}

// StreamTripLocation serves GET /stream/location for either participant
// of a trip. It forwards the assigned driver's position reports for the
// caller's active trip; the active trip is resolved by the token role.
func (ws *WebSocket) StreamTripLocation(w http.ResponseWriter, r *http.Request) {
	conn, claims, ok := ws.authenticate(w, r, 10*time.Second, user.RolePassenger, user.RoleDriver)
	if !ok {
		return
	}
	defer conn.Close()
	defer ws.writeLocks.Delete(conn)

	var active ports.TripResult
	var err error
	if claims.Role.IsDriver() {
		active, err = ws.tripSvc.FindActiveForDriver(r.Context(), claims.Subject)
	} else {
		active, err = ws.tripSvc.FindActiveForPassenger(r.Context(), claims.Subject)
	}
	if err != nil {
		if errs.IsNotFound(err) {
			ws.writeError(conn, "no active trip")
			ws.wsWriteClose(conn, websocket.CloseNormalClosure, "no active trip")
			return
		}
		ws.logger.Error(r.Context(), "stream_location_lookup_failed", "Failed to look up active trip", err,
			map[string]any{"subject": claims.Subject, "role": claims.Role.String()})
		ws.writeError(conn, "internal error")
		return
	}

	sub := ws.streams.Subscribe(contracts.TripLocationSubject(active.TripID))
	defer sub.Cancel()

	// replay the last known position if the driver reported one already
	if active.DriverLocation != nil {
		last := contracts.WSLocationUpdate{
			Type:   "driver_location_update",
			TripID: active.TripID,
			Location: contracts.GeoPoint{
				Lat: active.DriverLocation.Latitude,
				Lng: active.DriverLocation.Longitude,
			},
			Timestamp: time.Now().UTC(),
		}
		if err := ws.writeJSON(conn, last); err != nil {
			return
		}
	}

	ws.logger.Info(r.Context(), "stream_location_opened", "Trip location stream opened",
		map[string]any{"subject": claims.Subject, "role": claims.Role.String(), "trip_id": active.TripID})

	ws.forward(conn, r, sub.C, func() {
		ws.logger.Info(r.Context(), "stream_location_closed", "Trip location stream closed",
			map[string]any{"subject": claims.Subject, "role": claims.Role.String(), "trip_id": active.TripID})
	})
}
