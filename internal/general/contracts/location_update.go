package contracts

import "time"

// LocationUpdateMessage is broadcast for every driver position report.
// Exchange: ExchangeLocationFanout (fanout, no routing key).
type LocationUpdateMessage struct {
	DriverID  string    `json:"driver_id"`
	TripID    string    `json:"trip_id,omitempty"`
	Location  GeoPoint  `json:"location"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}
