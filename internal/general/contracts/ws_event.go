package contracts

import "time"

// WSTripStatus mirrors "trip_status_update" messages sent over the
// passenger status stream.
type WSTripStatus struct {
	Type       string       `json:"type"` // "trip_status_update"
	TripID     string       `json:"trip_id"`
	Status     string       `json:"status"`
	Price      *float64     `json:"price,omitempty"`
	DriverInfo *DriverBrief `json:"driver_info,omitempty"`
	Envelope                // allows correlation_id reuse
}

// WSTripOffer mirrors "trip_offer" pushed to on-duty drivers.
type WSTripOffer struct {
	Type             string   `json:"type"` // "trip_offer"
	TripID           string   `json:"trip_id"`
	Origin           GeoPoint `json:"origin"`
	Destination      GeoPoint `json:"destination"`
	Price            float64  `json:"price,omitempty"`
	SendPackage      bool     `json:"send_package,omitempty"`
	EstimatedTripMin int      `json:"estimated_trip_duration_minutes,omitempty"`
	ExpiresAt        string   `json:"expires_at,omitempty"` // ISO-8601
	Envelope
}

// WSTripAccept is the inbound driver frame claiming an offered trip.
type WSTripAccept struct {
	Type   string `json:"type"` // "trip_accept"
	TripID string `json:"trip_id"`
}

// WSLocationUpdate is both the inbound driver position frame and the
// outbound "driver_location_update" pushed to trip watchers.
type WSLocationUpdate struct {
	Type      string    `json:"type"` // "location_update" in, "driver_location_update" out
	TripID    string    `json:"trip_id,omitempty"`
	Location  GeoPoint  `json:"location"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}

// WSDutyStatus acknowledges duty stream state changes to the driver.
type WSDutyStatus struct {
	Type      string    `json:"type"` // "duty_status"
	Status    string    `json:"status"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
