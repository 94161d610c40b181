package contracts

import "time"

// TripStatusMessage is published on every trip status transition.
// Routing key: "trip.status.{status}" on ExchangeTripTopic.
type TripStatusMessage struct {
	TripID    string    `json:"trip_id"`
	Status    string    `json:"status"` // CREATED|ACCEPTED|IN_PROGRESS|FINISHED|CANCELLED
	Timestamp time.Time `json:"timestamp"`
	DriverID  string    `json:"driver_id,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	Reason    string    `json:"reason,omitempty"` // set on CANCELLED
	Envelope
}
