package contracts

import "time"

// TripAcceptMessage is a driver's claim on an open trip, queued so that
// concurrent claims serialize through the accept consumer.
// Routing key: "trip.accept.{trip_id}" on ExchangeTripTopic.
type TripAcceptMessage struct {
	TripID    string    `json:"trip_id"`
	DriverID  string    `json:"driver_id"`
	Timestamp time.Time `json:"timestamp"`
	Envelope
}
