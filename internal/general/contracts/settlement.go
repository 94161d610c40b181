package contracts

import "time"

// TripSettlementMessage is published when a trip finishes, for the
// billing side to pick up. Routing key: "trip.settle.{trip_id}".
type TripSettlementMessage struct {
	TripID      string    `json:"trip_id"`
	PassengerID string    `json:"passenger_id"`
	DriverID    string    `json:"driver_id"`
	Price       float64   `json:"price"`
	SendPackage bool      `json:"send_package"`
	FinishedAt  time.Time `json:"finished_at"`
	Envelope
}
