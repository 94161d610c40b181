package contracts

// Broadcast subject names shared by the stream publishers and the
// WebSocket handlers.

// TripStatusSubject names the status stream of one trip.
func TripStatusSubject(tripID string) string {
	return "trip.status:" + tripID
}

// TripLocationSubject names the driver-location stream of one trip.
func TripLocationSubject(tripID string) string {
	return "trip.location:" + tripID
}
