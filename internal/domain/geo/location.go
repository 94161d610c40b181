package geo

import (
	"errors"
	"math"
	"strings"
)

// Location is a resolvable place: a human-readable address with coordinates.
type Location struct {
	Address   string
	Latitude  float64
	Longitude float64
}

var (
	ErrEmptyAddress     = errors.New("address cannot be empty")
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// NewLocation constructs a validated Location.
func NewLocation(address string, latitude, longitude float64) (Location, error) {
	loc := Location{
		Address:   strings.TrimSpace(address),
		Latitude:  latitude,
		Longitude: longitude,
	}
	if err := loc.Validate(); err != nil {
		return Location{}, err
	}
	return loc, nil
}

// Validate checks invariants of the Location.
func (loc Location) Validate() error {
	if strings.TrimSpace(loc.Address) == "" {
		return ErrEmptyAddress
	}
	if math.IsNaN(loc.Latitude) || loc.Latitude < -90 || loc.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if math.IsNaN(loc.Longitude) || loc.Longitude < -180 || loc.Longitude > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// SamePlace reports whether two locations are effectively the same point.
// Coordinates within ~10 meters count as identical regardless of address text.
func (loc Location) SamePlace(other Location) bool {
	const sameThresholdKM = 0.01
	if strings.EqualFold(strings.TrimSpace(loc.Address), strings.TrimSpace(other.Address)) {
		return true
	}
	return HaversineKM(loc.Latitude, loc.Longitude, other.Latitude, other.Longitude) < sameThresholdKM
}

// HaversineKM computes the great-circle distance in kilometers.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371.0 // Earth radius in km
	a1 := lat1 * math.Pi / 180
	a2 := lat2 * math.Pi / 180
	da := (lat2 - lat1) * math.Pi / 180
	db := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(da/2)*math.Sin(da/2) +
		math.Cos(a1)*math.Cos(a2)*math.Sin(db/2)*math.Sin(db/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
