package trip

import (
	"math"

	"drive-hub/internal/domain/geo"
)

// Single-tariff price model: base + distance + time, with a flat surcharge
// when the trip carries a package instead of the passenger's company.
const (
	baseFare         = 2.50
	ratePerKM        = 1.10
	ratePerMinute    = 0.35
	packageSurcharge = 1.75
)

// PriceFor quotes a route using haversine distance and an average-city-speed
// duration estimate. Quotes are only valid for the draft's expiry window.
func PriceFor(origin, destination geo.Location) float64 {
	dst := geo.HaversineKM(origin.Latitude, origin.Longitude, destination.Latitude, destination.Longitude)
	min := EstimateDurationMinutes(dst)
	price := baseFare + ratePerKM*dst + ratePerMinute*float64(min)

	// round to cents
	return math.Round(price*100) / 100
}

// PackagePrice adds the shipment surcharge to a quoted price.
func PackagePrice(price float64) float64 {
	return math.Round((price+packageSurcharge)*100) / 100
}

// EstimateDurationMinutes derives a duration estimate from distance with a
// simple average-city-speed heuristic.
func EstimateDurationMinutes(distanceKM float64) int {
	const avgSpeedKMH = 21.0
	minutes := (distanceKM / avgSpeedKMH) * 60.0

	// ceil to whole minutes
	m := int(math.Ceil(minutes))
	if m < 1 {
		return 1
	}

	return m
}
