package model

import "math"

const earthRadiusMeters = 6371000

// Location is a latitude/longitude pair recorded with a transaction. The core
// only ever needs the distance between two locations; display text such as a
// reverse-geocoded address is owned by the presentation layer.
type Location struct {
	Latitude  float64
	Longitude float64
}

// NewLocation validates the coordinate ranges.
func NewLocation(latitude, longitude float64) (Location, error) {
	if latitude < -90 || latitude > 90 {
		return Location{}, newValidationError("location", "latitude must be between -90 and 90")
	}
	if longitude < -180 || longitude > 180 {
		return Location{}, newValidationError("location", "longitude must be between -180 and 180")
	}
	return Location{Latitude: latitude, Longitude: longitude}, nil
}

// DistanceTo returns the great-circle distance to other in meters.
func (l Location) DistanceTo(other Location) float64 {
	lat1 := l.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - l.Latitude) * math.Pi / 180
	dLon := (other.Longitude - l.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}
