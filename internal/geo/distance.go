package geo

import (
	"errors"
	"fmt"
	"math"
)

// ThresholdMeters is the proximity gate radius.
const ThresholdMeters = 35.0

const earthRadiusMeters = 6371000.0

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, p.Latitude)
	}
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, p.Longitude)
	}
	return nil
}

// Distance returns the great-circle distance in meters.
func Distance(a, b Point) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(dLon/2), 2)
	// rounding can push h just outside [0,1] near antipodes
	h = math.Min(1, math.Max(0, h))
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// WithinRange reports whether user stands inside the store's proximity gate.
func WithinRange(user, store Point) bool {
	return Distance(user, store) <= ThresholdMeters
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
