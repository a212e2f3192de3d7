package geo

import (
	"errors"
	"fmt"
	"math"
)

const (
	// EarthRadiusKm is the mean Earth radius used for distances.
	EarthRadiusKm = 6371.0

	// EarthRadiusMeters is the sphere radius used for Cartesian positions.
	EarthRadiusMeters = EarthRadiusKm * 1000

	// antipodalEpsilon bounds the norm of the summed unit vectors below which
	// two points are treated as antipodal.
	antipodalEpsilon = 1e-12
)

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrAntipodal         = errors.New("antipodal points have no unique midpoint")
	ErrNoPoints          = errors.New("no points")
)

// Point represents a geographic position in degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the point is a finite, in-range coordinate
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("%w: not a finite number", ErrInvalidCoordinate)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %g out of range [-90, 90]", ErrInvalidCoordinate, p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: longitude %g out of range [-180, 180]", ErrInvalidCoordinate, p.Lon)
	}
	return nil
}

// String formats the point with six decimals
func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lon)
}

// Vector3 is an Earth-centred Cartesian position in meters
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// FromPoint converts a point to a Cartesian position on the sphere
func FromPoint(p Point) Vector3 {
	lat := ToRadians(p.Lat)
	lon := ToRadians(p.Lon)
	return Vector3{
		X: EarthRadiusMeters * math.Cos(lat) * math.Cos(lon),
		Y: EarthRadiusMeters * math.Cos(lat) * math.Sin(lon),
		Z: EarthRadiusMeters * math.Sin(lat),
	}
}

// ToPoint projects the position back onto the sphere and returns its coordinates
func (v Vector3) ToPoint() Point {
	lat := math.Atan2(v.Z, math.Hypot(v.X, v.Y))
	lon := math.Atan2(v.Y, v.X)
	return Point{Lat: ToDegrees(lat), Lon: ToDegrees(lon)}
}

// Lerp linearly interpolates between v and to; t is not clamped
func (v Vector3) Lerp(to Vector3, t float64) Vector3 {
	return Vector3{
		X: v.X + (to.X-v.X)*t,
		Y: v.Y + (to.Y-v.Y)*t,
		Z: v.Z + (to.Z-v.Z)*t,
	}
}

// Distance returns the straight-line distance between two positions
func (v Vector3) Distance(to Vector3) float64 {
	dx := to.X - v.X
	dy := to.Y - v.Y
	dz := to.Z - v.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
