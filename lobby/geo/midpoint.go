package geo

import "math"

// MidpointRadians returns the great-circle midpoint of two points given in radians.
// The result longitude is not normalized and antipodal inputs are not detected.
func MidpointRadians(lat1, lon1, lat2, lon2 float64) (lat, lon float64) {
	bx := math.Cos(lat2) * math.Cos(lon2-lon1)
	by := math.Cos(lat2) * math.Sin(lon2-lon1)

	lat = math.Atan2(
		math.Sin(lat1)+math.Sin(lat2),
		math.Sqrt((math.Cos(lat1)+bx)*(math.Cos(lat1)+bx)+by*by),
	)
	lon = lon1 + math.Atan2(by, math.Cos(lat1)+bx)
	return lat, lon
}

// Midpoint returns the point on the great-circle segment equidistant from a and b.
func Midpoint(a, b Point) (Point, error) {
	if err := a.Validate(); err != nil {
		return Point{}, err
	}
	if err := b.Validate(); err != nil {
		return Point{}, err
	}

	lat1, lon1 := ToRadians(a.Lat), ToRadians(a.Lon)
	lat2, lon2 := ToRadians(b.Lat), ToRadians(b.Lon)

	// |u1 + u2| expressed in the frame rotated to lon1; zero only for antipodes.
	bx := math.Cos(lat2) * math.Cos(lon2-lon1)
	by := math.Cos(lat2) * math.Sin(lon2-lon1)
	sx := math.Cos(lat1) + bx
	sz := math.Sin(lat1) + math.Sin(lat2)
	if math.Sqrt(sx*sx+by*by+sz*sz) < antipodalEpsilon {
		return Point{}, ErrAntipodal
	}

	lat, lon := MidpointRadians(lat1, lon1, lat2, lon2)
	return Point{Lat: ToDegrees(lat), Lon: NormalizeLongitude(ToDegrees(lon))}, nil
}

// Centroid returns the spherical centroid of the points by averaging unit vectors.
// A single point is returned unchanged.
func Centroid(points []Point) (Point, error) {
	switch len(points) {
	case 0:
		return Point{}, ErrNoPoints
	case 1:
		if err := points[0].Validate(); err != nil {
			return Point{}, err
		}
		return points[0], nil
	}

	var x, y, z float64
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return Point{}, err
		}
		lat, lon := ToRadians(p.Lat), ToRadians(p.Lon)
		x += math.Cos(lat) * math.Cos(lon)
		y += math.Cos(lat) * math.Sin(lon)
		z += math.Sin(lat)
	}

	n := float64(len(points))
	x, y, z = x/n, y/n, z/n
	if math.Sqrt(x*x+y*y+z*z) < antipodalEpsilon {
		return Point{}, ErrAntipodal
	}

	lat := math.Atan2(z, math.Sqrt(x*x+y*y))
	lon := math.Atan2(y, x)
	return Point{Lat: ToDegrees(lat), Lon: ToDegrees(lon)}, nil
}

// MeetingPoint mirrors how the lobby service derives its geometric midpoint:
// the great-circle midpoint for two points, the centroid otherwise.
func MeetingPoint(points []Point) (Point, error) {
	if len(points) == 2 {
		return Midpoint(points[0], points[1])
	}
	return Centroid(points)
}
