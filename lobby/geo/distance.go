package geo

import "math"

// ToRadians converts degrees to radians
func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ToDegrees converts radians to degrees
func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// NormalizeLongitude wraps a longitude in degrees into (-180, 180]
func NormalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	lon -= 180
	if lon == -180 {
		return 180
	}
	return lon
}

// AngularDistance returns the central angle between two points in radians
func AngularDistance(a, b Point) float64 {
	lat1, lon1 := ToRadians(a.Lat), ToRadians(a.Lon)
	lat2, lon2 := ToRadians(b.Lat), ToRadians(b.Lon)

	dlat := lat2 - lat1
	dlon := lon2 - lon1
	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	// Rounding can push h just above 1 for near-antipodal pairs.
	h = math.Min(1, math.Max(0, h))
	return 2 * math.Asin(math.Sqrt(h))
}

// HaversineKm returns the great-circle distance between two points in kilometers
func HaversineKm(a, b Point) float64 {
	return AngularDistance(a, b) * EarthRadiusKm
}
