// Package geo provides the spherical geometry used by the halfway client.
//
// The geo package implements:
//   - Great-circle midpoint between two points
//   - Spherical centroid of any number of points
//   - Haversine and angular distances
//   - Time-driven connector animation between two points
//
// Core Types:
//
// Point is a latitude/longitude pair in degrees. Vector3 is an Earth-centred
// Cartesian position on a sphere of radius EarthRadiusMeters; connectors
// interpolate in this space so the animated line grows along the chord the
// renderer draws.
//
// Usage:
//
//	mid, err := geo.Midpoint(geo.Point{Lat: 0, Lon: 0}, geo.Point{Lat: 0, Lon: 90})
//	if err != nil {
//		log.Fatal(err)
//	}
//	// mid is (0, 45)
//
//	c := geo.NewConnector(a, mid, 2*time.Second, time.Now(), true)
//	line := c.Positions(time.Now()) // [start, current endpoint]
//
// Degenerate Inputs:
//
// Antipodal pairs have no unique great-circle midpoint; Midpoint reports
// ErrAntipodal for them instead of returning an arbitrary point.
package geo
