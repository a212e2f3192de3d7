package geo

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMidpoint(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want Point
	}{
		{"equator quarter turn", Point{0, 0}, Point{0, 90}, Point{0, 45}},
		{"same point", Point{48.8566, 2.3522}, Point{48.8566, 2.3522}, Point{48.8566, 2.3522}},
		{"meridian", Point{10, 20}, Point{30, 20}, Point{20, 20}},
		{"across antimeridian", Point{0, 170}, Point{0, -170}, Point{0, 180}},
		{"poles and equator", Point{90, 0}, Point{0, 0}, Point{45, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Midpoint(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Midpoint returned error: %v", err)
			}
			if !almostEqual(got.Lat, tt.want.Lat, 1e-6) || !almostEqual(got.Lon, tt.want.Lon, 1e-6) {
				t.Errorf("Midpoint(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMidpoint_Equidistant(t *testing.T) {
	pairs := [][2]Point{
		{{51.5074, -0.1278}, {40.7128, -74.0060}},
		{{-33.8688, 151.2093}, {35.6762, 139.6503}},
		{{64.1466, -21.9426}, {-34.6037, -58.3816}},
	}

	for _, p := range pairs {
		mid, err := Midpoint(p[0], p[1])
		if err != nil {
			t.Fatalf("Midpoint(%v, %v): %v", p[0], p[1], err)
		}
		da := AngularDistance(p[0], mid)
		db := AngularDistance(p[1], mid)
		if !almostEqual(da, db, 1e-9) {
			t.Errorf("midpoint %v not equidistant: %g vs %g", mid, da, db)
		}
		total := AngularDistance(p[0], p[1])
		if !almostEqual(da+db, total, 1e-9) {
			t.Errorf("midpoint %v not on the great-circle segment: %g + %g != %g", mid, da, db, total)
		}
	}
}

func TestMidpoint_Symmetric(t *testing.T) {
	a := Point{12.5, -45}
	b := Point{-20, 60}

	ab, err := Midpoint(a, b)
	if err != nil {
		t.Fatal(err)
	}
	ba, err := Midpoint(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(ab.Lat, ba.Lat, 1e-9) || !almostEqual(ab.Lon, ba.Lon, 1e-9) {
		t.Errorf("Midpoint not symmetric: %v vs %v", ab, ba)
	}
}

func TestMidpoint_Antipodal(t *testing.T) {
	_, err := Midpoint(Point{0, 0}, Point{0, 180})
	if !errors.Is(err, ErrAntipodal) {
		t.Errorf("expected ErrAntipodal, got %v", err)
	}

	_, err = Midpoint(Point{90, 0}, Point{-90, 0})
	if !errors.Is(err, ErrAntipodal) {
		t.Errorf("expected ErrAntipodal for poles, got %v", err)
	}
}

func TestMidpoint_InvalidCoordinates(t *testing.T) {
	tests := []struct {
		name string
		p    Point
	}{
		{"NaN latitude", Point{math.NaN(), 0}},
		{"latitude above range", Point{91, 0}},
		{"longitude below range", Point{0, -181}},
		{"infinite longitude", Point{0, math.Inf(1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Midpoint(tt.p, Point{0, 0}); !errors.Is(err, ErrInvalidCoordinate) {
				t.Errorf("expected ErrInvalidCoordinate, got %v", err)
			}
		})
	}
}

func TestMidpointRadians(t *testing.T) {
	lat, lon := MidpointRadians(0, 0, 0, math.Pi/2)
	if !almostEqual(lat, 0, eps) || !almostEqual(lon, math.Pi/4, eps) {
		t.Errorf("MidpointRadians = (%g, %g), want (0, pi/4)", lat, lon)
	}
}

func TestCentroid(t *testing.T) {
	t.Run("no points", func(t *testing.T) {
		if _, err := Centroid(nil); !errors.Is(err, ErrNoPoints) {
			t.Errorf("expected ErrNoPoints, got %v", err)
		}
	})

	t.Run("single point", func(t *testing.T) {
		p := Point{10, 20}
		got, err := Centroid([]Point{p})
		if err != nil {
			t.Fatal(err)
		}
		if got != p {
			t.Errorf("Centroid = %v, want %v", got, p)
		}
	})

	t.Run("two points match midpoint", func(t *testing.T) {
		a, b := Point{51.5, -0.1}, Point{48.9, 2.35}
		c, err := Centroid([]Point{a, b})
		if err != nil {
			t.Fatal(err)
		}
		m, _ := Midpoint(a, b)
		if !almostEqual(c.Lat, m.Lat, 1e-9) || !almostEqual(c.Lon, m.Lon, 1e-9) {
			t.Errorf("Centroid %v differs from Midpoint %v", c, m)
		}
	})

	t.Run("symmetric cross", func(t *testing.T) {
		got, err := Centroid([]Point{{0, -10}, {0, 10}, {10, 0}, {-10, 0}})
		if err != nil {
			t.Fatal(err)
		}
		if !almostEqual(got.Lat, 0, 1e-9) || !almostEqual(got.Lon, 0, 1e-9) {
			t.Errorf("Centroid = %v, want (0, 0)", got)
		}
	})

	t.Run("invalid point", func(t *testing.T) {
		if _, err := Centroid([]Point{{0, 0}, {100, 0}}); !errors.Is(err, ErrInvalidCoordinate) {
			t.Errorf("expected ErrInvalidCoordinate, got %v", err)
		}
	})
}

func TestMeetingPoint(t *testing.T) {
	got, err := MeetingPoint([]Point{{0, 0}, {0, 90}})
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(got.Lon, 45, 1e-9) {
		t.Errorf("MeetingPoint = %v, want lon 45", got)
	}

	if _, err := MeetingPoint([]Point{{0, 0}, {0, 180}}); !errors.Is(err, ErrAntipodal) {
		t.Errorf("expected ErrAntipodal, got %v", err)
	}
}

func TestHaversineKm(t *testing.T) {
	// London to Paris is roughly 343.5 km on the 6371 km sphere.
	d := HaversineKm(Point{51.5074, -0.1278}, Point{48.8566, 2.3522})
	if d < 340 || d > 347 {
		t.Errorf("HaversineKm London-Paris = %.1f, want about 343", d)
	}

	if d := HaversineKm(Point{1, 1}, Point{1, 1}); d != 0 {
		t.Errorf("distance to self = %g, want 0", d)
	}

	quarter := HaversineKm(Point{0, 0}, Point{0, 90})
	if !almostEqual(quarter, math.Pi/2*EarthRadiusKm, 1e-6) {
		t.Errorf("quarter circumference = %g", quarter)
	}
}

func TestNormalizeLongitude(t *testing.T) {
	tests := map[float64]float64{
		0:    0,
		180:  180,
		-180: 180,
		190:  -170,
		-190: 170,
		540:  180,
	}
	for in, want := range tests {
		if got := NormalizeLongitude(in); !almostEqual(got, want, 1e-9) {
			t.Errorf("NormalizeLongitude(%g) = %g, want %g", in, got, want)
		}
	}
}
