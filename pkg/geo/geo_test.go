package geo

import (
	"math"
	"testing"
)

func TestEquals(t *testing.T) {
	tests := []struct {
		a, b     float64
		expected bool
	}{
		{1, 1, true},
		{1, 1 + 5e-9, true},
		{1, 1 + 1e-7, false},
		{-0.0416666, -0.0416666 - 2e-9, true},
	}

	for _, tc := range tests {
		if got := Equals(tc.a, tc.b); got != tc.expected {
			t.Errorf("Equals(%v, %v) = %v, expected %v", tc.a, tc.b, got, tc.expected)
		}
	}
}

func TestLessThan(t *testing.T) {
	if !LessThan(1, 2) {
		t.Error("LessThan(1, 2) should be true")
	}
	if LessThan(1, 1+1e-9) {
		t.Error("LessThan should be false for values within epsilon")
	}
	if LessThan(2, 1) {
		t.Error("LessThan(2, 1) should be false")
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(5, 0, 1); got != 1 {
		t.Errorf("Clamp(5, 0, 1) = %v, want 1", got)
	}
	if got := Clamp(-5, 0, 1); got != 0 {
		t.Errorf("Clamp(-5, 0, 1) = %v, want 0", got)
	}
	if got := Clamp(0.5, 0, 1); got != 0.5 {
		t.Errorf("Clamp(0.5, 0, 1) = %v, want 0.5", got)
	}
}

func TestLatLonDistances(t *testing.T) {
	equator := LatLonDistances(0)
	if math.Abs(equator.Lat-110574.3) > 1 {
		t.Errorf("latitude degree at equator = %.1f, want ~110574.3", equator.Lat)
	}
	if math.Abs(equator.Lon-111319.5) > 1 {
		t.Errorf("longitude degree at equator = %.1f, want ~111319.5", equator.Lon)
	}

	north := LatLonDistances(45)
	if north.Lon >= equator.Lon {
		t.Errorf("longitude degree should shrink with latitude: %.1f >= %.1f", north.Lon, equator.Lon)
	}
	if north.Lat <= equator.Lat {
		t.Errorf("latitude degree should grow with latitude: %.1f <= %.1f", north.Lat, equator.Lat)
	}
}

func TestDistanceBetween(t *testing.T) {
	d := Distances{Lat: 100, Lon: 100}
	a := Point{Lat: 0, Lon: 0, Elv: 0}
	b := Point{Lat: 0.03, Lon: 0.04, Elv: 0}

	got := DistanceBetween(a, b, d)
	if math.Abs(got-5) > 1e-9 {
		t.Errorf("DistanceBetween() = %v, want 5", got)
	}
}

func TestLineIntersectsTriangle_Center(t *testing.T) {
	t0 := Point{Lat: 0, Lon: 0, Elv: 0}
	t1 := Point{Lat: 0, Lon: 1, Elv: 0}
	t2 := Point{Lat: 1, Lon: 0, Elv: 0}

	a := Point{Lat: 0.25, Lon: 0.25, Elv: 8}
	b := Point{Lat: 0.25, Lon: 0.25, Elv: -8}

	got, ok := LineIntersectsTriangle(a, b, t0, t1, t2)
	if !ok {
		t.Fatal("expected intersection through triangle interior")
	}
	want := Point{Lat: 0.25, Lon: 0.25, Elv: 0}
	if !got.ApproxEqual(want) {
		t.Errorf("intersection = %v, want %v", got, want)
	}
}

func TestLineIntersectsTriangle_Vertex(t *testing.T) {
	t0 := Point{Lat: 0, Lon: 0, Elv: 0}
	t1 := Point{Lat: 0, Lon: 1, Elv: 0}
	t2 := Point{Lat: 1, Lon: 0, Elv: 0}

	// Vertical line through t1: parameters land exactly on r1=1, r2=0.
	a := Point{Lat: 0, Lon: 1, Elv: 8}
	b := Point{Lat: 0, Lon: 1, Elv: -8}

	got, ok := LineIntersectsTriangle(a, b, t0, t1, t2)
	if !ok {
		t.Fatal("line through a vertex should intersect")
	}
	if !got.ApproxEqual(t1) {
		t.Errorf("intersection = %v, want %v", got, t1)
	}
}

func TestLineIntersectsTriangle_Outside(t *testing.T) {
	t0 := Point{Lat: 0, Lon: 0, Elv: 0}
	t1 := Point{Lat: 0, Lon: 1, Elv: 0}
	t2 := Point{Lat: 1, Lon: 0, Elv: 0}

	a := Point{Lat: 0.75, Lon: 0.75, Elv: 8}
	b := Point{Lat: 0.75, Lon: 0.75, Elv: -8}

	if _, ok := LineIntersectsTriangle(a, b, t0, t1, t2); ok {
		t.Error("line past the hypotenuse should miss")
	}
}

func TestLineIntersectsTriangle_Parallel(t *testing.T) {
	t0 := Point{Lat: 0, Lon: 0, Elv: 0}
	t1 := Point{Lat: 0, Lon: 1, Elv: 0}
	t2 := Point{Lat: 1, Lon: 0, Elv: 0}

	// Line in a plane parallel to the triangle: singular matrix.
	a := Point{Lat: 0.1, Lon: 0.1, Elv: 5}
	b := Point{Lat: 0.2, Lon: 0.2, Elv: 5}

	if _, ok := LineIntersectsTriangle(a, b, t0, t1, t2); ok {
		t.Error("parallel line should not intersect")
	}
}

func TestNewElevation(t *testing.T) {
	source := Point{Lat: 0, Lon: 0, Elv: 100}

	// Longitude ratio.
	got := NewElevation(source, Point{Lat: 0, Lon: 2}, Point{Lat: 0, Lon: 1, Elv: -10})
	if got != 80 {
		t.Errorf("NewElevation() by longitude = %v, want 80", got)
	}

	// Latitude ratio when the direction has no longitude component.
	got = NewElevation(source, Point{Lat: 1, Lon: 0}, Point{Lat: 2, Lon: 0, Elv: 4})
	if got != 102 {
		t.Errorf("NewElevation() by latitude = %v, want 102", got)
	}
}
