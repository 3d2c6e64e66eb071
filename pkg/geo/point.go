// Package geo provides geodetic points, WGS-84 distance helpers and the
// line/triangle primitives used when tracing rays over elevation tiles.
package geo

import (
	"fmt"
	"math"
)

// Epsilon is the absolute tolerance used by Equals.
const Epsilon = 1e-8

// Point is a geodetic position. When used as a ray direction the fields hold
// per-axis slopes in the same mixed units (degrees, degrees, meters).
type Point struct {
	Lat float64 // degrees
	Lon float64 // degrees
	Elv float64 // meters
}

// NewPoint returns a point at the given latitude, longitude and elevation.
func NewPoint(lat, lon, elv float64) Point {
	return Point{Lat: lat, Lon: lon, Elv: elv}
}

// String returns the point as "lat,lon@elv".
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f@%.1fm", p.Lat, p.Lon, p.Elv)
}

// ApproxEqual reports whether all three components are Equals.
func (p Point) ApproxEqual(other Point) bool {
	return Equals(p.Lat, other.Lat) && Equals(p.Lon, other.Lon) && Equals(p.Elv, other.Elv)
}

// Equals compares two values with the absolute tolerance Epsilon.
// Boundary tests along tile and quadrant edges rely on it.
func Equals(a, b float64) bool {
	return math.Abs(a-b) <= Epsilon
}

// LessThan reports a < b where a and b are not Equals.
func LessThan(a, b float64) bool {
	return a < b && !Equals(a, b)
}

// Clamp limits n to [lo, hi].
func Clamp(n, lo, hi float64) float64 {
	return math.Min(math.Max(n, lo), hi)
}

// DegreesToRadians converts degrees to radians.
func DegreesToRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
