package geo

import "math"

// WGS-84 ellipsoid axes in meters.
const (
	semiMajorAxis = 6378137.0
	semiMinorAxis = 6356752.3142
)

// Distances holds the length in meters of one degree of latitude and of
// longitude at some latitude.
type Distances struct {
	Lat float64
	Lon float64
}

// LatLonDistances computes the meters per degree of latitude and longitude at
// the given latitude on the WGS-84 ellipsoid.
func LatLonDistances(latDegrees float64) Distances {
	a := semiMajorAxis
	b := semiMinorAxis
	e2 := (a*a - b*b) / (a * a)

	latRadians := DegreesToRadians(latDegrees)
	sinLat := math.Sin(latRadians)
	cosLat := math.Cos(latRadians)
	w := 1 - e2*sinLat*sinLat

	return Distances{
		Lat: math.Pi * a * (1 - e2) / (180 * math.Pow(w, 1.5)),
		Lon: math.Pi * a * cosLat / (180 * math.Sqrt(w)),
	}
}

// DistanceBetween returns the straight-line distance in meters between two
// points, using d to convert degrees.
func DistanceBetween(source, target Point, d Distances) float64 {
	lon := (source.Lon - target.Lon) * d.Lon
	lat := (source.Lat - target.Lat) * d.Lat
	elv := source.Elv - target.Elv
	return math.Sqrt(lon*lon + lat*lat + elv*elv)
}
