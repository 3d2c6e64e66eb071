// Package pointview renders the terrain as seen from a single point, one ray
// per pixel.
package pointview

import (
	"math"

	"github.com/Faultbox/topoview/pkg/geo"
)

// ViewAngle is a viewing direction. Yaw is measured counterclockwise from
// east, pitch up from the horizon; Radius is half the horizontal field of
// view. All are in radians.
type ViewAngle struct {
	Yaw    float64
	Pitch  float64
	Radius float64
}

// RadiansPerPixel returns the angle covered by one pixel on a frame width
// pixels wide.
func (v ViewAngle) RadiansPerPixel(width int) float64 {
	return 2 / float64(width) * v.Radius
}

// Camera places a view at an eye point on a frame of Width x Height pixels.
type Camera struct {
	Eye    geo.Point
	View   ViewAngle
	Width  int
	Height int

	distances geo.Distances
	rpp       float64
}

// NewCamera creates a Camera.
func NewCamera(eye geo.Point, view ViewAngle, width, height int) *Camera {
	return &Camera{
		Eye:       eye,
		View:      view,
		Width:     width,
		Height:    height,
		distances: geo.LatLonDistances(eye.Lat),
		rpp:       view.RadiansPerPixel(width),
	}
}

// Column returns the horizontal part of the ray direction for pixel column i,
// scaled to 1000 m per step. Column 0 is the left edge.
func (c *Camera) Column(i int) geo.Point {
	yaw := c.View.Yaw + (float64(c.Width)/2-float64(i))*c.rpp
	return geo.Point{
		Lat: math.Sin(yaw) * 1000 / c.distances.Lat,
		Lon: math.Cos(yaw) * 1000 / c.distances.Lon,
	}
}

// Rise returns the elevation change per step for pixel row j, counted from
// the bottom of the frame.
func (c *Camera) Rise(j int) float64 {
	return math.Sin(c.View.Pitch+(float64(j)-float64(c.Height)/2)*c.rpp) * 1000
}

// Distance returns the ground distance in meters from the eye to p.
func (c *Camera) Distance(p geo.Point) float64 {
	return geo.DistanceBetween(c.Eye, p, c.distances)
}
