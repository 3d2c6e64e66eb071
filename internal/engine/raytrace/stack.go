package raytrace

import (
	"github.com/Faultbox/topoview/pkg/formats"
	"github.com/Faultbox/topoview/pkg/geo"
	"github.com/Faultbox/topoview/pkg/tile"
)

// maxFrames is the deepest the search can go: the tile root plus one frame
// per quadtree level.
const maxFrames = formats.QuadtreeLevels + 1

// Quadrant order matches the quadtree child order (4n+1+q).
const (
	quadLowerLeft = iota
	quadUpperLeft
	quadLowerRight
	quadUpperRight
)

type edge int

const (
	edgeNone edge = iota
	edgeLeft
	edgeRight
	edgeTop
	edgeBottom
)

// frame confines the ray to one axis-aligned box, bound to the quadtree node
// covering it. explored marks children already ruled out.
type frame struct {
	left, right float64
	top, bottom float64
	node        int
	explored    [4]bool
}

func rootFrame(t *tile.Tile) frame {
	return frame{
		left:   t.Left,
		right:  t.Left + tile.Size,
		top:    t.Top,
		bottom: t.Top - tile.Size,
	}
}

// size is the side of the box in degrees; boxes are square.
func (f *frame) size() float64 {
	return f.top - f.bottom
}

func (f *frame) midpoints() (lonMid, latMid float64) {
	half := f.size() / 2
	return f.left + half, f.bottom + half
}

// nextQuadrant returns the first unexplored child containing p, or -1.
// A coordinate within epsilon of a midpoint is on both sides.
func (f *frame) nextQuadrant(p geo.Point) int {
	check := [4]bool{!f.explored[0], !f.explored[1], !f.explored[2], !f.explored[3]}
	lonMid, latMid := f.midpoints()

	if !geo.Equals(p.Lon, lonMid) {
		if p.Lon < lonMid {
			check[quadLowerRight], check[quadUpperRight] = false, false
		} else {
			check[quadLowerLeft], check[quadUpperLeft] = false, false
		}
	}
	if !geo.Equals(p.Lat, latMid) {
		if p.Lat < latMid {
			check[quadUpperLeft], check[quadUpperRight] = false, false
		} else {
			check[quadLowerLeft], check[quadLowerRight] = false, false
		}
	}

	for q, ok := range check {
		if ok {
			return q
		}
	}
	return -1
}

// quadrant returns the frame of child q.
func (f *frame) quadrant(q int) frame {
	lonMid, latMid := f.midpoints()
	child := frame{node: f.node*4 + 1 + q}

	switch q {
	case quadLowerLeft:
		child.left, child.right, child.top, child.bottom = f.left, lonMid, latMid, f.bottom
	case quadUpperLeft:
		child.left, child.right, child.top, child.bottom = f.left, lonMid, f.top, latMid
	case quadLowerRight:
		child.left, child.right, child.top, child.bottom = lonMid, f.right, latMid, f.bottom
	case quadUpperRight:
		child.left, child.right, child.top, child.bottom = lonMid, f.right, f.top, latMid
	}
	return child
}

// exitPoint returns where a ray from source along dir leaves the box.
func (f *frame) exitPoint(source, dir geo.Point) geo.Point {
	lonTarget := f.right
	if dir.Lon < 0 {
		lonTarget = f.left
	}
	latTarget := f.top
	if dir.Lat < 0 {
		latTarget = f.bottom
	}

	var target geo.Point

	// Try the top or bottom side first. A zero latitude slope makes the
	// intersection infinite or NaN, which fails the range test.
	lonIntersect := source.Lon + (latTarget-source.Lat)/dir.Lat*dir.Lon
	if (lonIntersect >= f.left || geo.Equals(lonIntersect, f.left)) &&
		(lonIntersect <= f.right || geo.Equals(lonIntersect, f.right)) {
		target.Lon = lonIntersect
		target.Lat = latTarget
	} else {
		target.Lon = lonTarget
		target.Lat = source.Lat + (lonTarget-source.Lon)/dir.Lon*dir.Lat
	}

	target.Elv = geo.NewElevation(source, target, dir)
	return target
}

// edgeOf returns the side of the box p lies on. Corners resolve in the order
// left, right, top, bottom.
func (f *frame) edgeOf(p geo.Point) edge {
	switch {
	case geo.Equals(p.Lon, f.left):
		return edgeLeft
	case geo.Equals(p.Lon, f.right):
		return edgeRight
	case geo.Equals(p.Lat, f.top):
		return edgeTop
	case geo.Equals(p.Lat, f.bottom):
		return edgeBottom
	}
	return edgeNone
}

// across moves p by step out of the box through every edge it lies on in the
// direction of travel. A corner exit lands in the diagonal neighbor.
func (f *frame) across(p, dir geo.Point, step float64) geo.Point {
	next := p
	switch {
	case dir.Lon < 0 && geo.Equals(p.Lon, f.left):
		next.Lon -= step
	case dir.Lon > 0 && geo.Equals(p.Lon, f.right):
		next.Lon += step
	}
	switch {
	case dir.Lat > 0 && geo.Equals(p.Lat, f.top):
		next.Lat += step
	case dir.Lat < 0 && geo.Equals(p.Lat, f.bottom):
		next.Lat -= step
	}
	return next
}

// searchStack is a fixed-capacity stack of frames local to one trace.
type searchStack struct {
	frames [maxFrames]frame
	depth  int
}

func (s *searchStack) push(f frame) {
	if s.depth == maxFrames {
		panic("raytrace: search stack overflow")
	}
	s.frames[s.depth] = f
	s.depth++
}

func (s *searchStack) pop() {
	s.depth--
}

func (s *searchStack) top() *frame {
	return &s.frames[s.depth-1]
}
