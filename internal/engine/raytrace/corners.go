package raytrace

import (
	"github.com/Faultbox/topoview/pkg/formats"
	"github.com/Faultbox/topoview/pkg/geo"
)

// cell is the surface patch of one leaf: its four corners, each lowered to the
// smallest value among the leaves sharing it.
type cell struct {
	upperLeft, upperRight geo.Point
	lowerLeft, lowerRight geo.Point
}

func leafCell(elv *formats.Elevation, f *frame) cell {
	leaf := f.node - formats.NumQuadrants
	h := formats.LeafHeight(leaf)
	w := formats.LeafWidth(leaf)

	prevH, nextH := max(h-1, 0), min(h+1, formats.GridSize-1)
	prevW, nextW := max(w-1, 0), min(w+1, formats.GridSize-1)

	n := elv.Nodes[f.node]
	a := elv.Leaf(nextH, prevW)
	b := elv.Leaf(nextH, w)
	c := elv.Leaf(nextH, nextW)
	d := elv.Leaf(h, prevW)
	e := elv.Leaf(h, nextW)
	fl := elv.Leaf(prevH, prevW)
	g := elv.Leaf(prevH, w)
	hl := elv.Leaf(prevH, nextW)

	return cell{
		upperLeft:  geo.Point{Lat: f.top, Lon: f.left, Elv: float64(min(n, a, b, d))},
		upperRight: geo.Point{Lat: f.top, Lon: f.right, Elv: float64(min(n, b, c, e))},
		lowerLeft:  geo.Point{Lat: f.bottom, Lon: f.left, Elv: float64(min(n, d, fl, g))},
		lowerRight: geo.Point{Lat: f.bottom, Lon: f.right, Elv: float64(min(n, e, g, hl))},
	}
}

func (c *cell) minElevation() float64 {
	return min(c.upperLeft.Elv, c.upperRight.Elv, c.lowerLeft.Elv, c.lowerRight.Elv)
}

// intersect returns where the line through a and b crosses the cell surface,
// split along the upper-left to lower-right diagonal.
func (c *cell) intersect(a, b geo.Point) (geo.Point, bool) {
	if p, ok := geo.LineIntersectsTriangle(a, b, c.upperLeft, c.lowerRight, c.upperRight); ok {
		return p, true
	}
	return geo.LineIntersectsTriangle(a, b, c.upperLeft, c.lowerRight, c.lowerLeft)
}

// surfaceAt returns the cell surface elevation below p.
func (c *cell) surfaceAt(p geo.Point) float64 {
	below := geo.Point{Lat: p.Lat, Lon: p.Lon, Elv: p.Elv - 1}
	if hit, ok := c.intersect(p, below); ok {
		return hit.Elv
	}
	// On a diagonal or an edge the strict triangle test can miss.
	return c.minElevation()
}
