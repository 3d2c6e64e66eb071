// Package raytrace casts rays against tiled elevation data.
//
// A trace walks each tile's max-elevation quadtree with an explicit stack of
// boxes. A box is entered only when the ray dips to or below the box maximum
// somewhere inside it; leaves are resolved against two triangles spanning
// their corners. When the ray leaves a tile through its root box the search
// restarts in the neighboring tile.
package raytrace

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Faultbox/topoview/internal/logger"
	"github.com/Faultbox/topoview/pkg/formats"
	"github.com/Faultbox/topoview/pkg/geo"
	"github.com/Faultbox/topoview/pkg/tile"
)

// ErrBadTarget is returned when a box exit point lies on none of its edges.
var ErrBadTarget = errors.New("exit point is not on the search box")

// DefaultMaxTileCrossings bounds how far a ray travels across valid tiles.
const DefaultMaxTileCrossings = 4096

// TileProvider resolves the tile containing a point. *tile.Index implements
// it.
type TileProvider interface {
	Lookup(p geo.Point) *tile.Tile
}

// Tracer intersects rays with the terrain served by a TileProvider. It holds
// no per-trace state and is safe for concurrent use.
type Tracer struct {
	tiles            TileProvider
	maxTileCrossings int
}

// Option configures a Tracer.
type Option func(*Tracer)

// WithMaxTileCrossings stops a trace with no hit after n tile crossings.
// Values below one leave the default in place.
func WithMaxTileCrossings(n int) Option {
	return func(tr *Tracer) {
		if n > 0 {
			tr.maxTileCrossings = n
		}
	}
}

// New creates a Tracer over tiles.
func New(tiles TileProvider, opts ...Option) *Tracer {
	tr := &Tracer{
		tiles:            tiles,
		maxTileCrossings: DefaultMaxTileCrossings,
	}
	for _, opt := range opts {
		opt(tr)
	}
	return tr
}

// Trace follows the ray from origin along direction and returns the first
// terrain point it meets. direction is a displacement per unit step in
// degrees of latitude and longitude and meters of elevation; its magnitude
// does not matter. ok is false when the ray reaches a tile without data.
func (tr *Tracer) Trace(origin, direction geo.Point) (hit geo.Point, ok bool, err error) {
	if geo.Equals(direction.Lon, 0) && geo.Equals(direction.Lat, 0) {
		hit, ok, err = tr.traceVertical(origin, direction)
	} else {
		hit, ok, err = tr.trace(origin, direction)
	}
	instrumentTrace(ok, err)
	return hit, ok, err
}

func (tr *Tracer) trace(origin, dir geo.Point) (geo.Point, bool, error) {
	t := tr.tiles.Lookup(origin)
	elv, err := tileElevation(t)
	if elv == nil {
		return geo.Point{}, false, err
	}

	var stack searchStack
	stack.push(rootFrame(t))

	source := origin
	crossings := 0

	for {
		f := stack.top()
		target := f.exitPoint(source, dir)

		if float64(elv.Nodes[f.node]) >= math.Min(source.Elv, target.Elv) {
			if formats.IsLeaf(f.node) {
				if hit, ok := resolveLeaf(elv, f, source, target); ok {
					return hit, true, nil
				}
			} else if q := f.nextQuadrant(source); q >= 0 {
				f.explored[q] = true
				stack.push(f.quadrant(q))
				continue
			}
		}

		// Nothing left in this box; continue from where the ray leaves it.
		source = target
		if f.edgeOf(target) == edgeNone {
			return geo.Point{}, false, fmt.Errorf("%w: %v leaving [%v %v] x [%v %v]",
				ErrBadTarget, target, f.left, f.right, f.bottom, f.top)
		}

		if f.node != 0 {
			stack.pop()
			continue
		}

		next := f.across(target, dir, f.size()/2)
		if next == target {
			return geo.Point{}, false, fmt.Errorf("%w: %v does not leave [%v %v] x [%v %v] along %v",
				ErrBadTarget, target, f.left, f.right, f.bottom, f.top, dir)
		}
		stack.pop()

		crossings++
		if crossings > tr.maxTileCrossings {
			logger.Debug("ray exceeded tile crossing limit",
				zap.Stringer("origin", origin),
				zap.Int("crossings", crossings))
			return geo.Point{}, false, nil
		}

		t = tr.tiles.Lookup(next)
		elv, err = tileElevation(t)
		if elv == nil {
			return geo.Point{}, false, err
		}
		tileCrossings.Inc()
		stack.push(rootFrame(t))
	}
}

// resolveLeaf tests the segment source-target against the leaf surface.
func resolveLeaf(elv *formats.Elevation, f *frame, source, target geo.Point) (geo.Point, bool) {
	c := leafCell(elv, f)
	if hit, ok := c.intersect(source, target); ok {
		return hit, true
	}

	lowest := c.minElevation()
	if source.Elv <= lowest {
		return source, true
	}
	if target.Elv <= lowest {
		unresolvedLeaves.Inc()
		logger.Debug("ray left leaf below its corners without a triangle hit",
			zap.Int("node", f.node),
			zap.Stringer("source", source),
			zap.Stringer("target", target))
	}
	return geo.Point{}, false
}

// traceVertical resolves a ray with no horizontal component in the leaf cell
// under the origin.
func (tr *Tracer) traceVertical(origin, dir geo.Point) (geo.Point, bool, error) {
	t := tr.tiles.Lookup(origin)
	elv, err := tileElevation(t)
	if elv == nil {
		return geo.Point{}, false, err
	}

	f := rootFrame(t)
	for !formats.IsLeaf(f.node) {
		f = f.quadrant(f.nextQuadrant(origin))
	}

	c := leafCell(elv, &f)
	surface := c.surfaceAt(origin)

	switch {
	case origin.Elv <= surface:
		return origin, true, nil
	case dir.Elv < 0:
		return geo.Point{Lat: origin.Lat, Lon: origin.Lon, Elv: surface}, true, nil
	}
	return geo.Point{}, false, nil
}

// tileElevation returns nil without an error for tiles that have no data.
func tileElevation(t *tile.Tile) (*formats.Elevation, error) {
	if t == nil || t.Invalid() {
		return nil, nil
	}
	elv, err := t.Elevation()
	if err != nil {
		return nil, fmt.Errorf("tracing through tile %s: %w", t.Name, err)
	}
	return elv, nil
}
