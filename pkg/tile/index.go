package tile

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/topoview/pkg/formats"
	"github.com/Faultbox/topoview/pkg/geo"
)

// Index owns every Tile created for a Source. Lookups are idempotent: the
// same tile is returned for every point inside it.
type Index struct {
	source Source

	mu    sync.Mutex
	tiles map[string]*Tile
}

// NewIndex creates an Index over source.
func NewIndex(source Source) *Index {
	return &Index{
		source: source,
		tiles:  make(map[string]*Tile),
	}
}

// Lookup returns the tile containing p, creating it on first use. The tile's
// data is not read until it is queried.
func (ix *Index) Lookup(p geo.Point) *Tile {
	left, top := Bounds(p)
	name := Name(left, top)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	if t, ok := ix.tiles[name]; ok {
		return t
	}
	t := newTile(left, top, ix.source)
	ix.tiles[name] = t
	tilesIndexed.Inc()
	return t
}

// Len returns the number of tiles created so far.
func (ix *Index) Len() int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return len(ix.tiles)
}

// Height returns the elevation of the grid point nearest to p. ok is false
// when the tile has no data.
func (ix *Index) Height(p geo.Point) (elevation float64, ok bool, err error) {
	t := ix.Lookup(p)
	if t.Invalid() {
		return 0, false, nil
	}
	elv, err := t.Elevation()
	if err != nil {
		return 0, false, err
	}
	h, w := t.GridPoint(p)
	return float64(elv.HeightAt(h, w)), true, nil
}

// Preload decodes the tiles containing points using up to workers goroutines.
// Missing tiles are not an error; malformed ones are.
func (ix *Index) Preload(ctx context.Context, points []geo.Point, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	seen := make(map[*Tile]bool)
	for _, p := range points {
		t := ix.Lookup(p)
		if seen[t] {
			continue
		}
		seen[t] = true

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := t.Elevation(); err != nil && !errors.Is(err, formats.ErrMissingElevationData) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
