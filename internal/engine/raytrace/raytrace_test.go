package raytrace

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/topoview/pkg/formats"
	"github.com/Faultbox/topoview/pkg/geo"
	"github.com/Faultbox/topoview/pkg/tile"
)

const leafSize = tile.Size / formats.GridSize

func flatGrid(elevation uint16) *[formats.GridCells]uint16 {
	var grid [formats.GridCells]uint16
	for i := range grid {
		grid[i] = elevation
	}
	return &grid
}

// wallGrid is flat at 100 m with a 5000 m wall over columns 120 to 135.
func wallGrid() *[formats.GridCells]uint16 {
	grid := flatGrid(100)
	for h := 0; h < formats.GridSize; h++ {
		for w := 120; w <= 135; w++ {
			grid[h*formats.GridSize+w] = 5000
		}
	}
	return grid
}

// world builds an index over a memory source and stores grid for the tile
// containing p.
type world struct {
	mem *tile.MemorySource
	ix  *tile.Index
}

func newWorld() *world {
	mem := tile.NewMemorySource()
	return &world{mem: mem, ix: tile.NewIndex(mem)}
}

func (w *world) put(p geo.Point, grid *[formats.GridCells]uint16) *tile.Tile {
	left, top := tile.Bounds(p)
	w.mem.Put(tile.Name(left, top), formats.MarshalELV(grid))
	return w.ix.Lookup(p)
}

var home = geo.Point{Lat: 43.99, Lon: -119.98}

func TestTrace_StraightDownOnFlatTile(t *testing.T) {
	w := newWorld()
	tl := w.put(home, flatGrid(1000))

	origin := geo.Point{Lat: tl.Top - tile.Size/2, Lon: tl.Left + tile.Size/2, Elv: 2000}
	hit, ok, err := New(w.ix).Trace(origin, geo.Point{Elv: -1})

	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 1000, hit.Elv, 1e-6)
	require.Equal(t, origin.Lat, hit.Lat)
	require.Equal(t, origin.Lon, hit.Lon)
}

func TestTrace_SteepDescentOnFlatTile(t *testing.T) {
	w := newWorld()
	tl := w.put(home, flatGrid(1000))

	origin := geo.Point{Lat: tl.Top - tile.Size/2, Lon: tl.Left + tile.Size/2, Elv: 2000}
	dir := geo.Point{Lat: 0.0001, Lon: 0.0001, Elv: -1000}
	hit, ok, err := New(w.ix).Trace(origin, dir)

	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, 1000, hit.Elv, 1e-6)
	require.InDelta(t, origin.Lat+0.0001, hit.Lat, 1e-9)
	require.InDelta(t, origin.Lon+0.0001, hit.Lon, 1e-9)
}

func TestTrace_VerticalRays(t *testing.T) {
	w := newWorld()
	tl := w.put(home, flatGrid(1000))
	tr := New(w.ix)

	at := func(elv float64) geo.Point {
		return geo.Point{Lat: tl.Top - tile.Size/3, Lon: tl.Left + tile.Size/3, Elv: elv}
	}

	_, ok, err := tr.Trace(at(2000), geo.Point{Elv: 1})
	require.NoError(t, err)
	require.False(t, ok, "looking up from above the ground")

	hit, ok, err := tr.Trace(at(500), geo.Point{Elv: 1})
	require.NoError(t, err)
	require.True(t, ok, "looking up from underground")
	require.Equal(t, at(500), hit)

	hit, ok, err = tr.Trace(at(500), geo.Point{Elv: -1})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, at(500), hit)
}

func TestTrace_GrazingMissIntoMissingTile(t *testing.T) {
	w := newWorld()
	tl := w.put(home, flatGrid(1000))

	origin := geo.Point{Lat: tl.Top - tile.Size/2, Lon: tl.Left + tile.Size/2, Elv: 2000}
	_, ok, err := New(w.ix).Trace(origin, geo.Point{Lon: 0.001})

	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, 2, w.ix.Len(), "the eastern neighbor is consulted")
}

func TestTrace_OriginInMissingTile(t *testing.T) {
	w := newWorld()

	_, ok, err := New(w.ix).Trace(home, geo.Point{Lat: 0.001, Elv: -1})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTrace_HitInNeighborTile(t *testing.T) {
	w := newWorld()
	a := w.put(home, flatGrid(0))
	b := w.put(geo.Point{Lat: home.Lat, Lon: a.Right() + tile.Size/2}, flatGrid(1000))

	// Descends 5 m per 0.001 degree: 1045.8 m at the shared edge, 1000 m
	// about 0.00917 degrees into the eastern tile.
	origin := geo.Point{Lat: a.Top - 0.3*tile.Size, Lon: a.Left + tile.Size/2, Elv: 1150}
	dir := geo.Point{Lon: 0.001, Elv: -5}

	hit, ok, err := New(w.ix).Trace(origin, dir)
	require.NoError(t, err)
	require.True(t, ok)

	wantLon := origin.Lon + (origin.Elv-1000)/5*0.001
	require.InDelta(t, wantLon, hit.Lon, leafSize)
	require.InDelta(t, 1000, hit.Elv, 1)
	require.InDelta(t, origin.Lat, hit.Lat, 1e-9)
	require.True(t, b.Contains(hit))
	require.False(t, a.Contains(hit))
}

func TestTrace_CornerExitIntoDiagonalTile(t *testing.T) {
	w := newWorld()
	a := w.put(home, flatGrid(0))
	south := a.Top - 1.5*tile.Size
	west := a.Left - tile.Size/2
	w.put(geo.Point{Lat: home.Lat, Lon: west}, flatGrid(0))
	w.put(geo.Point{Lat: south, Lon: home.Lon}, flatGrid(0))
	w.put(geo.Point{Lat: south, Lon: west}, flatGrid(5000))

	// Aimed exactly at the south-west corner of the home tile.
	origin := geo.Point{Lat: a.Top - tile.Size/2, Lon: a.Left + tile.Size/2, Elv: 3000}
	dir := geo.Point{Lat: -0.001, Lon: -0.001, Elv: -1}

	hit, ok, err := New(w.ix, WithMaxTileCrossings(50)).Trace(origin, dir)
	require.NoError(t, err)
	require.True(t, ok)
	require.InDelta(t, a.Top-tile.Size, hit.Lat, 1e-7)
	require.InDelta(t, a.Left, hit.Lon, 1e-7)
	require.InDelta(t, 3000-tile.Size/2/0.001, hit.Elv, 1e-3)
}

func TestTrace_SlopedRayFromUnderground(t *testing.T) {
	w := newWorld()
	tl := w.put(home, flatGrid(1000))

	origin := geo.Point{Lat: tl.Top - tile.Size/3, Lon: tl.Left + tile.Size/3, Elv: 500}
	hit, ok, err := New(w.ix).Trace(origin, geo.Point{Lat: 0.001, Lon: 0.001, Elv: -1})

	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, origin, hit)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

// leafFrameAt descends from the root of tl to the leaf under p.
func leafFrameAt(tl *tile.Tile, p geo.Point) frame {
	f := rootFrame(tl)
	for !formats.IsLeaf(f.node) {
		f = f.quadrant(f.nextQuadrant(p))
	}
	return f
}

func TestResolveLeaf_TargetBelowCornersKeepsSearching(t *testing.T) {
	w := newWorld()
	tl := w.put(home, flatGrid(1000))
	elv, err := tl.Elevation()
	require.NoError(t, err)

	source := geo.Point{Lat: tl.Top - tile.Size/3, Lon: tl.Left + tile.Size/3, Elv: 1500}
	f := leafFrameAt(tl, source)

	// The line meets the surface far outside this leaf.
	target := geo.Point{Lat: source.Lat + 10*tile.Size, Lon: source.Lon, Elv: 900}

	before := counterValue(t, unresolvedLeaves)
	_, ok := resolveLeaf(elv, &f, source, target)
	require.False(t, ok)
	require.Equal(t, before+1, counterValue(t, unresolvedLeaves))

	// A target above the corners is an ordinary miss.
	target.Elv = 1200
	_, ok = resolveLeaf(elv, &f, source, target)
	require.False(t, ok)
	require.Equal(t, before+1, counterValue(t, unresolvedLeaves))
}

func TestTrace_HitsWallFace(t *testing.T) {
	w := newWorld()
	tl := w.put(home, wallGrid())

	origin := geo.Point{Lat: tl.Top - 0.3*tile.Size, Lon: tl.Left + 0.1*tile.Size, Elv: 1000}
	hit, ok, err := New(w.ix).Trace(origin, geo.Point{Lon: 0.001})

	require.NoError(t, err)
	require.True(t, ok)

	// The leaf at column 120 rises from 100 m on its west edge to 5000 m on
	// its east edge.
	wantLon := tl.Left + (120+900.0/4900)*leafSize
	require.InDelta(t, wantLon, hit.Lon, 1e-7)
	require.InDelta(t, 1000, hit.Elv, 1e-3)
	require.InDelta(t, origin.Lat, hit.Lat, 1e-9)
}

func TestTrace_RayOverWallFromAbove(t *testing.T) {
	w := newWorld()
	tl := w.put(home, wallGrid())

	origin := geo.Point{Lat: tl.Top - 0.3*tile.Size, Lon: tl.Left + 0.1*tile.Size, Elv: 6000}
	_, ok, err := New(w.ix).Trace(origin, geo.Point{Lon: 0.001})

	require.NoError(t, err)
	require.False(t, ok)
}

func TestTrace_MalformedTile(t *testing.T) {
	w := newWorld()
	left, top := tile.Bounds(home)
	w.mem.Put(tile.Name(left, top), []byte{127, 127, 0xff})

	_, ok, err := New(w.ix).Trace(home, geo.Point{Lat: 0.001, Elv: -1})
	require.ErrorIs(t, err, formats.ErrTruncatedElevationData)
	require.False(t, ok)
}

// everywhere serves the same tile for every name.
type everywhere struct {
	data  []byte
	mu    sync.Mutex
	loads int
}

func (s *everywhere) Load(string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	return s.data, nil
}

func TestTrace_TileCrossingLimit(t *testing.T) {
	src := &everywhere{data: formats.MarshalELV(flatGrid(100))}
	ix := tile.NewIndex(src)

	origin := geo.Point{Lat: home.Lat, Lon: home.Lon, Elv: 500}
	_, ok, err := New(ix, WithMaxTileCrossings(5)).Trace(origin, geo.Point{Lat: 0.001, Lon: 0.002, Elv: 1})

	require.NoError(t, err)
	require.False(t, ok)
	require.LessOrEqual(t, src.loads, 6)
}

func TestTrace_Concurrent(t *testing.T) {
	w := newWorld()
	tl := w.put(home, wallGrid())
	tr := New(w.ix)

	origin := geo.Point{Lat: tl.Top - 0.3*tile.Size, Lon: tl.Left + 0.1*tile.Size, Elv: 1000}
	want, ok, err := tr.Trace(origin, geo.Point{Lon: 0.001})
	require.NoError(t, err)
	require.True(t, ok)

	var wg sync.WaitGroup
	results := make([]geo.Point, 32)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _, _ = tr.Trace(origin, geo.Point{Lon: 0.001})
		}()
	}
	wg.Wait()

	for _, got := range results {
		require.Equal(t, want, got)
	}
}
