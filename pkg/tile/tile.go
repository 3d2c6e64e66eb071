// Package tile maps geographic coordinates to elevation tiles and loads their
// data on demand.
package tile

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/topoview/internal/logger"
	"github.com/Faultbox/topoview/pkg/formats"
	"github.com/Faultbox/topoview/pkg/geo"
)

// Size is the angular size of a tile in degrees (2.5 arc minutes).
const Size = 2.5 / 60

// Tile naming errors.
var ErrInvalidTileName = errors.New("invalid tile name")

// Bounds returns the upper-left corner of the tile containing p.
func Bounds(p geo.Point) (left, top float64) {
	left = math.Floor(p.Lon/Size) * Size
	top = math.Ceil(p.Lat/Size) * Size
	return left, top
}

// Name formats the tile whose upper-left corner is (left, top), e.g.
// "2880W1056N". Tile producers use the same convention for file names.
func Name(left, top float64) string {
	leftIndex := int(math.Abs(math.Round(left / Size)))
	leftChar := "E"
	if left < 0 {
		leftChar = "W"
	}
	topIndex := int(math.Abs(math.Round(top / Size)))
	topChar := "S"
	if top > 0 {
		topChar = "N"
	}
	return fmt.Sprintf("%d%s%d%s", leftIndex, leftChar, topIndex, topChar)
}

// ParseName returns the upper-left corner encoded in a tile name.
func ParseName(name string) (left, top float64, err error) {
	var leftIndex, topIndex int
	var leftChar, topChar string
	n, err := fmt.Sscanf(name, "%d%1s%d%1s", &leftIndex, &leftChar, &topIndex, &topChar)
	if err != nil || n != 4 || leftIndex < 0 || topIndex < 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTileName, name)
	}
	left = float64(leftIndex) * Size
	switch leftChar {
	case "E":
	case "W":
		left = -left
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTileName, name)
	}

	top = float64(topIndex) * Size
	switch topChar {
	case "N":
	case "S":
		top = -top
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTileName, name)
	}

	return left, top, nil
}

// Tile is one Size x Size region. Its elevation data is loaded and decoded
// the first time it is needed and never changes afterwards.
type Tile struct {
	Left float64
	Top  float64
	Name string

	source Source

	once      sync.Once
	elevation *formats.Elevation
	err       error
	invalid   bool
}

func newTile(left, top float64, source Source) *Tile {
	return &Tile{
		Left:   left,
		Top:    top,
		Name:   Name(left, top),
		source: source,
	}
}

// Right returns the eastern edge of the tile.
func (t *Tile) Right() float64 {
	return t.Left + Size
}

// Bottom returns the southern edge of the tile.
func (t *Tile) Bottom() float64 {
	return t.Top - Size
}

// Contains reports whether p lies within the tile, edges included.
func (t *Tile) Contains(p geo.Point) bool {
	return (p.Lon >= t.Left || geo.Equals(p.Lon, t.Left)) &&
		(p.Lon <= t.Right() || geo.Equals(p.Lon, t.Right())) &&
		(p.Lat >= t.Bottom() || geo.Equals(p.Lat, t.Bottom())) &&
		(p.Lat <= t.Top || geo.Equals(p.Lat, t.Top))
}

// Invalid reports whether the tile has no elevation data. Invalid tiles never
// contain terrain.
func (t *Tile) Invalid() bool {
	t.load()
	return t.invalid
}

// Elevation returns the decoded elevation data. Tiles without data return
// an error wrapping formats.ErrMissingElevationData; corrupt data returns the
// decode error.
func (t *Tile) Elevation() (*formats.Elevation, error) {
	t.load()
	return t.elevation, t.err
}

// GridPoint returns the grid point nearest to p.
func (t *Tile) GridPoint(p geo.Point) (height, width int) {
	height = int(math.Round((p.Lat - t.Bottom()) / Size * (formats.GridSize - 1)))
	width = int(math.Round((p.Lon - t.Left) / Size * (formats.GridSize - 1)))
	height = min(max(height, 0), formats.GridSize-1)
	width = min(max(width, 0), formats.GridSize-1)
	return height, width
}

// Location returns the coordinates of grid point (height, width).
func (t *Tile) Location(height, width int) geo.Point {
	return geo.Point{
		Lat: t.Bottom() + float64(height)/(formats.GridSize-1)*Size,
		Lon: t.Left + float64(width)/(formats.GridSize-1)*Size,
	}
}

func (t *Tile) load() {
	t.once.Do(func() {
		start := time.Now()

		data, err := t.source.Load(t.Name)
		if err != nil {
			t.invalid = true
			if errors.Is(err, ErrTileNotFound) {
				t.err = fmt.Errorf("tile %s: %w", t.Name, formats.ErrMissingElevationData)
				instrumentTileLoad(resultMissing, start)
				return
			}
			t.err = fmt.Errorf("tile %s: %w: %w", t.Name, formats.ErrMissingElevationData, err)
			logger.Warn("tile source failed", zap.String("tile", t.Name), zap.Error(err))
			instrumentTileLoad(resultError, start)
			return
		}

		elv, err := formats.ParseELV(data)
		if err != nil {
			if errors.Is(err, formats.ErrMissingElevationData) {
				t.invalid = true
				instrumentTileLoad(resultMissing, start)
			} else {
				instrumentTileLoad(resultMalformed, start)
			}
			t.err = fmt.Errorf("tile %s: %w", t.Name, err)
			return
		}

		t.elevation = elv
		instrumentTileLoad(resultOK, start)
		logger.Debug("tile decoded",
			zap.String("tile", t.Name),
			zap.Uint16("max", elv.Max()),
			zap.Duration("took", time.Since(start)))
	})
}
