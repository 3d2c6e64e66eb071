package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"github.com/Faultbox/topoview/internal/logger"
	"github.com/Faultbox/topoview/pkg/formats"
	"github.com/Faultbox/topoview/pkg/geo"
	"github.com/Faultbox/topoview/pkg/tile"
)

var errNoData = errors.New("no elevation data")

// tileSummary is the JSON output of the info command.
type tileSummary struct {
	Name   string  `json:"name"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Min    uint16  `json:"min_elevation"`
	Max    uint16  `json:"max_elevation"`
	Bytes  int     `json:"bytes"`
}

type infoCommand struct {
	Args struct {
		Path string `positional-arg-name:"TILE" description:"Tile file (.elv or .zip)"`
	} `positional-args:"yes" required:"yes"`
}

func (c *infoCommand) Execute([]string) error {
	summary, err := summarize(c.Args.Path)
	if err != nil {
		return err
	}
	return writeJSON(os.Stdout, summary)
}

// summarize decodes the tile at path. Its bounds come from the file name.
func summarize(path string) (*tileSummary, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	data, err := tile.DirSource{Dir: filepath.Dir(path)}.Load(name)
	if err != nil {
		return nil, err
	}

	elv, err := formats.ParseELV(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	left, top, err := tile.ParseName(name)
	if err != nil {
		return nil, err
	}

	logger.Debug("tile decoded", zap.String("path", path), zap.Int("bytes", len(data)))

	return &tileSummary{
		Name:   name,
		Left:   left,
		Top:    top,
		Right:  left + tile.Size,
		Bottom: top - tile.Size,
		Min:    elv.Min(),
		Max:    elv.Max(),
		Bytes:  len(data),
	}, nil
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

type heightCommand struct {
	Tiles string `short:"t" long:"tiles" description:"Tile directory" default:"tiles"`
	Args  struct {
		Lat float64 `positional-arg-name:"LAT"`
		Lon float64 `positional-arg-name:"LON"`
	} `positional-args:"yes" required:"yes"`
}

func (c *heightCommand) Execute([]string) error {
	p := geo.Point{Lat: c.Args.Lat, Lon: c.Args.Lon}
	ix := tile.NewIndex(tile.DirSource{Dir: c.Tiles})

	elevation, ok, err := ix.Height(p)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %v (tile %s)", errNoData, p, ix.Lookup(p).Name)
	}

	fmt.Printf("%.0f m (%.0f ft)\n", elevation, elevation*3.28084)
	return nil
}

type synthCommand struct {
	Shape  string `short:"s" long:"shape" description:"Terrain shape" choice:"flat" choice:"cone" default:"cone"`
	Base   uint16 `long:"base" description:"Base elevation in meters" default:"1000"`
	Peak   uint16 `long:"peak" description:"Cone peak elevation in meters" default:"3000"`
	Output string `short:"o" long:"out" description:"Output directory" default:"tiles"`
	Zip    bool   `short:"z" long:"zip" description:"Write a .zip archive instead of a bare .elv file"`
	Args   struct {
		Lat float64 `positional-arg-name:"LAT"`
		Lon float64 `positional-arg-name:"LON"`
	} `positional-args:"yes" required:"yes"`
}

func (c *synthCommand) Execute([]string) error {
	left, top := tile.Bounds(geo.Point{Lat: c.Args.Lat, Lon: c.Args.Lon})
	path, err := writeSynthTile(c.Output, tile.Name(left, top), synthGrid(c.Shape, c.Base, c.Peak), c.Zip)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// synthGrid builds a flat grid at base, or a cone rising from base at the
// tile edge to peak at its center.
func synthGrid(shape string, base, peak uint16) *[formats.GridCells]uint16 {
	var grid [formats.GridCells]uint16
	center := float64(formats.GridSize-1) / 2

	for h := 0; h < formats.GridSize; h++ {
		for w := 0; w < formats.GridSize; w++ {
			v := float64(base)
			if shape == "cone" {
				r := math.Hypot(float64(h)-center, float64(w)-center) / center
				v += (float64(peak) - float64(base)) * math.Max(0, 1-r)
			}
			grid[h*formats.GridSize+w] = uint16(math.Round(geo.Clamp(v, 0, math.MaxUint16)))
		}
	}
	return &grid
}

func writeSynthTile(dir, name string, grid *[formats.GridCells]uint16, zipped bool) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}

	data := formats.MarshalELV(grid)
	path := filepath.Join(dir, name+".elv")

	if zipped {
		var buf bytes.Buffer
		if err := tile.WriteZip(&buf, data); err != nil {
			return "", err
		}
		data = buf.Bytes()
		path = filepath.Join(dir, name+".zip")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	logger.Debug("synthetic tile written", zap.String("path", path), zap.Int("bytes", len(data)))
	return path, nil
}
