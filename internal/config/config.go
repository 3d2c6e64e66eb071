// Package config handles terrainview configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/Faultbox/topoview/internal/logger"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all terrainview settings.
type Config struct {
	View    ViewConfig    `yaml:"view"`
	Render  RenderConfig  `yaml:"render"`
	Tiles   TilesConfig   `yaml:"tiles"`
	Logging LoggingConfig `yaml:"logging"`
}

// ViewConfig places the eye. Angles are in degrees.
type ViewConfig struct {
	Lat       float64 `yaml:"lat"`
	Lon       float64 `yaml:"lon"`
	Elevation float64 `yaml:"elevation"` // meters
	Clearance float64 `yaml:"clearance"` // meters above the ground, used when elevation is 0
	Yaw       float64 `yaml:"yaw"`       // counterclockwise from east
	Pitch     float64 `yaml:"pitch"`     // up from the horizon
	FOV       float64 `yaml:"fov"`       // horizontal field of view
}

// RenderConfig holds frame settings.
type RenderConfig struct {
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	Workers          int     `yaml:"workers"`
	MaxTileCrossings int     `yaml:"max_tile_crossings"`
	Output           string  `yaml:"output"`
	OutputWidth      int     `yaml:"output_width"` // scale the frame when set
	OutputHeight     int     `yaml:"output_height"`
	Quality          float32 `yaml:"quality"` // WebP quality, 0 for lossless
}

// TilesConfig holds tile data settings.
type TilesConfig struct {
	Dir            string `yaml:"dir"`
	Preload        bool   `yaml:"preload"`
	PreloadWorkers int    `yaml:"preload_workers"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		View: ViewConfig{
			Lat:       43.99,
			Lon:       -119.98,
			Clearance: 2,
			FOV:       57.3,
		},
		Render: RenderConfig{
			Width:   640,
			Height:  400,
			Output:  "view.png",
			Quality: 85,
		},
		Tiles: TilesConfig{
			Dir: "tiles",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: logger.FormatConsole,
		},
	}
}

// Radians returns the view direction and half field of view in radians.
func (v ViewConfig) Radians() (yaw, pitch, radius float64) {
	return v.Yaw * math.Pi / 180, v.Pitch * math.Pi / 180, v.FOV / 2 * math.Pi / 180
}

// Validate reports settings that cannot produce a frame.
func (c *Config) Validate() error {
	switch {
	case c.View.Lat < -90 || c.View.Lat > 90:
		return fmt.Errorf("%w: view.lat %v out of range", ErrInvalidConfig, c.View.Lat)
	case c.View.Lon < -180 || c.View.Lon > 180:
		return fmt.Errorf("%w: view.lon %v out of range", ErrInvalidConfig, c.View.Lon)
	case c.View.FOV <= 0 || c.View.FOV >= 180:
		return fmt.Errorf("%w: view.fov %v must be between 0 and 180", ErrInvalidConfig, c.View.FOV)
	case c.Render.Width <= 0 || c.Render.Height <= 0:
		return fmt.Errorf("%w: render size %dx%d", ErrInvalidConfig, c.Render.Width, c.Render.Height)
	case (c.Render.OutputWidth > 0) != (c.Render.OutputHeight > 0):
		return fmt.Errorf("%w: output_width and output_height must be set together", ErrInvalidConfig)
	case c.Tiles.Dir == "":
		return fmt.Errorf("%w: tiles.dir is empty", ErrInvalidConfig)
	}
	return nil
}
