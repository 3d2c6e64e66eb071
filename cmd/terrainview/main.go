// Package main is the entry point for terrainview, which renders the terrain
// seen from one point into an image.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/topoview/internal/config"
	"github.com/Faultbox/topoview/internal/engine/pointview"
	"github.com/Faultbox/topoview/internal/engine/raytrace"
	"github.com/Faultbox/topoview/internal/logger"
	"github.com/Faultbox/topoview/pkg/geo"
	"github.com/Faultbox/topoview/pkg/tile"
)

var errNoGround = errors.New("no elevation data at the eye")

func main() {
	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		if config.IsHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	opts := logger.Options{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Console: os.Stderr,
	}
	if cfg.Logging.LogFile != "" {
		opts.File = logger.DefaultFileConfig(cfg.Logging.LogFile)
	}
	if err := logger.InitWithOptions(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== terrainview ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	if flags.SaveConfig {
		if err := cfg.Save(); err != nil {
			logger.Error("saving config failed", zap.Error(err))
			os.Exit(1)
		}
		logger.Info("config saved", zap.String("dir", config.ConfigDir()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Error("render failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ix := tile.NewIndex(tile.DirSource{Dir: cfg.Tiles.Dir})

	eye := geo.Point{Lat: cfg.View.Lat, Lon: cfg.View.Lon, Elv: cfg.View.Elevation}
	if eye.Elv == 0 {
		ground, ok, err := ix.Height(eye)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %v (tile %s)", errNoGround, eye, ix.Lookup(eye).Name)
		}
		eye.Elv = ground + cfg.View.Clearance
	}

	if cfg.Tiles.Preload {
		if err := ix.Preload(ctx, neighborhood(eye), cfg.Tiles.PreloadWorkers); err != nil {
			return fmt.Errorf("preloading tiles: %w", err)
		}
		logger.Info("tiles preloaded", zap.Int("tiles", ix.Len()))
	}

	yaw, pitch, radius := cfg.View.Radians()
	cam := pointview.NewCamera(eye, pointview.ViewAngle{Yaw: yaw, Pitch: pitch, Radius: radius},
		cfg.Render.Width, cfg.Render.Height)

	tracer := raytrace.New(ix, raytrace.WithMaxTileCrossings(cfg.Render.MaxTileCrossings))
	img, err := pointview.NewRenderer(tracer, cfg.Render.Workers).Render(ctx, cam)
	if err != nil {
		return err
	}

	out := img
	if cfg.Render.OutputWidth > 0 {
		out = pointview.Scale(img, cfg.Render.OutputWidth, cfg.Render.OutputHeight)
	}

	if err := pointview.WriteFile(cfg.Render.Output, out, cfg.Render.Quality); err != nil {
		return err
	}

	logger.Info("frame written",
		zap.String("path", cfg.Render.Output),
		zap.Stringer("eye", eye),
		zap.Int("tiles", ix.Len()))
	return nil
}

// neighborhood returns one point in p's tile and in each of the eight tiles
// around it.
func neighborhood(p geo.Point) []geo.Point {
	points := make([]geo.Point, 0, 9)
	for dLat := -1; dLat <= 1; dLat++ {
		for dLon := -1; dLon <= 1; dLon++ {
			points = append(points, geo.Point{
				Lat: p.Lat + float64(dLat)*tile.Size,
				Lon: p.Lon + float64(dLon)*tile.Size,
			})
		}
	}
	return points
}
