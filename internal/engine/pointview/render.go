package pointview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/topoview/internal/logger"
	"github.com/Faultbox/topoview/pkg/geo"
)

// SkyColor fills every pixel whose ray misses the terrain.
var SkyColor = color.RGBA{R: 100, G: 150, B: 255, A: 255}

// Elevation coloring, in feet.
const (
	feetPerMeter          = 3.28084
	elevationColorFloor   = 7000
	elevationColorCeiling = 11500
)

var (
	colorFloor   = [3]float64{180, 255, 180}
	colorCeiling = [3]float64{255, 0, 0}
)

// Distance fog.
const (
	fogGray      = 127
	fogDensity   = 0.0001
	fogMaxWeight = 0.7
)

// Tracer intersects a ray with the terrain.
type Tracer interface {
	Trace(origin, direction geo.Point) (geo.Point, bool, error)
}

// Renderer draws frames by tracing one ray per pixel. Columns are traced
// concurrently.
type Renderer struct {
	tracer  Tracer
	workers int
	log     *zap.Logger
}

// NewRenderer creates a Renderer using up to workers goroutines; zero or less
// means one per column.
func NewRenderer(tracer Tracer, workers int) *Renderer {
	return &Renderer{
		tracer:  tracer,
		workers: workers,
		log:     logger.Named("pointview"),
	}
}

// Render draws the frame seen by cam. A trace error aborts the frame.
func (r *Renderer) Render(ctx context.Context, cam *Camera) (*image.RGBA, error) {
	start := time.Now()
	img := image.NewRGBA(image.Rect(0, 0, cam.Width, cam.Height))

	g, ctx := errgroup.WithContext(ctx)
	if r.workers > 0 {
		g.SetLimit(r.workers)
	}

	var hits atomic.Int64
	for i := 0; i < cam.Width; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, err := r.renderColumn(cam, img, i)
			hits.Add(int64(n))
			return err
		})
	}

	if err := g.Wait(); err != nil {
		instrumentFrame(resultError, start)
		return nil, err
	}

	instrumentFrame(resultOK, start)
	r.log.Debug("frame rendered",
		zap.Stringer("eye", cam.Eye),
		zap.Int("width", cam.Width),
		zap.Int("height", cam.Height),
		zap.Int64("terrain_pixels", hits.Load()),
		zap.Duration("took", time.Since(start)))

	return img, nil
}

// renderColumn traces column i from the bottom row up and returns the number
// of terrain pixels. Each ray starts where the ray below it hit: a higher
// ray cannot meet the terrain any closer.
func (r *Renderer) renderColumn(cam *Camera, img *image.RGBA, i int) (int, error) {
	dir := cam.Column(i)
	origin := cam.Eye

	for j := 0; j < cam.Height; j++ {
		dir.Elv = cam.Rise(j)
		origin.Elv = geo.NewElevation(cam.Eye, origin, dir)

		hit, ok, err := r.tracer.Trace(origin, dir)
		if err != nil {
			return j, fmt.Errorf("tracing column %d row %d: %w", i, j, err)
		}
		if !ok {
			for sky := j; sky < cam.Height; sky++ {
				img.SetRGBA(i, cam.Height-1-sky, SkyColor)
			}
			return j, nil
		}

		img.SetRGBA(i, cam.Height-1-j, Fog(ElevationColor(hit.Elv), cam.Distance(hit)))
		origin = hit
	}

	return cam.Height, nil
}

// ElevationColor maps an elevation in meters onto the gradient from green
// below 7000 ft to red above 11500 ft.
func ElevationColor(elv float64) color.RGBA {
	fraction := geo.Clamp((elv*feetPerMeter-elevationColorFloor)/(elevationColorCeiling-elevationColorFloor), 0, 1)
	return color.RGBA{
		R: interpolate(colorCeiling[0], colorFloor[0], fraction),
		G: interpolate(colorCeiling[1], colorFloor[1], fraction),
		B: interpolate(colorCeiling[2], colorFloor[2], fraction),
		A: 255,
	}
}

func interpolate(first, second, fraction float64) uint8 {
	return uint8(geo.Clamp(math.Trunc(first*fraction+second*(1-fraction)), 0, 255))
}

// Fog blends c toward gray with distance in meters.
func Fog(c color.RGBA, distance float64) color.RGBA {
	weight := geo.Clamp(1-math.Exp(-fogDensity*distance), 0, fogMaxWeight)
	blend := func(v uint8) uint8 {
		return uint8(fogGray*weight + float64(v)*(1-weight))
	}
	return color.RGBA{R: blend(c.R), G: blend(c.G), B: blend(c.B), A: 255}
}
