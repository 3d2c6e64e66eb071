package config

import (
	"github.com/jessevdk/go-flags"
)

// Flags are the command line overrides. Zero values are ignored, except for
// the view coordinates and angles, which apply whenever they are given.
type Flags struct {
	Config    string  `long:"config" description:"Path to config file"`
	Debug     bool    `long:"debug" description:"Enable debug logging"`
	Lat       float64 `long:"lat" description:"Eye latitude in degrees"`
	Lon       float64 `long:"lon" description:"Eye longitude in degrees"`
	Elevation float64 `long:"elevation" description:"Eye elevation in meters"`
	Yaw       float64 `long:"yaw" description:"View direction in degrees counterclockwise from east"`
	Pitch     float64 `long:"pitch" description:"View pitch in degrees above the horizon"`
	Width     int     `long:"width" description:"Frame width in pixels"`
	Height    int     `long:"height" description:"Frame height in pixels"`
	Tiles     string  `long:"tiles" description:"Tile directory"`
	Out       string  `short:"o" long:"out" description:"Output image path (.png or .webp)"`

	SaveConfig bool `long:"save-config" description:"Write the effective config to the user config directory"`

	set map[string]bool
}

// ParseFlags parses command-line arguments. Help is reported as a
// *flags.Error of type flags.ErrHelp.
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{set: make(map[string]bool)}
	parser := flags.NewParser(f, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	for _, name := range []string{"lat", "lon", "elevation", "yaw", "pitch"} {
		if opt := parser.FindOptionByLongName(name); opt != nil && opt.IsSet() {
			f.set[name] = true
		}
	}
	return f, nil
}

// IsHelp reports whether err is a request for usage.
func IsHelp(err error) bool {
	flagsErr, ok := err.(*flags.Error)
	return ok && flagsErr.Type == flags.ErrHelp
}

// ConfigPath returns the explicit config path if provided via --config flag.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return f.Config
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.set["lat"] {
		cfg.View.Lat = f.Lat
	}
	if f.set["lon"] {
		cfg.View.Lon = f.Lon
	}
	if f.set["elevation"] {
		cfg.View.Elevation = f.Elevation
	}
	if f.set["yaw"] {
		cfg.View.Yaw = f.Yaw
	}
	if f.set["pitch"] {
		cfg.View.Pitch = f.Pitch
	}
	if f.Width > 0 {
		cfg.Render.Width = f.Width
	}
	if f.Height > 0 {
		cfg.Render.Height = f.Height
	}
	if f.Tiles != "" {
		cfg.Tiles.Dir = f.Tiles
	}
	if f.Out != "" {
		cfg.Render.Output = f.Out
	}
}
