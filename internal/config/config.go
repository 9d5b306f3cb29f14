// Package config loads the stlcut TOML configuration and merges CLI
// overrides into it.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/philipparndt/stlcut/pkg/csg"
	"github.com/philipparndt/stlcut/pkg/cut"
	"github.com/philipparndt/stlcut/pkg/cutter"
	"github.com/philipparndt/stlcut/pkg/mesh"
	"github.com/philipparndt/stlcut/pkg/viewer"
)

// DefaultFile is loaded from the working directory when no --config is given
const DefaultFile = "stlcut.toml"

// Config holds all settings of the CLI
type Config struct {
	StoreDir      string  `toml:"store_dir"`
	Workers       int     `toml:"workers"`
	WeldTolerance float64 `toml:"weld_tolerance"`

	Cutter   CutterConfig   `toml:"cutter"`
	Boolean  BooleanConfig  `toml:"boolean"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Preview  PreviewConfig  `toml:"preview"`
}

// CutterConfig sizes the half-space boxes
type CutterConfig struct {
	Margin    float64 `toml:"margin"`
	FixedSize float64 `toml:"fixed_size"`
	MinSize   float64 `toml:"min_size"`
}

// BooleanConfig tunes the boolean engine
type BooleanConfig struct {
	RelativeEpsilon float64 `toml:"relative_epsilon"`
	MaxPolygons     int     `toml:"max_polygons"`
	// RequireClosed defaults to true when the key is absent
	RequireClosed *bool `toml:"require_closed"`
}

// PipelineConfig bounds a cut pipeline call
type PipelineConfig struct {
	Timeout Duration `toml:"timeout"`
}

// PreviewConfig controls rendered previews
type PreviewConfig struct {
	Size        int    `toml:"size"`
	Supersample int    `toml:"supersample"`
	Format      string `toml:"format"`
}

// Duration is a time.Duration read from a TOML string such as "90s"
type Duration struct {
	time.Duration
}

// UnmarshalText parses a Go duration string
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Flags holds CLI flag values that override config file settings
type Flags struct {
	StoreDir string
	Workers  int
	Timeout  time.Duration
	Margin   float64
	Fixed    float64
}

// Default returns a config with every default applied
func Default() Config {
	var c Config
	c.Resolve(Flags{})
	return c
}

// Load reads a TOML config file. Fields not set in the file keep their zero
// values until Resolve.
func Load(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config: unknown key %s in %s", undecoded[0], path)
	}
	return cfg, nil
}

// LoadOrDefault loads path. An empty path tries DefaultFile and returns an
// empty config when it does not exist.
func LoadOrDefault(path string) (Config, error) {
	if path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFile); errors.Is(err, os.ErrNotExist) {
		return Config{}, nil
	}
	return Load(DefaultFile)
}

// Resolve applies CLI overrides and fills in defaults for unset fields
func (c *Config) Resolve(flags Flags) {
	if flags.StoreDir != "" {
		c.StoreDir = flags.StoreDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Timeout > 0 {
		c.Pipeline.Timeout.Duration = flags.Timeout
	}
	if flags.Margin > 0 {
		c.Cutter.Margin = flags.Margin
	}
	if flags.Fixed > 0 {
		c.Cutter.FixedSize = flags.Fixed
	}

	if c.StoreDir == "" {
		c.StoreDir = "stlcut-data"
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.WeldTolerance <= 0 {
		c.WeldTolerance = mesh.DefaultWeldTolerance
	}
	if c.Cutter.Margin <= 0 {
		c.Cutter.Margin = cutter.DefaultMargin
	}
	if c.Cutter.MinSize <= 0 {
		c.Cutter.MinSize = cutter.DefaultMinSize
	}
	if c.Boolean.RelativeEpsilon <= 0 {
		c.Boolean.RelativeEpsilon = csg.DefaultRelativeEpsilon
	}
	if c.Boolean.MaxPolygons <= 0 {
		c.Boolean.MaxPolygons = csg.DefaultMaxPolygons
	}
	if c.Boolean.RequireClosed == nil {
		requireClosed := csg.DefaultOptions().RequireClosed
		c.Boolean.RequireClosed = &requireClosed
	}
	if c.Pipeline.Timeout.Duration <= 0 {
		c.Pipeline.Timeout.Duration = cut.DefaultTimeout
	}
	if c.Preview.Size <= 0 {
		c.Preview.Size = viewer.DefaultOptions().Size
	}
	if c.Preview.Supersample <= 0 {
		c.Preview.Supersample = viewer.DefaultOptions().Supersample
	}
	if c.Preview.Format == "" {
		c.Preview.Format = viewer.FormatWebP.String()
	}
}

// Validate reports settings that cannot be used
func (c Config) Validate() error {
	if _, err := viewer.ParseImageFormat(c.Preview.Format); err != nil {
		return fmt.Errorf("config: preview.format: %w", err)
	}
	if c.Cutter.FixedSize < 0 {
		return fmt.Errorf("config: cutter.fixed_size must not be negative")
	}
	return nil
}

// Builder returns the cutter builder described by the config
func (c Config) Builder() cutter.Builder {
	return cutter.Builder{
		Margin:    c.Cutter.Margin,
		FixedSize: c.Cutter.FixedSize,
		MinSize:   c.Cutter.MinSize,
	}
}

// BooleanOptions returns the boolean engine settings
func (c Config) BooleanOptions() csg.Options {
	opts := csg.Options{
		RelativeEpsilon: c.Boolean.RelativeEpsilon,
		MaxPolygons:     c.Boolean.MaxPolygons,
		RequireClosed:   csg.DefaultOptions().RequireClosed,
	}
	if c.Boolean.RequireClosed != nil {
		opts.RequireClosed = *c.Boolean.RequireClosed
	}
	return opts
}

// PipelineOptions returns the options for cut.New
func (c Config) PipelineOptions() []cut.Option {
	return []cut.Option{
		cut.WithBuilder(c.Builder()),
		cut.WithBooleanOptions(c.BooleanOptions()),
		cut.WithTimeout(c.Pipeline.Timeout.Duration),
	}
}

// PreviewOptions returns render options for the configured size
func (c Config) PreviewOptions() viewer.Options {
	opts := viewer.DefaultOptions()
	opts.Size = c.Preview.Size
	opts.Supersample = c.Preview.Supersample
	return opts
}

// PreviewFormat returns the parsed preview format, webp when invalid
func (c Config) PreviewFormat() viewer.ImageFormat {
	f, _ := viewer.ParseImageFormat(c.Preview.Format)
	return f
}
