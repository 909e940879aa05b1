package server

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/dvidseg/dvid"
	"github.com/janelia-flyem/dvidseg/history"
	"github.com/janelia-flyem/dvidseg/labelmap"
)

const (
	DefaultRadius       = 10
	DefaultMinRadius    = 1
	DefaultMaxRadius    = 50
	DefaultOutlineWidth = 3

	// DefaultContourCacheMB is the size of the contour cache if none is configured.
	DefaultContourCacheMB = 16
)

// Config is the parsed TOML configuration of a segmentation session.
type Config struct {
	Logging      dvid.LogConfig
	Segmentation SegmentationConfig
	History      HistoryConfig
	Store        StoreConfig
	Cache        CacheConfig

	// location of the TOML file, if any
	location string
}

// SegmentationConfig holds the labelmap and rendering settings.
type SegmentationConfig struct {
	Radius              int
	MinRadius           int `toml:"min_radius"`
	MaxRadius           int `toml:"max_radius"`
	SegmentsPerLabelmap int `toml:"segments_per_labelmap"`
	OutlineWidth        int `toml:"outline_width"`

	RenderOutline           bool    `toml:"render_outline"`
	RenderFill              bool    `toml:"render_fill"`
	RenderInactiveLabelmaps bool    `toml:"render_inactive_labelmaps"`
	FillAlpha               float64 `toml:"fill_alpha"`
	FillAlphaInactive       float64 `toml:"fill_alpha_inactive"`
	OutlineAlpha            float64 `toml:"outline_alpha"`
	OutlineAlphaInactive    float64 `toml:"outline_alpha_inactive"`
}

// SetRadius sets the brush radius, clamped to the configured range.
func (c *SegmentationConfig) SetRadius(radius int) int {
	if radius < c.MinRadius {
		radius = c.MinRadius
	}
	if radius > c.MaxRadius {
		radius = c.MaxRadius
	}
	c.Radius = radius
	return radius
}

// HalfWidth is the inset of contour lines from voxel edges.
func (c *SegmentationConfig) HalfWidth() float64 {
	return float64(c.OutlineWidth) / 2
}

// HistoryConfig is the [history] section.
type HistoryConfig struct {
	DebounceMS  int `toml:"debounce_ms"`
	Background  bool
	Workers     int
	Compression string
}

// DebounceWindow returns the configured settle time between recorded pushes.
func (c HistoryConfig) DebounceWindow() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// StoreConfig is the [store] section that selects where history is persisted.
type StoreConfig struct {
	Engine     string // "memory", "badger" or "" for no persistence
	Path       string
	SyncWrites bool `toml:"sync_writes"`
	LowMemory  bool `toml:"low_memory"`
}

// CacheConfig is the [cache] section.
type CacheConfig struct {
	ContourMB int `toml:"contour_mb"`
}

// DefaultConfig returns the configuration used when no TOML file is given.
func DefaultConfig() *Config {
	return &Config{
		Segmentation: SegmentationConfig{
			Radius:                  DefaultRadius,
			MinRadius:               DefaultMinRadius,
			MaxRadius:               DefaultMaxRadius,
			SegmentsPerLabelmap:     labelmap.MaxSegments,
			OutlineWidth:            DefaultOutlineWidth,
			RenderOutline:           true,
			RenderFill:              true,
			RenderInactiveLabelmaps: true,
			FillAlpha:               0.2,
			FillAlphaInactive:       0.05,
			OutlineAlpha:            0.7,
			OutlineAlphaInactive:    0.2,
		},
		History: HistoryConfig{
			DebounceMS:  int(history.DefaultDebounceWindow / time.Millisecond),
			Background:  true,
			Workers:     history.DefaultWorkers,
			Compression: dvid.DefaultCompression.String(),
		},
		Cache: CacheConfig{
			ContourMB: DefaultContourCacheMB,
		},
	}
}

// LoadConfig loads a configuration from a TOML file.  Settings missing from the file
// keep their defaults.
func LoadConfig(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("no TOML configuration file provided")
	}
	c := DefaultConfig()
	if _, err := toml.DecodeFile(filename, c); err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	c.location = filename
	if err := c.convertPathsToAbsolute(filename); err != nil {
		return nil, fmt.Errorf("could not convert relative paths to absolute paths in TOML config: %v", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("bad TOML config %s: %v", filename, err)
	}
	dvid.Debugf("Loaded configuration %s: %+v\n", filename, *c)
	return c, nil
}

// Location returns the file the configuration was loaded from, if any.
func (c *Config) Location() string {
	return c.location
}

// Some settings in the TOML can be given as relative paths.
// This function converts them in-place to absolute paths,
// assuming the given paths were relative to the TOML file's own directory.
func (c *Config) convertPathsToAbsolute(configPath string) error {
	var err error
	configDir := filepath.Dir(configPath)

	// [logging].logfile
	if c.Logging.Logfile != "" {
		c.Logging.Logfile, err = dvid.ConvertToAbsolute(c.Logging.Logfile, configDir)
		if err != nil {
			return fmt.Errorf("error converting logfile setting to absolute path")
		}
	}

	// [store].path
	if c.Store.Path != "" {
		c.Store.Path, err = dvid.ConvertToAbsolute(c.Store.Path, configDir)
		if err != nil {
			return fmt.Errorf("error converting store path %q to absolute path", c.Store.Path)
		}
	}
	return nil
}

// Validate checks settings that cannot be clamped into range.
func (c *Config) Validate() error {
	s := &c.Segmentation
	if s.MinRadius < 1 || s.MaxRadius < s.MinRadius {
		return fmt.Errorf("bad radius range [%d, %d]", s.MinRadius, s.MaxRadius)
	}
	s.SetRadius(s.Radius)
	if s.SegmentsPerLabelmap < 1 || s.SegmentsPerLabelmap > labelmap.MaxSegments {
		return fmt.Errorf("segments_per_labelmap must be in [1, %d], got %d", labelmap.MaxSegments, s.SegmentsPerLabelmap)
	}
	if s.OutlineWidth < 0 {
		return fmt.Errorf("bad outline width %d", s.OutlineWidth)
	}
	if c.History.DebounceMS < 0 {
		return fmt.Errorf("bad debounce window %d ms", c.History.DebounceMS)
	}
	if _, err := dvid.ParseCompression(c.History.Compression); err != nil {
		return err
	}
	switch c.Store.Engine {
	case "", "memory":
	case "badger":
		if c.Store.Path == "" {
			return fmt.Errorf("badger store requires a path")
		}
	default:
		return fmt.Errorf("unknown store engine %q", c.Store.Engine)
	}
	if c.Cache.ContourMB < 0 {
		return fmt.Errorf("bad contour cache size %d MB", c.Cache.ContourMB)
	}
	return nil
}

// WriteConfig writes the configuration as TOML, e.g., to document the defaults.
func (c *Config) WriteConfig(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
