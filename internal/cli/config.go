package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/photogridlab/photogrid/pkg/layout"
	"github.com/photogridlab/photogrid/pkg/pipeline"
)

// Config is the on-disk configuration, loaded from photogrid.toml.
// Everything is optional; flags override config, config overrides
// built-in defaults.
type Config struct {
	Root    string       `toml:"root"`
	Policy  string       `toml:"policy"`
	Width   float64      `toml:"width"`
	Spacing float64      `toml:"spacing"`
	Rows    RowsConfig   `toml:"rows"`
	Thumbs  ThumbsConfig `toml:"thumbs"`
	Server  ServerConfig `toml:"server"`
}

// RowsConfig tunes the row solver.
type RowsConfig struct {
	TargetHeight float64 `toml:"target_height"`
	MinHeight    float64 `toml:"min_height"`
	MaxHeight    float64 `toml:"max_height"`
	PerRow       int     `toml:"per_row"`
	MaxPerRow    int     `toml:"max_per_row"`
	FillLow      float64 `toml:"fill_low"`
	FillHigh     float64 `toml:"fill_high"`
	FallbackFill float64 `toml:"fallback_fill"`
}

// ThumbsConfig tunes thumbnail decoding.
type ThumbsConfig struct {
	Width      int   `toml:"width"`
	Height     int   `toml:"height"`
	MaxEntries int   `toml:"max_entries"`
	MaxBytes   int64 `toml:"max_bytes"`
	Workers    int   `toml:"workers"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr  string `toml:"addr"`
	Redis string `toml:"redis"`
}

// configFileName is the config file looked up in the working directory.
const configFileName = "photogrid.toml"

// LoadConfig reads the config from path. When path is empty it tries
// ./photogrid.toml, then $XDG_CONFIG_HOME/photogrid/photogrid.toml; a
// missing file is not an error, an unreadable or malformed one is.
func LoadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = findConfig()
		if path == "" {
			return &Config{}, nil
		}
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !explicit && os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &cfg, nil
}

func findConfig() string {
	if _, err := os.Stat(configFileName); err == nil {
		return configFileName
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	candidate := filepath.Join(dir, appName, configFileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return ""
}

// ApplyTo fills zero-valued opts fields from the config. Flags are
// bound directly onto opts before this runs, so anything a flag set
// stays; config only supplies what the command line left unset.
func (c *Config) ApplyTo(opts *pipeline.Options) {
	if c.Root != "" && opts.Root == "" {
		opts.Root = c.Root
	}
	if c.Policy != "" && opts.Policy == "" {
		opts.Policy = layout.Policy(c.Policy)
	}
	if c.Width != 0 && opts.Width == 0 {
		opts.Width = c.Width
	}
	if c.Spacing != 0 && opts.Spacing == 0 {
		opts.Spacing = c.Spacing
	}
	if c.Rows.TargetHeight != 0 && opts.TargetRowHeight == 0 {
		opts.TargetRowHeight = c.Rows.TargetHeight
	}
	if c.Rows.MinHeight != 0 && opts.MinRowHeight == 0 {
		opts.MinRowHeight = c.Rows.MinHeight
	}
	if c.Rows.MaxHeight != 0 && opts.MaxRowHeight == 0 {
		opts.MaxRowHeight = c.Rows.MaxHeight
	}
	if c.Rows.PerRow != 0 && opts.ImagesPerRow == 0 {
		opts.ImagesPerRow = c.Rows.PerRow
	}
	if c.Rows.MaxPerRow != 0 && opts.MaxImagesPerRow == 0 {
		opts.MaxImagesPerRow = c.Rows.MaxPerRow
	}
	if c.Rows.FillLow != 0 && opts.FillLow == 0 {
		opts.FillLow = c.Rows.FillLow
	}
	if c.Rows.FillHigh != 0 && opts.FillHigh == 0 {
		opts.FillHigh = c.Rows.FillHigh
	}
	if c.Rows.FallbackFill != 0 && opts.FallbackFill == 0 {
		opts.FallbackFill = c.Rows.FallbackFill
	}
	if c.Thumbs.Width != 0 && opts.ThumbWidth == 0 {
		opts.ThumbWidth = c.Thumbs.Width
	}
	if c.Thumbs.Height != 0 && opts.ThumbHeight == 0 {
		opts.ThumbHeight = c.Thumbs.Height
	}
}
