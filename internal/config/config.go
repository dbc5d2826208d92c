// Package config holds the operator settings for sc8850. Settings come from
// built-in defaults, an optional YAML file and command line flags, in that
// order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/icco/sc8850/internal/catalogue"
	"github.com/icco/sc8850/internal/selector"
)

const (
	DefaultColumns  = 12
	DefaultLogLevel = "info"
)

// Config is the resolved set of settings.
type Config struct {
	Device      int    `yaml:"device"`
	Columns     int    `yaml:"columns"`
	Catalogue   string `yaml:"catalogue"`
	ProgramBase string `yaml:"pc_base"`
	Repeat      int    `yaml:"repeat"`
	LogFile     string `yaml:"log_file"`
	LogLevel    string `yaml:"log_level"`
	Preview     bool   `yaml:"preview"`
	Record      string `yaml:"record"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Device:      0,
		Columns:     DefaultColumns,
		ProgramBase: catalogue.OneBased.String(),
		Repeat:      selector.DefaultRepeat,
		LogLevel:    DefaultLogLevel,
	}
}

// DefaultPath is $XDG_CONFIG_HOME/sc8850/config.yaml (or the platform
// equivalent). It returns "" when no config directory is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "sc8850", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error when
// optional is true.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Device < 0 {
		return fmt.Errorf("device must not be negative, got %d", c.Device)
	}
	if c.Columns < 1 {
		return fmt.Errorf("columns must be at least 1, got %d", c.Columns)
	}
	if c.Repeat < 1 {
		return fmt.Errorf("repeat must be at least 1, got %d", c.Repeat)
	}
	if _, err := c.Base(); err != nil {
		return err
	}
	return nil
}

// Base is the parsed program numbering convention.
func (c Config) Base() (catalogue.ProgramBase, error) {
	return catalogue.ParseProgramBase(c.ProgramBase)
}

// LoadCatalogue loads the configured catalogue file, or the built-in map
// when none is set.
func (c Config) LoadCatalogue() (*catalogue.Catalogue, error) {
	base, err := c.Base()
	if err != nil {
		return nil, err
	}
	if c.Catalogue == "" {
		return catalogue.Default()
	}
	return catalogue.LoadFile(c.Catalogue, catalogue.WithProgramBase(base))
}

// Marshal renders the config as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
