package cliconfig

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/reoring/polyskema"
)

// Supported input formats and JSON drivers.
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatYAML = "yaml"

	DriverStd    = "std"
	DriverGoJSON = "gojson"
)

// Config holds CLI configuration for polyskema.
type Config struct {
	SchemaPath string
	Format     string
	Driver     string

	DuplicateKeys string
	Unknown       string
	MaxDepth      int
	MaxBytes      int

	Lang     string
	LogLevel string

	Watch    bool
	Debounce time.Duration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Format:        FormatAuto,
		Driver:        DriverGoJSON,
		DuplicateKeys: "error",
		MaxDepth:      128,
		MaxBytes:      16 << 20, // 16MB
		Lang:          "en",
		LogLevel:      "info",
		Debounce:      100 * time.Millisecond,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.SchemaPath == "" {
		return fmt.Errorf("schema is required")
	}
	c.Format = strings.ToLower(c.Format)
	switch c.Format {
	case FormatAuto, FormatJSON, FormatYAML:
	case "yml":
		c.Format = FormatYAML
	default:
		return fmt.Errorf("unknown format %q", c.Format)
	}
	switch c.Driver {
	case DriverStd, DriverGoJSON:
	default:
		return fmt.Errorf("unknown json driver %q", c.Driver)
	}
	if _, err := c.duplicateSeverity(); err != nil {
		return err
	}
	if c.Unknown != "" {
		if _, ok := polyskema.ParseUnknownPolicy(c.Unknown); !ok {
			return fmt.Errorf("unknown policy %q", c.Unknown)
		}
	}
	if c.MaxDepth < 0 || c.MaxBytes < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	return nil
}

// ParseOpt converts the enforcement settings into polyskema.ParseOpt.
func (c Config) ParseOpt() polyskema.ParseOpt {
	sev, _ := c.duplicateSeverity()
	opt := polyskema.ParseOpt{
		Strictness: polyskema.Strictness{OnDuplicateKey: sev},
		MaxDepth:   c.MaxDepth,
		MaxBytes:   int64(c.MaxBytes),
	}
	if p, ok := polyskema.ParseUnknownPolicy(c.Unknown); ok && c.Unknown != "" {
		opt.Load.Unknown = polyskema.Unknown(p)
	}
	return opt
}

func (c Config) duplicateSeverity() (polyskema.Severity, error) {
	switch strings.ToLower(c.DuplicateKeys) {
	case "", "ignore":
		return polyskema.Ignore, nil
	case "warn":
		return polyskema.Warn, nil
	case "error":
		return polyskema.Error, nil
	}
	return polyskema.Ignore, fmt.Errorf("duplicate-keys must be ignore, warn or error (got %q)", c.DuplicateKeys)
}

// configSetter applies configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setIntFromString parses a string to int for environment variables.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
