package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config with TOML-friendly types.
type FileConfig struct {
	Schema        string `toml:"schema"`
	Format        string `toml:"format"`
	Driver        string `toml:"driver"`
	DuplicateKeys string `toml:"duplicate_keys"`
	Unknown       string `toml:"unknown"`
	MaxDepth      int    `toml:"max_depth"`
	MaxBytes      int    `toml:"max_bytes"`
	Lang          string `toml:"lang"`
	LogLevel      string `toml:"log_level"`
	Watch         *bool  `toml:"watch"`
	Debounce      string `toml:"debounce"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.polyskema/config.toml if the user home
// directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".polyskema", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map). A relative
// schema path is resolved against the directory of the config file.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool, path string) error {
	s := newConfigSetter(changed)

	schema := fc.Schema
	if schema != "" && !filepath.IsAbs(schema) && path != "" {
		schema = filepath.Join(filepath.Dir(path), schema)
	}
	s.setString("schema", schema, &cfg.SchemaPath)
	s.setString("format", fc.Format, &cfg.Format)
	s.setString("driver", fc.Driver, &cfg.Driver)
	s.setString("duplicate-keys", fc.DuplicateKeys, &cfg.DuplicateKeys)
	s.setString("unknown", fc.Unknown, &cfg.Unknown)
	s.setString("lang", fc.Lang, &cfg.Lang)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	s.setInt("max-depth", fc.MaxDepth, &cfg.MaxDepth)
	s.setInt("max-bytes", fc.MaxBytes, &cfg.MaxBytes)

	s.setBool("watch", fc.Watch, &cfg.Watch)
	return s.setDuration("debounce", fc.Debounce, &cfg.Debounce)
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
