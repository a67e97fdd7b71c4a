package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables
// (POLYSKEMA_*). It respects flags that have been explicitly set (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("schema", os.Getenv("POLYSKEMA_SCHEMA"), &cfg.SchemaPath)
	s.setString("format", os.Getenv("POLYSKEMA_FORMAT"), &cfg.Format)
	s.setString("driver", os.Getenv("POLYSKEMA_DRIVER"), &cfg.Driver)
	s.setString("duplicate-keys", os.Getenv("POLYSKEMA_DUPLICATE_KEYS"), &cfg.DuplicateKeys)
	s.setString("unknown", os.Getenv("POLYSKEMA_UNKNOWN"), &cfg.Unknown)
	s.setString("lang", os.Getenv("POLYSKEMA_LANG"), &cfg.Lang)
	s.setString("log-level", os.Getenv("POLYSKEMA_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setIntFromString("max-depth", os.Getenv("POLYSKEMA_MAX_DEPTH"), &cfg.MaxDepth); err != nil {
		return err
	}
	if err := s.setIntFromString("max-bytes", os.Getenv("POLYSKEMA_MAX_BYTES"), &cfg.MaxBytes); err != nil {
		return err
	}
	if err := s.setDuration("debounce", os.Getenv("POLYSKEMA_DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}

	s.setBoolFromString("watch", os.Getenv("POLYSKEMA_WATCH"), &cfg.Watch)
	return nil
}
