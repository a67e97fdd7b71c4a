package cliconfig

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/reoring/polyskema"
)

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("schema should be required")
	}
	cfg.SchemaPath = "s.yaml"
	cfg.Format = "YML"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if cfg.Format != FormatYAML {
		t.Errorf("Format = %q, want yaml", cfg.Format)
	}

	for _, mutate := range []func(*Config){
		func(c *Config) { c.Format = "xml" },
		func(c *Config) { c.Driver = "sonic" },
		func(c *Config) { c.DuplicateKeys = "sometimes" },
		func(c *Config) { c.Unknown = "maybe" },
		func(c *Config) { c.MaxDepth = -1 },
		func(c *Config) { c.Debounce = 0 },
	} {
		c := DefaultConfig()
		c.SchemaPath = "s.yaml"
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("expected validation error for %+v", c)
		}
	}
}

func TestConfig_ParseOpt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Unknown = "passthrough"
	opt := cfg.ParseOpt()
	if opt.Strictness.OnDuplicateKey != polyskema.Error || opt.MaxDepth != 128 || opt.MaxBytes != 16<<20 {
		t.Errorf("unexpected parse opt %+v", opt)
	}
	if opt.Load.Unknown == nil || *opt.Load.Unknown != polyskema.UnknownPassthrough {
		t.Errorf("unknown policy not forwarded")
	}
	cfg.Unknown = ""
	if cfg.ParseOpt().Load.Unknown != nil {
		t.Errorf("empty unknown should defer to the schema")
	}
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := WithLevel(NewLogger(&buf), "warn")
	l.Info().Msg("hidden")
	l.Warn().Msg("shown")
	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, "shown") {
		t.Errorf("unexpected log output %q", out)
	}
	if WithLevel(NewLogger(&buf), "bogus").GetLevel() != zerolog.InfoLevel {
		t.Errorf("unknown level should fall back to info")
	}
}
