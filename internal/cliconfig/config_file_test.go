package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyFileConfig(t *testing.T) {
	trueVal := true

	tests := []struct {
		name       string
		fileConfig FileConfig
		changed    map[string]bool
		path       string
		initial    Config
		expected   Config
		wantErr    bool
	}{
		{
			name: "applies all valid config values",
			fileConfig: FileConfig{
				Schema:        "/abs/shapes.yaml",
				Format:        "yaml",
				Driver:        "std",
				DuplicateKeys: "warn",
				Unknown:       "strip",
				MaxDepth:      10,
				MaxBytes:      2048,
				Lang:          "ja",
				LogLevel:      "debug",
				Watch:         &trueVal,
				Debounce:      "250ms",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				SchemaPath:    "/abs/shapes.yaml",
				Format:        "yaml",
				Driver:        "std",
				DuplicateKeys: "warn",
				Unknown:       "strip",
				MaxDepth:      10,
				MaxBytes:      2048,
				Lang:          "ja",
				LogLevel:      "debug",
				Watch:         true,
				Debounce:      250 * time.Millisecond,
			},
		},
		{
			name:       "respects changed flags",
			fileConfig: FileConfig{Format: "yaml", Lang: "ja"},
			changed:    map[string]bool{"format": true},
			initial:    Config{Format: "json"},
			expected:   Config{Format: "json", Lang: "ja"},
		},
		{
			name:       "resolves relative schema against the config file",
			fileConfig: FileConfig{Schema: "schemas/pets.yaml"},
			changed:    map[string]bool{},
			path:       "/etc/polyskema/config.toml",
			expected:   Config{SchemaPath: "/etc/polyskema/schemas/pets.yaml"},
		},
		{
			name:       "returns error for invalid duration",
			fileConfig: FileConfig{Debounce: "soon"},
			changed:    map[string]bool{},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.initial
			err := ApplyFileConfig(&cfg, tt.fileConfig, tt.changed, tt.path)
			if tt.wantErr {
				if err == nil {
					t.Error("ApplyFileConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyFileConfig() unexpected error: %v", err)
			}
			if cfg != tt.expected {
				t.Errorf("ApplyFileConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadFileConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.toml")

	tomlContent := `
schema = "pets.yaml"
duplicate_keys = "error"
max_depth = 32
watch = true
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	fc, err := LoadFileConfig(configPath)
	if err != nil {
		t.Fatalf("LoadFileConfig() error = %v", err)
	}
	if fc.Schema != "pets.yaml" || fc.DuplicateKeys != "error" || fc.MaxDepth != 32 {
		t.Errorf("unexpected file config %+v", fc)
	}
	if fc.Watch == nil || !*fc.Watch {
		t.Errorf("Watch = %v, want true", fc.Watch)
	}
	if !FileExists(configPath) || FileExists(filepath.Join(tmpDir, "missing.toml")) {
		t.Errorf("FileExists mismatch")
	}
}

func TestLoadFileConfig_Invalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(p, []byte("max_depth = \"deep\""), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFileConfig(p); err == nil {
		t.Error("expected type error")
	}
	if _, err := LoadFileConfig(filepath.Join(t.TempDir(), "none.toml")); err == nil {
		t.Error("expected missing file error")
	}
}
