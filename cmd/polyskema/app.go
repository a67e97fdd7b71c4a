package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	j "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/reoring/polyskema"
	"github.com/reoring/polyskema/i18n"
	"github.com/reoring/polyskema/internal/cliconfig"
	"github.com/reoring/polyskema/internal/schemafile"
	"github.com/reoring/polyskema/source/gojson"
	ysrc "github.com/reoring/polyskema/source/yaml"
)

// errInvalid reports that at least one input failed validation. The details
// were already written to stdout.
var errInvalid = errors.New("validation failed")

type app struct {
	cfg     cliconfig.Config
	cfgPath string
	log     zerolog.Logger
	schema  *polyskema.OneOf

	stdin  io.Reader
	stdout io.Writer
}

func newApp(stdin io.Reader, stdout io.Writer) *app {
	return &app{
		cfg:    cliconfig.DefaultConfig(),
		log:    cliconfig.Logger(),
		stdin:  stdin,
		stdout: stdout,
	}
}

func (a *app) root() *cobra.Command {
	root := &cobra.Command{
		Use:           "polyskema",
		Short:         "Validate and load polymorphic records against a tagged-union schema",
		Example:       exampleUsage,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&a.cfgPath, "config", "", "path to config file (default: $HOME/.polyskema/config.toml)")
	f.StringVar(&a.cfg.SchemaPath, "schema", a.cfg.SchemaPath, "schema definition file (.yaml or .toml)")
	f.StringVar(&a.cfg.Format, "format", a.cfg.Format, "input format: auto, json or yaml")
	f.StringVar(&a.cfg.Driver, "driver", a.cfg.Driver, "JSON driver: gojson or std")
	f.StringVar(&a.cfg.DuplicateKeys, "duplicate-keys", a.cfg.DuplicateKeys, "duplicate JSON keys: ignore, warn or error")
	f.StringVar(&a.cfg.Unknown, "unknown", a.cfg.Unknown, "override unknown-field policy: strict, strip or passthrough")
	f.IntVar(&a.cfg.MaxDepth, "max-depth", a.cfg.MaxDepth, "maximum nesting depth (0 = unlimited)")
	f.IntVar(&a.cfg.MaxBytes, "max-bytes", a.cfg.MaxBytes, "maximum input size in bytes (0 = unlimited)")
	f.StringVar(&a.cfg.Lang, "lang", a.cfg.Lang, "message language: en or ja")
	f.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "log level")

	root.AddCommand(a.validateCmd(), a.loadCmd(), a.schemaCmd())
	return root
}

// setup resolves configuration (flags > env > file > defaults) and builds
// the schema.
func (a *app) setup(cmd *cobra.Command) error {
	cfgFile := a.cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(&a.cfg, fc, changed, cfgFile); err != nil {
			return err
		}
	}
	if err := cliconfig.ApplyEnvConfig(&a.cfg, changed); err != nil {
		return err
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	a.log = cliconfig.WithLevel(a.log, a.cfg.LogLevel)
	i18n.SetLanguage(a.cfg.Lang)
	switch a.cfg.Driver {
	case cliconfig.DriverStd:
		polyskema.UseDefaultJSONDriver()
	default:
		polyskema.SetJSONDriver(gojson.Driver())
	}
	a.log.Debug().Interface("config", a.cfg).Str("json_driver", polyskema.CurrentJSONDriver().Name()).Msg("configuration")

	def, err := schemafile.Load(a.cfg.SchemaPath)
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	s, err := def.Build(a.log)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	a.schema = s
	return nil
}

// input is one named document.
type input struct {
	name string
	data []byte
}

// readInputs reads the named files, or stdin when none (or "-") is given.
func (a *app) readInputs(args []string) ([]input, error) {
	if len(args) == 0 {
		args = []string{"-"}
	}
	out := make([]input, 0, len(args))
	for _, name := range args {
		b, err := a.readInput(name)
		if err != nil {
			return nil, err
		}
		out = append(out, input{name: name, data: b})
	}
	return out, nil
}

func (a *app) readInput(name string) ([]byte, error) {
	var r io.Reader = a.stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}
	if a.cfg.MaxBytes > 0 {
		r = io.LimitReader(r, int64(a.cfg.MaxBytes)+1)
	}
	return io.ReadAll(r)
}

// load decodes and loads one input.
func (a *app) load(cmd *cobra.Command, in input) (any, error) {
	if a.cfg.MaxBytes > 0 && len(in.data) > a.cfg.MaxBytes {
		return nil, polyskema.Issues{{Path: "/", Code: polyskema.CodeTruncated, Message: "max bytes exceeded", Offset: -1}}
	}
	src, err := a.source(in)
	if err != nil {
		return nil, polyskema.IssuesFromErr("/", err)
	}
	return polyskema.LoadFrom(cmd.Context(), a.schema, src, a.cfg.ParseOpt())
}

func (a *app) source(in input) (polyskema.Source, error) {
	if a.formatOf(in) == cliconfig.FormatYAML {
		return ysrc.Source(in.data)
	}
	return polyskema.JSONBytes(in.data), nil
}

func (a *app) formatOf(in input) string {
	if a.cfg.Format != cliconfig.FormatAuto {
		return a.cfg.Format
	}
	switch strings.ToLower(filepath.Ext(in.name)) {
	case ".yaml", ".yml":
		return cliconfig.FormatYAML
	case ".json":
		return cliconfig.FormatJSON
	}
	if t := bytes.TrimSpace(in.data); len(t) > 0 && (t[0] == '{' || t[0] == '[') {
		return cliconfig.FormatJSON
	}
	return cliconfig.FormatYAML
}

func (a *app) writeJSON(v any) error {
	enc := j.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
