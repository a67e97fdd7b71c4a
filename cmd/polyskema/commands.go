package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/reoring/polyskema"
)

// report is the per-input validation result written by validate.
type report struct {
	File   string         `json:"file"`
	Valid  bool           `json:"valid"`
	Errors map[string]any `json:"errors,omitempty"`
}

func (a *app) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file...]",
		Short: "Validate JSON or YAML inputs (stdin when no file is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Watch {
				if len(args) == 0 {
					return fmt.Errorf("--watch needs at least one file")
				}
				return a.watch(cmd, args)
			}
			inputs, err := a.readInputs(args)
			if err != nil {
				return err
			}
			return a.validateAll(cmd, inputs)
		},
	}
	cmd.Flags().BoolVar(&a.cfg.Watch, "watch", a.cfg.Watch, "re-validate files whenever they change")
	cmd.Flags().DurationVar(&a.cfg.Debounce, "debounce", a.cfg.Debounce, "quiet period before re-validating a changed file")
	return cmd
}

func (a *app) validateAll(cmd *cobra.Command, inputs []input) error {
	failed := 0
	for _, in := range inputs {
		start := time.Now()
		_, err := a.load(cmd, in)
		r := report{File: in.name, Valid: err == nil}
		if err != nil {
			failed++
			r.Errors = polyskema.Messages(err)
		}
		a.log.Debug().Str("file", in.name).Bool("valid", r.Valid).Dur("took", time.Since(start)).Msg("validated")
		if err := a.writeJSON(r); err != nil {
			return err
		}
	}
	if failed > 0 {
		a.log.Warn().Int("failed", failed).Int("total", len(inputs)).Msg("validation failed")
		return errInvalid
	}
	a.log.Info().Int("total", len(inputs)).Msg("all inputs valid")
	return nil
}

func (a *app) loadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load [file]",
		Short: "Load one input and print the normalized records",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := a.readInputs(args)
			if err != nil {
				return err
			}
			v, err := a.load(cmd, inputs[0])
			if err != nil {
				if werr := a.writeJSON(map[string]any{"errors": polyskema.Messages(err)}); werr != nil {
					return werr
				}
				return errInvalid
			}
			return a.writeJSON(a.redump(cmd, v))
		},
	}
}

// redump serializes loaded values back through the schema so the output
// carries the type field again. Values that cannot be dumped are printed as
// loaded.
func (a *app) redump(cmd *cobra.Command, v any) any {
	if items, ok := v.([]any); ok {
		out, err := a.schema.Dump(cmd.Context(), items)
		if err != nil {
			a.log.Debug().Err(err).Msg("redump")
			return v
		}
		return out
	}
	rec, err := a.schema.DumpOne(cmd.Context(), v)
	if err != nil {
		a.log.Debug().Err(err).Msg("redump")
		return v
	}
	return rec
}

func (a *app) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema (oneOf with discriminator) of the loaded definition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.schema.JSONSchema()
			if err != nil {
				return err
			}
			return a.writeJSON(s)
		},
	}
}
