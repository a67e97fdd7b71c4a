// Package schemafile loads dispatch schema definitions from YAML or TOML
// documents so the CLI can validate data without Go code.
//
//	type_field: kind
//	variants:
//	  circle:
//	    fields:
//	      radius: {type: float, required: true}
//	  label:
//	    fields:
//	      text: {type: string, required: true}
//	      tags: {type: "list<string>"}
//	    unknown: strip
package schemafile

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/reoring/polyskema"
	"github.com/reoring/polyskema/dsl"
)

// Definition is the on-disk form of a dispatch schema.
type Definition struct {
	TypeField string             `yaml:"type_field" toml:"type_field"`
	Remove    *bool              `yaml:"remove_type_field_on_load" toml:"remove_type_field_on_load"`
	Inject    *bool              `yaml:"inject_type_field_on_dump" toml:"inject_type_field_on_dump"`
	Only      []string           `yaml:"only" toml:"only"`
	Exclude   []string           `yaml:"exclude" toml:"exclude"`
	Unknown   string             `yaml:"unknown" toml:"unknown"`
	Variants  map[string]Variant `yaml:"variants" toml:"variants"`
}

// Variant describes one record shape.
type Variant struct {
	Fields     map[string]Field `yaml:"fields" toml:"fields"`
	Additional []string         `yaml:"additional" toml:"additional"`
	Unknown    string           `yaml:"unknown" toml:"unknown"`
}

// Field describes one typed field. Type is one of string, int, float, bool,
// time, any, or list<T> of those.
type Field struct {
	Type     string `yaml:"type" toml:"type"`
	Required bool   `yaml:"required" toml:"required"`
	Nullable bool   `yaml:"nullable" toml:"nullable"`
}

// Load reads a definition file; the extension selects the format.
func Load(path string) (*Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "toml"
	}
	d, err := Parse(b, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse decodes a definition in the given format ("yaml" or "toml").
// Unknown keys are rejected so typos surface early.
func Parse(b []byte, format string) (*Definition, error) {
	var d Definition
	switch format {
	case "yaml", "yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case "toml":
		dec := toml.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported definition format %q", format)
	}
	if len(d.Variants) == 0 {
		return nil, fmt.Errorf("definition has no variants")
	}
	return &d, nil
}

// Value is a loaded record that remembers the variant it was loaded as, so it
// can be dumped through the same schema again.
type Value struct {
	Tag    polyskema.TypeTag
	Fields polyskema.Record
}

// TypeTag implements polyskema.Tagged.
func (v Value) TypeTag() polyskema.TypeTag { return v.Tag }

// Build turns the definition into a dispatch schema. Loads yield Value.
// Dumped values are tagged from Value first, then from a record's own type
// field, then from their Go type name.
func (d *Definition) Build(log zerolog.Logger) (*polyskema.OneOf, error) {
	typeField := d.TypeField
	if typeField == "" {
		typeField = polyskema.DefaultTypeField
	}
	opts := []polyskema.Option{
		polyskema.WithTypeField(typeField),
		polyskema.WithResolver(polyskema.ChainResolver(
			polyskema.DiscriminatorResolver(),
			polyskema.FieldResolver(typeField),
			polyskema.TypeNameResolver(),
		)),
	}
	if d.Remove != nil {
		opts = append(opts, polyskema.WithRemoveTypeFieldOnLoad(*d.Remove))
	}
	if d.Inject != nil {
		opts = append(opts, polyskema.WithInjectTypeFieldOnDump(*d.Inject))
	}
	if d.Only != nil {
		opts = append(opts, polyskema.WithOnly(d.Only...))
	}
	if len(d.Exclude) > 0 {
		opts = append(opts, polyskema.WithExclude(d.Exclude...))
	}
	if d.Unknown != "" {
		p, ok := polyskema.ParseUnknownPolicy(d.Unknown)
		if !ok {
			return nil, fmt.Errorf("unknown policy %q", d.Unknown)
		}
		opts = append(opts, polyskema.WithUnknown(p))
	}

	specs := make(map[polyskema.TypeTag]polyskema.HandlerSpec, len(d.Variants))
	for _, tag := range sortedNames(d.Variants) {
		spec, err := d.Variants[tag].build(tag)
		if err != nil {
			return nil, fmt.Errorf("variant %q: %w", tag, err)
		}
		specs[tag] = spec
		log.Debug().Str("tag", tag).Strs("fields", spec.DeclaredFieldNames()).Msg("variant")
	}
	s, err := polyskema.New(specs, opts...)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("type_field", typeField).Int("variants", len(specs)).Msg("schema built")
	return s, nil
}

func (v Variant) build(tag string) (*dsl.ObjectSpec, error) {
	b := dsl.Object().
		Make(func(_ context.Context, rec polyskema.Record) (any, error) {
			return Value{Tag: tag, Fields: rec}, nil
		}).
		Extract(extract)
	for _, name := range sortedNames(v.Fields) {
		f := v.Fields[name]
		t, err := ParseType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		if f.Nullable {
			t = dsl.Nullable(t)
		}
		b.Field(name, t)
		if f.Required {
			b.Require(name)
		}
	}
	b.Additional(v.Additional...)
	if v.Unknown != "" {
		p, ok := polyskema.ParseUnknownPolicy(v.Unknown)
		if !ok {
			return nil, fmt.Errorf("unknown policy %q", v.Unknown)
		}
		switch p {
		case polyskema.UnknownStrip:
			b.UnknownStrip()
		case polyskema.UnknownPassthrough:
			b.UnknownPassthrough()
		default:
			b.UnknownStrict()
		}
	}
	return b.Build()
}

func extract(v any) (polyskema.Record, error) {
	switch t := v.(type) {
	case Value:
		return t.Fields, nil
	case *Value:
		return t.Fields, nil
	case polyskema.Record:
		return t, nil
	}
	if r, ok := polyskema.StructRecord(v); ok {
		return r, nil
	}
	return nil, fmt.Errorf("cannot read fields from %T", v)
}

// ParseType maps a type name to a dsl.Type.
func ParseType(name string) (dsl.Type, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if strings.HasPrefix(name, "list<") && strings.HasSuffix(name, ">") {
		elem, err := ParseType(name[len("list<") : len(name)-1])
		if err != nil {
			return nil, err
		}
		return dsl.List(elem), nil
	}
	switch name {
	case "string", "str":
		return dsl.String(), nil
	case "int", "integer":
		return dsl.Int(), nil
	case "float", "number":
		return dsl.Float(), nil
	case "bool", "boolean":
		return dsl.Bool(), nil
	case "time", "datetime":
		return dsl.Time(), nil
	case "", "any", "raw":
		return dsl.Any(), nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

func sortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
