package dsl

import (
	"context"
	"fmt"

	"github.com/reoring/polyskema"
)

// ObjectBuilder accumulates field definitions for an ObjectSpec.
type ObjectBuilder struct {
	fields     map[string]Type
	order      []string
	required   map[string]struct{}
	additional []string
	explicit   []string
	unknown    polyskema.UnknownPolicy
	make       func(ctx context.Context, rec polyskema.Record) (any, error)
	extract    func(v any) (polyskema.Record, error)
	err        error
}

// Object starts a new record definition. Unknown keys are rejected unless
// one of the Unknown* methods says otherwise.
func Object() *ObjectBuilder {
	return &ObjectBuilder{
		fields:   map[string]Type{},
		required: map[string]struct{}{},
		unknown:  polyskema.UnknownStrict,
	}
}

// Field declares a typed field. Redeclaring a name replaces its type.
func (b *ObjectBuilder) Field(name string, t Type) *ObjectBuilder {
	if name == "" {
		b.setErr(fmt.Errorf("dsl: empty field name"))
		return b
	}
	if t == nil {
		b.setErr(fmt.Errorf("dsl: field %q has nil type", name))
		return b
	}
	if _, ok := b.fields[name]; !ok {
		b.order = append(b.order, name)
	}
	b.fields[name] = t
	return b
}

// Require marks declared fields as required on load.
func (b *ObjectBuilder) Require(names ...string) *ObjectBuilder {
	for _, n := range names {
		b.required[n] = struct{}{}
	}
	return b
}

// Additional accepts extra field names that pass through untyped.
func (b *ObjectBuilder) Additional(names ...string) *ObjectBuilder {
	for _, n := range names {
		if _, ok := b.fields[n]; ok {
			continue
		}
		b.additional = append(b.additional, n)
		b.fields[n] = Any()
		b.order = append(b.order, n)
	}
	return b
}

// Fields pins the field set explicitly. Only these names are served even if
// more were declared.
func (b *ObjectBuilder) Fields(names ...string) *ObjectBuilder {
	b.explicit = append([]string{}, names...)
	return b
}

func (b *ObjectBuilder) UnknownStrict() *ObjectBuilder { return b.unknownPolicy(polyskema.UnknownStrict) }
func (b *ObjectBuilder) UnknownStrip() *ObjectBuilder  { return b.unknownPolicy(polyskema.UnknownStrip) }
func (b *ObjectBuilder) UnknownPassthrough() *ObjectBuilder {
	return b.unknownPolicy(polyskema.UnknownPassthrough)
}

func (b *ObjectBuilder) unknownPolicy(p polyskema.UnknownPolicy) *ObjectBuilder {
	b.unknown = p
	return b
}

// Make turns the loaded record into a domain value. Without it LoadOne
// returns the record.
func (b *ObjectBuilder) Make(fn func(ctx context.Context, rec polyskema.Record) (any, error)) *ObjectBuilder {
	b.make = fn
	return b
}

// Extract turns a domain value into a record before dumping. Without it
// records are used as-is and structs are read through their tags.
func (b *ObjectBuilder) Extract(fn func(v any) (polyskema.Record, error)) *ObjectBuilder {
	b.extract = fn
	return b
}

func (b *ObjectBuilder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build validates the definition and returns the ObjectSpec.
func (b *ObjectBuilder) Build() (*ObjectSpec, error) {
	if b.err != nil {
		return nil, b.err
	}
	for n := range b.required {
		if _, ok := b.fields[n]; !ok {
			return nil, fmt.Errorf("dsl: required field %q is not declared", n)
		}
	}
	for _, n := range b.explicit {
		if _, ok := b.fields[n]; !ok {
			return nil, fmt.Errorf("dsl: explicit field %q is not declared", n)
		}
	}
	fields := make(map[string]Type, len(b.fields))
	for k, v := range b.fields {
		fields[k] = v
	}
	required := make(map[string]struct{}, len(b.required))
	for k := range b.required {
		required[k] = struct{}{}
	}
	declared := make([]string, 0, len(b.order))
	for _, n := range b.order {
		if !containsName(b.additional, n) {
			declared = append(declared, n)
		}
	}
	return &ObjectSpec{
		fields:     fields,
		declared:   declared,
		additional: append([]string{}, b.additional...),
		explicit:   append([]string(nil), b.explicit...),
		required:   required,
		unknown:    b.unknown,
		make:       b.make,
		extract:    b.extract,
	}, nil
}

// MustBuild is Build that panics on error.
func (b *ObjectBuilder) MustBuild() *ObjectSpec {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

func containsName(names []string, n string) bool {
	for _, x := range names {
		if x == n {
			return true
		}
	}
	return false
}
