package polyskema

import (
	"context"

	js "github.com/reoring/polyskema/jsonschema"
)

// Handler is the capability a single-shape sub-schema exposes to the dispatch
// layer. Implementations report field failures as Issues, or as *PartialError
// when some of the item was still produced.
type Handler interface {
	// LoadOne validates and transforms one record (the discriminator has
	// already been stripped when the schema is configured to do so).
	LoadOne(ctx context.Context, rec Record, opt LoadOpt) (any, error)
	// DumpOne serializes one domain value into a record.
	DumpOne(ctx context.Context, v any) (Record, error)
	// DeclaredFieldNames lists the fields the handler processes.
	DeclaredFieldNames() []string
}

// HandlerSpec describes a handler before it is configured. The dispatch
// schema reads the field names to narrow projections, then calls New once.
type HandlerSpec interface {
	DeclaredFieldNames() []string
	New(p Projection) (Handler, error)
}

// AdditionalFielder is implemented by specs that accept extra field names on
// top of the declared ones.
type AdditionalFielder interface {
	AdditionalFieldNames() []string
}

// ExplicitFielder is implemented by specs whose field set is pinned
// explicitly. When present it replaces declared plus additional names.
type ExplicitFielder interface {
	ExplicitFieldNames() []string
}

// JSONSchemaer is implemented by handlers that can describe their record.
type JSONSchemaer interface {
	JSONSchema() (*js.Schema, error)
}

// HandlerFuncs adapts plain functions into a HandlerSpec/Handler pair. The
// projection passed to New is available through Projection.
type HandlerFuncs struct {
	Fields     []string
	Additional []string
	Load       func(ctx context.Context, rec Record, opt LoadOpt) (any, error)
	Dump       func(ctx context.Context, v any) (Record, error)

	projection Projection
}

var (
	_ HandlerSpec       = (*HandlerFuncs)(nil)
	_ AdditionalFielder = (*HandlerFuncs)(nil)
)

func (h *HandlerFuncs) DeclaredFieldNames() []string   { return h.Fields }
func (h *HandlerFuncs) AdditionalFieldNames() []string { return h.Additional }

// Projection returns the projection this handler was configured with.
func (h *HandlerFuncs) Projection() Projection { return h.projection }

func (h *HandlerFuncs) New(p Projection) (Handler, error) {
	cp := *h
	cp.projection = p
	return &cp, nil
}

func (h *HandlerFuncs) LoadOne(ctx context.Context, rec Record, opt LoadOpt) (any, error) {
	if h.Load == nil {
		return rec, nil
	}
	return h.Load(ctx, rec, opt)
}

func (h *HandlerFuncs) DumpOne(ctx context.Context, v any) (Record, error) {
	if h.Dump == nil {
		if r, ok := v.(Record); ok {
			return cloneRecord(r), nil
		}
		return nil, Issues{Root().Issue(CodeInvalidType, "expected record")}
	}
	return h.Dump(ctx, v)
}

func cloneRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
