package dsl

import (
	"context"
	"fmt"
	"sort"

	"github.com/reoring/polyskema"
	js "github.com/reoring/polyskema/jsonschema"
)

// ObjectSpec is a built record definition. It is immutable and safe to share
// between dispatch schemas.
type ObjectSpec struct {
	fields     map[string]Type
	declared   []string
	additional []string
	explicit   []string
	required   map[string]struct{}
	unknown    polyskema.UnknownPolicy
	make       func(ctx context.Context, rec polyskema.Record) (any, error)
	extract    func(v any) (polyskema.Record, error)
}

var (
	_ polyskema.HandlerSpec       = (*ObjectSpec)(nil)
	_ polyskema.AdditionalFielder = (*ObjectSpec)(nil)
	_ polyskema.ExplicitFielder   = (*ObjectSpec)(nil)
	_ polyskema.Handler           = (*ObjectHandler)(nil)
	_ polyskema.JSONSchemaer      = (*ObjectHandler)(nil)
)

func (s *ObjectSpec) DeclaredFieldNames() []string   { return append([]string{}, s.declared...) }
func (s *ObjectSpec) AdditionalFieldNames() []string { return append([]string{}, s.additional...) }
func (s *ObjectSpec) ExplicitFieldNames() []string   { return append([]string(nil), s.explicit...) }

// baseFields is the set a projection is applied to.
func (s *ObjectSpec) baseFields() []string {
	if len(s.explicit) > 0 {
		return s.explicit
	}
	out := make([]string, 0, len(s.declared)+len(s.additional))
	out = append(out, s.declared...)
	return append(out, s.additional...)
}

// New configures a handler for projection p. Names outside the object's field
// set are rejected; the dispatch layer narrows projections before calling.
func (s *ObjectSpec) New(p polyskema.Projection) (polyskema.Handler, error) {
	return s.Handler(p)
}

// Handler is New with the concrete return type.
func (s *ObjectSpec) Handler(p polyskema.Projection) (*ObjectHandler, error) {
	base := s.baseFields()
	for _, list := range [][]string{p.Only, p.Exclude} {
		for _, n := range list {
			if !containsName(base, n) {
				return nil, fmt.Errorf("dsl: invalid fields for projection: %q", n)
			}
		}
	}
	return &ObjectHandler{spec: s, active: p.Apply(base)}, nil
}

// ObjectHandler is an ObjectSpec bound to one projection.
type ObjectHandler struct {
	spec   *ObjectSpec
	active []string
}

// ActiveFieldNames lists the fields this handler loads and dumps.
func (h *ObjectHandler) ActiveFieldNames() []string { return append([]string{}, h.active...) }

func (h *ObjectHandler) DeclaredFieldNames() []string { return h.spec.DeclaredFieldNames() }

// LoadOne validates rec field by field. Keys outside the active set follow
// the unknown policy; required fields may be relaxed through opt.Partial.
func (h *ObjectHandler) LoadOne(ctx context.Context, rec polyskema.Record, opt polyskema.LoadOpt) (any, error) {
	active := toNameSet(h.active)
	policy := opt.UnknownOr(h.spec.unknown)
	out := make(polyskema.Record, len(rec))
	var iss polyskema.Issues

	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		at := polyskema.Root().Field(k)
		if _, ok := active[k]; !ok {
			switch policy {
			case polyskema.UnknownPassthrough:
				out[k] = rec[k]
			case polyskema.UnknownStrict:
				iss = append(iss, translated(at, polyskema.CodeUnknownKey))
			}
			continue
		}
		v, err := h.spec.fields[k].Load(ctx, rec[k])
		if err != nil {
			iss = append(iss, polyskema.IssuesFromErr("/", err).Rebase(at.Pointer())...)
			continue
		}
		out[k] = v
	}

	for _, n := range h.active {
		if _, req := h.spec.required[n]; !req {
			continue
		}
		if _, ok := rec[n]; ok || opt.Partial.Allows(n) {
			continue
		}
		iss = append(iss, translated(polyskema.Root().Field(n), polyskema.CodeRequired))
	}

	if len(iss) > 0 {
		sortIssues(iss)
		return nil, &polyskema.PartialError{Issues: iss, Valid: out}
	}
	if h.spec.make == nil {
		return out, nil
	}
	v, err := h.spec.make(ctx, out)
	if err != nil {
		return nil, &polyskema.PartialError{Issues: customIssues(err), Valid: out}
	}
	return v, nil
}

// DumpOne serializes the active fields present on v.
func (h *ObjectHandler) DumpOne(ctx context.Context, v any) (polyskema.Record, error) {
	src, err := h.source(v)
	if err != nil {
		return nil, customIssues(err)
	}
	out := make(polyskema.Record, len(h.active))
	var iss polyskema.Issues
	for _, n := range h.active {
		raw, ok := src[n]
		if !ok {
			continue
		}
		d, err := h.spec.fields[n].Dump(ctx, raw)
		if err != nil {
			iss = append(iss, polyskema.IssuesFromErr("/", err).Rebase(polyskema.Root().Field(n).Pointer())...)
			continue
		}
		out[n] = d
	}
	if len(iss) > 0 {
		return nil, &polyskema.PartialError{Issues: iss, Valid: out}
	}
	return out, nil
}

func (h *ObjectHandler) source(v any) (polyskema.Record, error) {
	if h.spec.extract != nil {
		return h.spec.extract(v)
	}
	switch t := v.(type) {
	case polyskema.Record:
		return t, nil
	case map[string]string:
		out := make(polyskema.Record, len(t))
		for k, s := range t {
			out[k] = s
		}
		return out, nil
	}
	if r, ok := polyskema.StructRecord(v); ok {
		return r, nil
	}
	return nil, polyskema.Issues{polyskema.IssueAt(polyskema.Root(), polyskema.CodeInvalidType,
		fmt.Sprintf("cannot read fields from %T", v), nil)}
}

// JSONSchema describes the record this handler loads.
func (h *ObjectHandler) JSONSchema() (*js.Schema, error) {
	out := &js.Schema{Type: "object", Properties: map[string]*js.Schema{}}
	for _, n := range h.active {
		ps, err := h.spec.fields[n].JSONSchema()
		if err != nil {
			return nil, fmt.Errorf("dsl: field %q: %w", n, err)
		}
		out.Properties[n] = ps
		if _, ok := h.spec.required[n]; ok {
			out.Required = append(out.Required, n)
		}
	}
	sort.Strings(out.Required)
	if h.spec.unknown == polyskema.UnknownStrict {
		out.AdditionalProperties = false
	}
	return out, nil
}

func translated(at polyskema.PathRef, code string) polyskema.Issue {
	return polyskema.IssueAt(at, code, i18nT(code), nil)
}

// customIssues keeps Issues returned by hooks and wraps anything else.
func customIssues(err error) polyskema.Issues {
	if iss, ok := polyskema.AsIssues(err); ok {
		return iss
	}
	return polyskema.Issues{polyskema.Issue{Path: "/", Code: polyskema.CodeCustom, Message: err.Error(), Cause: err, Offset: -1}}
}

func sortIssues(iss polyskema.Issues) {
	sort.SliceStable(iss, func(i, j int) bool { return iss[i].Path < iss[j].Path })
}

func toNameSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}
