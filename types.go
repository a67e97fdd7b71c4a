package polyskema

import (
	"sort"
)

// Record is the flat keyed wire representation of a single item.
type Record = map[string]any

// TypeTag identifies which handler applies to a value or record.
type TypeTag = string

// UnknownPolicy controls how unknown keys are handled by handlers.
type UnknownPolicy int

const (
	UnknownStrict      UnknownPolicy = iota // Reject unknown keys with an error.
	UnknownStrip                            // Drop unknown keys.
	UnknownPassthrough                      // Preserve unknown keys in the loaded record.
)

// String returns the lowercase policy name used in configuration files.
func (p UnknownPolicy) String() string {
	switch p {
	case UnknownStrip:
		return "strip"
	case UnknownPassthrough:
		return "passthrough"
	default:
		return "strict"
	}
}

// ParseUnknownPolicy maps "strict"/"strip"/"passthrough" (also "raise",
// "exclude", "include") to an UnknownPolicy.
func ParseUnknownPolicy(s string) (UnknownPolicy, bool) {
	switch s {
	case "", "strict", "raise":
		return UnknownStrict, true
	case "strip", "exclude":
		return UnknownStrip, true
	case "passthrough", "include":
		return UnknownPassthrough, true
	}
	return UnknownStrict, false
}

// Partial relaxes required-field checks during Load. All relaxes every field;
// Fields relaxes only the listed ones.
type Partial struct {
	All    bool
	Fields []string
}

// PartialAll relaxes every required field.
func PartialAll() *Partial { return &Partial{All: true} }

// PartialFields relaxes the named required fields only.
func PartialFields(names ...string) *Partial { return &Partial{Fields: names} }

// Allows reports whether a missing required field is tolerated.
func (p *Partial) Allows(field string) bool {
	if p == nil {
		return false
	}
	if p.All {
		return true
	}
	for _, f := range p.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// LoadOpt carries per-call load options. Nil members fall back to the
// defaults configured on the schema.
type LoadOpt struct {
	Partial *Partial
	Unknown *UnknownPolicy
}

// Unknown is a helper to take the address of an UnknownPolicy literal.
func Unknown(p UnknownPolicy) *UnknownPolicy { return &p }

// UnknownOr returns the requested policy or def when unset.
func (o LoadOpt) UnknownOr(def UnknownPolicy) UnknownPolicy {
	if o.Unknown == nil {
		return def
	}
	return *o.Unknown
}

// Severity expresses the severity level for issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate keys.
type Strictness struct {
	OnDuplicateKey Severity // Warn or Error (duplicate JSON keys).
}

// ParseOpt bundles options for Source-driven loading.
type ParseOpt struct {
	Strictness Strictness
	MaxDepth   int
	MaxBytes   int64
	FailFast   bool
	Load       LoadOpt
}

// Projection is the only/exclude field selection handed to a handler.
// OnlySet distinguishes an explicitly empty Only (no fields) from no Only.
type Projection struct {
	Only    []string
	OnlySet bool
	Exclude []string
}

// Requested reports whether the projection narrows anything.
func (p Projection) Requested() bool { return len(p.Only) > 0 || len(p.Exclude) > 0 }

// Apply filters names through the projection, keeping input order.
func (p Projection) Apply(names []string) []string {
	only := toSet(p.Only)
	excl := toSet(p.Exclude)
	out := make([]string, 0, len(names))
	for _, n := range names {
		if p.OnlySet {
			if _, ok := only[n]; !ok {
				continue
			}
		}
		if _, ok := excl[n]; ok {
			continue
		}
		out = append(out, n)
	}
	return out
}

func toSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NumberMode dictates how numbers decoded from a Source are represented.
type NumberMode int

const (
	NumberJSONNumber NumberMode = iota // Preserve json.Number (default).
	NumberFloat64                      // Fast mode (with potential precision loss).
)
