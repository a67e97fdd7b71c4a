package polyskema

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// DefaultTypeField is the discriminator field name used when none is set.
const DefaultTypeField = "type"

// OneOf multiplexes registered handlers by a type tag. Values are dumped by
// the handler their resolved tag selects, with the tag written into the
// output record; records are loaded by the handler their discriminator field
// selects. All configuration is fixed by New, so a OneOf is safe for
// concurrent use as long as its handlers are.
type OneOf struct {
	typeField    string
	removeOnLoad bool
	injectOnDump bool
	resolver     TagResolver
	handlers     map[TypeTag]Handler
	ambient      Ambient
	unknown      *UnknownPolicy
	partial      *Partial
	projection   Projection
}

type config struct {
	typeField    string
	removeOnLoad bool
	injectOnDump bool
	only         []string
	onlySet      bool
	exclude      []string
	resolver     TagResolver
	ambient      Ambient
	unknown      *UnknownPolicy
	partial      *Partial
}

// Option configures a OneOf at construction time.
type Option func(*config)

// WithTypeField sets the discriminator field name (default "type").
func WithTypeField(name string) Option { return func(c *config) { c.typeField = name } }

// WithRemoveTypeFieldOnLoad controls whether the discriminator is stripped
// from the record before the handler sees it (default true).
func WithRemoveTypeFieldOnLoad(b bool) Option { return func(c *config) { c.removeOnLoad = b } }

// WithInjectTypeFieldOnDump controls whether the resolved tag is written into
// dumped records (default true). WithOnly/WithExclude override it.
func WithInjectTypeFieldOnDump(b bool) Option { return func(c *config) { c.injectOnDump = b } }

// WithOnly restricts every handler to the named fields. Naming the type field
// keeps tag injection on; leaving it out turns injection off.
func WithOnly(fields ...string) Option {
	return func(c *config) {
		c.only = append([]string{}, fields...)
		c.onlySet = true
	}
}

// WithExclude removes the named fields from every handler. Naming the type
// field turns tag injection off.
func WithExclude(fields ...string) Option {
	return func(c *config) { c.exclude = append(c.exclude, fields...) }
}

// WithResolver replaces the default TypeNameResolver.
func WithResolver(r TagResolver) Option { return func(c *config) { c.resolver = r } }

// WithContext sets the ambient state every delegated call observes.
func WithContext(a Ambient) Option { return func(c *config) { c.ambient = a.Clone() } }

// WithUnknown sets the unknown-key policy used when a load call sets none.
// Without it each handler applies its own policy.
func WithUnknown(p UnknownPolicy) Option { return func(c *config) { c.unknown = Unknown(p) } }

// WithPartial sets the partial policy used when a load call sets none.
func WithPartial(p *Partial) Option { return func(c *config) { c.partial = p } }

// New builds a OneOf from a tag -> spec registry. Each spec is instantiated
// exactly once with the projection narrowed to the fields it can serve.
func New(variants map[TypeTag]HandlerSpec, opts ...Option) (*OneOf, error) {
	cfg := config{typeField: DefaultTypeField, removeOnLoad: true, injectOnDump: true}
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	if cfg.typeField == "" {
		return nil, fmt.Errorf("polyskema: type field name must not be empty")
	}
	if cfg.resolver == nil {
		cfg.resolver = TypeNameResolver()
	}

	// The type field is consumed here: it decides injection and never reaches
	// a handler as a field name.
	if cfg.onlySet {
		cfg.injectOnDump = contains(cfg.only, cfg.typeField)
	}
	if len(cfg.exclude) > 0 {
		cfg.injectOnDump = !contains(cfg.exclude, cfg.typeField)
	}
	proj := Projection{
		Only:    without(cfg.only, cfg.typeField),
		OnlySet: cfg.onlySet,
		Exclude: without(cfg.exclude, cfg.typeField),
	}

	s := &OneOf{
		typeField:    cfg.typeField,
		removeOnLoad: cfg.removeOnLoad,
		injectOnDump: cfg.injectOnDump,
		resolver:     cfg.resolver,
		handlers:     make(map[TypeTag]Handler, len(variants)),
		ambient:      cfg.ambient,
		unknown:      cfg.unknown,
		partial:      cfg.partial,
		projection:   proj,
	}
	for _, tag := range sortedKeys(variants) {
		spec := variants[tag]
		if tag == "" {
			return nil, fmt.Errorf("polyskema: variant tag must not be empty")
		}
		if spec == nil {
			return nil, fmt.Errorf("polyskema: variant %q: nil handler spec", tag)
		}
		h, err := spec.New(NarrowProjection(spec, proj))
		if err != nil {
			return nil, fmt.Errorf("polyskema: variant %q: %w", tag, err)
		}
		if h == nil {
			return nil, fmt.Errorf("polyskema: variant %q: spec returned nil handler", tag)
		}
		s.handlers[tag] = h
	}
	return s, nil
}

// MustNew is like New but panics on error.
func MustNew(variants map[TypeTag]HandlerSpec, opts ...Option) *OneOf {
	s, err := New(variants, opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// TypeField returns the discriminator field name.
func (s *OneOf) TypeField() string { return s.typeField }

// InjectsTypeField reports whether Dump writes the tag into records.
func (s *OneOf) InjectsTypeField() bool { return s.injectOnDump }

// Tags returns the registered tags in ascending order.
func (s *OneOf) Tags() []TypeTag { return sortedKeys(s.handlers) }

// Handler returns the configured handler for tag.
func (s *OneOf) Handler(tag TypeTag) (Handler, bool) {
	h, ok := s.handlers[tag]
	return h, ok
}

// Projection returns the projection forwarded to handlers before narrowing.
func (s *OneOf) Projection() Projection { return s.projection }

// ---- dump ----

// DumpOne serializes a single value through the handler its tag selects.
func (s *OneOf) DumpOne(ctx context.Context, v any) (Record, error) {
	tag, err := s.resolver.ResolveTag(v)
	if err != nil || tag == "" {
		iss := translatedAt(Root(), CodeUnresolvedType, map[string]string{"type": describeType(v)})
		iss.Cause = err
		return nil, Issues{iss}
	}
	h, ok := s.handlers[tag]
	if !ok {
		return nil, Issues{translatedAt(Root(), CodeUnsupportedType, map[string]string{"tag": tag})}
	}
	rec, err := h.DumpOne(s.delegateContext(ctx), v)
	if err != nil {
		return nil, err
	}
	// Injected after the handler ran, so a handler field of the same name
	// never wins.
	if rec != nil && s.injectOnDump {
		rec[s.typeField] = tag
	}
	return rec, nil
}

// Dump serializes values in order. Failed items do not stop the pass; when
// any item fails the result is a *BatchError whose Valid holds every item's
// output (partial data or nil for failures).
func (s *OneOf) Dump(ctx context.Context, values []any) ([]Record, error) {
	out := make([]Record, len(values))
	be := &BatchError{Data: values, Valid: make([]any, len(values))}
	for i, v := range values {
		rec, err := s.DumpOne(ctx, v)
		if err != nil {
			be.add(i, err)
			be.Valid[i] = PartialData(err)
			if p, ok := be.Valid[i].(Record); ok {
				out[i] = p
			}
			continue
		}
		out[i] = rec
		be.Valid[i] = rec
	}
	if len(be.Errors) > 0 {
		return out, be
	}
	return out, nil
}

// DumpMany is a typed convenience over Dump.
func DumpMany[T any](ctx context.Context, s *OneOf, values []T) ([]Record, error) {
	items := make([]any, len(values))
	for i, v := range values {
		items[i] = v
	}
	return s.Dump(ctx, items)
}

// ---- load ----

// LoadOne loads a single record through the handler its discriminator
// selects. The caller's record is never modified.
func (s *OneOf) LoadOne(ctx context.Context, data any, opts ...LoadOpt) (any, error) {
	return s.loadOne(ctx, data, s.loadOpt(opts))
}

func (s *OneOf) loadOne(ctx context.Context, data any, opt LoadOpt) (any, error) {
	in, ok := asRecord(data)
	if !ok {
		return nil, Issues{translatedAt(Root(), CodeInvalidType, map[string]string{"value": fmt.Sprintf("%v", data)})}
	}
	rec := cloneRecord(in)
	field := Root().Field(s.typeField)

	raw, present := rec[s.typeField]
	if present && s.removeOnLoad {
		delete(rec, s.typeField)
	}
	if isFalsy(raw) {
		return nil, Issues{translatedAt(field, CodeDiscriminatorMissing, nil)}
	}
	tag, ok := raw.(string)
	if !ok {
		// A comparable scalar is a well-formed key that matches no handler;
		// lists and maps cannot be keys at all.
		code := CodeDiscriminatorInvalid
		if reflect.TypeOf(raw).Comparable() {
			code = CodeDiscriminatorUnknown
		}
		return nil, Issues{translatedAt(field, code, map[string]string{"value": fmt.Sprintf("%v", raw)})}
	}
	h, ok := s.handlers[tag]
	if !ok {
		return nil, Issues{translatedAt(field, CodeDiscriminatorUnknown, map[string]string{"value": tag})}
	}
	return h.LoadOne(s.delegateContext(ctx), rec, opt)
}

// Load loads records in order with the same accumulate-then-fail semantics
// as Dump.
func (s *OneOf) Load(ctx context.Context, items []any, opts ...LoadOpt) ([]any, error) {
	opt := s.loadOpt(opts)
	out := make([]any, len(items))
	be := &BatchError{Data: items, Valid: out}
	for i, it := range items {
		v, err := s.loadOne(ctx, it, opt)
		if err != nil {
			be.add(i, err)
			out[i] = PartialData(err)
			continue
		}
		out[i] = v
	}
	if len(be.Errors) > 0 {
		return out, be
	}
	return out, nil
}

// LoadValue loads a slice as a batch and anything else as a single item.
func (s *OneOf) LoadValue(ctx context.Context, data any, opts ...LoadOpt) (any, error) {
	if items, ok := asSlice(data); ok {
		return s.Load(ctx, items, opts...)
	}
	return s.LoadOne(ctx, data, opts...)
}

// Validate loads data (a slice is treated as a batch) and returns the error
// messages, or an empty map. It never fails.
//
// Single items yield field -> []string; batches yield index -> field -> []string.
func (s *OneOf) Validate(ctx context.Context, data any, opts ...LoadOpt) map[string]any {
	_, err := s.LoadValue(ctx, data, opts...)
	return Messages(err)
}

// Messages normalizes a load/dump error into the map Validate returns.
func Messages(err error) map[string]any {
	out := map[string]any{}
	if err == nil {
		return out
	}
	if be, ok := AsBatchError(err); ok {
		for k, m := range be.Messages() {
			out[strconv.Itoa(k)] = m
		}
		return out
	}
	for k, m := range IssuesFromErr("/", err).Messages() {
		out[k] = m
	}
	return out
}

// ---- helpers ----

func (s *OneOf) loadOpt(opts []LoadOpt) LoadOpt {
	var opt LoadOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.Unknown == nil {
		opt.Unknown = s.unknown
	}
	if opt.Partial == nil {
		opt.Partial = s.partial
	}
	return opt
}

// delegateContext hands the handler a fresh Ambient: the schema's own state
// overlaid by whatever the caller put on ctx.
func (s *OneOf) delegateContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	merged := s.ambient.Merge(AmbientFrom(ctx))
	if merged == nil {
		return ctx
	}
	return context.WithValue(ctx, ambientKey{}, merged)
}

func (be *BatchError) add(i int, err error) {
	if be.Errors == nil {
		be.Errors = map[int]Issues{}
	}
	be.Errors[i] = IssuesFromErr("/", err)
}

func asRecord(v any) (Record, bool) {
	switch t := v.(type) {
	case Record:
		return t, t != nil
	case map[string]string:
		out := make(Record, len(t))
		for k, vv := range t {
			out[k] = vv
		}
		return out, true
	}
	return nil, false
}

func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []Record:
		out := make([]any, len(t))
		for i, r := range t {
			out[i] = r
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// isFalsy treats nil, zero scalars and empty containers as a missing tag.
func isFalsy(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		if n, ok := v.(interface{ Float64() (float64, error) }); ok {
			f, err := n.Float64()
			return err == nil && f == 0
		}
		return rv.Len() == 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.IsZero()
	}
	return false
}

func contains(names []string, n string) bool {
	for _, x := range names {
		if x == n {
			return true
		}
	}
	return false
}

func without(names []string, n string) []string {
	if names == nil {
		return nil
	}
	out := make([]string, 0, len(names))
	for _, x := range names {
		if x != n {
			out = append(out, x)
		}
	}
	return out
}

// NarrowProjection intersects a requested projection with the fields spec can
// serve: its explicit field set when it has one, otherwise declared plus
// additional names. Names a variant lacks are dropped silently.
func NarrowProjection(spec HandlerSpec, p Projection) Projection {
	if !p.Requested() {
		return p
	}
	avail := toSet(availableFields(spec))
	out := Projection{OnlySet: p.OnlySet}
	if p.OnlySet {
		out.Only = intersect(p.Only, avail)
	}
	if len(p.Exclude) > 0 {
		out.Exclude = intersect(p.Exclude, avail)
	}
	return out
}

func availableFields(spec HandlerSpec) []string {
	if ef, ok := spec.(ExplicitFielder); ok {
		if names := ef.ExplicitFieldNames(); len(names) > 0 {
			return names
		}
	}
	names := append([]string{}, spec.DeclaredFieldNames()...)
	if af, ok := spec.(AdditionalFielder); ok {
		names = append(names, af.AdditionalFieldNames()...)
	}
	return names
}

func intersect(names []string, avail map[string]struct{}) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, n := range names {
		if _, ok := avail[n]; !ok {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
