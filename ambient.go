package polyskema

import "context"

// Ambient is side-channel key/value state (request-scoped data and the like)
// that handlers observe during a delegated call.
type Ambient map[string]any

// Clone returns a shallow copy; nil stays nil.
func (a Ambient) Clone() Ambient {
	if a == nil {
		return nil
	}
	out := make(Ambient, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge returns a new Ambient holding a overlaid by b.
func (a Ambient) Merge(b Ambient) Ambient {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make(Ambient, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

type ambientKey struct{}

// WithAmbient returns a child context carrying amb merged over any Ambient
// already present in ctx.
func WithAmbient(ctx context.Context, amb Ambient) context.Context {
	return context.WithValue(ctx, ambientKey{}, AmbientFrom(ctx).Merge(amb))
}

// AmbientFrom returns a copy of the Ambient carried by ctx, or nil.
func AmbientFrom(ctx context.Context) Ambient {
	if ctx == nil {
		return nil
	}
	a, _ := ctx.Value(ambientKey{}).(Ambient)
	return a.Clone()
}

// AmbientValue fetches one typed value from the ctx Ambient.
func AmbientValue[T any](ctx context.Context, key string) (T, bool) {
	var zero T
	if ctx == nil {
		return zero, false
	}
	a, _ := ctx.Value(ambientKey{}).(Ambient)
	v, ok := a[key]
	if !ok {
		return zero, false
	}
	tv, ok := v.(T)
	return tv, ok
}
