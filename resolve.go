package polyskema

import (
	"fmt"
	"reflect"
	"sync"
)

// TagResolver maps a domain value to its type tag. Implementations must be
// pure. An empty tag means "unresolved".
type TagResolver interface {
	ResolveTag(v any) (TypeTag, error)
}

// TagResolverFunc adapts a function into a TagResolver.
type TagResolverFunc func(v any) (TypeTag, error)

func (f TagResolverFunc) ResolveTag(v any) (TypeTag, error) { return f(v) }

// TypeNameResolver resolves the runtime concrete type name (*Foo and Foo both
// yield "Foo"). This is the default resolver.
func TypeNameResolver() TagResolver {
	return TagResolverFunc(func(v any) (TypeTag, error) { return concreteTypeName(v), nil })
}

// Tagged is implemented by values that carry their own discriminator.
type Tagged interface {
	TypeTag() TypeTag
}

// DiscriminatorResolver resolves values implementing Tagged.
func DiscriminatorResolver() TagResolver {
	return TagResolverFunc(func(v any) (TypeTag, error) {
		if t, ok := v.(Tagged); ok {
			return t.TypeTag(), nil
		}
		return "", nil
	})
}

// FieldResolver resolves records that already carry their tag under name.
// Non-string tag values are left unresolved.
func FieldResolver(name string) TagResolver {
	return TagResolverFunc(func(v any) (TypeTag, error) {
		r, ok := v.(Record)
		if !ok {
			return "", nil
		}
		s, _ := r[name].(string)
		return s, nil
	})
}

// ChainResolver returns the first non-empty tag from rs. Errors stop the chain.
func ChainResolver(rs ...TagResolver) TagResolver {
	return TagResolverFunc(func(v any) (TypeTag, error) {
		for _, r := range rs {
			if r == nil {
				continue
			}
			t, err := r.ResolveTag(v)
			if err != nil {
				return "", err
			}
			if t != "" {
				return t, nil
			}
		}
		return "", nil
	})
}

// TypeMapResolver maps registered Go types to tags. Pointer and value forms of
// a registered type resolve to the same tag. Safe for concurrent use.
type TypeMapResolver struct {
	mu    sync.RWMutex
	byTyp map[reflect.Type]TypeTag
}

// NewTypeMapResolver returns an empty TypeMapResolver.
func NewTypeMapResolver() *TypeMapResolver {
	return &TypeMapResolver{byTyp: map[reflect.Type]TypeTag{}}
}

// Register associates T with tag. Registering the same type twice is an error.
func Register[T any](r *TypeMapResolver, tag TypeTag) error {
	return r.RegisterType(reflect.TypeOf((*T)(nil)).Elem(), tag)
}

// RegisterType associates rt (pointers removed) with tag.
func (r *TypeMapResolver) RegisterType(rt reflect.Type, tag TypeTag) error {
	if rt == nil || tag == "" {
		return fmt.Errorf("polyskema: type registry: type and tag are required")
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byTyp[rt]; ok {
		return fmt.Errorf("polyskema: type registry: %s already registered as %q", rt, prev)
	}
	r.byTyp[rt] = tag
	return nil
}

func (r *TypeMapResolver) ResolveTag(v any) (TypeTag, error) {
	if v == nil {
		return "", nil
	}
	rt := reflect.TypeOf(v)
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	r.mu.RLock()
	tag := r.byTyp[rt]
	r.mu.RUnlock()
	return tag, nil
}
