package polyskema_test

import (
	"errors"
	"testing"

	"github.com/reoring/polyskema"
)

type shape struct{ kind string }

func (s shape) TypeTag() polyskema.TypeTag { return s.kind }

func TestTypeNameResolver(t *testing.T) {
	r := polyskema.TypeNameResolver()
	for _, v := range []any{Foo{}, &Foo{}} {
		if tag, _ := r.ResolveTag(v); tag != "Foo" {
			t.Fatalf("want Foo, got %q", tag)
		}
	}
	if tag, _ := r.ResolveTag(nil); tag != "" {
		t.Fatalf("nil should be unresolved, got %q", tag)
	}
}

func TestTypeMapResolver(t *testing.T) {
	r := polyskema.NewTypeMapResolver()
	if err := polyskema.Register[Foo](r, "foo"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := polyskema.Register[*Foo](r, "again"); err == nil {
		t.Fatalf("pointer form should collide with the value form")
	}
	if tag, _ := r.ResolveTag(&Foo{}); tag != "foo" {
		t.Fatalf("want foo, got %q", tag)
	}
	if tag, _ := r.ResolveTag(Bar{}); tag != "" {
		t.Fatalf("unregistered type resolved to %q", tag)
	}
}

func TestDiscriminatorAndFieldResolvers(t *testing.T) {
	if tag, _ := polyskema.DiscriminatorResolver().ResolveTag(shape{kind: "circle"}); tag != "circle" {
		t.Fatalf("want circle, got %q", tag)
	}
	fr := polyskema.FieldResolver("kind")
	if tag, _ := fr.ResolveTag(polyskema.Record{"kind": "square"}); tag != "square" {
		t.Fatalf("want square, got %q", tag)
	}
	if tag, _ := fr.ResolveTag(polyskema.Record{"kind": 1}); tag != "" {
		t.Fatalf("non-string tag should be unresolved, got %q", tag)
	}
}

func TestChainResolver(t *testing.T) {
	boom := errors.New("boom")
	chain := polyskema.ChainResolver(nil, polyskema.DiscriminatorResolver(), polyskema.TypeNameResolver())
	if tag, _ := chain.ResolveTag(shape{kind: "c"}); tag != "c" {
		t.Fatalf("first resolver should win, got %q", tag)
	}
	if tag, _ := chain.ResolveTag(Bar{}); tag != "Bar" {
		t.Fatalf("fallback should apply, got %q", tag)
	}
	failing := polyskema.ChainResolver(polyskema.TagResolverFunc(func(any) (polyskema.TypeTag, error) { return "", boom }),
		polyskema.TypeNameResolver())
	if _, err := failing.ResolveTag(Bar{}); !errors.Is(err, boom) {
		t.Fatalf("error should stop the chain, got %v", err)
	}
}
