package polyskema_test

import (
	"context"
	"strings"
	"testing"

	"github.com/reoring/polyskema"
)

func TestLoadFrom_JSONBatch(t *testing.T) {
	s := newFooBar(t)
	src := polyskema.JSONBytes([]byte(`[{"type":"foo","foo":"a"},{"type":"bar","bar":5}]`))
	v, err := polyskema.LoadFrom(context.Background(), s, src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out, ok := v.([]any)
	if !ok || len(out) != 2 {
		t.Fatalf("unexpected result %#v", v)
	}
	if b, ok := out[1].(Bar); !ok || b.Bar != 5 {
		t.Fatalf("unexpected bar %#v", out[1])
	}
}

func TestLoadFrom_DuplicateKey(t *testing.T) {
	s := newFooBar(t)
	doc := []byte(`{"type":"foo","foo":"a","foo":"b"}`)
	opt := polyskema.ParseOpt{Strictness: polyskema.Strictness{OnDuplicateKey: polyskema.Error}}
	_, err := polyskema.LoadFrom(context.Background(), s, polyskema.JSONBytes(doc), opt)
	iss, ok := polyskema.AsIssues(err)
	if !ok || iss[0].Code != polyskema.CodeDuplicateKey || iss[0].Path != "/foo" {
		t.Fatalf("expected duplicate_key at /foo, got %v", err)
	}

	// Without strictness the last value wins.
	v, err := polyskema.LoadFrom(context.Background(), s, polyskema.JSONBytes(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if f, ok := v.(Foo); !ok || f.Foo != "b" {
		t.Fatalf("unexpected value %#v", v)
	}
}

func TestLoadFrom_MaxDepthAndSyntax(t *testing.T) {
	s := newFooBar(t)
	_, err := polyskema.LoadFrom(context.Background(), s, polyskema.JSONBytes([]byte(`{"type":{"a":{"b":1}}}`)),
		polyskema.ParseOpt{MaxDepth: 2})
	iss, ok := polyskema.AsIssues(err)
	if !ok || iss[0].Code != polyskema.CodeParseError {
		t.Fatalf("expected parse_error for depth, got %v", err)
	}
	_, err = polyskema.LoadFrom(context.Background(), s, polyskema.JSONBytes([]byte(`{"type":`)))
	if iss, ok := polyskema.AsIssues(err); !ok || iss[0].Code != polyskema.CodeParseError {
		t.Fatalf("expected parse_error for truncated input, got %v", err)
	}
}

func TestStreamLoad_MaxBytes(t *testing.T) {
	s := newFooBar(t)
	body := `{"type":"foo","foo":"` + strings.Repeat("x", 64) + `"}`
	_, err := polyskema.StreamLoad(context.Background(), s, strings.NewReader(body), polyskema.ParseOpt{MaxBytes: 16})
	iss, ok := polyskema.AsIssues(err)
	if !ok || iss[0].Code != polyskema.CodeTruncated {
		t.Fatalf("expected truncated, got %v", err)
	}
	v, err := polyskema.StreamLoad(context.Background(), s, strings.NewReader(body))
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if _, ok := v.(Foo); !ok {
		t.Fatalf("unexpected value %#v", v)
	}
}

func TestDecodeSource_NumberMode(t *testing.T) {
	src := polyskema.WithNumberMode(polyskema.JSONBytes([]byte(`{"n":1.5}`)), polyskema.NumberFloat64)
	v, err := polyskema.DecodeSource(src, polyskema.ParseOpt{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if v.(map[string]any)["n"] != 1.5 {
		t.Fatalf("expected float64, got %#v", v)
	}
}
