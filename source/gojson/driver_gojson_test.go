package gojson_test

import (
	"context"
	"testing"

	"github.com/reoring/polyskema"
	"github.com/reoring/polyskema/dsl"
	"github.com/reoring/polyskema/source/gojson"
)

func TestDriver_LoadsThroughDispatch(t *testing.T) {
	s := polyskema.MustNew(map[polyskema.TypeTag]polyskema.HandlerSpec{
		"point": dsl.Object().Field("x", dsl.Int()).Field("y", dsl.Int()).Require("x").MustBuild(),
	})
	src := gojson.Driver().NewBytes([]byte(`{"type":"point","x":1,"y":2}`))
	v, err := polyskema.LoadFrom(context.Background(), s, src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rec := v.(polyskema.Record)
	if rec["x"] != int64(1) || rec["y"] != int64(2) {
		t.Fatalf("unexpected record %#v", rec)
	}
	if gojson.Driver().Name() != "go-json" {
		t.Fatalf("unexpected driver name")
	}
}

func TestDriver_DuplicateKeys(t *testing.T) {
	src := gojson.Driver().NewBytes([]byte(`{"a":1,"a":2}`))
	_, err := polyskema.DecodeSource(src, polyskema.ParseOpt{Strictness: polyskema.Strictness{OnDuplicateKey: polyskema.Error}})
	iss, ok := polyskema.AsIssues(err)
	if !ok || iss[0].Code != polyskema.CodeDuplicateKey {
		t.Fatalf("expected duplicate_key, got %v", err)
	}
}
