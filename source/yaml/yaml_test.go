package yaml_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/reoring/polyskema"
	"github.com/reoring/polyskema/dsl"
	ysrc "github.com/reoring/polyskema/source/yaml"
)

func pets(t *testing.T) *polyskema.OneOf {
	t.Helper()
	return polyskema.MustNew(map[polyskema.TypeTag]polyskema.HandlerSpec{
		"cat": dsl.Object().Field("name", dsl.String()).Field("lives", dsl.Int()).Require("name").MustBuild(),
		"dog": dsl.Object().Field("name", dsl.String()).Field("good", dsl.Bool()).Require("name").MustBuild(),
	}, polyskema.WithTypeField("kind"))
}

func TestYAML_SingleDocument(t *testing.T) {
	src, err := ysrc.Source([]byte("kind: cat\nname: Tama\nlives: 9\n"))
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	v, err := polyskema.LoadFrom(context.Background(), pets(t), src)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	rec := v.(polyskema.Record)
	if rec["name"] != "Tama" || rec["lives"] != int64(9) {
		t.Fatalf("unexpected record %#v", rec)
	}
}

func TestYAML_MultiDocumentIsBatch(t *testing.T) {
	doc := "kind: cat\nname: Tama\n---\nkind: dog\nname: Pochi\ngood: true\n---\nkind: fish\n"
	src, err := ysrc.Source([]byte(doc))
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	_, err = polyskema.LoadFrom(context.Background(), pets(t), src)
	be, ok := polyskema.AsBatchError(err)
	if !ok {
		t.Fatalf("expected batch error, got %v", err)
	}
	if idx := be.Indices(); len(idx) != 1 || idx[0] != 2 {
		t.Fatalf("only the fish document should fail: %v", idx)
	}
	if rec, _ := be.Valid[1].(polyskema.Record); rec["good"] != true {
		t.Fatalf("unexpected dog record %#v", be.Valid[1])
	}
}

func TestYAML_ScalarsAndAliases(t *testing.T) {
	ts, err := ysrc.NewBytes([]byte("base: &b {n: 1.5}\ncopy: *b\nnone: ~\nflag: true\ninf: .inf\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	src := polyskema.SourceFromEngine(ts, polyskema.NumberJSONNumber)
	v, err := polyskema.DecodeSource(src, polyskema.ParseOpt{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	m := v.(map[string]any)
	if m["copy"].(map[string]any)["n"] != json.Number("1.5") {
		t.Fatalf("alias not expanded: %#v", m["copy"])
	}
	if m["none"] != nil || m["flag"] != true || m["inf"] != ".inf" {
		t.Fatalf("unexpected scalars %#v", m)
	}
}

func TestYAML_Empty(t *testing.T) {
	if _, err := ysrc.NewBytes(nil); !errors.Is(err, ysrc.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
}
