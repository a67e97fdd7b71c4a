package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	j "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const shapesYAML = `
type_field: kind
variants:
  circle:
    fields:
      radius: {type: float, required: true}
  label:
    fields:
      text: {type: string, required: true}
`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

// run executes the CLI with an isolated HOME so no user config leaks in.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	var out bytes.Buffer
	a := newApp(strings.NewReader(stdin), &out)
	a.log = zerolog.Nop()
	cmd := a.root()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidate_Files(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "shapes.yaml", shapesYAML)
	good := writeFile(t, dir, "good.json", `[{"kind":"circle","radius":1},{"kind":"label","text":"hi"}]`)
	bad := writeFile(t, dir, "bad.yaml", "kind: label\n")

	out, err := run(t, "", "validate", "--schema", schema, good)
	if err != nil {
		t.Fatalf("validate good: %v (%s)", err, out)
	}
	if !strings.Contains(out, `"valid": true`) {
		t.Errorf("unexpected output %s", out)
	}

	out, err = run(t, "", "validate", "--schema", schema, good, bad)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("expected errInvalid, got %v", err)
	}
	if !strings.Contains(out, `"text"`) || !strings.Contains(out, "Missing data for required field.") {
		t.Errorf("unexpected output %s", out)
	}
}

func TestValidate_StdinAndDuplicateKeys(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "shapes.yaml", shapesYAML)
	doc := `{"kind":"circle","radius":1,"radius":2}`

	if _, err := run(t, doc, "validate", "--schema", schema); !errors.Is(err, errInvalid) {
		t.Fatalf("duplicate keys should fail by default, got %v", err)
	}
	if out, err := run(t, doc, "validate", "--schema", schema, "--duplicate-keys", "ignore", "--driver", "std"); err != nil {
		t.Fatalf("ignore duplicates: %v (%s)", err, out)
	}
}

func TestLoad_RedumpsWithTag(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "shapes.yaml", shapesYAML)
	out, err := run(t, "kind: circle\nradius: 2.5\n", "load", "--schema", schema)
	if err != nil {
		t.Fatalf("load: %v (%s)", err, out)
	}
	var rec map[string]any
	if err := j.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%s)", err, out)
	}
	if rec["kind"] != "circle" || rec["radius"] != 2.5 {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestSchema_PrintsOneOf(t *testing.T) {
	dir := t.TempDir()
	schema := writeFile(t, dir, "shapes.yaml", shapesYAML)
	out, err := run(t, "", "schema", "--schema", schema)
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	var doc struct {
		OneOf         []map[string]any `json:"oneOf"`
		Discriminator struct {
			PropertyName string `json:"propertyName"`
		} `json:"discriminator"`
	}
	if err := j.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(doc.OneOf) != 2 || doc.Discriminator.PropertyName != "kind" {
		t.Errorf("unexpected schema %s", out)
	}
}

func TestSetup_ConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "shapes.yaml", shapesYAML)
	cfg := writeFile(t, dir, "config.toml", "schema = \"shapes.yaml\"\nlang = \"ja\"\n")
	t.Setenv("POLYSKEMA_LANG", "en")

	out, err := run(t, `{"kind":"square"}`, "validate", "--config", cfg)
	if !errors.Is(err, errInvalid) {
		t.Fatalf("expected errInvalid, got %v (%s)", err, out)
	}
	if !strings.Contains(out, "Unsupported value: square") {
		t.Errorf("env language should override the file: %s", out)
	}

	if _, err := run(t, "", "validate"); err == nil || errors.Is(err, errInvalid) {
		t.Errorf("missing schema should be a setup error, got %v", err)
	}
}

func TestWatchFiles_Debounced(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "data.json", "{}")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	changes := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{p}, 50*time.Millisecond, func(name string) { changes <- name }, func(error) {})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		writeFile(t, dir, "data.json", `{"n":1}`)
	}
	writeFile(t, dir, "other.json", "{}")

	select {
	case name := <-changes:
		if name != p {
			t.Errorf("unexpected file %s", name)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no change observed")
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("watchFiles() = %v", err)
	}
}

func TestWatchFiles_SerializesChanges(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", "{}")
	b := writeFile(t, dir, "b.json", "{}")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var active, maxActive atomic.Int32
	seen := make(chan string, 8)
	onChange := func(name string) {
		n := active.Add(1)
		for {
			m := maxActive.Load()
			if n <= m || maxActive.CompareAndSwap(m, n) {
				break
			}
		}
		time.Sleep(150 * time.Millisecond)
		active.Add(-1)
		seen <- name
	}
	done := make(chan error, 1)
	go func() {
		done <- watchFiles(ctx, []string{a, b}, 20*time.Millisecond, onChange, func(error) {})
	}()

	time.Sleep(100 * time.Millisecond)
	writeFile(t, dir, "a.json", `{"n":1}`)
	writeFile(t, dir, "b.json", `{"n":2}`)

	got := map[string]bool{}
	deadline := time.After(3 * time.Second)
	for len(got) < 2 {
		select {
		case name := <-seen:
			got[name] = true
		case <-deadline:
			t.Fatalf("changes observed: %v", got)
		}
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("watchFiles() = %v", err)
	}
	if m := maxActive.Load(); m != 1 {
		t.Fatalf("onChange ran %d at a time, want 1", m)
	}
	if n := active.Load(); n != 0 {
		t.Fatalf("%d onChange calls still running after return", n)
	}
}
