// Package yaml feeds YAML documents into the polyskema token pipeline.
// A stream with several documents is presented as an array of them, so a
// multi-document file loads as a batch.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/reoring/polyskema"
	eng "github.com/reoring/polyskema/internal/engine"
)

// ErrEmpty is returned when the input holds no YAML document.
var ErrEmpty = errors.New("yaml: no document")

// NewBytes parses b and returns a replaying engine.TokenSource.
func NewBytes(b []byte) (eng.TokenSource, error) { return NewReader(bytes.NewReader(b)) }

// NewReader parses every document from r and returns a replaying engine.TokenSource.
func NewReader(r io.Reader) (eng.TokenSource, error) {
	dec := yaml.NewDecoder(r)
	var docs []*yaml.Node
	for {
		var n yaml.Node
		if err := dec.Decode(&n); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
		docs = append(docs, &n)
	}
	w := &walker{}
	switch len(docs) {
	case 0:
		return nil, ErrEmpty
	case 1:
		if err := w.node(docs[0]); err != nil {
			return nil, err
		}
	default:
		w.emit(eng.Token{Kind: eng.KindBeginArray})
		for _, d := range docs {
			if err := w.node(d); err != nil {
				return nil, err
			}
		}
		w.emit(eng.Token{Kind: eng.KindEndArray})
	}
	return &eng.SliceSource{Tokens: w.toks}, nil
}

// Source parses b as YAML and wraps it as a polyskema.Source.
func Source(b []byte) (polyskema.Source, error) {
	ts, err := NewBytes(b)
	if err != nil {
		return nil, err
	}
	return polyskema.SourceFromEngine(ts, polyskema.NumberJSONNumber), nil
}

type walker struct {
	toks  []eng.Token
	depth int
}

// maxAliasDepth bounds alias expansion so self-referencing anchors terminate.
const maxAliasDepth = 512

func (w *walker) emit(t eng.Token) {
	t.Offset = -1
	w.toks = append(w.toks, t)
}

func (w *walker) node(n *yaml.Node) error {
	w.depth++
	defer func() { w.depth-- }()
	if w.depth > maxAliasDepth {
		return fmt.Errorf("yaml: nesting too deep at line %d", n.Line)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			w.emit(eng.Token{Kind: eng.KindNull})
			return nil
		}
		return w.node(n.Content[0])
	case yaml.MappingNode:
		w.emit(eng.Token{Kind: eng.KindBeginObject})
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			if k.Kind != yaml.ScalarNode {
				return fmt.Errorf("yaml: line %d: non-scalar mapping key", k.Line)
			}
			w.emit(eng.Token{Kind: eng.KindKey, String: k.Value})
			if err := w.node(n.Content[i+1]); err != nil {
				return err
			}
		}
		w.emit(eng.Token{Kind: eng.KindEndObject})
	case yaml.SequenceNode:
		w.emit(eng.Token{Kind: eng.KindBeginArray})
		for _, c := range n.Content {
			if err := w.node(c); err != nil {
				return err
			}
		}
		w.emit(eng.Token{Kind: eng.KindEndArray})
	case yaml.AliasNode:
		if n.Alias == nil {
			w.emit(eng.Token{Kind: eng.KindNull})
			return nil
		}
		return w.node(n.Alias)
	case yaml.ScalarNode:
		w.emit(scalar(n))
	default:
		return fmt.Errorf("yaml: line %d: unsupported node kind %d", n.Line, n.Kind)
	}
	return nil
}

func scalar(n *yaml.Node) eng.Token {
	switch n.ShortTag() {
	case "!!null":
		return eng.Token{Kind: eng.KindNull}
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err == nil {
			return eng.Token{Kind: eng.KindBool, Bool: b}
		}
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatInt(i, 10)}
		}
	case "!!float":
		var f float64
		if err := n.Decode(&f); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(f, 'g', -1, 64)}
		}
	}
	return eng.Token{Kind: eng.KindString, String: n.Value}
}
