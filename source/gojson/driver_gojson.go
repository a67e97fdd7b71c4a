package gojson

import (
	"bytes"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	"github.com/reoring/polyskema"
	eng "github.com/reoring/polyskema/internal/engine"
)

// Driver returns a polyskema.JSONDriver backed by goccy/go-json.
func Driver() polyskema.JSONDriver { return driverGoJSON{} }

type driverGoJSON struct{}

func (driverGoJSON) NewReader(r io.Reader) polyskema.Source {
	return polyskema.SourceFromEngine(NewReader(r), polyskema.NumberJSONNumber)
}
func (driverGoJSON) NewBytes(b []byte) polyskema.Source {
	return polyskema.SourceFromEngine(NewBytes(b), polyskema.NumberJSONNumber)
}
func (driverGoJSON) Name() string { return "go-json" }

// ---- engine.TokenSource implementation using go-json Decoder ----

type source struct {
	dec  *j.Decoder
	keys eng.KeyTracker
}

// NewReader wraps an io.Reader into an engine.TokenSource for JSON using go-json.
func NewReader(r io.Reader) eng.TokenSource {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	return &source{dec: dec}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON using go-json.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		return eng.Token{}, err
	}
	out := eng.Token{Offset: -1}
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.keys.Open(true)
			out.Kind = eng.KindBeginObject
		case '[':
			s.keys.Open(false)
			out.Kind = eng.KindBeginArray
		case '}':
			s.keys.Close()
			out.Kind = eng.KindEndObject
		case ']':
			s.keys.Close()
			out.Kind = eng.KindEndArray
		}
	case string:
		out.Kind = s.keys.String()
		out.String = v
	case bool:
		s.keys.Scalar()
		out.Kind, out.Bool = eng.KindBool, v
	case j.Number:
		s.keys.Scalar()
		out.Kind, out.Number = eng.KindNumber, string(v)
	case float64:
		s.keys.Scalar()
		out.Kind, out.Number = eng.KindNumber, strconv.FormatFloat(v, 'g', -1, 64)
	default:
		s.keys.Scalar()
		out.Kind = eng.KindNull
	}
	return out, nil
}

// go-json does not expose a reliable input offset.
func (s *source) Location() int64 { return -1 }
