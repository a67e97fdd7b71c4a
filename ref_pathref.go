package polyskema

import (
	"fmt"
	"strconv"
	"strings"
)

// PathRef builds JSON Pointer paths in a chain-safe way and creates Issues.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
	Issue(code, msg string, kv ...any) Issue
}

// Root returns the PathRef for the item itself ("/"). Dispatch errors that
// concern the whole item (unresolved or unsupported type) live here.
func Root() PathRef { return &pathRef{} }

// At parses a JSON Pointer into a PathRef. Escapes are kept verbatim.
func At(path string) PathRef {
	if path == "" || path == "/" {
		return Root()
	}
	parts := []string{}
	for _, p := range strings.Split(path, "/") {
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return &pathRef{parts: parts}
}

// RFC 6901: '~' -> '~0', '/' -> '~1'.
var tokenEscaper = strings.NewReplacer("~", "~0", "/", "~1")

type pathRef struct {
	parts []string
}

func (p *pathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	return p.with(tokenEscaper.Replace(name))
}

func (p *pathRef) Index(i int) PathRef {
	return p.with(strconv.Itoa(i))
}

func (p *pathRef) with(token string) PathRef {
	parts := make([]string, len(p.parts), len(p.parts)+1)
	copy(parts, p.parts)
	return &pathRef{parts: append(parts, token)}
}

func (p *pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

func (p *pathRef) Issue(code, msg string, kv ...any) Issue {
	m := map[string]any{}
	for i := 0; i+1 < len(kv); i += 2 {
		m[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return Issue{Path: p.Pointer(), Code: code, Message: msg, Params: m, Offset: -1}
}
