package polyskema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeUnknownKey    = "unknown_key"
	CodeDuplicateKey  = "duplicate_key"
	CodeInvalidFormat = "invalid_format"
	CodeParseError    = "parse_error"
	CodeTruncated     = "truncated"
	// Discriminator handling on Load.
	CodeDiscriminatorMissing = "discriminator_missing"
	CodeDiscriminatorInvalid = "discriminator_invalid"
	CodeDiscriminatorUnknown = "discriminator_unknown"
	// Tag resolution on Dump.
	CodeUnresolvedType  = "unresolved_type"
	CodeUnsupportedType = "unsupported_type"
	// Free-form failures reported by hooks.
	CodeCustom = "custom"
)

// SchemaKey is the reserved message key for issues that belong to the item as
// a whole rather than to one of its fields.
const SchemaKey = "_schema"

// Issue represents a single validation entry.
type Issue struct {
	Path    string `json:"path"`              // JSON Pointer (for example: /items/2/price).
	Code    string `json:"code"`              // One of the codes listed above.
	Message string `json:"message,omitempty"`
	Hint    string `json:"hint,omitempty"`    // Optional: remediation hints, format names, etc.
	Cause   error  `json:"-"`                 // Optional: underlying error.
	Offset  int64  `json:"offset,omitempty"`  // Byte offset in the input source (-1 when unknown).
	// Params carries structured parameters (e.g., {"tag":"ghost"}) for i18n
	// and observability.
	Params map[string]any `json:"params,omitempty"`
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Messages groups issue messages by field key. The root path is reported
// under SchemaKey; nested pointers keep their tail (e.g. "/a/b" -> "a/b").
func (iss Issues) Messages() map[string][]string {
	out := make(map[string][]string, len(iss))
	for _, it := range iss {
		k := MessageKey(it.Path)
		msg := it.Message
		if msg == "" {
			msg = it.Code
		}
		out[k] = append(out[k], msg)
	}
	return out
}

// MessageKey renders a JSON Pointer as a message map key.
func MessageKey(path string) string {
	p := strings.TrimPrefix(path, "/")
	if p == "" {
		return SchemaKey
	}
	return p
}

// Rebase prefixes every issue path with base (a JSON Pointer).
func (iss Issues) Rebase(base string) Issues {
	if base == "" || base == "/" {
		return iss
	}
	out := make(Issues, 0, len(iss))
	for _, it := range iss {
		p := it.Path
		switch {
		case p == "" || p == "/":
			p = base
		case p[0] == '/':
			p = base + p
		default:
			p = base + "/" + p
		}
		it.Path = p
		out = append(out, it)
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// IssuesFromErr converts an error into Issues, wrapping foreign errors with
// CodeParseError at path.
func IssuesFromErr(path string, err error) Issues {
	if err == nil {
		return nil
	}
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	return Issues{Issue{Path: path, Code: CodeParseError, Message: err.Error(), Cause: err}}
}

// PartialError is a handler failure that still carries whatever part of the
// item was produced before (or despite) the failure.
type PartialError struct {
	Issues Issues
	Valid  any
}

func (e *PartialError) Error() string { return e.Issues.Error() }
func (e *PartialError) Unwrap() error { return e.Issues }

// PartialData returns the partial result carried by err, if any.
func PartialData(err error) any {
	var pe *PartialError
	if errors.As(err, &pe) {
		return pe.Valid
	}
	return nil
}

// BatchError aggregates per-item failures of a many operation. Errors is keyed
// by input index; Valid is aligned with the input and holds the successful
// results plus whatever partial data failed items produced.
type BatchError struct {
	Errors map[int]Issues
	Data   any
	Valid  []any
}

// Error summarizes the failing indices.
func (e *BatchError) Error() string {
	idx := e.Indices()
	b := &strings.Builder{}
	fmt.Fprintf(b, "%d of %d items failed", len(idx), len(e.Valid))
	const maxShown = 3
	for i, k := range idx {
		if i == maxShown {
			b.WriteString("; ...")
			break
		}
		fmt.Fprintf(b, "; [%d] %s", k, e.Errors[k].Error())
	}
	return b.String()
}

// Indices returns the failing indices in ascending order.
func (e *BatchError) Indices() []int {
	out := make([]int, 0, len(e.Errors))
	for k := range e.Errors {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

// Issues flattens the per-index issues, rebasing each path under "/<index>".
func (e *BatchError) Issues() Issues {
	var out Issues
	for _, k := range e.Indices() {
		out = AppendIssues(out, e.Errors[k].Rebase(Root().Index(k).Pointer())...)
	}
	return out
}

// Messages returns index -> field -> messages.
func (e *BatchError) Messages() map[int]map[string][]string {
	out := make(map[int]map[string][]string, len(e.Errors))
	for k, iss := range e.Errors {
		out[k] = iss.Messages()
	}
	return out
}

// AsBatchError extracts a *BatchError from err.
func AsBatchError(err error) (*BatchError, bool) {
	var be *BatchError
	if errors.As(err, &be) {
		return be, true
	}
	return nil, false
}
