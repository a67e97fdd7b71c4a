package engine

import (
	"encoding/json"
	"errors"
	"testing"
)

func tokens(ts ...Token) *SliceSource { return &SliceSource{Tokens: ts} }

func key(s string) Token { return Token{Kind: KindKey, String: s} }
func str(s string) Token { return Token{Kind: KindString, String: s} }
func num(s string) Token { return Token{Kind: KindNumber, Number: s} }
func tk(k Kind) Token    { return Token{Kind: k} }

func TestEnforce_DuplicateWarnReportsAndContinues(t *testing.T) {
	var got []SimpleIssue
	src := WrapWithEnforcement(tokens(
		tk(KindBeginObject), key("a"), num("1"), key("a"), num("2"), tk(KindEndObject),
	), EnforceOptions{OnDuplicate: DupWarn, IssueSink: func(si SimpleIssue) { got = append(got, si) }})
	v, err := DecodeAnyFromSource(src)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m := v.(map[string]any); m["a"] != json.Number("2") {
		t.Fatalf("last value should win: %#v", m)
	}
	if len(got) != 1 || got[0].Code != "duplicate_key" || got[0].Path != "/a" {
		t.Fatalf("unexpected issues %v", got)
	}
}

func TestEnforce_DuplicateErrorInNestedArray(t *testing.T) {
	src := WrapWithEnforcement(tokens(
		tk(KindBeginArray), str("x"),
		tk(KindBeginObject), key("k"), str("1"), key("k"),
	), EnforceOptions{OnDuplicate: DupError})
	_, err := DecodeAnyFromSource(src)
	var ie IssueError
	if !errors.As(err, &ie) || ie.Path != "/1/k" {
		t.Fatalf("expected duplicate at /1/k, got %v", err)
	}
}

func TestEnforce_FailFastPromotesWarn(t *testing.T) {
	src := WrapWithEnforcement(tokens(
		tk(KindBeginObject), key("a"), num("1"), key("a"),
	), EnforceOptions{OnDuplicate: DupWarn, FailFast: true})
	if _, err := DecodeAnyFromSource(src); err == nil {
		t.Fatalf("expected fail-fast error")
	}
}

func TestEnforce_MaxDepth(t *testing.T) {
	src := WrapWithEnforcement(tokens(
		tk(KindBeginArray), tk(KindBeginArray), tk(KindBeginArray), tk(KindEndArray), tk(KindEndArray), tk(KindEndArray),
	), EnforceOptions{MaxDepth: 2})
	_, err := DecodeAnyFromSource(src)
	var ie IssueError
	if !errors.As(err, &ie) || ie.Code != "parse_error" || ie.Path != "/0/0" {
		t.Fatalf("expected depth error at /0/0, got %v", err)
	}
}

func TestEnforce_EscapedPointer(t *testing.T) {
	src := WrapWithEnforcement(tokens(
		tk(KindBeginObject), key("a/b~c"), num("1"), key("a/b~c"),
	), EnforceOptions{OnDuplicate: DupError})
	_, err := DecodeAnyFromSource(src)
	var ie IssueError
	if !errors.As(err, &ie) || ie.Path != "/a~1b~0c" {
		t.Fatalf("unexpected path, got %v", err)
	}
}

func TestKeyTracker(t *testing.T) {
	var k KeyTracker
	k.Open(true)
	if k.String() != KindKey {
		t.Fatalf("first string in object is a key")
	}
	if k.String() != KindString {
		t.Fatalf("second string in object is a value")
	}
	if k.String() != KindKey {
		t.Fatalf("third string in object is a key")
	}
	k.Open(false)
	if k.String() != KindString {
		t.Fatalf("strings in arrays are values")
	}
	k.Close()
	if k.String() != KindKey {
		t.Fatalf("after a nested container the object expects a key")
	}
}
