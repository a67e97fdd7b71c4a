package polyskema

import (
	"context"
	"errors"
	"io"

	eng "github.com/reoring/polyskema/internal/engine"
)

// LoadFrom decodes one document from src with the enforcement configured in
// opts (duplicate keys, depth, size), then loads it: a top-level array as a
// batch, anything else as a single record.
func LoadFrom(ctx context.Context, s *OneOf, src Source, opts ...ParseOpt) (any, error) {
	if s == nil {
		return nil, singleIssue(CodeParseError, "nil schema")
	}
	var opt ParseOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	v, err := DecodeSource(src, opt)
	if err != nil {
		return nil, err
	}
	return s.LoadValue(ctx, v, opt.Load)
}

// DecodeSource builds the generic value tree (Record, []any, scalars) from src.
// Decoding failures are returned as Issues.
func DecodeSource(src Source, opt ParseOpt) (any, error) {
	if src == nil {
		return nil, singleIssue(CodeParseError, "nil source")
	}
	enforced := eng.WrapWithEnforcement(engineTokens(src), eng.EnforceOptions{
		OnDuplicate: toEngineDup(opt.Strictness.OnDuplicateKey),
		MaxDepth:    opt.MaxDepth,
		MaxBytes:    opt.MaxBytes,
		FailFast:    opt.FailFast,
	})
	conv := eng.JSONNumber
	if src.NumberMode() == NumberFloat64 {
		conv = eng.Float64
	}
	v, err := eng.DecodeAnyWith(enforced, conv)
	if err != nil {
		return nil, toIssues(err, src.Location())
	}
	return v, nil
}

// StreamLoad loads input from an io.Reader. When MaxBytes is set the size cap
// is enforced up front, otherwise the reader is streamed through JSONReader.
func StreamLoad(ctx context.Context, s *OneOf, r io.Reader, opts ...ParseOpt) (any, error) {
	if len(opts) > 0 && opts[len(opts)-1].MaxBytes > 0 {
		limit := opts[len(opts)-1].MaxBytes
		data, err := io.ReadAll(io.LimitReader(r, limit+1))
		if err != nil {
			return nil, singleIssue(CodeParseError, err.Error())
		}
		if int64(len(data)) > limit {
			return nil, singleIssue(CodeTruncated, "max bytes exceeded")
		}
		return LoadFrom(ctx, s, JSONBytes(data), opts...)
	}
	return LoadFrom(ctx, s, JSONReader(r), opts...)
}

func toEngineDup(s Severity) eng.DuplicateStrictness {
	switch s {
	case Warn:
		return eng.DupWarn
	case Error:
		return eng.DupError
	default:
		return eng.DupIgnore
	}
}

func toIssues(err error, offset int64) Issues {
	if iss, ok := AsIssues(err); ok {
		return iss
	}
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return Issues{Issue{Code: ie.Code, Path: ie.Path, Message: ie.Message, Offset: offset}}
	}
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return Issues{Issue{Path: "/", Code: CodeParseError, Message: err.Error(), Cause: err, Offset: offset}}
}

func singleIssue(code, msg string) Issues {
	return Issues{Issue{Path: "/", Code: code, Message: msg, Offset: -1}}
}
