package middleware

import (
	"context"
	"net/http"

	j "github.com/goccy/go-json"

	"github.com/reoring/polyskema"
)

// ctxKeyLoaded is the context key for the value loaded from a request body.
type ctxKeyLoaded struct{}

// ContextWithLoaded attaches a loaded value (a domain value for single
// records, []any for batches) to the context.
func ContextWithLoaded(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, ctxKeyLoaded{}, v)
}

// LoadedFromContext retrieves the loaded value as T.
func LoadedFromContext[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(ctxKeyLoaded{}).(T)
	return v, ok
}

// DefaultParseOpt returns a recommended default for HTTP JSON boundaries.
// - Duplicate keys are errors
// - Bodies are capped at 1 MiB and nesting at 64 levels
func DefaultParseOpt() polyskema.ParseOpt {
	return polyskema.ParseOpt{
		Strictness: polyskema.Strictness{OnDuplicateKey: polyskema.Error},
		MaxDepth:   64,
		MaxBytes:   1 << 20,
	}
}

// IsZeroParseOpt reports whether opt carries no enforcement settings, in
// which case callers substitute DefaultParseOpt.
func IsZeroParseOpt(opt polyskema.ParseOpt) bool {
	return opt.Strictness.OnDuplicateKey == polyskema.Ignore && opt.MaxDepth == 0 && opt.MaxBytes == 0
}

// ErrorPayload shapes a load error for JSON responses: "errors" holds the
// message map (index keyed for batches) and "issues" the flat issue list.
func ErrorPayload(err error) map[string]any {
	out := map[string]any{"errors": polyskema.Messages(err)}
	if be, ok := polyskema.AsBatchError(err); ok {
		out["issues"] = be.Issues()
		return out
	}
	if iss, ok := polyskema.AsIssues(err); ok {
		out["issues"] = iss
		return out
	}
	out["error"] = err.Error()
	return out
}

// Decode loads the request body through s and stores the result in the
// request context. Failures are answered with 400 and ErrorPayload.
func Decode(s *polyskema.OneOf, opt polyskema.ParseOpt) func(http.Handler) http.Handler {
	if IsZeroParseOpt(opt) {
		opt = DefaultParseOpt()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, err := polyskema.StreamLoad(r.Context(), s, r.Body, opt)
			if err != nil {
				WriteJSON(w, http.StatusBadRequest, ErrorPayload(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithLoaded(r.Context(), v)))
		})
	}
}

// WriteJSON writes body as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = j.NewEncoder(w).Encode(body)
}
