package polyskema

import (
	"github.com/reoring/polyskema/i18n"
)

// IssueAt creates an Issue at the given path with provided code, message and params map.
// This is a convenience helper to improve readability at call sites with many parameters.
func IssueAt(p PathRef, code, msg string, params map[string]any) Issue {
	return Issue{Path: p.Pointer(), Code: code, Message: msg, Params: params, Offset: -1}
}

// translatedAt builds an Issue whose message comes from the i18n translator.
func translatedAt(p PathRef, code string, data map[string]string) Issue {
	var params map[string]any
	if len(data) > 0 {
		params = make(map[string]any, len(data))
		for k, v := range data {
			params[k] = v
		}
	}
	return IssueAt(p, code, i18n.T(code, data), params)
}
