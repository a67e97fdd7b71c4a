package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "tag", "type" or "value").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator. Templates use
// {name} placeholders filled from data.
type dictTranslator struct{ lang string }

var dictionaries = map[string]map[string]string{
	"en": {
		"invalid_type":          "Invalid data type: {value}",
		"required":              "Missing data for required field.",
		"unknown_key":           "Unknown field.",
		"duplicate_key":         "duplicate key",
		"invalid_format":        "Not a valid {format}.",
		"parse_error":           "parse error",
		"truncated":             "truncated",
		"discriminator_missing": "Missing data for required field.",
		"discriminator_invalid": "Invalid value: {value}",
		"discriminator_unknown": "Unsupported value: {value}",
		"unresolved_type":       "Unknown object class: {type}",
		"unsupported_type":      "Unsupported object type: {tag}",
		"null":                  "Field may not be null.",
		"not_string":            "Not a valid string.",
		"not_integer":           "Not a valid integer.",
		"not_number":            "Not a valid number.",
		"not_boolean":           "Not a valid boolean.",
		"not_list":              "Not a valid list.",
	},
	"ja": {
		"invalid_type":          "データ型が不正です: {value}",
		"required":              "必須フィールドが不足しています",
		"unknown_key":           "未知のフィールドです",
		"duplicate_key":         "キーが重複しています",
		"invalid_format":        "{format} として不正です",
		"parse_error":           "解析エラー",
		"truncated":             "打ち切られました",
		"discriminator_missing": "必須フィールドが不足しています",
		"discriminator_invalid": "不正な値です: {value}",
		"discriminator_unknown": "未対応の値です: {value}",
		"unresolved_type":       "不明なオブジェクト型です: {type}",
		"unsupported_type":      "未対応のオブジェクト型です: {tag}",
		"null":                  "null は許可されていません",
		"not_string":            "文字列ではありません",
		"not_integer":           "整数ではありません",
		"not_number":            "数値ではありません",
		"not_boolean":           "真偽値ではありません",
		"not_list":              "リストではありません",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := dictionaries[t.lang][code]
	if !ok {
		return code
	}
	return fill(tmpl, data)
}

func fill(tmpl string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(tmpl, "{") {
		return tmpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                sync.RWMutex
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	SetTranslator(dictTranslator{lang: lang})
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	mu.Lock()
	currentTranslator = tr
	mu.Unlock()
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
