package i18n

import (
	"sort"
	"strings"
	"sync"
)

// Translator retrieves localized messages for error codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "field").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var catalog = map[string]map[string]string{
	"en": {
		"unsupported_type": "unsupported type",
		"duplicate_field":  "field declared twice",
		"duplicate_schema": "schema declared twice",
		"registry_open":    "schema registry is not sealed",
		"type_mismatch":    "type mismatch",
		"unknown_field":    "unknown field",
		"unknown_key":      "unknown key",
		"record_cycle":     "record would contain itself",
		"duplicate_key":    "duplicate key",
		"parse_error":      "parse error",
		"truncated":        "truncated",
	},
	"ja": {
		"unsupported_type": "サポートされていない型です",
		"duplicate_field":  "フィールドが重複して定義されています",
		"duplicate_schema": "スキーマが重複して定義されています",
		"registry_open":    "スキーマレジストリが確定していません",
		"type_mismatch":    "型が一致しません",
		"unknown_field":    "未定義のフィールドです",
		"unknown_key":      "未知のキーです",
		"record_cycle":     "レコードが自身を含むことになります",
		"duplicate_key":    "キーが重複しています",
		"parse_error":      "解析エラー",
		"truncated":        "打ち切られました",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalog[t.lang][code]
	if !ok {
		msg = code
	}
	if len(data) == 0 {
		return msg
	}
	// deterministic suffix: "type mismatch (expected=int, field=n)"
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b := &strings.Builder{}
	b.WriteString(msg)
	b.WriteString(" (")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(data[k])
	}
	b.WriteByte(')')
	return b.String()
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
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

// Supported reports whether the built-in catalog has messages for lang.
func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}
