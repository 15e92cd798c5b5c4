package i18n

import (
	"fmt"
	"strings"
)

// TemplateFuncs returns helpers for the template engine:
//
//	translate(localeSrc, key, ...args) string
//	current_locale(localeSrc) string
//
// localeSrc is either a locale string or a map carrying a "locale" entry.
func TemplateFuncs(t Translator) map[string]any {
	return map[string]any{
		"translate": func(localeSrc any, key string, args ...any) string {
			return Localizer{Translator: t, Locale: resolveLocale(localeSrc)}.Text(key, args...)
		},
		"current_locale": func(localeSrc any) string {
			return resolveLocale(localeSrc)
		},
	}
}

func resolveLocale(src any) string {
	switch v := src.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if locale, ok := v["locale"]; ok && locale != nil {
			return strings.TrimSpace(fmt.Sprint(locale))
		}
	case map[string]string:
		return strings.TrimSpace(v["locale"])
	}
	return ""
}
