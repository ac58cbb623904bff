package http

import (
	"net/http"
	"strings"
)

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// requestLocale prefers the lang query parameter, then Accept-Language,
// then fallback.
func requestLocale(r *http.Request, fallback string) string {
	if lang := strings.TrimSpace(r.URL.Query().Get("lang")); lang != "" {
		return lang
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		return accept
	}
	return fallback
}
