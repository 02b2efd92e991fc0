// Package i18nhttp resolves request locales from HTTP inputs.
package i18nhttp

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the visitor's language preference.
	LangCookieName = "site_lang"
	// HeaderLocale echoes the locale chosen for a request.
	HeaderLocale = "X-Site-Locale"
)

// Source names where a resolved locale came from.
type Source string

const (
	SourceQuery   Source = "query"
	SourceCookie  Source = "cookie"
	SourceHeader  Source = "accept-language"
	SourceDefault Source = "default"
)

// ResolveLocale determines the best supported locale for an unprefixed
// request. Precedence is the lang query param, then the preference cookie,
// then Accept-Language, then the configured default.
func ResolveLocale(r *http.Request, cfg i18n.Config) (i18n.Locale, Source) {
	if r == nil {
		return cfg.Default(), SourceDefault
	}

	if r.URL != nil {
		if value := strings.TrimSpace(r.URL.Query().Get(LangParam)); value != "" {
			if locale, ok := cfg.Parse(value); ok {
				return locale, SourceQuery
			}
		}
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		if locale, ok := cfg.Parse(cookie.Value); ok {
			return locale, SourceCookie
		}
	}

	if locale, ok := cfg.MatchAcceptLanguage(r.Header.Get("Accept-Language")); ok {
		return locale, SourceHeader
	}

	return cfg.Default(), SourceDefault
}

// SetLanguageCookie persists the selected locale on the response.
func SetLanguageCookie(w http.ResponseWriter, locale i18n.Locale) {
	if w == nil || locale == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    locale.String(),
		Path:     "/",
		MaxAge:   int((365 * 24 * time.Hour).Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// StripLangParam removes the lang query parameter so redirects do not loop
// on it. The remaining parameters keep their encoded order.
func StripLangParam(rawQuery string) string {
	if rawQuery == "" || !strings.Contains(rawQuery, LangParam+"=") {
		return rawQuery
	}
	kept := make([]string, 0, strings.Count(rawQuery, "&")+1)
	for _, part := range strings.Split(rawQuery, "&") {
		key, _, _ := strings.Cut(part, "=")
		if decoded, err := url.QueryUnescape(key); err == nil && decoded == LangParam {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "&")
}

// LocalizedPath prefixes path with the locale segment.
func LocalizedPath(locale i18n.Locale, path string) string {
	if path == "" || path == "/" {
		return "/" + locale.String()
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "/" + locale.String() + path
}
