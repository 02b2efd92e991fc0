// Package localeprefix normalises locale path prefixes for requests the
// routing policy did not claim.
//
// In the default as-needed mode the default locale is served without a
// prefix and every other locale under "/{locale}". Unprefixed requests are
// rewritten to "/{default}/..." so the content backend always sees a
// locale-scoped path.
package localeprefix

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
	"github.com/louisbranch/sitegate/internal/services/site/platform/httpx"
	"github.com/louisbranch/sitegate/internal/services/site/platform/i18nhttp"
	"github.com/louisbranch/sitegate/internal/services/site/routing"
)

// Mode controls when locale prefixes appear in public URLs.
type Mode string

const (
	// ModeAsNeeded omits the prefix for the default locale only.
	ModeAsNeeded Mode = "as-needed"
	// ModeAlways prefixes every locale, including the default.
	ModeAlways Mode = "always"
	// ModeNever keeps public URLs unprefixed and relies on cookies.
	ModeNever Mode = "never"
)

// Rule names reported by the normalizer.
const (
	RulePrefixed       = "locale-prefixed"
	RuleStripDefault   = "locale-strip-default"
	RuleStripNever     = "locale-strip"
	RuleDetected       = "locale-detected"
	RuleAddDefault     = "locale-add-default"
	RuleDefaultRewrite = "locale-default"
)

// ParseMode parses a mode name; blank means as-needed.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeAsNeeded:
		return ModeAsNeeded, nil
	case ModeAlways:
		return ModeAlways, nil
	case ModeNever:
		return ModeNever, nil
	default:
		return "", fmt.Errorf("unknown locale prefix mode %q", value)
	}
}

// Normalizer is the default routing.Normalizer.
type Normalizer struct {
	mode Mode
}

// New returns a Normalizer for mode.
func New(mode Mode) *Normalizer {
	if mode == "" {
		mode = ModeAsNeeded
	}
	return &Normalizer{mode: mode}
}

// Mode returns the configured prefix mode.
func (n *Normalizer) Mode() Mode {
	return n.mode
}

// Normalize implements routing.Normalizer. It depends only on the request's
// path, query, cookie, and Accept-Language header, so equal requests yield
// equal decisions. Locales are detected on the decoded path; targets are
// built from the escaped path.
func (n *Normalizer) Normalize(r *http.Request, locales i18n.Config) routing.Decision {
	if r == nil || r.URL == nil {
		return routing.Pass(routing.RuleExcluded)
	}
	path := r.URL.Path
	escaped := r.URL.EscapedPath()
	if path == "" {
		path, escaped = "/", "/"
	}
	query := r.URL.RawQuery

	if locale, rest, ok := locales.PathLocale(path); ok {
		stripped := httpx.LocalPath(escapedRemainder(escaped, locale, rest))
		switch {
		case n.mode == ModeNever:
			return withLocale(routing.Redirect(RuleStripNever, httpx.WithQuery(stripped, query), http.StatusTemporaryRedirect), locale, true)
		case n.mode == ModeAsNeeded && locale == locales.Default():
			return withLocale(routing.Redirect(RuleStripDefault, httpx.WithQuery(stripped, query), http.StatusTemporaryRedirect), locale, true)
		default:
			return withLocale(routing.Rewrite(RulePrefixed, httpx.WithQuery(escaped, query)), locale, !cookieHolds(r, locale))
		}
	}

	locale, source := i18nhttp.ResolveLocale(r, locales)
	persist := source == i18nhttp.SourceQuery
	cleanQuery := query
	if persist {
		cleanQuery = i18nhttp.StripLangParam(query)
	}
	localized := i18nhttp.LocalizedPath(locale, escaped)

	switch {
	case n.mode == ModeNever:
		return withLocale(routing.Rewrite(RuleDefaultRewrite, httpx.WithQuery(localized, query)), locale, persist)
	case locale != locales.Default():
		return withLocale(routing.Redirect(RuleDetected, httpx.WithQuery(localized, cleanQuery), http.StatusTemporaryRedirect), locale, persist)
	case n.mode == ModeAlways:
		return withLocale(routing.Redirect(RuleAddDefault, httpx.WithQuery(localized, cleanQuery), http.StatusTemporaryRedirect), locale, persist)
	default:
		return withLocale(routing.Rewrite(RuleDefaultRewrite, httpx.WithQuery(localized, query)), locale, persist)
	}
}

// escapedRemainder returns the escaped path after the locale segment. When
// the locale segment itself was percent-encoded the decoded remainder is
// re-escaped instead.
func escapedRemainder(escaped string, locale i18n.Locale, rest string) string {
	prefix := "/" + locale.String()
	switch {
	case escaped == prefix:
		return "/"
	case strings.HasPrefix(escaped, prefix+"/"):
		return escaped[len(prefix):]
	default:
		return httpx.EscapePath(rest)
	}
}

func cookieHolds(r *http.Request, locale i18n.Locale) bool {
	cookie, err := r.Cookie(i18nhttp.LangCookieName)
	return err == nil && cookie.Value == locale.String()
}

func withLocale(d routing.Decision, locale i18n.Locale, persist bool) routing.Decision {
	d.Locale = locale
	d.PersistLocale = persist
	return d
}
