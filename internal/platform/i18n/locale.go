// Package i18n holds the process-wide locale configuration used for routing.
//
// A Config is built once at startup and never mutated; accessors return
// copies so callers cannot change the supported set underneath a router.
package i18n

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var (
	// ErrNoLocales reports an empty supported-locale set.
	ErrNoLocales = errors.New("at least one supported locale is required")
	// ErrUnknownDefault reports a default locale outside the supported set.
	ErrUnknownDefault = errors.New("default locale is not supported")
	// ErrDuplicateLocale reports a locale listed more than once.
	ErrDuplicateLocale = errors.New("duplicate locale")
	// ErrInvalidLocale reports a locale that is not a valid path segment or BCP 47 tag.
	ErrInvalidLocale = errors.New("invalid locale")
)

// Locale is a supported language code as it appears in the first path segment.
type Locale string

// String returns the locale code.
func (l Locale) String() string {
	return string(l)
}

// Tag returns the BCP 47 tag for the locale, or language.Und when unparsable.
func (l Locale) Tag() language.Tag {
	tag, err := language.Parse(string(l))
	if err != nil {
		return language.Und
	}
	return tag
}

// Config is the static locale configuration of a site.
type Config struct {
	defaultLocale Locale
	supported     []Locale
	tags          []language.Tag
	matcher       language.Matcher
}

// NewConfig validates and builds a locale configuration. The default locale
// must be one of the supported locales. Locale codes are lower-cased.
func NewConfig(defaultLocale string, supported []string) (Config, error) {
	if len(supported) == 0 {
		return Config{}, ErrNoLocales
	}

	cfg := Config{
		supported: make([]Locale, 0, len(supported)),
		tags:      make([]language.Tag, 0, len(supported)+1),
	}
	seen := make(map[Locale]struct{}, len(supported))
	for _, raw := range supported {
		locale, tag, err := parseLocale(raw)
		if err != nil {
			return Config{}, err
		}
		if _, dup := seen[locale]; dup {
			return Config{}, fmt.Errorf("%w: %q", ErrDuplicateLocale, locale)
		}
		seen[locale] = struct{}{}
		cfg.supported = append(cfg.supported, locale)
		cfg.tags = append(cfg.tags, tag)
	}

	def := Locale(strings.ToLower(strings.TrimSpace(defaultLocale)))
	if _, ok := seen[def]; !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownDefault, defaultLocale)
	}
	cfg.defaultLocale = def

	// The matcher falls back to its first tag, so the default goes first.
	matchTags := make([]language.Tag, 0, len(cfg.tags))
	matchTags = append(matchTags, def.Tag())
	for i, locale := range cfg.supported {
		if locale != def {
			matchTags = append(matchTags, cfg.tags[i])
		}
	}
	cfg.matcher = language.NewMatcher(matchTags)
	return cfg, nil
}

// MustConfig is NewConfig that panics on error. Intended for tests and
// package-level fixtures.
func MustConfig(defaultLocale string, supported ...string) Config {
	cfg, err := NewConfig(defaultLocale, supported)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Default returns the default locale.
func (c Config) Default() Locale {
	return c.defaultLocale
}

// Supported returns a copy of the supported locales in configuration order.
func (c Config) Supported() []Locale {
	out := make([]Locale, len(c.supported))
	copy(out, c.supported)
	return out
}

// IsZero reports whether the config was never built.
func (c Config) IsZero() bool {
	return len(c.supported) == 0
}

// Parse matches a path segment or tag string against the supported locales,
// ignoring case.
func (c Config) Parse(value string) (Locale, bool) {
	candidate := Locale(strings.ToLower(strings.TrimSpace(value)))
	if candidate == "" {
		return "", false
	}
	for _, locale := range c.supported {
		if locale == candidate {
			return locale, true
		}
	}
	return "", false
}

// Match returns the supported locale that best fits the preferred tags. It
// returns the default locale when nothing matches with at least low confidence.
func (c Config) Match(preferred ...language.Tag) Locale {
	if c.matcher == nil || len(preferred) == 0 {
		return c.defaultLocale
	}
	_, index, confidence := c.matcher.Match(preferred...)
	if confidence == language.No {
		return c.defaultLocale
	}
	if index == 0 {
		return c.defaultLocale
	}
	// Matcher order is default first, then the remaining locales in order.
	i := 0
	for _, locale := range c.supported {
		if locale == c.defaultLocale {
			continue
		}
		i++
		if i == index {
			return locale
		}
	}
	return c.defaultLocale
}

// MatchAcceptLanguage parses an Accept-Language header and matches it.
func (c Config) MatchAcceptLanguage(header string) (Locale, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	return c.Match(tags...), true
}

// PathLocale reports whether the first segment of path is a supported locale.
// It returns the locale and the remainder of the path, which always starts
// with "/" (a bare "/zh" yields "/").
func (c Config) PathLocale(path string) (Locale, string, bool) {
	segment, rest := SplitFirstSegment(path)
	if segment == "" {
		return "", path, false
	}
	locale, ok := c.Parse(segment)
	if !ok || segment != string(locale) {
		return "", path, false
	}
	return locale, rest, true
}

// HasPrefix reports whether path starts with the exact locale segment.
func HasPrefix(path string, locale Locale) bool {
	segment, _ := SplitFirstSegment(path)
	return segment != "" && segment == string(locale)
}

// SplitFirstSegment splits "/a/b/c" into "a" and "/b/c". The remainder is
// "/" when the path has a single segment.
func SplitFirstSegment(path string) (string, string) {
	if !strings.HasPrefix(path, "/") {
		return "", path
	}
	trimmed := path[1:]
	if idx := strings.IndexByte(trimmed, '/'); idx >= 0 {
		return trimmed[:idx], trimmed[idx:]
	}
	return trimmed, "/"
}

// ParseList splits a comma separated locale list, dropping blanks.
func ParseList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseLocale(raw string) (Locale, language.Tag, error) {
	code := strings.ToLower(strings.TrimSpace(raw))
	if code == "" || strings.ContainsAny(code, "/?#% ") {
		return "", language.Und, fmt.Errorf("%w: %q", ErrInvalidLocale, raw)
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", language.Und, fmt.Errorf("%w: %q: %v", ErrInvalidLocale, raw, err)
	}
	return Locale(code), tag, nil
}
