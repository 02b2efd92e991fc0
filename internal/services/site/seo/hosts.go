// Package seo serves the crawler-facing resources of the site: robots.txt
// and sitemap.xml.
package seo

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
)

// Hosts maps each locale to the public origin that serves it.
type Hosts struct {
	byLocale      map[i18n.Locale]string
	defaultLocale i18n.Locale
}

// ParseHosts parses "locale=origin" entries. Every entry must name a
// supported locale and the default locale must have an origin.
func ParseHosts(entries []string, locales i18n.Config) (Hosts, error) {
	hosts := Hosts{byLocale: make(map[i18n.Locale]string, len(entries)), defaultLocale: locales.Default()}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		rawLocale, rawOrigin, ok := strings.Cut(entry, "=")
		if !ok {
			return Hosts{}, fmt.Errorf("host entry %q must be locale=origin", entry)
		}
		locale, ok := locales.Parse(rawLocale)
		if !ok {
			return Hosts{}, fmt.Errorf("host entry %q: locale %q is not supported", entry, rawLocale)
		}
		origin, err := parseOrigin(rawOrigin)
		if err != nil {
			return Hosts{}, fmt.Errorf("host entry %q: %w", entry, err)
		}
		hosts.byLocale[locale] = origin
	}
	if _, ok := hosts.byLocale[hosts.defaultLocale]; !ok {
		return Hosts{}, fmt.Errorf("no host configured for default locale %q", hosts.defaultLocale)
	}
	return hosts, nil
}

// ForDefault returns the origin of the default locale.
func (h Hosts) ForDefault() string {
	return h.byLocale[h.defaultLocale]
}

// For returns the origin for locale, falling back to the default origin.
func (h Hosts) For(locale i18n.Locale) string {
	if origin, ok := h.byLocale[locale]; ok {
		return origin
	}
	return h.ForDefault()
}

// Entries returns the configured mapping as sorted "locale=origin" strings.
func (h Hosts) Entries() []string {
	out := make([]string, 0, len(h.byLocale))
	for locale, origin := range h.byLocale {
		out = append(out, locale.String()+"="+origin)
	}
	sort.Strings(out)
	return out
}

func parseOrigin(raw string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return "", fmt.Errorf("origin %q must use http or https", raw)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("origin %q has no host", raw)
	}
	if parsed.Path != "" && parsed.Path != "/" {
		return "", fmt.Errorf("origin %q must not carry a path", raw)
	}
	return parsed.Scheme + "://" + strings.ToLower(parsed.Host), nil
}
