package seo

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strconv"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
	"github.com/louisbranch/sitegate/internal/services/site/localeprefix"
	"github.com/louisbranch/sitegate/internal/services/site/platform/httpx"
	"github.com/louisbranch/sitegate/internal/services/site/platform/i18nhttp"
)

const (
	sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"
	xhtmlNS   = "http://www.w3.org/1999/xhtml"
	xDefault  = "x-default"
)

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	XHTML   string       `xml:"xmlns:xhtml,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string      `xml:"loc"`
	LastMod    string      `xml:"lastmod,omitempty"`
	ChangeFreq string      `xml:"changefreq,omitempty"`
	Priority   string      `xml:"priority,omitempty"`
	Alternates []alternate `xml:"xhtml:link"`
}

type alternate struct {
	Rel      string `xml:"rel,attr"`
	HrefLang string `xml:"hreflang,attr"`
	Href     string `xml:"href,attr"`
}

// SitemapOptions controls URL shapes in the sitemap.
type SitemapOptions struct {
	// Mode is the locale prefix mode the router serves; URLs are listed in
	// the shape that answers without a redirect. Blank means as-needed.
	Mode localeprefix.Mode
}

// Sitemap renders the manifest as a sitemap with hreflang alternates. Each
// distinct localized URL of a page is its own <url> entry listing every variant,
// plus x-default pointing at the default-locale URL when the page has one.
func Sitemap(manifest Manifest, hosts Hosts, locales i18n.Config, opts SitemapOptions) ([]byte, error) {
	set := urlSet{XMLNS: sitemapNS, XHTML: xhtmlNS}
	seen := make(map[string]struct{})
	for _, page := range manifest.Pages {
		variants := pageLocales(page, locales)
		if len(variants) == 0 {
			continue
		}
		alternates := make([]alternate, 0, len(variants)+1)
		fallback := variants[0]
		for _, locale := range variants {
			if locale == locales.Default() {
				fallback = locale
			}
			href := localizedURL(hosts, locales, opts, locale, page.Path)
			if hasHref(alternates, href) {
				continue
			}
			alternates = append(alternates, alternate{
				Rel:      "alternate",
				HrefLang: locale.Tag().String(),
				Href:     href,
			})
		}
		alternates = append(alternates, alternate{
			Rel:      "alternate",
			HrefLang: xDefault,
			Href:     localizedURL(hosts, locales, opts, fallback, page.Path),
		})

		priority := ""
		if page.Priority != nil {
			priority = strconv.FormatFloat(*page.Priority, 'f', 1, 64)
		}
		for _, locale := range variants {
			loc := localizedURL(hosts, locales, opts, locale, page.Path)
			if _, dup := seen[loc]; dup {
				continue
			}
			seen[loc] = struct{}{}
			set.URLs = append(set.URLs, sitemapURL{
				Loc:        loc,
				LastMod:    page.LastMod,
				ChangeFreq: page.ChangeFreq,
				Priority:   priority,
				Alternates: alternates,
			})
		}
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// SitemapHandler serves a sitemap rendered once at construction.
func SitemapHandler(manifest Manifest, hosts Hosts, locales i18n.Config, opts SitemapOptions) (http.Handler, error) {
	body, err := Sitemap(manifest, hosts, locales, opts)
	if err != nil {
		return nil, err
	}
	return httpx.RequireMethods(http.MethodGet, http.MethodHead)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_ = httpx.WriteXML(w, http.StatusOK, body)
	})), nil
}

func localizedURL(hosts Hosts, locales i18n.Config, opts SitemapOptions, locale i18n.Locale, path string) string {
	escaped := httpx.EscapePath(path)
	switch {
	case opts.Mode == localeprefix.ModeNever:
		return hosts.For(locale) + escaped
	case opts.Mode != localeprefix.ModeAlways && locale == locales.Default():
		return hosts.For(locale) + escaped
	default:
		return hosts.For(locale) + i18nhttp.LocalizedPath(locale, escaped)
	}
}

func hasHref(alternates []alternate, href string) bool {
	for _, alt := range alternates {
		if alt.Href == href {
			return true
		}
	}
	return false
}
