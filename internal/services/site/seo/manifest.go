package seo

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
	"gopkg.in/yaml.v3"
)

const lastModLayout = "2006-01-02"

var changeFreqs = map[string]struct{}{
	"always": {}, "hourly": {}, "daily": {}, "weekly": {}, "monthly": {}, "yearly": {}, "never": {},
}

// Page is one sitemap entry. Path is locale-neutral ("/docs/intro").
type Page struct {
	Path       string   `yaml:"path"`
	LastMod    string   `yaml:"lastmod,omitempty"`
	ChangeFreq string   `yaml:"changefreq,omitempty"`
	Priority   *float64 `yaml:"priority,omitempty"`
	// Locales restricts the page to some locales; empty means all.
	Locales []string `yaml:"locales,omitempty"`
}

// Manifest lists the pages published by the content build.
type Manifest struct {
	Pages []Page `yaml:"pages"`
}

// DefaultManifest lists only the site root.
func DefaultManifest() Manifest {
	return Manifest{Pages: []Page{{Path: "/"}}}
}

// LoadManifest reads and validates a YAML manifest from fsys.
func LoadManifest(fsys fs.FS, name string, locales i18n.Config) (Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest %s: %w", name, err)
	}
	return ParseManifest(data, locales)
}

// ParseManifest decodes and validates manifest YAML.
func ParseManifest(data []byte, locales i18n.Config) (Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	if err := manifest.Validate(locales); err != nil {
		return Manifest{}, err
	}
	return manifest, nil
}

// Validate checks page paths, dates, frequencies, priorities, and locales.
func (m Manifest) Validate(locales i18n.Config) error {
	if len(m.Pages) == 0 {
		return errors.New("manifest has no pages")
	}
	seen := make(map[string]struct{}, len(m.Pages))
	for i, page := range m.Pages {
		if !strings.HasPrefix(page.Path, "/") {
			return fmt.Errorf("page %d: path %q must start with /", i, page.Path)
		}
		if _, _, ok := locales.PathLocale(page.Path); ok {
			return fmt.Errorf("page %d: path %q must not carry a locale prefix", i, page.Path)
		}
		if _, dup := seen[page.Path]; dup {
			return fmt.Errorf("page %d: duplicate path %q", i, page.Path)
		}
		seen[page.Path] = struct{}{}
		if page.LastMod != "" {
			if _, err := time.Parse(lastModLayout, page.LastMod); err != nil {
				return fmt.Errorf("page %q: lastmod %q must be YYYY-MM-DD", page.Path, page.LastMod)
			}
		}
		if page.ChangeFreq != "" {
			if _, ok := changeFreqs[page.ChangeFreq]; !ok {
				return fmt.Errorf("page %q: unknown changefreq %q", page.Path, page.ChangeFreq)
			}
		}
		if page.Priority != nil && (*page.Priority < 0 || *page.Priority > 1) {
			return fmt.Errorf("page %q: priority %v outside [0,1]", page.Path, *page.Priority)
		}
		for _, raw := range page.Locales {
			if _, ok := locales.Parse(raw); !ok {
				return fmt.Errorf("page %q: locale %q is not supported", page.Path, raw)
			}
		}
	}
	return nil
}

// pageLocales returns the locales a page is published in, in config order.
func pageLocales(page Page, locales i18n.Config) []i18n.Locale {
	if len(page.Locales) == 0 {
		return locales.Supported()
	}
	wanted := make(map[i18n.Locale]struct{}, len(page.Locales))
	for _, raw := range page.Locales {
		if locale, ok := locales.Parse(raw); ok {
			wanted[locale] = struct{}{}
		}
	}
	out := make([]i18n.Locale, 0, len(wanted))
	for _, locale := range locales.Supported() {
		if _, ok := wanted[locale]; ok {
			out = append(out, locale)
		}
	}
	return out
}
