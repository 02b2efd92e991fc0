package routing

import (
	"strings"

	"github.com/louisbranch/sitegate/internal/services/site/routepath"
)

// Exclusions is the static set of paths the router never touches. An entry
// ending in "/" matches that segment and everything below it ("/api/"
// matches "/api" and "/api/apps" but not "/apix"); any other entry matches
// the path exactly.
type Exclusions struct {
	prefixes []string
	exact    map[string]struct{}
}

// DefaultExclusions returns the operational paths of the site: API routes,
// build assets, static media, the favicon, robots.txt, and the sitemap.
func DefaultExclusions() Exclusions {
	return NewExclusions(
		routepath.APIPrefix,
		routepath.BuildAssetsPrefix,
		routepath.StaticPrefix,
		routepath.ImagesPrefix,
		routepath.IconsPrefix,
		routepath.FontsPrefix,
		routepath.Favicon,
		routepath.Robots,
		routepath.Sitemap,
	)
}

// NewExclusions builds an exclusion matcher from entries. Blank entries and
// entries without a leading "/" are ignored.
func NewExclusions(entries ...string) Exclusions {
	ex := Exclusions{exact: make(map[string]struct{}, len(entries))}
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if !strings.HasPrefix(entry, "/") {
			continue
		}
		if strings.HasSuffix(entry, "/") {
			if trimmed := strings.TrimSuffix(entry, "/"); trimmed != "" {
				ex.prefixes = append(ex.prefixes, trimmed)
			}
			continue
		}
		ex.exact[entry] = struct{}{}
	}
	return ex
}

// Match reports whether path is excluded from routing.
func (e Exclusions) Match(path string) bool {
	if _, ok := e.exact[path]; ok {
		return true
	}
	for _, prefix := range e.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Entries returns the configured entries, prefixes first.
func (e Exclusions) Entries() []string {
	out := make([]string, 0, len(e.prefixes)+len(e.exact))
	for _, prefix := range e.prefixes {
		out = append(out, prefix+"/")
	}
	for path := range e.exact {
		out = append(out, path)
	}
	return out
}
