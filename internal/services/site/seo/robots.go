package seo

import (
	"net/http"
	"strings"

	"github.com/louisbranch/sitegate/internal/services/site/platform/httpx"
	"github.com/louisbranch/sitegate/internal/services/site/routepath"
)

// RobotsRules configures the generated robots.txt.
type RobotsRules struct {
	// Disallow lists path prefixes crawlers should skip.
	Disallow []string
	// BlockAll disallows the whole site, for preview deployments.
	BlockAll bool
}

// Robots renders robots.txt for the given public origin.
func Robots(origin string, rules RobotsRules) string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	if rules.BlockAll {
		b.WriteString("Disallow: /\n")
	} else {
		b.WriteString("Allow: /\n")
		for _, path := range rules.Disallow {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			b.WriteString("Disallow: " + path + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString("Host: " + origin + "\n")
	b.WriteString("Sitemap: " + origin + routepath.Sitemap + "\n")
	return b.String()
}

// RobotsHandler serves robots.txt built from the default locale's origin.
func RobotsHandler(hosts Hosts, rules RobotsRules) http.Handler {
	return httpx.RequireMethods(http.MethodGet, http.MethodHead)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		_ = httpx.WriteText(w, http.StatusOK, Robots(hosts.ForDefault(), rules))
	}))
}
