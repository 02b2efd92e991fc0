package routing

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
	"github.com/louisbranch/sitegate/internal/services/site/platform/httpx"
	"github.com/louisbranch/sitegate/internal/services/site/routepath"
	"golang.org/x/net/idna"
)

// Policy is the static cross-locale and crawler-directive configuration.
//
// Two editions of the site share the codebase. A deployment whose default
// locale is FunnelLocale sends MirrorLocale-prefixed paths to the mirror
// edition at MirrorHost, path intact. A deployment whose default locale is
// MirrorLocale sends FunnelLocale-prefixed paths to the fixed FunnelURL,
// dropping the path.
type Policy struct {
	MirrorLocale      i18n.Locale
	FunnelLocale      i18n.Locale
	MirrorHost        string
	FunnelURL         string
	RobotsPath        string
	RobotsHandlerPath string
}

// Normalize fills defaults and canonicalises the external URLs. The
// mirror host is converted to its ASCII (punycode) form.
func (p Policy) Normalize() (Policy, error) {
	p.MirrorLocale = i18n.Locale(strings.ToLower(strings.TrimSpace(p.MirrorLocale.String())))
	p.FunnelLocale = i18n.Locale(strings.ToLower(strings.TrimSpace(p.FunnelLocale.String())))
	if p.MirrorLocale == "" || p.FunnelLocale == "" {
		return Policy{}, errors.New("policy locales are required")
	}
	if p.MirrorLocale == p.FunnelLocale {
		return Policy{}, fmt.Errorf("policy locales must differ, both are %q", p.MirrorLocale)
	}

	host, err := normalizeAbsoluteURL(p.MirrorHost)
	if err != nil {
		return Policy{}, fmt.Errorf("mirror host: %w", err)
	}
	p.MirrorHost = strings.TrimSuffix(host, "/")

	funnel, err := normalizeAbsoluteURL(p.FunnelURL)
	if err != nil {
		return Policy{}, fmt.Errorf("funnel url: %w", err)
	}
	p.FunnelURL = funnel

	if p.RobotsPath == "" {
		p.RobotsPath = routepath.Robots
	}
	if p.RobotsHandlerPath == "" {
		p.RobotsHandlerPath = routepath.RobotsHandler
	}
	if !strings.HasPrefix(p.RobotsPath, "/") || !strings.HasPrefix(p.RobotsHandlerPath, "/") {
		return Policy{}, errors.New("robots paths must be absolute")
	}
	return p, nil
}

// Decide applies the ordered policy rules to a request URL. Rules match on
// the decoded path; redirect targets are built from the escaped path so the
// original path survives byte for byte. It is a pure function of the URL and
// the configured default locale; when no rule fires it returns Delegate.
//
// The two cross-locale rules are deliberately asymmetric: the first keeps
// the path, the second funnels every path to one landing URL.
func (p Policy) Decide(target *url.URL, defaultLocale i18n.Locale) Decision {
	if target == nil {
		return Delegate()
	}
	path := target.Path
	if i18n.HasPrefix(path, p.MirrorLocale) && defaultLocale == p.FunnelLocale {
		return Redirect(RuleCrossDomain, httpx.WithQuery(p.MirrorHost+target.EscapedPath(), target.RawQuery), http.StatusPermanentRedirect)
	}
	if i18n.HasPrefix(path, p.FunnelLocale) && defaultLocale == p.MirrorLocale {
		return Redirect(RuleIntroFunnel, p.FunnelURL, http.StatusTemporaryRedirect)
	}
	if path == p.RobotsPath {
		return Rewrite(RuleRobots, p.RobotsHandlerPath)
	}
	return Delegate()
}

func normalizeAbsoluteURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.New("url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return "", fmt.Errorf("url %q must use http or https", raw)
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	ascii, err := idna.Lookup.ToASCII(parsed.Hostname())
	if err != nil {
		return "", fmt.Errorf("host %q: %w", parsed.Hostname(), err)
	}
	if port := parsed.Port(); port != "" {
		parsed.Host = ascii + ":" + port
	} else {
		parsed.Host = ascii
	}
	return parsed.String(), nil
}
