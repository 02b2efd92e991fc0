// Package routing decides, per request, whether the site redirects across
// domains, rewrites to an internal handler, or hands the path to the
// locale-prefix normalizer.
package routing

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
)

// Normalizer is the locale-prefix step the router falls through to. It may
// rewrite, redirect, or pass the request; it must not return ActionDelegate.
type Normalizer interface {
	Normalize(r *http.Request, locales i18n.Config) Decision
}

// NormalizerFunc adapts a function to Normalizer.
type NormalizerFunc func(r *http.Request, locales i18n.Config) Decision

// Normalize calls f.
func (f NormalizerFunc) Normalize(r *http.Request, locales i18n.Config) Decision {
	return f(r, locales)
}

// Config wires a Router.
type Config struct {
	Locales    i18n.Config
	Policy     Policy
	Exclusions Exclusions
	Normalizer Normalizer
	Metrics    *Metrics
}

// Router evaluates the routing policy. It holds only immutable configuration
// and is safe for concurrent use.
type Router struct {
	locales    i18n.Config
	policy     Policy
	exclusions Exclusions
	normalizer Normalizer
	metrics    *Metrics
}

// New validates cfg and builds a Router.
func New(cfg Config) (*Router, error) {
	if cfg.Locales.IsZero() {
		return nil, errors.New("locale config is required")
	}
	if cfg.Normalizer == nil {
		return nil, errors.New("normalizer is required")
	}
	policy, err := cfg.Policy.Normalize()
	if err != nil {
		return nil, fmt.Errorf("routing policy: %w", err)
	}
	for _, locale := range []i18n.Locale{policy.MirrorLocale, policy.FunnelLocale} {
		if _, ok := cfg.Locales.Parse(locale.String()); !ok {
			return nil, fmt.Errorf("routing policy: locale %q is not supported", locale)
		}
	}
	return &Router{
		locales:    cfg.Locales,
		policy:     policy,
		exclusions: cfg.Exclusions,
		normalizer: cfg.Normalizer,
		metrics:    cfg.Metrics,
	}, nil
}

// Policy returns the normalized routing policy.
func (rt *Router) Policy() Policy {
	return rt.policy
}

// Route produces the decision for r: exclusions first, then the ordered
// policy, then exactly one call to the normalizer on fallthrough.
func (rt *Router) Route(r *http.Request) Decision {
	if r == nil || r.URL == nil {
		return Pass(RuleExcluded)
	}
	if rt.exclusions.Match(r.URL.Path) {
		return Pass(RuleExcluded)
	}

	decision := rt.policy.Decide(r.URL, rt.locales.Default())
	if decision.Action != ActionDelegate {
		return decision
	}

	decision = rt.normalizer.Normalize(r, rt.locales)
	if decision.Action == ActionDelegate {
		decision.Action = ActionPass
	}
	return decision
}
