// Package requestctx carries per-request routing facts through context.
package requestctx

import (
	"context"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
)

// localeContextKey is the context key for the locale resolved by routing.
type localeContextKey struct{}

// routeRuleContextKey is the context key for the routing rule that fired.
type routeRuleContextKey struct{}

// WithLocale stores the resolved request locale in context.
func WithLocale(ctx context.Context, locale i18n.Locale) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, localeContextKey{}, locale)
}

// LocaleFromContext returns the resolved request locale, if any.
func LocaleFromContext(ctx context.Context) (i18n.Locale, bool) {
	if ctx == nil {
		return "", false
	}
	value, ok := ctx.Value(localeContextKey{}).(i18n.Locale)
	return value, ok && value != ""
}

// WithRouteRule stores the name of the routing rule applied to the request.
func WithRouteRule(ctx context.Context, rule string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routeRuleContextKey{}, rule)
}

// RouteRuleFromContext returns the routing rule name stored in context.
func RouteRuleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(routeRuleContextKey{}).(string)
	return value
}
