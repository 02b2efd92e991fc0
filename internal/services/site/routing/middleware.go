package routing

import (
	"net/http"

	"github.com/louisbranch/sitegate/internal/platform/otel"
	"github.com/louisbranch/sitegate/internal/platform/requestctx"
	"github.com/louisbranch/sitegate/internal/services/site/platform/httpx"
	"github.com/louisbranch/sitegate/internal/services/site/platform/i18nhttp"
	"github.com/louisbranch/sitegate/internal/services/site/platform/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/louisbranch/sitegate/internal/services/site/routing"

// Middleware applies routing decisions in front of next. Excluded requests
// reach next untouched; redirects are answered here; rewrites reach next
// with the rewritten path.
func (rt *Router) Middleware() httpx.Middleware {
	tracer := otel.Tracer(tracerName)
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.NotFoundHandler()
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := rt.Route(r)
			rt.metrics.observe(decision)
			if decision.Rule == RuleExcluded {
				next.ServeHTTP(w, r)
				return
			}

			ctx, span := tracer.Start(r.Context(), "site.route", trace.WithSpanKind(trace.SpanKindInternal))
			defer span.End()
			span.SetAttributes(
				attribute.String("site.route.action", decision.Action.String()),
				attribute.String("site.route.rule", decision.Rule),
				attribute.String("site.route.target", decision.Target),
				attribute.String("site.route.locale", decision.Locale.String()),
			)

			w.Header().Set(observability.HeaderRouteRule, decision.Rule)
			ctx = requestctx.WithRouteRule(ctx, decision.Rule)
			if decision.Locale != "" {
				w.Header().Set(i18nhttp.HeaderLocale, decision.Locale.String())
				ctx = requestctx.WithLocale(ctx, decision.Locale)
			}
			if decision.PersistLocale {
				i18nhttp.SetLanguageCookie(w, decision.Locale)
			}

			switch decision.Action {
			case ActionRedirect:
				span.SetAttributes(
					attribute.Int("http.response.status_code", decision.Status),
					attribute.Bool("site.route.permanent", decision.IsPermanent()),
				)
				httpx.WriteRedirect(w, r, decision.Target, decision.Status)
			case ActionRewrite:
				next.ServeHTTP(w, httpx.Rewrite(r.WithContext(ctx), decision.Target))
			default:
				next.ServeHTTP(w, r.WithContext(ctx))
			}
		})
	}
}
