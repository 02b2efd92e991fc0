package routing

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
)

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	normalizer := &countingNormalizer{}
	if _, err := New(Config{Policy: testPolicy(), Normalizer: normalizer}); err == nil {
		t.Fatal("expected missing locales error")
	}
	if _, err := New(Config{Locales: i18n.MustConfig("en", "en", "zh"), Policy: testPolicy()}); err == nil {
		t.Fatal("expected missing normalizer error")
	}
	bad := testPolicy()
	bad.MirrorHost = ""
	if _, err := New(Config{Locales: i18n.MustConfig("en", "en", "zh"), Policy: bad, Normalizer: normalizer}); err == nil {
		t.Fatal("expected policy error")
	}
	if _, err := New(Config{Locales: i18n.MustConfig("en", "en", "ja"), Policy: testPolicy(), Normalizer: normalizer}); err == nil {
		t.Fatal("expected unsupported policy locale error")
	}
}

func TestRouteExcludedPathsSkipPolicyAndNormalizer(t *testing.T) {
	t.Parallel()

	normalizer := &countingNormalizer{decision: Pass("normalized")}
	router := newTestRouter(t, "en", normalizer)
	for _, path := range []string{"/api/apps", "/_next/static/chunk.js", "/favicon.ico", "/robots.txt", "/sitemap.xml"} {
		got := router.Route(httptest.NewRequest(http.MethodGet, path, nil))
		if got != Pass(RuleExcluded) {
			t.Fatalf("Route(%q) = %+v, want excluded pass", path, got)
		}
	}
	if normalizer.calls != 0 {
		t.Fatalf("normalizer calls = %d, want 0", normalizer.calls)
	}
}

func TestRoutePolicyWinsOverNormalizer(t *testing.T) {
	t.Parallel()

	normalizer := &countingNormalizer{decision: Pass("normalized")}
	router := newTestRouter(t, "en", normalizer)
	got := router.Route(httptest.NewRequest(http.MethodGet, "/zh/docs", nil))
	if got.Rule != RuleCrossDomain || got.Target != testMirrorHost+"/zh/docs" {
		t.Fatalf("Route() = %+v, want cross-domain redirect", got)
	}
	if normalizer.calls != 0 {
		t.Fatalf("normalizer calls = %d, want 0", normalizer.calls)
	}
}

func TestRouteDelegatesUnmatchedPathExactlyOnce(t *testing.T) {
	t.Parallel()

	normalizer := &countingNormalizer{decision: Rewrite("locale-default", "/en/docs/intro")}
	router := newTestRouter(t, "en", normalizer)
	got := router.Route(httptest.NewRequest(http.MethodGet, "/docs/intro", nil))
	if normalizer.calls != 1 {
		t.Fatalf("normalizer calls = %d, want 1", normalizer.calls)
	}
	if got != normalizer.decision {
		t.Fatalf("Route() = %+v, want normalizer decision %+v", got, normalizer.decision)
	}
}

func TestRouteIsIdempotentForUnmatchedPath(t *testing.T) {
	t.Parallel()

	normalizer := &countingNormalizer{decision: Rewrite("locale-default", "/en/docs/intro")}
	router := newTestRouter(t, "en", normalizer)
	first := router.Route(httptest.NewRequest(http.MethodGet, "/docs/intro", nil))
	second := router.Route(httptest.NewRequest(http.MethodGet, "/docs/intro", nil))
	if first != second {
		t.Fatalf("Route() not idempotent: %+v then %+v", first, second)
	}
	if normalizer.calls != 2 {
		t.Fatalf("normalizer calls = %d, want 2", normalizer.calls)
	}
}

func TestRouteCoercesDelegateFromNormalizer(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, "en", NormalizerFunc(func(*http.Request, i18n.Config) Decision {
		return Delegate()
	}))
	got := router.Route(httptest.NewRequest(http.MethodGet, "/docs", nil))
	if got.Action != ActionPass {
		t.Fatalf("Action = %v, want %v", got.Action, ActionPass)
	}
}

func TestRouteNilRequest(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, "en", &countingNormalizer{})
	if got := router.Route(nil); got.Action != ActionPass {
		t.Fatalf("Route(nil) = %+v, want pass", got)
	}
}

func TestActionString(t *testing.T) {
	t.Parallel()

	want := map[Action]string{
		ActionPass:     "pass",
		ActionRedirect: "redirect",
		ActionRewrite:  "rewrite",
		ActionDelegate: "delegate",
		Action(99):     "unknown",
	}
	for action, name := range want {
		if got := action.String(); got != name {
			t.Fatalf("Action(%d).String() = %q, want %q", action, got, name)
		}
	}
}

func TestRouteRobotsPassesWhenExcluded(t *testing.T) {
	t.Parallel()

	normalizer := &countingNormalizer{}
	router := newTestRouter(t, "en", normalizer)
	got := router.Route(httptest.NewRequest(http.MethodGet, "/robots.txt", nil))
	if got != Pass(RuleExcluded) {
		t.Fatalf("Route(/robots.txt) = %+v, want %+v", got, Pass(RuleExcluded))
	}
	if normalizer.calls != 0 {
		t.Fatalf("normalizer calls = %d, want 0", normalizer.calls)
	}
}

func TestRouteRobotsRewritesWhenNotExcluded(t *testing.T) {
	t.Parallel()

	for _, defaultLocale := range []string{"en", "zh"} {
		normalizer := &countingNormalizer{}
		router, err := New(Config{
			Locales:    i18n.MustConfig(defaultLocale, "en", "zh"),
			Policy:     testPolicy(),
			Exclusions: NewExclusions("/api/"),
			Normalizer: normalizer,
		})
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		got := router.Route(httptest.NewRequest(http.MethodGet, "/robots.txt", nil))
		if want := Rewrite(RuleRobots, "/api/robots"); got != want {
			t.Fatalf("default %s: Route(/robots.txt) = %+v, want %+v", defaultLocale, got, want)
		}
		if normalizer.calls != 0 {
			t.Fatalf("default %s: normalizer calls = %d, want 0", defaultLocale, normalizer.calls)
		}
	}
}

func TestRouteCrossDomainKeepsEscapedPath(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, "en", &countingNormalizer{})
	tests := map[string]string{
		"/zh/a%3Fb?x=1": testMirrorHost + "/zh/a%3Fb?x=1",
		"/zh/a%20b":     testMirrorHost + "/zh/a%20b",
		"/zh/%5Cevil":   testMirrorHost + "/zh/%5Cevil",
	}
	for target, want := range tests {
		got := router.Route(httptest.NewRequest(http.MethodGet, target, nil))
		if got.Target != want {
			t.Fatalf("Route(%q).Target = %q, want %q", target, got.Target, want)
		}
	}
}
