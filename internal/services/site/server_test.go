package site

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
	"github.com/louisbranch/sitegate/internal/services/site/localeprefix"
	"github.com/louisbranch/sitegate/internal/services/site/platform/httpx"
	"github.com/louisbranch/sitegate/internal/services/site/platform/i18nhttp"
	"github.com/louisbranch/sitegate/internal/services/site/platform/observability"
	"github.com/louisbranch/sitegate/internal/services/site/routing"
	"github.com/louisbranch/sitegate/internal/services/site/seo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func testConfig(t *testing.T) Config {
	t.Helper()

	locales := i18n.MustConfig("en", "en", "zh")
	hosts, err := seo.ParseHosts([]string{"en=https://example.com", "zh=https://docs.example.cn"}, locales)
	if err != nil {
		t.Fatalf("ParseHosts() error = %v", err)
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "en", "docs.html"), "en docs")
	writeFile(t, filepath.Join(dir, "zh", "index.html"), "zh home")
	writeFile(t, filepath.Join(dir, "en", "docs", "a?b.html"), "encoded page")

	return Config{
		HTTPAddr: "127.0.0.1:0",
		Locales:  locales,
		Policy: routing.Policy{
			MirrorLocale: "zh",
			FunnelLocale: "en",
			MirrorHost:   "https://docs.example.cn",
			FunnelURL:    "https://example.com/intro",
		},
		PrefixMode: localeprefix.ModeAsNeeded,
		Hosts:      hosts,
		Robots:     seo.RobotsRules{Disallow: []string{"/api/"}},
		ContentDir: dir,
		Logger:     log.New(io.Discard, "", 0),
	}
}

func writeFile(t *testing.T, name string, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(name, []byte(body), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestNewHandlerRoutes(t *testing.T) {
	t.Parallel()

	handler, err := NewHandler(testConfig(t))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}

	tests := map[string]struct {
		target       string
		wantStatus   int
		wantLocation string
		wantBody     string
		wantRule     string
	}{
		"health":            {target: "/up", wantStatus: http.StatusOK, wantBody: "ok"},
		"cross domain":      {target: "/zh/docs/intro?ref=nav", wantStatus: http.StatusPermanentRedirect, wantLocation: "https://docs.example.cn/zh/docs/intro?ref=nav", wantRule: routing.RuleCrossDomain},
		"robots":            {target: "/robots.txt", wantStatus: http.StatusOK, wantBody: "Host: https://example.com", wantRule: routing.RuleExcluded},
		"robots handler":    {target: "/api/robots", wantStatus: http.StatusOK, wantBody: "Sitemap: https://example.com/sitemap.xml"},
		"sitemap":           {target: "/sitemap.xml", wantStatus: http.StatusOK, wantBody: "<urlset"},
		"default rewrite":   {target: "/docs", wantStatus: http.StatusOK, wantBody: "en docs", wantRule: localeprefix.RuleDefaultRewrite},
		"strip default":     {target: "/en/docs?x=1", wantStatus: http.StatusTemporaryRedirect, wantLocation: "/docs?x=1", wantRule: localeprefix.RuleStripDefault},
		"encoded mirror":    {target: "/zh/a%3Fb?x=1", wantStatus: http.StatusPermanentRedirect, wantLocation: "https://docs.example.cn/zh/a%3Fb?x=1"},
		"encoded space":     {target: "/zh/a%20b", wantStatus: http.StatusPermanentRedirect, wantLocation: "https://docs.example.cn/zh/a%20b"},
		"escaped backslash": {target: "/en/%5Cevil.com", wantStatus: http.StatusTemporaryRedirect, wantLocation: "/%5Cevil.com", wantRule: localeprefix.RuleStripDefault},
		"encoded page":      {target: "/docs/a%3Fb", wantStatus: http.StatusOK, wantBody: "encoded page", wantRule: localeprefix.RuleDefaultRewrite},
		"missing page":      {target: "/missing", wantStatus: http.StatusNotFound},
		"excluded api path": {target: "/api/unknown", wantStatus: http.StatusNotFound},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.target, nil))
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantLocation != "" {
				if got := rec.Header().Get("Location"); got != tc.wantLocation {
					t.Fatalf("Location = %q, want %q", got, tc.wantLocation)
				}
			}
			if tc.wantBody != "" && !strings.Contains(rec.Body.String(), tc.wantBody) {
				t.Fatalf("body = %q, want substring %q", rec.Body.String(), tc.wantBody)
			}
			if tc.wantRule != "" && tc.wantRule != routing.RuleExcluded {
				if got := rec.Header().Get(observability.HeaderRouteRule); got != tc.wantRule {
					t.Fatalf("route header = %q, want %q", got, tc.wantRule)
				}
			}
			if rec.Header().Get(httpx.HeaderRequestID) == "" {
				t.Fatal("expected request id header")
			}
		})
	}
}

func TestNewHandlerHealthBypassesRouter(t *testing.T) {
	t.Parallel()

	handler, err := NewHandler(testConfig(t))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/up", nil))
	if got := rec.Header().Get(observability.HeaderRouteRule); got != "" {
		t.Fatalf("route header = %q, want empty", got)
	}
	if got := rec.Header().Get(i18nhttp.HeaderLocale); got != "" {
		t.Fatalf("locale header = %q, want empty", got)
	}
}

func TestNewHandlerDetectsLocale(t *testing.T) {
	t.Parallel()

	handler, err := NewHandler(testConfig(t))
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/guide", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTemporaryRedirect)
	}
	if got := rec.Header().Get("Location"); got != "/zh/guide" {
		t.Fatalf("Location = %q, want %q", got, "/zh/guide")
	}
}

func TestNewHandlerRecordsMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	cfg := testConfig(t)
	cfg.Registerer = registry
	handler, err := NewHandler(cfg)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	for _, target := range []string{"/zh/docs", "/docs", "/robots.txt"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}
	count, err := testutil.GatherAndCount(registry, "sitegate_router_decisions_total")
	if err != nil {
		t.Fatalf("GatherAndCount() error = %v", err)
	}
	if count != 3 {
		t.Fatalf("decision series = %d, want 3", count)
	}
}

func TestNewHandlerValidation(t *testing.T) {
	t.Parallel()

	t.Run("missing hosts", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t)
		cfg.Hosts = seo.Hosts{}
		if _, err := NewHandler(cfg); err == nil {
			t.Fatal("expected error for missing hosts")
		}
	})

	t.Run("bad policy", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t)
		cfg.Policy.MirrorLocale = "fr"
		if _, err := NewHandler(cfg); err == nil {
			t.Fatal("expected error for unsupported mirror locale")
		}
	})

	t.Run("missing manifest", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t)
		cfg.ManifestPath = filepath.Join(t.TempDir(), "pages.yaml")
		if _, err := NewHandler(cfg); err == nil {
			t.Fatal("expected error for missing manifest")
		}
	})
}

func TestNewHandlerLoadsManifest(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.ManifestPath = filepath.Join(t.TempDir(), "pages.yaml")
	writeFile(t, cfg.ManifestPath, "pages:\n  - path: /\n  - path: /docs/intro\n    locales: [en]\n")
	handler, err := NewHandler(cfg)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	if !strings.Contains(rec.Body.String(), "https://example.com/docs/intro") {
		t.Fatalf("sitemap = %q, want manifest page", rec.Body.String())
	}
}

func TestNewServerRequiresAddr(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.HTTPAddr = " "
	if _, err := NewServer(cfg); err == nil {
		t.Fatal("expected error for blank http addr")
	}
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	cfg.MetricsAddr = "127.0.0.1:0"
	server, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := server.ListenAndServe(ctx); err != nil {
		t.Fatalf("ListenAndServe() error = %v", err)
	}
}

func TestListenAndServeNilServer(t *testing.T) {
	t.Parallel()

	var server *Server
	if err := server.ListenAndServe(context.Background()); err == nil {
		t.Fatal("expected error for nil server")
	}
	server.Close()
}
