// Package site composes the sitegate HTTP surface: the locale router in
// front of the SEO resources and the content backend.
package site

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
	"github.com/louisbranch/sitegate/internal/platform/timeouts"
	"github.com/louisbranch/sitegate/internal/services/site/content"
	"github.com/louisbranch/sitegate/internal/services/site/localeprefix"
	"github.com/louisbranch/sitegate/internal/services/site/platform/httpx"
	"github.com/louisbranch/sitegate/internal/services/site/platform/observability"
	"github.com/louisbranch/sitegate/internal/services/site/routepath"
	"github.com/louisbranch/sitegate/internal/services/site/routing"
	"github.com/louisbranch/sitegate/internal/services/site/seo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config defines the site server settings.
type Config struct {
	HTTPAddr    string
	MetricsAddr string

	Locales    i18n.Config
	Policy     routing.Policy
	Exclusions routing.Exclusions
	PrefixMode localeprefix.Mode

	Hosts  seo.Hosts
	Robots seo.RobotsRules
	// ManifestPath points at the YAML page manifest; blank lists only "/".
	ManifestPath string

	ContentDir    string
	ContentOrigin string

	Logger *log.Logger
	// Registerer receives the router collectors. Nil disables metrics.
	Registerer prometheus.Registerer
}

// Server hosts the site handler and the optional metrics listener.
type Server struct {
	httpAddr      string
	httpServer    *http.Server
	metricsAddr   string
	metricsServer *http.Server
	logger        *log.Logger
}

// NewHandler builds the full site handler.
//
// Health checks bypass the router. Every other request is routed first;
// robots.txt, the robots handler path and the sitemap are answered here and
// the rest reaches the content backend.
func NewHandler(cfg Config) (http.Handler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	if cfg.Hosts.ForDefault() == "" {
		return nil, errors.New("default locale host is required")
	}
	metrics, err := routing.NewMetrics(cfg.Registerer)
	if err != nil {
		return nil, fmt.Errorf("router metrics: %w", err)
	}
	exclusions := cfg.Exclusions
	if len(exclusions.Entries()) == 0 {
		exclusions = routing.DefaultExclusions()
	}
	router, err := routing.New(routing.Config{
		Locales:    cfg.Locales,
		Policy:     cfg.Policy,
		Exclusions: exclusions,
		Normalizer: localeprefix.New(cfg.PrefixMode),
		Metrics:    metrics,
	})
	if err != nil {
		return nil, err
	}

	manifest, err := loadManifest(cfg.ManifestPath, cfg.Locales)
	if err != nil {
		return nil, err
	}
	sitemap, err := seo.SitemapHandler(manifest, cfg.Hosts, cfg.Locales, seo.SitemapOptions{
		Mode: cfg.PrefixMode,
	})
	if err != nil {
		return nil, fmt.Errorf("sitemap: %w", err)
	}
	backend, err := content.NewHandler(content.Config{Dir: cfg.ContentDir, Origin: cfg.ContentOrigin}, logger)
	if err != nil {
		return nil, err
	}

	robots := seo.RobotsHandler(cfg.Hosts, cfg.Robots)
	siteMux := http.NewServeMux()
	siteMux.Handle(routepath.Robots, robots)
	if handlerPath := router.Policy().RobotsHandlerPath; handlerPath != routepath.Robots {
		siteMux.Handle(handlerPath, robots)
	}
	siteMux.Handle(routepath.Sitemap, sitemap)
	siteMux.Handle(routepath.Root, backend)

	rootMux := http.NewServeMux()
	rootMux.HandleFunc(routepath.Health, func(w http.ResponseWriter, _ *http.Request) {
		_ = httpx.WriteText(w, http.StatusOK, "ok")
	})
	rootMux.Handle(routepath.Root, router.Middleware()(siteMux))

	return httpx.Chain(rootMux,
		httpx.RecoverPanic(logger),
		httpx.RequestID(),
		observability.RequestLogger(logger),
	), nil
}

// NewServer builds the site server and, when MetricsAddr is set, a
// Prometheus listener backed by a dedicated registry.
func NewServer(cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
		cfg.Logger = logger
	}

	metricsAddr := strings.TrimSpace(cfg.MetricsAddr)
	var registry *prometheus.Registry
	if metricsAddr != "" && cfg.Registerer == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		cfg.Registerer = registry
	}

	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}

	server := &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
			ErrorLog:          logger,
		},
		logger: logger,
	}
	if metricsAddr != "" {
		var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
		if registry != nil {
			gatherer = registry
		} else if g, ok := cfg.Registerer.(prometheus.Gatherer); ok {
			gatherer = g
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{ErrorLog: logger}))
		server.metricsAddr = metricsAddr
		server.metricsServer = &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: timeouts.ReadHeader,
			ErrorLog:          logger,
		}
	}
	return server, nil
}

// ListenAndServe runs the listeners until the context ends.
//
// On cancellation, it performs a bounded shutdown so in-flight requests
// are drained before hard close.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("site server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 2)
	s.logger.Printf("site listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()
	if s.metricsServer != nil {
		s.logger.Printf("metrics listening on %s", s.metricsAddr)
		go func() {
			if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- fmt.Errorf("metrics: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return s.shutdown()
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		_ = s.shutdown()
		return fmt.Errorf("serve http: %w", err)
	}
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	var errs []error
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Close force-closes the listeners.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if err := s.httpServer.Close(); err != nil {
		s.logger.Printf("close http server: %v", err)
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Close(); err != nil {
			s.logger.Printf("close metrics server: %v", err)
		}
	}
}

func loadManifest(path string, locales i18n.Config) (seo.Manifest, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return seo.DefaultManifest(), nil
	}
	manifest, err := seo.LoadManifest(os.DirFS(filepath.Dir(path)), filepath.Base(path), locales)
	if err != nil {
		return seo.Manifest{}, fmt.Errorf("sitemap manifest: %w", err)
	}
	return manifest, nil
}
