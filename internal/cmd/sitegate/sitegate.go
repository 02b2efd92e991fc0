// Package sitegate parses sitegate flags and launches the site server.
package sitegate

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
	entrypoint "github.com/louisbranch/sitegate/internal/platform/cmd"
	"github.com/louisbranch/sitegate/internal/services/site"
	"github.com/louisbranch/sitegate/internal/services/site/localeprefix"
	"github.com/louisbranch/sitegate/internal/services/site/routing"
	"github.com/louisbranch/sitegate/internal/services/site/seo"
)

// Config holds the sitegate command configuration.
type Config struct {
	HTTPAddr    string `env:"SITEGATE_HTTP_ADDR" envDefault:"localhost:8080"`
	MetricsAddr string `env:"SITEGATE_METRICS_ADDR"`

	DefaultLocale string `env:"SITEGATE_DEFAULT_LOCALE" envDefault:"en"`
	Locales       string `env:"SITEGATE_LOCALES" envDefault:"en,zh"`
	PrefixMode    string `env:"SITEGATE_LOCALE_PREFIX" envDefault:"as-needed"`

	MirrorLocale string `env:"SITEGATE_MIRROR_LOCALE" envDefault:"zh"`
	FunnelLocale string `env:"SITEGATE_FUNNEL_LOCALE" envDefault:"en"`
	MirrorHost   string `env:"SITEGATE_MIRROR_HOST" envDefault:"http://localhost:8081"`
	FunnelURL    string `env:"SITEGATE_FUNNEL_URL" envDefault:"http://localhost:8080/intro"`
	// Exclusions replaces the built-in exclusion list when set.
	Exclusions string `env:"SITEGATE_EXCLUSIONS"`

	Hosts          string `env:"SITEGATE_HOSTS" envDefault:"en=http://localhost:8080,zh=http://localhost:8081"`
	RobotsDisallow string `env:"SITEGATE_ROBOTS_DISALLOW" envDefault:"/api/"`
	RobotsBlockAll bool   `env:"SITEGATE_ROBOTS_BLOCK_ALL"`
	ManifestPath   string `env:"SITEGATE_SITEMAP_MANIFEST"`

	ContentDir    string `env:"SITEGATE_CONTENT_DIR"`
	ContentOrigin string `env:"SITEGATE_CONTENT_ORIGIN"`
}

// ParseConfig parses environment and flags into Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	if fs == nil {
		return Config{}, fmt.Errorf("flag parser is required")
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Prometheus listen address (blank disables)")
	fs.StringVar(&cfg.DefaultLocale, "default-locale", cfg.DefaultLocale, "Default locale")
	fs.StringVar(&cfg.Locales, "locales", cfg.Locales, "Comma-separated supported locales")
	fs.StringVar(&cfg.PrefixMode, "locale-prefix", cfg.PrefixMode, "Locale prefix mode: as-needed, always, never")
	fs.StringVar(&cfg.MirrorLocale, "mirror-locale", cfg.MirrorLocale, "Locale served by the mirror host")
	fs.StringVar(&cfg.FunnelLocale, "funnel-locale", cfg.FunnelLocale, "Locale funnelled to the intro URL")
	fs.StringVar(&cfg.MirrorHost, "mirror-host", cfg.MirrorHost, "Mirror edition origin")
	fs.StringVar(&cfg.FunnelURL, "funnel-url", cfg.FunnelURL, "Intro funnel URL")
	fs.StringVar(&cfg.Exclusions, "exclusions", cfg.Exclusions, "Comma-separated paths the router never touches")
	fs.StringVar(&cfg.Hosts, "hosts", cfg.Hosts, "Comma-separated locale=origin public hosts")
	fs.StringVar(&cfg.RobotsDisallow, "robots-disallow", cfg.RobotsDisallow, "Comma-separated robots.txt disallow prefixes")
	fs.BoolVar(&cfg.RobotsBlockAll, "robots-block-all", cfg.RobotsBlockAll, "Disallow all crawling")
	fs.StringVar(&cfg.ManifestPath, "sitemap-manifest", cfg.ManifestPath, "YAML sitemap manifest path")
	fs.StringVar(&cfg.ContentDir, "content-dir", cfg.ContentDir, "Static export directory")
	fs.StringVar(&cfg.ContentOrigin, "content-origin", cfg.ContentOrigin, "Upstream content origin")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SiteConfig validates cfg and converts it into server settings.
func (cfg Config) SiteConfig() (site.Config, error) {
	locales, err := i18n.NewConfig(cfg.DefaultLocale, i18n.ParseList(cfg.Locales))
	if err != nil {
		return site.Config{}, fmt.Errorf("locales: %w", err)
	}
	mode, err := localeprefix.ParseMode(cfg.PrefixMode)
	if err != nil {
		return site.Config{}, err
	}
	hosts, err := seo.ParseHosts(i18n.ParseList(cfg.Hosts), locales)
	if err != nil {
		return site.Config{}, fmt.Errorf("hosts: %w", err)
	}
	policy, err := routing.Policy{
		MirrorLocale: i18n.Locale(cfg.MirrorLocale),
		FunnelLocale: i18n.Locale(cfg.FunnelLocale),
		MirrorHost:   cfg.MirrorHost,
		FunnelURL:    cfg.FunnelURL,
	}.Normalize()
	if err != nil {
		return site.Config{}, fmt.Errorf("routing policy: %w", err)
	}

	exclusions := routing.DefaultExclusions()
	if entries := i18n.ParseList(cfg.Exclusions); len(entries) > 0 {
		exclusions = routing.NewExclusions(entries...)
	}

	return site.Config{
		HTTPAddr:      cfg.HTTPAddr,
		MetricsAddr:   cfg.MetricsAddr,
		Locales:       locales,
		Policy:        policy,
		Exclusions:    exclusions,
		PrefixMode:    mode,
		Hosts:         hosts,
		Robots:        seo.RobotsRules{Disallow: i18n.ParseList(cfg.RobotsDisallow), BlockAll: cfg.RobotsBlockAll},
		ManifestPath:  cfg.ManifestPath,
		ContentDir:    cfg.ContentDir,
		ContentOrigin: cfg.ContentOrigin,
		Logger:        log.Default(),
	}, nil
}

// Run starts the site server.
func Run(ctx context.Context, cfg Config) error {
	siteCfg, err := cfg.SiteConfig()
	if err != nil {
		return err
	}
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceSite, func(ctx context.Context) error {
		server, err := site.NewServer(siteCfg)
		if err != nil {
			return fmt.Errorf("init site server: %w", err)
		}
		defer server.Close()

		if err := server.ListenAndServe(ctx); err != nil {
			return fmt.Errorf("serve site: %w", err)
		}
		return nil
	})
}
