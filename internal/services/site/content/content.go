// Package content serves the statically built site pages behind the router.
//
// Pages are produced by an external build. They are read either from a local
// export directory laid out as "/{locale}/{path}" or from an upstream origin
// that accepts the same locale-scoped paths.
package content

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/louisbranch/sitegate/internal/platform/timeouts"
)

// Config selects the content backend. Dir wins over Origin when both are set.
type Config struct {
	Dir    string
	Origin string
}

// NewHandler builds the content backend. With neither a directory nor an
// origin configured every request is answered with 404.
func NewHandler(cfg Config, logger *log.Logger) (http.Handler, error) {
	dir := strings.TrimSpace(cfg.Dir)
	origin := strings.TrimSpace(cfg.Origin)
	switch {
	case dir != "":
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("content dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("content dir %q is not a directory", dir)
		}
		return FileHandler(os.DirFS(dir)), nil
	case origin != "":
		return ProxyHandler(origin, logger)
	default:
		return http.NotFoundHandler(), nil
	}
}

// FileHandler serves pages from fsys. Extensionless paths resolve to
// "{path}.html" and then "{path}/index.html", matching static exports.
func FileHandler(fsys fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if resolved, ok := resolve(fsys, name); ok {
			http.ServeFileFS(w, r, fsys, resolved)
			return
		}
		http.NotFound(w, r)
	})
}

func resolve(fsys fs.FS, name string) (string, bool) {
	if name == "" {
		name = "."
	}
	candidates := []string{name}
	if path.Ext(name) == "" {
		if name == "." {
			candidates = []string{"index.html"}
		} else {
			candidates = append([]string{name + ".html"}, path.Join(name, "index.html"))
		}
	}
	for _, candidate := range candidates {
		info, err := fs.Stat(fsys, candidate)
		if err == nil && !info.IsDir() {
			return candidate, true
		}
	}
	return "", false
}

// ProxyHandler forwards requests to an upstream origin, keeping the
// rewritten locale-scoped path.
func ProxyHandler(origin string, logger *log.Logger) (http.Handler, error) {
	target, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("content origin: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, errors.New("content origin must be an absolute url")
	}
	if logger == nil {
		logger = log.Default()
	}

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: timeouts.UpstreamDial}).DialContext,
			ResponseHeaderTimeout: timeouts.UpstreamResponseHeader,
			MaxIdleConnsPerHost:   16,
		},
		ErrorLog: logger,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Printf("content proxy error path=%s err=%v", r.URL.Path, err)
			w.WriteHeader(http.StatusBadGateway)
		},
	}
	return proxy, nil
}
