// Package proxy runs a local reverse proxy in front of the Anthropic API
// that injects the x-api-key and anthropic-version headers server-side, so
// browser apps and scripts on the same machine never handle the key.
package proxy

import (
	"fmt"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config holds proxy settings.
type Config struct {
	// Upstream is the API base URL including the /v1 prefix.
	Upstream string
	// APIKey is injected into every forwarded request.
	APIKey string
	// APIVersion is injected as anthropic-version.
	APIVersion string
	// AllowedOrigins for CORS; empty allows any origin (local dev).
	AllowedOrigins []string
}

// Handler builds the proxy handler. Requests to /v1/* are forwarded to the
// upstream with credentials attached; /healthz answers locally.
func Handler(cfg Config) (http.Handler, error) {
	upstream, err := url.Parse(cfg.Upstream)
	if err != nil {
		return nil, fmt.Errorf("parsing upstream %q: %w", cfg.Upstream, err)
	}
	if upstream.Scheme == "" || upstream.Host == "" {
		return nil, fmt.Errorf("upstream %q must be an absolute URL", cfg.Upstream)
	}

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(upstream)
			pr.Out.Host = upstream.Host
			pr.Out.Header.Set("x-api-key", cfg.APIKey)
			pr.Out.Header.Set("anthropic-version", cfg.APIVersion)
		},
		// Leave bodies alone so SSE streams flush as they arrive.
		FlushInterval: 100 * time.Millisecond,
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"content-type", "accept"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/v1/*", http.StripPrefix("/v1", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rp.ServeHTTP(w, req)
	})))

	return r, nil
}

// ListenAndServe runs the proxy until the server fails.
func ListenAndServe(addr string, cfg Config) error {
	handler, err := Handler(cfg)
	if err != nil {
		return err
	}
	log.Printf("anthro proxy listening on %s, forwarding to %s", addr, cfg.Upstream)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
