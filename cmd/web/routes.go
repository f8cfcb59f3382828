// cmd/web/routes.go
//
// Root router.
//
// Middleware order: request id, real IP, panic recovery, harvester
// enrichment, response headers, then the optional HTTPS redirect wraps the
// whole tree.

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/yanizio/oaipmh/internal/admin"
	"github.com/yanizio/oaipmh/internal/config"
	"github.com/yanizio/oaipmh/internal/crosswalk"
	"github.com/yanizio/oaipmh/internal/harvest"
	"github.com/yanizio/oaipmh/internal/kindcache"
	"github.com/yanizio/oaipmh/internal/middleware"
	"github.com/yanizio/oaipmh/internal/oai"
	"github.com/yanizio/oaipmh/internal/requestinfo"
)

func newRouter(cfg *config.Config, cat catalogue, log *zap.Logger) http.Handler {
	kinds := kindcache.New(cat, cfg.Cache.KindsTTL, log)

	var resolver harvest.IdentifierResolver
	if cfg.Repository.IndexIdentifiers {
		resolver = harvest.NewIndexResolver(kinds, cat, crosswalk.Default, log)
	} else {
		resolver = harvest.NewScanResolver(kinds, cat, crosswalk.Default, log)
	}

	oaiHandler := oai.New(oai.Options{
		Repository: oai.Repository{
			Name:              cfg.Repository.Name,
			BaseURL:           cfg.Repository.BaseURL,
			AdminEmail:        cfg.Repository.AdminEmail,
			EarliestDatestamp: cfg.Repository.EarliestDatestamp,
		},
		Store:     cat,
		Selector:  harvest.NewSelector(kinds, cat, crosswalk.Default, log),
		Resolver:  resolver,
		Crosswalk: crosswalk.Default,
		Logger:    log,
	})

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requestinfo.Enrich)
	r.Use(middleware.Security)

	r.Method(http.MethodGet, cfg.HTTP.OAIPath, oaiHandler)
	r.Method(http.MethodPost, cfg.HTTP.OAIPath, oaiHandler)

	if cfg.HTTP.AdminPath != "" {
		r.Mount(cfg.HTTP.AdminPath, admin.New(cat, kinds, log).Routes())
	}

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", healthz(cat))

	return middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS, r)
}

func healthz(p interface{ Ping(context.Context) error }) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if err := p.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unavailable\n"))
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	}
}
