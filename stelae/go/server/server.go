// Package server wires together the archive loader (C2), the history
// store (C9), and the route registry (C4) into a single http.Handler —
// the constructor an entry-point binary calls, without itself being one
// (spec §1 scopes the binary's flag/log/tracing bootstrap out).
package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openlawlibrary/stelae-sub000/go/httputils"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/archive"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/history"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/routes"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/serve"
	"github.com/openlawlibrary/stelae-sub000/stelae/go/versions"
)

// Config names everything New needs to assemble a handler. DatabaseURL
// is a sqlx DSN; a bare filesystem path selects the normative SQLite
// engine, while a postgres:// or postgresql:// scheme selects the
// documented Postgres portability path (spec §9).
type Config struct {
	ArchivePath string
	SourcePath  string
	Individual  bool
	DatabaseURL string
}

// Server bundles the assembled handler with the resources New opened, so
// callers can shut them down cleanly.
type Server struct {
	Handler http.Handler
	Archive *archive.Archive
	History *history.Store
}

// Close releases the history store's connection pool.
func (s *Server) Close() error {
	return s.History.Close()
}

// New loads the archive, opens (and bootstraps) the history store, and
// compiles the route registry into a chi-backed handler, with request
// logging, CORP headers, and Prometheus metrics as the outermost
// middleware (spec §1 ambient stack).
func New(ctx context.Context, cfg Config) (*Server, error) {
	arch, err := archive.Parse(cfg.ArchivePath, cfg.SourcePath, cfg.Individual)
	if err != nil {
		return nil, err
	}

	historyStore, err := history.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	handlers := routes.Handlers{
		ServeDocument: serve.ServeDocument,
		ServeArchive:  serve.ServeArchive,
		ServeStelae:   serve.ServeStelae,
		ServeVersions: versions.ServeVersions,
		History:       historyStore,
	}
	router, err := routes.Build(arch, handlers)
	if err != nil {
		_ = historyStore.Close()
		return nil, err
	}

	root := chi.NewRouter()
	root.Use(httputils.RequestID)
	root.Use(httputils.LoggingRequestResponse)
	root.Use(httputils.CrossOriginResourcePolicy)
	root.Use(httputils.Metrics)
	root.Get("/metrics", httputils.MetricsHandler().ServeHTTP)
	root.Mount("/", router)

	return &Server{Handler: root, Archive: arch, History: historyStore}, nil
}
