// Package api exposes the extraction service over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/AndriiKulakovskyi/thesaurus/internal/catalog"
	"github.com/AndriiKulakovskyi/thesaurus/internal/extract"
)

// Extractor runs normalized extraction queries. Satisfied by
// extract.Engine; narrowed to an interface so handlers are testable without
// a database.
type Extractor interface {
	Extract(ctx context.Context, q extract.Query) (*extract.Result, error)
}

// Pinger reports database liveness. Satisfied by adapter.Adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration.
type Config struct {
	Listen  string
	Catalog *catalog.Store
	Engine  Extractor
	// DB, when set, is pinged by the health endpoint.
	DB Pinger
	// Watch reloads the catalog on descriptor file changes.
	Watch  bool
	Logger *slog.Logger
}

// Server is the HTTP front of the extraction engine.
type Server struct {
	listen  string
	catalog *catalog.Store
	engine  Extractor
	db      Pinger
	watch   bool
	logger  *slog.Logger
}

// NewServer creates the HTTP server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		listen:  cfg.Listen,
		catalog: cfg.Catalog,
		engine:  cfg.Engine,
		db:      cfg.DB,
		watch:   cfg.Watch,
		logger:  logger,
	}
}

// Routes builds the HTTP routing tree.
func (s *Server) Routes() chi.Router {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/studies", s.handleListStudies)
		r.Get("/studies/{study}/tables", s.handleListTables)
		r.Get("/studies/{study}/tables/{table}/columns", s.handleListColumns)
		r.Post("/extract", s.handleExtract)
	})

	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting extraction API", "addr", s.listen)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.listen,
		Handler: s.Routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.catalog.Watch(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down extraction API...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
