// Package app wires the stores, orchestrators and HTTP surfaces into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jbweber/homelab/shelf/internal/api"
	"github.com/jbweber/homelab/shelf/internal/config"
	"github.com/jbweber/homelab/shelf/internal/crud"
	"github.com/jbweber/homelab/shelf/internal/datastore"
	"github.com/jbweber/homelab/shelf/internal/domain"
	"github.com/jbweber/homelab/shelf/internal/logging"
	"github.com/jbweber/homelab/shelf/internal/repository"
	"github.com/jbweber/homelab/shelf/internal/web"
)

// App is the shelf HTTP service.
type App struct {
	cfg     *config.Config
	ds      *datastore.Datastore
	logger  zerolog.Logger
	handler http.Handler
}

// New builds the service over an open, migrated datastore.
func New(cfg *config.Config, ds *datastore.Datastore, logger zerolog.Logger) (*App, error) {
	views, err := web.NewEngine()
	if err != nil {
		return nil, err
	}

	categories := crud.NewOrchestrator[domain.Category]("categories", repository.NewCategoryRepository(ds), logger)
	products := crud.NewOrchestrator[domain.Product]("products", repository.NewProductRepository(ds), logger,
		crud.WithRule(crud.CategoryExists(categories)))

	a := &App{cfg: cfg, ds: ds, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger)...)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, web.Prefix, http.StatusFound)
	})
	r.Get("/healthz", a.healthHandler)

	api.NewAPI(products, categories, api.WithRateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window)).RegisterRoutes(r)
	web.NewProducts(products, categories, views).RegisterRoutes(r)

	a.handler = r
	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// healthHandler reports whether the database is reachable.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := a.ds.DB.PingContext(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("health check failed")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("database unavailable\n"))
		return
	}
	_, _ = w.Write([]byte("ok\n"))
}

// Run listens on the configured port and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.cfg.Server.Addr(), err)
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down within the configured timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.Timeout.Read,
		WriteTimeout: a.cfg.Server.Timeout.Write,
		IdleTimeout:  a.cfg.Server.Timeout.Idle,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info().Msg("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.Timeout.Shutdown)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
