package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amaumene/traktcache/internal/api/handlers"
	"github.com/amaumene/traktcache/internal/api/middleware"
	"github.com/amaumene/traktcache/internal/config"
	"github.com/amaumene/traktcache/internal/controllers"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Controllers groups the controllers served over HTTP
type Controllers struct {
	Query   *controllers.QueryController
	Refresh *controllers.RefreshController
	Flags   *controllers.FlagController
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger *logrus.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, ctrls Controllers, gatherer prometheus.Gatherer, logger *logrus.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         ":" + cfg.ServerPort,
			Handler:      NewRouter(ctrls, gatherer, logger),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// NewRouter configures all HTTP routes
func NewRouter(ctrls Controllers, gatherer prometheus.Gatherer, logger *logrus.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Logging(logger))

	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(logger))
	r.Method(http.MethodGet, "/status", handlers.NewStatusHandler(ctrls.Flags, logger))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	movies := handlers.NewMoviesHandler(ctrls.Query, ctrls.Refresh, ctrls.Flags, logger)
	r.Route("/movies", func(r chi.Router) {
		r.Get("/", movies.List)
		r.Get("/ids", movies.IDs((*controllers.FlagController).AllMovieIDs))
		r.Get("/watched", movies.IDs((*controllers.FlagController).WatchedMovieIDs))
		r.Get("/collected", movies.IDs((*controllers.FlagController).CollectedMovieIDs))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", movies.Get)
			r.Put("/watched", movies.SetFlag((*controllers.FlagController).MarkWatched))
			r.Delete("/watched", movies.SetFlag((*controllers.FlagController).MarkUnwatched))
			r.Put("/collected", movies.SetFlag((*controllers.FlagController).MarkCollected))
			r.Delete("/collected", movies.SetFlag((*controllers.FlagController).MarkUncollected))
		})
	})

	return r
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("port", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
