// Package server provides the HTTP API for wordspace.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/wordspace/internal/config"
	"github.com/hyperjump/wordspace/internal/search"
	"github.com/hyperjump/wordspace/internal/vocab"
)

// Server is the HTTP server for the wordspace API.
type Server struct {
	engine  *search.Engine
	vocab   *vocab.Vocabulary
	config  *config.Config
	limiter *rate.Limiter
	logger  *zap.Logger
	server  *http.Server
}

// NewServer creates a server with the given dependencies. vocabulary may be
// nil, in which case suggestions are empty.
func NewServer(
	engine *search.Engine,
	vocabulary *vocab.Vocabulary,
	cfg *config.Config,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		vocab:  vocabulary,
		config: cfg,
		logger: logger,
	}
	if cfg.Server.RateLimit > 0 {
		burst := cfg.Server.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.Server.RateLimit), burst)
	}
	return s
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/reload", s.handleReload)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Get("/words/{word}", s.handleGetWord)
			r.Get("/distance", s.handleDistance)
			r.Get("/suggest", s.handleSuggest)
			r.Post("/neighbors", s.handleNeighbors)
			r.Post("/within", s.handleWithin)
			r.Post("/like", s.handleLike)
			r.Post("/unlike", s.handleUnlike)
			r.Post("/query", s.handleQuery)
			r.Post("/cluster", s.handleCluster)
			r.Post("/graph", s.handleGraph)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
