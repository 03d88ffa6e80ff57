package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"nplusone/internal/config"
	"nplusone/internal/resolver"
	"nplusone/internal/rpc"
	"nplusone/internal/store"
	"nplusone/internal/ws"
)

// Server represents the main server
type Server struct {
	cfg        *config.Config
	store      *store.Store
	executor   *resolver.Executor
	wsHandler  *ws.Handler
	httpServer *http.Server
	listener   net.Listener
	logger     zerolog.Logger
}

// New creates a new Server serving st
func New(cfg *config.Config, st *store.Store, logger zerolog.Logger) *Server {
	executor := resolver.NewExecutor(st, cfg.Loader, logger)

	logger.Info().
		Int("maxBatchSize", cfg.Loader.GetMaxBatchSize()).
		Bool("cacheEnabled", cfg.Loader.IsCacheEnabled()).
		Int("cacheSize", cfg.Loader.CacheSize).
		Int("batchTimeout", cfg.Loader.BatchTimeout).
		Msg("loader settings")

	return &Server{
		cfg:       cfg,
		store:     st,
		executor:  executor,
		wsHandler: ws.NewHandler(executor, cfg, logger),
		logger:    logger,
	}
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CorsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(corsMiddleware.Handler)

	rpcHandler := rpc.NewHandler(s.executor, s.cfg, s.logger)
	router.Handle("/", rpcHandler)
	router.Handle("/rpc", rpcHandler)
	router.Handle("/ws", s.wsHandler)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return router
}

// Start starts the server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		s.logger.Info().
			Str("addr", listener.Addr().String()).
			Msg("starting server")
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("server error")
		}
	}()

	s.logger.Info().
		Str("rpc", fmt.Sprintf("http://%s/rpc", listener.Addr())).
		Str("ws", fmt.Sprintf("ws://%s/ws", listener.Addr())).
		Strs("methods", resolver.Methods()).
		Msg("endpoint available")

	return nil
}

// Addr returns the address the server listens on, or nil before Start
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully stops the server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info().Msg("shutting down server...")

	// Close WebSocket sessions, they are hijacked and not tracked by Shutdown
	s.wsHandler.CloseAll()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	s.logger.Info().Msg("server stopped")
	return nil
}
