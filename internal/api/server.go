// Package api serves pool operations over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"poolEngine/internal/pool"
)

// Server exposes a dispatcher over HTTP.
type Server struct {
	dispatcher *pool.Dispatcher
	gatherer   prometheus.Gatherer
	logger     *zap.Logger
	router     *mux.Router
}

// NewServer builds the router. gatherer may be nil to omit /metrics.
func NewServer(d *pool.Dispatcher, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		dispatcher: d,
		gatherer:   gatherer,
		logger:     logger,
		router:     mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.HandleFunc("/pools", s.handleInitialize).Methods(http.MethodPost)
	r.HandleFunc("/pools", s.handleListPools).Methods(http.MethodGet)
	r.HandleFunc("/pools/{pool}", s.handleGetPool).Methods(http.MethodGet)
	r.HandleFunc("/pools/{pool}/deposit", s.handleDeposit).Methods(http.MethodPost)
	r.HandleFunc("/pools/{pool}/withdraw", s.handleWithdraw).Methods(http.MethodPost)
	r.HandleFunc("/pools/{pool}/swap", s.handleSwap).Methods(http.MethodPost)
	r.HandleFunc("/pools/{pool}/quote", s.handleQuote).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
}

// Handler returns the router wrapped with panic recovery and CORS.
func (s *Server) Handler() http.Handler {
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(s.logger)),
		handlers.PrintRecoveryStack(true),
	)
	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return recovery(cors(s.router))
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped")
	return nil
}
