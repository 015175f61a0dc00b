// Package web exposes the connector's HTTP surface: the OAuth authorize and
// callback endpoints, credential retrieval, and contact listing.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Server wraps the HTTP server hosting the connector API.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

// Config holds the HTTP server settings.
type Config struct {
	Addr   string
	Logger *zap.Logger
}

// NewServer builds the router and registers all handlers.
func NewServer(cfg Config, integration *IntegrationHandler) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := mux.NewRouter()
	router.Use(requestIDMiddleware, requestLogMiddleware(logger))

	router.HandleFunc("/health", handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	integration.RegisterRoutes(api)

	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("server shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("starting http server", zap.String("addr", s.srv.Addr))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
