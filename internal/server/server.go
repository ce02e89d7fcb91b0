package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gmllt/kban/internal/board"
	"github.com/gmllt/kban/internal/config"
)

// HealthChecker reports whether the storage backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Server struct {
	store  *board.Store
	health HealthChecker
	drags  *dragRegistry
	cfg    config.ServerConfig
	logger *slog.Logger
}

func New(store *board.Store, health HealthChecker, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:  store,
		health: health,
		drags:  newDragRegistry(store),
		cfg:    cfg,
		logger: logger,
	}
}

// HTTPServer wraps the routes in an *http.Server configured from cfg.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}
