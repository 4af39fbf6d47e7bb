package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/canslim/pkg/config"
	"github.com/wonny/canslim/pkg/logger"
)

// Server serves the screening API until its context ends
// ⭐ SSOT: API 서버 설정은 이 파일에서만
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	drain      time.Duration
}

// New binds router to :PORT
// WriteTimeout must outlast a full universe screen served in one request
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort("", cfg.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Minute,
			IdleTimeout:       60 * time.Second,
		},
		logger: log.WithFields(map[string]interface{}{"component": "api", "env": cfg.Env}),
		drain:  30 * time.Second,
	}
}

// Addr is the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run listens until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.httpServer.Addr).Info("API server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	case <-ctx.Done():
	}

	s.logger.Info("Draining API server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.drain)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown API server: %w", err)
	}
	s.logger.Info("API server stopped")
	return nil
}
