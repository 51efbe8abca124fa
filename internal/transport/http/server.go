package httptransport

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the gin engine in an http.Server with graceful shutdown.
type Server struct {
	addr    string
	logger  *logging.Logger
	httpSrv *http.Server
}

// NewServer builds the REST server for the given engine.
func NewServer(addr string, router *Router, logger *logging.Logger) *Server {
	return &Server{
		addr:   addr,
		logger: logger,
		httpSrv: &http.Server{
			Addr:    addr,
			Handler: router.Engine,
		},
	}
}

// Start serves until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx != nil {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = s.httpSrv.Shutdown(shutdownCtx)
		}()
	}

	if s.logger != nil {
		s.logger.InfoTag("HTTP", "listening on %s", s.addr)
	}

	err := s.httpSrv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
