package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/owings1/auth-proxy/internal/config"
	"github.com/owings1/auth-proxy/internal/logging"
	"github.com/owings1/auth-proxy/internal/metrics"
	"github.com/owings1/auth-proxy/internal/proxy"
)

// Server owns the two listeners the proxy exposes: the dispatched proxy
// traffic on one port, and /ready plus Prometheus exposition on another.
type Server struct {
	proxySrv   *http.Server
	metricsSrv *http.Server
	reloader   *config.Reloader
}

// NewServer builds both HTTP servers from Settings, wiring the
// dispatcher and metrics handler but not yet listening.
func NewServer(settings config.Settings, reloader *config.Reloader, forwarder *proxy.Forwarder, sink *metrics.Sink) *Server {
	dispatcher := NewDispatcher(reloader, forwarder, sink, settings.AuthHeaders)

	return &Server{
		reloader: reloader,
		proxySrv: &http.Server{
			Addr:    fmt.Sprintf(":%d", settings.HTTPPort),
			Handler: dispatcher,
		},
		metricsSrv: &http.Server{
			Addr:    fmt.Sprintf(":%d", settings.MetricsPort),
			Handler: sink.Handler(),
		},
	}
}

// Run starts both servers and blocks until ctx is canceled or either
// server fails. It does not start the reloader, which must already be
// running; on cancellation both servers are shut down gracefully and
// the reloader's poll loop is stopped before Run returns.
func (s *Server) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Info("starting proxy listener", zap.String("addr", s.proxySrv.Addr))
		if err := s.proxySrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("proxy server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logging.Info("starting metrics listener", zap.String("addr", s.metricsSrv.Addr))
		if err := s.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Info("shutting down")
		return s.Shutdown(30 * time.Second)
	})

	return g.Wait()
}

// Shutdown gracefully stops both servers and the reloader's poll loop.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.reloader.Stop()

	var firstErr error
	if err := s.proxySrv.Shutdown(ctx); err != nil {
		firstErr = err
	}
	if err := s.metricsSrv.Shutdown(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
