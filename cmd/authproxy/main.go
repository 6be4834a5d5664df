// Command authproxy runs the token-authenticating, role-authorizing
// reverse proxy described by this repository's configuration model.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/owings1/auth-proxy/internal/config"
	"github.com/owings1/auth-proxy/internal/gateway"
	"github.com/owings1/auth-proxy/internal/logging"
	"github.com/owings1/auth-proxy/internal/metrics"
	"github.com/owings1/auth-proxy/internal/proxy"
)

func main() {
	logger, logCloser, err := logging.New(logging.Config{
		Level:  envOr("LOG_LEVEL", "info"),
		Output: envOr("LOG_OUTPUT", "stdout"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	if logCloser != nil {
		defer logCloser.Close()
	}
	logging.SetGlobal(logger)

	settings := config.SettingsFromEnv()
	logging.Info("starting auth proxy",
		zap.String("config_dir", settings.ConfigDir),
		zap.Int("http_port", settings.HTTPPort),
		zap.Int("metrics_port", settings.MetricsPort),
	)

	reloader := config.NewReloader(settings)
	if err := reloader.Start(); err != nil {
		logging.Error("initial configuration load failed", zap.Error(err))
		os.Exit(1)
	}

	forwarder := proxy.New()
	sink := metrics.New()
	server := gateway.NewServer(settings, reloader, forwarder, sink)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	if err := server.Run(ctx); err != nil {
		logging.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}

	logging.Info("auth proxy stopped")
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}
