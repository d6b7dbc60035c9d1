// apiserver serves the MolMatch HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	app "github.com/turtacn/MolMatch/internal/application/matching"
	"github.com/turtacn/MolMatch/internal/config"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/MolMatch/internal/interfaces/http"
	"github.com/turtacn/MolMatch/internal/interfaces/http/handlers"
	"github.com/turtacn/MolMatch/internal/interfaces/http/middleware"
)

// Injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: MOLMATCH_* environment only)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *httpPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort int) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if httpPort > 0 {
		cfg.Server.Port = httpPort
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, OutputPaths: cfg.Log.OutputPaths})
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting MolMatch API server",
		logging.String("version", version),
		logging.String("addr", cfg.Server.Addr()),
		logging.Bool("redis", cfg.Redis.Enabled),
		logging.Bool("kafka", cfg.Kafka.Enabled),
		logging.Bool("minio", cfg.MinIO.Enabled))

	if configPath != "" {
		watchLogLevel(configPath, logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := initInfrastructure(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("infrastructure initialization failed: %w", err)
	}
	defer infra.Close()

	var (
		collector prometheus.MetricsCollector
		metrics   *prometheus.AppMetrics
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return err
		}
		metrics = prometheus.NewAppMetrics(collector)
	}

	svc, err := app.NewService(app.Deps{
		Config:    cfg.Matching,
		Cache:     infra.cache,
		Store:     infra.store,
		Publisher: infra.publisher,
		Metrics:   metrics,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	var limiter middleware.RateLimiter
	if cfg.Server.RateLimitRPS > 0 {
		tb := middleware.NewTokenBucketLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst, time.Minute)
		defer tb.Stop()
		limiter = tb
	}

	gin.SetMode(cfg.Server.Mode)
	health := handlers.NewHealthHandler(version, infra.checkers...)
	router := httpserver.NewRouter(httpserver.RouterConfig{
		MatchHandler:     handlers.NewMatchHandler(svc, svc, cfg.Server.MaxBodySize),
		HealthHandler:    health,
		Logger:           logger,
		Metrics:          metrics,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
		CORSOrigins:      cfg.Server.CORSOrigins,
		RateLimiter:      limiter,
	})
	srv := httpserver.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")
	health.SetDraining(true)
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
		return err
	}
	return nil
}

// watchLogLevel applies log level changes from the config file without a
// restart. Other settings need one.
func watchLogLevel(configPath string, logger logging.Logger) {
	err := config.Watch(configPath, func(c *config.Config) {
		if err := logging.SetLevel(logger, c.Log.Level); err != nil {
			logger.Warn("log level not applied", logging.Err(err))
			return
		}
		logger.Info("configuration reloaded", logging.String("log_level", c.Log.Level))
	}, func(err error) {
		logger.Warn("configuration reload rejected", logging.Err(err))
	})
	if err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}
}

//Personal.AI order the ending
