// worker consumes batch match jobs from Kafka, runs them and publishes the
// results. It exposes probes and metrics on the health port.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	app "github.com/turtacn/MolMatch/internal/application/matching"
	"github.com/turtacn/MolMatch/internal/config"
	"github.com/turtacn/MolMatch/internal/infrastructure/database/redis"
	"github.com/turtacn/MolMatch/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/MolMatch/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/MolMatch/internal/interfaces/http"
	"github.com/turtacn/MolMatch/internal/interfaces/http/handlers"
)

// Injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: MOLMATCH_* environment only)")
	concurrency := flag.Int("concurrency", 0, "number of consumers in the group (overrides config)")
	flag.Parse()

	if err := run(*configPath, *concurrency); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

type workerInfrastructure struct {
	redis    *redis.Client
	producer *kafka.Producer

	cache    app.ResultCache
	store    app.MoleculeStore
	locker   redis.Locker
	checkers []handlers.HealthChecker
}

func initWorkerInfrastructure(ctx context.Context, cfg *config.Config, logger logging.Logger) (*workerInfrastructure, error) {
	infra := &workerInfrastructure{}

	producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), logger)
	if err != nil {
		return nil, err
	}
	infra.producer = producer

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.redis = client
		infra.cache = redis.NewRedisCache(client, logger, redis.WithNamespace("results"))
		infra.locker = redis.NewLocker(client, logger)
		infra.checkers = append(infra.checkers, handlers.NewChecker("redis", client.Ping))
	} else {
		logger.Warn("redis disabled: redelivered jobs may run twice")
	}

	if cfg.MinIO.Enabled {
		client, err := minio.NewClient(ctx, cfg.MinIO, logger)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.store = minio.NewMoleculeRepository(client, logger)
		infra.checkers = append(infra.checkers, handlers.NewChecker("minio", client.HealthCheck))
	}
	return infra, nil
}

func (i *workerInfrastructure) Close() {
	if i.producer != nil {
		_ = i.producer.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
}

func run(configPath string, concurrency int) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Worker.Concurrency = concurrency
	}
	if !cfg.Kafka.Enabled {
		return fmt.Errorf("kafka.enabled must be true for the worker")
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, OutputPaths: cfg.Log.OutputPaths})
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting MolMatch worker",
		logging.String("version", version),
		logging.Int("consumers", cfg.Worker.Concurrency),
		logging.String("topic", kafka.TopicJobsRequested))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Kafka.AutoCreateTopics {
		if err := ensureTopics(ctx, cfg.Kafka, logger); err != nil {
			return fmt.Errorf("topic creation failed: %w", err)
		}
	}

	infra, err := initWorkerInfrastructure(ctx, cfg, logger)
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
			Subsystem:            "worker",
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger)
		if err != nil {
			return err
		}
		metrics = prometheus.NewAppMetrics(collector)
	}

	svc, err := app.NewService(app.Deps{
		Config:  cfg.Matching,
		Cache:   infra.cache,
		Store:   infra.store,
		Metrics: metrics,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	processor := app.NewJobProcessor(svc, infra.locker, cfg.Redis.LockTTL, infra.producer, logger)

	// Each consumer owns a reader in the shared group, so the partitions of
	// the request topic are spread over them.
	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	defer func() { closeConsumers(consumers, cfg.Worker.ShutdownTimeout, logger) }()
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		c, err := kafka.NewConsumer(
			kafka.ConsumerConfigFrom(cfg.Kafka, kafka.TopicJobsDeadLetter, kafka.TopicJobsRequested),
			infra.producer,
			logger.With(logging.Int("consumer", i)),
		)
		if err != nil {
			return err
		}
		consumers = append(consumers, c)
		c.Subscribe(kafka.TopicJobsRequested, processor.Handle)
		if err := c.Start(ctx); err != nil {
			return err
		}
	}

	healthCfg := cfg.Server
	healthCfg.Port = cfg.Worker.HealthPort
	gin.SetMode(cfg.Server.Mode)
	probes := handlers.NewHealthHandler(version, infra.checkers...)
	health := httpserver.NewServer(healthCfg, httpserver.NewRouter(httpserver.RouterConfig{
		HealthHandler:    probes,
		Logger:           logger,
		Metrics:          metrics,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
	}), logger)

	errCh := make(chan error, 1)
	go func() { errCh <- health.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("health server failed", logging.Err(err))
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received, draining consumers")
	probes.SetDraining(true)
	if err := health.Shutdown(context.Background()); err != nil {
		logger.Warn("health server shutdown error", logging.Err(err))
	}
	return nil
}

// closeConsumers waits for in-flight jobs, giving up after timeout.
func closeConsumers(consumers []*kafka.Consumer, timeout time.Duration, logger logging.Logger) {
	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		for _, c := range consumers {
			wg.Add(1)
			go func(c *kafka.Consumer) {
				defer wg.Done()
				if err := c.Close(); err != nil {
					logger.Warn("consumer close error", logging.Err(err))
				}
			}(c)
		}
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("consumers stopped")
	case <-time.After(timeout):
		logger.Warn("consumers did not stop in time", logging.Duration("timeout", timeout))
	}
}

func ensureTopics(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg.NumPartitions, cfg.ReplicationFactor))
}

//Personal.AI order the ending
