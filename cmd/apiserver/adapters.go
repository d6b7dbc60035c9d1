package main

import (
	"context"

	app "github.com/turtacn/MolMatch/internal/application/matching"
	"github.com/turtacn/MolMatch/internal/config"
	"github.com/turtacn/MolMatch/internal/infrastructure/database/redis"
	"github.com/turtacn/MolMatch/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/MolMatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolMatch/internal/infrastructure/storage/minio"
	"github.com/turtacn/MolMatch/internal/interfaces/http/handlers"
)

// infrastructure holds the optional backends. Interface fields stay nil when
// their section is disabled so the service sees a true nil.
type infrastructure struct {
	redis    *redis.Client
	producer *kafka.Producer

	cache     app.ResultCache
	store     app.MoleculeStore
	publisher kafka.Publisher
	checkers  []handlers.HealthChecker
}

func initInfrastructure(ctx context.Context, cfg *config.Config, logger logging.Logger) (*infrastructure, error) {
	infra := &infrastructure{}

	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis, logger)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.redis = client
		infra.cache = redis.NewRedisCache(client, logger, redis.WithNamespace("results"))
		infra.checkers = append(infra.checkers, handlers.NewChecker("redis", client.Ping))
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

	if cfg.Kafka.Enabled {
		if cfg.Kafka.AutoCreateTopics {
			if err := ensureTopics(ctx, cfg.Kafka, logger); err != nil {
				infra.Close()
				return nil, err
			}
		}
		producer, err := kafka.NewProducer(kafka.ProducerConfigFrom(cfg.Kafka), logger)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.producer = producer
		infra.publisher = producer
	}

	return infra, nil
}

func ensureTopics(ctx context.Context, cfg config.KafkaConfig, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Brokers, logger)
	if err != nil {
		return err
	}
	defer tm.Close()
	return tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg.NumPartitions, cfg.ReplicationFactor))
}

// Close releases whatever was opened, in reverse order.
func (i *infrastructure) Close() {
	if i.producer != nil {
		_ = i.producer.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
}

//Personal.AI order the ending
