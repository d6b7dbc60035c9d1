package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultServerMode      = "release"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodySize     = 8 << 20

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMatchMode        = "EXACT"
	DefaultBondEquivalence  = "strict"
	DefaultSortOrder        = "DESCENDING"
	DefaultMatchTimeLimit   = 10 * time.Second
	DefaultMaxTimeLimit     = 5 * time.Minute
	DefaultMatchCacheTTL    = time.Hour
	DefaultMatchBondType    = true
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "molmatch"

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 10
	DefaultRedisKeyPrefix = "molmatch:"
	DefaultRedisLockTTL   = 2 * time.Minute

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaGroupID      = "molmatch-workers"
	DefaultKafkaClientID     = "molmatch"
	DefaultKafkaMaxRetries   = 3
	DefaultKafkaRetryBackoff = time.Second
	DefaultKafkaBatchSize    = 100

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "molecules"

	DefaultWorkerConcurrency = 4
	DefaultWorkerHealthPort  = 8081
)

// ApplyDefaults fills every zero-value field in cfg with its default. Values
// already set are kept. Booleans whose default is true cannot be told apart
// from an explicit false here; the loader registers those with viper instead.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.RateLimitRPS > 0 && cfg.Server.RateLimitBurst == 0 {
		cfg.Server.RateLimitBurst = int(cfg.Server.RateLimitRPS*2) + 1
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── Matching ──────────────────────────────────────────────────────────────
	if cfg.Matching.Mode == "" {
		cfg.Matching.Mode = DefaultMatchMode
	}
	if cfg.Matching.BondEquivalence == "" {
		cfg.Matching.BondEquivalence = DefaultBondEquivalence
	}
	if cfg.Matching.SortOrder == "" {
		cfg.Matching.SortOrder = DefaultSortOrder
	}
	if cfg.Matching.TimeLimit == 0 {
		cfg.Matching.TimeLimit = DefaultMatchTimeLimit
	}
	if cfg.Matching.MaxTimeLimit == 0 {
		cfg.Matching.MaxTimeLimit = DefaultMaxTimeLimit
	}
	if cfg.Matching.CacheTTL == 0 {
		cfg.Matching.CacheTTL = DefaultMatchCacheTTL
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.LockTTL == 0 {
		cfg.Redis.LockTTL = DefaultRedisLockTTL
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.ClientID == "" {
		cfg.Kafka.ClientID = DefaultKafkaClientID
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = DefaultKafkaMaxRetries
	}
	if cfg.Kafka.RetryBackoff == 0 {
		cfg.Kafka.RetryBackoff = DefaultKafkaRetryBackoff
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = DefaultKafkaBatchSize
	}
	if cfg.Kafka.NumPartitions == 0 {
		cfg.Kafka.NumPartitions = 1
	}
	if cfg.Kafka.ReplicationFactor == 0 {
		cfg.Kafka.ReplicationFactor = 1
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealthPort
	}
	if cfg.Worker.ShutdownTimeout == 0 {
		cfg.Worker.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Default returns a fully defaulted, valid configuration. It is what the CLI
// uses when no config file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Matching.MatchBondType = DefaultMatchBondType
	cfg.Metrics.Enabled = DefaultMetricsEnabled
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
