// Package config defines the MolMatch configuration tree. Loading lives in
// loader.go and defaults in defaults.go; this file holds the data types and
// their validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/MolMatch/internal/domain/matching"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sections
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	// CORSOrigins lists the browser origins allowed to call the API. "*"
	// allows any; empty disables CORS headers.
	CORSOrigins []string `mapstructure:"cors_origins"`
	// RateLimitRPS is the sustained per-client request rate. 0 disables it.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MatchingConfig holds the default match options and service limits.
type MatchingConfig struct {
	Mode            string        `mapstructure:"mode"`
	MatchBondType   bool          `mapstructure:"match_bond_type"`
	BondEquivalence string        `mapstructure:"bond_equivalence"`
	MatchStereo     bool          `mapstructure:"match_stereo"`
	TimeLimit       time.Duration `mapstructure:"time_limit"`
	ResultLimit     int           `mapstructure:"result_limit"`
	SortOrder       string        `mapstructure:"sort_order"`
	Parallelism     int           `mapstructure:"parallelism"`
	MCSTolerance    int           `mapstructure:"mcs_tolerance"`
	UniqueTargets   bool          `mapstructure:"unique_targets"`

	// MaxAtoms rejects larger inputs before matching. 0 disables the check.
	MaxAtoms int `mapstructure:"max_atoms"`
	// MaxTimeLimit caps the per-request time limit.
	MaxTimeLimit time.Duration `mapstructure:"max_time_limit"`
	// CacheTTL is how long completed results stay cached.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// Options converts the section to matcher options.
func (c MatchingConfig) Options() (matching.Options, error) {
	opts := matching.DefaultOptions()
	var err error
	if c.Mode != "" {
		if opts.Mode, err = matching.ParseMode(c.Mode); err != nil {
			return opts, err
		}
	}
	if c.BondEquivalence != "" {
		if opts.BondEquivalence, err = matching.ParseBondEquivalence(c.BondEquivalence); err != nil {
			return opts, err
		}
	}
	if c.SortOrder != "" {
		if opts.SortOrder, err = matching.ParseSortOrder(c.SortOrder); err != nil {
			return opts, err
		}
	}
	opts.MatchBondType = c.MatchBondType
	opts.MatchStereo = c.MatchStereo
	if c.TimeLimit > 0 {
		opts.TimeLimit = c.TimeLimit
	}
	opts.ResultLimit = c.ResultLimit
	opts.Parallelism = c.Parallelism
	opts.MCSTolerance = c.MCSTolerance
	opts.UniqueTargets = c.UniqueTargets
	return opts, opts.Validate()
}

// RedisConfig holds the result-cache and job-lock connection parameters.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
}

// KafkaConfig holds batch-job messaging parameters.
type KafkaConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	Brokers           []string      `mapstructure:"brokers"`
	GroupID           string        `mapstructure:"group_id"`
	ClientID          string        `mapstructure:"client_id"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBackoff      time.Duration `mapstructure:"retry_backoff"`
	BatchSize         int           `mapstructure:"batch_size"`
	BatchTimeout      time.Duration `mapstructure:"batch_timeout"`
	AutoCreateTopics  bool          `mapstructure:"auto_create_topics"`
	NumPartitions     int           `mapstructure:"num_partitions"`
	ReplicationFactor int           `mapstructure:"replication_factor"`
}

// MinIOConfig holds molecule object-store parameters.
type MinIOConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// WorkerConfig holds batch-worker parameters.
type WorkerConfig struct {
	Concurrency     int           `mapstructure:"concurrency"`
	HealthPort      int           `mapstructure:"health_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration tree shared by every binary.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Matching MatchingConfig `mapstructure:"matching"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Worker   WorkerConfig   `mapstructure:"worker"`
}

// Validate returns the first semantic error in c. Sections that are switched
// off are not checked.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}

	if c.Server.RateLimitRPS < 0 {
		return fmt.Errorf("config: server.rate_limit_rps must be >= 0, got %g", c.Server.RateLimitRPS)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	if _, err := c.Matching.Options(); err != nil {
		return fmt.Errorf("config: matching: %w", err)
	}
	if c.Matching.MaxAtoms < 0 {
		return fmt.Errorf("config: matching.max_atoms must be >= 0, got %d", c.Matching.MaxAtoms)
	}
	if c.Matching.MaxTimeLimit > 0 && c.Matching.TimeLimit > c.Matching.MaxTimeLimit {
		return fmt.Errorf("config: matching.time_limit %s exceeds matching.max_time_limit %s",
			c.Matching.TimeLimit, c.Matching.MaxTimeLimit)
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.GroupID == "" {
			return fmt.Errorf("config: kafka.group_id is required")
		}
	}

	if c.MinIO.Enabled {
		if c.MinIO.Endpoint == "" {
			return fmt.Errorf("config: minio.endpoint is required")
		}
		if c.MinIO.Bucket == "" {
			return fmt.Errorf("config: minio.bucket is required")
		}
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}
	return nil
}

//Personal.AI order the ending
