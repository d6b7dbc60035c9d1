package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for every setting.
const envPrefix = "MOLMATCH"

// newViper returns a Viper set up for YAML files and MOLMATCH_* overrides,
// where nested keys such as "redis.addr" resolve to MOLMATCH_REDIS_ADDR.
// Every key is registered with its default so that AutomaticEnv can see keys
// absent from the file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerDefaults(v)
	return v
}

func registerDefaults(v *viper.Viper) {
	d := Default()
	for key, val := range map[string]interface{}{
		"server.host":             d.Server.Host,
		"server.port":             d.Server.Port,
		"server.mode":             d.Server.Mode,
		"server.read_timeout":     d.Server.ReadTimeout,
		"server.write_timeout":    d.Server.WriteTimeout,
		"server.shutdown_timeout": d.Server.ShutdownTimeout,
		"server.max_body_size":    d.Server.MaxBodySize,
		"server.cors_origins":     []string{},
		"server.rate_limit_rps":   0.0,
		"server.rate_limit_burst": 0,

		"log.level":        d.Log.Level,
		"log.format":       d.Log.Format,
		"log.output_paths": []string{"stdout"},

		"matching.mode":             d.Matching.Mode,
		"matching.match_bond_type":  d.Matching.MatchBondType,
		"matching.bond_equivalence": d.Matching.BondEquivalence,
		"matching.match_stereo":     false,
		"matching.time_limit":       d.Matching.TimeLimit,
		"matching.result_limit":     0,
		"matching.sort_order":       d.Matching.SortOrder,
		"matching.parallelism":      0,
		"matching.mcs_tolerance":    0,
		"matching.unique_targets":   false,
		"matching.max_atoms":        0,
		"matching.max_time_limit":   d.Matching.MaxTimeLimit,
		"matching.cache_ttl":        d.Matching.CacheTTL,

		"redis.enabled":        false,
		"redis.addr":           d.Redis.Addr,
		"redis.password":       "",
		"redis.db":             0,
		"redis.pool_size":      d.Redis.PoolSize,
		"redis.min_idle_conns": 0,
		"redis.dial_timeout":   0,
		"redis.read_timeout":   0,
		"redis.write_timeout":  0,
		"redis.key_prefix":     d.Redis.KeyPrefix,
		"redis.lock_ttl":       d.Redis.LockTTL,

		"kafka.enabled":            false,
		"kafka.brokers":            d.Kafka.Brokers,
		"kafka.group_id":           d.Kafka.GroupID,
		"kafka.client_id":          d.Kafka.ClientID,
		"kafka.max_retries":        d.Kafka.MaxRetries,
		"kafka.retry_backoff":      d.Kafka.RetryBackoff,
		"kafka.batch_size":         d.Kafka.BatchSize,
		"kafka.batch_timeout":      0,
		"kafka.auto_create_topics": false,
		"kafka.num_partitions":     d.Kafka.NumPartitions,
		"kafka.replication_factor": d.Kafka.ReplicationFactor,

		"minio.enabled":    false,
		"minio.endpoint":   d.MinIO.Endpoint,
		"minio.access_key": "",
		"minio.secret_key": "",
		"minio.bucket":     d.MinIO.Bucket,
		"minio.region":     "",
		"minio.use_ssl":    false,

		"metrics.enabled":   d.Metrics.Enabled,
		"metrics.path":      d.Metrics.Path,
		"metrics.namespace": d.Metrics.Namespace,

		"worker.concurrency":      d.Worker.Concurrency,
		"worker.health_port":      d.Worker.HealthPort,
		"worker.shutdown_timeout": d.Worker.ShutdownTimeout,
	} {
		v.SetDefault(key, val)
	}
}

// Load reads the YAML file at configPath, applies MOLMATCH_* overrides and
// defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}
	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from defaults and MOLMATCH_* variables only.
//
//	MOLMATCH_<SECTION>_<FIELD>   e.g.  MOLMATCH_REDIS_ADDR, MOLMATCH_MATCHING_TIME_LIMIT
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

// LoadOrDefault loads configPath when it is non-empty and falls back to
// LoadFromEnv otherwise.
func LoadOrDefault(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	return Load(configPath)
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}
	return cfg, nil
}

// Watch re-reads configPath whenever it is written and hands the new Config
// to onChange. A change that fails to parse or validate goes to onError and
// onChange is not called; onError may be nil. Callers decide which settings
// are safe to apply at runtime (the log level, the matching defaults).
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad is Load that panics on error, for main functions only.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
