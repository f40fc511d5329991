// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Queue, ObjectStore, Postgres, Kafka, Models, Worker, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Queue       QueueConfig       `yaml:"queue"`
	ObjectStore ObjectStoreConfig `yaml:"objectStore"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Kafka       KafkaConfig       `yaml:"kafka"`
	Models      ModelsConfig      `yaml:"models"`
	Worker      WorkerConfig      `yaml:"worker"`
	Generator   GeneratorConfig   `yaml:"generator"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// QueueConfig holds the notification queue settings. The queue is a Redis
// stream consumed through a consumer group: blocking reads give long-poll
// receive, XACK gives per-message deletion, and entries left pending longer
// than the visibility timeout are reclaimed for redelivery.
type QueueConfig struct {
	Addr              string        `yaml:"addr"`
	Password          string        `yaml:"password"`
	DB                int           `yaml:"db"`
	Stream            string        `yaml:"stream"`
	Group             string        `yaml:"group"`
	Consumer          string        `yaml:"consumer"`
	MaxMessages       int           `yaml:"maxMessages"`
	WaitTime          time.Duration `yaml:"waitTime"`
	VisibilityTimeout time.Duration `yaml:"visibilityTimeout"`
}

// ObjectStoreConfig holds the raw and enriched bucket names plus the Redis
// connection backing the object store.
type ObjectStoreConfig struct {
	Addr           string `yaml:"addr"`
	Password       string `yaml:"password"`
	DB             int    `yaml:"db"`
	PoolSize       int    `yaml:"poolSize"`
	RawBucket      string `yaml:"rawBucket"`
	EnrichedBucket string `yaml:"enrichedBucket"`
}

// PostgresConfig holds PostgreSQL connection parameters for the ticket
// metadata table.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	Table           string        `yaml:"table"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds the broker list and the topic for per-ticket processing
// events published for downstream analytics dashboards.
type KafkaConfig struct {
	Enabled      bool     `yaml:"enabled"`
	Brokers      []string `yaml:"brokers"`
	ResultsTopic string   `yaml:"resultsTopic"`
}

// ModelsConfig controls the ML capability layer. The threshold fields are
// behavioural constants of the pipeline; they are configurable but the
// defaults must be preserved for parity across deployments.
type ModelsConfig struct {
	CacheDir           string  `yaml:"cacheDir"`
	Version            string  `yaml:"version"`
	EmbeddingDim       int     `yaml:"embeddingDim"`
	MaxSummaryWords    int     `yaml:"maxSummaryWords"`
	MinSummaryWords    int     `yaml:"minSummaryWords"`
	ShortTicketWords   int     `yaml:"shortTicketWords"`
	TruncateWords      int     `yaml:"truncateWords"`
	SentimentMaxWords  int     `yaml:"sentimentMaxWords"`
	NeutralBandLow     float64 `yaml:"neutralBandLow"`
	NeutralBandHigh    float64 `yaml:"neutralBandHigh"`
	DefaultUrgencyConf float64 `yaml:"defaultUrgencyConf"`
}

// WorkerConfig controls the processing loop.
type WorkerConfig struct {
	ReportInterval time.Duration `yaml:"reportInterval"`
	EmbedBatchSize int           `yaml:"embedBatchSize"`
}

// GeneratorConfig controls the synthetic ticket generator. Count zero means
// generate indefinitely until interrupted.
type GeneratorConfig struct {
	Count       int           `yaml:"count"`
	Interval    time.Duration `yaml:"interval"`
	Concurrency int           `yaml:"concurrency"`
	Seed        int64         `yaml:"seed"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if cfg.Queue.Consumer == "" {
		host, err := os.Hostname()
		if err != nil || host == "" {
			host = fmt.Sprintf("worker-%d", os.Getpid())
		}
		cfg.Queue.Consumer = host
	}
	return cfg, nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Queue: QueueConfig{
			Addr:              "localhost:6379",
			DB:                0,
			Stream:            "ticket-notifications",
			Group:             "ticket-processors",
			MaxMessages:       10,
			WaitTime:          20 * time.Second,
			VisibilityTimeout: 5 * time.Minute,
		},
		ObjectStore: ObjectStoreConfig{
			Addr:           "localhost:6379",
			DB:             1,
			PoolSize:       10,
			RawBucket:      "tickets-raw",
			EnrichedBucket: "tickets-enriched",
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "ticketplatform",
			User:            "ticketplatform",
			Password:        "localdev",
			SSLMode:         "disable",
			Table:           "tickets",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Enabled:      true,
			Brokers:      []string{"localhost:9092"},
			ResultsTopic: "ticket-processing-events",
		},
		Models: ModelsConfig{
			CacheDir:           defaultCacheDir(),
			Version:            "1.0.0",
			EmbeddingDim:       384,
			MaxSummaryWords:    50,
			MinSummaryWords:    10,
			ShortTicketWords:   20,
			TruncateWords:      700,
			SentimentMaxWords:  400,
			NeutralBandLow:     0.45,
			NeutralBandHigh:    0.55,
			DefaultUrgencyConf: 0.6,
		},
		Worker: WorkerConfig{
			ReportInterval: time.Minute,
			EmbedBatchSize: 32,
		},
		Generator: GeneratorConfig{
			Count:       0,
			Interval:    2 * time.Second,
			Concurrency: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cache/models"
	}
	return home + "/.cache/models"
}

// applyEnvOverrides reads TP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TP_QUEUE_ADDR"); v != "" {
		cfg.Queue.Addr = v
	}
	if v := os.Getenv("TP_QUEUE_PASSWORD"); v != "" {
		cfg.Queue.Password = v
	}
	if v := os.Getenv("TP_QUEUE_STREAM"); v != "" {
		cfg.Queue.Stream = v
	}
	if v := os.Getenv("TP_QUEUE_GROUP"); v != "" {
		cfg.Queue.Group = v
	}
	if v := os.Getenv("TP_QUEUE_MAX_MESSAGES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Queue.MaxMessages = n
		}
	}
	if v := os.Getenv("TP_QUEUE_WAIT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Queue.WaitTime = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("TP_OBJECTSTORE_ADDR"); v != "" {
		cfg.ObjectStore.Addr = v
	}
	if v := os.Getenv("TP_OBJECTSTORE_PASSWORD"); v != "" {
		cfg.ObjectStore.Password = v
	}
	if v := os.Getenv("TP_BUCKET_RAW"); v != "" {
		cfg.ObjectStore.RawBucket = v
	}
	if v := os.Getenv("TP_BUCKET_ENRICHED"); v != "" {
		cfg.ObjectStore.EnrichedBucket = v
	}
	if v := os.Getenv("TP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("TP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("TP_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("TP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("TP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("TP_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("TP_POSTGRES_TABLE"); v != "" {
		cfg.Postgres.Table = v
	}
	if v := os.Getenv("TP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TP_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("TP_MODEL_CACHE_DIR"); v != "" {
		cfg.Models.CacheDir = v
	}
	if v := os.Getenv("TP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TP_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
