package config

import (
	"fmt"
	"log"
	"time"

	"content-service/model"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is read once at startup and not mutated afterwards.
type Config struct {
	SchemaName string `envconfig:"SCHEMA" default:"article"`

	MongoURI   string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	Database   string `envconfig:"MONGO_DATABASE"`
	Collection string `envconfig:"MONGO_COLLECTION"`

	NATSUrl             string `envconfig:"NATS_URL" default:"nats://localhost:4222"`
	NATSConnectAttempts uint   `envconfig:"NATS_CONNECT_ATTEMPTS" default:"5"`

	SourceURL string `envconfig:"SOURCE_URL"`
	UserAgent string `envconfig:"USER_AGENT" default:"content-service/1.0 (contact@justscroll.org)"`

	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"60m"`
	BatchSize       int           `envconfig:"BATCH_SIZE" default:"200"`
	MaxBatchSize    int           `envconfig:"MAX_BATCH_SIZE" default:"1000"`
	RateLimitDelay  time.Duration `envconfig:"RATE_LIMIT_DELAY"`
	MaxRetries      uint          `envconfig:"MAX_RETRIES" default:"3"`
	RetryDelay      time.Duration `envconfig:"RETRY_DELAY" default:"1s"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"30s"`
	MaxPageSize     int           `envconfig:"MAX_PAGE_SIZE" default:"100"`

	Port int `envconfig:"PORT" default:"8080"`

	// Resolved from SchemaName.
	Schema model.Schema `ignored:"true"`
}

// Load reads configuration from the environment, with an optional .env file
// for local runs. Schema-specific values (source URL, database, collection,
// rate limit) default from the selected schema when unset.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	schema, err := model.SchemaByName(cfg.SchemaName)
	if err != nil {
		return nil, err
	}
	cfg.Schema = schema

	if cfg.SourceURL == "" {
		cfg.SourceURL = schema.SourceURL
	}
	if cfg.Database == "" {
		cfg.Database = schema.Database
	}
	if cfg.Collection == "" {
		cfg.Collection = schema.Collection
	}
	if cfg.RateLimitDelay <= 0 {
		cfg.RateLimitDelay = schema.RateLimitDelay
	}
	if cfg.BatchSize < 1 || cfg.BatchSize > cfg.MaxBatchSize {
		return nil, fmt.Errorf("BATCH_SIZE %d out of range [1,%d]", cfg.BatchSize, cfg.MaxBatchSize)
	}

	log.Printf("Config loaded - schema=%s, source=%s, interval=%v, batch=%d, rateLimit=%v",
		schema.Name, cfg.SourceURL, cfg.RefreshInterval, cfg.BatchSize, cfg.RateLimitDelay)

	return &cfg, nil
}

// ServiceName is the deployment's service identity, e.g. "articles-service".
func (c *Config) ServiceName() string {
	return c.Schema.Plural + "-service"
}

// RequestSubject is the event-transport subject refresh requests arrive on.
func (c *Config) RequestSubject() string {
	return c.Schema.Plural + ".refresh.request"
}

// ResultSubject is the event-transport subject refresh results go out on.
func (c *Config) ResultSubject() string {
	return c.Schema.Plural + ".refresh.result"
}
