// Package config loads process configuration from CERTGEN_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "certgen"

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// RedisConfig configures the archive cache connection. An empty URL keeps
// archives in process memory.
type RedisConfig struct {
	URL          string        `envconfig:"URL"`
	PoolSize     int           `split_words:"true" default:"10"`
	MinIdleConns int           `split_words:"true" default:"2"`
	DialTimeout  time.Duration `split_words:"true" default:"5s"`
	ReadTimeout  time.Duration `split_words:"true" default:"3s"`
	WriteTimeout time.Duration `split_words:"true" default:"3s"`
}

// KafkaConfig configures the audit topic. No brokers keeps audit events in
// process memory.
type KafkaConfig struct {
	Brokers []string `envconfig:"BROKERS"`
	Topic   string   `envconfig:"TOPIC" default:"certgen.audit"`
}

// Config is the full set of settings shared by the server and the CLI.
type Config struct {
	Addr            string        `envconfig:"ADDR" default:":8080"`
	StoreDriver     string        `split_words:"true" default:"memory"`
	DatabaseURL     string        `split_words:"true"`
	SQLitePath      string        `envconfig:"SQLITE_PATH" default:"certgen.db"`
	Redis           RedisConfig   `envconfig:"REDIS"`
	Kafka           KafkaConfig   `envconfig:"KAFKA"`
	AuditBuffer     int           `split_words:"true" default:"256"`
	AuditRetain     int           `split_words:"true" default:"10000"`
	JWTSigningKey   string        `envconfig:"JWT_SIGNING_KEY" default:"dev-secret-key-change-in-production"`
	JWTIssuer       string        `envconfig:"JWT_ISSUER" default:"certgen"`
	TokenTTL        time.Duration `split_words:"true" default:"24h"`
	CatalogPath     string        `split_words:"true"`
	AssetDir        string        `split_words:"true" default:"assets"`
	ArchiveTTL      time.Duration `split_words:"true" default:"30m"`
	MaxUploadBytes  int64         `split_words:"true" default:"10485760"`
	LogLevel        string        `split_words:"true" default:"info"`
	LogFormat       string        `split_words:"true" default:"json"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// Load reads the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("error processing environment: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory, StoreSQLite:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("CERTGEN_DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("invalid store driver %q (must be memory, postgres or sqlite)", c.StoreDriver)
	}
	if c.JWTSigningKey == "" {
		return fmt.Errorf("CERTGEN_JWT_SIGNING_KEY must not be empty")
	}
	if c.ArchiveTTL <= 0 {
		return fmt.Errorf("CERTGEN_ARCHIVE_TTL must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("CERTGEN_MAX_UPLOAD_BYTES must be positive")
	}
	if c.AuditRetain < 0 {
		return fmt.Errorf("CERTGEN_AUDIT_RETAIN must not be negative")
	}
	if c.AuditBuffer < 0 {
		return fmt.Errorf("CERTGEN_AUDIT_BUFFER must not be negative")
	}
	return nil
}
