// Package configs loads process configuration for the EPCIS document
// converter: worker-pool sizing, XML-version strictness, default
// identifier-format preferences, the optional audit-log database, and
// the optional GCP log sink.
package configs

import (
	"fmt"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the converter.
type Config struct {
	// Conversion behavior
	WorkerPoolSize   int    `env:"WORKER_POOL_SIZE" envDefault:"4"`
	Strict12         bool   `env:"STRICT_12" envDefault:"true"`
	EpcFormat        string `env:"GS1_EPC_FORMAT" envDefault:"NoPreference"`
	CbvFormat        string `env:"GS1_CBV_FORMAT" envDefault:"NoPreference"`
	CompanyPrefixLen int    `env:"GS1_COMPANY_PREFIX_LEN" envDefault:"7"`

	// Audit-log database (optional). Load reads these fields, but
	// cmd/epcisconvert does not use them and does not wire
	// internal/auditlog.
	AuditLogEnabled bool   `env:"AUDITLOG_ENABLED" envDefault:"false"`
	DBHost          string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort          string `env:"DB_PORT" envDefault:"4000"`
	DBName          string `env:"DB_NAME" envDefault:"epcisconvert"`
	DBUser          string `env:"DB_USER" envDefault:"root"`
	DBPassword      string `env:"DB_PASSWORD"`
	DBSSL           bool   `env:"DB_SSL" envDefault:"false"`

	// Watch mode
	WatchCronSpec string `env:"WATCH_CRON_SPEC" envDefault:"@every 30s"`

	// GCP Configuration (for the optional Cloud Logging sink)
	GCPProjectID    string `env:"GCP_PROJECT_ID"`
	CloudRunService string `env:"CLOUD_RUN_SERVICE"`
	LogDevelopment  bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

// Load loads configuration from a local .env file (if present) and
// environment variables.
func Load() (*Config, error) {
	// Ignore a missing .env file; env vars alone are a valid config source
	// (e.g. in a container).
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment configuration: %w", err)
	}

	if cfg.WorkerPoolSize <= 0 {
		return nil, fmt.Errorf("WORKER_POOL_SIZE must be positive, got %d", cfg.WorkerPoolSize)
	}

	return cfg, nil
}
