package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Task      TaskConfig      `mapstructure:"task" validate:"required"`
	Sources   SourcesConfig   `mapstructure:"sources" validate:"required"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" validate:"required"`
	CORS      CORSConfig      `mapstructure:"cors"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	// AutoMigrate applies pending migrations at startup.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// TaskConfig controls the ingestion task processor.
type TaskConfig struct {
	// IngestDelay is the simulated ingestion latency before sources are read.
	IngestDelay time.Duration `mapstructure:"ingest_delay" validate:"gte=0"`
	// FinalizeDelay is the simulated latency before a task is marked completed.
	FinalizeDelay time.Duration `mapstructure:"finalize_delay" validate:"gte=0"`
	// RecoverOnStart resubmits pending tasks left by a previous process.
	RecoverOnStart bool `mapstructure:"recover_on_start"`
}

// SourcesConfig locates the two ingestion datasets.
type SourcesConfig struct {
	PersonXPath string `mapstructure:"person_x_path" validate:"required"`
	PersonYPath string `mapstructure:"person_y_path" validate:"required"`
}

// RateLimitConfig caps requests per client address.
type RateLimitConfig struct {
	RequestsPerMinute int    `mapstructure:"requests_per_minute" validate:"gt=0"`
	Backend           string `mapstructure:"backend" validate:"required,oneof=memory redis"`
	RedisAddr         string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}
