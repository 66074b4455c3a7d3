package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Auth       AuthConfig       `mapstructure:"auth" validate:"required"`
	Redis      RedisConfig      `mapstructure:"redis"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Resilience ResilienceConfig `mapstructure:"resilience"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// LogPretty enables colorized human-readable logs for local development.
	LogPretty bool `mapstructure:"log_pretty"`

	// Diagnostics exposes technical error details and stack context in
	// error responses. Must stay off in production.
	Diagnostics bool `mapstructure:"diagnostics"`

	ReadTimeoutSeconds     int `mapstructure:"read_timeout_seconds" validate:"gte=0"`
	WriteTimeoutSeconds    int `mapstructure:"write_timeout_seconds" validate:"gte=0"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string `mapstructure:"url" validate:"required"`
	MaxOpenConns    int    `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime_minutes" validate:"gte=0"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret                   string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes        int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	RefreshTokenLifetimeMinutes int    `mapstructure:"refresh_token_lifetime_minutes" validate:"required,gt=0"`
	BcryptCost                  int    `mapstructure:"bcrypt_cost" validate:"gte=0,lte=31"`
}

// RedisConfig contains settings for the optional Redis backend used by the
// rate limiter. When Addr is empty the limiter keeps state in memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
}

// RateLimitConfig contains settings for request rate limiting and the
// failure escalator.
type RateLimitConfig struct {
	// Enabled turns rate limiting on. Defaults to true.
	Enabled bool `mapstructure:"enabled"`

	// GeneralRPS is the sustained request rate allowed per client for
	// general API traffic.
	GeneralRPS float64 `mapstructure:"general_rps" validate:"gte=0"`

	// GeneralBurst is the burst size for general API traffic.
	GeneralBurst int `mapstructure:"general_burst" validate:"gte=0"`
}

// ResilienceConfig contains circuit breaker and retry tuning.
type ResilienceConfig struct {
	BreakerFailureThreshold int `mapstructure:"breaker_failure_threshold" validate:"gte=0"`
	BreakerResetSeconds     int `mapstructure:"breaker_reset_seconds" validate:"gte=0"`
	BreakerSuccessThreshold int `mapstructure:"breaker_success_threshold" validate:"gte=0"`

	RetryMaxAttempts int `mapstructure:"retry_max_attempts" validate:"gte=0"`
	RetryDelayMillis int `mapstructure:"retry_delay_millis" validate:"gte=0"`

	FallbackTimeoutMillis int `mapstructure:"fallback_timeout_millis" validate:"gte=0"`
}

// ReadTimeout returns the server read timeout as a duration.
func (c ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout as a duration.
func (c ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown timeout as a duration.
func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}
