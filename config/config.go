package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Geocode  GeocodeConfig
	Search   SearchConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"SERVER_HOST"`
	Port         int           `mapstructure:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"POSTGRES_HOST"`
	Port     int    `mapstructure:"POSTGRES_PORT"`
	User     string `mapstructure:"POSTGRES_USER"`
	Password string `mapstructure:"POSTGRES_PASSWORD"`
	DBName   string `mapstructure:"POSTGRES_DB"`
	SSLMode  string `mapstructure:"POSTGRES_SSLMODE"`
	MaxConns int32  `mapstructure:"POSTGRES_MAX_CONNS"`
	MinConns int32  `mapstructure:"POSTGRES_MIN_CONNS"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     int    `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
	PoolSize int    `mapstructure:"REDIS_POOL_SIZE"`
}

// GeocodeConfig holds settings for the external address-lookup service.
type GeocodeConfig struct {
	BaseURL   string        `mapstructure:"GEOCODE_BASE_URL"`
	UserAgent string        `mapstructure:"GEOCODE_USER_AGENT"`
	Timeout   time.Duration `mapstructure:"GEOCODE_TIMEOUT"`
	CacheTTL  time.Duration `mapstructure:"GEOCODE_CACHE_TTL"`
}

// SearchConfig holds the ranking/matching tunables. The defaults mirror the
// product decisions baked into the mobile clients; they are configuration
// rather than literals so ops can adjust them without a release.
type SearchConfig struct {
	DefaultRadiusKm float64       `mapstructure:"SEARCH_DEFAULT_RADIUS_KM"`
	FuzzBandKm      float64       `mapstructure:"SEARCH_FUZZ_BAND_KM"`
	SessionTTL      time.Duration `mapstructure:"SEARCH_SESSION_TTL"`
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// ── Defaults ────────────────────────────────────────
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_READ_TIMEOUT", "5s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_IDLE_TIMEOUT", "120s")

	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "vetperto")
	viper.SetDefault("POSTGRES_PASSWORD", "vetperto_secret")
	viper.SetDefault("POSTGRES_DB", "vetperto_db")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_CONNS", 50)
	viper.SetDefault("POSTGRES_MIN_CONNS", 10)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 100)

	viper.SetDefault("GEOCODE_BASE_URL", "https://nominatim.openstreetmap.org")
	viper.SetDefault("GEOCODE_USER_AGENT", "vetperto-provider-search/1.0")
	viper.SetDefault("GEOCODE_TIMEOUT", "4s")
	viper.SetDefault("GEOCODE_CACHE_TTL", "1h")

	viper.SetDefault("SEARCH_DEFAULT_RADIUS_KM", 10.0)
	viper.SetDefault("SEARCH_FUZZ_BAND_KM", 0.5)
	viper.SetDefault("SEARCH_SESSION_TTL", "30m")

	// Try to read .env file. If it doesn't exist (e.g., inside Docker),
	// env vars injected by docker-compose env_file are used instead.
	_ = viper.ReadInConfig()

	cfg := &Config{}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         viper.GetString("SERVER_HOST"),
		Port:         viper.GetInt("SERVER_PORT"),
		ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  viper.GetDuration("SERVER_IDLE_TIMEOUT"),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Host:     viper.GetString("POSTGRES_HOST"),
		Port:     viper.GetInt("POSTGRES_PORT"),
		User:     viper.GetString("POSTGRES_USER"),
		Password: viper.GetString("POSTGRES_PASSWORD"),
		DBName:   viper.GetString("POSTGRES_DB"),
		SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		MaxConns: viper.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: viper.GetInt32("POSTGRES_MIN_CONNS"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     viper.GetString("REDIS_HOST"),
		Port:     viper.GetInt("REDIS_PORT"),
		Password: viper.GetString("REDIS_PASSWORD"),
		DB:       viper.GetInt("REDIS_DB"),
		PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
	}

	// ── Geocode ─────────────────────────────────────────
	cfg.Geocode = GeocodeConfig{
		BaseURL:   viper.GetString("GEOCODE_BASE_URL"),
		UserAgent: viper.GetString("GEOCODE_USER_AGENT"),
		Timeout:   viper.GetDuration("GEOCODE_TIMEOUT"),
		CacheTTL:  viper.GetDuration("GEOCODE_CACHE_TTL"),
	}

	// ── Search ──────────────────────────────────────────
	cfg.Search = SearchConfig{
		DefaultRadiusKm: viper.GetFloat64("SEARCH_DEFAULT_RADIUS_KM"),
		FuzzBandKm:      viper.GetFloat64("SEARCH_FUZZ_BAND_KM"),
		SessionTTL:      viper.GetDuration("SEARCH_SESSION_TTL"),
	}

	return cfg, nil
}
