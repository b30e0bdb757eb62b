package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// SQLite store.
	DBPath string

	// Upstream source clients.
	SocrataAppToken string
	WeatherStation  string
	UserAgent       string
	SourceTimeout   time.Duration

	// Scheduled refresh. RefreshAt is an HH:MM wall-clock time in UTC.
	// The trailing re-fetch windows differ per source because events can
	// trickle in up to two weeks late.
	RefreshEnabled    bool
	RefreshAt         string
	RefreshDaysDaily  int
	RefreshDaysHourly int
	RefreshDaysEvents int

	// Optional derived-metrics publisher.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// Derived-series response cache.
	CacheTTL  time.Duration
	CacheSize int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("db_path", "data/transit.db")
	v.SetDefault("socrata_app_token", "")
	v.SetDefault("weather_station", "USW00094728")
	v.SetDefault("user_agent", "transit-metrics-service/0.1")
	v.SetDefault("source_timeout", "45s")
	v.SetDefault("refresh_enabled", true)
	v.SetDefault("refresh_at", "06:30")
	v.SetDefault("refresh_days_daily", 7)
	v.SetDefault("refresh_days_hourly", 7)
	v.SetDefault("refresh_days_events", 14)
	v.SetDefault("kafka_enabled", false)
	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_topic", "transit-daily-metrics")
	v.SetDefault("cache_ttl", "10m")
	v.SetDefault("cache_size", 100)

	cfg := &Config{
		HTTPAddr:          v.GetString("http_addr"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
		ShutdownTimeout:   v.GetDuration("shutdown_timeout"),
		DBPath:            v.GetString("db_path"),
		SocrataAppToken:   v.GetString("socrata_app_token"),
		WeatherStation:    v.GetString("weather_station"),
		UserAgent:         v.GetString("user_agent"),
		SourceTimeout:     v.GetDuration("source_timeout"),
		RefreshEnabled:    v.GetBool("refresh_enabled"),
		RefreshAt:         v.GetString("refresh_at"),
		RefreshDaysDaily:  v.GetInt("refresh_days_daily"),
		RefreshDaysHourly: v.GetInt("refresh_days_hourly"),
		RefreshDaysEvents: v.GetInt("refresh_days_events"),
		KafkaEnabled:      v.GetBool("kafka_enabled"),
		KafkaBrokers:      parseBrokers(v.GetString("kafka_brokers")),
		KafkaTopic:        v.GetString("kafka_topic"),
		CacheTTL:          v.GetDuration("cache_ttl"),
		CacheSize:         v.GetInt("cache_size"),
	}

	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if cfg.ShutdownTimeout <= 0 {
		return nil, errors.New("invalid SHUTDOWN_TIMEOUT")
	}
	if cfg.SourceTimeout <= 0 {
		return nil, errors.New("invalid SOURCE_TIMEOUT")
	}
	if cfg.CacheTTL <= 0 {
		return nil, errors.New("invalid CACHE_TTL")
	}
	if _, err := time.Parse("15:04", cfg.RefreshAt); err != nil {
		return nil, errors.New("invalid REFRESH_AT, expected HH:MM")
	}
	if cfg.RefreshDaysDaily <= 0 || cfg.RefreshDaysHourly <= 0 || cfg.RefreshDaysEvents <= 0 {
		return nil, errors.New("refresh windows must be positive")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is not set")
		}
	}

	return cfg, nil
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(raw string) []string {
	parts := strings.Split(raw, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
