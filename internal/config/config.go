package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Redis    RedisConfig    `yaml:"redis"`
	Matching MatchingConfig `yaml:"matching"`
	Digest   DigestConfig   `yaml:"digest"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port            int `yaml:"port"`
	MetricsPort     int `yaml:"metrics_port"`
	RateLimitPerMin int `yaml:"rate_limit_per_min"`
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr           string `yaml:"addr"`
	PoolTTLSeconds int    `yaml:"pool_ttl_seconds"`
}

// MatchingConfig holds the tunables around the matching engine. The radius
// and seat ranges mirror what the profile screen lets a rider pick.
type MatchingConfig struct {
	PassengerDefaultRadiusKm float64 `yaml:"passenger_default_radius_km"`
	MinRadiusKm              float64 `yaml:"min_radius_km"`
	MaxRadiusKm              float64 `yaml:"max_radius_km"`
	MaxSeats                 int     `yaml:"max_seats"`
	NewUserMaxDistanceKm     float64 `yaml:"new_user_max_distance_km"`
	NewUserJoinedWithinDays  int     `yaml:"new_user_joined_within_days"`
}

type DigestConfig struct {
	Enabled        bool `yaml:"enabled"`
	TickIntervalMs int  `yaml:"tick_interval_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Digest.TickIntervalMs) * time.Millisecond
}

func (c *Config) PoolTTL() time.Duration {
	return time.Duration(c.Redis.PoolTTLSeconds) * time.Second
}

// CheckRadius reports whether a vehicle owner's radius is inside the
// configured range.
func (m MatchingConfig) CheckRadius(field string, km float64) error {
	if km < m.MinRadiusKm || km > m.MaxRadiusKm {
		return fmt.Errorf("%s must be between %g and %g km, got %g", field, m.MinRadiusKm, m.MaxRadiusKm, km)
	}
	return nil
}

func (m MatchingConfig) CheckSeats(seats int) error {
	if seats < 1 || seats > m.MaxSeats {
		return fmt.Errorf("seats must be between 1 and %d, got %d", m.MaxSeats, seats)
	}
	return nil
}

// Validate rejects inverted, negative or NaN ranges.
func (c *Config) Validate() error {
	m := c.Matching
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"passenger_default_radius_km", m.PassengerDefaultRadiusKm},
		{"min_radius_km", m.MinRadiusKm},
		{"max_radius_km", m.MaxRadiusKm},
		{"new_user_max_distance_km", m.NewUserMaxDistanceKm},
	} {
		if math.IsNaN(f.v) {
			return fmt.Errorf("%s must be a number", f.name)
		}
	}
	if m.PassengerDefaultRadiusKm < 0 {
		return fmt.Errorf("passenger_default_radius_km must not be negative")
	}
	if m.MinRadiusKm < 0 || m.MaxRadiusKm < m.MinRadiusKm {
		return fmt.Errorf("radius range [%g, %g] is invalid", m.MinRadiusKm, m.MaxRadiusKm)
	}
	if m.MaxSeats < 1 {
		return fmt.Errorf("max_seats must be at least 1")
	}
	if m.NewUserMaxDistanceKm < 0 {
		return fmt.Errorf("new_user_max_distance_km must not be negative")
	}
	if m.NewUserJoinedWithinDays < 0 {
		return fmt.Errorf("new_user_joined_within_days must not be negative")
	}
	if c.Digest.Enabled && c.Digest.TickIntervalMs <= 0 {
		return fmt.Errorf("digest tick_interval_ms must be positive")
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            8700,
			MetricsPort:     8701,
			RateLimitPerMin: 120,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Redis: RedisConfig{
			PoolTTLSeconds: 300,
		},
		Matching: MatchingConfig{
			PassengerDefaultRadiusKm: 3,
			MinRadiusKm:              1,
			MaxRadiusKm:              3,
			MaxSeats:                 7,
			NewUserMaxDistanceKm:     5,
			NewUserJoinedWithinDays:  14,
		},
		Digest: DigestConfig{
			Enabled:        false,
			TickIntervalMs: 60000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CARPOOL_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("CARPOOL_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("CARPOOL_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("CARPOOL_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("CARPOOL_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("CARPOOL_PASSENGER_RADIUS_KM"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Matching.PassengerDefaultRadiusKm = f
		}
	}
	if v := os.Getenv("CARPOOL_NEW_USER_MAX_DISTANCE_KM"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Matching.NewUserMaxDistanceKm = f
		}
	}
	if v := os.Getenv("CARPOOL_DIGEST_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Digest.Enabled = b
		}
	}
	if v := os.Getenv("CARPOOL_TICK_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Digest.TickIntervalMs = n
		}
	}
	if v := os.Getenv("CARPOOL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
