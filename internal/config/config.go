package config

import (
	"fmt"
	"strings"

	"github.com/kodi-rentals/service-rental/pkg/config"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// ServiceConfig holds all configuration for the rental service.
type ServiceConfig struct {
	Port                  string
	AppEnv                string
	StorageDriver         string
	DefaultCurrency       string
	PendingExpirySchedule string
	DBConfig              config.DatabaseConfig
	JWTConfig             config.JWTConfig
	KafkaConfig           config.KafkaConfig
	RedisConfig           config.RedisConfig
}

// Load reads configuration from RENTAL_* environment variables (and an optional .env file).
func Load() (*ServiceConfig, error) {
	v, err := config.Load("RENTAL")
	if err != nil {
		return nil, err
	}
	v.SetDefault("DB_NAME", "rental")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("DEFAULT_CURRENCY", "RWF")
	v.SetDefault("PENDING_EXPIRY_SCHEDULE", "@hourly")

	cfg := &ServiceConfig{
		Port:                  config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:                config.GetAppEnv(v),
		StorageDriver:         strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DefaultCurrency:       strings.ToUpper(v.GetString("DEFAULT_CURRENCY")),
		PendingExpirySchedule: v.GetString("PENDING_EXPIRY_SCHEDULE"),
		DBConfig:              config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:             config.LoadJWTConfig(v),
		KafkaConfig:           config.LoadKafkaConfig(v),
		RedisConfig:           config.LoadRedisConfig(v),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ServiceConfig) validate() error {
	switch c.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("RENTAL_STORAGE_DRIVER must be %q or %q, got %q", StoragePostgres, StorageMemory, c.StorageDriver)
	}
	if len(c.DefaultCurrency) != 3 {
		return fmt.Errorf("RENTAL_DEFAULT_CURRENCY must be a 3-letter code, got %q", c.DefaultCurrency)
	}
	if c.JWTConfig.Secret == "" && c.AppEnv != "development" {
		return fmt.Errorf("RENTAL_JWT_SECRET is required outside development")
	}
	return nil
}
