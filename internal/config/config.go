package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Env string `mapstructure:"FEEDFLOW_ENV"`

	Database DatabaseConfig `mapstructure:",squash"`
	Storage  StorageConfig  `mapstructure:",squash"`
	Security SecurityConfig `mapstructure:",squash"`
}

type DatabaseConfig struct {
	Driver        string        `mapstructure:"DB_DRIVER"` // "postgres", "sqlite"
	DSN           string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns  int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns  int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	Migrator      string        `mapstructure:"DB_MIGRATOR"`  // "auto", "goose"
	LogLevel      string        `mapstructure:"DB_LOG_LEVEL"` // "silent", "error", "warn", "info"
	SlowThreshold time.Duration `mapstructure:"DB_SLOW_THRESHOLD"`
}

type StorageConfig struct {
	MediaRoot string `mapstructure:"MEDIA_ROOT"`
}

type SecurityConfig struct {
	BcryptCost int `mapstructure:"BCRYPT_COST"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	MigratorAuto  = "auto"
	MigratorGoose = "goose"
)

// Load reads .env (if any) and the process environment.
func Load() (*Config, error) {
	// Load .env file; variables already in the environment win
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("FEEDFLOW_ENV", "dev")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=feedflow port=5432 sslmode=disable TimeZone=UTC")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATOR", MigratorAuto)
	v.SetDefault("DB_LOG_LEVEL", "warn")
	v.SetDefault("DB_SLOW_THRESHOLD", "200ms")
	v.SetDefault("MEDIA_ROOT", "./media")
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Env {
	case "dev", "prod":
	default:
		return fmt.Errorf("invalid FEEDFLOW_ENV %q", c.Env)
	}

	db := c.Database
	switch db.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", db.Driver)
	}
	if db.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if db.MaxOpenConns <= 0 || db.MaxIdleConns <= 0 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS and DB_MAX_IDLE_CONNS must be positive")
	}
	switch db.Migrator {
	case MigratorAuto:
	case MigratorGoose:
		if db.Driver != DriverPostgres {
			return fmt.Errorf("DB_MIGRATOR=goose requires DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_MIGRATOR %q", db.Migrator)
	}
	switch db.LogLevel {
	case "silent", "error", "warn", "info":
	default:
		return fmt.Errorf("invalid DB_LOG_LEVEL %q", db.LogLevel)
	}

	if c.Storage.MediaRoot == "" {
		return fmt.Errorf("MEDIA_ROOT is required")
	}
	if c.Security.BcryptCost < bcrypt.MinCost || c.Security.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}
