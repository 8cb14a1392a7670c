package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type PostgresConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MigrationsPath  string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type OrderConfig struct {
	// StrictTransitions enforces the status state machine. When false the
	// service falls back to the legacy behavior: any recognized status value
	// is accepted.
	StrictTransitions bool
	// ValidateCustomer requires the referenced customer to exist at order
	// creation time. Off by default, matching the legacy permissiveness.
	ValidateCustomer bool
}

type Config struct {
	App struct {
		Port string
	}
	Postgres PostgresConfig
	Order    OrderConfig
}

// NewConfig reads configuration from the environment, loading .env first if
// present.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.App.Port = getEnv("APP_PORT", "8080")

	cfg.Postgres.Host = os.Getenv("DB_HOST")
	cfg.Postgres.Port = getEnv("DB_PORT", "5432")
	cfg.Postgres.User = os.Getenv("DB_USER")
	cfg.Postgres.Password = os.Getenv("DB_PASSWORD")
	cfg.Postgres.DBName = os.Getenv("DB_NAME")
	cfg.Postgres.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Postgres.MigrationsPath = getEnv("DB_MIGRATIONS_PATH", "migrations")
	cfg.Postgres.MaxConns = 10
	cfg.Postgres.MinConns = 2
	cfg.Postgres.MaxConnLifetime = 30 * time.Minute

	for name, value := range map[string]string{
		"DB_HOST":     cfg.Postgres.Host,
		"DB_USER":     cfg.Postgres.User,
		"DB_PASSWORD": cfg.Postgres.Password,
		"DB_NAME":     cfg.Postgres.DBName,
	} {
		if value == "" {
			return nil, fmt.Errorf("config: %s is required", name)
		}
	}

	var err error
	cfg.Order.StrictTransitions, err = getBoolEnv("ORDER_STRICT_TRANSITIONS", true)
	if err != nil {
		return nil, err
	}
	cfg.Order.ValidateCustomer, err = getBoolEnv("ORDER_VALIDATE_CUSTOMER", false)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getBoolEnv(name string, fallback bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s must be a boolean, got %q", name, v)
	}
	return parsed, nil
}
