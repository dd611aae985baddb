package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ActivitySpec is one configured activity, parsed from the ACTIVITIES env
// var: "name:measure1+measure2:lowerBound:upperBound" entries separated by
// semicolons.
type ActivitySpec struct {
	Name           string
	Measures       []string
	GoalLowerBound int64
	GoalUpperBound int64
}

type Config struct {
	ServerHost  string
	ServerPort  string
	Environment string

	LogLevel  string
	LogFormat string

	JWTSecret    string
	AdminAddress string

	// StoreBackend selects "postgres" or "memory".
	StoreBackend string
	DatabaseURL  string

	// LedgerAccount is the token address pooling deposited funds.
	LedgerAccount string
	// TokenBridgeMode selects "http" or "mock".
	TokenBridgeMode    string
	TokenBridgeURL     string
	TokenBridgeTimeout time.Duration

	// OracleMode selects "http" or "static".
	OracleMode    string
	OracleURL     string
	OracleRef     string
	OracleTimeout time.Duration

	// EventsBackend selects "redis" or "log".
	EventsBackend string
	RedisURL      string
	EventsChannel string

	CommitmentDurationDays int
	Activities             []ActivitySpec
}

var (
	ErrMissingJWTSecret    = errors.New("JWT_SECRET is required")
	ErrMissingAdminAddress = errors.New("ADMIN_ADDRESS is required")
	ErrMissingDatabaseURL  = errors.New("DATABASE_URL is required for the postgres backend")
	ErrMissingBridgeURL    = errors.New("TOKEN_BRIDGE_URL is required for the http bridge")
	ErrMissingOracleURL    = errors.New("ORACLE_URL is required for the http oracle")
	ErrMissingRedisURL     = errors.New("REDIS_URL is required for the redis events backend")
)

// Load reads configuration from the environment, honoring a local .env file
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerHost:  getEnv("SERVER_HOST", "0.0.0.0"),
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		JWTSecret:    os.Getenv("JWT_SECRET"),
		AdminAddress: os.Getenv("ADMIN_ADDRESS"),

		StoreBackend: getEnv("STORE_BACKEND", "postgres"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		LedgerAccount:      getEnv("LEDGER_ACCOUNT", "commitpool-ledger"),
		TokenBridgeMode:    getEnv("TOKEN_BRIDGE_MODE", "http"),
		TokenBridgeURL:     os.Getenv("TOKEN_BRIDGE_URL"),
		TokenBridgeTimeout: getEnvDuration("TOKEN_BRIDGE_TIMEOUT", 10*time.Second),

		OracleMode:    getEnv("ORACLE_MODE", "http"),
		OracleURL:     os.Getenv("ORACLE_URL"),
		OracleRef:     getEnv("ORACLE_REF", "default"),
		OracleTimeout: getEnvDuration("ORACLE_TIMEOUT", 10*time.Second),

		EventsBackend: getEnv("EVENTS_BACKEND", "log"),
		RedisURL:      os.Getenv("REDIS_URL"),
		EventsChannel: getEnv("EVENTS_CHANNEL", "commitpool.events"),

		CommitmentDurationDays: getEnvInt("COMMITMENT_DURATION_DAYS", 7),
	}

	activities, err := parseActivities(getEnv("ACTIVITIES", "biking:km:2:1024"))
	if err != nil {
		return nil, err
	}
	cfg.Activities = activities

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if c.AdminAddress == "" {
		return ErrMissingAdminAddress
	}
	if c.StoreBackend == "postgres" && c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.TokenBridgeMode == "http" && c.TokenBridgeURL == "" {
		return ErrMissingBridgeURL
	}
	if c.OracleMode == "http" && c.OracleURL == "" {
		return ErrMissingOracleURL
	}
	if c.EventsBackend == "redis" && c.RedisURL == "" {
		return ErrMissingRedisURL
	}
	if c.CommitmentDurationDays <= 0 {
		return fmt.Errorf("COMMITMENT_DURATION_DAYS must be positive")
	}
	return nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}

func parseActivities(raw string) ([]ActivitySpec, error) {
	var specs []ActivitySpec
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid ACTIVITIES entry %q: want name:measures:lower:upper", entry)
		}
		lower, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid lower bound in ACTIVITIES entry %q: %w", entry, err)
		}
		upper, err := strconv.ParseInt(parts[3], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid upper bound in ACTIVITIES entry %q: %w", entry, err)
		}
		specs = append(specs, ActivitySpec{
			Name:           parts[0],
			Measures:       strings.Split(parts[1], "+"),
			GoalLowerBound: lower,
			GoalUpperBound: upper,
		})
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("ACTIVITIES must define at least one activity")
	}
	return specs, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
