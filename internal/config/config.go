// Package config loads application configuration from environment
// variables. A .env file in the working directory, if present, is read
// first; variables already set in the environment win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/room-reservation-ledger/internal/datepolicy"
	"github.com/iliyamo/room-reservation-ledger/internal/queue"
)

// Supported values of DB_DRIVER.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env             string         // APP_ENV (dev, test, prod)
	Port            string         // APP_PORT
	Location        *time.Location // APP_TIMEZONE, the zone "today" is computed in
	LeadDays        int            // BOOKING_LEAD_DAYS
	ShutdownTimeout time.Duration  // SHUTDOWN_TIMEOUT

	DBDriver    string // DB_DRIVER
	DBUser      string // DB_USER
	DBPass      string // DB_PASS (empty allowed)
	DBHost      string // DB_HOST
	DBPort      string // DB_PORT
	DBName      string // DB_NAME
	DatabaseURL string // DATABASE_URL, used by the postgres driver
	DBMigrate   bool   // DB_MIGRATE

	LogLevel  string // LOG_LEVEL
	LogFormat string // LOG_FORMAT (json or console)

	EventsEnabled        bool          // EVENTS_ENABLED
	AMQPURL              string        // RABBITMQ_URL, falling back to AMQP_URL
	EventsQueue          string        // EVENTS_QUEUE
	EventsDialTimeout    time.Duration // EVENTS_DIAL_TIMEOUT
	AuditConsumerEnabled bool          // AUDIT_CONSUMER_ENABLED
	AuditLogDir          string        // AUDIT_LOG_DIR
}

// LoadDotEnv reads path (".env" when empty) into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Load reads the configuration and validates it. Every problem found is
// reported, not just the first.
func Load() (Config, error) {
	cfg := Config{
		Env:             envStr("APP_ENV", "dev"),
		Port:            envStr("APP_PORT", "8080"),
		LeadDays:        envInt("BOOKING_LEAD_DAYS", datepolicy.DefaultLeadDays),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),

		DBDriver:    strings.ToLower(envStr("DB_DRIVER", DriverMySQL)),
		DBUser:      os.Getenv("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      envStr("DB_PORT", "3306"),
		DBName:      os.Getenv("DB_NAME"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMigrate:   envBool("DB_MIGRATE", true),

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "json"),

		EventsEnabled:        envBool("EVENTS_ENABLED", false),
		AMQPURL:              envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
		EventsQueue:          envStr("EVENTS_QUEUE", queue.DefaultQueueName),
		EventsDialTimeout:    envDur("EVENTS_DIAL_TIMEOUT", queue.DefaultDialTimeout),
		AuditConsumerEnabled: envBool("AUDIT_CONSUMER_ENABLED", false),
		AuditLogDir:          envStr("AUDIT_LOG_DIR", "logs"),
	}

	var errs []error
	loc, err := time.LoadLocation(envStr("APP_TIMEZONE", "Local"))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid APP_TIMEZONE: %w", err))
		loc = time.Local
	}
	cfg.Location = loc

	if raw := os.Getenv("BOOKING_LEAD_DAYS"); raw != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("invalid BOOKING_LEAD_DAYS: %q", raw))
		}
	}

	switch cfg.DBDriver {
	case DriverMySQL:
		for _, req := range []struct{ key, val string }{
			{"DB_USER", cfg.DBUser},
			{"DB_HOST", cfg.DBHost},
			{"DB_NAME", cfg.DBName},
		} {
			if req.val == "" {
				errs = append(errs, fmt.Errorf("missing required env var: %s", req.key))
			}
		}
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, errors.New("missing required env var: DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver))
	}

	if (cfg.EventsEnabled || cfg.AuditConsumerEnabled) && cfg.AMQPURL == "" {
		errs = append(errs, errors.New("missing required env var: RABBITMQ_URL"))
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
