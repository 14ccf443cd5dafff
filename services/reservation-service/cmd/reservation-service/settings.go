package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lukas99o/restaurant-api/libs/config"
	otelx "github.com/lukas99o/restaurant-api/libs/otel"
	"github.com/lukas99o/restaurant-api/services/reservation-service/internal/reservation"
)

type settings struct {
	Service       string
	LogLevel      string
	Port          string
	GRPCPort      string
	StoreDriver   string
	DatabaseURL   string
	DBMaxConns    int
	MigrateOnBoot bool
	Scheduler     reservation.Config
	JWTSecret     string
	KafkaBrokers  string
	KafkaGroupID  string
	TableTopic    string
	RedisAddr     string
	RatePerMinute int
	CORSOrigins   []string
	Telemetry     otelx.Config
	// EventRetention is how long published outbox rows and inbox claims are kept.
	EventRetention time.Duration
	RetentionEvery time.Duration
	OutboxWarnAge  time.Duration
}

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

func loadSettings() (settings, error) {
	s := settings{
		Service:       config.String("SERVICE_NAME", "reservation-service"),
		LogLevel:      config.String("LOG_LEVEL", "info"),
		StoreDriver:   strings.ToLower(config.String("STORE_DRIVER", "postgres")),
		MigrateOnBoot: config.Bool("MIGRATE_ON_START", true),
		KafkaBrokers:  config.String("KAFKA_BROKERS", ""),
		KafkaGroupID:  config.String("KAFKA_GROUP_ID", "reservation-service"),
		TableTopic:    config.String("KAFKA_TABLE_TOPIC", "restaurant.table.availability.changed.v1"),
		RedisAddr:     config.String("REDIS_ADDR", ""),
		CORSOrigins:   config.List("CORS_ALLOWED_ORIGINS"),
		Scheduler:     reservation.DefaultConfig(),
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	s.Port, err = config.Port("PORT", "8080")
	collect(err)
	s.GRPCPort, err = config.Port("GRPC_PORT", "9090")
	collect(err)
	s.JWTSecret, err = config.RequiredString("JWT_SECRET")
	collect(err)
	s.DBMaxConns, err = config.Int("DB_MAX_CONNS", 10)
	collect(err)
	s.RatePerMinute, err = config.Int("RATE_LIMIT_PER_MINUTE", 120)
	collect(err)
	s.Scheduler.StoreTimeout, err = config.Duration("STORE_TIMEOUT", s.Scheduler.StoreTimeout)
	collect(err)
	s.Scheduler.MaxStoreAttempts, err = config.Int("STORE_MAX_ATTEMPTS", s.Scheduler.MaxStoreAttempts)
	collect(err)
	s.Scheduler.MaxConflictRetries, err = config.Int("CONFLICT_MAX_RETRIES", s.Scheduler.MaxConflictRetries)
	collect(err)
	s.Telemetry, err = otelx.ConfigFromEnv(s.Service, version)
	collect(err)
	s.EventRetention, err = config.Duration("EVENT_RETENTION", 7*24*time.Hour)
	collect(err)
	s.RetentionEvery, err = config.Duration("RETENTION_INTERVAL", time.Hour)
	collect(err)
	s.OutboxWarnAge, err = config.Duration("OUTBOX_BACKLOG_WARN_AGE", time.Minute)
	collect(err)

	switch s.StoreDriver {
	case "postgres":
		s.DatabaseURL, err = config.RequiredString("DATABASE_URL")
		collect(err)
	case "memory":
	default:
		collect(fmt.Errorf("STORE_DRIVER must be postgres or memory, got %q", s.StoreDriver))
	}

	return s, errors.Join(errs...)
}

// requestTimeout bounds a whole API request at two fully retried store calls.
func requestTimeout(c reservation.Config) time.Duration {
	return 2 * c.StoreTimeout * time.Duration(c.MaxStoreAttempts)
}
