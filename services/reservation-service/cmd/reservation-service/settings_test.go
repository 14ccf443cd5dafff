package main

import (
	"testing"
	"time"
)

func TestLoadSettings_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "GRPC_PORT", "STORE_TIMEOUT", "STORE_MAX_ATTEMPTS", "CONFLICT_MAX_RETRIES", "RATE_LIMIT_PER_MINUTE", "MIGRATE_ON_START", "DB_MAX_CONNS", "OTEL_SAMPLING_RATIO", "OTEL_EXPORTER_OTLP_TIMEOUT", "EVENT_RETENTION", "RETENTION_INTERVAL", "OUTBOX_BACKLOG_WARN_AGE"} {
		t.Setenv(key, "")
	}
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := loadSettings()
	if err != nil {
		t.Fatalf("loadSettings: %v", err)
	}
	if cfg.Port != "8080" || cfg.GRPCPort != "9090" {
		t.Fatalf("unexpected ports: %s %s", cfg.Port, cfg.GRPCPort)
	}
	if cfg.Scheduler.StoreTimeout != 3*time.Second || cfg.Scheduler.MaxStoreAttempts != 3 || cfg.Scheduler.MaxConflictRetries != 3 {
		t.Fatalf("unexpected scheduler config: %+v", cfg.Scheduler)
	}
	if cfg.RatePerMinute != 120 || !cfg.MigrateOnBoot {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.EventRetention != 7*24*time.Hour || cfg.RetentionEvery != time.Hour || cfg.OutboxWarnAge != time.Minute {
		t.Fatalf("unexpected retention defaults: %v %v %v", cfg.EventRetention, cfg.RetentionEvery, cfg.OutboxWarnAge)
	}
}

func TestLoadSettings_RequiresDatabaseForPostgres(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	if _, err := loadSettings(); err == nil {
		t.Fatalf("expected an error without DATABASE_URL")
	}
}

func TestLoadSettings_CollectsErrors(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORE_TIMEOUT", "soon")

	if _, err := loadSettings(); err == nil {
		t.Fatalf("expected configuration errors")
	}
}
