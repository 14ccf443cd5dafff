package otelx

import (
	"context"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	t.Setenv("OTEL_EXPORTER_OTLP_TIMEOUT", "")

	cfg, err := ConfigFromEnv("reservation-service", "1.2.0")
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if !cfg.Enabled || cfg.SampleRatio != 0.25 || cfg.ExportTimeout != 3*time.Second {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestConfigFromEnvRejectsBadRatio(t *testing.T) {
	t.Setenv("OTEL_SAMPLING_RATIO", "1.5")
	if _, err := ConfigFromEnv("reservation-service", "dev"); err == nil {
		t.Fatal("expected an error for a ratio above 1")
	}
}

func TestSampler(t *testing.T) {
	cases := map[float64]string{
		1:   sdktrace.ParentBased(sdktrace.AlwaysSample()).Description(),
		0:   sdktrace.ParentBased(sdktrace.NeverSample()).Description(),
		0.5: sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.5)).Description(),
	}
	for ratio, want := range cases {
		if got := sampler(ratio).Description(); got != want {
			t.Fatalf("sampler(%v) = %s, want %s", ratio, got, want)
		}
	}
}

func TestSetupDisabledIsNoop(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{ServiceName: "reservation-service"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
