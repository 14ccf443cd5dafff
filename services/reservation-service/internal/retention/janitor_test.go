package retention

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSweep_PassesCutoffPerTask(t *testing.T) {
	now := time.Date(2030, 3, 1, 12, 0, 0, 0, time.UTC)
	var outboxCutoff, inboxCutoff time.Time

	j := NewJanitor(discard(), time.Minute,
		Task{Name: "outbox", Keep: 24 * time.Hour, Prune: func(_ context.Context, c time.Time) (int64, error) {
			outboxCutoff = c
			return 3, nil
		}},
		Task{Name: "inbox", Keep: 7 * 24 * time.Hour, Prune: func(_ context.Context, c time.Time) (int64, error) {
			inboxCutoff = c
			return 0, nil
		}},
	)
	j.now = func() time.Time { return now }

	removed := j.Sweep(context.Background())
	if removed["outbox"] != 3 || removed["inbox"] != 0 {
		t.Fatalf("unexpected counts: %v", removed)
	}
	if !outboxCutoff.Equal(now.Add(-24 * time.Hour)) {
		t.Fatalf("outbox cutoff = %v", outboxCutoff)
	}
	if !inboxCutoff.Equal(now.Add(-7 * 24 * time.Hour)) {
		t.Fatalf("inbox cutoff = %v", inboxCutoff)
	}
}

func TestSweep_FailureDoesNotStopOtherTasks(t *testing.T) {
	ran := false
	j := NewJanitor(discard(), time.Minute,
		Task{Name: "broken", Keep: time.Hour, Prune: func(context.Context, time.Time) (int64, error) {
			return 0, errors.New("db down")
		}},
		Task{Name: "ok", Keep: time.Hour, Prune: func(context.Context, time.Time) (int64, error) {
			ran = true
			return 1, nil
		}},
	)
	removed := j.Sweep(context.Background())
	if !ran {
		t.Fatal("second task must run after the first failed")
	}
	if _, ok := removed["broken"]; ok {
		t.Fatalf("failed task must not report a count: %v", removed)
	}
}

func TestNewJanitor_DropsDisabledTasks(t *testing.T) {
	prune := func(context.Context, time.Time) (int64, error) { return 0, nil }
	j := NewJanitor(discard(), 0,
		Task{Name: "off", Keep: 0, Prune: prune},
		Task{Name: "nil", Keep: time.Hour},
	)
	if len(j.tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(j.tasks))
	}
	if j.every != time.Hour {
		t.Fatalf("default interval = %v", j.every)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	j.Run(ctx)
}
