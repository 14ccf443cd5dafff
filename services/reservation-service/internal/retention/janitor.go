// Package retention deletes bookkeeping rows that no longer guard anything: published
// outbox events and old inbox claims.
package retention

import (
	"context"
	"log/slog"
	"time"
)

// PruneFunc deletes rows older than cutoff and reports how many went.
type PruneFunc func(ctx context.Context, cutoff time.Time) (int64, error)

type Task struct {
	Name  string
	Keep  time.Duration
	Prune PruneFunc
}

type Janitor struct {
	logger *slog.Logger
	every  time.Duration
	tasks  []Task
	now    func() time.Time
}

func NewJanitor(logger *slog.Logger, every time.Duration, tasks ...Task) *Janitor {
	if every <= 0 {
		every = time.Hour
	}
	kept := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Keep > 0 && t.Prune != nil {
			kept = append(kept, t)
		}
	}
	return &Janitor{logger: logger, every: every, tasks: kept, now: time.Now}
}

// Run sweeps once immediately, then on every tick until ctx ends.
func (j *Janitor) Run(ctx context.Context) {
	if len(j.tasks) == 0 {
		j.logger.Info("retention janitor disabled (no tasks)")
		return
	}
	ticker := time.NewTicker(j.every)
	defer ticker.Stop()

	j.Sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.Sweep(ctx)
		}
	}
}

// Sweep runs every task once. A failing task is logged and does not stop the others.
func (j *Janitor) Sweep(ctx context.Context) map[string]int64 {
	removed := make(map[string]int64, len(j.tasks))
	now := j.now()
	for _, t := range j.tasks {
		if ctx.Err() != nil {
			return removed
		}
		cutoff := now.Add(-t.Keep)
		n, err := t.Prune(ctx, cutoff)
		if err != nil {
			j.logger.Error("retention sweep failed", "task", t.Name, "err", err)
			continue
		}
		removed[t.Name] = n
		if n > 0 {
			j.logger.Info("retention sweep", "task", t.Name, "removed", n, "cutoff", cutoff.UTC())
		}
	}
	return removed
}
