package main

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWorkerGroup_ReleasesAfterWorkersReturn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	g := newWorkerGroup(ctx)

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		order = append(order, s)
	}
	for _, name := range []string{"publisher", "consumer"} {
		g.Go(func(ctx context.Context) {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			record(name)
		})
	}

	cancel()
	g.Close(func() { record("pool closed") })

	if len(order) != 3 || order[2] != "pool closed" {
		t.Fatalf("pool must close after every worker: %v", order)
	}
}

func TestWorkerGroup_NilRelease(t *testing.T) {
	g := newWorkerGroup(context.Background())
	ran := false
	g.Go(func(context.Context) { ran = true })
	g.Close(nil)
	if !ran {
		t.Fatal("worker must have run before Close returns")
	}
}
