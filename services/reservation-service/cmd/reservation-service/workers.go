package main

import (
	"context"
	"sync"
)

// workerGroup runs the service's background loops on one context.
type workerGroup struct {
	ctx context.Context
	wg  sync.WaitGroup
}

func newWorkerGroup(ctx context.Context) *workerGroup {
	return &workerGroup{ctx: ctx}
}

func (g *workerGroup) Go(run func(context.Context)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		run(g.ctx)
	}()
}

// Close waits for every loop to return and only then calls release, so nothing the
// loops use is torn down under them.
func (g *workerGroup) Close(release func()) {
	g.wg.Wait()
	if release != nil {
		release()
	}
}
