// Package followup runs best-effort tasks that are scheduled from a read path
// and must never change what the read returned.
package followup

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Scheduler accepts follow-up work.
type Scheduler interface {
	Go(name string, fn func(ctx context.Context) error)
}

// Group owns a detached context so tasks outlive the caller's request
// context. Failures are logged and counted, never propagated.
type Group struct {
	eg     errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	log    zerolog.Logger

	mu      sync.Mutex
	failed  int
	dropped int
}

func New(log zerolog.Logger, limit int) *Group {
	ctx, cancel := context.WithCancel(context.Background())
	g := &Group{ctx: ctx, cancel: cancel, log: log}
	if limit > 0 {
		g.eg.SetLimit(limit)
	}
	return g
}

// Go starts fn unless limit tasks are already running, in which case the task
// is dropped. It never blocks.
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	started := g.eg.TryGo(func() error {
		start := time.Now()
		defer func() {
			if r := recover(); r != nil {
				g.fail()
				g.log.Error().Str("task", name).Interface("panic", r).Msg("follow-up task panicked")
			}
		}()
		if err := fn(g.ctx); err != nil {
			g.fail()
			g.log.Warn().Err(err).Str("task", name).Dur("duration", time.Since(start)).Msg("follow-up task failed")
			return nil
		}
		g.log.Debug().Str("task", name).Dur("duration", time.Since(start)).Msg("follow-up task done")
		return nil
	})
	if !started {
		g.mu.Lock()
		g.dropped++
		g.mu.Unlock()
		g.log.Warn().Str("task", name).Msg("follow-up limit reached, task dropped")
	}
}

// Wait blocks until every task finished or the bound elapsed, in which case
// the remaining tasks are cancelled. It reports whether all tasks finished.
func (g *Group) Wait(bound time.Duration) bool {
	done := make(chan struct{})
	go func() {
		_ = g.eg.Wait()
		close(done)
	}()

	timer := time.NewTimer(bound)
	defer timer.Stop()
	select {
	case <-done:
		g.cancel()
		return true
	case <-timer.C:
		g.cancel()
		g.log.Warn().Dur("bound", bound).Msg("follow-up tasks still running, cancelled")
		return false
	}
}

// Failed returns how many tasks returned an error or panicked.
func (g *Group) Failed() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failed
}

// Dropped returns how many tasks were never started because of the limit.
func (g *Group) Dropped() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dropped
}

func (g *Group) fail() {
	g.mu.Lock()
	g.failed++
	g.mu.Unlock()
}
