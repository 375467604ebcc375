package followup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWaitRunsEveryTask(t *testing.T) {
	g := New(zerolog.Nop(), 0)
	var ran int32
	for i := 0; i < 5; i++ {
		g.Go("count", func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		})
	}
	assert.True(t, g.Wait(time.Second))
	assert.Equal(t, int32(5), atomic.LoadInt32(&ran))
	assert.Zero(t, g.Failed())
}

func TestGoDoesNotBlockAtLimit(t *testing.T) {
	g := New(zerolog.Nop(), 1)
	release := make(chan struct{})
	g.Go("busy", func(ctx context.Context) error {
		<-release
		return nil
	})

	scheduled := make(chan struct{})
	go func() {
		g.Go("extra", func(ctx context.Context) error { return nil })
		close(scheduled)
	}()
	select {
	case <-scheduled:
	case <-time.After(time.Second):
		t.Fatal("Go blocked while the limit was reached")
	}

	assert.Equal(t, 1, g.Dropped())
	close(release)
	assert.True(t, g.Wait(time.Second))
	assert.Zero(t, g.Failed())
}

func TestFailuresAreCountedNotPropagated(t *testing.T) {
	g := New(zerolog.Nop(), 0)
	var after int32
	g.Go("broken", func(ctx context.Context) error { return errors.New("upsert refused") })
	g.Go("panics", func(ctx context.Context) error { panic("boom") })
	g.Go("fine", func(ctx context.Context) error {
		atomic.AddInt32(&after, 1)
		return nil
	})

	assert.True(t, g.Wait(time.Second))
	assert.Equal(t, 2, g.Failed())
	assert.Equal(t, int32(1), atomic.LoadInt32(&after))
}

func TestWaitBoundCancelsSlowTasks(t *testing.T) {
	g := New(zerolog.Nop(), 0)
	cancelled := make(chan struct{})
	g.Go("slow", func(ctx context.Context) error {
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})

	assert.False(t, g.Wait(20*time.Millisecond))
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("slow task was not cancelled")
	}
}
