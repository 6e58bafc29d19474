package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"code.cobaltmarkets.io/exchange/config/encoding"
	"code.cobaltmarkets.io/exchange/logging"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_TicksUntilCancelled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Interval = encoding.Duration{Duration: time.Millisecond}
	svc := New(logging.NewTestLogger(), cfg)

	var ticks atomic.Int64
	svc.NotifyOnTick(func(context.Context, time.Time) {
		ticks.Add(1)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	svc.Start(ctx)

	n := ticks.Load()
	assert.Greater(t, n, int64(0))

	// no ticks after Start returned
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, n, ticks.Load())
}

func TestScheduler_AllCallbacksRun(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Interval = encoding.Duration{Duration: time.Millisecond}
	svc := New(logging.NewTestLogger(), cfg)

	var a, b atomic.Int64
	svc.NotifyOnTick(func(context.Context, time.Time) { a.Add(1) })
	svc.NotifyOnTick(func(context.Context, time.Time) { b.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	svc.Start(ctx)

	assert.Equal(t, a.Load(), b.Load())
	assert.Greater(t, a.Load(), int64(0))
}
