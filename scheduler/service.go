package scheduler

import (
	"context"
	"sync"
	"time"

	"code.cobaltmarkets.io/exchange/config/encoding"
	"code.cobaltmarkets.io/exchange/logging"
)

const namedLogger = "scheduler"

// Config represents the configuration of the scheduler service.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// Interval between matching cycles.
	Interval encoding.Duration `long:"interval"`
}

// NewDefaultConfig creates an instance of the package specific
// configuration. The default cadence is five seconds.
func NewDefaultConfig() Config {
	return Config{
		Level:    encoding.LogLevel{Level: logging.InfoLevel},
		Interval: encoding.Duration{Duration: 5 * time.Second},
	}
}

// Service is the periodic trigger. The engine never schedules itself:
// callers register callbacks and the service invokes them on every
// tick, so tests can skip the ticker entirely and call the callbacks
// directly.
type Service struct {
	log *logging.Logger
	cfg Config

	mu        sync.Mutex
	callbacks []func(context.Context, time.Time)
}

// New instantiates the scheduler.
func New(log *logging.Logger, cfg Config) *Service {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())
	return &Service{
		log: log,
		cfg: cfg,
	}
}

// NotifyOnTick registers a callback to run on every tick.
func (s *Service) NotifyOnTick(f func(context.Context, time.Time)) {
	s.mu.Lock()
	s.callbacks = append(s.callbacks, f)
	s.mu.Unlock()
}

// Start runs the ticker until the context is cancelled. It blocks, run
// it in its own goroutine if that is not what you want.
func (s *Service) Start(ctx context.Context) {
	interval := s.cfg.Interval.Get()
	s.log.Info("scheduler started", logging.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case t := <-ticker.C:
			s.notify(ctx, t)
		}
	}
}

func (s *Service) notify(ctx context.Context, t time.Time) {
	s.mu.Lock()
	cbs := make([]func(context.Context, time.Time), len(s.callbacks))
	copy(cbs, s.callbacks)
	s.mu.Unlock()

	for _, f := range cbs {
		f(ctx, t)
	}
}
