package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var (
	sweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "drop_service",
		Subsystem: "scheduler",
		Name:      "sweeps_total",
		Help:      "Total number of drop status sweeps, by outcome.",
	}, []string{"outcome"})

	dropsTransitioned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "drop_service",
		Subsystem: "scheduler",
		Name:      "drops_transitioned_total",
		Help:      "Total number of drop status transitions applied by sweeps.",
	})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "drop_service",
		Subsystem: "scheduler",
		Name:      "sweep_duration_seconds",
		Help:      "Histogram of sweep durations in seconds.",
		Buckets:   prometheus.DefBuckets,
	})
)

type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Scheduler owns the recurring drop-status sweep. It is an explicit
// lifecycle object: construct, Start, Stop, and it can be re-armed
// after Stop. Ticks fire at a fixed rate; concurrent invocations
// (overlapping ticks, manual triggers) collapse into one sweep.
type Scheduler struct {
	logger   *slog.Logger
	sweeper  Sweeper
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	group singleflight.Group
}

func New(logger *slog.Logger, sweeper Sweeper, interval time.Duration) *Scheduler {
	return &Scheduler{
		logger:   logger.With(slog.String("component", "drop-scheduler")),
		sweeper:  sweeper,
		interval: interval,
	}
}

// Start arms the timer. Calling it while running is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.logger.Info("scheduler already running")
		return nil
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(runCtx, s.done)

	s.logger.Info("scheduler started", slog.Duration("interval", s.interval))
	return nil
}

// Stop cancels the timer and clears state so Start can re-arm it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// TriggerOnce runs a sweep immediately, sharing in-flight execution
// with the timer so sweeps are never double-counted.
func (s *Scheduler) TriggerOnce(ctx context.Context) (int, error) {
	return s.sweep(ctx)
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	// First fire aligns to the next interval boundary (top of the
	// minute for the default interval), then the ticker keeps a fixed
	// rate regardless of sweep duration.
	first := time.NewTimer(time.Until(time.Now().Truncate(s.interval).Add(s.interval)))
	defer first.Stop()

	select {
	case <-ctx.Done():
		return
	case <-first.C:
		s.tick(ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

// tick swallows sweep errors: a failing sweep is logged and the next
// tick retries against current state.
func (s *Scheduler) tick(ctx context.Context) {
	updated, err := s.sweep(ctx)
	if err != nil {
		s.logger.Error("sweep failed", slog.Any("error", err))
		return
	}
	if updated > 0 {
		s.logger.Info("sweep applied transitions", slog.Int("updated", updated))
	}
}

func (s *Scheduler) sweep(ctx context.Context) (int, error) {
	v, err, _ := s.group.Do("sweep", func() (any, error) {
		start := time.Now()
		updated, err := s.sweeper.Sweep(ctx)
		sweepDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			sweepsTotal.WithLabelValues("error").Inc()
			return 0, err
		}
		sweepsTotal.WithLabelValues("ok").Inc()
		dropsTransitioned.Add(float64(updated))
		return updated, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}
