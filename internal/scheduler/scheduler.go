// Package scheduler drives periodic reconciliation runs and substitutes
// the synthetic fallback table when the live pipeline fails outright.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/rasoi-group/market-intel/internal/model"
)

// State is the scheduler's position in its run cycle.
type State string

const (
	StateIdle             State = "idle"
	StateRunning          State = "running"
	StateUpserted         State = "upserted"
	StateFallbackUpserted State = "fallback_upserted"
)

// Runner produces a full reconciled record set or fails as a whole.
// Satisfied by *reconcile.Reconciler.
type Runner interface {
	Run(ctx context.Context) ([]model.PriceRecord, error)
}

// FallbackSource produces the synthetic table. Satisfied by
// *fallback.Generator.
type FallbackSource interface {
	Generate() []model.PriceRecord
}

// Upserter is the slice of the store the scheduler writes through.
type Upserter interface {
	UpsertPrices(ctx context.Context, records []model.PriceRecord) (int64, error)
}

// Outcome describes the last completed run.
type Outcome struct {
	State    State     `json:"state"`
	Records  int64     `json:"records"`
	Fallback bool      `json:"fallback"`
	At       time.Time `json:"at"`
}

// Scheduler runs reconciliation once at startup and then on a fixed
// interval. At most one run is in flight; an overlapping tick is
// skipped, the next tick is the retry mechanism.
type Scheduler struct {
	runner   Runner
	fallback FallbackSource
	store    Upserter
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	running bool
	last    Outcome
}

// New creates a Scheduler.
func New(runner Runner, fallback FallbackSource, store Upserter, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		runner:   runner,
		fallback: fallback,
		store:    store,
		interval: interval,
		log:      zap.L().With(zap.String("component", "scheduler")),
	}
}

// Start blocks until ctx is cancelled, running once immediately and then
// on every tick.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("starting price scheduler", zap.Duration("interval", s.interval))

	if err := s.RunOnce(ctx); err != nil {
		s.log.Error("startup reconciliation failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("price scheduler stopped")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.log.Error("scheduled reconciliation failed", zap.Error(err))
			}
		}
	}
}

// ErrRunInProgress is returned when a run is requested while another is
// still writing.
var ErrRunInProgress = eris.New("scheduler: run already in progress")

// RunOnce executes a single reconciliation cycle: live run, or the
// synthetic fallback table if the live run fails. Only a store write
// failure is returned as an error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		s.log.Warn("skipping tick, previous run still in flight")
		return ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	records, err := s.runner.Run(ctx)
	state := StateUpserted
	if err != nil {
		// Whole-run degradation: synthetic table instead of an error.
		s.log.Warn("live reconciliation failed, falling back to synthetic prices",
			zap.Error(err),
		)
		records = s.fallback.Generate()
		state = StateFallbackUpserted
	}

	n, err := s.store.UpsertPrices(ctx, records)
	if err != nil {
		return eris.Wrap(err, "scheduler: upsert records")
	}

	s.mu.Lock()
	s.last = Outcome{
		State:    state,
		Records:  n,
		Fallback: state == StateFallbackUpserted,
		At:       time.Now().UTC(),
	}
	s.mu.Unlock()

	s.log.Info("reconciliation cycle complete",
		zap.String("state", string(state)),
		zap.Int64("records", n),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// ForceFallback writes the synthetic table unconditionally, used by the
// sync --fallback escape hatch.
func (s *Scheduler) ForceFallback(ctx context.Context) error {
	n, err := s.store.UpsertPrices(ctx, s.fallback.Generate())
	if err != nil {
		return eris.Wrap(err, "scheduler: upsert fallback records")
	}
	s.mu.Lock()
	s.last = Outcome{State: StateFallbackUpserted, Records: n, Fallback: true, At: time.Now().UTC()}
	s.mu.Unlock()
	return nil
}

// LastOutcome returns the result of the most recent completed run.
func (s *Scheduler) LastOutcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
