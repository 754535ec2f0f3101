package periodrunner

import (
	"context"
	"sync"
	"time"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"
)

// LocalPeriodRunner implements PeriodRunner on a local clock.
// An event is emitted at genesis + K * period, for K = 0,1,2,...
// Periods missed while a handler ran long are emitted in order before waiting again.
type LocalPeriodRunner struct {
	log zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool

	handler PeriodCallback

	period      time.Duration
	clock       clock.Clock
	genesisTime time.Time
}

// NewLocalPeriodRunner constructs a LocalPeriodRunner.
// If config.Handler is nil, SetHandler must be called before Start.
func NewLocalPeriodRunner(cfg PeriodRunnerConfig) PeriodRunner {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultPeriod
	}

	return &LocalPeriodRunner{
		handler:     cfg.Handler,
		period:      cfg.Period,
		clock:       cfg.Clock,
		genesisTime: cfg.GenesisTime,
		log:         cfg.Logger,
	}
}

// SetHandler sets the handler to be called whenever a new period ticks.
// It should be called before Start; otherwise Start will panic.
func (r *LocalPeriodRunner) SetHandler(handler PeriodCallback) {
	r.handler = handler
}

// Start begins emitting period events until the context is canceled or Stop is called.
func (r *LocalPeriodRunner) Start(ctx context.Context) error {
	if r.handler == nil {
		panic("periodrunner: LocalPeriodRunner requires a handler to start")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})
	r.started = true

	if r.genesisTime.IsZero() {
		r.genesisTime = r.clock.Now()
	}

	go r.run(runCtx, r.done)
	return nil
}

// Stop halts the runner and waits for an in-flight handler to return.
func (r *LocalPeriodRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = false
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run emits the current period, then every following one. lastEmitted makes sure
// no period is skipped when the loop falls behind.
func (r *LocalPeriodRunner) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	now := r.clock.Now()
	var (
		lastEmitted uint64
		hasEmitted  bool
		nextStart   time.Time
	)

	if now.Before(r.genesisTime) {
		nextStart = r.genesisTime
	} else {
		currentID, periodStart := r.PeriodForTime(now)
		r.emit(ctx, currentID, periodStart)
		lastEmitted = currentID
		hasEmitted = true
		nextStart = r.periodStart(currentID + 1)
	}

	for {
		delay := nextStart.Sub(r.clock.Now())
		if delay < 0 {
			delay = 0
		}

		select {
		case <-ctx.Done():
			return
		case <-r.clock.After(delay):
		}

		now = r.clock.Now()
		if now.Before(r.genesisTime) {
			nextStart = r.genesisTime
			continue
		}

		currentID, _ := r.PeriodForTime(now)
		startID := currentID
		if hasEmitted {
			startID = lastEmitted + 1
		}
		for id := startID; id <= currentID; id++ {
			if ctx.Err() != nil {
				return
			}
			r.emit(ctx, id, r.periodStart(id))
			lastEmitted = id
			hasEmitted = true
		}
		nextStart = r.periodStart(lastEmitted + 1)
	}
}

// emit triggers the handler with the provided PeriodInfo. Handler errors are
// logged; the next period is still emitted.
func (r *LocalPeriodRunner) emit(ctx context.Context, periodID uint64, startedAt time.Time) {
	info := PeriodInfo{
		PeriodID:  periodID,
		StartedAt: startedAt,
		Duration:  r.period,
	}

	if err := r.handler(ctx, info); err != nil {
		r.log.Error().Err(err).Uint64("period_id", periodID).Msg("period handler returned error")
	}
}

// PeriodForTime returns the period ID and the corresponding period start time for the given timestamp.
func (r *LocalPeriodRunner) PeriodForTime(t time.Time) (uint64, time.Time) {
	if t.Before(r.genesisTime) {
		return 0, r.genesisTime
	}

	elapsed := t.Sub(r.genesisTime)
	currentPeriod := uint64(elapsed / r.period)
	return currentPeriod, r.periodStart(currentPeriod)
}

// periodStart returns the start time for the given period ID.
func (r *LocalPeriodRunner) periodStart(periodID uint64) time.Time {
	return r.genesisTime.Add(time.Duration(periodID) * r.period)
}
