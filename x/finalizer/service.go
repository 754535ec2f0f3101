// Package finalizer calls FinalizeExits on every period tick so exits whose
// challenge window closed get paid without an external caller.
package finalizer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	periodrunner "github.com/compose-network/rootchain/x/period-runner"
	"github.com/compose-network/rootchain/x/rootchain"
)

type service struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
	logger  zerolog.Logger

	chain        Finalizer
	maxRounds    int
	periodRunner periodrunner.PeriodRunner

	statsMu sync.Mutex
	stats   Stats
}

func New(cfg Config) (Service, error) {
	if err := cfg.apply(); err != nil {
		return nil, err
	}

	runner := periodrunner.NewLocalPeriodRunner(periodrunner.PeriodRunnerConfig{
		Period: cfg.Interval,
		Clock:  cfg.Clock,
		Logger: cfg.Logger.With().Str("component", "period-runner").Logger(),
	})

	s := &service{
		logger:       cfg.Logger,
		chain:        cfg.Chain,
		maxRounds:    cfg.MaxRounds,
		periodRunner: runner,
	}
	runner.SetHandler(s.onPeriod)
	return s, nil
}

func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.started = true
	s.mu.Unlock()

	if err := s.periodRunner.Start(runCtx); err != nil {
		cancel()
		s.mu.Lock()
		s.started = false
		s.cancel = nil
		s.mu.Unlock()
		return fmt.Errorf("finalizer: start period runner: %w", err)
	}

	s.logger.Info().Int("max_rounds", s.maxRounds).Msg("Exit finalizer started")
	return nil
}

func (s *service) Stop(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	cancel := s.cancel
	s.started = false
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	if err := s.periodRunner.Stop(ctx); err != nil {
		return fmt.Errorf("finalizer: stop period runner: %w", err)
	}
	s.logger.Info().Msg("Exit finalizer stopped")
	return nil
}

func (s *service) Stats() Stats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// onPeriod keeps calling FinalizeExits while the previous call was cut short by
// its exit budget and still made progress.
func (s *service) onPeriod(ctx context.Context, info periodrunner.PeriodInfo) error {
	for round := 0; round < s.maxRounds; round++ {
		res, err := s.chain.FinalizeExits(ctx)
		if err != nil {
			s.recordFailure(info, err)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("finalizer: period %d: %w", info.PeriodID, err)
		}
		s.record(info, res)

		progressed := len(res.Paid)+len(res.Skipped) > 0
		if !res.Interrupted || !progressed || ctx.Err() != nil {
			return nil
		}
		s.logger.Debug().
			Uint64("period_id", info.PeriodID).
			Int("round", round+1).
			Uint64("remaining", res.Remaining).
			Msg("Finalize budget reached, continuing")
	}
	return nil
}

func (s *service) record(info periodrunner.PeriodInfo, res *rootchain.FinalizeResult) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats.Runs++
	s.stats.Paid += uint64(len(res.Paid))
	s.stats.Skipped += uint64(len(res.Skipped))
	s.stats.Remaining = res.Remaining
	s.stats.Stalled = res.Stalled
	s.stats.LastRun = info.StartedAt
	s.stats.LastError = ""
}

func (s *service) recordFailure(info periodrunner.PeriodInfo, err error) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	s.stats.Runs++
	s.stats.Failures++
	s.stats.LastRun = info.StartedAt
	s.stats.LastError = err.Error()
}
