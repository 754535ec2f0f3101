package finalizer

import (
	"errors"
	"time"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"
)

const (
	DefaultInterval = time.Minute
	// DefaultMaxRounds bounds how many budget-limited FinalizeExits calls one tick makes.
	DefaultMaxRounds = 16
)

// Config captures everything needed to build the finalizer service.
type Config struct {
	Logger   zerolog.Logger
	Chain    Finalizer
	Interval time.Duration
	// MaxRounds is the number of FinalizeExits calls per tick while the previous
	// call reports it was interrupted by its exit budget.
	MaxRounds int
	Clock     clock.Clock
}

func (cfg *Config) apply() error {
	if cfg.Logger.GetLevel() == zerolog.NoLevel {
		cfg.Logger = zerolog.Nop()
	}
	if cfg.Chain == nil {
		return errors.New("finalizer: chain is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = DefaultMaxRounds
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	return nil
}
