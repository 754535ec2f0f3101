package periodrunner

import (
	"time"

	"github.com/facebookgo/clock"
	"github.com/rs/zerolog"
)

// DefaultPeriod is the cadence used when PeriodRunnerConfig.Period is zero.
const DefaultPeriod = time.Minute

// PeriodRunnerConfig configures a PeriodRunner.
type PeriodRunnerConfig struct {
	// Handler is the function invoked whenever a new period starts.
	Handler PeriodCallback
	// Period is the length of one period.
	Period time.Duration
	// GenesisTime is the timestamp at which period 0 starts. Zero means the time Start is called.
	GenesisTime time.Time
	// Clock is the time source. Defaults to the wall clock if nil.
	Clock  clock.Clock
	Logger zerolog.Logger
}

// DefaultPeriodRunnerConfig returns a config with sensible defaults.
func DefaultPeriodRunnerConfig(logger zerolog.Logger) PeriodRunnerConfig {
	return PeriodRunnerConfig{
		Handler: nil, // Set later by an upper layer
		Period:  DefaultPeriod,
		Clock:   clock.New(),
		Logger:  logger.With().Str("component", "period-runner").Logger(),
	}
}

// IsEmpty returns true if all fields are at their zero values.
func (p *PeriodRunnerConfig) IsEmpty() bool {
	return p.Handler == nil &&
		p.Period == 0 &&
		p.GenesisTime.IsZero() &&
		p.Clock == nil &&
		p.Logger.GetLevel() == zerolog.NoLevel
}
