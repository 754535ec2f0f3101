package rootchain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const (
	Week = 7 * 24 * time.Hour

	DefaultChildBlockInterval = 1000
	DefaultChallengePeriod    = 2 * Week
	DefaultPriorityFloor      = Week
	DefaultFeeExitDelay       = time.Second
)

// Config holds root chain parameters.
type Config struct {
	// Operator is the hex address allowed to submit blocks and start fee exits.
	Operator string `mapstructure:"operator" yaml:"operator"`

	// ChildBlockInterval separates operator blocks; the numbers in between are deposit blocks.
	ChildBlockInterval uint64 `mapstructure:"child_block_interval" yaml:"child_block_interval"`

	// ChallengePeriod is how long an exit stays challengeable before it can be paid.
	ChallengePeriod time.Duration `mapstructure:"challenge_period" yaml:"challenge_period"`

	// PriorityFloor bounds how far back an exit's effective timestamp may reach.
	PriorityFloor time.Duration `mapstructure:"priority_floor" yaml:"priority_floor"`

	// FeeExitDelay places operator fee exits just behind exits aged to the same moment.
	FeeExitDelay time.Duration `mapstructure:"fee_exit_delay" yaml:"fee_exit_delay"`

	// MaxExitsPerFinalize caps queue pops per FinalizeExits call; 0 means unbounded.
	MaxExitsPerFinalize int `mapstructure:"max_exits_per_finalize" yaml:"max_exits_per_finalize"`
}

func DefaultConfig() Config {
	return Config{
		ChildBlockInterval: DefaultChildBlockInterval,
		ChallengePeriod:    DefaultChallengePeriod,
		PriorityFloor:      DefaultPriorityFloor,
		FeeExitDelay:       DefaultFeeExitDelay,
	}
}

// OperatorAddress parses Operator.
func (c Config) OperatorAddress() (common.Address, error) {
	s := strings.TrimSpace(c.Operator)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("rootchain: invalid operator address %q", c.Operator)
	}
	addr := common.HexToAddress(s)
	if addr == (common.Address{}) {
		return common.Address{}, errors.New("rootchain: operator address cannot be zero")
	}
	return addr, nil
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if _, err := c.OperatorAddress(); err != nil {
		return err
	}
	if c.ChildBlockInterval < 2 {
		return fmt.Errorf("rootchain: child_block_interval must be at least 2, got %d", c.ChildBlockInterval)
	}
	if c.ChallengePeriod <= 0 {
		return errors.New("rootchain: challenge_period must be positive")
	}
	if c.PriorityFloor <= 0 {
		return errors.New("rootchain: priority_floor must be positive")
	}
	if c.FeeExitDelay < 0 {
		return errors.New("rootchain: fee_exit_delay cannot be negative")
	}
	if c.MaxExitsPerFinalize < 0 {
		return errors.New("rootchain: max_exits_per_finalize cannot be negative")
	}
	return nil
}
