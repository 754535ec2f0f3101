package rootchain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/facebookgo/clock"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/compose-network/rootchain/x/store"
	"github.com/compose-network/rootchain/x/verifier"
)

// RootChain is the exit game state machine. Every mutating operation runs as one
// store Update: it either commits all of its effects or none.
type RootChain struct {
	cfg      Config
	operator common.Address
	store    store.Store
	verifier *verifier.Verifier
	clock    clock.Clock
	log      zerolog.Logger
	metrics  *Metrics
	feeds    feeds

	// blocks caches committed blocks; they never change once written.
	blocks *lru.Cache[uint64, Block]
}

const defaultBlockCacheSize = 1024

// New opens the root chain over st, initializing counters on first use.
func New(ctx context.Context, log zerolog.Logger, st store.Store, cfg Config, opts ...Option) (*RootChain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if st == nil {
		return nil, errors.New("rootchain: store is required")
	}
	operator, _ := cfg.OperatorAddress()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	if o.metrics == nil {
		o.metrics = NewMetrics()
	}
	if o.blockCacheSize <= 0 {
		o.blockCacheSize = defaultBlockCacheSize
	}
	blocks, err := lru.New[uint64, Block](o.blockCacheSize)
	if err != nil {
		return nil, fmt.Errorf("rootchain: block cache: %w", err)
	}

	c := &RootChain{
		cfg:      cfg,
		operator: operator,
		store:    st,
		verifier: verifier.New(cfg.ChildBlockInterval),
		clock:    o.clock,
		log:      log.With().Str("component", "rootchain").Logger(),
		metrics:  o.metrics,
		blocks:   blocks,
	}

	if err := c.init(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *RootChain) init(ctx context.Context) error {
	var child, size uint64
	err := c.store.Update(ctx, func(tx store.Tx) error {
		l := newLedger(tx)
		interval, err := l.u64(keyBlockInterval)
		if err != nil {
			return err
		}
		if interval == 0 {
			if err := l.putU64(keyBlockInterval, c.cfg.ChildBlockInterval); err != nil {
				return err
			}
			if err := l.setChildBlock(c.cfg.ChildBlockInterval); err != nil {
				return err
			}
			if err := l.setDepositBlock(1); err != nil {
				return err
			}
			if err := l.setFeeExit(1); err != nil {
				return err
			}
		} else if interval != c.cfg.ChildBlockInterval {
			return fmt.Errorf("rootchain: store was created with child_block_interval %d, config has %d",
				interval, c.cfg.ChildBlockInterval)
		}
		if child, err = l.childBlock(); err != nil {
			return err
		}
		size, err = l.queue().Size()
		return err
	})
	if err != nil {
		return err
	}

	c.metrics.CurrentChildBlock.Set(float64(child))
	c.metrics.QueueSize.Set(float64(size))
	c.log.Info().
		Str("operator", c.operator.Hex()).
		Uint64("current_child_block", child).
		Uint64("queued_exits", size).
		Msg("Root chain ready")
	return nil
}

// Operator returns the operator address.
func (c *RootChain) Operator() common.Address {
	return c.operator
}

// Config returns the parameters the chain runs with.
func (c *RootChain) Config() Config {
	return c.cfg
}

// now is the current block timestamp in unix seconds.
func (c *RootChain) now() uint64 {
	t := c.clock.Now().Unix()
	if t < 0 {
		return 0
	}
	return uint64(t)
}

// update runs fn atomically and publishes its events once committed.
func (c *RootChain) update(ctx context.Context, op string, fn func(l *ledger) error) error {
	start := time.Now()
	var events []func()
	err := c.store.Update(ctx, func(tx store.Tx) error {
		l := newLedger(tx)
		if err := fn(l); err != nil {
			return err
		}
		events = l.events
		return nil
	})
	c.metrics.RecordOperation(op, start, err)
	if err != nil {
		c.log.Debug().Err(err).Str("operation", op).Msg("Operation rejected")
		return &OperationError{Op: op, Cause: err}
	}
	for _, emit := range events {
		emit()
	}
	return nil
}

func (c *RootChain) view(ctx context.Context, fn func(r reader) error) error {
	return c.store.View(ctx, func(r store.Reader) error {
		return fn(reader{r: r})
	})
}

func (c *RootChain) requireOperator(caller common.Address) error {
	if caller != c.operator {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller.Hex())
	}
	return nil
}
