package rootchain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/rootchain/x/txrecord"
	"github.com/compose-network/rootchain/x/utxo"
)

// GetBlock returns the block at number; absent blocks are the zero Block.
func (c *RootChain) GetBlock(ctx context.Context, number uint64) (Block, error) {
	if blk, ok := c.blocks.Get(number); ok {
		return blk, nil
	}
	var blk Block
	err := c.view(ctx, func(r reader) error {
		b, err := r.block(number)
		if b != nil {
			blk = *b
		}
		return err
	})
	if err == nil && blk.Root != (common.Hash{}) {
		c.blocks.Add(number, blk)
	}
	return blk, err
}

// GetDepositBlockNumber returns the block number the next deposit will receive.
func (c *RootChain) GetDepositBlockNumber(ctx context.Context) (uint64, error) {
	var number uint64
	err := c.view(ctx, func(r reader) error {
		cur, err := r.childBlock()
		if err != nil {
			return err
		}
		counter, err := r.depositBlock()
		if err != nil {
			return err
		}
		number = cur - c.cfg.ChildBlockInterval + counter
		return nil
	})
	return number, err
}

// CurrentChildBlock returns the number the next operator block will receive.
func (c *RootChain) CurrentChildBlock(ctx context.Context) (uint64, error) {
	var number uint64
	err := c.view(ctx, func(r reader) error {
		var err error
		number, err = r.childBlock()
		return err
	})
	return number, err
}

// GetExit returns the exit record at utxoPos; positions never exited give a zero
// owner and amount.
func (c *RootChain) GetExit(ctx context.Context, utxoPos uint64) (Exit, error) {
	exit := Exit{Amount: new(big.Int)}
	err := c.view(ctx, func(r reader) error {
		e, err := r.exit(utxoPos)
		if e != nil {
			exit = *e
		}
		return err
	})
	return exit, err
}

// GetUtxoPosFromTx returns the packed position spent by the given input of txBytes.
func (c *RootChain) GetUtxoPosFromTx(txBytes []byte, input uint64) (uint64, error) {
	return txrecord.UtxoPosFromTx(txBytes, input)
}

// PeekNextEligible returns the head of the exit queue.
func (c *RootChain) PeekNextEligible(ctx context.Context) (utxo.Priority, error) {
	var head utxo.Priority
	err := c.view(ctx, func(r reader) error {
		var err error
		head, err = r.queue().PeekMin()
		return err
	})
	if errors.Is(err, ErrEmptyQueue) {
		return utxo.Priority{}, &OperationError{Op: "peek_next_eligible", Cause: err}
	}
	return head, err
}

// QueueSize returns the number of queued exits, challenged ones included.
func (c *RootChain) QueueSize(ctx context.Context) (uint64, error) {
	var size uint64
	err := c.view(ctx, func(r reader) error {
		var err error
		size, err = r.queue().Size()
		return err
	})
	return size, err
}

// BalanceOf returns the amount paid out to addr by finalized exits.
func (c *RootChain) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	var bal *big.Int
	err := c.view(ctx, func(r reader) error {
		var err error
		bal, err = r.balance(addr)
		return err
	})
	return bal, err
}

// Escrow returns the deposited value not yet paid out.
func (c *RootChain) Escrow(ctx context.Context) (*big.Int, error) {
	var v *big.Int
	err := c.view(ctx, func(r reader) error {
		var err error
		v, err = r.escrow()
		return err
	})
	return v, err
}
