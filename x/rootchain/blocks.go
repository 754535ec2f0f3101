package rootchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/rootchain/x/verifier"
)

// SubmitBlock commits root at the current child block number and opens a fresh
// deposit band behind it. Only the operator may call it.
func (c *RootChain) SubmitBlock(ctx context.Context, caller common.Address, root common.Hash) (uint64, error) {
	var number uint64
	err := c.updateAs(ctx, "submit_block", caller, func(l *ledger) error {
		if err := c.requireOperator(caller); err != nil {
			return err
		}
		cur, err := l.childBlock()
		if err != nil {
			return err
		}
		blk := Block{Root: root, CreatedAt: c.now()}
		if err := l.putBlock(cur, blk); err != nil {
			return err
		}
		if err := l.setChildBlock(cur + c.cfg.ChildBlockInterval); err != nil {
			return err
		}
		if err := l.setDepositBlock(1); err != nil {
			return err
		}

		number = cur
		l.emit(func() {
			c.blocks.Add(cur, blk)
			c.metrics.CurrentChildBlock.Set(float64(cur + c.cfg.ChildBlockInterval))
			c.feeds.blocks.Send(BlockSubmittedEvent{Number: cur, Root: root, CreatedAt: blk.CreatedAt})
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	c.log.Info().
		Uint64("block", number).
		Str("root", root.Hex()).
		Msg("Child block submitted")
	return number, nil
}

// Deposit escrows amount for caller and records the deposit as a one-leaf block in
// the current deposit band. It returns the assigned block number.
func (c *RootChain) Deposit(ctx context.Context, caller common.Address, amount *big.Int) (uint64, error) {
	var number uint64
	err := c.updateAs(ctx, "deposit", caller, func(l *ledger) error {
		if amount == nil || amount.Sign() <= 0 {
			return ErrZeroDeposit
		}
		value := new(big.Int).Set(amount)
		n, createdAt, err := c.recordDeposit(l, verifier.DepositRoot(caller, value))
		if err != nil {
			return err
		}
		if err := l.lock(value); err != nil {
			return err
		}

		number = n
		l.emit(func() {
			c.feeds.deposits.Send(DepositEvent{
				Depositor:   caller,
				Amount:      value,
				BlockNumber: n,
				CreatedAt:   createdAt,
			})
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	c.log.Info().
		Str("depositor", caller.Hex()).
		Str("amount", amount.String()).
		Uint64("block", number).
		Msg("Deposit recorded")
	return number, nil
}

// recordDeposit writes root at the next deposit block number.
func (c *RootChain) recordDeposit(l *ledger, root common.Hash) (uint64, uint64, error) {
	cur, err := l.childBlock()
	if err != nil {
		return 0, 0, err
	}
	counter, err := l.depositBlock()
	if err != nil {
		return 0, 0, err
	}
	if counter >= c.cfg.ChildBlockInterval {
		return 0, 0, fmt.Errorf("%w: %d deposits behind block %d", ErrDepositBandExhausted, counter-1, cur)
	}

	number := cur - c.cfg.ChildBlockInterval + counter
	blk := Block{Root: root, CreatedAt: c.now()}
	if err := l.putBlock(number, blk); err != nil {
		return 0, 0, err
	}
	if err := l.setDepositBlock(counter + 1); err != nil {
		return 0, 0, err
	}
	l.emit(func() { c.blocks.Add(number, blk) })
	return number, blk.CreatedAt, nil
}
