package rootchain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/rootchain/x/utxo"
)

const (
	exitKindTransaction = "transaction"
	exitKindDeposit     = "deposit"
	exitKindFee         = "fee"
)

// StartExit queues an exit of output utxoPos of txBytes for caller, who must own
// that output. proof places the transaction in its block; signatures carries the
// transfer and confirmation signatures.
func (c *RootChain) StartExit(
	ctx context.Context,
	caller common.Address,
	utxoPos uint64,
	txBytes, proof, signatures []byte,
) (utxo.Priority, error) {
	var priority utxo.Priority
	err := c.updateAs(ctx, "start_exit", caller, func(l *ledger) error {
		pos := utxo.DecodePosition(utxoPos)
		owner, amount, err := c.verifier.VerifyTransactionExit(l, caller, pos, txBytes, proof, signatures)
		if err != nil {
			return err
		}
		blk, err := l.block(pos.Block)
		if err != nil {
			return err
		}
		if blk == nil {
			return fmt.Errorf("%w: block %d not committed", ErrInvalidInclusionProof, pos.Block)
		}
		priority, err = c.addExitToQueue(l, utxoPos, owner, amount, blk.CreatedAt)
		return err
	})
	if err != nil {
		return utxo.Priority{}, err
	}
	c.exitStarted(exitKindTransaction, caller, priority)
	return priority, nil
}

// StartDepositExit queues an exit of caller's deposit at depositPos. Deposits are
// always output 0 of transaction 0 in their block.
func (c *RootChain) StartDepositExit(
	ctx context.Context,
	caller common.Address,
	depositPos uint64,
	amount *big.Int,
) (utxo.Priority, error) {
	var priority utxo.Priority
	err := c.updateAs(ctx, "start_deposit_exit", caller, func(l *ledger) error {
		if amount == nil || amount.Sign() <= 0 {
			return ErrZeroAmountExit
		}
		pos := utxo.DecodePosition(depositPos)
		if err := c.verifier.VerifyDepositExit(l, pos, caller, amount); err != nil {
			return err
		}
		blk, err := l.block(pos.Block)
		if err != nil {
			return err
		}
		if blk == nil {
			return fmt.Errorf("%w: block %d not committed", ErrInvalidInclusionProof, pos.Block)
		}
		priority, err = c.addExitToQueue(l, depositPos, caller, amount, blk.CreatedAt)
		return err
	})
	if err != nil {
		return utxo.Priority{}, err
	}
	c.exitStarted(exitKindDeposit, caller, priority)
	return priority, nil
}

// StartFeeExit queues an operator withdrawal of collected fees at the next fee
// exit slot. Fee exits sort just behind exits that aged to the same moment.
func (c *RootChain) StartFeeExit(ctx context.Context, caller common.Address, amount *big.Int) (utxo.Priority, error) {
	var priority utxo.Priority
	err := c.updateAs(ctx, "start_fee_exit", caller, func(l *ledger) error {
		if err := c.requireOperator(caller); err != nil {
			return err
		}
		slot, err := l.feeExit()
		if err != nil {
			return err
		}
		createdAt := c.now() + uint64(c.cfg.FeeExitDelay.Seconds())
		if priority, err = c.addExitToQueue(l, slot, caller, amount, createdAt); err != nil {
			return err
		}
		return l.setFeeExit(slot + 1)
	})
	if err != nil {
		return utxo.Priority{}, err
	}
	c.exitStarted(exitKindFee, caller, priority)
	return priority, nil
}

// addExitToQueue records a pending exit at pos and queues it at its effective
// timestamp: createdAt, but never older than the priority floor.
func (c *RootChain) addExitToQueue(
	l *ledger,
	pos uint64,
	owner common.Address,
	amount *big.Int,
	createdAt uint64,
) (utxo.Priority, error) {
	if amount == nil || amount.Sign() <= 0 {
		return utxo.Priority{}, ErrZeroAmountExit
	}
	existing, err := l.exit(pos)
	if err != nil {
		return utxo.Priority{}, err
	}
	if existing.Live() {
		return utxo.Priority{}, fmt.Errorf("%w: %s is %s", ErrDuplicateExit, utxo.DecodePosition(pos), existing.Status)
	}

	priority := utxo.Priority{Timestamp: c.effectiveTimestamp(createdAt), Position: pos}
	if err := l.queue().Insert(priority); err != nil {
		return utxo.Priority{}, err
	}
	value := new(big.Int).Set(amount)
	if err := l.putExit(pos, &Exit{Owner: owner, Amount: value, Status: ExitStatusPending}); err != nil {
		return utxo.Priority{}, err
	}

	l.emit(func() {
		c.metrics.QueueSize.Inc()
		c.feeds.exitStarts.Send(ExitStartedEvent{Exitor: owner, UtxoPos: pos, Amount: value, Priority: priority})
	})
	return priority, nil
}

func (c *RootChain) effectiveTimestamp(createdAt uint64) uint64 {
	floor := uint64(c.cfg.PriorityFloor.Seconds())
	now := c.now()
	if now > floor && createdAt < now-floor {
		return now - floor
	}
	return createdAt
}

func (c *RootChain) exitStarted(kind string, caller common.Address, p utxo.Priority) {
	c.metrics.ExitsStarted.WithLabelValues(kind).Inc()
	c.log.Info().
		Str("kind", kind).
		Str("exitor", caller.Hex()).
		Str("utxo_pos", p.UtxoPosition().String()).
		Uint64("effective_at", p.Timestamp).
		Msg("Exit started")
}
