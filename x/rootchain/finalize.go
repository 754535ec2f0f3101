package rootchain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/rootchain/x/utxo"
)

// FinalizeExits pays every queued exit whose challenge window has closed, in
// priority order, and drops challenged ones from the queue. It stops at the first
// exit still inside its window. A call that hits MaxExitsPerFinalize or a canceled
// ctx commits the progress made so far; calling again resumes from the queue head.
func (c *RootChain) FinalizeExits(ctx context.Context) (*FinalizeResult, error) {
	res := &FinalizeResult{}
	err := c.update(ctx, "finalize_exits", func(l *ledger) error {
		*res = FinalizeResult{Paid: []uint64{}, Skipped: []uint64{}}
		return c.finalize(ctx, l, res)
	})
	if err != nil {
		return nil, err
	}

	c.metrics.QueueSize.Set(float64(res.Remaining))
	if res.Stalled {
		c.metrics.FinalizeStalled.Set(1)
	} else {
		c.metrics.FinalizeStalled.Set(0)
	}
	c.metrics.FinalizeBatchSize.Observe(float64(len(res.Paid) + len(res.Skipped)))
	c.metrics.ExitsFinalized.WithLabelValues("paid").Add(float64(len(res.Paid)))
	c.metrics.ExitsFinalized.WithLabelValues("skipped").Add(float64(len(res.Skipped)))

	if len(res.Paid)+len(res.Skipped) > 0 || res.Interrupted {
		c.log.Info().
			Int("paid", len(res.Paid)).
			Int("skipped", len(res.Skipped)).
			Uint64("remaining", res.Remaining).
			Bool("interrupted", res.Interrupted).
			Bool("stalled", res.Stalled).
			Msg("Exits finalized")
	}
	return res, nil
}

func (c *RootChain) finalize(ctx context.Context, l *ledger, res *FinalizeResult) error {
	cutoff := c.cutoff()
	q := l.queue()
	popped := 0

	for {
		if c.cfg.MaxExitsPerFinalize > 0 && popped >= c.cfg.MaxExitsPerFinalize {
			res.Interrupted = true
			break
		}
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}

		head, err := q.PeekMin()
		if errors.Is(err, ErrEmptyQueue) {
			break
		}
		if err != nil {
			return err
		}
		if head.Timestamp >= cutoff {
			break
		}

		exit, err := l.exit(head.Position)
		if err != nil {
			return err
		}
		if exit == nil || exit.Status != ExitStatusPending {
			if _, err := q.PopMin(); err != nil {
				return err
			}
			popped++
			res.Skipped = append(res.Skipped, head.Position)
			continue
		}

		escrow, err := l.escrow()
		if err != nil {
			return err
		}
		if escrow.Cmp(exit.Amount) < 0 {
			c.log.Warn().
				Str("utxo_pos", head.UtxoPosition().String()).
				Str("amount", exit.Amount.String()).
				Str("escrow", escrow.String()).
				Msg("Escrow cannot cover exit; leaving it at the queue head")
			res.Interrupted = true
			res.Stalled = true
			break
		}

		if _, err := q.PopMin(); err != nil {
			return err
		}
		popped++
		if err := c.payout(ctx, l, head.Position, exit); err != nil {
			return err
		}
		res.Paid = append(res.Paid, head.Position)
	}

	size, err := q.Size()
	if err != nil {
		return err
	}
	res.Remaining = size
	if size > 0 {
		next, err := q.PeekMin()
		if err != nil {
			return err
		}
		res.Next = &next
	}
	return nil
}

// payout credits the owner and marks the record finalized. The amount stays on the
// record so the position cannot be exited again.
func (c *RootChain) payout(ctx context.Context, l *ledger, pos uint64, exit *Exit) error {
	next, err := transition(ctx, exit.Status, eventFinalize)
	if err != nil {
		return err
	}
	owner, amount := exit.Owner, new(big.Int).Set(exit.Amount)
	if err := l.release(amount); err != nil {
		return fmt.Errorf("release escrow for %s: %w", utxo.DecodePosition(pos), err)
	}
	if err := l.credit(owner, amount); err != nil {
		return err
	}

	exit.Status = next
	exit.Owner = common.Address{}
	if err := l.putExit(pos, exit); err != nil {
		return err
	}

	l.emit(func() {
		c.feeds.finalizings.Send(ExitFinalizedEvent{UtxoPos: pos, Owner: owner, Amount: amount})
	})
	return nil
}

// cutoff is the newest effective timestamp whose challenge window has closed, exclusive.
func (c *RootChain) cutoff() uint64 {
	period := uint64(c.cfg.ChallengePeriod.Seconds())
	now := c.now()
	if now < period {
		return 0
	}
	return now - period
}
