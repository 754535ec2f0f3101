package rootchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/rootchain/x/utxo"
)

// ChallengeExit voids the pending exit at exitedPos by showing that its owner
// confirmed a transaction at challengePos spending that output. The exit keeps its
// queue entry; finalization pops it without paying.
func (c *RootChain) ChallengeExit(
	ctx context.Context,
	caller common.Address,
	challengePos, exitedPos uint64,
	txBytes, proof, transferSigs, confirmationSig []byte,
) error {
	err := c.updateAs(ctx, "challenge_exit", caller, func(l *ledger) error {
		exit, err := l.exit(exitedPos)
		if err != nil {
			return err
		}
		if exit == nil {
			return fmt.Errorf("%w: no exit at %s", ErrExitNotPending, utxo.DecodePosition(exitedPos))
		}
		if exit.Status != ExitStatusPending {
			return fmt.Errorf("%w: exit at %s is %s", ErrExitNotPending, utxo.DecodePosition(exitedPos), exit.Status)
		}

		rec, err := c.verifier.VerifyChallenge(
			l, exit.Owner, utxo.DecodePosition(challengePos),
			txBytes, proof, transferSigs, confirmationSig,
		)
		if err != nil {
			return err
		}
		if !rec.Spends(utxo.DecodePosition(exitedPos)) {
			return fmt.Errorf("%w: %s", ErrChallengeMismatch, utxo.DecodePosition(exitedPos))
		}

		next, err := transition(ctx, exit.Status, eventChallenge)
		if err != nil {
			return err
		}
		exit.Status = next
		exit.Owner = common.Address{}
		if err := l.putExit(exitedPos, exit); err != nil {
			return err
		}

		l.emit(func() {
			c.metrics.ExitsChallenged.Inc()
			c.feeds.challenges.Send(ExitChallengedEvent{UtxoPos: exitedPos, ChallengePos: challengePos, Challenger: caller})
		})
		return nil
	})
	if err != nil {
		return err
	}

	c.log.Info().
		Str("utxo_pos", utxo.DecodePosition(exitedPos).String()).
		Str("challenge_pos", utxo.DecodePosition(challengePos).String()).
		Str("challenger", caller.Hex()).
		Msg("Exit challenged")
	return nil
}
