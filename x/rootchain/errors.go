package rootchain

import (
	"errors"
	"fmt"

	"github.com/compose-network/rootchain/x/exitqueue"
	"github.com/compose-network/rootchain/x/txrecord"
	"github.com/compose-network/rootchain/x/verifier"
)

var (
	ErrUnauthorized         = errors.New("caller is not the operator")
	ErrDepositBandExhausted = errors.New("deposit band exhausted")
	ErrZeroDeposit          = errors.New("deposit amount must be positive")
	ErrZeroAmountExit       = errors.New("exit amount must be positive")
	ErrDuplicateExit        = errors.New("exit already started for position")
	ErrExitNotPending       = errors.New("exit is not pending")
	ErrChallengeMismatch    = errors.New("challenging transaction does not spend the exited output")
	ErrInsufficientEscrow   = errors.New("root chain escrow cannot cover payout")
	ErrStaleNonce           = errors.New("caller nonce already used")

	ErrMalformedRecord       = verifier.ErrMalformedRecord
	ErrNotOwner              = verifier.ErrNotOwner
	ErrInvalidSignature      = verifier.ErrInvalidSignature
	ErrInvalidInclusionProof = verifier.ErrInvalidInclusionProof
	ErrNotADeposit           = verifier.ErrNotADeposit
	ErrDepositMismatch       = verifier.ErrDepositMismatch
	ErrBadConfirmation       = verifier.ErrBadConfirmation
	ErrInputIndex            = txrecord.ErrInputIndex
	ErrEmptyQueue            = exitqueue.ErrEmptyQueue
)

// OperationError reports which operation was rejected. The operation left no state behind.
type OperationError struct {
	Op    string
	Cause error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("rootchain %s rejected: %v", e.Op, e.Cause)
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}
