package rootchain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/rootchain/x/utxo"
)

var _ Chain = (*RootChain)(nil)

// Chain is the root chain operation surface.
type Chain interface {
	Operator() common.Address
	Config() Config

	SubmitBlock(ctx context.Context, caller common.Address, root common.Hash) (uint64, error)
	Deposit(ctx context.Context, caller common.Address, amount *big.Int) (uint64, error)
	StartExit(ctx context.Context, caller common.Address, utxoPos uint64, txBytes, proof, signatures []byte) (utxo.Priority, error)
	StartDepositExit(ctx context.Context, caller common.Address, depositPos uint64, amount *big.Int) (utxo.Priority, error)
	StartFeeExit(ctx context.Context, caller common.Address, amount *big.Int) (utxo.Priority, error)
	ChallengeExit(ctx context.Context, caller common.Address, challengePos, exitedPos uint64, txBytes, proof, transferSigs, confirmationSig []byte) error
	FinalizeExits(ctx context.Context) (*FinalizeResult, error)

	GetBlock(ctx context.Context, number uint64) (Block, error)
	GetDepositBlockNumber(ctx context.Context) (uint64, error)
	CurrentChildBlock(ctx context.Context) (uint64, error)
	GetExit(ctx context.Context, utxoPos uint64) (Exit, error)
	GetUtxoPosFromTx(txBytes []byte, input uint64) (uint64, error)
	PeekNextEligible(ctx context.Context) (utxo.Priority, error)
	QueueSize(ctx context.Context) (uint64, error)
	BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error)
	Escrow(ctx context.Context) (*big.Int, error)
	CallerNonce(ctx context.Context, addr common.Address) (uint64, error)
}
