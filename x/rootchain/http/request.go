package http

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// submitBlockReq is the JSON schema for POST routeBlocks
type submitBlockReq struct {
	Root common.Hash `json:"root"`
}

// amountReq is the JSON schema for POST routeDeposits and routeFeeExits
type amountReq struct {
	Amount *math.HexOrDecimal256 `json:"amount"` // decimal or 0x-hex
}

// startExitReq is the JSON schema for POST routeExits
type startExitReq struct {
	UtxoPos    uint64        `json:"utxo_pos"`
	TxBytes    hexutil.Bytes `json:"tx_bytes"`
	Proof      hexutil.Bytes `json:"proof"`
	Signatures hexutil.Bytes `json:"signatures"`
}

// depositExitReq is the JSON schema for POST routeDepositExits
type depositExitReq struct {
	DepositPos uint64                `json:"deposit_pos"`
	Amount     *math.HexOrDecimal256 `json:"amount"`
}

// challengeReq is the JSON schema for POST routeChallenges
type challengeReq struct {
	ChallengePos    uint64        `json:"challenge_pos"`
	ExitedPos       uint64        `json:"exited_pos"`
	TxBytes         hexutil.Bytes `json:"tx_bytes"`
	Proof           hexutil.Bytes `json:"proof"`
	TransferSigs    hexutil.Bytes `json:"transfer_sigs"`
	ConfirmationSig hexutil.Bytes `json:"confirmation_sig"`
}

type blockResp struct {
	Number    uint64      `json:"number"`
	Root      common.Hash `json:"root"`
	CreatedAt uint64      `json:"created_at"`
}

type exitResp struct {
	UtxoPos     uint64         `json:"utxo_pos"`
	Position    string         `json:"position"`
	Owner       common.Address `json:"owner"`
	Amount      string         `json:"amount"`
	Status      string         `json:"status,omitempty"`
	EffectiveAt uint64         `json:"effective_at,omitempty"`
}

type balanceResp struct {
	Address common.Address `json:"address"`
	Balance string         `json:"balance"`
}

type nonceResp struct {
	Address common.Address `json:"address"`
	Nonce   uint64         `json:"nonce"`
	Next    uint64         `json:"next"`
}

type statusResp struct {
	Operator           common.Address `json:"operator"`
	CurrentChildBlock  uint64         `json:"current_child_block"`
	NextDepositBlock   uint64         `json:"next_deposit_block"`
	QueuedExits        uint64         `json:"queued_exits"`
	Escrow             string         `json:"escrow"`
	ChildBlockInterval uint64         `json:"child_block_interval"`
}
