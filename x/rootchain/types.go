package rootchain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/rootchain/x/utxo"
)

// Block is a committed child block root.
type Block struct {
	Root      common.Hash `json:"root"`
	CreatedAt uint64      `json:"created_at"`
}

// Exit is the record of a started exit, keyed by its packed utxo position.
type Exit struct {
	// Owner is zeroed once the exit is challenged or paid.
	Owner  common.Address `json:"owner"`
	Amount *big.Int       `json:"amount"`
	Status ExitStatus     `json:"status"`
}

// Live reports whether the record blocks another exit of the same position.
func (e *Exit) Live() bool {
	return e != nil && e.Amount != nil && e.Amount.Sign() > 0
}

// FinalizeResult summarizes one FinalizeExits call.
type FinalizeResult struct {
	Paid    []uint64 `json:"paid"`
	Skipped []uint64 `json:"skipped"`
	// Remaining is the queue size after the call.
	Remaining uint64 `json:"remaining"`
	// Next is the head of the queue after the call, if any.
	Next *utxo.Priority `json:"next,omitempty"`
	// Interrupted is set when the call stopped on its exit budget or a canceled context
	// while eligible exits may still be queued.
	Interrupted bool `json:"interrupted"`
	// Stalled is set when the head exit is eligible but the escrow cannot pay it.
	// Every exit behind it waits until deposits refill the escrow.
	Stalled bool `json:"stalled"`
}
