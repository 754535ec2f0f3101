package utxo

import (
	"fmt"
	"strconv"
)

// Radix of the packed position encoding: blknum*BlockOffset + txindex*TxOffset + oindex.
const (
	BlockOffset uint64 = 1_000_000_000
	TxOffset    uint64 = 10_000
)

// Position identifies an output on the child chain.
type Position struct {
	Block       uint64 `json:"block"`
	TxIndex     uint64 `json:"tx_index"`
	OutputIndex uint64 `json:"output_index"`
}

// NewPosition builds a Position from its parts.
func NewPosition(block, txIndex, outputIndex uint64) Position {
	return Position{Block: block, TxIndex: txIndex, OutputIndex: outputIndex}
}

// Encode returns the packed integer form used on the wire and as a storage key.
func (p Position) Encode() uint64 {
	return p.Block*BlockOffset + p.TxIndex*TxOffset + p.OutputIndex
}

// DecodePosition splits a packed position into block, tx index and output index.
func DecodePosition(packed uint64) Position {
	block := packed / BlockOffset
	txIndex := (packed % BlockOffset) / TxOffset
	return Position{
		Block:       block,
		TxIndex:     txIndex,
		OutputIndex: packed - block*BlockOffset - txIndex*TxOffset,
	}
}

// ParsePosition parses a decimal packed position.
func ParsePosition(s string) (Position, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Position{}, fmt.Errorf("invalid utxo position %q: %w", s, err)
	}
	return DecodePosition(v), nil
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d:%d", p.Block, p.TxIndex, p.OutputIndex)
}
