package utxo

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
)

// PriorityLength is the size of a packed priority in bytes.
const PriorityLength = 32

var ErrInvalidPriority = errors.New("invalid packed priority")

// Priority orders exits in the queue. Lower values are served first.
type Priority struct {
	// Timestamp is the effective timestamp in unix seconds.
	Timestamp uint64 `json:"timestamp"`
	// Position is the packed utxo position; it breaks ties between equal timestamps.
	Position uint64 `json:"utxo_pos"`
}

// NewPriority builds the priority of the output at pos with the given effective timestamp.
func NewPriority(timestamp uint64, pos Position) Priority {
	return Priority{Timestamp: timestamp, Position: pos.Encode()}
}

// Less reports whether p is served before o.
func (p Priority) Less(o Priority) bool {
	if p.Timestamp != o.Timestamp {
		return p.Timestamp < o.Timestamp
	}
	return p.Position < o.Position
}

// UtxoPosition returns the decoded position part of the priority.
func (p Priority) UtxoPosition() Position {
	return DecodePosition(p.Position)
}

// Pack returns the 256-bit wire form: timestamp in the high 128 bits, position in the low 128 bits.
func (p Priority) Pack() *uint256.Int {
	v := uint256.NewInt(p.Timestamp)
	v.Lsh(v, 128)
	return v.Or(v, uint256.NewInt(p.Position))
}

// Bytes returns the big-endian 32-byte form of Pack, which sorts like the priority itself.
func (p Priority) Bytes() [PriorityLength]byte {
	return p.Pack().Bytes32()
}

// UnpackPriority reverses Pack. Both halves must fit into 64 bits.
func UnpackPriority(v *uint256.Int) (Priority, error) {
	hi := new(uint256.Int).Rsh(v, 128)
	lo := new(uint256.Int).Lsh(v, 128)
	lo.Rsh(lo, 128)
	if !hi.IsUint64() || !lo.IsUint64() {
		return Priority{}, fmt.Errorf("%w: %s", ErrInvalidPriority, v.Hex())
	}
	return Priority{Timestamp: hi.Uint64(), Position: lo.Uint64()}, nil
}

// PriorityFromBytes decodes the 32-byte form produced by Bytes.
func PriorityFromBytes(b []byte) (Priority, error) {
	if len(b) != PriorityLength {
		return Priority{}, fmt.Errorf("%w: length %d", ErrInvalidPriority, len(b))
	}
	return UnpackPriority(new(uint256.Int).SetBytes(b))
}

func (p Priority) String() string {
	return fmt.Sprintf("%d@%s", p.Timestamp, p.UtxoPosition())
}
