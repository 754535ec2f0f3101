package txrecord

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/compose-network/rootchain/x/utxo"
)

// FieldCount is the fixed arity of an encoded transaction record.
const FieldCount = 11

// Number of inputs and outputs carried by a record.
const (
	NumInputs  = 2
	NumOutputs = 2
)

var (
	ErrMalformedRecord = errors.New("malformed transaction record")
	ErrOutputIndex     = errors.New("output index out of range")
	ErrInputIndex      = errors.New("input index out of range")
)

// Record is the child-chain transaction:
// [blknum1, txindex1, oindex1, blknum2, txindex2, oindex2, newowner1, amount1, newowner2, amount2, fee].
type Record struct {
	Blknum1   uint64
	Txindex1  uint64
	Oindex1   uint64
	Blknum2   uint64
	Txindex2  uint64
	Oindex2   uint64
	NewOwner1 common.Address
	Amount1   *big.Int
	NewOwner2 common.Address
	Amount2   *big.Int
	Fee       *big.Int
}

// Decode parses an RLP encoded record, enforcing the fixed arity.
func Decode(b []byte) (*Record, error) {
	var fields []rlp.RawValue
	if err := rlp.DecodeBytes(b, &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if len(fields) != FieldCount {
		return nil, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedRecord, FieldCount, len(fields))
	}

	var rec Record
	if err := rlp.DecodeBytes(b, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	rec.normalize()
	return &rec, nil
}

// Encode returns the RLP form of the record.
func (r *Record) Encode() ([]byte, error) {
	cp := *r
	cp.normalize()
	return rlp.EncodeToBytes(&cp)
}

// MustEncode is Encode for records built in code; it panics on failure.
func (r *Record) MustEncode() []byte {
	b, err := r.Encode()
	if err != nil {
		panic(fmt.Sprintf("txrecord: encode: %v", err))
	}
	return b
}

// Hash is the keccak256 digest of the encoded bytes.
func Hash(txBytes []byte) common.Hash {
	return crypto.Keccak256Hash(txBytes)
}

// Output returns owner and amount of output oindex.
func (r *Record) Output(oindex uint64) (common.Address, *big.Int, error) {
	switch oindex {
	case 0:
		return r.NewOwner1, new(big.Int).Set(r.Amount1), nil
	case 1:
		return r.NewOwner2, new(big.Int).Set(r.Amount2), nil
	default:
		return common.Address{}, nil, fmt.Errorf("%w: %d", ErrOutputIndex, oindex)
	}
}

// Input returns the position spent by input i.
func (r *Record) Input(i uint64) (utxo.Position, error) {
	switch i {
	case 0:
		return utxo.NewPosition(r.Blknum1, r.Txindex1, r.Oindex1), nil
	case 1:
		return utxo.NewPosition(r.Blknum2, r.Txindex2, r.Oindex2), nil
	default:
		return utxo.Position{}, fmt.Errorf("%w: %d", ErrInputIndex, i)
	}
}

// Spends reports whether any input of the record references pos.
func (r *Record) Spends(pos utxo.Position) bool {
	for i := uint64(0); i < NumInputs; i++ {
		in, _ := r.Input(i)
		if in.Block == 0 {
			continue
		}
		if in == pos {
			return true
		}
	}
	return false
}

// UtxoPosFromTx decodes txBytes and returns the packed position spent by input i.
func UtxoPosFromTx(txBytes []byte, i uint64) (uint64, error) {
	rec, err := Decode(txBytes)
	if err != nil {
		return 0, err
	}
	in, err := rec.Input(i)
	if err != nil {
		return 0, err
	}
	return in.Encode(), nil
}

func (r *Record) normalize() {
	if r.Amount1 == nil {
		r.Amount1 = new(big.Int)
	}
	if r.Amount2 == nil {
		r.Amount2 = new(big.Int)
	}
	if r.Fee == nil {
		r.Fee = new(big.Int)
	}
}
