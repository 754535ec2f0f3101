package sigs

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Length of a single [R || S || V] signature.
const Length = crypto.SignatureLength

var ErrBadSignature = errors.New("bad signature")

// Recover returns the signer of hash. V may be 0/1 or 27/28.
func Recover(hash common.Hash, sig []byte) (common.Address, error) {
	if len(sig) != Length {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrBadSignature, len(sig))
	}
	normalized := make([]byte, Length)
	copy(normalized, sig)
	if normalized[crypto.RecoveryIDOffset] >= 27 {
		normalized[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(hash.Bytes(), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Sign signs hash with key.
func Sign(hash common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	return crypto.Sign(hash.Bytes(), key)
}

// ConfirmationHash binds a transaction to the block root it was included in.
func ConfirmationHash(txHash, root common.Hash) common.Hash {
	return crypto.Keccak256Hash(txHash.Bytes(), root.Bytes())
}

// Slice returns the i-th signature of a concatenated signature list, or nil if absent.
func Slice(sigs []byte, i int) []byte {
	start := i * Length
	if start+Length > len(sigs) {
		return nil
	}
	return sigs[start : start+Length]
}
