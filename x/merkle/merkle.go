package merkle

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Depth of the child-chain transaction tree. A block holds at most 2^Depth transactions.
const Depth = 16

// ProofLength is the byte length of an inclusion proof: one sibling hash per level.
const ProofLength = Depth * common.HashLength

var (
	ErrTooManyLeaves = errors.New("merkle: too many leaves")
	ErrLeafIndex     = errors.New("merkle: leaf index out of range")
)

// zeroHashes[i] is the root of an empty subtree of height i.
var zeroHashes = func() [Depth + 1]common.Hash {
	var z [Depth + 1]common.Hash
	for i := 1; i <= Depth; i++ {
		z[i] = hashPair(z[i-1], z[i-1])
	}
	return z
}()

func hashPair(left, right common.Hash) common.Hash {
	return crypto.Keccak256Hash(left.Bytes(), right.Bytes())
}

// CheckMembership reports whether leaf sits at index in the tree with the given root.
func CheckMembership(leaf common.Hash, index uint64, root common.Hash, proof []byte) bool {
	if len(proof) != ProofLength || index >= 1<<Depth {
		return false
	}
	computed := leaf
	for i := 0; i < Depth; i++ {
		sibling := common.BytesToHash(proof[i*common.HashLength : (i+1)*common.HashLength])
		if index%2 == 0 {
			computed = hashPair(computed, sibling)
		} else {
			computed = hashPair(sibling, computed)
		}
		index /= 2
	}
	return computed == root
}

// Tree is a fixed-depth keccak tree padded with zero leaves.
type Tree struct {
	levels [][]common.Hash
}

// NewTree builds the tree over the given leaves.
func NewTree(leaves []common.Hash) (*Tree, error) {
	if len(leaves) > 1<<Depth {
		return nil, fmt.Errorf("%w: %d", ErrTooManyLeaves, len(leaves))
	}

	levels := make([][]common.Hash, Depth+1)
	levels[0] = append([]common.Hash(nil), leaves...)
	for lvl := 0; lvl < Depth; lvl++ {
		cur := levels[lvl]
		next := make([]common.Hash, (len(cur)+1)/2)
		for i := range next {
			left := cur[2*i]
			right := zeroHashes[lvl]
			if 2*i+1 < len(cur) {
				right = cur[2*i+1]
			}
			next[i] = hashPair(left, right)
		}
		levels[lvl+1] = next
	}
	return &Tree{levels: levels}, nil
}

// Root returns the tree root.
func (t *Tree) Root() common.Hash {
	if len(t.levels[Depth]) == 0 {
		return zeroHashes[Depth]
	}
	return t.levels[Depth][0]
}

// Proof returns the concatenated sibling hashes for the leaf at index.
func (t *Tree) Proof(index uint64) ([]byte, error) {
	if index >= uint64(len(t.levels[0])) {
		return nil, fmt.Errorf("%w: %d", ErrLeafIndex, index)
	}
	proof := make([]byte, 0, ProofLength)
	for lvl := 0; lvl < Depth; lvl++ {
		sibling := zeroHashes[lvl]
		if s := index ^ 1; s < uint64(len(t.levels[lvl])) {
			sibling = t.levels[lvl][s]
		}
		proof = append(proof, sibling.Bytes()...)
		index /= 2
	}
	return proof, nil
}
