package merkle

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func leaves(n int) []common.Hash {
	out := make([]common.Hash, n)
	for i := range out {
		out[i] = crypto.Keccak256Hash([]byte{byte(i), byte(i >> 8)})
	}
	return out
}

func TestTreeProofsVerify(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 16} {
		ls := leaves(n)
		tree, err := NewTree(ls)
		require.NoError(t, err)

		for i, leaf := range ls {
			proof, err := tree.Proof(uint64(i))
			require.NoError(t, err)
			require.Len(t, proof, ProofLength)
			require.True(t, CheckMembership(leaf, uint64(i), tree.Root(), proof), "n=%d i=%d", n, i)
		}
	}
}

func TestCheckMembershipRejects(t *testing.T) {
	ls := leaves(4)
	tree, err := NewTree(ls)
	require.NoError(t, err)
	proof, err := tree.Proof(2)
	require.NoError(t, err)

	require.False(t, CheckMembership(ls[2], 3, tree.Root(), proof), "wrong index")
	require.False(t, CheckMembership(ls[1], 2, tree.Root(), proof), "wrong leaf")
	require.False(t, CheckMembership(ls[2], 2, common.Hash{0x01}, proof), "wrong root")
	require.False(t, CheckMembership(ls[2], 2, tree.Root(), proof[:64]), "short proof")
	require.False(t, CheckMembership(ls[2], 1<<Depth, tree.Root(), proof), "index beyond tree")
}

func TestSingleLeafRootMatchesManualFold(t *testing.T) {
	leaf := crypto.Keccak256Hash([]byte("tx"))
	tree, err := NewTree([]common.Hash{leaf})
	require.NoError(t, err)

	want := leaf
	for i := 0; i < Depth; i++ {
		want = hashPair(want, zeroHashes[i])
	}
	require.Equal(t, want, tree.Root())
}

func TestTreeBounds(t *testing.T) {
	empty, err := NewTree(nil)
	require.NoError(t, err)
	require.Equal(t, zeroHashes[Depth], empty.Root())

	_, err = empty.Proof(0)
	require.ErrorIs(t, err, ErrLeafIndex)

	_, err = NewTree(make([]common.Hash, 1<<Depth+1))
	require.ErrorIs(t, err, ErrTooManyLeaves)
}
