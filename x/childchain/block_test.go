package childchain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/rootchain/x/merkle"
	"github.com/compose-network/rootchain/x/sigs"
	"github.com/compose-network/rootchain/x/txrecord"
)

func TestSignTxTwoInputs(t *testing.T) {
	k1, err := crypto.GenerateKey()
	require.NoError(t, err)
	k2, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx, err := SignTx(&txrecord.Record{
		Blknum1:   1,
		Blknum2:   2,
		NewOwner1: crypto.PubkeyToAddress(k2.PublicKey),
		Amount1:   big.NewInt(4),
	}, k1, k2)
	require.NoError(t, err)
	require.Len(t, tx.TransferSigs, 2*sigs.Length)

	signer1, err := sigs.Recover(tx.Hash(), sigs.Slice(tx.TransferSigs, 0))
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(k1.PublicKey), signer1)
	signer2, err := sigs.Recover(tx.Hash(), sigs.Slice(tx.TransferSigs, 1))
	require.NoError(t, err)
	require.Equal(t, crypto.PubkeyToAddress(k2.PublicKey), signer2)
}

func TestSignTxSingleInputZeroFillsSecondSig(t *testing.T) {
	k, err := crypto.GenerateKey()
	require.NoError(t, err)

	tx, err := SignTx(&txrecord.Record{Blknum1: 1, NewOwner1: crypto.PubkeyToAddress(k.PublicKey), Amount1: big.NewInt(1)}, k, nil)
	require.NoError(t, err)
	require.Equal(t, make([]byte, sigs.Length), tx.TransferSigs[sigs.Length:])
}

func TestBlockProofsAndConfirmations(t *testing.T) {
	k, err := crypto.GenerateKey()
	require.NoError(t, err)
	owner := crypto.PubkeyToAddress(k.PublicKey)

	var txs []*SignedTx
	for i := int64(1); i <= 3; i++ {
		tx, err := SignTx(&txrecord.Record{Blknum1: uint64(i), NewOwner1: owner, Amount1: big.NewInt(i)}, k, nil)
		require.NoError(t, err)
		txs = append(txs, tx)
	}

	block, err := NewBlock(txs...)
	require.NoError(t, err)
	for i, tx := range txs {
		proof, err := block.Proof(uint64(i))
		require.NoError(t, err)
		require.True(t, merkle.CheckMembership(tx.Leaf(), uint64(i), block.Root(), proof))
	}

	conf, err := Confirm(txs[1], block.Root(), k)
	require.NoError(t, err)
	signer, err := sigs.Recover(sigs.ConfirmationHash(txs[1].Hash(), block.Root()), conf)
	require.NoError(t, err)
	require.Equal(t, owner, signer)

	blob := ExitSignatures(txs[1], conf)
	require.Len(t, blob, 3*sigs.Length)
	require.Equal(t, conf, blob[2*sigs.Length:])
}
