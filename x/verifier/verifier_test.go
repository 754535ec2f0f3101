package verifier_test

import (
	"crypto/ecdsa"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/rootchain/x/childchain"
	"github.com/compose-network/rootchain/x/txrecord"
	"github.com/compose-network/rootchain/x/utxo"
	"github.com/compose-network/rootchain/x/verifier"
)

type blockMap map[uint64]common.Hash

func (m blockMap) BlockRoot(number uint64) (common.Hash, error) {
	return m[number], nil
}

type account struct {
	key  *ecdsa.PrivateKey
	addr common.Address
}

func newAccount(t *testing.T) account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return account{key: key, addr: crypto.PubkeyToAddress(key.PublicKey)}
}

// spendFixture: alice spends deposit block 1 to bob (7) and herself (3); tx is index 1 of block 1000.
type spendFixture struct {
	alice, bob account
	tx         *childchain.SignedTx
	block      *childchain.Block
	proof      []byte
	sigs       []byte
	blocks     blockMap
}

func newSpendFixture(t *testing.T) spendFixture {
	t.Helper()
	alice, bob := newAccount(t), newAccount(t)

	filler, err := childchain.SignTx(&txrecord.Record{Blknum1: 2, NewOwner1: alice.addr, Amount1: big.NewInt(1)}, alice.key, nil)
	require.NoError(t, err)

	tx, err := childchain.SignTx(&txrecord.Record{
		Blknum1:   1,
		NewOwner1: bob.addr,
		Amount1:   big.NewInt(7),
		NewOwner2: alice.addr,
		Amount2:   big.NewInt(3),
	}, alice.key, nil)
	require.NoError(t, err)

	block, err := childchain.NewBlock(filler, tx)
	require.NoError(t, err)
	proof, err := block.Proof(1)
	require.NoError(t, err)
	conf, err := childchain.Confirm(tx, block.Root(), alice.key)
	require.NoError(t, err)

	return spendFixture{
		alice:  alice,
		bob:    bob,
		tx:     tx,
		block:  block,
		proof:  proof,
		sigs:   childchain.ExitSignatures(tx, conf),
		blocks: blockMap{1000: block.Root()},
	}
}

func TestVerifyTransactionExit_OK(t *testing.T) {
	f := newSpendFixture(t)
	v := verifier.New(1000)

	owner, amount, err := v.VerifyTransactionExit(f.blocks, f.bob.addr, utxo.NewPosition(1000, 1, 0), f.tx.Bytes, f.proof, f.sigs)
	require.NoError(t, err)
	require.Equal(t, f.bob.addr, owner)
	require.Equal(t, int64(7), amount.Int64())

	owner, amount, err = v.VerifyTransactionExit(f.blocks, f.alice.addr, utxo.NewPosition(1000, 1, 1), f.tx.Bytes, f.proof, f.sigs)
	require.NoError(t, err)
	require.Equal(t, f.alice.addr, owner)
	require.Equal(t, int64(3), amount.Int64())
}

func TestVerifyTransactionExit_Failures(t *testing.T) {
	f := newSpendFixture(t)
	v := verifier.New(1000)
	pos := utxo.NewPosition(1000, 1, 0)
	mallory := newAccount(t)

	badConf, err := childchain.Confirm(f.tx, f.block.Root(), mallory.key)
	require.NoError(t, err)

	tests := []struct {
		name    string
		caller  common.Address
		pos     utxo.Position
		txBytes []byte
		proof   []byte
		sigs    []byte
		blocks  blockMap
		want    error
	}{
		{"malformed record", f.bob.addr, pos, []byte{0xc1, 0x01}, f.proof, f.sigs, f.blocks, verifier.ErrMalformedRecord},
		{"not owner", mallory.addr, pos, f.tx.Bytes, f.proof, f.sigs, f.blocks, verifier.ErrNotOwner},
		{"output index out of range", f.bob.addr, utxo.NewPosition(1000, 1, 5), f.tx.Bytes, f.proof, f.sigs, f.blocks, verifier.ErrMalformedRecord},
		{"missing confirmation", f.bob.addr, pos, f.tx.Bytes, f.proof, f.tx.TransferSigs, f.blocks, verifier.ErrInvalidSignature},
		{"confirmation by stranger", f.bob.addr, pos, f.tx.Bytes, f.proof, childchain.ExitSignatures(f.tx, badConf), f.blocks, verifier.ErrInvalidSignature},
		{"wrong tx index", f.bob.addr, utxo.NewPosition(1000, 0, 0), f.tx.Bytes, f.proof, f.sigs, f.blocks, verifier.ErrInvalidInclusionProof},
		{"unknown block", f.bob.addr, utxo.NewPosition(2000, 1, 0), f.tx.Bytes, f.proof, f.sigs, f.blocks, verifier.ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := v.VerifyTransactionExit(tt.blocks, tt.caller, tt.pos, tt.txBytes, tt.proof, tt.sigs)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifyTransactionExit_SecondInputNeedsConfirmation(t *testing.T) {
	alice, bob := newAccount(t), newAccount(t)
	v := verifier.New(1000)

	tx, err := childchain.SignTx(&txrecord.Record{
		Blknum1:   1,
		Blknum2:   2,
		NewOwner1: alice.addr,
		Amount1:   big.NewInt(10),
	}, alice.key, bob.key)
	require.NoError(t, err)
	block, err := childchain.NewBlock(tx)
	require.NoError(t, err)
	proof, err := block.Proof(0)
	require.NoError(t, err)
	blocks := blockMap{1000: block.Root()}

	conf1, err := childchain.Confirm(tx, block.Root(), alice.key)
	require.NoError(t, err)
	conf2, err := childchain.Confirm(tx, block.Root(), bob.key)
	require.NoError(t, err)

	pos := utxo.NewPosition(1000, 0, 0)
	_, _, err = v.VerifyTransactionExit(blocks, alice.addr, pos, tx.Bytes, proof, childchain.ExitSignatures(tx, conf1))
	require.ErrorIs(t, err, verifier.ErrInvalidSignature)

	_, _, err = v.VerifyTransactionExit(blocks, alice.addr, pos, tx.Bytes, proof, childchain.ExitSignatures(tx, conf1, conf1))
	require.ErrorIs(t, err, verifier.ErrInvalidSignature)

	_, _, err = v.VerifyTransactionExit(blocks, alice.addr, pos, tx.Bytes, proof, childchain.ExitSignatures(tx, conf1, conf2))
	require.NoError(t, err)
}

func TestVerifyDepositExit(t *testing.T) {
	alice := newAccount(t)
	v := verifier.New(1000)
	blocks := blockMap{1: verifier.DepositRoot(alice.addr, big.NewInt(5))}

	require.NoError(t, v.VerifyDepositExit(blocks, utxo.NewPosition(1, 0, 0), alice.addr, big.NewInt(5)))

	err := v.VerifyDepositExit(blocks, utxo.NewPosition(1000, 0, 0), alice.addr, big.NewInt(5))
	require.ErrorIs(t, err, verifier.ErrNotADeposit)

	err = v.VerifyDepositExit(blocks, utxo.NewPosition(1, 0, 1), alice.addr, big.NewInt(5))
	require.ErrorIs(t, err, verifier.ErrNotADeposit)

	err = v.VerifyDepositExit(blocks, utxo.NewPosition(1, 0, 0), alice.addr, big.NewInt(6))
	require.ErrorIs(t, err, verifier.ErrDepositMismatch)

	err = v.VerifyDepositExit(blocks, utxo.NewPosition(2, 0, 0), alice.addr, big.NewInt(5))
	require.ErrorIs(t, err, verifier.ErrDepositMismatch)
}

func TestDepositRootLayout(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	want := crypto.Keccak256Hash(append(owner.Bytes(), common.LeftPadBytes([]byte{5}, 32)...))
	require.Equal(t, want, verifier.DepositRoot(owner, big.NewInt(5)))
}

func TestVerifyChallenge(t *testing.T) {
	f := newSpendFixture(t)
	v := verifier.New(1000)
	challengePos := utxo.NewPosition(1000, 1, 0)

	conf, err := childchain.Confirm(f.tx, f.block.Root(), f.alice.key)
	require.NoError(t, err)

	rec, err := v.VerifyChallenge(f.blocks, f.alice.addr, challengePos, f.tx.Bytes, f.proof, f.tx.TransferSigs, conf)
	require.NoError(t, err)
	require.True(t, rec.Spends(utxo.NewPosition(1, 0, 0)))

	_, err = v.VerifyChallenge(f.blocks, f.bob.addr, challengePos, f.tx.Bytes, f.proof, f.tx.TransferSigs, conf)
	require.ErrorIs(t, err, verifier.ErrBadConfirmation)

	_, err = v.VerifyChallenge(f.blocks, f.alice.addr, challengePos, f.tx.Bytes, f.proof, f.tx.TransferSigs, []byte{1})
	require.ErrorIs(t, err, verifier.ErrBadConfirmation)

	_, err = v.VerifyChallenge(f.blocks, f.alice.addr, utxo.NewPosition(1000, 0, 0), f.tx.Bytes, f.proof, f.tx.TransferSigs, conf)
	require.ErrorIs(t, err, verifier.ErrInvalidInclusionProof)
}
