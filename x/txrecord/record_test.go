package txrecord

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/rootchain/x/utxo"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func sampleRecord() *Record {
	return &Record{
		Blknum1:   1,
		Txindex1:  0,
		Oindex1:   0,
		Blknum2:   1000,
		Txindex2:  4,
		Oindex2:   1,
		NewOwner1: alice,
		Amount1:   big.NewInt(7),
		NewOwner2: bob,
		Amount2:   big.NewInt(3),
		Fee:       big.NewInt(1),
	}
}

func TestRecordEncodeDecode(t *testing.T) {
	rec := sampleRecord()
	b, err := rec.Encode()
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, rec.NewOwner1, got.NewOwner1)
	require.Equal(t, rec.NewOwner2, got.NewOwner2)
	require.Zero(t, rec.Amount1.Cmp(got.Amount1))
	require.Zero(t, rec.Amount2.Cmp(got.Amount2))
	require.Zero(t, rec.Fee.Cmp(got.Fee))
	require.Equal(t, uint64(1000), got.Blknum2)
}

func TestDecodeRejectsWrongArity(t *testing.T) {
	short, err := rlp.EncodeToBytes([]interface{}{uint64(1), uint64(2), uint64(3)})
	require.NoError(t, err)
	_, err = Decode(short)
	require.ErrorIs(t, err, ErrMalformedRecord)

	_, err = Decode([]byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrMalformedRecord)

	// Right arity but an owner field that is not an address.
	bad, err := rlp.EncodeToBytes([]interface{}{
		uint64(1), uint64(0), uint64(0), uint64(0), uint64(0), uint64(0),
		[]byte{1, 2, 3}, uint64(5), alice, uint64(0), uint64(0),
	})
	require.NoError(t, err)
	_, err = Decode(bad)
	require.ErrorIs(t, err, ErrMalformedRecord)
}

func TestOutputsAndInputs(t *testing.T) {
	rec := sampleRecord()

	owner, amount, err := rec.Output(0)
	require.NoError(t, err)
	require.Equal(t, alice, owner)
	require.Equal(t, int64(7), amount.Int64())

	owner, amount, err = rec.Output(1)
	require.NoError(t, err)
	require.Equal(t, bob, owner)
	require.Equal(t, int64(3), amount.Int64())

	_, _, err = rec.Output(2)
	require.ErrorIs(t, err, ErrOutputIndex)

	in, err := rec.Input(1)
	require.NoError(t, err)
	require.Equal(t, utxo.NewPosition(1000, 4, 1), in)

	require.True(t, rec.Spends(utxo.NewPosition(1, 0, 0)))
	require.True(t, rec.Spends(utxo.NewPosition(1000, 4, 1)))
	require.False(t, rec.Spends(utxo.NewPosition(1000, 4, 0)))
}

func TestUtxoPosFromTx(t *testing.T) {
	b := sampleRecord().MustEncode()

	pos, err := UtxoPosFromTx(b, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(1_000_000_000), pos)

	pos, err = UtxoPosFromTx(b, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(1000*1_000_000_000+4*10_000+1), pos)

	_, err = UtxoPosFromTx(b, 2)
	require.ErrorIs(t, err, ErrInputIndex)
}

func TestHashIsOverRawBytes(t *testing.T) {
	b := sampleRecord().MustEncode()
	require.Equal(t, Hash(b), Hash(append([]byte(nil), b...)))
	require.NotEqual(t, Hash(b), Hash(append(b, 0x00)))
}
