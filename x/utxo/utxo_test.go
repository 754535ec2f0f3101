package utxo

import (
	"sort"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestPositionRoundTrip(t *testing.T) {
	cases := []Position{
		{Block: 0, TxIndex: 0, OutputIndex: 0},
		{Block: 1, TxIndex: 0, OutputIndex: 0},
		{Block: 1000, TxIndex: 3, OutputIndex: 1},
		{Block: 4000, TxIndex: 99_999, OutputIndex: 9_999},
		{Block: 12_345_678, TxIndex: 65_535, OutputIndex: 1},
	}
	for _, tc := range cases {
		t.Run(tc.String(), func(t *testing.T) {
			require.Equal(t, tc, DecodePosition(tc.Encode()))
		})
	}
}

func TestPositionEncode(t *testing.T) {
	require.Equal(t, uint64(1000_000_030_001), NewPosition(1000, 3, 1).Encode())
	require.Equal(t, uint64(1_000_000_000), NewPosition(1, 0, 0).Encode())

	p, err := ParsePosition("1000000030001")
	require.NoError(t, err)
	require.Equal(t, NewPosition(1000, 3, 1), p)

	_, err = ParsePosition("not-a-number")
	require.Error(t, err)
}

func TestPriorityPackLayout(t *testing.T) {
	p := NewPriority(1_700_000_000, NewPosition(2000, 1, 0))

	want := uint256.NewInt(1_700_000_000)
	want.Lsh(want, 128)
	want.Add(want, uint256.NewInt(NewPosition(2000, 1, 0).Encode()))
	require.Equal(t, want, p.Pack())

	got, err := UnpackPriority(p.Pack())
	require.NoError(t, err)
	require.Equal(t, p, got)

	b := p.Bytes()
	fromBytes, err := PriorityFromBytes(b[:])
	require.NoError(t, err)
	require.Equal(t, p, fromBytes)

	_, err = PriorityFromBytes([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrInvalidPriority)
}

func TestPriorityOrdering(t *testing.T) {
	items := []Priority{
		NewPriority(20, NewPosition(1, 0, 0)),
		NewPriority(10, NewPosition(3, 0, 0)),
		NewPriority(10, NewPosition(2, 0, 1)),
		NewPriority(10, NewPosition(2, 0, 0)),
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Less(items[j]) })

	require.Equal(t, NewPriority(10, NewPosition(2, 0, 0)), items[0])
	require.Equal(t, NewPriority(10, NewPosition(2, 0, 1)), items[1])
	require.Equal(t, NewPriority(10, NewPosition(3, 0, 0)), items[2])
	require.Equal(t, NewPriority(20, NewPosition(1, 0, 0)), items[3])

	// The packed form must order exactly like Less.
	for i := 1; i < len(items); i++ {
		require.Equal(t, -1, items[i-1].Pack().Cmp(items[i].Pack()))
	}
}
