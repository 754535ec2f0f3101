package exitqueue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/compose-network/rootchain/x/utxo"
)

func TestQueue_EmptyErrors(t *testing.T) {
	q := New(NewMemorySlots())

	_, err := q.PeekMin()
	require.ErrorIs(t, err, ErrEmptyQueue)
	_, err = q.PopMin()
	require.ErrorIs(t, err, ErrEmptyQueue)

	size, err := q.Size()
	require.NoError(t, err)
	require.Zero(t, size)
}

func TestQueue_PopsInOrder(t *testing.T) {
	q := New(NewMemorySlots())
	rng := rand.New(rand.NewSource(7))

	var want []utxo.Priority
	for i := 0; i < 200; i++ {
		p := utxo.NewPriority(uint64(rng.Intn(50)), utxo.NewPosition(uint64(i+1), 0, 0))
		want = append(want, p)
		require.NoError(t, q.Insert(p))
	}
	sort.Slice(want, func(i, j int) bool { return want[i].Less(want[j]) })

	size, err := q.Size()
	require.NoError(t, err)
	require.Equal(t, uint64(len(want)), size)

	for i, w := range want {
		head, err := q.PeekMin()
		require.NoError(t, err)
		require.Equal(t, w, head, "peek %d", i)

		got, err := q.PopMin()
		require.NoError(t, err)
		require.Equal(t, w, got, "pop %d", i)
	}

	size, err = q.Size()
	require.NoError(t, err)
	require.Zero(t, size)
}

func TestQueue_TieBreaksOnPosition(t *testing.T) {
	q := New(NewMemorySlots())
	require.NoError(t, q.Insert(utxo.NewPriority(100, utxo.NewPosition(3000, 0, 0))))
	require.NoError(t, q.Insert(utxo.NewPriority(100, utxo.NewPosition(1, 0, 0))))
	require.NoError(t, q.Insert(utxo.NewPriority(100, utxo.NewPosition(2000, 5, 1))))

	var got []uint64
	for i := 0; i < 3; i++ {
		p, err := q.PopMin()
		require.NoError(t, err)
		got = append(got, p.UtxoPosition().Block)
	}
	require.Equal(t, []uint64{1, 2000, 3000}, got)
}

func TestQueue_InterleavedInsertPop(t *testing.T) {
	q := New(NewMemorySlots())
	require.NoError(t, q.Insert(utxo.NewPriority(5, utxo.NewPosition(1, 0, 0))))
	require.NoError(t, q.Insert(utxo.NewPriority(3, utxo.NewPosition(2, 0, 0))))

	p, err := q.PopMin()
	require.NoError(t, err)
	require.Equal(t, uint64(3), p.Timestamp)

	require.NoError(t, q.Insert(utxo.NewPriority(1, utxo.NewPosition(3, 0, 0))))
	require.NoError(t, q.Insert(utxo.NewPriority(9, utxo.NewPosition(4, 0, 0))))

	for _, ts := range []uint64{1, 5, 9} {
		p, err := q.PopMin()
		require.NoError(t, err)
		require.Equal(t, ts, p.Timestamp)
	}
}
