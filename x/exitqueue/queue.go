package exitqueue

import (
	"errors"
	"fmt"

	"github.com/compose-network/rootchain/x/utxo"
)

var ErrEmptyQueue = errors.New("exit queue is empty")

// Slots is the heap array. Indices are 1-based; slot 0 is never used.
type Slots interface {
	Len() (uint64, error)
	SetLen(n uint64) error
	Get(i uint64) (utxo.Priority, error)
	Set(i uint64, p utxo.Priority) error
}

// Queue is a binary min-heap of exit priorities.
type Queue struct {
	slots Slots
}

// New returns a Queue over slots.
func New(slots Slots) *Queue {
	return &Queue{slots: slots}
}

// Size returns the number of queued exits.
func (q *Queue) Size() (uint64, error) {
	return q.slots.Len()
}

// Insert adds p and restores heap order.
func (q *Queue) Insert(p utxo.Priority) error {
	n, err := q.slots.Len()
	if err != nil {
		return err
	}
	n++
	if err := q.slots.SetLen(n); err != nil {
		return err
	}
	if err := q.slots.Set(n, p); err != nil {
		return err
	}
	return q.siftUp(n)
}

// PeekMin returns the lowest priority without removing it.
func (q *Queue) PeekMin() (utxo.Priority, error) {
	n, err := q.slots.Len()
	if err != nil {
		return utxo.Priority{}, err
	}
	if n == 0 {
		return utxo.Priority{}, ErrEmptyQueue
	}
	return q.slots.Get(1)
}

// PopMin removes and returns the lowest priority.
func (q *Queue) PopMin() (utxo.Priority, error) {
	n, err := q.slots.Len()
	if err != nil {
		return utxo.Priority{}, err
	}
	if n == 0 {
		return utxo.Priority{}, ErrEmptyQueue
	}
	head, err := q.slots.Get(1)
	if err != nil {
		return utxo.Priority{}, err
	}
	last, err := q.slots.Get(n)
	if err != nil {
		return utxo.Priority{}, err
	}
	if err := q.slots.SetLen(n - 1); err != nil {
		return utxo.Priority{}, err
	}
	if n == 1 {
		return head, nil
	}
	if err := q.slots.Set(1, last); err != nil {
		return utxo.Priority{}, err
	}
	if err := q.siftDown(1, n-1); err != nil {
		return utxo.Priority{}, err
	}
	return head, nil
}

func (q *Queue) siftUp(i uint64) error {
	cur, err := q.slots.Get(i)
	if err != nil {
		return err
	}
	for i > 1 {
		parentIdx := i / 2
		parent, err := q.slots.Get(parentIdx)
		if err != nil {
			return err
		}
		if !cur.Less(parent) {
			break
		}
		if err := q.slots.Set(i, parent); err != nil {
			return err
		}
		i = parentIdx
	}
	return q.slots.Set(i, cur)
}

func (q *Queue) siftDown(i, n uint64) error {
	cur, err := q.slots.Get(i)
	if err != nil {
		return err
	}
	for 2*i <= n {
		childIdx := 2 * i
		child, err := q.slots.Get(childIdx)
		if err != nil {
			return err
		}
		if childIdx+1 <= n {
			right, err := q.slots.Get(childIdx + 1)
			if err != nil {
				return err
			}
			if right.Less(child) {
				childIdx, child = childIdx+1, right
			}
		}
		if !child.Less(cur) {
			break
		}
		if err := q.slots.Set(i, child); err != nil {
			return err
		}
		i = childIdx
	}
	return q.slots.Set(i, cur)
}

// MemorySlots keeps the heap array in a slice.
type MemorySlots struct {
	items []utxo.Priority
}

// NewMemorySlots returns empty in-memory slots.
func NewMemorySlots() *MemorySlots {
	return &MemorySlots{items: []utxo.Priority{{}}}
}

func (m *MemorySlots) Len() (uint64, error) {
	return uint64(len(m.items) - 1), nil
}

func (m *MemorySlots) SetLen(n uint64) error {
	switch {
	case n+1 < uint64(len(m.items)):
		m.items = m.items[:n+1]
	case n+1 > uint64(len(m.items)):
		m.items = append(m.items, make([]utxo.Priority, n+1-uint64(len(m.items)))...)
	}
	return nil
}

func (m *MemorySlots) Get(i uint64) (utxo.Priority, error) {
	if i == 0 || i >= uint64(len(m.items)) {
		return utxo.Priority{}, fmt.Errorf("exit queue slot %d out of range", i)
	}
	return m.items[i], nil
}

func (m *MemorySlots) Set(i uint64, p utxo.Priority) error {
	if i == 0 || i >= uint64(len(m.items)) {
		return fmt.Errorf("exit queue slot %d out of range", i)
	}
	m.items[i] = p
	return nil
}
