package store

import (
	"context"
	"sync"
)

var _ Store = (*Memory)(nil)

// Memory is an in-memory Store; suitable for tests and single-instance devnets.
type Memory struct {
	mu     sync.RWMutex
	data   map[string]map[string][]byte
	closed bool
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string][]byte)}
}

func (m *Memory) View(ctx context.Context, fn func(Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return fn(&memTx{base: m.data})
}

func (m *Memory) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	tx := &memTx{base: m.data, writes: make(map[string]map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}

	for bucket, kv := range tx.writes {
		dst := m.data[bucket]
		if dst == nil {
			dst = make(map[string][]byte)
			m.data[bucket] = dst
		}
		for k, v := range kv {
			if v == nil {
				delete(dst, k)
				continue
			}
			dst[k] = v
		}
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// memTx overlays pending writes on the committed data. A nil value in writes is a delete.
type memTx struct {
	base   map[string]map[string][]byte
	writes map[string]map[string][]byte
}

func (t *memTx) Get(bucket, key []byte) ([]byte, error) {
	if kv, ok := t.writes[string(bucket)]; ok {
		if v, ok := kv[string(key)]; ok {
			return clone(v), nil
		}
	}
	return clone(t.base[string(bucket)][string(key)]), nil
}

func (t *memTx) Put(bucket, key, value []byte) error {
	if t.writes == nil {
		return ErrReadOnly
	}
	kv := t.writes[string(bucket)]
	if kv == nil {
		kv = make(map[string][]byte)
		t.writes[string(bucket)] = kv
	}
	v := clone(value)
	if v == nil {
		v = []byte{}
	}
	kv[string(key)] = v
	return nil
}

func (t *memTx) Delete(bucket, key []byte) error {
	if t.writes == nil {
		return ErrReadOnly
	}
	kv := t.writes[string(bucket)]
	if kv == nil {
		kv = make(map[string][]byte)
		t.writes[string(bucket)] = kv
	}
	kv[string(key)] = nil
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
