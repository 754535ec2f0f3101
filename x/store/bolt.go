package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const fileMode = 0600

var _ Store = (*Bolt)(nil)

// Bolt is a durable Store backed by a single bbolt file. bbolt allows one
// writer at a time, which gives Update its serial ordering.
type Bolt struct {
	db   *bolt.DB
	path string
}

// OpenBolt opens (or creates) the database at path.
func OpenBolt(path string) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create dir %s: %w", dir, err)
		}
	}
	db, err := bolt.Open(path, fileMode, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bolt %s: %w", path, err)
	}
	return &Bolt{db: db, path: path}, nil
}

func (b *Bolt) View(ctx context.Context, fn func(Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.View(func(tx *bolt.Tx) error {
		return fn(boltTx{tx: tx})
	})
}

func (b *Bolt) Update(ctx context.Context, fn func(Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return fn(boltTx{tx: tx})
	})
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

type boltTx struct {
	tx *bolt.Tx
}

func (t boltTx) Get(bucket, key []byte) ([]byte, error) {
	bk := t.tx.Bucket(bucket)
	if bk == nil {
		return nil, nil
	}
	// bbolt values are only valid for the life of the transaction.
	return clone(bk.Get(key)), nil
}

func (t boltTx) Put(bucket, key, value []byte) error {
	bk, err := t.tx.CreateBucketIfNotExists(bucket)
	if err != nil {
		return fmt.Errorf("store: bucket %s: %w", bucket, err)
	}
	if value == nil {
		value = []byte{}
	}
	return bk.Put(key, value)
}

func (t boltTx) Delete(bucket, key []byte) error {
	bk := t.tx.Bucket(bucket)
	if bk == nil {
		return nil
	}
	return bk.Delete(key)
}
