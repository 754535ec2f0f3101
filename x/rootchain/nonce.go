package rootchain

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

type nonceKey struct{}

// WithCallerNonce attaches the nonce a caller signed its request with. An
// operation run under this context records the nonce for its caller and is
// rejected with ErrStaleNonce unless the nonce is above the last one recorded.
func WithCallerNonce(ctx context.Context, nonce uint64) context.Context {
	return context.WithValue(ctx, nonceKey{}, nonce)
}

// CallerNonceFrom returns the nonce set by WithCallerNonce.
func CallerNonceFrom(ctx context.Context) (uint64, bool) {
	n, ok := ctx.Value(nonceKey{}).(uint64)
	return n, ok
}

func (s reader) nonce(addr common.Address) (uint64, error) {
	b, err := s.r.Get(bucketNonces, addr.Bytes())
	if err != nil || b == nil {
		return 0, err
	}
	return decodeU64(b)
}

// useNonce records nonce as the last one caller used.
func (l *ledger) useNonce(caller common.Address, nonce uint64) error {
	last, err := l.nonce(caller)
	if err != nil {
		return err
	}
	if nonce <= last {
		return fmt.Errorf("%w: %d, last used %d", ErrStaleNonce, nonce, last)
	}
	return l.tx.Put(bucketNonces, caller.Bytes(), u64Key(nonce))
}

// updateAs is update on behalf of caller. A nonce carried by ctx is consumed in
// the same Update, so a rejected operation leaves it unused.
func (c *RootChain) updateAs(ctx context.Context, op string, caller common.Address, fn func(l *ledger) error) error {
	return c.update(ctx, op, func(l *ledger) error {
		if nonce, ok := CallerNonceFrom(ctx); ok {
			if err := l.useNonce(caller, nonce); err != nil {
				return err
			}
		}
		return fn(l)
	})
}

// CallerNonce returns the last nonce addr signed an accepted operation with, or 0.
func (c *RootChain) CallerNonce(ctx context.Context, addr common.Address) (uint64, error) {
	var n uint64
	err := c.view(ctx, func(r reader) error {
		var err error
		n, err = r.nonce(addr)
		return err
	})
	return n, err
}
