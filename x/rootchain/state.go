package rootchain

import (
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/compose-network/rootchain/x/exitqueue"
	"github.com/compose-network/rootchain/x/store"
	"github.com/compose-network/rootchain/x/utxo"
)

var (
	bucketMeta     = []byte("meta")
	bucketBlocks   = []byte("blocks")
	bucketExits    = []byte("exits")
	bucketQueue    = []byte("queue")
	bucketBalances = []byte("balances")
	bucketNonces   = []byte("nonces")

	keyChildBlock    = []byte("current_child_block")
	keyDepositBlock  = []byte("current_deposit_block")
	keyFeeExit       = []byte("current_fee_exit")
	keyBlockInterval = []byte("child_block_interval")
	keyEscrow        = []byte("escrow")
	keyQueueLen      = []byte("len")
)

func u64Key(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}

func decodeU64(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("rootchain: corrupt counter of %d bytes", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

type storedExit struct {
	Owner  common.Address
	Amount *big.Int
	Status string
}

// reader is typed access to committed state.
type reader struct {
	r store.Reader
}

func (s reader) u64(key []byte) (uint64, error) {
	b, err := s.r.Get(bucketMeta, key)
	if err != nil || b == nil {
		return 0, err
	}
	return decodeU64(b)
}

func (s reader) childBlock() (uint64, error)   { return s.u64(keyChildBlock) }
func (s reader) depositBlock() (uint64, error) { return s.u64(keyDepositBlock) }
func (s reader) feeExit() (uint64, error)      { return s.u64(keyFeeExit) }

// block returns the block at number, or nil if none was committed.
func (s reader) block(number uint64) (*Block, error) {
	b, err := s.r.Get(bucketBlocks, u64Key(number))
	if err != nil || b == nil {
		return nil, err
	}
	var blk Block
	if err := rlp.DecodeBytes(b, &blk); err != nil {
		return nil, fmt.Errorf("rootchain: corrupt block %d: %w", number, err)
	}
	return &blk, nil
}

// BlockRoot implements verifier.BlockReader.
func (s reader) BlockRoot(number uint64) (common.Hash, error) {
	blk, err := s.block(number)
	if err != nil || blk == nil {
		return common.Hash{}, err
	}
	return blk.Root, nil
}

// exit returns the record at pos, or nil if no exit was ever started there.
func (s reader) exit(pos uint64) (*Exit, error) {
	b, err := s.r.Get(bucketExits, u64Key(pos))
	if err != nil || b == nil {
		return nil, err
	}
	var e storedExit
	if err := rlp.DecodeBytes(b, &e); err != nil {
		return nil, fmt.Errorf("rootchain: corrupt exit %d: %w", pos, err)
	}
	return &Exit{Owner: e.Owner, Amount: e.Amount, Status: ExitStatus(e.Status)}, nil
}

func (s reader) bigValue(bucket, key []byte) (*big.Int, error) {
	b, err := s.r.Get(bucket, key)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

func (s reader) balance(addr common.Address) (*big.Int, error) {
	return s.bigValue(bucketBalances, addr.Bytes())
}

func (s reader) escrow() (*big.Int, error) {
	return s.bigValue(bucketMeta, keyEscrow)
}

func (s reader) queue() *exitqueue.Queue {
	return exitqueue.New(querySlots{r: s.r})
}

// ledger is typed read-write access inside one Update. Events queued with emit are
// delivered only after the Update commits.
type ledger struct {
	reader
	tx     store.Tx
	events []func()
}

func newLedger(tx store.Tx) *ledger {
	return &ledger{reader: reader{r: tx}, tx: tx}
}

func (l *ledger) emit(fn func()) {
	l.events = append(l.events, fn)
}

func (l *ledger) putU64(key []byte, v uint64) error {
	return l.tx.Put(bucketMeta, key, u64Key(v))
}

func (l *ledger) setChildBlock(v uint64) error   { return l.putU64(keyChildBlock, v) }
func (l *ledger) setDepositBlock(v uint64) error { return l.putU64(keyDepositBlock, v) }
func (l *ledger) setFeeExit(v uint64) error      { return l.putU64(keyFeeExit, v) }

func (l *ledger) putBlock(number uint64, blk Block) error {
	b, err := rlp.EncodeToBytes(&blk)
	if err != nil {
		return err
	}
	return l.tx.Put(bucketBlocks, u64Key(number), b)
}

func (l *ledger) putExit(pos uint64, e *Exit) error {
	amount := e.Amount
	if amount == nil {
		amount = new(big.Int)
	}
	b, err := rlp.EncodeToBytes(&storedExit{Owner: e.Owner, Amount: amount, Status: string(e.Status)})
	if err != nil {
		return err
	}
	return l.tx.Put(bucketExits, u64Key(pos), b)
}

func (l *ledger) addBig(bucket, key []byte, delta *big.Int) (*big.Int, error) {
	cur, err := l.bigValue(bucket, key)
	if err != nil {
		return nil, err
	}
	next := cur.Add(cur, delta)
	if next.Sign() < 0 {
		return nil, ErrInsufficientEscrow
	}
	return next, l.tx.Put(bucket, key, next.Bytes())
}

func (l *ledger) credit(addr common.Address, amount *big.Int) error {
	_, err := l.addBig(bucketBalances, addr.Bytes(), amount)
	return err
}

func (l *ledger) lock(amount *big.Int) error {
	_, err := l.addBig(bucketMeta, keyEscrow, amount)
	return err
}

func (l *ledger) release(amount *big.Int) error {
	_, err := l.addBig(bucketMeta, keyEscrow, new(big.Int).Neg(amount))
	return err
}

func (l *ledger) queue() *exitqueue.Queue {
	return exitqueue.New(txSlots{querySlots: querySlots{r: l.tx}, tx: l.tx})
}

// querySlots reads the persisted heap array.
type querySlots struct {
	r store.Reader
}

func (s querySlots) Len() (uint64, error) {
	b, err := s.r.Get(bucketQueue, keyQueueLen)
	if err != nil || b == nil {
		return 0, err
	}
	return decodeU64(b)
}

func (s querySlots) SetLen(uint64) error {
	return store.ErrReadOnly
}

func (s querySlots) Get(i uint64) (utxo.Priority, error) {
	b, err := s.r.Get(bucketQueue, u64Key(i))
	if err != nil {
		return utxo.Priority{}, err
	}
	if b == nil {
		return utxo.Priority{}, fmt.Errorf("rootchain: queue slot %d missing", i)
	}
	return utxo.PriorityFromBytes(b)
}

func (s querySlots) Set(uint64, utxo.Priority) error {
	return store.ErrReadOnly
}

// txSlots persists the heap array inside an Update so it rolls back with the operation.
type txSlots struct {
	querySlots
	tx store.Tx
}

func (s txSlots) SetLen(n uint64) error {
	old, err := s.Len()
	if err != nil {
		return err
	}
	for i := n + 1; i <= old; i++ {
		if err := s.tx.Delete(bucketQueue, u64Key(i)); err != nil {
			return err
		}
	}
	return s.tx.Put(bucketQueue, keyQueueLen, u64Key(n))
}

func (s txSlots) Set(i uint64, p utxo.Priority) error {
	b := p.Bytes()
	return s.tx.Put(bucketQueue, u64Key(i), b[:])
}
