// Package childchain builds child-chain blocks the way an operator or wallet
// would: signed transactions, block roots, inclusion proofs and confirmation
// signatures accepted by the root chain.
package childchain

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/compose-network/rootchain/x/merkle"
	"github.com/compose-network/rootchain/x/sigs"
	"github.com/compose-network/rootchain/x/txrecord"
	"github.com/compose-network/rootchain/x/verifier"
)

// SignedTx is an encoded record with its two transfer signatures.
type SignedTx struct {
	Record *txrecord.Record
	Bytes  []byte
	// TransferSigs is sig1 || sig2; sig2 is zero-filled for single-input transactions.
	TransferSigs []byte
}

// Hash returns the transaction digest.
func (tx *SignedTx) Hash() common.Hash {
	return txrecord.Hash(tx.Bytes)
}

// Leaf returns the confirmation leaf committed into the block tree.
func (tx *SignedTx) Leaf() common.Hash {
	return verifier.ConfirmationLeaf(tx.Hash(), tx.TransferSigs)
}

// SignTx encodes rec and signs it with the owners of its inputs. key2 may be nil.
func SignTx(rec *txrecord.Record, key1, key2 *ecdsa.PrivateKey) (*SignedTx, error) {
	b, err := rec.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	h := txrecord.Hash(b)

	transfer := make([]byte, 2*sigs.Length)
	sig1, err := sigs.Sign(h, key1)
	if err != nil {
		return nil, fmt.Errorf("sign input 0: %w", err)
	}
	copy(transfer, sig1)
	if key2 != nil {
		sig2, err := sigs.Sign(h, key2)
		if err != nil {
			return nil, fmt.Errorf("sign input 1: %w", err)
		}
		copy(transfer[sigs.Length:], sig2)
	}

	return &SignedTx{Record: rec, Bytes: b, TransferSigs: transfer}, nil
}

// Confirm produces the confirmation signature of key over tx included in root.
func Confirm(tx *SignedTx, root common.Hash, key *ecdsa.PrivateKey) ([]byte, error) {
	return sigs.Sign(sigs.ConfirmationHash(tx.Hash(), root), key)
}

// ExitSignatures returns the signature blob startExit expects: transfer sigs followed by confirmations.
func ExitSignatures(tx *SignedTx, confirmations ...[]byte) []byte {
	out := append([]byte(nil), tx.TransferSigs...)
	for _, c := range confirmations {
		out = append(out, c...)
	}
	return out
}

// Block is a child block under construction.
type Block struct {
	Txs  []*SignedTx
	tree *merkle.Tree
}

// NewBlock builds the transaction tree over txs in order.
func NewBlock(txs ...*SignedTx) (*Block, error) {
	leaves := make([]common.Hash, len(txs))
	for i, tx := range txs {
		leaves[i] = tx.Leaf()
	}
	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return nil, err
	}
	return &Block{Txs: txs, tree: tree}, nil
}

// Root is the value the operator submits to the root chain.
func (b *Block) Root() common.Hash {
	return b.tree.Root()
}

// Proof returns the inclusion proof of the transaction at index.
func (b *Block) Proof(index uint64) ([]byte, error) {
	return b.tree.Proof(index)
}
