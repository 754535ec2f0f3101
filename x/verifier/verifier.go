package verifier

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/compose-network/rootchain/x/merkle"
	"github.com/compose-network/rootchain/x/sigs"
	"github.com/compose-network/rootchain/x/txrecord"
	"github.com/compose-network/rootchain/x/utxo"
)

var (
	ErrMalformedRecord       = txrecord.ErrMalformedRecord
	ErrNotOwner              = errors.New("caller does not own the output")
	ErrInvalidSignature      = errors.New("invalid transfer signatures")
	ErrInvalidInclusionProof = errors.New("invalid inclusion proof")
	ErrNotADeposit           = errors.New("position is not a deposit")
	ErrDepositMismatch       = errors.New("deposit root mismatch")
	ErrBadConfirmation       = errors.New("bad confirmation signature")
)

// transferSigsLength is the signed prefix of sigs that enters the confirmation leaf.
const transferSigsLength = 2 * sigs.Length

// BlockReader resolves child block roots. Absent blocks return the zero hash.
type BlockReader interface {
	BlockRoot(number uint64) (common.Hash, error)
}

// Verifier checks exit and challenge proofs against committed child block roots.
type Verifier struct {
	blockInterval uint64
}

// New returns a Verifier for a chain with the given operator block interval.
func New(blockInterval uint64) *Verifier {
	return &Verifier{blockInterval: blockInterval}
}

// IsDeposit reports whether block lies in a deposit band.
func (v *Verifier) IsDeposit(block uint64) bool {
	return block%v.blockInterval != 0
}

// DepositRoot is the single-leaf root of the implicit deposit transaction.
func DepositRoot(owner common.Address, amount *big.Int) common.Hash {
	return crypto.Keccak256Hash(owner.Bytes(), common.LeftPadBytes(amount.Bytes(), 32))
}

// ConfirmationLeaf is the tree leaf committing to a transaction and its transfer signatures.
func ConfirmationLeaf(txHash common.Hash, transferSigs []byte) common.Hash {
	return crypto.Keccak256Hash(txHash.Bytes(), transferSigs)
}

// VerifyTransactionExit checks that caller owns output pos of txBytes and that the
// transaction was signed, confirmed and included in its block. It returns the
// output owner and amount.
func (v *Verifier) VerifyTransactionExit(
	blocks BlockReader,
	caller common.Address,
	pos utxo.Position,
	txBytes, proof, signatures []byte,
) (common.Address, *big.Int, error) {
	rec, err := txrecord.Decode(txBytes)
	if err != nil {
		return common.Address{}, nil, err
	}
	owner, amount, err := rec.Output(pos.OutputIndex)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if caller != owner {
		return common.Address{}, nil, fmt.Errorf("%w: caller %s, owner %s", ErrNotOwner, caller.Hex(), owner.Hex())
	}
	if len(signatures) < transferSigsLength {
		return common.Address{}, nil, fmt.Errorf("%w: %d signature bytes", ErrInvalidSignature, len(signatures))
	}

	root, err := blocks.BlockRoot(pos.Block)
	if err != nil {
		return common.Address{}, nil, fmt.Errorf("read block %d: %w", pos.Block, err)
	}

	txHash := txrecord.Hash(txBytes)
	leaf := ConfirmationLeaf(txHash, signatures[:transferSigsLength])

	if err := checkSigs(txHash, root, rec, signatures); err != nil {
		return common.Address{}, nil, err
	}
	if !merkle.CheckMembership(leaf, pos.TxIndex, root, proof) {
		return common.Address{}, nil, fmt.Errorf("%w: tx %d of block %d", ErrInvalidInclusionProof, pos.TxIndex, pos.Block)
	}
	return owner, amount, nil
}

// VerifyDepositExit checks that pos is a deposit of amount made by owner.
func (v *Verifier) VerifyDepositExit(
	blocks BlockReader,
	pos utxo.Position,
	owner common.Address,
	amount *big.Int,
) error {
	if !v.IsDeposit(pos.Block) || pos.TxIndex != 0 || pos.OutputIndex != 0 {
		return fmt.Errorf("%w: %s", ErrNotADeposit, pos)
	}
	root, err := blocks.BlockRoot(pos.Block)
	if err != nil {
		return fmt.Errorf("read block %d: %w", pos.Block, err)
	}
	if DepositRoot(owner, amount) != root {
		return fmt.Errorf("%w: block %d", ErrDepositMismatch, pos.Block)
	}
	return nil
}

// VerifyChallenge checks that expectedSigner confirmed the transaction at
// challengePos and that the transaction is included there. It returns the
// decoded challenging record.
func (v *Verifier) VerifyChallenge(
	blocks BlockReader,
	expectedSigner common.Address,
	challengePos utxo.Position,
	txBytes, proof, transferSigs, confirmationSig []byte,
) (*txrecord.Record, error) {
	rec, err := txrecord.Decode(txBytes)
	if err != nil {
		return nil, err
	}
	root, err := blocks.BlockRoot(challengePos.Block)
	if err != nil {
		return nil, fmt.Errorf("read block %d: %w", challengePos.Block, err)
	}

	txHash := txrecord.Hash(txBytes)
	signer, err := sigs.Recover(sigs.ConfirmationHash(txHash, root), confirmationSig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfirmation, err)
	}
	if signer != expectedSigner {
		return nil, fmt.Errorf("%w: signed by %s", ErrBadConfirmation, signer.Hex())
	}
	if !merkle.CheckMembership(ConfirmationLeaf(txHash, transferSigs), challengePos.TxIndex, root, proof) {
		return nil, fmt.Errorf("%w: challenge tx %s", ErrInvalidInclusionProof, challengePos)
	}
	return rec, nil
}

// checkSigs validates sigs = sig1 || sig2 || confSig1 [|| confSig2]: each spent
// input's transfer signer must also have confirmed the transaction in root.
func checkSigs(txHash, root common.Hash, rec *txrecord.Record, signatures []byte) error {
	n := len(signatures)
	if n%sigs.Length != 0 || n < 3*sigs.Length || n > 4*sigs.Length {
		return fmt.Errorf("%w: %d signature bytes", ErrInvalidSignature, n)
	}
	confHash := sigs.ConfirmationHash(txHash, root)

	if err := matchSigners(txHash, confHash, sigs.Slice(signatures, 0), sigs.Slice(signatures, 2)); err != nil {
		return fmt.Errorf("%w: input 0: %v", ErrInvalidSignature, err)
	}
	if rec.Blknum2 > 0 {
		confSig2 := sigs.Slice(signatures, 3)
		if confSig2 == nil {
			return fmt.Errorf("%w: input 1 has no confirmation signature", ErrInvalidSignature)
		}
		if err := matchSigners(txHash, confHash, sigs.Slice(signatures, 1), confSig2); err != nil {
			return fmt.Errorf("%w: input 1: %v", ErrInvalidSignature, err)
		}
	}
	return nil
}

func matchSigners(txHash, confHash common.Hash, transferSig, confSig []byte) error {
	signer, err := sigs.Recover(txHash, transferSig)
	if err != nil {
		return err
	}
	confirmer, err := sigs.Recover(confHash, confSig)
	if err != nil {
		return err
	}
	if signer != confirmer {
		return fmt.Errorf("transfer signed by %s, confirmed by %s", signer.Hex(), confirmer.Hex())
	}
	return nil
}
