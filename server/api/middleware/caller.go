package middleware

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/compose-network/rootchain/x/sigs"
)

const (
	// CallerKey is the context key for the authenticated caller address.
	CallerKey contextKey = "caller"
	// CallerNonceKey is the context key for the nonce the caller signed.
	CallerNonceKey contextKey = "caller_nonce"
)

const (
	// CallerSignatureHeader carries the caller's signature over RequestDigest.
	CallerSignatureHeader = "X-Caller-Signature"
	// CallerNonceHeader carries the decimal nonce bound into the signature.
	CallerNonceHeader = "X-Caller-Nonce"
)

// maxSignedBody bounds how much of a request body is buffered for signing.
const maxSignedBody = 1 << 20

// Domain identifies one root chain deployment. Signatures made for one domain
// do not verify against another.
func Domain(name string, operator common.Address) common.Hash {
	return crypto.Keccak256Hash([]byte(name), operator.Bytes())
}

// RequestDigest is the hash a caller signs:
// keccak256(domain || method || path || uint64be(nonce) || body).
func RequestDigest(domain common.Hash, method, path string, nonce uint64, body []byte) common.Hash {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return crypto.Keccak256Hash(domain.Bytes(), []byte(method), []byte(path), n[:], body)
}

// Caller recovers the request signer from CallerSignatureHeader and stores it,
// with its nonce, in the request context. Requests without the header pass
// through anonymously; a signed request without a nonce or with a signature
// that does not recover is rejected. Replay protection is left to the handler,
// which must reject a nonce the caller already used.
func Caller(domain common.Hash) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sigHex := r.Header.Get(CallerSignatureHeader)
			if sigHex == "" {
				next.ServeHTTP(w, r)
				return
			}

			sig, err := hexutil.Decode(sigHex)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "invalid_caller_signature", "caller signature is not 0x-hex")
				return
			}
			nonce, err := strconv.ParseUint(r.Header.Get(CallerNonceHeader), 10, 64)
			if err != nil || nonce == 0 {
				writeError(w, r, http.StatusUnauthorized, "invalid_caller_nonce",
					CallerNonceHeader+" must be a positive integer")
				return
			}

			var body []byte
			if r.Body != nil {
				body, err = io.ReadAll(io.LimitReader(r.Body, maxSignedBody))
				_ = r.Body.Close()
				if err != nil {
					writeError(w, r, http.StatusUnauthorized, "invalid_caller_signature", "failed to read request body")
					return
				}
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			addr, err := sigs.Recover(RequestDigest(domain, r.Method, r.URL.Path, nonce, body), sig)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, "invalid_caller_signature", "caller signature does not recover")
				return
			}

			if a := accessFrom(r.Context()); a != nil {
				a.setCaller(addr, nonce)
			}
			ctx := context.WithValue(r.Context(), CallerKey, addr)
			ctx = context.WithValue(ctx, CallerNonceKey, nonce)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFrom returns the address stored by Caller.
func CallerFrom(ctx context.Context) (common.Address, bool) {
	addr, ok := ctx.Value(CallerKey).(common.Address)
	return addr, ok
}

// CallerNonceFrom returns the nonce stored by Caller.
func CallerNonceFrom(ctx context.Context) (uint64, bool) {
	n, ok := ctx.Value(CallerNonceKey).(uint64)
	return n, ok
}

// SignRequest signs req for domain and nonce and sets both caller headers.
// body must be the exact bytes req will send.
func SignRequest(req *http.Request, domain common.Hash, nonce uint64, body []byte, sign func(common.Hash) ([]byte, error)) error {
	sig, err := sign(RequestDigest(domain, req.Method, req.URL.Path, nonce, body))
	if err != nil {
		return err
	}
	req.Header.Set(CallerSignatureHeader, hexutil.Encode(sig))
	req.Header.Set(CallerNonceHeader, strconv.FormatUint(nonce, 10))
	return nil
}
