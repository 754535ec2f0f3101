package http

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/facebookgo/clock"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/rootchain/server/api/middleware"
	"github.com/compose-network/rootchain/x/rootchain"
	"github.com/compose-network/rootchain/x/sigs"
	"github.com/compose-network/rootchain/x/store"
)

type testEnv struct {
	t        *testing.T
	handler  http.Handler
	router   *mux.Router
	clk      *clock.Mock
	domain   common.Hash
	operator *ecdsa.PrivateKey
	alice    *ecdsa.PrivateKey
	nonces   map[*ecdsa.PrivateKey]uint64
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	operator, err := crypto.GenerateKey()
	require.NoError(t, err)
	alice, err := crypto.GenerateKey()
	require.NoError(t, err)

	clk := clock.NewMock()
	clk.Add(1_700_000_000 * time.Second)

	cfg := rootchain.DefaultConfig()
	cfg.Operator = crypto.PubkeyToAddress(operator.PublicKey).Hex()
	chain, err := rootchain.New(context.Background(), zerolog.Nop(), store.NewMemory(), cfg, rootchain.WithClock(clk))
	require.NoError(t, err)

	r := mux.NewRouter()
	NewHandler(chain, zerolog.Nop()).RegisterMux(r)
	domain := middleware.Domain("test", chain.Operator())

	return &testEnv{
		t:        t,
		handler:  middleware.RequestID()(middleware.Caller(domain)(r)),
		router:   r,
		clk:      clk,
		domain:   domain,
		operator: operator,
		alice:    alice,
		nonces:   make(map[*ecdsa.PrivateKey]uint64),
	}
}

// request builds a JSON request, signed by key with nonce when key is non-nil.
func (e *testEnv) request(method, path string, body any, key *ecdsa.PrivateKey, domain common.Hash, nonce uint64) *http.Request {
	e.t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(e.t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if key != nil {
		err := middleware.SignRequest(req, domain, nonce, raw, func(h common.Hash) ([]byte, error) {
			return sigs.Sign(h, key)
		})
		require.NoError(e.t, err)
	}
	return req
}

func (e *testEnv) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// do sends body as JSON, signed by key with its next nonce when key is non-nil.
func (e *testEnv) do(method, path string, body any, key *ecdsa.PrivateKey) *httptest.ResponseRecorder {
	e.t.Helper()
	var nonce uint64
	if key != nil {
		e.nonces[key]++
		nonce = e.nonces[key]
	}
	return e.serve(e.request(method, path, body, key, e.domain, nonce))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, rec)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok, "no error object in %s", rec.Body.String())
	return errObj["code"].(string)
}

func TestHandler_DepositExitFinalize(t *testing.T) {
	e := newTestEnv(t)
	alice := crypto.PubkeyToAddress(e.alice.PublicKey)

	rec := e.do(http.MethodPost, routeDeposits, map[string]any{"amount": "5"}, e.alice)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.Equal(t, float64(1), body["block"])
	require.Equal(t, float64(1_000_000_000), body["deposit_pos"])

	rec = e.do(http.MethodGet, routeNextDeposit, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, float64(2), decodeBody(t, rec)["block"])

	u, err := e.router.Get(routeNameBlockByNumber).URL("number", "1")
	require.NoError(t, err)
	rec = e.do(http.MethodGet, u.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(http.MethodPost, routeDepositExits, map[string]any{"deposit_pos": 1_000_000_000, "amount": "5"}, e.alice)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	rec = e.do(http.MethodPost, routeDepositExits, map[string]any{"deposit_pos": 1_000_000_000, "amount": "5"}, e.alice)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "duplicate_exit", errorCode(t, rec))

	rec = e.do(http.MethodGet, routeNextExit, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	next := decodeBody(t, rec)
	require.Equal(t, "pending", next["status"])
	require.Equal(t, "1:0:0", next["position"])

	e.clk.Add(rootchain.DefaultChallengePeriod + time.Second)
	rec = e.do(http.MethodPost, routeFinalize, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, []any{float64(1_000_000_000)}, decodeBody(t, rec)["paid"])

	u, err = e.router.Get(routeNameBalance).URL("address", alice.Hex())
	require.NoError(t, err)
	rec = e.do(http.MethodGet, u.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "5", decodeBody(t, rec)["balance"])

	u, err = e.router.Get(routeNameExitByPos).URL("pos", "1000000000")
	require.NoError(t, err)
	rec = e.do(http.MethodGet, u.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "finalized", decodeBody(t, rec)["status"])

	rec = e.do(http.MethodGet, routeNextExit, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "empty_queue", errorCode(t, rec))
}

func TestHandler_OperatorRoutes(t *testing.T) {
	e := newTestEnv(t)
	root := common.HexToHash("0x" + "ab")

	rec := e.do(http.MethodPost, routeBlocks, map[string]any{"root": root}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "missing_caller", errorCode(t, rec))

	rec = e.do(http.MethodPost, routeBlocks, map[string]any{"root": root}, e.alice)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "unauthorized", errorCode(t, rec))

	rec = e.do(http.MethodPost, routeBlocks, map[string]any{"root": root}, e.operator)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Equal(t, float64(1000), decodeBody(t, rec)["number"])

	rec = e.do(http.MethodPost, routeFeeExits, map[string]any{"amount": "0x2"}, e.operator)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Equal(t, float64(1), decodeBody(t, rec)["utxo_pos"])

	rec = e.do(http.MethodGet, routeStatus, nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decodeBody(t, rec)
	require.Equal(t, float64(2000), status["current_child_block"])
	require.Equal(t, float64(1), status["queued_exits"])
}

func TestHandler_BadRequests(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodPost, routeDeposits, map[string]any{"amount": "0"}, e.alice)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Equal(t, "zero_deposit", errorCode(t, rec))

	rec = e.do(http.MethodPost, routeDeposits, map[string]any{"value": "1"}, e.alice)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_json", errorCode(t, rec))

	u, err := e.router.Get(routeNameBlockByNumber).URL("number", "7")
	require.NoError(t, err)
	rec = e.do(http.MethodGet, u.String(), nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(http.MethodGet, routeUtxoPos+"?tx=zz", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(http.MethodGet, "/v1/balances/nope", nil, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_SignedRequestCannotBeReplayed(t *testing.T) {
	e := newTestEnv(t)

	req := e.request(http.MethodPost, routeFeeExits, map[string]any{"amount": "0x2"}, e.operator, e.domain, 1)
	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)

	send := func() *httptest.ResponseRecorder {
		replay := httptest.NewRequest(http.MethodPost, routeFeeExits, bytes.NewReader(body))
		replay.Header = req.Header.Clone()
		return e.serve(replay)
	}

	rec := send()
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	require.Equal(t, float64(1), decodeBody(t, rec)["utxo_pos"])

	for i := 0; i < 2; i++ {
		rec = send()
		require.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
		require.Equal(t, "stale_nonce", errorCode(t, rec))
	}

	rec = e.do(http.MethodGet, routeStatus, nil, nil)
	require.Equal(t, float64(1), decodeBody(t, rec)["queued_exits"])

	u, err := e.router.Get(routeNameNonce).URL("address", crypto.PubkeyToAddress(e.operator.PublicKey).Hex())
	require.NoError(t, err)
	rec = e.do(http.MethodGet, u.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	nonce := decodeBody(t, rec)
	require.Equal(t, float64(1), nonce["nonce"])
	require.Equal(t, float64(2), nonce["next"])
}

func TestHandler_SignatureBoundToDomain(t *testing.T) {
	e := newTestEnv(t)
	other := middleware.Domain("other", crypto.PubkeyToAddress(e.operator.PublicKey))

	rec := e.serve(e.request(http.MethodPost, routeFeeExits, map[string]any{"amount": "2"}, e.operator, other, 1))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "unauthorized", errorCode(t, rec))

	rec = e.do(http.MethodGet, routeStatus, nil, nil)
	require.Equal(t, float64(0), decodeBody(t, rec)["queued_exits"])
}

func TestHandler_RejectedOperationLeavesNonceUnused(t *testing.T) {
	e := newTestEnv(t)

	rec := e.serve(e.request(http.MethodPost, routeDeposits, map[string]any{"amount": "0"}, e.alice, e.domain, 7))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = e.serve(e.request(http.MethodPost, routeDeposits, map[string]any{"amount": "3"}, e.alice, e.domain, 7))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.serve(e.request(http.MethodPost, routeDeposits, map[string]any{"amount": "4"}, e.alice, e.domain, 5))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, "stale_nonce", errorCode(t, rec))

	req := e.request(http.MethodPost, routeDeposits, map[string]any{"amount": "4"}, e.alice, e.domain, 8)
	req.Header.Del(middleware.CallerNonceHeader)
	rec = e.serve(req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "invalid_caller_nonce", errorCode(t, rec))
}
