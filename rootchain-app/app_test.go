package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/compose-network/rootchain/rootchain-app/config"
	apimw "github.com/compose-network/rootchain/server/api/middleware"
	"github.com/compose-network/rootchain/x/sigs"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("ROOTCHAIN_OPERATOR", "0x00000000000000000000000000000000000000aa")
	cfg, err := config.Load("")
	require.NoError(t, err)

	app, err := NewApp(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.store.Close() })
	return app
}

func get(t *testing.T, app *App, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	app.apiServer.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestAppRoutes(t *testing.T) {
	app := newTestApp(t)

	require.Equal(t, http.StatusOK, get(t, app, "/health").Code)
	require.Equal(t, http.StatusServiceUnavailable, get(t, app, "/ready").Code)

	app.ready.Store(true)
	require.Equal(t, http.StatusOK, get(t, app, "/ready").Code)

	rec := get(t, app, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	require.Equal(t, float64(1000), stats["current_child_block"])
	require.Contains(t, stats, "finalizer")

	rec = get(t, app, "/v1/status")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = get(t, app, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "rootchain_current_child_block")
}

func TestAppRejectsBadConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Store.Backend = "memory"
	_, err := NewApp(context.Background(), cfg, zerolog.Nop())
	require.Error(t, err)
}

func TestAppSignedDepositIsNotReplayable(t *testing.T) {
	app := newTestApp(t)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	body := []byte(`{"amount":"5"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/deposits", bytes.NewReader(body))
	domain := apimw.Domain(app.cfg.API.SignatureDomain, app.chain.Operator())
	require.NoError(t, apimw.SignRequest(req, domain, 1, body, func(h common.Hash) ([]byte, error) {
		return sigs.Sign(h, key)
	}))

	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		replay := httptest.NewRequest(http.MethodPost, "/v1/deposits", bytes.NewReader(body))
		replay.Header = req.Header.Clone()
		rec := httptest.NewRecorder()
		app.apiServer.Handler().ServeHTTP(rec, replay)
		require.Equal(t, want, rec.Code, "attempt %d: %s", i, rec.Body.String())
	}

	escrow, err := app.chain.Escrow(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(5), escrow.Int64())
}

func TestAppLogsEventsCommittedBeforeWatcherRuns(t *testing.T) {
	app := newTestApp(t)
	w := app.subscribeEvents()

	_, err := app.chain.Deposit(context.Background(), common.HexToAddress("0x0b"), big.NewInt(3))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.watchEvents(ctx, w)

	require.Eventually(t, func() bool {
		return app.eventsSeen.Load() == 1
	}, time.Second, 10*time.Millisecond)
}
