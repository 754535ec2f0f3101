package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/event"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/compose-network/rootchain/metrics"
	"github.com/compose-network/rootchain/rootchain-app/config"
	apisrv "github.com/compose-network/rootchain/server/api"
	apimw "github.com/compose-network/rootchain/server/api/middleware"
	"github.com/compose-network/rootchain/x/finalizer"
	"github.com/compose-network/rootchain/x/rootchain"
	rchttp "github.com/compose-network/rootchain/x/rootchain/http"
	"github.com/compose-network/rootchain/x/store"
)

// App represents the root chain application
type App struct {
	cfg *config.Config
	log zerolog.Logger

	store     store.Store
	chain     *rootchain.RootChain
	finalizer finalizer.Service
	apiServer *apisrv.Server

	started    time.Time
	ready      atomic.Bool
	eventsSeen atomic.Uint64

	cancel context.CancelFunc
}

// NewApp creates a new application instance
func NewApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{
		cfg: cfg,
		log: log.With().Str("component", "app").Logger(),
	}

	if err := app.initialize(ctx, log); err != nil {
		if app.store != nil {
			_ = app.store.Close()
		}
		return nil, fmt.Errorf("failed to initialize app: %w", err)
	}

	return app, nil
}

// initialize sets up the application components
func (a *App) initialize(ctx context.Context, log zerolog.Logger) error {
	st, err := store.Open(a.cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	a.store = st

	chain, err := rootchain.New(ctx, log, st, a.cfg.RootChain, rootchain.WithMetrics(rootchain.NewMetrics()))
	if err != nil {
		return fmt.Errorf("failed to create root chain: %w", err)
	}
	a.chain = chain

	if a.cfg.Finalizer.Enabled {
		svc, err := finalizer.New(finalizer.Config{
			Logger:    log.With().Str("component", "finalizer").Logger(),
			Chain:     chain,
			Interval:  a.cfg.Finalizer.Interval,
			MaxRounds: a.cfg.Finalizer.MaxRounds,
		})
		if err != nil {
			return fmt.Errorf("failed to create finalizer: %w", err)
		}
		a.finalizer = svc
	}

	a.initializeAPIServer(log)
	return nil
}

// initializeAPIServer sets up the HTTP API server with all endpoints
func (a *App) initializeAPIServer(log zerolog.Logger) {
	s := apisrv.NewServer(a.cfg.API, log)
	s.Use(apimw.Recover(a.log))
	s.Use(apimw.RequestID())
	s.Use(apimw.Logger(a.log))
	s.Use(apimw.Caller(apimw.Domain(a.cfg.API.SignatureDomain, a.chain.Operator())))
	if a.cfg.API.CORS {
		s.EnableCORS()
	}

	// Health/readiness/stats
	s.Router.HandleFunc("/health", a.handleHealth).Methods(http.MethodGet)
	s.Router.HandleFunc("/ready", a.handleReady).Methods(http.MethodGet)
	s.Router.HandleFunc("/stats", a.handleStats).Methods(http.MethodGet)

	// Metrics
	if a.cfg.Metrics.Enabled {
		s.Router.Handle(a.cfg.Metrics.Path, promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	// Root chain API
	rchttp.NewHandler(a.chain, log).RegisterMux(s.Router)

	a.apiServer = s
}

// Run starts the application and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.started = time.Now()

	go a.watchEvents(runCtx, a.subscribeEvents())

	if a.finalizer != nil {
		if err := a.finalizer.Start(runCtx); err != nil {
			cancel()
			return fmt.Errorf("failed to start finalizer: %w", err)
		}
	}

	go a.metricsReporter(runCtx)

	go func() {
		if err := a.apiServer.Start(runCtx); err != nil {
			a.log.Error().Err(err).Msg("API server error")
			cancel()
		}
	}()

	a.ready.Store(true)
	return a.runWithGracefulShutdown(runCtx)
}

// runWithGracefulShutdown handles shutdown signals.
func (a *App) runWithGracefulShutdown(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	a.log.Info().Msg("Root chain started successfully")

	select {
	case <-ctx.Done():
		a.log.Info().Msg("Context canceled, initiating shutdown")
	case sig := <-sigCh:
		a.log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	}

	a.ready.Store(false)
	if a.cancel != nil {
		a.cancel()
	}

	return a.shutdown()
}

// shutdown stops the finalizer before closing the store it writes to.
func (a *App) shutdown() error {
	a.log.Info().Msg("Initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.finalizer != nil {
		if err := a.finalizer.Stop(shutdownCtx); err != nil {
			a.log.Error().Err(err).Msg("Finalizer shutdown error")
		}
	}

	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("Store close error")
		return err
	}

	a.log.Info().Msg("Graceful shutdown complete")
	return nil
}

// handleHealth responds to health check requests.
func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

func (a *App) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	code := http.StatusOK

	if !a.ready.Load() {
		status = "starting"
		code = http.StatusServiceUnavailable
	} else if _, err := a.chain.CurrentChildBlock(r.Context()); err != nil {
		status = "store_unavailable"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	fmt.Fprintf(w, `{"status":"%s"}`, status)
}

func (a *App) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.GetStats(r.Context())
	if err != nil {
		apisrv.WriteError(w, r, http.StatusServiceUnavailable, "stats_unavailable", err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GetStats returns application statistics.
func (a *App) GetStats(ctx context.Context) (map[string]interface{}, error) {
	child, err := a.chain.CurrentChildBlock(ctx)
	if err != nil {
		return nil, err
	}
	queued, err := a.chain.QueueSize(ctx)
	if err != nil {
		return nil, err
	}
	escrow, err := a.chain.Escrow(ctx)
	if err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"operator":            a.chain.Operator().Hex(),
		"current_child_block": child,
		"queued_exits":        queued,
		"escrow":              escrow.String(),
		"events_seen":         a.eventsSeen.Load(),
		"uptime_seconds":      time.Since(a.started).Seconds(),
		"app_version":         Version,
		"app_build_time":      BuildTime,
		"app_git_commit":      GitCommit,
	}
	if a.finalizer != nil {
		stats["finalizer"] = a.finalizer.Stats()
	}
	return stats, nil
}

// eventWatch holds the feed subscriptions drained by watchEvents.
type eventWatch struct {
	blocks     chan rootchain.BlockSubmittedEvent
	deposits   chan rootchain.DepositEvent
	starts     chan rootchain.ExitStartedEvent
	challenges chan rootchain.ExitChallengedEvent
	finalized  chan rootchain.ExitFinalizedEvent
	subs       []event.Subscription
}

// subscribeEvents subscribes to every root chain feed. It runs before any
// component can commit, so no event escapes the log.
func (a *App) subscribeEvents() *eventWatch {
	w := &eventWatch{
		blocks:     make(chan rootchain.BlockSubmittedEvent, 16),
		deposits:   make(chan rootchain.DepositEvent, 16),
		starts:     make(chan rootchain.ExitStartedEvent, 16),
		challenges: make(chan rootchain.ExitChallengedEvent, 16),
		finalized:  make(chan rootchain.ExitFinalizedEvent, 16),
	}
	w.subs = []event.Subscription{
		a.chain.SubscribeBlocks(w.blocks),
		a.chain.SubscribeDeposits(w.deposits),
		a.chain.SubscribeExitStarts(w.starts),
		a.chain.SubscribeChallenges(w.challenges),
		a.chain.SubscribeFinalizations(w.finalized),
	}
	return w
}

// watchEvents logs every committed root chain event until ctx is done.
func (a *App) watchEvents(ctx context.Context, w *eventWatch) {
	defer func() {
		for _, sub := range w.subs {
			sub.Unsubscribe()
		}
	}()

	log := a.log.With().Str("component", "events").Logger()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-w.blocks:
			log.Debug().Uint64("number", ev.Number).Str("root", ev.Root.Hex()).Msg("BlockSubmitted")
		case ev := <-w.deposits:
			log.Debug().
				Str("depositor", ev.Depositor.Hex()).
				Str("amount", ev.Amount.String()).
				Uint64("block", ev.BlockNumber).
				Msg("DepositOccurred")
		case ev := <-w.starts:
			log.Debug().
				Str("exitor", ev.Exitor.Hex()).
				Uint64("utxo_pos", ev.UtxoPos).
				Str("amount", ev.Amount.String()).
				Msg("ExitStarted")
		case ev := <-w.challenges:
			log.Debug().Uint64("utxo_pos", ev.UtxoPos).Uint64("challenge_pos", ev.ChallengePos).Msg("ExitChallenged")
		case ev := <-w.finalized:
			log.Debug().
				Uint64("utxo_pos", ev.UtxoPos).
				Str("owner", ev.Owner.Hex()).
				Str("amount", ev.Amount.String()).
				Msg("ExitFinalized")
		}
		a.eventsSeen.Add(1)
	}
}

// metricsReporter periodically reports application statistics.
func (a *App) metricsReporter(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := a.GetStats(ctx)
			if err != nil {
				a.log.Warn().Err(err).Msg("Failed to collect statistics")
				continue
			}

			a.log.Info().
				Uint64("current_child_block", stats["current_child_block"].(uint64)).
				Uint64("queued_exits", stats["queued_exits"].(uint64)).
				Str("escrow", stats["escrow"].(string)).
				Uint64("events_seen", stats["events_seen"].(uint64)).
				Float64("uptime_seconds", stats["uptime_seconds"].(float64)).
				Msg("Root chain statistics")
		}
	}
}
