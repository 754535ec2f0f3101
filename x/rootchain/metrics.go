package rootchain

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/compose-network/rootchain/metrics"
)

// Metrics holds root chain metrics.
type Metrics struct {
	registry *metrics.ComponentRegistry

	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	CurrentChildBlock prometheus.Gauge
	QueueSize         prometheus.Gauge
	ExitsStarted      *prometheus.CounterVec
	ExitsChallenged   prometheus.Counter
	ExitsFinalized    *prometheus.CounterVec
	FinalizeBatchSize prometheus.Histogram
	FinalizeStalled   prometheus.Gauge
}

// NewMetrics creates root chain metrics.
func NewMetrics() *Metrics {
	reg := metrics.NewComponentRegistry("rootchain", "")

	return &Metrics{
		registry: reg,

		OperationsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "operations_total",
			Help: "Total number of root chain operations",
		}, []string{"operation", "status"}),

		OperationDuration: reg.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "operation_duration_seconds",
			Help:    "Duration of root chain operations",
			Buckets: metrics.DurationBuckets,
		}, []string{"operation"}),

		ErrorsTotal: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of rejected operations",
		}, []string{"type", "operation"}),

		CurrentChildBlock: reg.NewGauge(prometheus.GaugeOpts{
			Name: "current_child_block",
			Help: "Next operator block number",
		}),

		QueueSize: reg.NewGauge(prometheus.GaugeOpts{
			Name: "exit_queue_size",
			Help: "Number of exits waiting in the priority queue",
		}),

		ExitsStarted: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "exits_started_total",
			Help: "Total number of exits started",
		}, []string{"kind"}),

		ExitsChallenged: reg.NewCounter(prometheus.CounterOpts{
			Name: "exits_challenged_total",
			Help: "Total number of exits cancelled by a challenge",
		}),

		ExitsFinalized: reg.NewCounterVec(prometheus.CounterOpts{
			Name: "exits_finalized_total",
			Help: "Total number of queue entries processed by finalization",
		}, []string{"result"}),

		FinalizeBatchSize: reg.NewHistogram(prometheus.HistogramOpts{
			Name:    "finalize_batch_size",
			Help:    "Number of queue entries popped per finalization",
			Buckets: metrics.CountBuckets,
		}),

		FinalizeStalled: reg.NewGauge(prometheus.GaugeOpts{
			Name: "finalize_stalled",
			Help: "1 while an eligible exit at the queue head exceeds the escrow",
		}),
	}
}

func (m *Metrics) RecordOperation(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "rejected"
		m.ErrorsTotal.WithLabelValues(ErrorCode(err), op).Inc()
	}
	m.OperationsTotal.WithLabelValues(op, status).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

var errorCodes = []struct {
	err  error
	name string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrDepositBandExhausted, "deposit_band_exhausted"},
	{ErrZeroDeposit, "zero_deposit"},
	{ErrZeroAmountExit, "zero_amount_exit"},
	{ErrDuplicateExit, "duplicate_exit"},
	{ErrExitNotPending, "exit_not_pending"},
	{ErrChallengeMismatch, "challenge_mismatch"},
	{ErrInsufficientEscrow, "insufficient_escrow"},
	{ErrStaleNonce, "stale_nonce"},
	{ErrMalformedRecord, "malformed_record"},
	{ErrNotOwner, "not_owner"},
	{ErrInvalidSignature, "invalid_signature"},
	{ErrInvalidInclusionProof, "invalid_inclusion_proof"},
	{ErrNotADeposit, "not_a_deposit"},
	{ErrDepositMismatch, "deposit_mismatch"},
	{ErrBadConfirmation, "bad_confirmation"},
	{ErrInputIndex, "input_index"},
	{ErrEmptyQueue, "empty_queue"},
}

// ErrorCode maps a rejection to a stable snake_case code; unknown causes are "internal".
func ErrorCode(err error) string {
	for _, t := range errorCodes {
		if errors.Is(err, t.err) {
			return t.name
		}
	}
	return "internal"
}
