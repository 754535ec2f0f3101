package finalizer

import (
	"context"
	"time"

	"github.com/compose-network/rootchain/x/rootchain"
)

// Service drives exit finalization on a fixed cadence.
type Service interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Stats() Stats
}

// Finalizer is the part of the root chain the service needs.
type Finalizer interface {
	FinalizeExits(ctx context.Context) (*rootchain.FinalizeResult, error)
}

// Stats counts what the service has done since it was built.
type Stats struct {
	Runs      uint64 `json:"runs"`
	Paid      uint64 `json:"paid"`
	Skipped   uint64 `json:"skipped"`
	Failures  uint64 `json:"failures"`
	Remaining uint64 `json:"remaining"`
	// Stalled reports that the last run found the queue head larger than the escrow.
	Stalled   bool      `json:"stalled"`
	LastRun   time.Time `json:"last_run"`
	LastError string    `json:"last_error,omitempty"`
}
