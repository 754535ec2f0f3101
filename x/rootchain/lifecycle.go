package rootchain

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"
)

// ExitStatus is the lifecycle state of an exit record.
type ExitStatus string

const (
	ExitStatusPending    ExitStatus = "pending"
	ExitStatusChallenged ExitStatus = "challenged"
	ExitStatusFinalized  ExitStatus = "finalized"
)

// Lifecycle events.
const (
	eventChallenge = "challenge"
	eventFinalize  = "finalize"
)

var exitEvents = fsm.Events{
	{Name: eventChallenge, Src: []string{string(ExitStatusPending)}, Dst: string(ExitStatusChallenged)},
	{Name: eventFinalize, Src: []string{string(ExitStatusPending)}, Dst: string(ExitStatusFinalized)},
}

// transition applies event to an exit in state from and returns the new state.
func transition(ctx context.Context, from ExitStatus, event string) (ExitStatus, error) {
	m := fsm.NewFSM(string(from), exitEvents, fsm.Callbacks{})
	if err := m.Event(ctx, event); err != nil {
		return from, fmt.Errorf("%w: %s from %s: %v", ErrExitNotPending, event, from, err)
	}
	return ExitStatus(m.Current()), nil
}
