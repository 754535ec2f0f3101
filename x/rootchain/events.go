package rootchain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"

	"github.com/compose-network/rootchain/x/utxo"
)

// BlockSubmittedEvent is published when the operator commits a child block.
type BlockSubmittedEvent struct {
	Number    uint64
	Root      common.Hash
	CreatedAt uint64
}

// DepositEvent is published when a deposit is escrowed and given its block.
type DepositEvent struct {
	Depositor   common.Address
	Amount      *big.Int
	BlockNumber uint64
	CreatedAt   uint64
}

// ExitStartedEvent is published when a transaction, deposit or fee exit is queued.
type ExitStartedEvent struct {
	Exitor   common.Address
	UtxoPos  uint64
	Amount   *big.Int
	Priority utxo.Priority
}

// ExitChallengedEvent is published when a pending exit is proven double spent.
type ExitChallengedEvent struct {
	UtxoPos      uint64
	ChallengePos uint64
	Challenger   common.Address
}

// ExitFinalizedEvent is published for every exit paid out by FinalizeExits.
type ExitFinalizedEvent struct {
	UtxoPos uint64
	Owner   common.Address
	Amount  *big.Int
}

// feeds fan out committed state changes. Send blocks until every subscriber has
// taken the value, so subscribers must keep draining their channels.
type feeds struct {
	blocks      event.Feed
	deposits    event.Feed
	exitStarts  event.Feed
	challenges  event.Feed
	finalizings event.Feed
}

// SubscribeBlocks delivers BlockSubmittedEvent values to ch.
func (c *RootChain) SubscribeBlocks(ch chan<- BlockSubmittedEvent) event.Subscription {
	return c.feeds.blocks.Subscribe(ch)
}

// SubscribeDeposits delivers DepositEvent values to ch.
func (c *RootChain) SubscribeDeposits(ch chan<- DepositEvent) event.Subscription {
	return c.feeds.deposits.Subscribe(ch)
}

// SubscribeExitStarts delivers ExitStartedEvent values to ch.
func (c *RootChain) SubscribeExitStarts(ch chan<- ExitStartedEvent) event.Subscription {
	return c.feeds.exitStarts.Subscribe(ch)
}

// SubscribeChallenges delivers ExitChallengedEvent values to ch.
func (c *RootChain) SubscribeChallenges(ch chan<- ExitChallengedEvent) event.Subscription {
	return c.feeds.challenges.Subscribe(ch)
}

// SubscribeFinalizations delivers ExitFinalizedEvent values to ch.
func (c *RootChain) SubscribeFinalizations(ch chan<- ExitFinalizedEvent) event.Subscription {
	return c.feeds.finalizings.Subscribe(ch)
}
