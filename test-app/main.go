// Command test-app walks a running root chain through one exit:
// a deposit, an operator block spending it, and an exit of the spent output.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	apilog "github.com/compose-network/rootchain/log"
	"github.com/compose-network/rootchain/x/childchain"
	"github.com/compose-network/rootchain/x/txrecord"
	"github.com/compose-network/rootchain/x/utxo"
)

//nolint:gocyclo // linear walkthrough
func main() {
	var (
		apiAddr     string
		domain      string
		operatorKey string
		amount      int64
		finalize    bool
		pretty      bool
		logLevel    string
	)
	flag.StringVar(&apiAddr, "api", "http://localhost:8545", "root chain API base URL")
	flag.StringVar(&domain, "signature-domain", "rootchain", "api.signature_domain of the server")
	flag.StringVar(&operatorKey, "operator-key", "", "hex private key of the configured operator")
	flag.Int64Var(&amount, "amount", 10, "deposit amount")
	flag.BoolVar(&finalize, "finalize", false, "call finalize after starting the exit")
	flag.BoolVar(&pretty, "log-pretty", true, "pretty console logs")
	flag.StringVar(&logLevel, "log-level", "debug", "log level (trace,debug,info,...)")
	flag.Parse()

	logger := apilog.New(logLevel, pretty)
	log := logger.With().Str("component", "test-app").Logger()

	if operatorKey == "" {
		log.Error().Msg("--operator-key is required; generate one with scripts/gen-keys.go")
		return
	}
	opKey, err := crypto.HexToECDSA(operatorKey)
	if err != nil {
		log.Error().Err(err).Msg("invalid operator key")
		return
	}
	aliceKey, _ := crypto.GenerateKey()
	bobKey, _ := crypto.GenerateKey()

	operator := NewClient(apiAddr, domain, opKey, log)
	alice := NewClient(apiAddr, domain, aliceKey, log)
	bob := NewClient(apiAddr, domain, bobKey, log)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// 1. alice deposits
	var dep struct {
		Block      uint64 `json:"block"`
		DepositPos uint64 `json:"deposit_pos"`
	}
	if err := alice.Post(ctx, "/v1/deposits", map[string]any{"amount": fmt.Sprint(amount)}, &dep); err != nil {
		log.Error().Err(err).Msg("deposit failed")
		return
	}
	log.Info().Uint64("block", dep.Block).Str("alice", alice.Address().Hex()).Msg("Deposit committed")

	// 2. alice pays bob everything but 1 in the next operator block
	tx, err := childchain.SignTx(&txrecord.Record{
		Blknum1:   dep.Block,
		NewOwner1: bob.Address(),
		Amount1:   big.NewInt(amount - 1),
		NewOwner2: alice.Address(),
		Amount2:   big.NewInt(1),
	}, aliceKey, nil)
	if err != nil {
		log.Error().Err(err).Msg("sign transaction failed")
		return
	}
	block, err := childchain.NewBlock(tx)
	if err != nil {
		log.Error().Err(err).Msg("build block failed")
		return
	}

	var submitted struct {
		Number uint64 `json:"number"`
	}
	if err := operator.Post(ctx, "/v1/blocks", map[string]any{"root": block.Root()}, &submitted); err != nil {
		log.Error().Err(err).Msg("submit block failed")
		return
	}
	log.Info().Uint64("number", submitted.Number).Str("root", block.Root().Hex()).Msg("Block submitted")

	// 3. bob exits output 0, carrying alice's confirmation
	proof, err := block.Proof(0)
	if err != nil {
		log.Error().Err(err).Msg("proof failed")
		return
	}
	confirmation, err := childchain.Confirm(tx, block.Root(), aliceKey)
	if err != nil {
		log.Error().Err(err).Msg("confirmation failed")
		return
	}
	pos := utxo.NewPosition(submitted.Number, 0, 0)

	var started map[string]any
	err = bob.Post(ctx, "/v1/exits", map[string]any{
		"utxo_pos":   pos.Encode(),
		"tx_bytes":   hexutil.Bytes(tx.Bytes),
		"proof":      hexutil.Bytes(proof),
		"signatures": hexutil.Bytes(childchain.ExitSignatures(tx, confirmation)),
	}, &started)
	if err != nil {
		log.Error().Err(err).Msg("start exit failed")
		return
	}
	log.Info().Str("position", pos.String()).Interface("exit", started).Msg("Exit started")

	var next map[string]any
	if err := bob.Get(ctx, "/v1/exits/next", &next); err != nil {
		log.Error().Err(err).Msg("peek failed")
		return
	}
	log.Info().Interface("next", next).Msg("Queue head")

	if finalize {
		var res map[string]any
		if err := bob.Post(ctx, "/v1/exits/finalize", nil, &res); err != nil {
			log.Error().Err(err).Msg("finalize failed")
			return
		}
		log.Info().Interface("result", res).Msg("Finalize called")
	}

	var status map[string]any
	if err := bob.Get(ctx, "/v1/status", &status); err != nil {
		log.Error().Err(err).Msg("status failed")
		return
	}
	log.Info().Interface("status", status).Msg("Walkthrough completed")
}
