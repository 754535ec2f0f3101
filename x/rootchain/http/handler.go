package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	apicommon "github.com/compose-network/rootchain/server/api"
	"github.com/compose-network/rootchain/server/api/middleware"
	"github.com/compose-network/rootchain/x/rootchain"
	"github.com/compose-network/rootchain/x/utxo"
)

// maxRequestBody bounds JSON request bodies; exit proofs are well under this.
const maxRequestBody = 1 << 20

type Handler struct {
	chain rootchain.Chain
	log   zerolog.Logger
}

func NewHandler(chain rootchain.Chain, log zerolog.Logger) *Handler {
	return &Handler{
		chain: chain,
		log:   log.With().Str("component", "rootchain-http").Logger(),
	}
}

func (h *Handler) handleSubmitBlock(w http.ResponseWriter, r *http.Request) {
	ctx, caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	var req submitBlockReq
	if !h.decode(w, r, &req) {
		return
	}

	number, err := h.chain.SubmitBlock(ctx, caller, req.Root)
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusCreated, map[string]any{"number": number, "root": req.Root})
}

func (h *Handler) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	number, ok := pathUint(w, r, "number")
	if !ok {
		return
	}
	blk, err := h.chain.GetBlock(r.Context(), number)
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	if blk.Root == (common.Hash{}) {
		apicommon.WriteError(w, r, http.StatusNotFound, "not_found", fmt.Sprintf("block %d not committed", number), nil)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, blockResp{Number: number, Root: blk.Root, CreatedAt: blk.CreatedAt})
}

func (h *Handler) handleDeposit(w http.ResponseWriter, r *http.Request) {
	ctx, caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	var req amountReq
	if !h.decode(w, r, &req) {
		return
	}

	number, err := h.chain.Deposit(ctx, caller, amountOf(req.Amount))
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusCreated, map[string]any{
		"block":       number,
		"deposit_pos": utxo.NewPosition(number, 0, 0).Encode(),
	})
}

func (h *Handler) handleNextDeposit(w http.ResponseWriter, r *http.Request) {
	number, err := h.chain.GetDepositBlockNumber(r.Context())
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{"block": number})
}

func (h *Handler) handleStartExit(w http.ResponseWriter, r *http.Request) {
	ctx, caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	var req startExitReq
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.chain.StartExit(ctx, caller, req.UtxoPos, req.TxBytes, req.Proof, req.Signatures)
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusAccepted, priorityResp(p))
}

func (h *Handler) handleStartDepositExit(w http.ResponseWriter, r *http.Request) {
	ctx, caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	var req depositExitReq
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.chain.StartDepositExit(ctx, caller, req.DepositPos, amountOf(req.Amount))
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusAccepted, priorityResp(p))
}

func (h *Handler) handleStartFeeExit(w http.ResponseWriter, r *http.Request) {
	ctx, caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	var req amountReq
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.chain.StartFeeExit(ctx, caller, amountOf(req.Amount))
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusAccepted, priorityResp(p))
}

func (h *Handler) handleChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, caller, ok := h.requireCaller(w, r)
	if !ok {
		return
	}
	var req challengeReq
	if !h.decode(w, r, &req) {
		return
	}

	err := h.chain.ChallengeExit(
		ctx, caller,
		req.ChallengePos, req.ExitedPos,
		req.TxBytes, req.Proof, req.TransferSigs, req.ConfirmationSig,
	)
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{"status": "challenged", "exited_pos": req.ExitedPos})
}

// handleFinalize is open to anyone; finalization only pays the recorded owners.
func (h *Handler) handleFinalize(w http.ResponseWriter, r *http.Request) {
	res, err := h.chain.FinalizeExits(r.Context())
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) handleNextExit(w http.ResponseWriter, r *http.Request) {
	p, err := h.chain.PeekNextEligible(r.Context())
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	exit, err := h.chain.GetExit(r.Context(), p.Position)
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	resp := toExitResp(p.Position, exit)
	resp.EffectiveAt = p.Timestamp
	apicommon.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleGetExit(w http.ResponseWriter, r *http.Request) {
	pos, ok := pathUint(w, r, "pos")
	if !ok {
		return
	}
	exit, err := h.chain.GetExit(r.Context(), pos)
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, toExitResp(pos, exit))
}

func (h *Handler) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	bal, err := h.chain.BalanceOf(r.Context(), addr)
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, balanceResp{Address: addr, Balance: bal.String()})
}

func (h *Handler) handleNonce(w http.ResponseWriter, r *http.Request) {
	addr, ok := pathAddress(w, r)
	if !ok {
		return
	}
	nonce, err := h.chain.CallerNonce(r.Context(), addr)
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, nonceResp{Address: addr, Nonce: nonce, Next: nonce + 1})
}

func (h *Handler) handleUtxoPos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	txBytes, err := hexutil.Decode(q.Get("tx"))
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_tx", "tx must be 0x-hex", nil)
		return
	}
	input := uint64(0)
	if s := q.Get("input"); s != "" {
		if input, err = strconv.ParseUint(s, 10, 64); err != nil {
			apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_input", "input must be an integer", nil)
			return
		}
	}

	pos, err := h.chain.GetUtxoPosFromTx(txBytes, input)
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	apicommon.WriteJSON(w, http.StatusOK, map[string]any{
		"utxo_pos": pos,
		"position": utxo.DecodePosition(pos),
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		resp = statusResp{
			Operator:           h.chain.Operator(),
			ChildBlockInterval: h.chain.Config().ChildBlockInterval,
		}
		escrow *big.Int
		err    error
	)
	if resp.CurrentChildBlock, err = h.chain.CurrentChildBlock(ctx); err == nil {
		if resp.NextDepositBlock, err = h.chain.GetDepositBlockNumber(ctx); err == nil {
			if resp.QueuedExits, err = h.chain.QueueSize(ctx); err == nil {
				escrow, err = h.chain.Escrow(ctx)
			}
		}
	}
	if err != nil {
		h.writeOperationError(w, r, err)
		return
	}
	resp.Escrow = escrow.String()
	apicommon.WriteJSON(w, http.StatusOK, resp)
}

// requireCaller returns the signer of r and a context carrying its nonce, so the
// operation consumes the nonce atomically with its own effects.
func (h *Handler) requireCaller(w http.ResponseWriter, r *http.Request) (context.Context, common.Address, bool) {
	caller, ok := middleware.CallerFrom(r.Context())
	nonce, hasNonce := middleware.CallerNonceFrom(r.Context())
	if !ok || !hasNonce {
		apicommon.WriteError(
			w, r,
			http.StatusUnauthorized,
			"missing_caller",
			fmt.Sprintf("sign the request and send %s and %s",
				middleware.CallerSignatureHeader, middleware.CallerNonceHeader),
			nil,
		)
		return nil, common.Address{}, false
	}
	return rootchain.WithCallerNonce(r.Context(), nonce), caller, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_json", "failed to decode request", err.Error())
		return false
	}
	return true
}

// writeOperationError maps root chain rejections onto HTTP statuses.
func (h *Handler) writeOperationError(w http.ResponseWriter, r *http.Request, err error) {
	code := rootchain.ErrorCode(err)
	status := http.StatusUnprocessableEntity
	switch {
	case errors.Is(err, rootchain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, rootchain.ErrDuplicateExit), errors.Is(err, rootchain.ErrStaleNonce):
		status = http.StatusConflict
	case errors.Is(err, rootchain.ErrEmptyQueue):
		status = http.StatusNotFound
	case code == "internal":
		status = http.StatusInternalServerError
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Root chain operation failed")
	}
	apicommon.WriteError(w, r, status, code, err.Error(), nil)
}

func pathUint(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	v, err := strconv.ParseUint(mux.Vars(r)[name], 10, 64)
	if err != nil {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_"+name, name+" must be an unsigned integer", nil)
		return 0, false
	}
	return v, true
}

func pathAddress(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	s := strings.TrimSpace(mux.Vars(r)["address"])
	if !common.IsHexAddress(s) {
		apicommon.WriteError(w, r, http.StatusBadRequest, "invalid_address", "bad address", nil)
		return common.Address{}, false
	}
	return common.HexToAddress(s), true
}

func amountOf(v *math.HexOrDecimal256) *big.Int {
	if v == nil {
		return nil
	}
	return (*big.Int)(v)
}

func priorityResp(p utxo.Priority) map[string]any {
	return map[string]any{
		"utxo_pos":     p.Position,
		"position":     p.UtxoPosition(),
		"effective_at": p.Timestamp,
		"priority":     p.Pack().Hex(),
	}
}

func toExitResp(pos uint64, exit rootchain.Exit) exitResp {
	amount := "0"
	if exit.Amount != nil {
		amount = exit.Amount.String()
	}
	return exitResp{
		UtxoPos:  pos,
		Position: utxo.DecodePosition(pos).String(),
		Owner:    exit.Owner,
		Amount:   amount,
		Status:   string(exit.Status),
	}
}
