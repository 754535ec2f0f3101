package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RegisterMux binds gorilla/mux routes. Literal paths are registered before the
// parameterized ones they overlap.
func (h *Handler) RegisterMux(r *mux.Router) {
	r.HandleFunc(routeBlocks, h.handleSubmitBlock).Methods(http.MethodPost).Name(routeNameSubmitBlock)
	r.HandleFunc(routeBlockByNumber, h.handleGetBlock).Methods(http.MethodGet).Name(routeNameBlockByNumber)

	r.HandleFunc(routeDeposits, h.handleDeposit).Methods(http.MethodPost).Name(routeNameDeposit)
	r.HandleFunc(routeNextDeposit, h.handleNextDeposit).Methods(http.MethodGet).Name(routeNameNextDeposit)

	r.HandleFunc(routeExits, h.handleStartExit).Methods(http.MethodPost).Name(routeNameStartExit)
	r.HandleFunc(routeDepositExits, h.handleStartDepositExit).Methods(http.MethodPost).Name(routeNameDepositExit)
	r.HandleFunc(routeFeeExits, h.handleStartFeeExit).Methods(http.MethodPost).Name(routeNameFeeExit)
	r.HandleFunc(routeFinalize, h.handleFinalize).Methods(http.MethodPost).Name(routeNameFinalize)
	r.HandleFunc(routeNextExit, h.handleNextExit).Methods(http.MethodGet).Name(routeNameNextExit)
	r.HandleFunc(routeExitByPos, h.handleGetExit).Methods(http.MethodGet).Name(routeNameExitByPos)

	r.HandleFunc(routeChallenges, h.handleChallenge).Methods(http.MethodPost).Name(routeNameChallenge)
	r.HandleFunc(routeBalance, h.handleBalance).Methods(http.MethodGet).Name(routeNameBalance)
	r.HandleFunc(routeNonce, h.handleNonce).Methods(http.MethodGet).Name(routeNameNonce)
	r.HandleFunc(routeUtxoPos, h.handleUtxoPos).Methods(http.MethodGet).Name(routeNameUtxoPos)
	r.HandleFunc(routeStatus, h.handleStatus).Methods(http.MethodGet).Name(routeNameStatus)
}
