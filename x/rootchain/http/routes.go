package http

// Route patterns for the root chain HTTP surface.
const (
	routeBlocks        = "/v1/blocks"
	routeBlockByNumber = "/v1/blocks/{number:[0-9]+}"
	routeDeposits      = "/v1/deposits"
	routeNextDeposit   = "/v1/deposits/next"
	routeExits         = "/v1/exits"
	routeDepositExits  = "/v1/exits/deposit"
	routeFeeExits      = "/v1/exits/fee"
	routeFinalize      = "/v1/exits/finalize"
	routeNextExit      = "/v1/exits/next"
	routeExitByPos     = "/v1/exits/{pos:[0-9]+}"
	routeChallenges    = "/v1/challenges"
	routeBalance       = "/v1/balances/{address}"
	routeNonce         = "/v1/nonces/{address}"
	routeUtxoPos       = "/v1/utxo-pos"
	routeStatus        = "/v1/status"
)

// Route names for mux URL building.
const (
	routeNameSubmitBlock   = "rootchain_submit_block"
	routeNameBlockByNumber = "rootchain_block_by_number"
	routeNameDeposit       = "rootchain_deposit"
	routeNameNextDeposit   = "rootchain_next_deposit"
	routeNameStartExit     = "rootchain_start_exit"
	routeNameDepositExit   = "rootchain_start_deposit_exit"
	routeNameFeeExit       = "rootchain_start_fee_exit"
	routeNameFinalize      = "rootchain_finalize_exits"
	routeNameNextExit      = "rootchain_next_exit"
	routeNameExitByPos     = "rootchain_exit_by_pos"
	routeNameChallenge     = "rootchain_challenge_exit"
	routeNameBalance       = "rootchain_balance"
	routeNameNonce         = "rootchain_nonce"
	routeNameUtxoPos       = "rootchain_utxo_pos"
	routeNameStatus        = "rootchain_status"
)
