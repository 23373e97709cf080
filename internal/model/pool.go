package model

import "poolEngine/internal/amm"

// Pool is the stored record of a pool: its derived accounts plus the
// accounting state.
type Pool struct {
	Address   string `json:"address"`
	TokenA    string `json:"token_a"`
	TokenB    string `json:"token_b"`
	Authority string `json:"authority"`
	VaultA    string `json:"vault_a"`
	VaultB    string `json:"vault_b"`
	LPMint    string `json:"lp_mint"`
	amm.PoolState
}
