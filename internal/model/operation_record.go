package model

// Operation names used in OperationRecord.
const (
	OpInitialize = "initialize"
	OpDeposit    = "deposit"
	OpWithdraw   = "withdraw"
	OpSwap       = "swap"
)

// OperationRecord is one applied pool operation, as written to the journal.
// Amounts not used by an operation are zero.
type OperationRecord struct {
	Pool          string `json:"pool"`
	Operation     string `json:"operation"`
	Account       string `json:"account"`
	TokenIn       string `json:"token_in,omitempty"`
	TokenOut      string `json:"token_out,omitempty"`
	AmountA       uint64 `json:"amount_a,string"`
	AmountB       uint64 `json:"amount_b,string"`
	AmountIn      uint64 `json:"amount_in,string"`
	AmountOut     uint64 `json:"amount_out,string"`
	Fee           uint64 `json:"fee,string"`
	LPAmount      uint64 `json:"lp_amount,string"`
	TotalLPSupply uint64 `json:"total_lp_supply,string"`
	ExecutedAt    string `json:"executed_at"`
}
