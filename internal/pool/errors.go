package pool

import "errors"

var (
	ErrPoolNotFound   = errors.New("pool not found")
	ErrPoolExists     = errors.New("pool already initialized")
	ErrSameToken      = errors.New("pool tokens must differ")
	ErrTokenNotInPool = errors.New("token not in pool")
)

// ErrSupplyMismatch is returned by CheckSupply when the ledger's share
// supply and the pool's recorded supply disagree.
var ErrSupplyMismatch = errors.New("lp supply mismatch")
