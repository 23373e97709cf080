package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"poolEngine/internal/amm"
	"poolEngine/internal/ledger"
	"poolEngine/internal/model"
	"poolEngine/internal/pool"
)

// InitializeRequest is the body of POST /pools. Here and in the other
// request and response types, amounts travel as base-10 strings.
type InitializeRequest struct {
	TokenA         string `json:"token_a"`
	TokenB         string `json:"token_b"`
	FeeNumerator   uint64 `json:"fee_numerator,string"`
	FeeDenominator uint64 `json:"fee_denominator,string"`
}

type DepositRequest struct {
	Account string `json:"account"`
	AmountA uint64 `json:"amount_a,string"`
	AmountB uint64 `json:"amount_b,string"`
}

type WithdrawRequest struct {
	Account  string `json:"account"`
	LPAmount uint64 `json:"lp_amount,string"`
}

type SwapRequest struct {
	Account    string `json:"account"`
	TokenIn    string `json:"token_in"`
	AmountIn   uint64 `json:"amount_in,string"`
	MinimumOut uint64 `json:"minimum_out,string"`
}

type PoolResponse struct {
	model.Pool
	ReserveA uint64 `json:"reserve_a,string"`
	ReserveB uint64 `json:"reserve_b,string"`
}

type DepositResponse struct {
	AmountA       uint64 `json:"amount_a,string"`
	AmountB       uint64 `json:"amount_b,string"`
	LPMinted      uint64 `json:"lp_minted,string"`
	TotalLPSupply uint64 `json:"total_lp_supply,string"`
}

type WithdrawResponse struct {
	AmountA       uint64 `json:"amount_a,string"`
	AmountB       uint64 `json:"amount_b,string"`
	LPBurned      uint64 `json:"lp_burned,string"`
	TotalLPSupply uint64 `json:"total_lp_supply,string"`
}

type SwapResponse struct {
	AmountIn  uint64 `json:"amount_in,string"`
	Fee       uint64 `json:"fee,string"`
	NetInput  uint64 `json:"net_input,string"`
	AmountOut uint64 `json:"amount_out,string"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if !s.decode(w, r, &req) {
		return
	}
	tokenA, err := parseAddress("token_a", req.TokenA)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	tokenB, err := parseAddress("token_b", req.TokenB)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	p, err := s.dispatcher.InitializePool(r.Context(), tokenA, tokenB, req.FeeNumerator, req.FeeDenominator)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, PoolResponse{Pool: p})
}

func (s *Server) handleListPools(w http.ResponseWriter, r *http.Request) {
	pools, err := s.dispatcher.Pools(r.Context())
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	if pools == nil {
		pools = []model.Pool{}
	}
	s.writeJSON(w, http.StatusOK, pools)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	poolAddr, ok := s.poolVar(w, r)
	if !ok {
		return
	}
	p, err := s.dispatcher.Pool(r.Context(), poolAddr)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	reserveA, reserveB, err := s.dispatcher.Reserves(r.Context(), poolAddr)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, PoolResponse{Pool: p, ReserveA: reserveA, ReserveB: reserveB})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	poolAddr, ok := s.poolVar(w, r)
	if !ok {
		return
	}
	var req DepositRequest
	if !s.decode(w, r, &req) {
		return
	}
	account, err := parseAddress("account", req.Account)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.dispatcher.Deposit(r.Context(), poolAddr, account, req.AmountA, req.AmountB)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, DepositResponse{
		AmountA:       res.AmountA,
		AmountB:       res.AmountB,
		LPMinted:      res.LPMinted,
		TotalLPSupply: res.Pool.TotalLPSupply,
	})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	poolAddr, ok := s.poolVar(w, r)
	if !ok {
		return
	}
	var req WithdrawRequest
	if !s.decode(w, r, &req) {
		return
	}
	account, err := parseAddress("account", req.Account)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.dispatcher.Withdraw(r.Context(), poolAddr, account, req.LPAmount)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, WithdrawResponse{
		AmountA:       res.AmountA,
		AmountB:       res.AmountB,
		LPBurned:      res.LPBurned,
		TotalLPSupply: res.Pool.TotalLPSupply,
	})
}

func (s *Server) handleSwap(w http.ResponseWriter, r *http.Request) {
	poolAddr, ok := s.poolVar(w, r)
	if !ok {
		return
	}
	var req SwapRequest
	if !s.decode(w, r, &req) {
		return
	}
	account, err := parseAddress("account", req.Account)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	tokenIn, err := parseAddress("token_in", req.TokenIn)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := s.dispatcher.Swap(r.Context(), poolAddr, account, tokenIn, req.AmountIn, req.MinimumOut)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, swapResponse(res))
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	poolAddr, ok := s.poolVar(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	tokenIn, err := parseAddress("token_in", query.Get("token_in"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	amountIn, err := parseAmount("amount_in", query.Get("amount_in"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	var minimumOut uint64
	if raw := query.Get("minimum_out"); raw != "" {
		if minimumOut, err = parseAmount("minimum_out", raw); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	res, err := s.dispatcher.Quote(r.Context(), poolAddr, tokenIn, amountIn, minimumOut)
	if err != nil {
		s.writeFailure(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, swapResponse(res))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func swapResponse(res amm.SwapResult) SwapResponse {
	return SwapResponse{
		AmountIn:  res.AmountIn,
		Fee:       res.Fee,
		NetInput:  res.NetInput,
		AmountOut: res.AmountOut,
	}
}

func (s *Server) poolVar(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	addr, err := parseAddress("pool", mux.Vars(r)["pool"])
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return common.Address{}, false
	}
	return addr, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

// statusOf maps dispatcher errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, pool.ErrPoolNotFound):
		return http.StatusNotFound
	case errors.Is(err, pool.ErrPoolExists):
		return http.StatusConflict
	case errors.Is(err, pool.ErrSameToken), errors.Is(err, pool.ErrTokenNotInPool):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return http.StatusUnprocessableEntity
	}

	switch amm.KindOf(err) {
	case amm.KindValidation, amm.KindSlippageExceeded, amm.KindInvalidLPAmount:
		return http.StatusBadRequest
	case amm.KindInsufficientBalance, amm.KindExcessiveBurn, amm.KindArithmeticOverflow:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeFailure(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.writeError(w, status, err)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("write response failed", zap.Error(err))
	}
}

func parseAddress(field, raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", field, raw)
	}
	return common.HexToAddress(raw), nil
}

func parseAmount(field, raw string) (uint64, error) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid amount %q", field, raw)
	}
	return v, nil
}
