package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/commitpool/commitpool/application/usecase"
	"github.com/commitpool/commitpool/infrastructure/http/middleware"
	"github.com/commitpool/commitpool/infrastructure/http/response"
	"github.com/commitpool/commitpool/infrastructure/observability"
	"github.com/commitpool/commitpool/infrastructure/service/logger"
)

// LedgerHandler exposes deposit, withdraw and balance reads.
type LedgerHandler struct {
	ledger *usecase.LedgerUseCase
	logger logger.Logger
}

func NewLedgerHandler(ledger *usecase.LedgerUseCase, log logger.Logger) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, logger: log}
}

func (h *LedgerHandler) RegisterRoutes(router *mux.Router, auth *middleware.AuthMiddleware) {
	router.HandleFunc("/v1/ledger/deposit", auth.RequireAuth(h.Deposit)).Methods("POST")
	router.HandleFunc("/v1/ledger/withdraw", auth.RequireAuth(h.Withdraw)).Methods("POST")
	router.HandleFunc("/v1/ledger/balance", auth.RequireAuth(h.Balance)).Methods("GET")
	router.HandleFunc("/v1/ledger/aggregates", h.Aggregates).Methods("GET")
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

func (h *LedgerHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	view, err := h.ledger.Deposit(r.Context(), identity.Address, req.Amount)
	if err != nil {
		h.logger.Warn(r.Context(), "deposit rejected", map[string]interface{}{
			"committer": identity.Address,
			"amount":    req.Amount,
			"error":     err.Error(),
		})
		response.AppError(w, err)
		return
	}

	observability.RecordDeposit()
	h.recordAggregates(r.Context())
	response.Success(w, http.StatusOK, "Deposit accepted", view)
}

func (h *LedgerHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req amountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	view, err := h.ledger.Withdraw(r.Context(), identity.Address, req.Amount)
	if err != nil {
		h.logger.Warn(r.Context(), "withdrawal rejected", map[string]interface{}{
			"committer": identity.Address,
			"amount":    req.Amount,
			"error":     err.Error(),
		})
		response.AppError(w, err)
		return
	}

	observability.RecordWithdrawal()
	h.recordAggregates(r.Context())
	response.Success(w, http.StatusOK, "Withdrawal accepted", view)
}

func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	view, err := h.ledger.Balance(r.Context(), identity.Address)
	if err != nil {
		response.AppError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Balance", view)
}

func (h *LedgerHandler) Aggregates(w http.ResponseWriter, r *http.Request) {
	agg, err := h.ledger.Aggregates(r.Context())
	if err != nil {
		response.AppError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Aggregates", agg)
}

func (h *LedgerHandler) recordAggregates(ctx context.Context) {
	if agg, err := h.ledger.Aggregates(ctx); err == nil {
		observability.RecordAggregates(agg.CommitterBalance, agg.SlashedBalance)
	}
}
