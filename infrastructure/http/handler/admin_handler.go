package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/commitpool/commitpool/application/usecase"
	"github.com/commitpool/commitpool/infrastructure/http/middleware"
	"github.com/commitpool/commitpool/infrastructure/http/response"
	"github.com/commitpool/commitpool/infrastructure/observability"
	"github.com/commitpool/commitpool/infrastructure/service/logger"
)

// AdminHandler exposes registry mutation and protocol-fund withdrawals. Every
// route sits behind the admin JWT role; the usecase re-checks the configured
// admin address.
type AdminHandler struct {
	admin       *usecase.AdminUseCase
	ledger      *usecase.LedgerUseCase
	commitments *CommitmentHandler
	logger      logger.Logger
}

func NewAdminHandler(admin *usecase.AdminUseCase, ledger *usecase.LedgerUseCase, commitments *CommitmentHandler, log logger.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, ledger: ledger, commitments: commitments, logger: log}
}

func (h *AdminHandler) RegisterRoutes(router *mux.Router, auth *middleware.AuthMiddleware) {
	router.HandleFunc("/v1/admin/withdraw", auth.RequireAdmin(h.OwnerWithdraw)).Methods("POST")
	router.HandleFunc("/v1/admin/slashed/withdraw", auth.RequireAdmin(h.WithdrawSlashed)).Methods("POST")
	router.HandleFunc("/v1/admin/activities", auth.RequireAdmin(h.RegisterActivity)).Methods("POST")
	router.HandleFunc("/v1/admin/activities/{key}/oracle", auth.RequireAdmin(h.UpdateOracle)).Methods("PUT")
	router.HandleFunc("/v1/admin/activities/{key}/allowed", auth.RequireAdmin(h.UpdateAllowed)).Methods("PUT")
	router.HandleFunc("/v1/admin/activities/{key}", auth.RequireAdmin(h.DeleteActivity)).Methods("DELETE")
	router.HandleFunc("/v1/admin/commitments/{address}/process", auth.RequireAdmin(h.commitments.ProcessFor)).Methods("POST")
}

func (h *AdminHandler) OwnerWithdraw(w http.ResponseWriter, r *http.Request) {
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

	if err := h.admin.OwnerWithdraw(r.Context(), identity.Address, req.Amount); err != nil {
		h.logger.Warn(r.Context(), "owner withdrawal rejected", map[string]interface{}{
			"caller": identity.Address,
			"amount": req.Amount,
			"error":  err.Error(),
		})
		response.AppError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Withdrawal accepted", nil)
}

func (h *AdminHandler) WithdrawSlashed(w http.ResponseWriter, r *http.Request) {
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

	if err := h.admin.WithdrawSlashed(r.Context(), identity.Address, req.Amount); err != nil {
		response.AppError(w, err)
		return
	}

	if agg, err := h.ledger.Aggregates(r.Context()); err == nil {
		observability.RecordAggregates(agg.CommitterBalance, agg.SlashedBalance)
	}
	response.Success(w, http.StatusOK, "Slashed withdrawal accepted", nil)
}

type registerActivityRequest struct {
	Name           string   `json:"name"`
	Measures       []string `json:"measures"`
	GoalLowerBound int64    `json:"goal_lower_bound"`
	GoalUpperBound int64    `json:"goal_upper_bound"`
	OracleRef      string   `json:"oracle_ref"`
}

func (h *AdminHandler) RegisterActivity(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req registerActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	activity, err := h.admin.RegisterActivity(r.Context(), identity.Address, req.Name, req.Measures, req.GoalLowerBound, req.GoalUpperBound, req.OracleRef)
	if err != nil {
		response.AppError(w, err)
		return
	}
	response.Success(w, http.StatusCreated, "Activity registered", activity)
}

type updateOracleRequest struct {
	OracleRef string `json:"oracle_ref"`
}

func (h *AdminHandler) UpdateOracle(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req updateOracleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	key := mux.Vars(r)["key"]
	if err := h.admin.UpdateActivityOracle(r.Context(), identity.Address, key, req.OracleRef); err != nil {
		response.AppError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Activity oracle updated", nil)
}

type updateAllowedRequest struct {
	Allowed bool `json:"allowed"`
}

func (h *AdminHandler) UpdateAllowed(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req updateAllowedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	key := mux.Vars(r)["key"]
	if err := h.admin.UpdateActivityAllowed(r.Context(), identity.Address, key, req.Allowed); err != nil {
		response.AppError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Activity availability updated", nil)
}

func (h *AdminHandler) DeleteActivity(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	key := mux.Vars(r)["key"]
	if err := h.admin.DeleteActivity(r.Context(), identity.Address, key); err != nil {
		response.AppError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Activity deleted", nil)
}
