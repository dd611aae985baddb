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

// CommitmentHandler exposes the commitment lifecycle.
type CommitmentHandler struct {
	commitments *usecase.CommitmentUseCase
	logger      logger.Logger
}

func NewCommitmentHandler(commitments *usecase.CommitmentUseCase, log logger.Logger) *CommitmentHandler {
	return &CommitmentHandler{commitments: commitments, logger: log}
}

func (h *CommitmentHandler) RegisterRoutes(router *mux.Router, auth *middleware.AuthMiddleware) {
	router.HandleFunc("/v1/commitments", auth.RequireAuth(h.Make)).Methods("POST")
	router.HandleFunc("/v1/commitments", auth.RequireAuth(h.Get)).Methods("GET")
	router.HandleFunc("/v1/commitments/deposit-and-commit", auth.RequireAuth(h.DepositAndCommit)).Methods("POST")
	router.HandleFunc("/v1/commitments/process", auth.RequireAuth(h.ProcessOwn)).Methods("POST")
}

func (h *CommitmentHandler) Make(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req usecase.MakeCommitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	commitment, err := h.commitments.Make(r.Context(), identity.Address, req)
	if err != nil {
		h.logger.Warn(r.Context(), "commitment rejected", map[string]interface{}{
			"committer":    identity.Address,
			"activity_key": req.ActivityKey,
			"error":        err.Error(),
		})
		response.AppError(w, err)
		return
	}

	observability.RecordCommitmentOpened()
	response.Success(w, http.StatusCreated, "Commitment created", commitment)
}

type depositAndCommitRequest struct {
	Amount     int64                         `json:"amount"`
	Commitment usecase.MakeCommitmentRequest `json:"commitment"`
}

func (h *CommitmentHandler) DepositAndCommit(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req depositAndCommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	commitment, err := h.commitments.DepositAndCommit(r.Context(), identity.Address, req.Amount, req.Commitment)
	if err != nil {
		response.AppError(w, err)
		return
	}

	observability.RecordDeposit()
	observability.RecordCommitmentOpened()
	response.Success(w, http.StatusCreated, "Commitment created", commitment)
}

func (h *CommitmentHandler) ProcessOwn(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}
	h.process(w, r, identity.Address)
}

// ProcessFor settles another committer's commitment; routed under admin.
func (h *CommitmentHandler) ProcessFor(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if address == "" {
		response.BadRequest(w, "Committer address is required")
		return
	}
	h.process(w, r, address)
}

func (h *CommitmentHandler) process(w http.ResponseWriter, r *http.Request, committer string) {
	result, err := h.commitments.Process(r.Context(), committer)
	if err != nil {
		response.AppError(w, err)
		return
	}

	observability.RecordCommitmentSettled(result.Met)
	h.logger.Info(r.Context(), "commitment settled", map[string]interface{}{
		"committer": result.Committer,
		"met":       result.Met,
		"stake":     result.Stake,
	})
	response.Success(w, http.StatusOK, "Commitment settled", result)
}

func (h *CommitmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	commitment, err := h.commitments.Get(r.Context(), identity.Address)
	if err != nil {
		response.AppError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Active commitment", commitment)
}
