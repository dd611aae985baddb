package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/commitpool/commitpool/application/usecase"
	"github.com/commitpool/commitpool/infrastructure/http/response"
)

// ActivityHandler exposes the registry's read contract. Discovery is public;
// the registry has no secrets.
type ActivityHandler struct {
	registry *usecase.RegistryUseCase
}

func NewActivityHandler(registry *usecase.RegistryUseCase) *ActivityHandler {
	return &ActivityHandler{registry: registry}
}

func (h *ActivityHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/v1/activities", h.List).Methods("GET")
	router.HandleFunc("/v1/activities/{key}", h.Lookup).Methods("GET")
}

// List returns all activities, or a single key when ?index= is given.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	if raw := r.URL.Query().Get("index"); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(w, "Invalid index")
			return
		}
		key, err := h.registry.KeyAt(r.Context(), index)
		if err != nil {
			response.AppError(w, err)
			return
		}
		response.Success(w, http.StatusOK, "Activity key", map[string]string{"key": key})
		return
	}

	activities, err := h.registry.List(r.Context())
	if err != nil {
		response.AppError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Activities", activities)
}

func (h *ActivityHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	activity, err := h.registry.Lookup(r.Context(), key)
	if err != nil {
		response.AppError(w, err)
		return
	}
	response.Success(w, http.StatusOK, "Activity", activity)
}
