package account

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"codecanvas/pkg/core/billing"
)

const userHeader = "X-User-ID"

// Handler serves the caller's plan and credit balance.
type Handler struct {
	Gate *billing.Gate
}

func NewHandler(gate *billing.Gate) *Handler {
	return &Handler{Gate: gate}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/account", h.HandleGet)
	mux.HandleFunc("POST /api/account/credits", h.HandleGrant)
	mux.HandleFunc("POST /api/account/plan", h.HandlePlan)
}

type GrantRequest struct {
	Credits int `json:"credits"`
}

type PlanRequest struct {
	Plan string `json:"plan"`
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		http.Error(w, "missing "+userHeader+" header", http.StatusUnauthorized)
		return
	}
	h.respond(w, r, userID)
}

// HandleGrant adds credits to the caller's balance; an empty body grants one.
func (h *Handler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		http.Error(w, "missing "+userHeader+" header", http.StatusUnauthorized)
		return
	}
	req := GrantRequest{Credits: 1}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}
	if err := h.Gate.Grant(r.Context(), userID, req.Credits); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.respond(w, r, userID)
}

func (h *Handler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		http.Error(w, "missing "+userHeader+" header", http.StatusUnauthorized)
		return
	}
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	plan, err := billing.ParsePlan(req.Plan)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Gate.SetPlan(r.Context(), userID, plan); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, billing.ErrAccountNotFound) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}
	log.Printf("[api.account] %s switched to plan %s", userID, plan)
	h.respond(w, r, userID)
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, userID string) {
	acct, err := h.Gate.Account(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(acct)
}
