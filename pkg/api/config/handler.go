package config

import (
	"encoding/json"
	"log"
	"net/http"

	"codecanvas/pkg/core/agent"
)

type Response struct {
	ActiveProvider string            `json:"active_provider"`
	Available      []string          `json:"available"`
	Flows          map[string]string `json:"flows"` // flow name -> provider serving it
}

type SwitchRequest struct {
	Provider string `json:"provider"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	AgentMgr *agent.Manager
	Flows    []string
}

// NewHandler creates a new config handler reporting on the named flows
func NewHandler(agentMgr *agent.Manager, flows []string) *Handler {
	return &Handler{
		AgentMgr: agentMgr,
		Flows:    flows,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/config", h.HandleConfig)
	mux.HandleFunc("POST /api/config/switch", h.HandleSwitch)
}

func (h *Handler) response() Response {
	resp := Response{
		ActiveProvider: h.AgentMgr.GetActiveProvider(),
		Available:      h.AgentMgr.Available(),
		Flows:          make(map[string]string, len(h.Flows)),
	}
	for _, name := range h.Flows {
		if provider, err := h.AgentMgr.ProviderFor(name); err == nil {
			resp.Flows[name] = provider
		}
	}
	return resp
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.response())
}

func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err = h.AgentMgr.SetGlobalProvider(req.Provider)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Printf("[api.config] switched active provider to %s", req.Provider)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.response())
}
