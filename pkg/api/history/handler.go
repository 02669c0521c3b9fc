package history

import (
	"encoding/json"
	"errors"
	"net/http"

	"codecanvas/pkg/core/history"
)

const userHeader = "X-User-ID"

// Handler serves saved conversations and the snippet library.
type Handler struct {
	Store     history.Store
	Libraries *history.Libraries
}

func NewHandler(store history.Store, libraries *history.Libraries) *Handler {
	return &Handler{Store: store, Libraries: libraries}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/history", h.HandleList)
	mux.HandleFunc("GET /api/history/{id}", h.HandleGet)
	mux.HandleFunc("DELETE /api/history/{id}", h.HandleDelete)

	mux.HandleFunc("GET /api/snippets", h.HandleSnippets)
	mux.HandleFunc("POST /api/snippets", h.HandleAddSnippet)
	mux.HandleFunc("PATCH /api/snippets/{id}", h.HandleUpdateSnippet)
	mux.HandleFunc("DELETE /api/snippets/{id}", h.HandleDeleteSnippet)
	mux.HandleFunc("POST /api/snippets/{id}/favorite", h.HandleToggleFavorite)
}

func user(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := r.Header.Get(userHeader)
	if userID == "" {
		http.Error(w, "missing "+userHeader+" header", http.StatusUnauthorized)
		return "", false
	}
	return userID, true
}

func fail(w http.ResponseWriter, err error) {
	if errors.Is(err, history.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, history.ErrInvalidID) {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := user(w, r)
	if !ok {
		return
	}
	list, err := h.Store.List(r.Context(), userID)
	if err != nil {
		fail(w, err)
		return
	}
	if list == nil {
		list = []history.Summary{}
	}
	writeJSON(w, list)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := user(w, r)
	if !ok {
		return
	}
	c, err := h.Store.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, c)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := user(w, r)
	if !ok {
		return
	}
	if err := h.Store.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) library(w http.ResponseWriter, r *http.Request) (*history.Library, bool) {
	userID, ok := user(w, r)
	if !ok {
		return nil, false
	}
	l, err := h.Libraries.For(userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return l, true
}

// HandleSnippets lists snippets, filtered by ?q=, ?language= or ?favorites=true.
func (h *Handler) HandleSnippets(w http.ResponseWriter, r *http.Request) {
	l, ok := h.library(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	switch {
	case q.Get("favorites") == "true":
		writeJSON(w, l.Favorites())
	case q.Get("language") != "":
		writeJSON(w, l.ByLanguage(q.Get("language")))
	default:
		writeJSON(w, l.Search(q.Get("q")))
	}
}

// AddSnippetRequest saves either an explicit snippet or the code of an
// assistant message from a saved conversation.
type AddSnippetRequest struct {
	history.Snippet
	ConversationID string `json:"conversationId,omitempty"`
	MessageID      string `json:"messageId,omitempty"`
}

func (h *Handler) HandleAddSnippet(w http.ResponseWriter, r *http.Request) {
	l, ok := h.library(w, r)
	if !ok {
		return
	}
	var req AddSnippetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	snippet := req.Snippet
	if req.ConversationID != "" {
		c, err := h.Store.Get(r.Context(), r.Header.Get(userHeader), req.ConversationID)
		if err != nil {
			fail(w, err)
			return
		}
		found := false
		for _, m := range c.Messages {
			if m.ID == req.MessageID {
				snippet, found = history.SnippetFromMessage(m)
				break
			}
		}
		if !found {
			http.Error(w, "message has no code", http.StatusBadRequest)
			return
		}
	}
	if snippet.Code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	saved, err := l.Add(snippet)
	if err != nil {
		fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(saved)
}

func (h *Handler) HandleUpdateSnippet(w http.ResponseWriter, r *http.Request) {
	l, ok := h.library(w, r)
	if !ok {
		return
	}
	var u history.SnippetUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s, err := l.Update(r.PathValue("id"), u)
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, s)
}

func (h *Handler) HandleDeleteSnippet(w http.ResponseWriter, r *http.Request) {
	l, ok := h.library(w, r)
	if !ok {
		return
	}
	if err := l.Delete(r.PathValue("id")); err != nil {
		fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	l, ok := h.library(w, r)
	if !ok {
		return
	}
	s, err := l.ToggleFavorite(r.PathValue("id"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, s)
}
