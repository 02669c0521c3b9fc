package flows

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"codecanvas/pkg/core/billing"
	"codecanvas/pkg/core/codefmt"
	"codecanvas/pkg/core/flow"
	coreFlows "codecanvas/pkg/core/flows"
	"codecanvas/pkg/core/history"
)

// UserHeader carries the id of the user making the request.
const UserHeader = "X-User-ID"

// DefaultTimeout bounds a single flow invocation.
const DefaultTimeout = 2 * time.Minute

// Request is the body of POST /api/flows/{name}. Which fields are read depends
// on the flow: generate reads Prompt, Framework and ConversationHistory;
// analyze reads Code; document reads Code, DocumentationType and
// IncludeExamples. With a ConversationID the exchange is appended to that
// conversation, and generate uses it as history when none is sent.
type Request struct {
	ConversationID      string                       `json:"conversationId,omitempty"`
	Prompt              string                       `json:"prompt,omitempty"`
	Framework           string                       `json:"framework,omitempty"`
	ConversationHistory []coreFlows.ConversationTurn `json:"conversationHistory,omitempty"`
	Code                string                       `json:"code,omitempty"`
	DocumentationType   string                       `json:"documentationType,omitempty"`
	IncludeExamples     bool                         `json:"includeExamples,omitempty"`
}

type Response struct {
	ConversationID string `json:"conversationId,omitempty"`
	Result         any    `json:"result"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// Handler serves the flow endpoints. Gate and History are optional.
type Handler struct {
	Service *coreFlows.Service
	Gate    *billing.Gate
	History history.Store
	Timeout time.Duration
}

func NewHandler(service *coreFlows.Service, gate *billing.Gate, store history.Store) *Handler {
	return &Handler{Service: service, Gate: gate, History: store, Timeout: DefaultTimeout}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/flows/{name}", h.HandleInvoke)
	mux.HandleFunc("POST /api/code/inspect", h.HandleInspect)
}

// HandleInvoke runs one flow for the requesting user.
func (h *Handler) HandleInvoke(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "Missing " + UserHeader + " header."})
		return
	}
	if _, ok := h.Service.Registry().Get(name); !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Unknown flow " + name + "."})
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body."})
		return
	}

	ctx := r.Context()
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	conv, err := h.conversation(ctx, userID, name, req)
	if err != nil {
		writeError(w, err)
		return
	}
	if name == coreFlows.Generate && len(req.ConversationHistory) == 0 && conv != nil {
		req.ConversationHistory = conv.Turns()
	}

	var reservation *billing.Reservation
	if h.Gate != nil {
		reservation, err = h.Gate.Authorize(ctx, userID, name)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	reply, err := h.invoke(ctx, name, req)
	if reservation != nil {
		// the refund must happen even when the request context is gone
		if settleErr := reservation.Settle(context.WithoutCancel(ctx), err); settleErr != nil {
			log.Printf("[api.flows] settle for %s: %v", userID, settleErr)
		}
	}
	if err != nil {
		writeError(w, err)
		return
	}

	resp := Response{Result: reply.result}
	if conv != nil {
		conv.Append(history.Message{Role: history.RoleUser, Type: name, Prompt: input(name, req)})
		conv.Append(reply.message)
		if err := h.History.Save(context.WithoutCancel(ctx), conv); err != nil {
			log.Printf("[api.flows] failed to save conversation %s: %v", conv.ID, err)
		} else {
			resp.ConversationID = conv.ID
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// conversation loads the conversation the request continues, or starts one.
// It returns nil when no history store is configured.
func (h *Handler) conversation(ctx context.Context, userID, name string, req Request) (*history.Conversation, error) {
	if h.History == nil {
		return nil, nil
	}
	if req.ConversationID == "" {
		return history.NewConversation(userID, input(name, req)), nil
	}
	return h.History.Get(ctx, userID, req.ConversationID)
}

// input is the text the user sent for the flow.
func input(name string, req Request) string {
	if name == coreFlows.Generate {
		return req.Prompt
	}
	return req.Code
}

type reply struct {
	result  any
	message history.Message
}

func (h *Handler) invoke(ctx context.Context, name string, req Request) (*reply, error) {
	msg := history.Message{Role: history.RoleAssistant, Type: name, Prompt: input(name, req)}
	switch name {
	case coreFlows.Generate:
		out, err := h.Service.GenerateCodeSnippet(ctx, coreFlows.GenerateCodeSnippetInput{
			Prompt:              req.Prompt,
			Framework:           req.Framework,
			ConversationHistory: req.ConversationHistory,
		})
		if err != nil {
			return nil, err
		}
		if !codefmt.HasExtension(out.FileName) {
			out.FileName = codefmt.SnippetFileName(out.Code)
		}
		msg.Code, msg.Explanation, msg.FileName = out.Code, out.Explanation, out.FileName
		return &reply{result: out, message: msg}, nil

	case coreFlows.Analyze:
		out, err := h.Service.AnalyzeCode(ctx, coreFlows.AnalyzeCodeInput{Code: req.Code})
		if err != nil {
			return nil, err
		}
		msg.Analysis = out
		return &reply{result: out, message: msg}, nil

	default:
		out, err := h.Service.GenerateDocumentation(ctx, coreFlows.GenerateDocumentationInput{
			Code:              req.Code,
			DocumentationType: req.DocumentationType,
			IncludeExamples:   req.IncludeExamples,
		})
		if err != nil {
			return nil, err
		}
		msg.Documentation = out
		return &reply{result: out, message: msg}, nil
	}
}

// InspectRequest is the body of POST /api/code/inspect.
type InspectRequest struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

type InspectResponse struct {
	codefmt.Metadata
	Extension string   `json:"extension"`
	FileName  string   `json:"fileName"`
	Functions []string `json:"functions"`
	Formatted string   `json:"formatted"`
}

// HandleInspect reports local heuristics about a snippet without calling a model.
func (h *Handler) HandleInspect(w http.ResponseWriter, r *http.Request) {
	var req InspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body."})
		return
	}
	meta := codefmt.Analyze(req.Code)
	lang := req.Language
	if lang == "" {
		lang = meta.Language
	}
	functions := codefmt.ExtractFunctions(req.Code, lang)
	if functions == nil {
		functions = []string{}
	}
	writeJSON(w, http.StatusOK, InspectResponse{
		Metadata:  meta,
		Extension: codefmt.FileExtension(lang),
		FileName:  codefmt.SnippetFileName(req.Code),
		Functions: functions,
		Formatted: codefmt.Format(req.Code, lang),
	})
}

// StatusFor maps an error to the HTTP status and the message shown to the user.
func StatusFor(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, billing.ErrPlanRequired):
		return http.StatusForbidden, ErrorResponse{Error: "Your plan does not include this feature.", Kind: "plan_required"}
	case errors.Is(err, billing.ErrNoCredits):
		return http.StatusPaymentRequired, ErrorResponse{Error: "You have no credits left.", Kind: "no_credits"}
	case errors.Is(err, history.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "Conversation not found."}
	case errors.Is(err, history.ErrInvalidID):
		return http.StatusBadRequest, ErrorResponse{Error: "Invalid conversation id."}
	}

	kind := flow.KindOf(err)
	resp := ErrorResponse{Error: flow.UserMessage(err)}
	if kind != 0 {
		resp.Kind = kind.String()
	}
	switch kind {
	case flow.KindInvalidInput:
		return http.StatusBadRequest, resp
	case flow.KindProviderFailure:
		return http.StatusServiceUnavailable, resp
	case flow.KindCancelled:
		return http.StatusRequestTimeout, resp
	default:
		return http.StatusInternalServerError, resp
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, resp := StatusFor(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[api.flows] %d: %v", status, err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
