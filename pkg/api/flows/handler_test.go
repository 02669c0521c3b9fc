package flows

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"codecanvas/pkg/core/billing"
	coreFlows "codecanvas/pkg/core/flows"
	"codecanvas/pkg/core/history"
	"codecanvas/pkg/core/llm"
	"codecanvas/pkg/core/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	mux      *http.ServeMux
	handler  *Handler
	provider *llm.MockProvider
	gate     *billing.Gate
	history  *history.FileStore
}

func newFixture(t *testing.T, provider *llm.MockProvider) *fixture {
	t.Helper()
	registry, err := coreFlows.NewRegistry(nil, func(string) llm.Provider { return provider })
	require.NoError(t, err)

	f := &fixture{
		mux:      http.NewServeMux(),
		provider: provider,
		gate:     billing.NewGate(billing.NewMemoryStore()),
		history:  history.NewFileStore(t.TempDir()),
	}
	f.handler = NewHandler(coreFlows.NewService(registry), f.gate, f.history)
	f.handler.Register(f.mux)
	return f
}

func (f *fixture) post(t *testing.T, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	if user != "" {
		req.Header.Set(UserHeader, user)
	}
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func TestInvoke_GenerateRecordsConversation(t *testing.T) {
	f := newFixture(t, &llm.MockProvider{InvokeFunc: func(ctx context.Context, p string, s *schema.FlowSchema) (map[string]any, error) {
		return map[string]any{"code": "package main", "explanation": "Un programa.", "fileName": "main"}, nil
	}})

	rec := f.post(t, "/api/flows/generate", "ana", Request{Prompt: "hello world in go"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		ConversationID string                              `json:"conversationId"`
		Result         coreFlows.GenerateCodeSnippetOutput `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "snippet.go", resp.Result.FileName, "names without an extension are derived from the code")
	require.NotEmpty(t, resp.ConversationID)

	// the follow-up carries the first exchange as history
	rec = f.post(t, "/api/flows/generate", "ana", Request{ConversationID: resp.ConversationID, Prompt: "add a test"})
	require.Equal(t, http.StatusOK, rec.Code)
	second := f.provider.Prompts()[1]
	assert.Contains(t, second, "user: hello world in go")
	assert.Contains(t, second, "assistant: Un programa.\n\nCódigo generado:\npackage main")

	conv, err := f.history.Get(context.Background(), "ana", resp.ConversationID)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 4)

	acct, err := f.gate.Account(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, billing.SignupCredits-2, acct.Credits)
}

func TestInvoke_Errors(t *testing.T) {
	f := newFixture(t, &llm.MockProvider{InvokeFunc: func(ctx context.Context, p string, s *schema.FlowSchema) (map[string]any, error) {
		return nil, &llm.ProviderError{Provider: "mock", Kind: llm.ErrProviderUnavailable}
	}})

	rec := f.post(t, "/api/flows/analyze", "", Request{Code: "x"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.post(t, "/api/flows/translate", "ana", Request{Code: "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.post(t, "/api/flows/document", "ana", Request{Code: "x"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.post(t, "/api/flows/analyze", "ana", Request{Code: "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "temporarily unavailable")

	acct, err := f.gate.Account(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, billing.SignupCredits, acct.Credits, "failed invocations are refunded")
	assert.Empty(t, mustList(t, f.history, "ana"), "failed invocations leave no conversation")
}

func TestInvoke_InvalidInputAndNoCredits(t *testing.T) {
	f := newFixture(t, &llm.MockProvider{})

	rec := f.post(t, "/api/flows/document", "ana", Request{Code: "x", DocumentationType: "poem"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	require.NoError(t, f.gate.SetPlan(context.Background(), "ana", billing.PlanPro))
	rec = f.post(t, "/api/flows/document", "ana", Request{Code: "x", DocumentationType: "poem"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your input was invalid.")

	for i := 0; i < billing.SignupCredits; i++ {
		require.Equal(t, http.StatusOK, f.post(t, "/api/flows/analyze", "ben", Request{Code: "x"}).Code)
	}
	rec = f.post(t, "/api/flows/analyze", "ben", Request{Code: "x"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestInvoke_DeadlineAndCancellation(t *testing.T) {
	f := newFixture(t, &llm.MockProvider{Latency: time.Second})
	f.handler.Timeout = 20 * time.Millisecond

	rec := f.post(t, "/api/flows/analyze", "ana", Request{Code: "x"})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "a server-side deadline is a provider timeout")
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "provider failure", resp.Kind)

	f.handler.Timeout = DefaultTimeout
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/api/flows/analyze", strings.NewReader(`{"code":"x"}`)).WithContext(ctx)
	req.Header.Set(UserHeader, "ana")
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	rec = httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestTimeout, rec.Code, "a client that goes away is a cancellation")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "cancelled", resp.Kind)

	acct, err := f.gate.Account(context.Background(), "ana")
	require.NoError(t, err)
	assert.Equal(t, billing.SignupCredits, acct.Credits)
}

func TestInvoke_AnalyzeKeepsUserCodeOutOfHistory(t *testing.T) {
	f := newFixture(t, &llm.MockProvider{})

	rec := f.post(t, "/api/flows/analyze", "ana", Request{Code: "print('hi')"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	conv, err := f.history.Get(context.Background(), "ana", resp.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "print('hi')", conv.Messages[0].Prompt)
	assert.Empty(t, conv.Messages[1].Code)
	assert.NotNil(t, conv.Messages[1].Analysis)
	for _, turn := range conv.Turns() {
		assert.NotContains(t, turn.Content, "Código generado")
	}
}

func TestInvoke_InvalidConversationID(t *testing.T) {
	f := newFixture(t, &llm.MockProvider{})

	rec := f.post(t, "/api/flows/generate", "ana", Request{ConversationID: "a/b", Prompt: "hi"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Invalid conversation id.")
	assert.Empty(t, f.provider.Prompts())
}

func TestHandleInspect(t *testing.T) {
	f := newFixture(t, &llm.MockProvider{})
	rec := f.post(t, "/api/code/inspect", "", InspectRequest{Code: "def a():\n  pass\ndef b():\n  pass"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp InspectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "python", resp.Language)
	assert.Equal(t, "py", resp.Extension)
	assert.Equal(t, []string{"a", "b"}, resp.Functions)
	assert.True(t, strings.HasPrefix(resp.FileName, "snippet."))
}

func mustList(t *testing.T, s history.Store, user string) []history.Summary {
	t.Helper()
	list, err := s.List(context.Background(), user)
	require.NoError(t, err)
	return list
}
