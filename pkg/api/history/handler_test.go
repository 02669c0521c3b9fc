package history

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codecanvas/pkg/core/history"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(userHeader, "ana")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestConversationEndpoints(t *testing.T) {
	store := history.NewFileStore(t.TempDir())
	c := history.NewConversation("ana", "build a todo app")
	c.Append(history.Message{Role: history.RoleUser, Type: "generate", Prompt: "build a todo app"})
	require.NoError(t, store.Save(context.Background(), c))

	mux := http.NewServeMux()
	NewHandler(store, history.NewLibraries("")).Register(mux)

	rec := serve(mux, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []history.Summary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "build a todo app", list[0].Title)

	rec = serve(mux, http.MethodGet, "/api/history/"+c.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(mux, http.MethodDelete, "/api/history/"+c.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = serve(mux, http.MethodGet, "/api/history/"+c.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(mux, http.MethodGet, "/api/history/a%5Cb", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnippetEndpoints(t *testing.T) {
	store := history.NewFileStore(t.TempDir())
	c := history.NewConversation("ana", "sql please")
	c.Append(history.Message{Role: history.RoleAssistant, Type: "generate", Code: "SELECT 1", FileName: "q.sql"})
	require.NoError(t, store.Save(context.Background(), c))

	mux := http.NewServeMux()
	NewHandler(store, history.NewLibraries(t.TempDir())).Register(mux)

	rec := serve(mux, http.MethodPost, "/api/snippets", `{"code":"def f():\n    return 1","tags":["math"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var py history.Snippet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &py))
	assert.Equal(t, "python", py.Language)

	body, _ := json.Marshal(AddSnippetRequest{ConversationID: c.ID, MessageID: c.Messages[0].ID})
	rec = serve(mux, http.MethodPost, "/api/snippets", string(body))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(mux, http.MethodPost, "/api/snippets/"+py.ID+"/favorite", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []history.Snippet
	rec = serve(mux, http.MethodGet, "/api/snippets?favorites=true", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, py.ID, got[0].ID)

	rec = serve(mux, http.MethodGet, "/api/snippets?q=MATH", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)

	rec = serve(mux, http.MethodPatch, "/api/snippets/"+py.ID, `{"title":"One"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"One"`)

	rec = serve(mux, http.MethodDelete, "/api/snippets/"+py.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = serve(mux, http.MethodDelete, "/api/snippets/"+py.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(mux, http.MethodPost, "/api/snippets", `{"title":"empty"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
