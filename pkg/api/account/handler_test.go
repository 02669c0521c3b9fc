package account

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"codecanvas/pkg/core/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, billing.Account) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(userHeader, "ana")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var acct billing.Account
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &acct))
	}
	return rec, acct
}

func TestAccountHandler(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(billing.NewGate(billing.NewMemoryStore())).Register(mux)

	rec, acct := do(t, mux, http.MethodGet, "/api/account", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, billing.PlanFree, acct.Plan)
	assert.Equal(t, billing.SignupCredits, acct.Credits)

	_, acct = do(t, mux, http.MethodPost, "/api/account/credits", "")
	assert.Equal(t, billing.SignupCredits+1, acct.Credits)

	_, acct = do(t, mux, http.MethodPost, "/api/account/credits", `{"credits":5}`)
	assert.Equal(t, billing.SignupCredits+6, acct.Credits)

	_, acct = do(t, mux, http.MethodPost, "/api/account/plan", `{"plan":"ultra"}`)
	assert.Equal(t, billing.PlanUltra, acct.Plan)

	rec, _ = do(t, mux, http.MethodPost, "/api/account/plan", `{"plan":"gold"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
	anon := httptest.NewRecorder()
	mux.ServeHTTP(anon, req)
	assert.Equal(t, http.StatusUnauthorized, anon.Code)
}
