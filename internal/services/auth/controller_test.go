package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*httptest.Server, *testEnv) {
	t.Helper()
	env := newTestEnv(t)
	mux := http.NewServeMux()
	NewController(env.uc, zap.NewNop()).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, env
}

func decodeTokens(t *testing.T, resp *http.Response) tokenResponse {
	t.Helper()
	defer resp.Body.Close()
	var tr tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tr))
	return tr
}

func TestController_Register(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"email":"kirk@enterprise.io","password":"ncc-1701","name":"James Kirk"}`
	resp, err := http.Post(srv.URL+"/auth/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	tr := decodeTokens(t, resp)
	assert.NotEmpty(t, tr.AccessToken)
	assert.NotEmpty(t, tr.RefreshToken)
}

func TestController_RegisterValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad json", "{", http.StatusBadRequest},
		{"missing email", `{"password":"x"}`, http.StatusBadRequest},
		{"missing password", `{"email":"a@b.c"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/auth/register", "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestController_RegisterDuplicate(t *testing.T) {
	srv, _ := newTestServer(t)

	body := `{"email":"kirk@enterprise.io","password":"ncc-1701"}`
	resp, err := http.Post(srv.URL+"/auth/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/auth/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestController_LoginBadCredentials(t *testing.T) {
	srv, _ := newTestServer(t)

	reg := `{"email":"kirk@enterprise.io","password":"ncc-1701"}`
	resp, err := http.Post(srv.URL+"/auth/register", "application/json", strings.NewReader(reg))
	require.NoError(t, err)
	resp.Body.Close()

	// Wrong password and unknown account answer identically.
	for _, body := range []string{
		`{"email":"kirk@enterprise.io","password":"wrong"}`,
		`{"email":"nobody@enterprise.io","password":"ncc-1701"}`,
	} {
		resp, err := http.Post(srv.URL+"/auth/login", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}

func TestController_RefreshErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/refresh", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "missing header")

	req.Header.Set("Authorization", "Bearer not.a.jwt")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "undecodable token")
}

func TestController_RefreshUnknownUser(t *testing.T) {
	srv, env := newTestServer(t)

	body := `{"email":"kirk@enterprise.io","password":"ncc-1701"}`
	resp, err := http.Post(srv.URL+"/auth/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tr := decodeTokens(t, resp)

	env.users.remove("kirk@enterprise.io")

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/refresh", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tr.RefreshToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestController_RefreshAndLogoutFlow(t *testing.T) {
	srv, env := newTestServer(t)

	body := `{"email":"kirk@enterprise.io","password":"ncc-1701"}`
	resp, err := http.Post(srv.URL+"/auth/register", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decodeTokens(t, resp)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/refresh", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+first.RefreshToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decodeTokens(t, resp)

	assert.Equal(t, first.RefreshToken, second.RefreshToken)
	assert.Equal(t, 1, env.tokens.activeCount(1))

	req, err = http.NewRequest(http.MethodPost, srv.URL+"/auth/logout", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+second.AccessToken)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, env.tokens.activeCount(1))
}

func TestController_LogoutUnknownToken(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/auth/logout", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer never-issued")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
