package ship

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/novadock/hangar/internal/domain/ship"
	"github.com/novadock/hangar/internal/services/auth"
)

// withPrincipal stamps every request with an authenticated identity, the
// way the gate does for live traffic.
func withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := auth.WithPrincipal(r.Context(), &auth.Principal{UserID: 1, Email: "kirk@enterprise.io"})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newShipServer(t *testing.T, authed bool) (*httptest.Server, *fakeShipRepo) {
	t.Helper()
	repo := newFakeShipRepo()
	svc := NewCachedService(NewUsecase(repo, zap.NewNop()), 100, time.Minute)
	mux := http.NewServeMux()
	NewController(svc, zap.NewNop()).Register(mux)

	var h http.Handler = mux
	if authed {
		h = withPrincipal(mux)
	}
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, repo
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func TestShipController_RequiresPrincipal(t *testing.T) {
	srv, _ := newShipServer(t, false)

	resp, err := http.Get(srv.URL + "/ships")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestShipController_CRUD(t *testing.T) {
	srv, _ := newShipServer(t, true)

	resp := doJSON(t, http.MethodPost, srv.URL+"/ships", `{"id":"f-1","name":"Falcon","platform":"freighter"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/ships", `{"id":"f-1","name":"Falcon"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err := http.Get(srv.URL + "/ships/f-1")
	require.NoError(t, err)
	var got ship.Spaceship
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Falcon", got.Name)

	resp = doJSON(t, http.MethodPut, srv.URL+"/ships/f-1", `{"name":"Millennium Falcon","platform":"freighter"}`)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Millennium Falcon", got.Name)
	assert.Equal(t, "f-1", got.ID, "id comes from the path, not the body")

	resp = doJSON(t, http.MethodDelete, srv.URL+"/ships/f-1", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ships/f-1")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShipController_List(t *testing.T) {
	srv, _ := newShipServer(t, true)

	resp, err := http.Get(srv.URL + "/ships")
	require.NoError(t, err)
	var ships []*ship.Spaceship
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ships))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, ships, "empty list encodes as [], not null")

	resp = doJSON(t, http.MethodPost, srv.URL+"/ships", `{"id":"f-1","name":"Falcon"}`)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/ships?name=Falcon")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ships))
	resp.Body.Close()
	require.Len(t, ships, 1)
	assert.Equal(t, "f-1", ships[0].ID)
}

func TestShipController_PageParams(t *testing.T) {
	srv, _ := newShipServer(t, true)

	cases := []struct {
		name  string
		query string
		want  int
	}{
		{"defaults", "", http.StatusOK},
		{"explicit", "?page=2&size=10", http.StatusOK},
		{"max size", "?size=50", http.StatusOK},
		{"negative page", "?page=-1", http.StatusBadRequest},
		{"zero size", "?size=0", http.StatusBadRequest},
		{"oversized", "?size=51", http.StatusBadRequest},
		{"non-numeric page", "?page=abc", http.StatusBadRequest},
		{"non-numeric size", "?size=abc", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/ships" + tc.query)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}

func TestShipController_InvalidBody(t *testing.T) {
	srv, _ := newShipServer(t, true)

	resp := doJSON(t, http.MethodPost, srv.URL+"/ships", "{")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/ships", `{"id":"f-1"}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "name is required")
}
