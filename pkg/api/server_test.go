package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lexidb/lexidb/pkg/engine"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	eng, err := engine.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(eng.Close)

	key, err := eng.AuthStore().Create("root", "test", []types.Action{types.ActionAll}, []string{"*"}, 0)
	require.NoError(t, err)

	s := NewServer(eng)
	return s, key.Key
}

func doRequest(t *testing.T, s *Server, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "http://example"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	return rr
}

func TestHealthRouteIsUnauthenticated(t *testing.T) {
	s, _ := newTestServer(t)
	rr := doRequest(t, s, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestCreateIndexRequiresAuthorization(t *testing.T) {
	s, _ := newTestServer(t)
	rr := doRequest(t, s, http.MethodPost, "/indexes", "", map[string]any{"uid": "movies"})
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateIndexEnqueuesTask(t *testing.T) {
	s, key := newTestServer(t)
	rr := doRequest(t, s, http.MethodPost, "/indexes", key, map[string]any{"uid": "movies"})
	require.Equal(t, http.StatusAccepted, rr.Code)

	var stub taskStub
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stub))
	require.Equal(t, types.TaskKindIndexCreation, stub.Type)
	require.Equal(t, types.TaskStatusEnqueued, stub.Status)
}

func TestGetUnknownIndexReturnsNotFound(t *testing.T) {
	s, key := newTestServer(t)
	rr := doRequest(t, s, http.MethodGet, "/indexes/missing", key, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, "index_not_found", body.Code)
}

func TestCreateAndListKeys(t *testing.T) {
	s, key := newTestServer(t)
	rr := doRequest(t, s, http.MethodPost, "/keys", key, map[string]any{
		"name":    "search-only",
		"actions": []string{string(types.ActionSearch)},
		"indexes": []string{"movies"},
	})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = doRequest(t, s, http.MethodGet, "/keys", key, nil)
	require.Equal(t, http.StatusOK, rr.Code)
}
