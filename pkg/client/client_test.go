package client_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lexidb/lexidb/pkg/api"
	"github.com/lexidb/lexidb/pkg/client"
	"github.com/lexidb/lexidb/pkg/engine"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *client.Client {
	t.Helper()
	eng, err := engine.New(t.TempDir())
	require.NoError(t, err)

	key, err := eng.AuthStore().Create("root", "test", []types.Action{types.ActionAll}, []string{"*"}, 0)
	require.NoError(t, err)

	eng.Start()
	t.Cleanup(eng.Stop)

	srv := httptest.NewServer(api.NewServer(eng))
	t.Cleanup(srv.Close)

	return client.New(srv.URL, client.WithAPIKey(key.Key))
}

func TestCreateIndexAndWaitForTask(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	stub, err := c.CreateIndex(ctx, "movies", "id")
	require.NoError(t, err)
	require.Equal(t, types.TaskKindIndexCreation, stub.Type)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	task, err := c.WaitForTask(waitCtx, stub.TaskUID, 10*time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, types.TaskStatusSucceeded, task.Status)

	idx, err := c.GetIndex(ctx, "movies")
	require.NoError(t, err)
	require.Equal(t, "movies", idx.UID)
}

func TestCreateKeyAndList(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	key, err := c.CreateKey(ctx, "search-only", "", []types.Action{types.ActionSearch}, []string{"*"})
	require.NoError(t, err)
	require.NotEmpty(t, key.Key)

	keys, err := c.ListKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 2) // root + search-only
}

func TestGetUnknownIndexReturnsAPIError(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.GetIndex(ctx, "missing")
	require.Error(t, err)

	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "index_not_found", apiErr.Code)
}
