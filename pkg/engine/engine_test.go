package engine

import (
	"testing"

	"github.com/lexidb/lexidb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestCreateIndexThenIndexReturnsSameHandle(t *testing.T) {
	e := openTestEngine(t)

	idx, err := e.CreateIndex("movies")
	require.NoError(t, err)
	require.NotNil(t, idx)

	got, err := e.Index("movies")
	require.NoError(t, err)
	assert.Same(t, idx, got)
}

func TestCreateIndexRejectsDuplicate(t *testing.T) {
	e := openTestEngine(t)

	_, err := e.CreateIndex("movies")
	require.NoError(t, err)

	_, err = e.CreateIndex("movies")
	assert.ErrorIs(t, err, types.ErrIndexAlreadyExists)
}

func TestIndexReturnsNotFoundForUnknownUID(t *testing.T) {
	e := openTestEngine(t)

	_, err := e.Index("missing")
	assert.ErrorIs(t, err, types.ErrIndexNotFound)
}

func TestDeleteIndexRemovesFromRegistry(t *testing.T) {
	e := openTestEngine(t)

	_, err := e.CreateIndex("movies")
	require.NoError(t, err)

	require.NoError(t, e.DeleteIndex("movies"))

	_, err = e.Index("movies")
	assert.ErrorIs(t, err, types.ErrIndexNotFound)
}

func TestDeleteIndexUnknownUIDIsNotFound(t *testing.T) {
	e := openTestEngine(t)
	assert.ErrorIs(t, e.DeleteIndex("missing"), types.ErrIndexNotFound)
}

func TestSwapIndexesExchangesHandles(t *testing.T) {
	e := openTestEngine(t)

	a, err := e.CreateIndex("movies")
	require.NoError(t, err)
	b, err := e.CreateIndex("movies-staging")
	require.NoError(t, err)

	require.NoError(t, e.SwapIndexes("movies", "movies-staging"))

	gotA, err := e.Index("movies")
	require.NoError(t, err)
	gotB, err := e.Index("movies-staging")
	require.NoError(t, err)

	assert.Same(t, b, gotA)
	assert.Same(t, a, gotB)
}

func TestListIndexUIDsReflectsRegistry(t *testing.T) {
	e := openTestEngine(t)

	_, err := e.CreateIndex("movies")
	require.NoError(t, err)
	_, err = e.CreateIndex("books")
	require.NoError(t, err)

	uids, err := e.ListIndexUIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"movies", "books"}, uids)
}

func TestListIndexMetricsReportsDocumentCounts(t *testing.T) {
	e := openTestEngine(t)

	_, err := e.CreateIndex("movies")
	require.NoError(t, err)

	stats, err := e.ListIndexMetrics()
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "movies", stats[0].UID)
	assert.Equal(t, uint64(0), stats[0].NumDocuments)
}

func TestQueueDepthByStatusTalliesEnqueuedTasks(t *testing.T) {
	e := openTestEngine(t)

	_, err := e.Queue().Enqueue(types.Task{IndexUID: "movies", Kind: types.TaskKindDocumentAdditionOrUpdate})
	require.NoError(t, err)
	_, err = e.Queue().Enqueue(types.Task{IndexUID: "movies", Kind: types.TaskKindDocumentAdditionOrUpdate})
	require.NoError(t, err)

	depth, err := e.QueueDepthByStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, depth[types.TaskStatusEnqueued])
}

func TestLoadExistingIndexesReopensOnRestart(t *testing.T) {
	dataDir := t.TempDir()

	e1, err := New(dataDir)
	require.NoError(t, err)
	_, err = e1.CreateIndex("movies")
	require.NoError(t, err)
	e1.Close()

	e2, err := New(dataDir)
	require.NoError(t, err)
	defer e2.Close()

	uids, err := e2.ListIndexUIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"movies"}, uids)
}
