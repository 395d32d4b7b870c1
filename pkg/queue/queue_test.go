package queue

import (
	"testing"

	"github.com/lexidb/lexidb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func TestEnqueueAssignsMonotonicUID(t *testing.T) {
	q := openTestQueue(t)

	uid1, err := q.Enqueue(types.Task{IndexUID: "movies", Kind: types.TaskKindDocumentAdditionOrUpdate})
	require.NoError(t, err)
	uid2, err := q.Enqueue(types.Task{IndexUID: "movies", Kind: types.TaskKindDocumentAdditionOrUpdate})
	require.NoError(t, err)

	assert.Less(t, uid1, uid2)

	task, found, err := q.Get(uid1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.TaskStatusEnqueued, task.Status)
}

func TestListByIndexUID(t *testing.T) {
	q := openTestQueue(t)
	_, err := q.Enqueue(types.Task{IndexUID: "movies", Kind: types.TaskKindDocumentAdditionOrUpdate})
	require.NoError(t, err)
	_, err = q.Enqueue(types.Task{IndexUID: "books", Kind: types.TaskKindDocumentAdditionOrUpdate})
	require.NoError(t, err)

	tasks, err := q.List(Filter{IndexUID: "movies"})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "movies", tasks[0].IndexUID)
}

func TestReserveNextBatchOnlyEnqueued(t *testing.T) {
	q := openTestQueue(t)
	uid1, err := q.Enqueue(types.Task{IndexUID: "movies"})
	require.NoError(t, err)
	uid2, err := q.Enqueue(types.Task{IndexUID: "movies"})
	require.NoError(t, err)

	require.NoError(t, q.MarkProcessing(uid1, 1))
	require.NoError(t, q.Finish(uid1, types.TaskStatusSucceeded, nil))

	tasks, err := q.ReserveNextBatch("movies")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, uid2, tasks[0].UID)
}

func TestCancelOnlyAffectsNonTerminal(t *testing.T) {
	q := openTestQueue(t)
	uid1, err := q.Enqueue(types.Task{IndexUID: "movies"})
	require.NoError(t, err)
	uid2, err := q.Enqueue(types.Task{IndexUID: "movies"})
	require.NoError(t, err)
	require.NoError(t, q.MarkProcessing(uid1, 1))
	require.NoError(t, q.Finish(uid1, types.TaskStatusSucceeded, nil))

	affected, err := q.Cancel(Filter{IndexUID: "movies"}, 99)
	require.NoError(t, err)
	assert.Equal(t, []uint64{uid2}, affected)

	task, _, err := q.Get(uid1)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusSucceeded, task.Status, "terminal task must be untouched")

	task2, _, err := q.Get(uid2)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusCanceled, task2.Status)
}

func TestDeleteRemovesTaskAndIndexes(t *testing.T) {
	q := openTestQueue(t)
	uid, err := q.Enqueue(types.Task{IndexUID: "movies", Kind: types.TaskKindDocumentAdditionOrUpdate})
	require.NoError(t, err)

	affected, err := q.Delete(Filter{UIDs: []uint64{uid}})
	require.NoError(t, err)
	assert.Equal(t, []uint64{uid}, affected)

	_, found, err := q.Get(uid)
	require.NoError(t, err)
	assert.False(t, found)

	tasks, err := q.List(Filter{IndexUID: "movies"})
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestFinishRecordsDuration(t *testing.T) {
	q := openTestQueue(t)
	uid, err := q.Enqueue(types.Task{IndexUID: "movies"})
	require.NoError(t, err)
	require.NoError(t, q.MarkProcessing(uid, 1))
	require.NoError(t, q.Finish(uid, types.TaskStatusSucceeded, nil))

	task, _, err := q.Get(uid)
	require.NoError(t, err)
	assert.NotNil(t, task.FinishedAt)
	assert.GreaterOrEqual(t, task.Duration.Nanoseconds(), int64(0))
}

func TestPutAndGetBatch(t *testing.T) {
	q := openTestQueue(t)
	uid, err := q.NewBatchUID()
	require.NoError(t, err)

	require.NoError(t, q.PutBatch(types.Batch{UID: uid, TaskUIDs: []uint64{1, 2}}))

	batch, found, err := q.GetBatch(uid)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []uint64{1, 2}, batch.TaskUIDs)
}
