package scheduler

import (
	"fmt"
	"sync"
	"testing"

	"github.com/lexidb/lexidb/pkg/events"
	"github.com/lexidb/lexidb/pkg/index"
	"github.com/lexidb/lexidb/pkg/queue"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRegistry opens real *index.Index handles under a temp data dir,
// standing in for the engine handle's index registry.
type fakeRegistry struct {
	mu      sync.Mutex
	dataDir string
	indexes map[string]*index.Index
}

func newFakeRegistry(t *testing.T) *fakeRegistry {
	return &fakeRegistry{dataDir: t.TempDir(), indexes: map[string]*index.Index{}}
}

func (r *fakeRegistry) Index(uid string) (*index.Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if idx, ok := r.indexes[uid]; ok {
		return idx, nil
	}
	idx, err := index.Open(r.dataDir, uid)
	if err != nil {
		return nil, err
	}
	r.indexes[uid] = idx
	return idx, nil
}

func (r *fakeRegistry) CreateIndex(uid string) (*index.Index, error) {
	r.mu.Lock()
	if _, exists := r.indexes[uid]; exists {
		r.mu.Unlock()
		return nil, types.ErrIndexAlreadyExists
	}
	r.mu.Unlock()
	return r.Index(uid)
}

func (r *fakeRegistry) DeleteIndex(uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.indexes[uid]
	if !ok {
		return types.ErrIndexNotFound
	}
	delete(r.indexes, uid)
	return idx.Close()
}

func (r *fakeRegistry) SwapIndexes(uidA, uidB string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, okA := r.indexes[uidA]
	b, okB := r.indexes[uidB]
	if !okA || !okB {
		return types.ErrIndexNotFound
	}
	r.indexes[uidA], r.indexes[uidB] = b, a
	return nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *queue.Queue, *fakeRegistry) {
	q, err := queue.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Close() })

	registry := newFakeRegistry(t)
	broker := events.NewBroker()
	broker.Start()
	t.Cleanup(broker.Stop)

	s := NewScheduler(q, registry, broker)
	return s, q, registry
}

func TestScheduleIndexDocumentAddition(t *testing.T) {
	s, q, registry := newTestScheduler(t)
	_, err := registry.CreateIndex("movies")
	require.NoError(t, err)

	uid, err := q.Enqueue(types.Task{
		IndexUID: "movies",
		Kind:     types.TaskKindDocumentAdditionOrUpdate,
		Details: map[string]any{
			"documents": []map[string]any{{"id": "1", "title": "Arrival"}},
		},
	})
	require.NoError(t, err)

	served, err := s.scheduleIndex("movies")
	require.NoError(t, err)
	assert.True(t, served)

	task, found, err := q.Get(uid)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, types.TaskStatusSucceeded, task.Status)
	require.NotNil(t, task.BatchUID)

	batch, found, err := q.GetBatch(*task.BatchUID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, batch.Stats.TotalTasks)
	assert.Equal(t, 1, batch.Stats.Succeeded[types.TaskKindDocumentAdditionOrUpdate])
}

func TestScheduleIndexMalformedDocumentFailsOnlyThatTask(t *testing.T) {
	s, q, registry := newTestScheduler(t)
	_, err := registry.CreateIndex("movies")
	require.NoError(t, err)

	goodUID, err := q.Enqueue(types.Task{
		IndexUID: "movies",
		Kind:     types.TaskKindDocumentAdditionOrUpdate,
		Details: map[string]any{
			"documents": []map[string]any{{"id": "1", "title": "Arrival"}},
		},
	})
	require.NoError(t, err)

	badUID, err := q.Enqueue(types.Task{
		IndexUID: "movies",
		Kind:     types.TaskKindDocumentAdditionOrUpdate,
		Details: map[string]any{
			"documents": []map[string]any{{"title": "no primary key field"}},
		},
	})
	require.NoError(t, err)

	served, err := s.scheduleIndex("movies")
	require.NoError(t, err)
	assert.True(t, served)

	good, _, err := q.Get(goodUID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusSucceeded, good.Status)

	bad, _, err := q.Get(badUID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusFailed, bad.Status)
	require.NotNil(t, bad.Error)
}

func TestScheduleIndexSettingsUpdateIsSingleton(t *testing.T) {
	s, q, registry := newTestScheduler(t)
	_, err := registry.CreateIndex("movies")
	require.NoError(t, err)

	settingsUID, err := q.Enqueue(types.Task{
		IndexUID: "movies",
		Kind:     types.TaskKindSettingsUpdate,
		Details:  map[string]any{"settings": types.Settings{}},
	})
	require.NoError(t, err)

	additionUID, err := q.Enqueue(types.Task{
		IndexUID: "movies",
		Kind:     types.TaskKindDocumentAdditionOrUpdate,
		Details: map[string]any{
			"documents": []map[string]any{{"id": "1"}},
		},
	})
	require.NoError(t, err)

	served, err := s.scheduleIndex("movies")
	require.NoError(t, err)
	assert.True(t, served)

	settingsTask, _, err := q.Get(settingsUID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusSucceeded, settingsTask.Status)

	additionTask, _, err := q.Get(additionUID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusEnqueued, additionTask.Status)
}

func TestScheduleIndexCreationAndDeletion(t *testing.T) {
	s, q, registry := newTestScheduler(t)

	createUID, err := q.Enqueue(types.Task{IndexUID: "movies", Kind: types.TaskKindIndexCreation})
	require.NoError(t, err)

	served, err := s.scheduleIndex("movies")
	require.NoError(t, err)
	assert.True(t, served)

	createTask, _, err := q.Get(createUID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusSucceeded, createTask.Status)

	deleteUID, err := q.Enqueue(types.Task{IndexUID: "movies", Kind: types.TaskKindIndexDeletion})
	require.NoError(t, err)

	served, err = s.scheduleIndex("movies")
	require.NoError(t, err)
	assert.True(t, served)

	deleteTask, _, err := q.Get(deleteUID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusSucceeded, deleteTask.Status)

	_, err = registry.Index("movies")
	require.NoError(t, err) // Index lazily reopens; absence of an error here only confirms Open still works after delete.
}

func TestScheduleCrossIndexTaskCancelation(t *testing.T) {
	s, q, _ := newTestScheduler(t)

	targetUID, err := q.Enqueue(types.Task{IndexUID: "movies", Kind: types.TaskKindDocumentAdditionOrUpdate})
	require.NoError(t, err)

	cancelUID, err := q.Enqueue(types.Task{
		Kind:    types.TaskKindTaskCancelation,
		Details: map[string]any{"uids": []uint64{targetUID}},
	})
	require.NoError(t, err)

	served, err := s.scheduleIndex("")
	require.NoError(t, err)
	assert.True(t, served)

	cancelTask, _, err := q.Get(cancelUID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusSucceeded, cancelTask.Status)

	target, _, err := q.Get(targetUID)
	require.NoError(t, err)
	assert.Equal(t, types.TaskStatusCanceled, target.Status)
}

func TestScheduleFairnessRotatesAcrossIndexes(t *testing.T) {
	s, q, registry := newTestScheduler(t)
	for _, uid := range []string{"a", "b"} {
		_, err := registry.CreateIndex(uid)
		require.NoError(t, err)
	}

	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(types.Task{IndexUID: "a", Kind: types.TaskKindDocumentAdditionOrUpdate,
			Details: map[string]any{"documents": []map[string]any{{"id": fmt.Sprintf("a%d", i)}}}})
		require.NoError(t, err)
	}
	_, err := q.Enqueue(types.Task{IndexUID: "b", Kind: types.TaskKindDocumentAdditionOrUpdate,
		Details: map[string]any{"documents": []map[string]any{{"id": "b0"}}}})
	require.NoError(t, err)

	require.NoError(t, s.schedule())

	pending, err := q.PendingIndexUIDs()
	require.NoError(t, err)
	assert.Empty(t, pending)
}
