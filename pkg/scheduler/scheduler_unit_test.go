package scheduler

import (
	"testing"

	"github.com/lexidb/lexidb/pkg/types"
	"github.com/stretchr/testify/assert"
)

func TestDocumentMutationKind(t *testing.T) {
	tests := []struct {
		name     string
		kind     types.TaskKind
		expected bool
	}{
		{"addition", types.TaskKindDocumentAdditionOrUpdate, true},
		{"deletion", types.TaskKindDocumentDeletion, true},
		{"deletion by filter", types.TaskKindDocumentDeletionByFilter, true},
		{"settings update", types.TaskKindSettingsUpdate, false},
		{"index creation", types.TaskKindIndexCreation, false},
		{"index deletion", types.TaskKindIndexDeletion, false},
		{"task cancelation", types.TaskKindTaskCancelation, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, documentMutationKind(tt.kind))
		})
	}
}

func TestPipelineEligible(t *testing.T) {
	assert.True(t, pipelineEligible(types.TaskKindDocumentAdditionOrUpdate))
	assert.True(t, pipelineEligible(types.TaskKindSettingsUpdate))
	assert.False(t, pipelineEligible(types.TaskKindIndexCreation))
	assert.False(t, pipelineEligible(types.TaskKindIndexSwap))
}

func taskOf(uid uint64, kind types.TaskKind) types.Task {
	return types.Task{UID: uid, Kind: kind, Status: types.TaskStatusEnqueued}
}

func TestPickBatch(t *testing.T) {
	tests := []struct {
		name            string
		pending         []types.Task
		maxBatchedTasks int
		expectedUIDs    []uint64
	}{
		{
			name: "consecutive additions merge up to the limit",
			pending: []types.Task{
				taskOf(1, types.TaskKindDocumentAdditionOrUpdate),
				taskOf(2, types.TaskKindDocumentAdditionOrUpdate),
				taskOf(3, types.TaskKindDocumentDeletion),
				taskOf(4, types.TaskKindSettingsUpdate),
			},
			maxBatchedTasks: 10,
			expectedUIDs:    []uint64{1, 2, 3},
		},
		{
			name: "settings update never merges with what follows",
			pending: []types.Task{
				taskOf(1, types.TaskKindSettingsUpdate),
				taskOf(2, types.TaskKindDocumentAdditionOrUpdate),
			},
			maxBatchedTasks: 10,
			expectedUIDs:    []uint64{1},
		},
		{
			name: "index deletion breaks a run of document mutations",
			pending: []types.Task{
				taskOf(1, types.TaskKindDocumentAdditionOrUpdate),
				taskOf(2, types.TaskKindIndexDeletion),
			},
			maxBatchedTasks: 10,
			expectedUIDs:    []uint64{1},
		},
		{
			name: "maxBatchedTasks caps the run",
			pending: []types.Task{
				taskOf(1, types.TaskKindDocumentAdditionOrUpdate),
				taskOf(2, types.TaskKindDocumentAdditionOrUpdate),
				taskOf(3, types.TaskKindDocumentAdditionOrUpdate),
			},
			maxBatchedTasks: 2,
			expectedUIDs:    []uint64{1, 2},
		},
		{
			name: "zero maxBatchedTasks forces a singleton",
			pending: []types.Task{
				taskOf(1, types.TaskKindDocumentAdditionOrUpdate),
				taskOf(2, types.TaskKindDocumentAdditionOrUpdate),
			},
			maxBatchedTasks: 0,
			expectedUIDs:    []uint64{1},
		},
		{
			name: "a non-mutation kind is always a singleton",
			pending: []types.Task{
				taskOf(1, types.TaskKindIndexCreation),
				taskOf(2, types.TaskKindDocumentAdditionOrUpdate),
			},
			maxBatchedTasks: 10,
			expectedUIDs:    []uint64{1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := pickBatch(tt.pending, tt.maxBatchedTasks)
			var got []uint64
			for _, task := range batch {
				got = append(got, task.UID)
			}
			assert.Equal(t, tt.expectedUIDs, got)
		})
	}
}

func TestRotate(t *testing.T) {
	lanes := []string{"a", "b", "c"}

	assert.Equal(t, []string{"a", "b", "c"}, rotate(lanes, ""))
	assert.Equal(t, []string{"b", "c", "a"}, rotate(lanes, "a"))
	assert.Equal(t, []string{"c", "a", "b"}, rotate(lanes, "b"))
	assert.Equal(t, []string{"a", "b", "c"}, rotate(lanes, "c"))
	// A lane no longer pending is simply not found; order is unchanged.
	assert.Equal(t, []string{"a", "b", "c"}, rotate(lanes, "gone"))
}

func TestTallyStats(t *testing.T) {
	stats := types.BatchStats{}
	tallyStats(&stats, types.TaskKindDocumentAdditionOrUpdate, types.TaskStatusSucceeded)
	tallyStats(&stats, types.TaskKindDocumentAdditionOrUpdate, types.TaskStatusSucceeded)
	tallyStats(&stats, types.TaskKindDocumentDeletion, types.TaskStatusFailed)

	assert.Equal(t, 2, stats.Succeeded[types.TaskKindDocumentAdditionOrUpdate])
	assert.Equal(t, 1, stats.Failed[types.TaskKindDocumentDeletion])
	assert.Empty(t, stats.Canceled)
}
