package scheduler

import "github.com/lexidb/lexidb/pkg/types"

// documentMutationKind reports whether k is one of the batchable
// document-mutation kinds (§4.6 compatibility rules): consecutive
// enqueued tasks of these kinds for the same index fold into one
// pipeline transaction. Every other kind is its own singleton batch —
// settingsUpdate and indexDeletion explicitly break a run of document
// mutations, and the index-lifecycle and cross-index kinds were never
// named as batchable to begin with.
func documentMutationKind(k types.TaskKind) bool {
	switch k {
	case types.TaskKindDocumentAdditionOrUpdate, types.TaskKindDocumentDeletion, types.TaskKindDocumentDeletionByFilter:
		return true
	default:
		return false
	}
}

// pipelineEligible reports whether k is handled by pkg/indexing rather
// than directly by the scheduler. settingsUpdate always runs alone
// (pickBatch never merges it with anything) but still goes through the
// pipeline, same as a batch of document mutations.
func pipelineEligible(k types.TaskKind) bool {
	return documentMutationKind(k) || k == types.TaskKindSettingsUpdate
}

// pickBatch selects the longest compatible, autobatchable prefix of
// pending (already ordered by ascending TaskUID), per §4.6 step 1.
// pending must be non-empty. maxBatchedTasks <= 0 means "singleton
// only", the most conservative cooperative back-pressure setting.
func pickBatch(pending []types.Task, maxBatchedTasks int) []types.Task {
	first := pending[0]
	if !documentMutationKind(first.Kind) {
		return pending[:1]
	}
	if maxBatchedTasks <= 0 {
		maxBatchedTasks = 1
	}
	n := 1
	for n < len(pending) && n < maxBatchedTasks && documentMutationKind(pending[n].Kind) {
		n++
	}
	return pending[:n]
}
