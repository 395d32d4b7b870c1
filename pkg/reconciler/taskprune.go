package reconciler

import (
	"fmt"
	"time"

	"github.com/lexidb/lexidb/pkg/queue"
	"github.com/lexidb/lexidb/pkg/types"
)

var terminalStatuses = []types.TaskStatus{
	types.TaskStatusSucceeded,
	types.TaskStatusFailed,
	types.TaskStatusCanceled,
}

// pruneStaleTasks drops terminal tasks whose FinishedAt is older than
// taskRetention, the same mechanism the taskDeletion task kind uses.
func (r *Reconciler) pruneStaleTasks() error {
	tasks, err := r.queue.List(queue.Filter{Status: terminalStatuses})
	if err != nil {
		return fmt.Errorf("reconciler: list terminal tasks: %w", err)
	}

	now := time.Now()
	var stale []uint64
	for _, t := range tasks {
		if t.FinishedAt == nil {
			continue
		}
		if now.Sub(*t.FinishedAt) >= r.taskRetention {
			stale = append(stale, t.UID)
		}
	}
	if len(stale) == 0 {
		return nil
	}

	removed, err := r.queue.Delete(queue.Filter{UIDs: stale})
	if err != nil {
		return fmt.Errorf("reconciler: delete stale tasks: %w", err)
	}
	r.logger.Info().Int("count", len(removed)).Msg("pruned stale terminal tasks")
	return nil
}
