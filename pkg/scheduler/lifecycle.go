package scheduler

import (
	"fmt"

	"github.com/lexidb/lexidb/pkg/indexing"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/queue"
	"github.com/lexidb/lexidb/pkg/types"
)

// dispatchIndexing opens one write transaction against indexUID's index
// and drives the whole batch through pkg/indexing. A returned error here
// is a hard I/O or storage failure and fails every task in tasks; a
// per-task Outcome.Err is a soft, task-scoped failure (a malformed
// document, say) that leaves the rest of the batch intact and is folded
// into that task's taskResult instead.
func (s *Scheduler) dispatchIndexing(indexUID string, tasks []types.Task) ([]taskResult, error) {
	idx, err := s.registry.Index(indexUID)
	if err != nil {
		return nil, err
	}

	var outcomes []indexing.Outcome
	err = idx.Update(func(tx *kv.WriteTx) error {
		ops, err := buildOperations(tx, idx, tasks)
		if err != nil {
			return err
		}
		res, err := indexing.New(idx).Run(tx, ops)
		if err != nil {
			return err
		}
		outcomes = res.Outcomes
		return nil
	})
	if err != nil {
		return nil, err
	}

	byUID := make(map[uint64]types.TaskKind, len(tasks))
	for _, t := range tasks {
		byUID[t.UID] = t.Kind
	}

	results := make([]taskResult, 0, len(outcomes))
	for _, o := range outcomes {
		status := types.TaskStatusSucceeded
		if o.Err != nil {
			status = types.TaskStatusFailed
		}
		results = append(results, taskResult{uid: o.TaskUID, kind: byUID[o.TaskUID], status: status, err: o.Err})
	}
	return results, nil
}

// dispatchCrossIndex handles the two task kinds with no index affinity:
// taskCancelation and taskDeletion act on other tasks in the queue
// rather than on an index.
func (s *Scheduler) dispatchCrossIndex(t types.Task) ([]taskResult, error) {
	switch t.Kind {
	case types.TaskKindTaskCancelation:
		return s.runTaskCancelation(t)
	case types.TaskKindTaskDeletion:
		return s.runTaskDeletion(t)
	default:
		return nil, fmt.Errorf("scheduler: %q has no index affinity and is not a cross-index kind", t.Kind)
	}
}

func (s *Scheduler) runTaskCancelation(t types.Task) ([]taskResult, error) {
	uids, err := decodeUint64Slice(t.Details, "uids")
	if err != nil {
		return nil, err
	}
	if _, err := s.queue.Cancel(queue.Filter{UIDs: uids}, t.UID); err != nil {
		return nil, err
	}
	return []taskResult{{uid: t.UID, kind: t.Kind, status: types.TaskStatusSucceeded}}, nil
}

func (s *Scheduler) runTaskDeletion(t types.Task) ([]taskResult, error) {
	uids, err := decodeUint64Slice(t.Details, "uids")
	if err != nil {
		return nil, err
	}
	if _, err := s.queue.Delete(queue.Filter{UIDs: uids}); err != nil {
		return nil, err
	}
	return []taskResult{{uid: t.UID, kind: t.Kind, status: types.TaskStatusSucceeded}}, nil
}

// dispatchIndexLifecycle handles the singleton index-management kinds:
// creation, deletion, a primary key change, a zero-downtime swap, and a
// handoff to the upgrade runner.
func (s *Scheduler) dispatchIndexLifecycle(indexUID string, t types.Task) ([]taskResult, error) {
	var err error
	switch t.Kind {
	case types.TaskKindIndexCreation:
		_, err = s.registry.CreateIndex(indexUID)
	case types.TaskKindIndexDeletion:
		err = s.registry.DeleteIndex(indexUID)
	case types.TaskKindIndexUpdate:
		err = s.runIndexUpdate(indexUID, t)
	case types.TaskKindIndexSwap:
		err = s.runIndexSwap(indexUID, t)
	case types.TaskKindDumplessUpgrade:
		err = s.runDumplessUpgrade()
	default:
		err = fmt.Errorf("scheduler: %q is not an index lifecycle kind", t.Kind)
	}

	status := types.TaskStatusSucceeded
	if err != nil {
		status = types.TaskStatusFailed
	}
	return []taskResult{{uid: t.UID, kind: t.Kind, status: status, err: err}}, nil
}

func (s *Scheduler) runIndexUpdate(indexUID string, t types.Task) error {
	key, _ := t.Details["primaryKey"].(string)
	if key == "" {
		return fmt.Errorf("indexUpdate: missing primaryKey")
	}
	idx, err := s.registry.Index(indexUID)
	if err != nil {
		return err
	}
	return idx.Update(func(tx *kv.WriteTx) error {
		return idx.SetPrimaryKey(tx, key)
	})
}

func (s *Scheduler) runIndexSwap(indexUID string, t types.Task) error {
	withUID, _ := t.Details["withUid"].(string)
	if withUID == "" {
		return fmt.Errorf("indexSwap: missing withUid")
	}
	return s.registry.SwapIndexes(indexUID, withUID)
}

func (s *Scheduler) runDumplessUpgrade() error {
	if s.upgrader == nil {
		return fmt.Errorf("dumplessUpgrade: no upgrade runner configured")
	}
	return s.upgrader.Run()
}
