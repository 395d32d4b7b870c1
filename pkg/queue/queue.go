package queue

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

// Queue owns tasks.db: the durable, totally ordered task log and its
// secondary indexes.
type Queue struct {
	store *kv.Store
}

// Open opens (creating if needed) dataDir/tasks.db.
func Open(dataDir string) (*Queue, error) {
	store, err := kv.Open(filepath.Join(dataDir, "tasks.db"), allBuckets)
	if err != nil {
		return nil, fmt.Errorf("queue: %w", err)
	}
	return &Queue{store: store}, nil
}

// Close releases the environment.
func (q *Queue) Close() error { return q.store.Close() }

// Enqueue assigns task a monotonic TaskUID, sets it to status enqueued,
// and persists it plus its secondary index entries in one transaction.
func (q *Queue) Enqueue(task types.Task) (uint64, error) {
	var uid uint64
	err := q.store.Update(func(tx *kv.WriteTx) error {
		seq, err := tx.Bucket(bucketTasks).NextSequence()
		if err != nil {
			return err
		}
		uid = seq
		task.UID = uid
		task.Status = types.TaskStatusEnqueued
		task.EnqueuedAt = time.Now()
		return putTask(tx, task)
	})
	return uid, err
}

// Get returns the task stored under uid.
func (q *Queue) Get(uid uint64) (types.Task, bool, error) {
	var task types.Task
	var found bool
	err := q.store.View(func(tx *kv.ReadTx) error {
		var err error
		task, found, err = getTask(tx.Bucket(bucketTasks), uid)
		return err
	})
	return task, found, err
}

// List returns every task in the queue matching filter, in ascending
// TaskUID order.
func (q *Queue) List(filter Filter) ([]types.Task, error) {
	var out []types.Task
	err := q.store.View(func(tx *kv.ReadTx) error {
		return filter.iterate(tx, func(t types.Task) bool {
			out = append(out, t)
			return true
		})
	})
	return out, err
}

// ReserveNextBatch returns every task currently in status enqueued for
// indexUID, ordered by TaskUID, for the scheduler to plan a batch from.
// An empty indexUID matches tasks with no index affinity (cross-index
// actions: taskCancelation, taskDeletion).
func (q *Queue) ReserveNextBatch(indexUID string) ([]types.Task, error) {
	tasks, err := q.List(Filter{Status: []types.TaskStatus{types.TaskStatusEnqueued}, IndexUID: indexUID})
	if err != nil || indexUID != "" {
		return tasks, err
	}
	out := tasks[:0]
	for _, t := range tasks {
		if t.IndexUID == "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// PendingIndexUIDs returns the distinct IndexUID values with at least one
// enqueued task, in order of each one's earliest enqueued task. "" stands
// for the cross-index lane (taskCancelation, taskDeletion). The scheduler
// uses this to decide which lanes have work before applying its own
// fairness rotation.
func (q *Queue) PendingIndexUIDs() ([]string, error) {
	seen := make(map[string]struct{})
	var order []string
	err := q.store.View(func(tx *kv.ReadTx) error {
		f := Filter{Status: []types.TaskStatus{types.TaskStatusEnqueued}}
		return f.iterate(tx, func(t types.Task) bool {
			if _, ok := seen[t.IndexUID]; !ok {
				seen[t.IndexUID] = struct{}{}
				order = append(order, t.IndexUID)
			}
			return true
		})
	})
	return order, err
}

// MarkProcessing transitions uid from enqueued to processing and records
// startedAt, associating it with batchUID.
func (q *Queue) MarkProcessing(uid uint64, batchUID uint64) error {
	return q.update(uid, func(t *types.Task) error {
		now := time.Now()
		t.Status = types.TaskStatusProcessing
		t.StartedAt = &now
		t.BatchUID = &batchUID
		return nil
	})
}

// Finish transitions uid to a terminal status and records finishedAt and
// duration.
func (q *Queue) Finish(uid uint64, status types.TaskStatus, taskErr *types.TaskError) error {
	return q.update(uid, func(t *types.Task) error {
		now := time.Now()
		t.Status = status
		t.FinishedAt = &now
		t.Error = taskErr
		if t.StartedAt != nil {
			t.Duration = now.Sub(*t.StartedAt)
		}
		return nil
	})
}

// Cancel transitions every task matching filter that is still enqueued or
// processing to canceled, recording canceledBy. Already-terminal tasks
// are left untouched (§5 cancellation semantics).
func (q *Queue) Cancel(filter Filter, canceledBy uint64) ([]uint64, error) {
	var affected []uint64
	err := q.store.Update(func(tx *kv.WriteTx) error {
		var targets []types.Task
		if err := filter.iterate(&tx.ReadTx, func(t types.Task) bool {
			if !t.Status.IsTerminal() {
				targets = append(targets, t)
			}
			return true
		}); err != nil {
			return err
		}
		for _, t := range targets {
			now := time.Now()
			t.Status = types.TaskStatusCanceled
			t.CanceledBy = &canceledBy
			t.FinishedAt = &now
			if err := putTask(tx, t); err != nil {
				return err
			}
			affected = append(affected, t.UID)
		}
		return nil
	})
	return affected, err
}

// Delete permanently removes every task matching filter, along with its
// secondary index entries.
func (q *Queue) Delete(filter Filter) ([]uint64, error) {
	var affected []uint64
	err := q.store.Update(func(tx *kv.WriteTx) error {
		var targets []types.Task
		if err := filter.iterate(&tx.ReadTx, func(t types.Task) bool {
			targets = append(targets, t)
			return true
		}); err != nil {
			return err
		}
		for _, t := range targets {
			if err := deleteTask(tx, t); err != nil {
				return err
			}
			affected = append(affected, t.UID)
		}
		return nil
	})
	return affected, err
}

func (q *Queue) update(uid uint64, mutate func(*types.Task) error) error {
	return q.store.Update(func(tx *kv.WriteTx) error {
		task, found, err := getTask(tx.Bucket(bucketTasks), uid)
		if err != nil {
			return err
		}
		if !found {
			return types.ErrTaskNotFound
		}
		if err := mutate(&task); err != nil {
			return err
		}
		return putTask(tx, task)
	})
}

type getter interface {
	Get(key []byte) []byte
}

func getTask(b getter, uid uint64) (types.Task, bool, error) {
	data := b.Get(kv.BigEndianUint64(uid))
	if data == nil {
		return types.Task{}, false, nil
	}
	var task types.Task
	if err := json.Unmarshal(data[1:], &task); err != nil {
		return types.Task{}, false, err
	}
	return task, true, nil
}

func putTask(tx *kv.WriteTx, task types.Task) error {
	old, found, err := getTask(tx.Bucket(bucketTasks), task.UID)
	if err != nil {
		return err
	}
	if found {
		if err := removeSecondaryIndexes(tx, old); err != nil {
			return err
		}
	}
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	value := append([]byte{taskValueVersion}, body...)
	if err := tx.Bucket(bucketTasks).Put(kv.BigEndianUint64(task.UID), value); err != nil {
		return err
	}
	return addSecondaryIndexes(tx, task)
}

func deleteTask(tx *kv.WriteTx, task types.Task) error {
	if err := removeSecondaryIndexes(tx, task); err != nil {
		return err
	}
	return tx.Bucket(bucketTasks).Delete(kv.BigEndianUint64(task.UID))
}

func addSecondaryIndexes(tx *kv.WriteTx, task types.Task) error {
	uidKey := kv.BigEndianUint64(task.UID)
	if err := tx.Bucket(bucketByStatus).Put(kv.JoinKey([]byte(task.Status), uidKey), nil); err != nil {
		return err
	}
	if err := tx.Bucket(bucketByKind).Put(kv.JoinKey([]byte(task.Kind), uidKey), nil); err != nil {
		return err
	}
	if task.IndexUID != "" {
		if err := tx.Bucket(bucketByIndexUID).Put(kv.JoinKey([]byte(task.IndexUID), uidKey), nil); err != nil {
			return err
		}
	}
	return nil
}

func removeSecondaryIndexes(tx *kv.WriteTx, task types.Task) error {
	uidKey := kv.BigEndianUint64(task.UID)
	if err := tx.Bucket(bucketByStatus).Delete(kv.JoinKey([]byte(task.Status), uidKey)); err != nil {
		return err
	}
	if err := tx.Bucket(bucketByKind).Delete(kv.JoinKey([]byte(task.Kind), uidKey)); err != nil {
		return err
	}
	if task.IndexUID != "" {
		if err := tx.Bucket(bucketByIndexUID).Delete(kv.JoinKey([]byte(task.IndexUID), uidKey)); err != nil {
			return err
		}
	}
	return nil
}
