package queue

import (
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

// Filter selects a subset of tasks for List/Cancel/Delete. Zero-value
// fields mean "don't constrain on this dimension". When more than one
// field is set, the most selective secondary index is scanned and the
// remaining fields are applied as an in-memory predicate.
type Filter struct {
	Status    []types.TaskStatus
	IndexUID  string
	Kind      types.TaskKind
	UIDs      []uint64
	BeforeUID uint64 // 0 means unbounded
}

func (f Filter) matches(t types.Task) bool {
	if len(f.Status) > 0 && !containsStatus(f.Status, t.Status) {
		return false
	}
	if f.IndexUID != "" && t.IndexUID != f.IndexUID {
		return false
	}
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if len(f.UIDs) > 0 && !containsUID(f.UIDs, t.UID) {
		return false
	}
	if f.BeforeUID != 0 && t.UID >= f.BeforeUID {
		return false
	}
	return true
}

// iterate walks the most selective available index for f and calls fn
// for each matching task in ascending TaskUID order, stopping early if
// fn returns false.
func (f Filter) iterate(tx *kv.ReadTx, fn func(types.Task) bool) error {
	switch {
	case len(f.UIDs) > 0:
		return f.iterateUIDs(tx, fn)
	case f.IndexUID != "":
		return f.iterateSecondary(tx, bucketByIndexUID, []byte(f.IndexUID), fn)
	case f.Kind != "":
		return f.iterateSecondary(tx, bucketByKind, []byte(f.Kind), fn)
	case len(f.Status) == 1:
		return f.iterateSecondary(tx, bucketByStatus, []byte(f.Status[0]), fn)
	default:
		return f.iteratePrimary(tx, fn)
	}
}

func (f Filter) iterateUIDs(tx *kv.ReadTx, fn func(types.Task) bool) error {
	for _, uid := range f.UIDs {
		task, found, err := getTask(tx.Bucket(bucketTasks), uid)
		if err != nil {
			return err
		}
		if !found || !f.matches(task) {
			continue
		}
		if !fn(task) {
			return nil
		}
	}
	return nil
}

func (f Filter) iteratePrimary(tx *kv.ReadTx, fn func(types.Task) bool) error {
	var rangeErr error
	tx.Bucket(bucketTasks).ForEach(func(k, v []byte) bool {
		task, found, err := getTask(tx.Bucket(bucketTasks), kv.Uint64BigEndian(k))
		if err != nil {
			rangeErr = err
			return false
		}
		if !found || !f.matches(task) {
			return true
		}
		return fn(task)
	})
	return rangeErr
}

func (f Filter) iterateSecondary(tx *kv.ReadTx, bucket, keyPrefix []byte, fn func(types.Task) bool) error {
	var rangeErr error
	tx.Bucket(bucket).Range(kv.JoinKey(keyPrefix), func(k, v []byte) bool {
		uid := kv.Uint64BigEndian(k[len(k)-8:])
		task, found, err := getTask(tx.Bucket(bucketTasks), uid)
		if err != nil {
			rangeErr = err
			return false
		}
		if !found || !f.matches(task) {
			return true
		}
		return fn(task)
	})
	return rangeErr
}

func containsStatus(set []types.TaskStatus, s types.TaskStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func containsUID(set []uint64, uid uint64) bool {
	for _, x := range set {
		if x == uid {
			return true
		}
	}
	return false
}
