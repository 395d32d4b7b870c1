package queue

import (
	"github.com/goccy/go-json"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

// NewBatchUID allocates the next monotonic BatchUID without yet
// persisting a record; the scheduler calls this when it starts planning
// a batch and persists the full record via PutBatch once execution
// finishes.
func (q *Queue) NewBatchUID() (uint64, error) {
	var uid uint64
	err := q.store.Update(func(tx *kv.WriteTx) error {
		seq, err := tx.Bucket(bucketBatches).NextSequence()
		uid = seq
		return err
	})
	return uid, err
}

// PutBatch persists batch, keyed by its BatchUID.
func (q *Queue) PutBatch(batch types.Batch) error {
	return q.store.Update(func(tx *kv.WriteTx) error {
		data, err := json.Marshal(batch)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketBatches).Put(kv.BigEndianUint64(batch.UID), data)
	})
}

// GetBatch returns the batch stored under uid.
func (q *Queue) GetBatch(uid uint64) (types.Batch, bool, error) {
	var batch types.Batch
	var found bool
	err := q.store.View(func(tx *kv.ReadTx) error {
		data := tx.Bucket(bucketBatches).Get(kv.BigEndianUint64(uid))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &batch)
	})
	return batch, found, err
}
