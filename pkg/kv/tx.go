package kv

import (
	"bytes"

	bolt "go.etcd.io/bbolt"
)

// ReadTx is a stable point-in-time snapshot. Its Bucket handles are only
// valid for the lifetime of the transaction.
type ReadTx struct {
	btx *bolt.Tx
}

// Bucket returns a read-only view over the named bucket, or nil if it
// does not exist (buckets are declared at Open time, so a nil bucket
// here is a programmer error, not a runtime condition callers branch on).
func (tx *ReadTx) Bucket(name []byte) *ReadBucket {
	b := tx.btx.Bucket(name)
	if b == nil {
		return nil
	}
	return &ReadBucket{b: b}
}

// WriteTx is an exclusive, all-or-nothing write transaction.
type WriteTx struct {
	ReadTx
}

// Bucket returns a writable view over the named bucket.
func (tx *WriteTx) Bucket(name []byte) *WriteBucket {
	b := tx.btx.Bucket(name)
	if b == nil {
		return nil
	}
	return &WriteBucket{ReadBucket{b: b}}
}

// ReadBucket is a read-only view over one bucket.
type ReadBucket struct {
	b *bolt.Bucket
}

// Get returns a copy of the value stored at key, or nil if absent.
// bbolt's returned byte slices are only valid within the transaction, so
// every Get copies.
func (b *ReadBucket) Get(key []byte) []byte {
	v := b.b.Get(key)
	if v == nil {
		return nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out
}

// Range calls fn for every key in [prefix, prefix+0xff...) in ascending
// order, stopping early if fn returns false or the prefix no longer
// matches. Keys/values passed to fn are only valid for the duration of
// one call; callers needing to retain them must copy.
func (b *ReadBucket) Range(prefix []byte, fn func(k, v []byte) bool) {
	c := b.b.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		if !fn(k, v) {
			return
		}
	}
}

// ForEach calls fn for every key in the bucket in ascending order.
func (b *ReadBucket) ForEach(fn func(k, v []byte) bool) {
	c := b.b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if !fn(k, v) {
			return
		}
	}
}

// WriteBucket additionally allows mutation.
type WriteBucket struct {
	ReadBucket
}

// Put stores value at key, overwriting any prior value.
func (b *WriteBucket) Put(key, value []byte) error {
	return b.b.Put(key, value)
}

// Delete removes key, a no-op if absent.
func (b *WriteBucket) Delete(key []byte) error {
	return b.b.Delete(key)
}

// NextSequence returns the bucket's next monotonically increasing
// sequence number, used to assign TaskUID and BatchUID.
func (b *WriteBucket) NextSequence() (uint64, error) {
	return b.b.NextSequence()
}
