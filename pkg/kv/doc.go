/*
Package kv is the KV Store Facade: typed, ordered-byte-key sub-stores
over a memory-mapped, single-writer/multi-reader transactional key/value
store.

One Store wraps one bbolt environment (one file). A data root opens
several Stores side by side: the task queue's tasks.db, the auth
gate's auth.db, and one indexes/{uid}.db per index. Within a Store,
named buckets play the role of sub-stores; Range iterates a bucket in
key order starting from a prefix, which is how every posting-list and
secondary-index scan in this engine is expressed.

Numeric keys are always encoded big-endian (BigEndianUint32/64) so
lexicographic byte order matches numeric order.
*/
package kv
