/*
Package queue is the Task Queue (§4.5): a totally ordered durable log of
pending mutations, plus the Batch records the Scheduler produces when it
executes a group of them.

Grounded on google-skia-buildbot's task_scheduler local_db.go: tasks are
keyed by a monotonic, big-endian TaskUID in a primary bucket so a range
scan returns them in enqueue order, and secondary index buckets (by
status, indexUid, kind) store key-only entries pointing back at the
primary key, kept consistent inside the same write transaction as the
change that produced them. Unlike local_db.go this queue and its indexes
live in the index's own write path only indirectly — tasks.db is its own
kv.Store, separate from any one index's environment, so an enqueue never
blocks on an index write and vice versa.
*/
package queue
