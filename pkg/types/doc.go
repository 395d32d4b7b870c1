/*
Package types defines the data model shared across the engine: indexes,
documents, settings, tasks, batches, and API keys.

These are plain data structures plus the small amount of validation every
caller needs (primary key coercion, uid syntax). Storage, scheduling and
ranking all build on top of this package without it depending back on any
of them.

# Core Types

Index & Documents:
  - IndexMeta: the record of a named, isolated index owning its own KV environment
  - Settings: the tunables that control tokenization, ranking and faceting
  - InternalDocID: the dense 32-bit id posting lists are keyed on

Tasks & Batches:
  - Task: one pending or completed mutation, identified by a monotonic TaskUID
  - Batch: the durable record of the transaction that executed a group of tasks
  - TaskStatus: enqueued -> processing -> {succeeded, failed, canceled}

Auth:
  - APIKey: an action/index-pattern/expiry tuple a token resolves to

# Thread Safety

Values in this package carry no synchronization of their own; callers that
share a *Task or *Settings across goroutines must hold it behind the lock
of whichever subsystem owns it (queue, index, engine).
*/
package types
