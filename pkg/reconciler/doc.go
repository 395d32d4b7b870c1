/*
Package reconciler is the background janitor: a slow ticker loop that
cleans up what the scheduler and task queue leave behind, since neither
deletes anything synchronously on the request path.

# Architecture

	┌────────────────────────────────────────────────────────┐
	│                 Reconciliation Loop                    │
	│                  (every 10 seconds)                    │
	└───────────────────────┬─────────────────────────────────┘
	                        │
	          ┌─────────────┴─────────────┐
	          ▼                           ▼
	┌──────────────────────┐   ┌───────────────────────┐
	│  GC orphaned indexes │   │  Prune stale tasks    │
	└──────────┬────────────┘   └───────────┬───────────┘
	           │                            │
	           ▼                            ▼
	   list *.db files              list terminal tasks
	   under dataDir/indexes        (succeeded/failed/canceled)
	           │                            │
	           ▼                            ▼
	   diff against the              drop anything past
	   engine's live uid set,        the retention window
	   drop survivors past
	   the grace period

# Index GC

An indexCreation/indexDeletion task's effect on the live index set is
applied synchronously by the scheduler (Registry.CreateIndex/DeleteIndex),
but closing an *index.Index handle and unlinking its backing file are
kept as two separate steps: a reader holding a stale mmap across the
unlink is harmless on POSIX filesystems, but giving search threads a
grace window before the file disappears avoids surprising a request
that started just before the delete committed. The reconciler is that
grace window: it lists `dataDir/indexes/*.db`, diffs against
Lister.ListIndexUIDs()'s currently-open set, and removes any file
absent from that set whose modification time is older than
indexGCGrace.

# Task Pruning

Tasks never expire on their own — `succeeded`/`failed`/`canceled` tasks
stay queryable via GET /tasks indefinitely so operators can audit what
happened. The reconciler is what eventually reclaims that space: once a
terminal task's FinishedAt is older than taskRetention, it is dropped via
the same queue.Delete used by the taskDeletion task kind.

# Failure Isolation

Each reconciliation cycle runs both passes regardless of whether the
other failed; a GC error never blocks task pruning and vice versa. A
failed cycle is logged and retried on the next tick — there is no
backoff, since both passes are pure cleanup and retrying a no-op cycle
costs nothing.
*/
package reconciler
