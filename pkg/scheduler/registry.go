package scheduler

import "github.com/lexidb/lexidb/pkg/index"

// Registry is implemented by whatever owns the live *index.Index handles
// for the process (the engine handle). The scheduler never lists or
// iterates indexes on its own — fairness rotates over the IndexUIDs
// named in the task queue, not over the registry's contents — so this
// interface only needs open/create/delete/swap.
type Registry interface {
	// Index returns the already-open handle for uid, opening it from
	// disk on first use.
	Index(uid string) (*index.Index, error)
	// CreateIndex opens (creating on disk) a fresh index for uid. It is
	// an error for uid to already exist.
	CreateIndex(uid string) (*index.Index, error)
	// DeleteIndex closes uid's handle and stops serving uid; its on-disk
	// file is left for the reconciler to unlink.
	DeleteIndex(uid string) error
	// SwapIndexes atomically exchanges the uids two indexes are served
	// under, for zero-downtime reindex.
	SwapIndexes(uidA, uidB string) error
}

// Upgrader is implemented by pkg/upgrade's runner. The scheduler only
// needs to hand off a dumplessUpgrade task; Upgrader decides what, if
// anything, needs migrating.
type Upgrader interface {
	Run() error
}
