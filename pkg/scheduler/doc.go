/*
Package scheduler is the Batch Planner: a single ticker-driven worker
loop that drains pkg/queue by autobatched groups, opens one write
transaction per group against the target index, and drives
pkg/indexing (or a non-indexing action) inside it.

scheduleIndex resolves one index's pending work each tick; pickBatch
selects a compatible run of tasks to fold into one transaction.

Fairness rotates across every index with pending work each cycle, so no
one index's queue can starve another's.
*/
package scheduler
