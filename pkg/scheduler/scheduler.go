package scheduler

import (
	"sync"
	"time"

	"github.com/lexidb/lexidb/pkg/events"
	"github.com/lexidb/lexidb/pkg/log"
	"github.com/lexidb/lexidb/pkg/metrics"
	"github.com/lexidb/lexidb/pkg/queue"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/rs/zerolog"
)

// tick is how often schedule() runs. Draining the task queue is
// latency-sensitive in a way the container scheduler this generalizes
// was not, so the cadence is much shorter than a reconcile loop's.
const tick = 250 * time.Millisecond

// Scheduler is the Batch Planner: it drains queue by autobatched group,
// one group at a time per index, rotating fairly across every index with
// pending work (§4.6).
type Scheduler struct {
	queue    *queue.Queue
	registry Registry
	broker   *events.Broker
	upgrader Upgrader

	maxBatchedTasks int

	logger zerolog.Logger
	mu     sync.Mutex
	stopCh chan struct{}

	lastIndexUID string
}

// Option configures a Scheduler at construction.
type Option func(*Scheduler)

// WithMaxBatchedTasks bounds how many document-mutation tasks pickBatch
// folds into one transaction. Zero or negative means singleton batches
// only.
func WithMaxBatchedTasks(n int) Option {
	return func(s *Scheduler) { s.maxBatchedTasks = n }
}

// WithUpgrader wires the dumplessUpgrade task handler to an upgrade
// runner. Without one, a dumplessUpgrade task fails cleanly at dispatch.
func WithUpgrader(u Upgrader) Option {
	return func(s *Scheduler) { s.upgrader = u }
}

// NewScheduler builds a Scheduler over q, delegating index lifecycle to
// registry and publishing task/batch events to broker.
func NewScheduler(q *queue.Queue, registry Registry, broker *events.Broker, opts ...Option) *Scheduler {
	s := &Scheduler{
		queue:           q,
		registry:        registry,
		broker:          broker,
		maxBatchedTasks: 1000,
		logger:          log.WithComponent("scheduler"),
		stopCh:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the scheduler loop.
func (s *Scheduler) Start() {
	go s.run()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopCh)
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.schedule(); err != nil {
				s.logger.Error().Err(err).Msg("scheduling cycle failed")
			}
		case <-s.stopCh:
			return
		}
	}
}

// schedule performs one scheduling cycle: every index lane with pending
// work gets at most one batch planned and executed, in a rotation that
// starts just after whichever lane was served last cycle so no lane can
// starve another (§4.6 fairness).
func (s *Scheduler) schedule() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lanes, err := s.queue.PendingIndexUIDs()
	if err != nil {
		return err
	}
	if len(lanes) == 0 {
		return nil
	}

	lanes = rotate(lanes, s.lastIndexUID)

	for _, indexUID := range lanes {
		served, err := s.scheduleIndex(indexUID)
		if err != nil {
			s.logger.Error().Err(err).Str("index_uid", indexUID).Msg("failed to schedule index")
			continue
		}
		if served {
			s.lastIndexUID = indexUID
		}
	}

	return nil
}

// rotate reorders lanes to begin right after last, so the lane served
// most recently goes to the back of the line this cycle.
func rotate(lanes []string, last string) []string {
	if last == "" {
		return lanes
	}
	for i, uid := range lanes {
		if uid == last {
			return append(append([]string{}, lanes[i+1:]...), lanes[:i+1]...)
		}
	}
	return lanes
}

// scheduleIndex plans and executes at most one batch for indexUID,
// reporting whether it found anything to do.
func (s *Scheduler) scheduleIndex(indexUID string) (bool, error) {
	timer := metrics.NewTimer()

	pending, err := s.queue.ReserveNextBatch(indexUID)
	if err != nil {
		return false, err
	}
	if len(pending) == 0 {
		return false, nil
	}

	batch := pickBatch(pending, s.maxBatchedTasks)
	timer.ObserveDuration(metrics.BatchingLatency)

	return true, s.executeBatch(indexUID, batch)
}

// executeBatch allocates a BatchUID, marks every selected task
// processing, dispatches the work in one index transaction (or a
// single non-indexing action), and records the terminal status of every
// task plus the batch record itself (§4.5, §4.6 step 2).
func (s *Scheduler) executeBatch(indexUID string, tasks []types.Task) error {
	timer := metrics.NewTimer()

	batchUID, err := s.queue.NewBatchUID()
	if err != nil {
		return err
	}

	uids := make([]uint64, len(tasks))
	for i, t := range tasks {
		uids[i] = t.UID
		if err := s.queue.MarkProcessing(t.UID, batchUID); err != nil {
			return err
		}
	}

	s.publishBatchStarted(batchUID, indexUID, uids)

	startedAt := time.Now()
	results, dispatchErr := s.dispatch(indexUID, tasks)
	if dispatchErr != nil {
		results = failAll(tasks, dispatchErr)
	}

	stats := types.BatchStats{TotalTasks: len(tasks)}
	if indexUID != "" {
		stats.IndexUIDs = []string{indexUID}
	}

	for _, r := range results {
		var taskErr *types.TaskError
		if r.err != nil {
			taskErr = &types.TaskError{Code: errorCode(r.err), Message: r.err.Error()}
		}
		if err := s.queue.Finish(r.uid, r.status, taskErr); err != nil {
			s.logger.Error().Err(err).Uint64("task_uid", r.uid).Msg("failed to record task outcome")
			continue
		}
		tallyStats(&stats, r.kind, r.status)
		s.publishTaskFinished(r)
	}

	finishedAt := time.Now()
	record := types.Batch{
		UID:        batchUID,
		TaskUIDs:   uids,
		Progress:   types.BatchProgress{Step: "done", StepsTotal: len(tasks), StepsDone: len(tasks)},
		Stats:      stats,
		Duration:   finishedAt.Sub(startedAt),
		StartedAt:  startedAt,
		FinishedAt: &finishedAt,
	}
	if err := s.queue.PutBatch(record); err != nil {
		return err
	}

	timer.ObserveDuration(metrics.BatchDuration)
	metrics.BatchSize.Observe(float64(len(tasks)))
	s.publishBatchFinished(record)

	return nil
}

// taskResult is one task's terminal outcome, produced by whichever
// dispatch* handler ran the batch.
type taskResult struct {
	uid    uint64
	kind   types.TaskKind
	status types.TaskStatus
	err    error
}

func failAll(tasks []types.Task, err error) []taskResult {
	out := make([]taskResult, len(tasks))
	for i, t := range tasks {
		out[i] = taskResult{uid: t.UID, kind: t.Kind, status: types.TaskStatusFailed, err: err}
	}
	return out
}

func tallyStats(stats *types.BatchStats, kind types.TaskKind, status types.TaskStatus) {
	switch status {
	case types.TaskStatusSucceeded:
		if stats.Succeeded == nil {
			stats.Succeeded = map[types.TaskKind]int{}
		}
		stats.Succeeded[kind]++
	case types.TaskStatusFailed:
		if stats.Failed == nil {
			stats.Failed = map[types.TaskKind]int{}
		}
		stats.Failed[kind]++
	case types.TaskStatusCanceled:
		if stats.Canceled == nil {
			stats.Canceled = map[types.TaskKind]int{}
		}
		stats.Canceled[kind]++
	}
}

func errorCode(err error) string {
	switch err {
	case types.ErrPrimaryKeyMissing:
		return "primary_key_missing"
	case types.ErrPrimaryKeyConflict:
		return "primary_key_conflict"
	case types.ErrMalformedDocument:
		return "malformed_document"
	case types.ErrInvalidFilter:
		return "invalid_filter"
	case types.ErrIndexNotFound:
		return "index_not_found"
	case types.ErrIndexAlreadyExists:
		return "index_already_exists"
	default:
		return "internal"
	}
}

// dispatch routes a batch to the pipeline or a singleton lifecycle
// handler depending on its first task's kind (every task in a batch
// shares a kind family, per pickBatch). A hard error here means the
// whole batch, and every task in it, failed.
func (s *Scheduler) dispatch(indexUID string, tasks []types.Task) ([]taskResult, error) {
	first := tasks[0]

	if indexUID == "" {
		return s.dispatchCrossIndex(first)
	}
	if pipelineEligible(first.Kind) {
		return s.dispatchIndexing(indexUID, tasks)
	}
	return s.dispatchIndexLifecycle(indexUID, first)
}
