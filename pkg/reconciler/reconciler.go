package reconciler

import (
	"sync"
	"time"

	"github.com/lexidb/lexidb/pkg/log"
	"github.com/lexidb/lexidb/pkg/metrics"
	"github.com/lexidb/lexidb/pkg/queue"
	"github.com/rs/zerolog"
)

const (
	defaultInterval      = 10 * time.Second
	defaultIndexGCGrace  = 5 * time.Minute
	defaultTaskRetention = 24 * time.Hour
)

// Lister is implemented by whatever owns the live *index.Index handles
// for the process (the engine handle). The reconciler only needs the
// set of uids currently open, never the handles themselves.
type Lister interface {
	ListIndexUIDs() ([]string, error)
}

// Reconciler is the background janitor: index GC and task pruning.
type Reconciler struct {
	queue   *queue.Queue
	indexes Lister
	dataDir string

	interval      time.Duration
	indexGCGrace  time.Duration
	taskRetention time.Duration

	logger zerolog.Logger
	mu     sync.RWMutex
	stopCh chan struct{}
}

type Option func(*Reconciler)

// WithInterval overrides the default 10-second reconciliation cadence.
func WithInterval(d time.Duration) Option {
	return func(r *Reconciler) { r.interval = d }
}

// WithIndexGCGrace overrides how long ago an orphaned index file (one
// outside the live uid set) must have been last modified before it is
// unlinked.
func WithIndexGCGrace(d time.Duration) Option {
	return func(r *Reconciler) { r.indexGCGrace = d }
}

// WithTaskRetention overrides how long a terminal task is kept before
// being pruned from the queue.
func WithTaskRetention(d time.Duration) Option {
	return func(r *Reconciler) { r.taskRetention = d }
}

// New builds a Reconciler over q and indexes, rooted at dataDir for the
// index GC pass.
func New(q *queue.Queue, indexes Lister, dataDir string, opts ...Option) *Reconciler {
	r := &Reconciler{
		queue:         q,
		indexes:       indexes,
		dataDir:       dataDir,
		interval:      defaultInterval,
		indexGCGrace:  defaultIndexGCGrace,
		taskRetention: defaultTaskRetention,
		logger:        log.WithComponent("reconciler"),
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins the reconciliation loop.
func (r *Reconciler) Start() { go r.run() }

// Stop stops the reconciler.
func (r *Reconciler) Stop() { close(r.stopCh) }

func (r *Reconciler) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info().Msg("reconciler started")

	for {
		select {
		case <-ticker.C:
			if err := r.reconcile(); err != nil {
				r.logger.Error().Err(err).Msg("reconciliation cycle failed")
			}
		case <-r.stopCh:
			r.logger.Info().Msg("reconciler stopped")
			return
		}
	}
}

// reconcile performs one reconciliation cycle.
func (r *Reconciler) reconcile() error {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.gcOrphanedIndexes(); err != nil {
		r.logger.Error().Err(err).Msg("failed to gc orphaned index files")
	}

	if err := r.pruneStaleTasks(); err != nil {
		r.logger.Error().Err(err).Msg("failed to prune stale tasks")
	}

	return nil
}
