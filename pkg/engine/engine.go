package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lexidb/lexidb/pkg/auth"
	"github.com/lexidb/lexidb/pkg/events"
	"github.com/lexidb/lexidb/pkg/index"
	"github.com/lexidb/lexidb/pkg/log"
	"github.com/lexidb/lexidb/pkg/metrics"
	"github.com/lexidb/lexidb/pkg/queue"
	"github.com/lexidb/lexidb/pkg/reconciler"
	"github.com/lexidb/lexidb/pkg/scheduler"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/rs/zerolog"
)

// Engine owns every long-lived resource one process needs: the open
// index handles, the task queue, the auth store, and the background
// loops (scheduler, reconciler, event broker) that operate on them. It
// is the concrete type pkg/scheduler.Registry, pkg/reconciler.Lister,
// and pkg/metrics.Source are written against.
type Engine struct {
	dataDir string

	queue     *queue.Queue
	authStore *auth.Store
	gate      *auth.Gate
	broker    *events.Broker

	scheduler  *scheduler.Scheduler
	reconciler *reconciler.Reconciler

	schedulerOpts  []scheduler.Option
	reconcilerOpts []reconciler.Option

	logger zerolog.Logger
	mu     sync.RWMutex
	indexes map[string]*index.Index
}

// Option configures New.
type Option func(*Engine)

// WithSigner enables tenant-scoped bearer tokens on the auth gate.
// Without one, the gate only recognizes raw stored API keys.
func WithSigner(signer *auth.Signer) Option {
	return func(e *Engine) { e.gate = auth.NewGate(e.authStore, signer) }
}

// WithSchedulerOptions forwards scheduler.Options to the scheduler New
// builds, e.g. scheduler.WithMaxBatchedTasks or WithUpgrader.
func WithSchedulerOptions(opts ...scheduler.Option) Option {
	return func(e *Engine) { e.schedulerOpts = append(e.schedulerOpts, opts...) }
}

// WithReconcilerOptions forwards reconciler.Options to the reconciler
// New builds.
func WithReconcilerOptions(opts ...reconciler.Option) Option {
	return func(e *Engine) { e.reconcilerOpts = append(e.reconcilerOpts, opts...) }
}

// New opens the queue, the auth store, and every existing index under
// dataDir, and builds the scheduler/reconciler/broker over them. Nothing
// is started until Start is called.
func New(dataDir string, opts ...Option) (*Engine, error) {
	q, err := queue.Open(dataDir)
	if err != nil {
		return nil, fmt.Errorf("engine: open queue: %w", err)
	}
	authStore, err := auth.Open(dataDir)
	if err != nil {
		_ = q.Close()
		return nil, fmt.Errorf("engine: open auth store: %w", err)
	}

	e := &Engine{
		dataDir:   dataDir,
		queue:     q,
		authStore: authStore,
		gate:      auth.NewGate(authStore, nil),
		broker:    events.NewBroker(),
		logger:    log.WithComponent("engine"),
		indexes:   map[string]*index.Index{},
	}

	for _, opt := range opts {
		opt(e)
	}

	if err := e.loadExistingIndexes(); err != nil {
		e.Close()
		return nil, err
	}

	e.scheduler = scheduler.NewScheduler(e.queue, e, e.broker, e.schedulerOpts...)
	e.reconciler = reconciler.New(e.queue, e, e.dataDir, e.reconcilerOpts...)

	return e, nil
}

func (e *Engine) loadExistingIndexes() error {
	dir := filepath.Join(e.dataDir, "indexes")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("engine: list index directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		uid := strings.TrimSuffix(entry.Name(), ".db")
		idx, err := index.Open(e.dataDir, uid)
		if err != nil {
			return fmt.Errorf("engine: open index %s: %w", uid, err)
		}
		e.indexes[uid] = idx
	}
	return nil
}

// Start begins the scheduler, reconciler, and event broker loops.
func (e *Engine) Start() {
	e.broker.Start()
	e.scheduler.Start()
	e.reconciler.Start()
}

// Stop stops the background loops and closes every open store. Safe to
// call once, at shutdown.
func (e *Engine) Stop() {
	e.scheduler.Stop()
	e.reconciler.Stop()
	e.broker.Stop()
	e.Close()
}

// Close releases the queue, auth store, and every open index without
// touching the background loops. Used on a failed New and by Stop.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for uid, idx := range e.indexes {
		if err := idx.Close(); err != nil {
			e.logger.Error().Err(err).Str("index_uid", uid).Msg("failed to close index")
		}
	}
	if e.authStore != nil {
		_ = e.authStore.Close()
	}
	if e.queue != nil {
		_ = e.queue.Close()
	}
}

func (e *Engine) Queue() *queue.Queue    { return e.queue }
func (e *Engine) AuthStore() *auth.Store { return e.authStore }
func (e *Engine) Gate() *auth.Gate       { return e.gate }
func (e *Engine) Broker() *events.Broker { return e.broker }
func (e *Engine) DataDir() string        { return e.dataDir }

// Index returns uid's already-open handle, satisfying
// scheduler.Registry.
func (e *Engine) Index(uid string) (*index.Index, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	idx, ok := e.indexes[uid]
	if !ok {
		return nil, types.ErrIndexNotFound
	}
	return idx, nil
}

// CreateIndex opens a fresh index for uid, failing if one already
// exists.
func (e *Engine) CreateIndex(uid string) (*index.Index, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.indexes[uid]; ok {
		return nil, types.ErrIndexAlreadyExists
	}
	idx, err := index.Open(e.dataDir, uid)
	if err != nil {
		return nil, fmt.Errorf("engine: create index %s: %w", uid, err)
	}
	e.indexes[uid] = idx
	return idx, nil
}

// DeleteIndex closes uid's handle and drops it from the registry. The
// on-disk file is left for the reconciler's grace-period sweep to
// remove.
func (e *Engine) DeleteIndex(uid string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx, ok := e.indexes[uid]
	if !ok {
		return types.ErrIndexNotFound
	}
	if err := idx.Close(); err != nil {
		return fmt.Errorf("engine: close index %s: %w", uid, err)
	}
	delete(e.indexes, uid)
	return nil
}

// SwapIndexes exchanges the uids two indexes are served under, for
// zero-downtime reindex: callers keep using uidA/uidB, but the handles
// behind them trade places.
func (e *Engine) SwapIndexes(uidA, uidB string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.indexes[uidA]
	if !ok {
		return fmt.Errorf("engine: swap %s/%s: %w: %s", uidA, uidB, types.ErrIndexNotFound, uidA)
	}
	b, ok := e.indexes[uidB]
	if !ok {
		return fmt.Errorf("engine: swap %s/%s: %w: %s", uidA, uidB, types.ErrIndexNotFound, uidB)
	}
	e.indexes[uidA], e.indexes[uidB] = b, a
	return nil
}

// ListIndexUIDs satisfies reconciler.Lister: the live set the index-GC
// sweep must not touch.
func (e *Engine) ListIndexUIDs() ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	uids := make([]string, 0, len(e.indexes))
	for uid := range e.indexes {
		uids = append(uids, uid)
	}
	return uids, nil
}

// ListIndexMetrics satisfies metrics.Source.
func (e *Engine) ListIndexMetrics() ([]metrics.IndexStat, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	stats := make([]metrics.IndexStat, 0, len(e.indexes))
	for uid, idx := range e.indexes {
		meta, err := idx.Meta()
		if err != nil {
			return nil, fmt.Errorf("engine: stat index %s: %w", uid, err)
		}
		var size int64
		if info, err := os.Stat(idx.Path()); err == nil {
			size = info.Size()
		}
		stats = append(stats, metrics.IndexStat{
			UID:          uid,
			NumDocuments: meta.NumberOfDocuments,
			SizeBytes:    size,
		})
	}
	return stats, nil
}

// QueueDepthByStatus satisfies metrics.Source.
func (e *Engine) QueueDepthByStatus() (map[types.TaskStatus]int, error) {
	tasks, err := e.queue.List(queue.Filter{})
	if err != nil {
		return nil, fmt.Errorf("engine: list tasks: %w", err)
	}
	depth := map[types.TaskStatus]int{}
	for _, t := range tasks {
		depth[t.Status]++
	}
	return depth, nil
}
