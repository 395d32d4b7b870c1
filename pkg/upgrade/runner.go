package upgrade

import (
	"fmt"

	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/log"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/rs/zerolog"
)

var bucketUpgrade = []byte("upgrade")

var versionKey = []byte("version")

// Buckets is the bucket this package needs declared on whatever
// *kv.Store a Runner wraps. Callers that open their own store (rather
// than handing Runner a dedicated one) must fold this into their
// kv.Open bucket list.
var Buckets = [][]byte{bucketUpgrade}

// Runner is the Upgrade Runner: it satisfies pkg/scheduler's Upgrader
// interface so a dumplessUpgrade task can hand off to it directly.
type Runner struct {
	store        *kv.Store
	buildVersion int
	migrations   []Migration

	dumplessUpgrade bool
	allowNewer      map[int]bool
	backupPath      string
	dryRun          bool

	logger zerolog.Logger
}

type Option func(*Runner)

// WithDumplessUpgrade opts into opening a database newer than
// buildVersion, provided the jump is also declared via WithAllowNewer.
func WithDumplessUpgrade(allow bool) Option {
	return func(r *Runner) { r.dumplessUpgrade = allow }
}

// WithAllowNewer declares specific on-disk versions newer than
// buildVersion that this build's code is known to remain compatible
// with (the "code declares the prior format compatible" clause).
func WithAllowNewer(versions ...int) Option {
	return func(r *Runner) {
		for _, v := range versions {
			r.allowNewer[v] = true
		}
	}
}

// WithBackupPath overrides the snapshot destination taken before
// migrations run. Defaults to the store's path plus ".backup".
func WithBackupPath(path string) Option {
	return func(r *Runner) { r.backupPath = path }
}

// WithDryRun logs what would be migrated without opening a write
// transaction or taking a backup.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// NewRunner builds a Runner over store, targeting buildVersion, with
// migrations run in ascending Version order. Returns an error if two
// migrations share a Version.
func NewRunner(store *kv.Store, buildVersion int, migrations []Migration, opts ...Option) (*Runner, error) {
	sorted, err := sortedMigrations(migrations)
	if err != nil {
		return nil, err
	}

	r := &Runner{
		store:        store,
		buildVersion: buildVersion,
		migrations:   sorted,
		allowNewer:   map[int]bool{},
		logger:       log.WithComponent("upgrade"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run reads the stored version and brings the database to buildVersion,
// refusing newer-than-build databases unless explicitly allowed.
func (r *Runner) Run() error {
	current, err := r.readVersion()
	if err != nil {
		return err
	}

	switch {
	case current == r.buildVersion:
		r.logger.Debug().Int("version", current).Msg("database already at build version")
		return nil
	case current > r.buildVersion:
		return r.openNewer(current)
	default:
		return r.migrateUp(current)
	}
}

func (r *Runner) openNewer(current int) error {
	if !r.dumplessUpgrade {
		return types.ErrDumplessUpgradeRequired
	}
	if !r.allowNewer[current] {
		return fmt.Errorf("%w: build %d does not declare version %d compatible", types.ErrVersionMismatch, r.buildVersion, current)
	}
	r.logger.Warn().
		Int("db_version", current).
		Int("build_version", r.buildVersion).
		Msg("opening newer database under declared dumpless-upgrade compatibility")
	return nil
}

func (r *Runner) migrateUp(current int) error {
	steps := pending(r.migrations, current, r.buildVersion)
	if len(steps) == 0 {
		return r.writeVersion(r.buildVersion)
	}

	r.logger.Info().
		Int("from", current).
		Int("to", r.buildVersion).
		Int("steps", len(steps)).
		Msg("migrations pending")

	if r.dryRun {
		for _, m := range steps {
			r.logger.Info().Int("version", m.Version).Str("name", m.Name).Msg("dry run: would apply migration")
		}
		return nil
	}

	if err := r.backup(); err != nil {
		return fmt.Errorf("upgrade: backup failed: %w", err)
	}

	for i, m := range steps {
		if err := r.store.Update(m.Run); err != nil {
			return fmt.Errorf("upgrade: migration %d (%s) failed: %w", m.Version, m.Name, err)
		}
		if err := r.writeVersion(m.Version); err != nil {
			return fmt.Errorf("upgrade: recording version after migration %d: %w", m.Version, err)
		}
		r.logger.Info().
			Int("step", i+1).
			Int("total", len(steps)).
			Int("version", m.Version).
			Str("name", m.Name).
			Msg("migration applied")
	}

	return nil
}

func (r *Runner) backup() error {
	dst := r.backupPath
	if dst == "" {
		dst = r.store.Path() + ".backup"
	}
	r.logger.Info().Str("path", dst).Msg("backing up database before migration")
	return r.store.CopyTo(dst)
}

func (r *Runner) readVersion() (int, error) {
	var version int
	err := r.store.View(func(tx *kv.ReadTx) error {
		data := tx.Bucket(bucketUpgrade).Get(versionKey)
		if data == nil {
			version = 0
			return nil
		}
		if len(data) != 8 {
			return fmt.Errorf("upgrade: malformed version record (%d bytes)", len(data))
		}
		version = int(kv.Uint64BigEndian(data))
		return nil
	})
	return version, err
}

func (r *Runner) writeVersion(version int) error {
	return r.store.Update(func(tx *kv.WriteTx) error {
		return tx.Bucket(bucketUpgrade).Put(versionKey, kv.BigEndianUint64(uint64(version)))
	})
}
