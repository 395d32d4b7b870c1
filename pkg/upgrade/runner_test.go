package upgrade

import (
	"path/filepath"
	"testing"

	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bucketWidgets = []byte("widgets")

func openTestStore(t *testing.T) *kv.Store {
	t.Helper()
	buckets := append([][]byte{}, Buckets...)
	buckets = append(buckets, bucketWidgets)
	s, err := kv.Open(filepath.Join(t.TempDir(), "test.db"), buckets)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRunnerFreshDatabaseRunsAllMigrationsAndRecordsVersion(t *testing.T) {
	store := openTestStore(t)
	applied := 0

	runner, err := NewRunner(store, 2, []Migration{
		{Version: 1, Name: "seed widget", Run: func(tx *kv.WriteTx) error {
			applied++
			return tx.Bucket(bucketWidgets).Put([]byte("a"), []byte("1"))
		}},
		{Version: 2, Name: "seed another widget", Run: func(tx *kv.WriteTx) error {
			applied++
			return tx.Bucket(bucketWidgets).Put([]byte("b"), []byte("2"))
		}},
	})
	require.NoError(t, err)

	require.NoError(t, runner.Run())
	assert.Equal(t, 2, applied)

	version, err := runner.readVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	err = store.View(func(tx *kv.ReadTx) error {
		assert.Equal(t, []byte("1"), tx.Bucket(bucketWidgets).Get([]byte("a")))
		assert.Equal(t, []byte("2"), tx.Bucket(bucketWidgets).Get([]byte("b")))
		return nil
	})
	require.NoError(t, err)
}

func TestRunnerOnlyRunsMigrationsAboveCurrentVersion(t *testing.T) {
	store := openTestStore(t)

	first, err := NewRunner(store, 1, []Migration{
		{Version: 1, Name: "one", Run: func(tx *kv.WriteTx) error { return nil }},
	})
	require.NoError(t, err)
	require.NoError(t, first.Run())

	ranAgain := false
	second, err := NewRunner(store, 2, []Migration{
		{Version: 1, Name: "one", Run: func(tx *kv.WriteTx) error {
			ranAgain = true
			return nil
		}},
		{Version: 2, Name: "two", Run: func(tx *kv.WriteTx) error { return nil }},
	})
	require.NoError(t, err)
	require.NoError(t, second.Run())

	assert.False(t, ranAgain)

	version, err := second.readVersion()
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestRunnerNewerDatabaseRefusedWithoutDumplessUpgrade(t *testing.T) {
	store := openTestStore(t)

	bootstrap, err := NewRunner(store, 5, nil)
	require.NoError(t, err)
	require.NoError(t, bootstrap.Run())

	runner, err := NewRunner(store, 3, nil)
	require.NoError(t, err)

	err = runner.Run()
	assert.ErrorIs(t, err, types.ErrDumplessUpgradeRequired)
}

func TestRunnerNewerDatabaseRefusedWhenNotDeclaredCompatible(t *testing.T) {
	store := openTestStore(t)

	bootstrap, err := NewRunner(store, 5, nil)
	require.NoError(t, err)
	require.NoError(t, bootstrap.Run())

	runner, err := NewRunner(store, 3, nil, WithDumplessUpgrade(true))
	require.NoError(t, err)

	err = runner.Run()
	assert.ErrorIs(t, err, types.ErrVersionMismatch)
}

func TestRunnerNewerDatabaseAllowedWhenDeclaredCompatible(t *testing.T) {
	store := openTestStore(t)

	bootstrap, err := NewRunner(store, 5, nil)
	require.NoError(t, err)
	require.NoError(t, bootstrap.Run())

	runner, err := NewRunner(store, 3, nil, WithDumplessUpgrade(true), WithAllowNewer(5))
	require.NoError(t, err)

	assert.NoError(t, runner.Run())
}

func TestRunnerDryRunAppliesNothing(t *testing.T) {
	store := openTestStore(t)
	applied := false

	runner, err := NewRunner(store, 1, []Migration{
		{Version: 1, Name: "one", Run: func(tx *kv.WriteTx) error {
			applied = true
			return nil
		}},
	}, WithDryRun(true))
	require.NoError(t, err)

	require.NoError(t, runner.Run())
	assert.False(t, applied)

	version, err := runner.readVersion()
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}

func TestRunnerTakesBackupBeforeMigrating(t *testing.T) {
	store := openTestStore(t)
	backupPath := filepath.Join(t.TempDir(), "snapshot.db")

	runner, err := NewRunner(store, 1, []Migration{
		{Version: 1, Name: "one", Run: func(tx *kv.WriteTx) error { return nil }},
	}, WithBackupPath(backupPath))
	require.NoError(t, err)

	require.NoError(t, runner.Run())
	assert.FileExists(t, backupPath)
}

func TestRunnerDuplicateMigrationVersionsRejected(t *testing.T) {
	store := openTestStore(t)
	_, err := NewRunner(store, 1, []Migration{
		{Version: 1, Name: "a", Run: func(tx *kv.WriteTx) error { return nil }},
		{Version: 1, Name: "b", Run: func(tx *kv.WriteTx) error { return nil }},
	})
	assert.Error(t, err)
}
