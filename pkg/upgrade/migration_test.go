package upgrade

import (
	"testing"

	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortedMigrationsOrdersByVersion(t *testing.T) {
	run := func(tx *kv.WriteTx) error { return nil }
	in := []Migration{
		{Version: 3, Name: "third", Run: run},
		{Version: 1, Name: "first", Run: run},
		{Version: 2, Name: "second", Run: run},
	}

	out, err := sortedMigrations(in)
	require.NoError(t, err)

	require.Len(t, out, 3)
	assert.Equal(t, "first", out[0].Name)
	assert.Equal(t, "second", out[1].Name)
	assert.Equal(t, "third", out[2].Name)
}

func TestSortedMigrationsRejectsDuplicateVersions(t *testing.T) {
	run := func(tx *kv.WriteTx) error { return nil }
	_, err := sortedMigrations([]Migration{
		{Version: 1, Name: "a", Run: run},
		{Version: 1, Name: "b", Run: run},
	})
	assert.Error(t, err)
}

func TestPendingFiltersToRange(t *testing.T) {
	run := func(tx *kv.WriteTx) error { return nil }
	migrations, err := sortedMigrations([]Migration{
		{Version: 1, Name: "one", Run: run},
		{Version: 2, Name: "two", Run: run},
		{Version: 3, Name: "three", Run: run},
		{Version: 4, Name: "four", Run: run},
	})
	require.NoError(t, err)

	steps := pending(migrations, 1, 3)
	require.Len(t, steps, 2)
	assert.Equal(t, "two", steps[0].Name)
	assert.Equal(t, "three", steps[1].Name)
}

func TestPendingReturnsNoneWhenCurrentMatchesTarget(t *testing.T) {
	run := func(tx *kv.WriteTx) error { return nil }
	migrations, err := sortedMigrations([]Migration{{Version: 1, Name: "one", Run: run}})
	require.NoError(t, err)

	assert.Empty(t, pending(migrations, 1, 1))
}
