package upgrade

import (
	"fmt"
	"sort"

	"github.com/lexidb/lexidb/pkg/kv"
)

// Migration is one registered schema step. Version must be unique and
// is the value written to the version record once Run commits.
type Migration struct {
	Version int
	Name    string
	Run     func(tx *kv.WriteTx) error
}

// sortedMigrations returns migrations sorted by Version ascending,
// rejecting duplicate versions so a build can never register two
// incompatible steps under the same number.
func sortedMigrations(migrations []Migration) ([]Migration, error) {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })

	for i := 1; i < len(out); i++ {
		if out[i].Version == out[i-1].Version {
			return nil, fmt.Errorf("upgrade: duplicate migration version %d (%q and %q)", out[i].Version, out[i-1].Name, out[i].Name)
		}
	}
	return out, nil
}

// pending returns the migrations with current < Version <= target, in
// order. Migrations at or below current are already applied; anything
// past target belongs to a future build and is never run here.
func pending(migrations []Migration, current, target int) []Migration {
	var out []Migration
	for _, m := range migrations {
		if m.Version > current && m.Version <= target {
			out = append(out, m)
		}
	}
	return out
}
