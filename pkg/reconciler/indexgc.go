package reconciler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// gcOrphanedIndexes removes *.db files under dataDir/indexes that have
// dropped out of the engine's live uid set and were last modified at
// least indexGCGrace ago, matching index.Open's dataDir/indexes/{uid}.db
// layout.
func (r *Reconciler) gcOrphanedIndexes() error {
	dir := filepath.Join(r.dataDir, "indexes")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reconciler: list index directory: %w", err)
	}

	live, err := r.indexes.ListIndexUIDs()
	if err != nil {
		return fmt.Errorf("reconciler: list live indexes: %w", err)
	}
	liveSet := make(map[string]bool, len(live))
	for _, uid := range live {
		liveSet[uid] = true
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		uid := strings.TrimSuffix(entry.Name(), ".db")
		if liveSet[uid] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			r.logger.Error().Err(err).Str("index_uid", uid).Msg("failed to stat orphaned index file")
			continue
		}
		if now.Sub(info.ModTime()) < r.indexGCGrace {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			r.logger.Error().Err(err).Str("index_uid", uid).Msg("failed to remove orphaned index file")
			continue
		}
		r.logger.Info().Str("index_uid", uid).Msg("removed orphaned index file")
	}

	return nil
}
