package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/upgrade"
)

// schemaVersion is the on-disk format version this build writes.
// Bump it and register a migration in lexidbMigrations whenever a
// stored bucket's shape changes.
const schemaVersion = 1

var lexidbMigrations = []upgrade.Migration{}

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Run pending schema migrations against a data directory",
	Long: `Upgrade walks every bbolt file under --data-dir (the task
queue, the auth store, and each index) and brings it up to this
build's schema version, taking a backup before any migration runs.

Refuses to touch a store newer than this build's version unless
--allow-newer names that exact version, matching a deliberate
dumpless-upgrade opt-in rather than a silent downgrade.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		allowNewer, _ := cmd.Flags().GetIntSlice("allow-newer")

		paths, err := storePaths(dataDir)
		if err != nil {
			return fmt.Errorf("failed to enumerate stores: %v", err)
		}
		if len(paths) == 0 {
			fmt.Printf("No stores found under %s\n", dataDir)
			return nil
		}

		for _, path := range paths {
			fmt.Printf("Upgrading %s\n", path)
			if err := upgradeStore(path, dryRun, allowNewer); err != nil {
				return fmt.Errorf("%s: %v", path, err)
			}
		}

		fmt.Println("✓ Upgrade complete")
		return nil
	},
}

func upgradeStore(path string, dryRun bool, allowNewer []int) error {
	store, err := kv.Open(path, upgrade.Buckets)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer store.Close()

	opts := []upgrade.Option{upgrade.WithDryRun(dryRun)}
	if len(allowNewer) > 0 {
		opts = append(opts, upgrade.WithDumplessUpgrade(true), upgrade.WithAllowNewer(allowNewer...))
	}

	runner, err := upgrade.NewRunner(store, schemaVersion, lexidbMigrations, opts...)
	if err != nil {
		return fmt.Errorf("build runner: %w", err)
	}
	return runner.Run()
}

// storePaths finds tasks.db, auth.db, and every indexes/*.db file under
// dataDir, matching §6's on-disk layout.
func storePaths(dataDir string) ([]string, error) {
	var paths []string
	for _, name := range []string{"tasks.db", "auth.db"} {
		p := filepath.Join(dataDir, name)
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}

	indexDir := filepath.Join(dataDir, "indexes")
	entries, err := os.ReadDir(indexDir)
	if os.IsNotExist(err) {
		return paths, nil
	}
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".db" {
			paths = append(paths, filepath.Join(indexDir, entry.Name()))
		}
	}
	return paths, nil
}

func init() {
	upgradeCmd.Flags().String("data-dir", "./data", "Directory holding the task queue, auth store, and indexes")
	upgradeCmd.Flags().Bool("dry-run", false, "Log pending migrations without applying them")
	upgradeCmd.Flags().IntSlice("allow-newer", nil, "On-disk versions newer than this build that are still compatible")
}
