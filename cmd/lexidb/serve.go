package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexidb/lexidb/pkg/api"
	"github.com/lexidb/lexidb/pkg/engine"
	"github.com/lexidb/lexidb/pkg/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the lexidb HTTP server",
	Long: `Start the lexidb HTTP server: opens (or creates) the on-disk
store under --data-dir, starts the scheduler, reconciler, and event
broker, then serves the wire API until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dataDir, _ := cmd.Flags().GetString("data-dir")
		addr, _ := cmd.Flags().GetString("addr")

		logger := log.WithComponent("serve")

		eng, err := engine.New(dataDir)
		if err != nil {
			return fmt.Errorf("failed to open engine: %v", err)
		}
		defer eng.Stop()

		eng.Start()
		logger.Info().Str("data_dir", dataDir).Msg("engine started")

		srv := api.NewServer(eng)

		fmt.Printf("lexidb listening on %s (data dir: %s)\n", addr, dataDir)
		fmt.Println("Press Ctrl+C to stop.")

		// Server.Start blocks until SIGINT/SIGTERM and drains requests in
		// place before returning, so no separate signal handling is needed
		// here: the deferred eng.Stop above runs once Start unblocks.
		if err := srv.Start(addr); err != nil {
			return fmt.Errorf("server error: %v", err)
		}

		fmt.Println("✓ Shutdown complete")
		return nil
	},
}

func init() {
	serveCmd.Flags().String("data-dir", "./data", "Directory holding the task queue, auth store, and indexes")
	serveCmd.Flags().String("addr", ":7700", "Address to listen on")
}
