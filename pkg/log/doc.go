/*
Package log provides lexidb's structured logging, a thin wrapper over
zerolog giving every package a component-tagged logger instead of a
shared, unlabeled one.

# Usage

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	schedulerLog := log.WithComponent("scheduler")
	schedulerLog.Info().Msg("scheduler started")

	taskLog := log.WithTaskUID(task.UID)
	taskLog.Error().Err(err).Msg("task failed")

Init must run once before any other package logs; cmd/lexidb calls it
from cobra.OnInitialize so every subcommand picks up --log-level and
--log-json before its RunE body executes.

WithComponent, WithIndexUID, WithTaskUID, and WithBatchUID each return a
child zerolog.Logger carrying one extra field, matching the domain IDs
that flow through pkg/engine, pkg/scheduler, and pkg/indexing: an index
uid, a task uid, or an indexing batch uid.
*/
package log
