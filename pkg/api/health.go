package api

import (
	"runtime/debug"

	"github.com/lexidb/lexidb/pkg/metrics"
	"github.com/go-mizu/mizu"
)

// statsResponse is the body for GET /stats (§6): per-index document
// counts/sizes and the queue depth by status, the same figures
// pkg/metrics.Collector feeds into Prometheus.
type statsResponse struct {
	Indexes    map[string]indexStats         `json:"indexes"`
	QueueDepth map[string]int                `json:"queueDepth"`
}

type indexStats struct {
	NumberOfDocuments uint64 `json:"numberOfDocuments"`
	DatabaseSize      int64  `json:"databaseSize"`
}

type versionResponse struct {
	Version   string `json:"lexidbVersion"`
	CommitSHA string `json:"commitSha,omitempty"`
	BuildDate string `json:"buildDate,omitempty"`
}

func (s *Server) handleHealth(c *mizu.Ctx) error {
	health := metrics.GetHealth()
	status := 200
	if health.Status == "unhealthy" {
		status = 503
	}
	return c.JSON(status, health)
}

func (s *Server) handleReady(c *mizu.Ctx) error {
	ready := metrics.GetReadiness()
	status := 200
	if ready.Status != "ready" {
		status = 503
	}
	return c.JSON(status, ready)
}

func (s *Server) handleStats(c *mizu.Ctx) error {
	stats, err := s.engine.ListIndexMetrics()
	if err != nil {
		return err
	}
	depth, err := s.engine.QueueDepthByStatus()
	if err != nil {
		return err
	}

	resp := statsResponse{
		Indexes:    make(map[string]indexStats, len(stats)),
		QueueDepth: make(map[string]int, len(depth)),
	}
	for _, stat := range stats {
		resp.Indexes[stat.UID] = indexStats{
			NumberOfDocuments: stat.NumDocuments,
			DatabaseSize:      stat.SizeBytes,
		}
	}
	for status, count := range depth {
		resp.QueueDepth[string(status)] = count
	}
	return c.JSON(200, resp)
}

func (s *Server) handleVersion(c *mizu.Ctx) error {
	version := "dev"
	commit := ""
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				commit = setting.Value
			}
		}
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
	return c.JSON(200, versionResponse{
		Version:   version,
		CommitSHA: commit,
	})
}
