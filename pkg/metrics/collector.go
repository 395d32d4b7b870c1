package metrics

import (
	"time"

	"github.com/lexidb/lexidb/pkg/types"
)

// IndexStat summarizes one index for periodic gauge collection.
type IndexStat struct {
	UID          string
	NumDocuments uint64
	SizeBytes    int64
}

// Source is implemented by whatever owns the live index registry and task
// queue (the engine handle). Collector depends only on this interface so it
// never needs to import the engine package.
type Source interface {
	ListIndexMetrics() ([]IndexStat, error)
	QueueDepthByStatus() (map[types.TaskStatus]int, error)
}

// Collector periodically polls source and updates the package-level gauges.
type Collector struct {
	source Source
	stopCh chan struct{}
}

// NewCollector creates a new metrics collector.
func NewCollector(source Source) *Collector {
	return &Collector{
		source: source,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting metrics on a 15s tick.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectIndexMetrics()
	c.collectQueueMetrics()
}

func (c *Collector) collectIndexMetrics() {
	stats, err := c.source.ListIndexMetrics()
	if err != nil {
		return
	}

	IndexesTotal.Set(float64(len(stats)))
	for _, s := range stats {
		DocumentsTotal.WithLabelValues(s.UID).Set(float64(s.NumDocuments))
		DatabaseSizeBytes.WithLabelValues(s.UID).Set(float64(s.SizeBytes))
	}
}

func (c *Collector) collectQueueMetrics() {
	depths, err := c.source.QueueDepthByStatus()
	if err != nil {
		return
	}

	for status, count := range depths {
		QueueDepth.WithLabelValues(string(status)).Set(float64(count))
	}
}
