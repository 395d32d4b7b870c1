package api

import (
	"time"

	"github.com/lexidb/lexidb/pkg/engine"
	"github.com/lexidb/lexidb/pkg/metrics"
	"github.com/go-mizu/mizu"
	"github.com/go-mizu/mizu/middlewares/bodylimit"
	"github.com/go-mizu/mizu/middlewares/ratelimit"
)

const (
	defaultBodyLimit  = 100 << 20 // 100MiB document payloads
	defaultRate       = 600
	defaultRateWindow = time.Minute
)

// Server is the Wire API (§6): a mizu app wired to one pkg/engine.Engine.
type Server struct {
	*mizu.App
	engine    *engine.Engine
	collector *metrics.Collector
}

// Option configures NewServer.
type Option func(*serverConfig)

type serverConfig struct {
	bodyLimit  int
	rate       int
	rateWindow time.Duration
}

// WithBodyLimit overrides the 413 payload-size boundary.
func WithBodyLimit(bytes int) Option {
	return func(c *serverConfig) { c.bodyLimit = bytes }
}

// WithRateLimit overrides the per-IP 429 backpressure boundary.
func WithRateLimit(rate int, window time.Duration) Option {
	return func(c *serverConfig) { c.rate = rate; c.rateWindow = window }
}

// NewServer builds a Server over eng: every route ultimately reads from
// or enqueues onto eng, and auth is gated by eng.Gate().
func NewServer(eng *engine.Engine, opts ...Option) *Server {
	cfg := serverConfig{
		bodyLimit:  defaultBodyLimit,
		rate:       defaultRate,
		rateWindow: defaultRateWindow,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	app := mizu.New()
	app.ErrorHandler(func(c *mizu.Ctx, err error) {
		_ = writeError(c, err)
	})
	app.Use(bodylimit.New(cfg.bodyLimit), ratelimit.New(cfg.rate, cfg.rateWindow))

	s := &Server{
		App:       app,
		engine:    eng,
		collector: metrics.NewCollector(eng),
	}
	s.routes()
	return s
}

// Start begins the metrics collector and listens on addr. It blocks
// until the process receives SIGINT/SIGTERM and drains in place, per
// mizu.App's own graceful-shutdown contract.
func (s *Server) Start(addr string) error {
	s.collector.Start()
	defer s.collector.Stop()
	return s.Listen(addr)
}

func (s *Server) routes() {
	gate := s.engine.Gate()

	s.Get("/health", s.handleHealth)
	s.Get("/ready", s.handleReady)
	s.Get("/stats", s.handleStats)
	s.Get("/version", s.handleVersion)
	s.Compat.Handle("/metrics", metrics.Handler())

	api := s.With(requireAuth(gate))

	api.Get("/indexes", s.handleListIndexes)
	api.Post("/indexes", s.handleCreateIndex)
	api.Get("/indexes/{uid}", s.handleGetIndex)
	api.Get("/indexes/{uid}/stats", s.handleGetIndexStats)
	api.Patch("/indexes/{uid}", s.handleUpdateIndex)
	api.Delete("/indexes/{uid}", s.handleDeleteIndex)
	api.Post("/swap-indexes", s.handleSwapIndexes)

	api.Get("/indexes/{uid}/documents", s.handleListDocuments)
	api.Post("/indexes/{uid}/documents", s.handleAddDocuments)
	api.Put("/indexes/{uid}/documents", s.handleReplaceDocuments)
	api.Delete("/indexes/{uid}/documents", s.handleDeleteAllDocuments)
	api.Get("/indexes/{uid}/documents/{id}", s.handleGetDocument)
	api.Delete("/indexes/{uid}/documents/{id}", s.handleDeleteDocument)
	api.Post("/indexes/{uid}/documents/delete-batch", s.handleDeleteDocumentsBatch)

	api.Post("/indexes/{uid}/search", s.handleSearch)
	api.Post("/indexes/{uid}/facet-search", s.handleFacetSearch)

	api.Get("/indexes/{uid}/settings", s.handleGetSettings)
	api.Patch("/indexes/{uid}/settings", s.handleUpdateSettings)
	api.Delete("/indexes/{uid}/settings", s.handleResetSettings)

	api.Get("/tasks", s.handleListTasks)
	api.Get("/tasks/{uid}", s.handleGetTask)
	api.Post("/tasks/cancel", s.handleCancelTasks)
	api.Post("/tasks/delete", s.handleDeleteTasks)

	api.Get("/keys", s.handleListKeys)
	api.Post("/keys", s.handleCreateKey)
	api.Get("/keys/{uid}", s.handleGetKey)
	api.Delete("/keys/{uid}", s.handleRevokeKey)
}

