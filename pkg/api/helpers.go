package api

import (
	"strconv"
	"strings"

	"github.com/lexidb/lexidb/pkg/types"
	"github.com/go-mizu/mizu"
)

// taskStub is the immediate response body for every async endpoint
// (§6): the caller polls /tasks/{uid} for the final outcome.
type taskStub struct {
	TaskUID    uint64          `json:"taskUid"`
	IndexUID   string          `json:"indexUid,omitempty"`
	Status     types.TaskStatus `json:"status"`
	Type       types.TaskKind  `json:"type"`
	EnqueuedAt string          `json:"enqueuedAt"`
}

func (s *Server) enqueue(c *mizu.Ctx, indexUID string, kind types.TaskKind, details map[string]any) error {
	uid, err := s.engine.Queue().Enqueue(types.Task{
		IndexUID: indexUID,
		Kind:     kind,
		Details:  details,
	})
	if err != nil {
		return err
	}
	task, _, err := s.engine.Queue().Get(uid)
	if err != nil {
		return err
	}
	return c.JSON(202, taskStub{
		TaskUID:    task.UID,
		IndexUID:   task.IndexUID,
		Status:     task.Status,
		Type:       task.Kind,
		EnqueuedAt: task.EnqueuedAt.Format("2006-01-02T15:04:05.000Z"),
	})
}

// intQuery parses query parameter name as an int, falling back to def
// when absent or unparsable.
func intQuery(c *mizu.Ctx, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// containsFold reports whether value contains substr, ignoring case.
func containsFold(value, substr string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(substr))
}
