package api

import (
	"github.com/lexidb/lexidb/pkg/queue"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/go-mizu/mizu"
)

// handleListTasks is GET /tasks (§6 — sync): filtered by the caller's
// permitted indexes, since a task carries no separate authorization
// check of its own.
func (s *Server) handleListTasks(c *mizu.Ctx) error {
	filter, err := parseTaskFilter(c)
	if err != nil {
		return err
	}

	tasks, err := s.engine.Queue().List(filter)
	if err != nil {
		return err
	}

	gate := s.engine.Gate()
	principal := principalFrom(c)
	visible := make([]types.Task, 0, len(tasks))
	for _, t := range tasks {
		if gate.Authorize(principal, types.ActionTasksGet, t.IndexUID) {
			visible = append(visible, t)
		}
	}
	return c.JSON(200, map[string]any{"results": visible, "total": len(visible)})
}

// handleGetTask is GET /tasks/{uid}.
func (s *Server) handleGetTask(c *mizu.Ctx) error {
	uid, err := parseUint64Param(c, "uid")
	if err != nil {
		return err
	}
	task, found, err := s.engine.Queue().Get(uid)
	if err != nil {
		return err
	}
	if !found {
		return types.ErrTaskNotFound
	}
	if !authorize(c, s.engine.Gate(), types.ActionTasksGet, task.IndexUID) {
		return nil
	}
	return c.JSON(200, task)
}

type taskActionRequest struct {
	UIDs     []uint64 `json:"uids,omitempty"`
	IndexUID string   `json:"indexUid,omitempty"`
	Statuses []string `json:"statuses,omitempty"`
	Types    []string `json:"types,omitempty"`
}

func (r taskActionRequest) toFilter() queue.Filter {
	f := queue.Filter{UIDs: r.UIDs, IndexUID: r.IndexUID}
	for _, st := range r.Statuses {
		f.Status = append(f.Status, types.TaskStatus(st))
	}
	return f
}

// handleCancelTasks is POST /tasks/cancel (§6 — async): resolves the
// filter to concrete task uids synchronously, then enqueues a single
// taskCancelation task carrying those uids, matching what
// runTaskCancelation expects in Details["uids"].
func (s *Server) handleCancelTasks(c *mizu.Ctx) error {
	return s.dispatchTaskAction(c, types.ActionTasksCancel, types.TaskKindTaskCancelation)
}

// handleDeleteTasks is POST /tasks/delete (§6 — async).
func (s *Server) handleDeleteTasks(c *mizu.Ctx) error {
	return s.dispatchTaskAction(c, types.ActionTasksDelete, types.TaskKindTaskDeletion)
}

func (s *Server) dispatchTaskAction(c *mizu.Ctx, action types.Action, kind types.TaskKind) error {
	var req taskActionRequest
	if err := c.Bind(&req, 0); err != nil {
		return newAPIError(400, "bad_request", "invalid_request", err.Error())
	}
	if req.IndexUID == "" && len(req.UIDs) == 0 {
		return newAPIError(400, "task_cancelation_without_index_uid", "invalid_request", "request must scope by indexUid or uids")
	}
	if !authorize(c, s.engine.Gate(), action, req.IndexUID) {
		return nil
	}

	matched, err := s.engine.Queue().List(req.toFilter())
	if err != nil {
		return err
	}
	uids := make([]uint64, 0, len(matched))
	for _, t := range matched {
		uids = append(uids, t.UID)
	}
	return s.enqueue(c, req.IndexUID, kind, map[string]any{"uids": uids})
}

func parseTaskFilter(c *mizu.Ctx) (queue.Filter, error) {
	var f queue.Filter
	f.IndexUID = c.Query("indexUid")
	if kind := c.Query("type"); kind != "" {
		f.Kind = types.TaskKind(kind)
	}
	if statuses := c.QueryValues()["statuses"]; len(statuses) > 0 {
		for _, st := range statuses {
			f.Status = append(f.Status, types.TaskStatus(st))
		}
	}
	return f, nil
}

func parseUint64Param(c *mizu.Ctx, name string) (uint64, error) {
	raw := c.Param(name)
	var n uint64
	for _, ch := range raw {
		if ch < '0' || ch > '9' {
			return 0, newAPIError(400, "bad_request", "invalid_request", "invalid "+name)
		}
		n = n*10 + uint64(ch-'0')
	}
	if raw == "" {
		return 0, newAPIError(400, "bad_request", "invalid_request", "missing "+name)
	}
	return n, nil
}
