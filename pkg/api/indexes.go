package api

import (
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/go-mizu/mizu"
)

type indexResponse struct {
	UID               string    `json:"uid"`
	PrimaryKey        string    `json:"primaryKey,omitempty"`
	CreatedAt         string    `json:"createdAt"`
	UpdatedAt         string    `json:"updatedAt"`
	NumberOfDocuments uint64    `json:"numberOfDocuments"`
}

func toIndexResponse(m types.IndexMeta) indexResponse {
	return indexResponse{
		UID:               m.UID,
		PrimaryKey:        m.PrimaryKey,
		CreatedAt:         m.CreatedAt.Format("2006-01-02T15:04:05.000Z"),
		UpdatedAt:         m.UpdatedAt.Format("2006-01-02T15:04:05.000Z"),
		NumberOfDocuments: m.NumberOfDocuments,
	}
}

// handleListIndexes is GET /indexes: a sync listing of every index's meta
// record that the caller's key may see.
func (s *Server) handleListIndexes(c *mizu.Ctx) error {
	uids, err := s.engine.ListIndexUIDs()
	if err != nil {
		return err
	}

	gate, principal := s.engine.Gate(), principalFrom(c)
	results := make([]indexResponse, 0, len(uids))
	for _, uid := range uids {
		if !gate.Authorize(principal, types.ActionIndexesGet, uid) {
			continue
		}
		idx, err := s.engine.Index(uid)
		if err != nil {
			continue
		}
		meta, err := idx.Meta()
		if err != nil {
			return err
		}
		results = append(results, toIndexResponse(meta))
	}
	return c.JSON(200, map[string]any{"results": results, "total": len(results)})
}

type createIndexRequest struct {
	UID        string `json:"uid"`
	PrimaryKey string `json:"primaryKey,omitempty"`
}

// handleCreateIndex is POST /indexes: enqueues an indexCreation task
// (§6 — async, 202).
func (s *Server) handleCreateIndex(c *mizu.Ctx) error {
	var req createIndexRequest
	if err := c.Bind(&req, 0); err != nil {
		return newAPIError(400, "bad_request", "invalid_request", err.Error())
	}
	if err := types.ValidateUID(req.UID); err != nil {
		return err
	}
	if !authorize(c, s.engine.Gate(), types.ActionIndexesCreate, req.UID) {
		return nil
	}

	var details map[string]any
	if req.PrimaryKey != "" {
		details = map[string]any{"primaryKey": req.PrimaryKey}
	}
	return s.enqueue(c, req.UID, types.TaskKindIndexCreation, details)
}

// handleGetIndex is GET /indexes/{uid}.
func (s *Server) handleGetIndex(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionIndexesGet, uid) {
		return nil
	}
	idx, err := s.engine.Index(uid)
	if err != nil {
		return err
	}
	meta, err := idx.Meta()
	if err != nil {
		return err
	}
	return c.JSON(200, toIndexResponse(meta))
}

// handleGetIndexStats is GET /indexes/{uid}/stats.
func (s *Server) handleGetIndexStats(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionIndexesGet, uid) {
		return nil
	}
	idx, err := s.engine.Index(uid)
	if err != nil {
		return err
	}
	meta, err := idx.Meta()
	if err != nil {
		return err
	}
	return c.JSON(200, indexStats{NumberOfDocuments: meta.NumberOfDocuments})
}

type updateIndexRequest struct {
	PrimaryKey string `json:"primaryKey"`
}

// handleUpdateIndex is PATCH /indexes/{uid}: enqueues an indexUpdate
// (primary key change) task.
func (s *Server) handleUpdateIndex(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionIndexesUpdate, uid) {
		return nil
	}
	var req updateIndexRequest
	if err := c.Bind(&req, 0); err != nil {
		return newAPIError(400, "bad_request", "invalid_request", err.Error())
	}
	if req.PrimaryKey == "" {
		return newAPIError(400, "bad_request", "invalid_request", "primaryKey is required")
	}
	return s.enqueue(c, uid, types.TaskKindIndexUpdate, map[string]any{"primaryKey": req.PrimaryKey})
}

// handleDeleteIndex is DELETE /indexes/{uid}: enqueues an indexDeletion
// task. The on-disk file is removed later by pkg/reconciler's
// grace-period sweep.
func (s *Server) handleDeleteIndex(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionIndexesDelete, uid) {
		return nil
	}
	return s.enqueue(c, uid, types.TaskKindIndexDeletion, nil)
}

type swapIndexesRequest struct {
	Indexes [2]string `json:"indexes"`
}

// handleSwapIndexes is POST /swap-indexes: enqueues an indexSwap task
// against the first of the pair, carrying the second as withUid.
func (s *Server) handleSwapIndexes(c *mizu.Ctx) error {
	var req swapIndexesRequest
	if err := c.Bind(&req, 0); err != nil {
		return newAPIError(400, "bad_request", "invalid_request", err.Error())
	}
	a, b := req.Indexes[0], req.Indexes[1]
	if a == "" || b == "" {
		return newAPIError(400, "bad_request", "invalid_request", "indexes must name exactly two uids")
	}
	gate := s.engine.Gate()
	if !authorize(c, gate, types.ActionIndexesSwap, a) {
		return nil
	}
	if !authorize(c, gate, types.ActionIndexesSwap, b) {
		return nil
	}
	return s.enqueue(c, a, types.TaskKindIndexSwap, map[string]any{"withUid": b})
}
