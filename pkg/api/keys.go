package api

import (
	"time"

	"github.com/lexidb/lexidb/pkg/types"
	"github.com/go-mizu/mizu"
)

// handleListKeys is GET /keys (§6 — sync).
func (s *Server) handleListKeys(c *mizu.Ctx) error {
	if !authorize(c, s.engine.Gate(), types.ActionKeysGet, "*") {
		return nil
	}
	keys, err := s.engine.AuthStore().List()
	if err != nil {
		return err
	}
	return c.JSON(200, map[string]any{"results": keys, "total": len(keys)})
}

type createKeyRequest struct {
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Actions     []types.Action  `json:"actions"`
	Indexes     []string        `json:"indexes"`
	ExpiresAt   *time.Time      `json:"expiresAt,omitempty"`
}

// handleCreateKey is POST /keys (§6 — sync): key CRUD bypasses the task
// queue entirely, since it touches auth.db rather than an index or the
// document pipeline.
func (s *Server) handleCreateKey(c *mizu.Ctx) error {
	if !authorize(c, s.engine.Gate(), types.ActionKeysCreate, "*") {
		return nil
	}
	var req createKeyRequest
	if err := c.Bind(&req, 0); err != nil {
		return newAPIError(400, "bad_request", "invalid_request", err.Error())
	}
	if len(req.Actions) == 0 {
		return newAPIError(400, "bad_request", "invalid_request", "actions must not be empty")
	}
	if len(req.Indexes) == 0 {
		req.Indexes = []string{"*"}
	}

	var ttl time.Duration
	if req.ExpiresAt != nil {
		ttl = time.Until(*req.ExpiresAt)
		if ttl <= 0 {
			return newAPIError(400, "bad_request", "invalid_request", "expiresAt must be in the future")
		}
	}

	key, err := s.engine.AuthStore().Create(req.Name, req.Description, req.Actions, req.Indexes, ttl)
	if err != nil {
		return err
	}
	return c.JSON(201, key)
}

// handleGetKey is GET /keys/{uid}.
func (s *Server) handleGetKey(c *mizu.Ctx) error {
	if !authorize(c, s.engine.Gate(), types.ActionKeysGet, "*") {
		return nil
	}
	key, found, err := s.engine.AuthStore().Get(c.Param("uid"))
	if err != nil {
		return err
	}
	if !found {
		return types.ErrAPIKeyNotFound
	}
	return c.JSON(200, key)
}

// handleRevokeKey is DELETE /keys/{uid}.
func (s *Server) handleRevokeKey(c *mizu.Ctx) error {
	if !authorize(c, s.engine.Gate(), types.ActionKeysDelete, "*") {
		return nil
	}
	uid := c.Param("uid")
	if _, found, err := s.engine.AuthStore().Get(uid); err != nil {
		return err
	} else if !found {
		return types.ErrAPIKeyNotFound
	}
	if err := s.engine.AuthStore().Revoke(uid); err != nil {
		return err
	}
	return c.NoContent()
}
