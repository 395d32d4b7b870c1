package api

import (
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/go-mizu/mizu"
)

// handleGetSettings is GET /indexes/{uid}/settings (§6 — sync):
// types.Settings already carries the camelCase JSON tags the wire
// contract needs, so it is returned as-is.
func (s *Server) handleGetSettings(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionSettingsGet, uid) {
		return nil
	}
	idx, err := s.engine.Index(uid)
	if err != nil {
		return err
	}
	settings, err := idx.Settings()
	if err != nil {
		return err
	}
	return c.JSON(200, settings)
}

// handleUpdateSettings is PATCH /indexes/{uid}/settings (§6 — async):
// merges the request body onto the index's current settings, then
// enqueues a settingsUpdate task so the flip is applied under the
// scheduler's single-writer discipline (a proximityPrecision change
// forces a full reindex per §9, which only the scheduler may trigger).
func (s *Server) handleUpdateSettings(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionSettingsUpdate, uid) {
		return nil
	}
	idx, err := s.engine.Index(uid)
	if err != nil {
		return err
	}
	current, err := idx.Settings()
	if err != nil {
		return err
	}

	merged := current.Clone()
	if err := c.Bind(&merged, 0); err != nil {
		return newAPIError(400, "bad_request", "invalid_request", err.Error())
	}
	return s.enqueue(c, uid, types.TaskKindSettingsUpdate, map[string]any{"settings": merged})
}

// handleResetSettings is DELETE /indexes/{uid}/settings (§6 — async):
// restores defaults via the same settingsUpdate task kind.
func (s *Server) handleResetSettings(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionSettingsUpdate, uid) {
		return nil
	}
	return s.enqueue(c, uid, types.TaskKindSettingsUpdate, map[string]any{"settings": types.DefaultSettings()})
}
