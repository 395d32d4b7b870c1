package api

import (
	"strings"

	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/go-mizu/mizu"
)

// handleListDocuments is GET /indexes/{uid}/documents: paginates the
// document store directly, ordered by InternalDocID ascending (§9
// tie-break order).
func (s *Server) handleListDocuments(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionDocumentsGet, uid) {
		return nil
	}
	idx, err := s.engine.Index(uid)
	if err != nil {
		return err
	}

	offset := intQuery(c, "offset", 0)
	limit := intQuery(c, "limit", 20)

	var results []types.Document
	var total int
	err = idx.View(func(tx *kv.ReadTx) error {
		ids, err := idx.AllDocumentIDs(tx)
		if err != nil {
			return err
		}
		all := ids.ToArray()
		total = len(all)
		for i, id := range all {
			if i < offset {
				continue
			}
			if limit > 0 && len(results) >= limit {
				break
			}
			doc, found, err := idx.DocumentByInternalID(tx, id)
			if err != nil {
				return err
			}
			if found {
				results = append(results, doc)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return c.JSON(200, map[string]any{"results": results, "offset": offset, "limit": limit, "total": total})
}

// handleGetDocument is GET /indexes/{uid}/documents/{id}.
func (s *Server) handleGetDocument(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionDocumentsGet, uid) {
		return nil
	}
	idx, err := s.engine.Index(uid)
	if err != nil {
		return err
	}

	var doc types.Document
	var found bool
	err = idx.View(func(tx *kv.ReadTx) error {
		var err error
		doc, found, err = idx.GetDocument(tx, c.Param("id"))
		return err
	})
	if err != nil {
		return err
	}
	if !found {
		return types.ErrDocumentNotFound
	}
	return c.JSON(200, doc)
}

// handleAddDocuments is POST /indexes/{uid}/documents: enqueues a
// documentAdditionOrUpdate task. Each document replaces the stored
// document sharing its primary key as a whole; fields missing from the
// new body are not carried over.
func (s *Server) handleAddDocuments(c *mizu.Ctx) error {
	return s.enqueueDocuments(c, types.ActionDocumentsAdd)
}

// handleReplaceDocuments is PUT /indexes/{uid}/documents: enqueues the
// same task, with the same payload, as POST; the two verbs behave
// identically.
func (s *Server) handleReplaceDocuments(c *mizu.Ctx) error {
	return s.enqueueDocuments(c, types.ActionDocumentsAdd)
}

func (s *Server) enqueueDocuments(c *mizu.Ctx, action types.Action) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), action, uid) {
		return nil
	}

	var docs []types.Document
	if err := c.Bind(&docs, 0); err != nil {
		return newAPIError(400, "bad_request", "invalid_request", err.Error())
	}
	if len(docs) == 0 {
		return newAPIError(400, "bad_request", "invalid_request", "no documents in request body")
	}
	return s.enqueue(c, uid, types.TaskKindDocumentAdditionOrUpdate, map[string]any{"documents": docs})
}

type deleteBatchRequest struct {
	IDs    []string `json:"ids,omitempty"`
	Filter string   `json:"filter,omitempty"`
}

// handleDeleteDocument is DELETE /indexes/{uid}/documents/{id}.
func (s *Server) handleDeleteDocument(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionDocumentsDelete, uid) {
		return nil
	}
	return s.enqueue(c, uid, types.TaskKindDocumentDeletion, map[string]any{"ids": []string{c.Param("id")}})
}

// handleDeleteAllDocuments is DELETE /indexes/{uid}/documents: resolves
// every external id currently in the index and enqueues a single
// documentDeletion task against them. documentDeletionByFilter requires
// a non-empty expression (§4.3 — an empty filter means "no filter" and
// would make "delete everything" indistinguishable from a malformed
// request), so a full wipe goes through the explicit-id kind instead.
func (s *Server) handleDeleteAllDocuments(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionDocumentsDelete, uid) {
		return nil
	}
	idx, err := s.engine.Index(uid)
	if err != nil {
		return err
	}

	var ids []string
	err = idx.View(func(tx *kv.ReadTx) error {
		all, err := idx.AllDocumentIDs(tx)
		if err != nil {
			return err
		}
		for _, internalID := range all.ToArray() {
			if ext, ok := idx.ExternalID(tx, internalID); ok {
				ids = append(ids, ext)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return s.enqueue(c, uid, types.TaskKindDocumentDeletion, map[string]any{"ids": ids})
}

// handleDeleteDocumentsBatch is POST /indexes/{uid}/documents/delete-batch:
// a list of ids or a filter expression, not both.
func (s *Server) handleDeleteDocumentsBatch(c *mizu.Ctx) error {
	uid := c.Param("uid")
	if !authorize(c, s.engine.Gate(), types.ActionDocumentsDelete, uid) {
		return nil
	}

	var req deleteBatchRequest
	if err := c.Bind(&req, 0); err != nil {
		return newAPIError(400, "bad_request", "invalid_request", err.Error())
	}

	switch {
	case len(req.IDs) > 0 && strings.TrimSpace(req.Filter) != "":
		return newAPIError(400, "bad_request", "invalid_request", "specify either ids or filter, not both")
	case len(req.IDs) > 0:
		return s.enqueue(c, uid, types.TaskKindDocumentDeletion, map[string]any{"ids": req.IDs})
	case strings.TrimSpace(req.Filter) != "":
		return s.enqueue(c, uid, types.TaskKindDocumentDeletionByFilter, map[string]any{"filter": req.Filter})
	default:
		return newAPIError(400, "bad_request", "invalid_request", "request body must set ids or filter")
	}
}
