package indexing

import (
	"strconv"
	"testing"

	"github.com/lexidb/lexidb/pkg/index"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestIndex(t *testing.T) *index.Index {
	t.Helper()
	idx, err := index.Open(t.TempDir(), "movies")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func runOps(t *testing.T, idx *index.Index, ops []Operation) *Result {
	t.Helper()
	var res *Result
	require.NoError(t, idx.Update(func(tx *kv.WriteTx) error {
		var err error
		res, err = New(idx).Run(tx, ops)
		return err
	}))
	return res
}

func TestApplyAdditionsIndexesNewDocuments(t *testing.T) {
	idx := openTestIndex(t)

	res := runOps(t, idx, []Operation{{
		TaskUID: 1,
		Kind:    types.TaskKindDocumentAdditionOrUpdate,
		Documents: []types.Document{
			{"id": "1", "title": "The Social Network"},
			{"id": "2", "title": "The Matrix"},
		},
	}})

	require.Len(t, res.Outcomes, 1)
	assert.NoError(t, res.Outcomes[0].Err)
	assert.Equal(t, 2, res.Outcomes[0].DocumentsIndexed)

	require.NoError(t, idx.View(func(tx *kv.ReadTx) error {
		bm, err := index.WordDocids.Get(tx, index.WordKey("matrix"))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), bm.GetCardinality())

		meta, err := idx.MetaTx(tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), meta.NumberOfDocuments)
		return nil
	}))
}

func TestApplyAdditionsUpdateRemovesStaleTokens(t *testing.T) {
	idx := openTestIndex(t)

	runOps(t, idx, []Operation{{
		TaskUID:   1,
		Kind:      types.TaskKindDocumentAdditionOrUpdate,
		Documents: []types.Document{{"id": "1", "title": "The Social Network"}},
	}})

	runOps(t, idx, []Operation{{
		TaskUID:   2,
		Kind:      types.TaskKindDocumentAdditionOrUpdate,
		Documents: []types.Document{{"id": "1", "title": "The Matrix"}},
	}})

	require.NoError(t, idx.View(func(tx *kv.ReadTx) error {
		bm, err := index.WordDocids.Get(tx, index.WordKey("social"))
		require.NoError(t, err)
		assert.True(t, bm.IsEmpty())

		bm, err = index.WordDocids.Get(tx, index.WordKey("matrix"))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), bm.GetCardinality())

		meta, err := idx.MetaTx(tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), meta.NumberOfDocuments)
		return nil
	}))
}

func TestApplyAdditionsKeepsSharedTokenAcrossUpdate(t *testing.T) {
	idx := openTestIndex(t)

	runOps(t, idx, []Operation{{
		TaskUID:   1,
		Kind:      types.TaskKindDocumentAdditionOrUpdate,
		Documents: []types.Document{{"id": "1", "title": "The Matrix Reloaded"}},
	}})
	runOps(t, idx, []Operation{{
		TaskUID:   2,
		Kind:      types.TaskKindDocumentAdditionOrUpdate,
		Documents: []types.Document{{"id": "1", "title": "The Matrix Revolutions"}},
	}})

	require.NoError(t, idx.View(func(tx *kv.ReadTx) error {
		bm, err := index.WordDocids.Get(tx, index.WordKey("matrix"))
		require.NoError(t, err)
		assert.Equal(t, uint64(1), bm.GetCardinality(), "shared token must survive the update, not be dropped then re-added")
		return nil
	}))
}

func TestApplyDeletionsRemovesPostings(t *testing.T) {
	idx := openTestIndex(t)

	runOps(t, idx, []Operation{{
		TaskUID:   1,
		Kind:      types.TaskKindDocumentAdditionOrUpdate,
		Documents: []types.Document{{"id": "1", "title": "The Matrix"}},
	}})

	res := runOps(t, idx, []Operation{{
		TaskUID:   2,
		Kind:      types.TaskKindDocumentDeletion,
		DeleteIDs: []string{"1"},
	}})
	assert.Equal(t, 1, res.Outcomes[0].DocumentsDeleted)

	require.NoError(t, idx.View(func(tx *kv.ReadTx) error {
		bm, err := index.WordDocids.Get(tx, index.WordKey("matrix"))
		require.NoError(t, err)
		assert.True(t, bm.IsEmpty())

		meta, err := idx.MetaTx(tx)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), meta.NumberOfDocuments)
		return nil
	}))
}

func TestApplyAdditionsMalformedDocumentFailsWholeTask(t *testing.T) {
	idx := openTestIndex(t)

	res := runOps(t, idx, []Operation{{
		TaskUID: 1,
		Kind:    types.TaskKindDocumentAdditionOrUpdate,
		Documents: []types.Document{
			{"id": "1", "title": "The Matrix"},
			{"title": "no id field at all"},
		},
	}})

	require.Len(t, res.Outcomes, 1)
	assert.ErrorIs(t, res.Outcomes[0].Err, types.ErrPrimaryKeyMissing)
	assert.Equal(t, 0, res.Outcomes[0].DocumentsIndexed)

	require.NoError(t, idx.View(func(tx *kv.ReadTx) error {
		_, found, err := idx.GetDocument(tx, "1")
		require.NoError(t, err)
		assert.False(t, found, "no document in the failed task should have been written")
		return nil
	}))
}

func TestApplyAdditionsInfersAmbiguousPrimaryKeyFails(t *testing.T) {
	idx := openTestIndex(t)

	res := runOps(t, idx, []Operation{{
		TaskUID: 1,
		Kind:    types.TaskKindDocumentAdditionOrUpdate,
		Documents: []types.Document{
			{"movieId": "1", "directorId": "7", "title": "Ambiguous"},
		},
	}})

	assert.False(t, res.Outcomes[0].Err == nil)
}

func TestSettingsUpdateAppliesInsideBatch(t *testing.T) {
	idx := openTestIndex(t)

	s, err := idx.Settings()
	require.NoError(t, err)
	s.StopWords = []string{"the"}

	res := runOps(t, idx, []Operation{{
		TaskUID:  1,
		Kind:     types.TaskKindSettingsUpdate,
		Settings: s,
	}})
	require.NoError(t, res.Outcomes[0].Err)

	got, err := idx.Settings()
	require.NoError(t, err)
	assert.Equal(t, []string{"the"}, got.StopWords)
}

func TestPrefixMaterializationCrossesThreshold(t *testing.T) {
	idx := openTestIndex(t)

	docs := make([]types.Document, 0, prefixThreshold)
	for i := 0; i < prefixThreshold-1; i++ {
		s := strconv.Itoa(i)
		docs = append(docs, types.Document{"id": s, "title": "zebra" + s})
	}
	runOps(t, idx, []Operation{{TaskUID: 1, Kind: types.TaskKindDocumentAdditionOrUpdate, Documents: docs}})

	require.NoError(t, idx.View(func(tx *kv.ReadTx) error {
		bm, err := index.WordPrefixDocids.Get(tx, []byte("z"))
		require.NoError(t, err)
		assert.True(t, bm.IsEmpty(), "below threshold, prefix should not be materialized yet")
		return nil
	}))

	runOps(t, idx, []Operation{{
		TaskUID: 2,
		Kind:    types.TaskKindDocumentAdditionOrUpdate,
		Documents: []types.Document{
			{"id": strconv.Itoa(prefixThreshold), "title": "zebra" + strconv.Itoa(prefixThreshold)},
		},
	}})

	require.NoError(t, idx.View(func(tx *kv.ReadTx) error {
		bm, err := index.WordPrefixDocids.Get(tx, []byte("z"))
		require.NoError(t, err)
		assert.Equal(t, uint64(prefixThreshold), bm.GetCardinality())
		return nil
	}))
}
