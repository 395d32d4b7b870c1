package index

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/goccy/go-json"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

// ResolveInternalID returns the InternalDocID externalID currently maps
// to, if any. The external<->internal map is the bijection §3 requires.
func (idx *Index) ResolveInternalID(tx *kv.ReadTx, externalID string) (types.InternalDocID, bool) {
	v := tx.Bucket(bucketExtToInt).Get([]byte(externalID))
	if v == nil {
		return 0, false
	}
	return kv.Uint32BigEndian(v), true
}

// AssignInternalID returns externalID's existing InternalDocID, or
// allocates a fresh one (monotonic, never reused while the mapping for
// the old holder still exists) and records both directions of the map.
func (idx *Index) AssignInternalID(tx *kv.WriteTx, externalID string) (types.InternalDocID, error) {
	extBucket := tx.Bucket(bucketExtToInt)
	if v := extBucket.Get([]byte(externalID)); v != nil {
		return kv.Uint32BigEndian(v), nil
	}
	seq, err := tx.Bucket(bucketDocs).NextSequence()
	if err != nil {
		return 0, err
	}
	id := types.InternalDocID(seq)
	idKey := kv.BigEndianUint32(id)
	if err := extBucket.Put([]byte(externalID), idKey); err != nil {
		return 0, err
	}
	if err := tx.Bucket(bucketIntToExt).Put(idKey, []byte(externalID)); err != nil {
		return 0, err
	}
	return id, nil
}

// PutDocument stores doc's obkv-encoded body under internalID, replacing
// any prior body. The caller (pkg/indexing, phase 5) is responsible for
// having already diffed and folded posting-list deltas.
func (idx *Index) PutDocument(tx *kv.WriteTx, id types.InternalDocID, doc types.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketDocs).Put(kv.BigEndianUint32(id), data)
}

// GetDocument returns the document currently stored for externalID.
func (idx *Index) GetDocument(tx *kv.ReadTx, externalID string) (types.Document, bool, error) {
	id, ok := idx.ResolveInternalID(tx, externalID)
	if !ok {
		return nil, false, nil
	}
	return idx.getDocumentByID(tx, id)
}

// DocumentByInternalID returns the document body stored for id directly,
// for callers (pkg/search) that already hold InternalDocIDs from a
// posting bitmap and would otherwise have to round-trip through the
// external id to reuse GetDocument.
func (idx *Index) DocumentByInternalID(tx *kv.ReadTx, id types.InternalDocID) (types.Document, bool, error) {
	return idx.getDocumentByID(tx, id)
}

func (idx *Index) getDocumentByID(tx *kv.ReadTx, id types.InternalDocID) (types.Document, bool, error) {
	data := tx.Bucket(bucketDocs).Get(kv.BigEndianUint32(id))
	if data == nil {
		return nil, false, nil
	}
	var doc types.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// AllDocumentIDs returns the bitmap of every live InternalDocID, used by
// pkg/search as the universe against which NOT/!= filters and empty
// queries are evaluated.
func (idx *Index) AllDocumentIDs(tx *kv.ReadTx) (*roaring.Bitmap, error) {
	bm := roaring.New()
	tx.Bucket(bucketIntToExt).ForEach(func(k, v []byte) bool {
		bm.Add(kv.Uint32BigEndian(k))
		return true
	})
	return bm, nil
}

// ExternalID returns the external id a live internal id maps back to.
func (idx *Index) ExternalID(tx *kv.ReadTx, id types.InternalDocID) (string, bool) {
	v := tx.Bucket(bucketIntToExt).Get(kv.BigEndianUint32(id))
	if v == nil {
		return "", false
	}
	return string(v), true
}

// PurgeDocument removes externalID's document body and both directions
// of its id mapping. The freed internalID never reappears in any posting
// list once the caller (pkg/indexing) has folded the corresponding
// "remove" deltas.
func (idx *Index) PurgeDocument(tx *kv.WriteTx, externalID string) (types.InternalDocID, bool, error) {
	id, ok := idx.ResolveInternalID(&tx.ReadTx, externalID)
	if !ok {
		return 0, false, nil
	}
	idKey := kv.BigEndianUint32(id)
	if err := tx.Bucket(bucketDocs).Delete(idKey); err != nil {
		return 0, false, err
	}
	if err := tx.Bucket(bucketExtToInt).Delete([]byte(externalID)); err != nil {
		return 0, false, err
	}
	if err := tx.Bucket(bucketIntToExt).Delete(idKey); err != nil {
		return 0, false, err
	}
	return id, true, nil
}
