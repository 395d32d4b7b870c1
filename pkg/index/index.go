package index

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

// Index owns one kv.Store (one bbolt environment) for a single index
// uid. Opened once per process, closed only on deleteIndex or shutdown.
type Index struct {
	UID   string
	store *kv.Store
}

// Open opens (creating if needed) the on-disk environment for uid under
// dataDir/indexes/{uid}.db, matching §6's persisted layout.
func Open(dataDir, uid string) (*Index, error) {
	if err := types.ValidateUID(uid); err != nil {
		return nil, err
	}
	path := filepath.Join(dataDir, "indexes", uid+".db")
	store, err := kv.Open(path, allBuckets)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", uid, err)
	}
	idx := &Index{UID: uid, store: store}

	if _, err := idx.meta(); err != nil {
		if err := idx.initMeta(); err != nil {
			store.Close()
			return nil, err
		}
	}
	return idx, nil
}

// Close releases the environment's resources. Safe to call once.
func (idx *Index) Close() error {
	return idx.store.Close()
}

// Path returns the on-disk file backing the index.
func (idx *Index) Path() string { return idx.store.Path() }

// Update opens one write transaction against the index's environment. The
// scheduler calls this once per batch, driving the whole indexing pipeline
// (or a single non-indexing action) inside fn so the commit is atomic
// (§4.3 phase 7, §5).
func (idx *Index) Update(fn func(tx *kv.WriteTx) error) error {
	return idx.store.Update(fn)
}

// View opens one read-only snapshot transaction, used by the search engine
// and by read-only API handlers.
func (idx *Index) View(fn func(tx *kv.ReadTx) error) error {
	return idx.store.View(fn)
}

func (idx *Index) initMeta() error {
	now := time.Now()
	m := types.IndexMeta{
		UID:         idx.UID,
		CreatedAt:   now,
		UpdatedAt:   now,
		FieldIDs:    map[string]uint16{},
		NextFieldID: 0,
	}
	s := types.DefaultSettings()
	return idx.store.Update(func(tx *kv.WriteTx) error {
		if err := putJSON(tx.Bucket(bucketMeta), metaKey, m); err != nil {
			return err
		}
		return putJSON(tx.Bucket(bucketSettings), settingsKey, s)
	})
}

func (idx *Index) meta() (types.IndexMeta, error) {
	var m types.IndexMeta
	err := idx.store.View(func(tx *kv.ReadTx) error {
		var err error
		m, err = idx.MetaTx(tx)
		return err
	})
	return m, err
}

// Meta returns a copy of the index's durable header record.
func (idx *Index) Meta() (types.IndexMeta, error) {
	return idx.meta()
}

// MetaTx reads the meta record using an already-open transaction.
func (idx *Index) MetaTx(tx *kv.ReadTx) (types.IndexMeta, error) {
	var m types.IndexMeta
	err := getJSON(tx.Bucket(bucketMeta), metaKey, &m)
	return m, err
}

// Settings returns the index's current settings record (§4.2 Settings).
func (idx *Index) Settings() (types.Settings, error) {
	var s types.Settings
	err := idx.store.View(func(tx *kv.ReadTx) error {
		var err error
		s, err = idx.SettingsTx(tx)
		return err
	})
	return s, err
}

// SettingsTx reads the settings record using an already-open transaction,
// for callers (pkg/indexing) that must not nest a second bbolt transaction.
func (idx *Index) SettingsTx(tx *kv.ReadTx) (types.Settings, error) {
	var s types.Settings
	err := getJSON(tx.Bucket(bucketSettings), settingsKey, &s)
	return s, err
}

// UpdateSettings replaces the index's settings record in its own
// transaction. Exposed here at design level as described in §4.2.
func (idx *Index) UpdateSettings(s types.Settings) error {
	return idx.store.Update(func(tx *kv.WriteTx) error {
		return idx.UpdateSettingsTx(tx, s)
	})
}

// UpdateSettingsTx replaces the settings record using an already-open
// transaction. pkg/indexing's settingsUpdate task handler calls this so the
// change commits atomically with the rest of its batch.
func (idx *Index) UpdateSettingsTx(tx *kv.WriteTx, s types.Settings) error {
	return putJSON(tx.Bucket(bucketSettings), settingsKey, s)
}

// FieldID resolves path to its assigned field id inside tx, assigning a
// new one (and persisting the updated meta record) if path has not been
// seen before. Field ids are never reused once assigned (§3).
func (idx *Index) FieldID(tx *kv.WriteTx, path string) (types.FieldID, error) {
	var m types.IndexMeta
	if err := getJSON(tx.Bucket(bucketMeta), metaKey, &m); err != nil {
		return 0, err
	}
	if id, ok := m.FieldIDs[path]; ok {
		return id, nil
	}
	id := m.NextFieldID
	if m.FieldIDs == nil {
		m.FieldIDs = map[string]uint16{}
	}
	m.FieldIDs[path] = id
	m.NextFieldID++
	if err := putJSON(tx.Bucket(bucketMeta), metaKey, m); err != nil {
		return 0, err
	}
	return id, nil
}

// FieldIDIfExists resolves path to its assigned field id without assigning
// a new one, for read-only callers (pkg/search) that must not mutate meta
// inside a snapshot transaction.
func (idx *Index) FieldIDIfExists(tx *kv.ReadTx, path string) (types.FieldID, bool) {
	m, err := idx.MetaTx(tx)
	if err != nil {
		return 0, false
	}
	id, ok := m.FieldIDs[path]
	return id, ok
}

// SetPrimaryKeyIfUnset records key as the index's primary key field if none
// has been set yet (§4.3 phase 1 infers it from the first document added to
// an index with no configured primary key).
func (idx *Index) SetPrimaryKeyIfUnset(tx *kv.WriteTx, key string) error {
	var m types.IndexMeta
	if err := getJSON(tx.Bucket(bucketMeta), metaKey, &m); err != nil {
		return err
	}
	if m.PrimaryKey != "" {
		return nil
	}
	m.PrimaryKey = key
	m.UpdatedAt = time.Now()
	return putJSON(tx.Bucket(bucketMeta), metaKey, m)
}

// SetPrimaryKey unconditionally overwrites the index's primary key,
// for an explicit indexUpdate task (§4.6). Unlike SetPrimaryKeyIfUnset
// this never refuses: the caller (pkg/scheduler) is responsible for
// only allowing the change while the index holds no documents, since
// changing it afterward orphans every existing external-id mapping.
func (idx *Index) SetPrimaryKey(tx *kv.WriteTx, key string) error {
	var m types.IndexMeta
	if err := getJSON(tx.Bucket(bucketMeta), metaKey, &m); err != nil {
		return err
	}
	m.PrimaryKey = key
	m.UpdatedAt = time.Now()
	return putJSON(tx.Bucket(bucketMeta), metaKey, m)
}

// AdjustDocumentCount adds delta (positive or negative) to the index's
// stored document count, used by pkg/indexing after phase 5 folds document
// additions and deletions.
func (idx *Index) AdjustDocumentCount(tx *kv.WriteTx, delta int64) error {
	var m types.IndexMeta
	if err := getJSON(tx.Bucket(bucketMeta), metaKey, &m); err != nil {
		return err
	}
	if delta < 0 && uint64(-delta) > m.NumberOfDocuments {
		m.NumberOfDocuments = 0
	} else {
		m.NumberOfDocuments = uint64(int64(m.NumberOfDocuments) + delta)
	}
	m.UpdatedAt = time.Now()
	return putJSON(tx.Bucket(bucketMeta), metaKey, m)
}

func putJSON(b *kv.WriteBucket, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(key, data)
}

func getJSON(b *kv.ReadBucket, key []byte, v any) error {
	data := b.Get(key)
	if data == nil {
		return fmt.Errorf("index: key %q not found", key)
	}
	return json.Unmarshal(data, v)
}
