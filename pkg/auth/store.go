package auth

import (
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/lexidb/lexidb/pkg/kv"
	"github.com/lexidb/lexidb/pkg/types"
)

var bucketKeys = []byte("keys")

var allBuckets = [][]byte{bucketKeys}

// Store owns auth.db: the durable record of every APIKey issued, keyed
// by UID and persisted across restarts.
type Store struct {
	store *kv.Store
}

// Open opens (creating if needed) dataDir/auth.db.
func Open(dataDir string) (*Store, error) {
	store, err := kv.Open(filepath.Join(dataDir, "auth.db"), allBuckets)
	if err != nil {
		return nil, err
	}
	return &Store{store: store}, nil
}

// Close releases the environment.
func (s *Store) Close() error { return s.store.Close() }

// Create issues a new APIKey, assigning it a UID and a random bearer
// secret (crypto/rand, hex-encoded).
func (s *Store) Create(name, description string, actions []types.Action, indexes []string, ttl time.Duration) (types.APIKey, error) {
	now := time.Now()
	key := types.APIKey{
		UID:         uuid.New().String(),
		Name:        name,
		Description: description,
		Key:         generateSecret(),
		Actions:     actions,
		Indexes:     indexes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if ttl > 0 {
		expiresAt := now.Add(ttl)
		key.ExpiresAt = &expiresAt
	}
	if err := s.put(key); err != nil {
		return types.APIKey{}, err
	}
	return key, nil
}

// Get returns the key stored under uid.
func (s *Store) Get(uid string) (types.APIKey, bool, error) {
	var key types.APIKey
	var found bool
	err := s.store.View(func(tx *kv.ReadTx) error {
		data := tx.Bucket(bucketKeys).Get([]byte(uid))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &key)
	})
	return key, found, err
}

// List returns every issued key.
func (s *Store) List() ([]types.APIKey, error) {
	var out []types.APIKey
	err := s.store.View(func(tx *kv.ReadTx) error {
		tx.Bucket(bucketKeys).ForEach(func(k, v []byte) bool {
			var key types.APIKey
			if err := json.Unmarshal(v, &key); err != nil {
				return true
			}
			out = append(out, key)
			return true
		})
		return nil
	})
	return out, err
}

// FindByBearer scans for the key whose plaintext secret matches bearer.
// The key space is small enough (issued keys, not per-request tenant
// tokens) that a linear scan is fine; there is no secondary index.
func (s *Store) FindByBearer(bearer string) (types.APIKey, bool, error) {
	keys, err := s.List()
	if err != nil {
		return types.APIKey{}, false, err
	}
	for _, k := range keys {
		if k.Key == bearer {
			return k, true, nil
		}
	}
	return types.APIKey{}, false, nil
}

// Revoke deletes the key stored under uid.
func (s *Store) Revoke(uid string) error {
	return s.store.Update(func(tx *kv.WriteTx) error {
		return tx.Bucket(bucketKeys).Delete([]byte(uid))
	})
}

// CleanupExpired deletes every key whose expiry has passed. It runs only
// when called; no background loop, the reconciler included, calls it.
func (s *Store) CleanupExpired() (int, error) {
	keys, err := s.List()
	if err != nil {
		return 0, err
	}
	now := time.Now()
	removed := 0
	for _, k := range keys {
		if k.Expired(now) {
			if err := s.Revoke(k.UID); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}

func (s *Store) put(key types.APIKey) error {
	return s.store.Update(func(tx *kv.WriteTx) error {
		data, err := json.Marshal(key)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketKeys).Put([]byte(key.UID), data)
	})
}
