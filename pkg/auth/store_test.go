package auth

import (
	"testing"
	"time"

	"github.com/lexidb/lexidb/pkg/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreCreateAndGet(t *testing.T) {
	s := openTestStore(t)

	key, err := s.Create("default", "test key", []types.Action{types.ActionSearch}, []string{"*"}, 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if key.Key == "" {
		t.Error("Create() returned an empty bearer secret")
	}
	if key.ExpiresAt != nil {
		t.Error("Create() with zero ttl should not set an expiry")
	}

	got, found, err := s.Get(key.UID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !found {
		t.Fatal("Get() did not find the created key")
	}
	if got.Name != "default" {
		t.Errorf("Get() Name = %q, want %q", got.Name, "default")
	}
}

func TestStoreCreateWithTTL(t *testing.T) {
	s := openTestStore(t)

	key, err := s.Create("expiring", "", []types.Action{types.ActionAll}, []string{"*"}, time.Minute)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if key.ExpiresAt == nil {
		t.Fatal("Create() with a positive ttl should set an expiry")
	}
	if key.Expired(time.Now()) {
		t.Error("a freshly created key with a 1-minute ttl should not be expired yet")
	}
}

func TestStoreFindByBearer(t *testing.T) {
	s := openTestStore(t)

	key, err := s.Create("default", "", []types.Action{types.ActionSearch}, []string{"movies"}, 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	found, ok, err := s.FindByBearer(key.Key)
	if err != nil {
		t.Fatalf("FindByBearer() error = %v", err)
	}
	if !ok {
		t.Fatal("FindByBearer() did not find the issued key")
	}
	if found.UID != key.UID {
		t.Errorf("FindByBearer() UID = %q, want %q", found.UID, key.UID)
	}

	_, ok, err = s.FindByBearer("not-a-real-secret")
	if err != nil {
		t.Fatalf("FindByBearer() error = %v", err)
	}
	if ok {
		t.Error("FindByBearer() matched a bearer secret that was never issued")
	}
}

func TestStoreRevoke(t *testing.T) {
	s := openTestStore(t)

	key, err := s.Create("default", "", []types.Action{types.ActionAll}, []string{"*"}, 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := s.Revoke(key.UID); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	_, found, err := s.Get(key.UID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Get() found a revoked key")
	}
}

func TestStoreCleanupExpired(t *testing.T) {
	s := openTestStore(t)

	expired, err := s.Create("expired", "", []types.Action{types.ActionAll}, []string{"*"}, time.Nanosecond)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	live, err := s.Create("live", "", []types.Action{types.ActionAll}, []string{"*"}, time.Hour)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	time.Sleep(time.Millisecond)

	removed, err := s.CleanupExpired()
	if err != nil {
		t.Fatalf("CleanupExpired() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("CleanupExpired() removed %d keys, want 1", removed)
	}

	if _, found, _ := s.Get(expired.UID); found {
		t.Error("CleanupExpired() left an expired key in place")
	}
	if _, found, _ := s.Get(live.UID); !found {
		t.Error("CleanupExpired() removed a key that had not expired")
	}
}
