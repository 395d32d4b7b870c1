package auth

import (
	"testing"
	"time"

	"github.com/lexidb/lexidb/pkg/types"
)

func TestGateAuthenticate(t *testing.T) {
	store := openTestStore(t)
	key, err := store.Create("default", "", []types.Action{types.ActionSearch}, []string{"movies"}, 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	expired, err := store.Create("expired", "", []types.Action{types.ActionSearch}, []string{"*"}, time.Nanosecond)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	time.Sleep(time.Millisecond)

	gate := NewGate(store, nil)

	tests := []struct {
		name    string
		header  string
		want    RejectionReason
	}{
		{name: "missing header", header: "", want: RejectionMissingAuthorizationHeader},
		{name: "not a bearer token", header: "Basic dXNlcjpwYXNz", want: RejectionAuthorizationHeader},
		{name: "empty bearer", header: "Bearer ", want: RejectionInvalidToken},
		{name: "unknown key", header: "Bearer not-a-real-secret", want: RejectionInvalidAPIKey},
		{name: "expired key", header: "Bearer " + expired.Key, want: RejectionExpiredToken},
		{name: "valid key", header: "Bearer " + key.Key, want: RejectionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, reason := gate.Authenticate(tt.header)
			if reason != tt.want {
				t.Errorf("Authenticate(%q) reason = %q, want %q", tt.header, reason, tt.want)
			}
		})
	}
}

func TestGateAuthenticateTenantToken(t *testing.T) {
	store := openTestStore(t)
	key, err := store.Create("default", "", []types.Action{types.ActionSearch}, []string{"*"}, 0)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	signer, err := DeriveFromPassword("master-signing-key")
	if err != nil {
		t.Fatalf("DeriveFromPassword() error = %v", err)
	}

	gate := NewGate(store, signer)

	rules := map[string][]string{"movies": {"genre = sci-fi"}}
	token, err := signer.Sign(key.UID, rules, nil)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	principal, reason := gate.Authenticate("Bearer " + token)
	if reason != RejectionNone {
		t.Fatalf("Authenticate() reason = %q, want none", reason)
	}
	if principal.Key.UID != key.UID {
		t.Errorf("Authenticate() resolved UID = %q, want %q", principal.Key.UID, key.UID)
	}
	if len(principal.SearchRules["movies"]) != 1 {
		t.Errorf("Authenticate() SearchRules = %v, want rules for movies", principal.SearchRules)
	}
}

func TestGateAuthorize(t *testing.T) {
	gate := NewGate(nil, nil)
	principal := Principal{Key: types.APIKey{Actions: []types.Action{types.ActionSearch}, Indexes: []string{"movies"}}}

	if !gate.Authorize(principal, types.ActionSearch, "movies") {
		t.Error("Authorize() should permit a granted action/index pair")
	}
	if gate.Authorize(principal, types.ActionDocumentsAdd, "movies") {
		t.Error("Authorize() should refuse an action the key does not grant")
	}
	if gate.Authorize(principal, types.ActionSearch, "books") {
		t.Error("Authorize() should refuse an index the key does not grant")
	}
}
