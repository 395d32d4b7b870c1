package auth

import (
	"strings"
	"time"

	"github.com/lexidb/lexidb/pkg/types"
)

// RejectionReason enumerates why the gate refused a request (§4.7). The
// wire layer (pkg/api) maps each to its HTTP status/error code.
type RejectionReason string

const (
	RejectionNone                       RejectionReason = ""
	RejectionMissingAuthorizationHeader RejectionReason = "missingAuthorizationHeader"
	RejectionAuthorizationHeader        RejectionReason = "authorizationHeader"
	RejectionInvalidToken               RejectionReason = "invalidToken"
	RejectionInvalidAPIKey              RejectionReason = "invalidApiKey"
	RejectionExpiredToken               RejectionReason = "expiredToken"
)

// Principal is what the gate resolves a request's bearer token to: a
// stored APIKey, optionally narrowed by a signed tenant token's embedded
// searchRules.
type Principal struct {
	Key         types.APIKey
	SearchRules map[string][]string
}

// Gate authenticates bearer tokens against Store and, when the token is
// a signed tenant token instead of a raw key, against Signer.
type Gate struct {
	store  *Store
	signer *Signer
}

// NewGate builds a Gate over store. signer may be nil if tenant tokens
// are not in use.
func NewGate(store *Store, signer *Signer) *Gate {
	return &Gate{store: store, signer: signer}
}

// Authenticate resolves the Authorization header value (the full
// "Bearer <token>" string) to a Principal, or a RejectionReason if it
// cannot.
func (g *Gate) Authenticate(authorizationHeader string) (Principal, RejectionReason) {
	if authorizationHeader == "" {
		return Principal{}, RejectionMissingAuthorizationHeader
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authorizationHeader, prefix) {
		return Principal{}, RejectionAuthorizationHeader
	}
	token := strings.TrimPrefix(authorizationHeader, prefix)
	if token == "" {
		return Principal{}, RejectionInvalidToken
	}

	if g.signer != nil {
		if tenant, err := g.signer.Parse(token); err == nil {
			key, found, err := g.store.Get(tenant.MasterUID)
			if err != nil || !found {
				return Principal{}, RejectionInvalidAPIKey
			}
			if key.Expired(time.Now()) {
				return Principal{}, RejectionExpiredToken
			}
			return Principal{Key: key, SearchRules: tenant.SearchRules}, RejectionNone
		}
	}

	key, found, err := g.store.FindByBearer(token)
	if err != nil || !found {
		return Principal{}, RejectionInvalidAPIKey
	}
	if key.Expired(time.Now()) {
		return Principal{}, RejectionExpiredToken
	}
	return Principal{Key: key}, RejectionNone
}

// Authorize reports whether p's key permits action against indexUID.
func (g *Gate) Authorize(p Principal, action types.Action, indexUID string) bool {
	return p.Key.Permits(action, indexUID)
}
