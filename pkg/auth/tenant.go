package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// tenantPayload is the unsigned body of a tenant token: a pointer back
// at the master key it was derived from, plus the per-index filters
// that get appended transparently to every search it authorizes (§4.7).
type tenantPayload struct {
	MasterUID   string              `json:"masterUid"`
	SearchRules map[string][]string `json:"searchRules,omitempty"`
	ExpiresAt   *time.Time          `json:"expiresAt,omitempty"`
}

// TenantToken is a decoded, signature-verified tenant token.
type TenantToken struct {
	MasterUID   string
	SearchRules map[string][]string
	ExpiresAt   *time.Time
}

// Signer derives and verifies tenant tokens from a 32-byte signing key
// via HMAC-SHA256 signing of a payload that must stay parseable
// without a storage round trip: the content isn't secret, it just
// must not be forgeable.
type Signer struct {
	key []byte
}

// NewSigner returns a Signer over key, which must be 32 bytes.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("auth: signing key must be 32 bytes, got %d", len(key))
	}
	return &Signer{key: key}, nil
}

// DeriveFromPassword derives a Signer's key from a password via SHA-256.
func DeriveFromPassword(password string) (*Signer, error) {
	if password == "" {
		return nil, fmt.Errorf("auth: password cannot be empty")
	}
	hash := sha256.Sum256([]byte(password))
	return NewSigner(hash[:])
}

// Sign produces a tenant token derived from masterUID, embedding
// searchRules and an optional expiresAt.
func (s *Signer) Sign(masterUID string, searchRules map[string][]string, expiresAt *time.Time) (string, error) {
	payload := tenantPayload{MasterUID: masterUID, SearchRules: searchRules, ExpiresAt: expiresAt}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sig := s.sign(body)
	return base64.RawURLEncoding.EncodeToString(body) + "." + base64.RawURLEncoding.EncodeToString(sig), nil
}

// Parse verifies token's signature and decodes its payload. A tampered
// or expired token is rejected.
func (s *Signer) Parse(token string) (TenantToken, error) {
	bodyB64, sigB64, ok := splitToken(token)
	if !ok {
		return TenantToken{}, fmt.Errorf("auth: malformed tenant token")
	}
	body, err := base64.RawURLEncoding.DecodeString(bodyB64)
	if err != nil {
		return TenantToken{}, fmt.Errorf("auth: malformed tenant token body")
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil {
		return TenantToken{}, fmt.Errorf("auth: malformed tenant token signature")
	}
	if !hmac.Equal(sig, s.sign(body)) {
		return TenantToken{}, fmt.Errorf("auth: invalid tenant token signature")
	}

	var payload tenantPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return TenantToken{}, fmt.Errorf("auth: malformed tenant token payload")
	}
	if payload.ExpiresAt != nil && time.Now().After(*payload.ExpiresAt) {
		return TenantToken{}, fmt.Errorf("auth: tenant token expired")
	}
	return TenantToken{MasterUID: payload.MasterUID, SearchRules: payload.SearchRules, ExpiresAt: payload.ExpiresAt}, nil
}

func (s *Signer) sign(body []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(body)
	return mac.Sum(nil)
}

func splitToken(token string) (body, sig string, ok bool) {
	for i := len(token) - 1; i >= 0; i-- {
		if token[i] == '.' {
			return token[:i], token[i+1:], true
		}
	}
	return "", "", false
}
