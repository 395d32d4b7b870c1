package auth

import (
	"testing"
	"time"
)

func TestNewSigner(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		wantErr bool
	}{
		{name: "valid 32-byte key", key: make([]byte, 32), wantErr: false},
		{name: "invalid short key", key: make([]byte, 16), wantErr: true},
		{name: "invalid long key", key: make([]byte, 64), wantErr: true},
		{name: "empty key", key: []byte{}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signer, err := NewSigner(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSigner() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && signer == nil {
				t.Error("NewSigner() returned nil without error")
			}
		})
	}
}

func TestSignerSignAndParse(t *testing.T) {
	signer, err := DeriveFromPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("DeriveFromPassword() error = %v", err)
	}

	rules := map[string][]string{"movies": {"genre = sci-fi"}}
	token, err := signer.Sign("master-uid", rules, nil)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	parsed, err := signer.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed.MasterUID != "master-uid" {
		t.Errorf("Parse() MasterUID = %q, want %q", parsed.MasterUID, "master-uid")
	}
	if len(parsed.SearchRules["movies"]) != 1 || parsed.SearchRules["movies"][0] != "genre = sci-fi" {
		t.Errorf("Parse() SearchRules = %v, want %v", parsed.SearchRules, rules)
	}
}

func TestSignerParseRejectsTamperedToken(t *testing.T) {
	signer, err := DeriveFromPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("DeriveFromPassword() error = %v", err)
	}

	token, err := signer.Sign("master-uid", nil, nil)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	tampered := token[:len(token)-1] + "x"
	if _, err := signer.Parse(tampered); err == nil {
		t.Error("Parse() accepted a tampered token")
	}
}

func TestSignerParseRejectsExpiredToken(t *testing.T) {
	signer, err := DeriveFromPassword("correct-horse-battery-staple")
	if err != nil {
		t.Fatalf("DeriveFromPassword() error = %v", err)
	}

	past := time.Now().Add(-time.Minute)
	token, err := signer.Sign("master-uid", nil, &past)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}

	if _, err := signer.Parse(token); err == nil {
		t.Error("Parse() accepted an expired token")
	}
}

func TestSignerParseRejectsWrongKey(t *testing.T) {
	a, err := DeriveFromPassword("password-a")
	if err != nil {
		t.Fatalf("DeriveFromPassword() error = %v", err)
	}
	b, err := DeriveFromPassword("password-b")
	if err != nil {
		t.Fatalf("DeriveFromPassword() error = %v", err)
	}

	token, err := a.Sign("master-uid", nil, nil)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if _, err := b.Parse(token); err == nil {
		t.Error("Parse() accepted a token signed with a different key")
	}
}
