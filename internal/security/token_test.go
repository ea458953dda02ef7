package security

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newTestSigner(t *testing.T) *TokenSigner {
	t.Helper()
	s, err := NewTokenSigner([]byte("test-token-key"), 0)
	if err != nil {
		t.Fatalf("NewTokenSigner error = %v", err)
	}
	return s
}

func TestNewTokenSigner_EmptyKey_ReturnsError(t *testing.T) {
	if _, err := NewTokenSigner(nil, time.Hour); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestNewTokenSigner_DefaultTTL(t *testing.T) {
	s := newTestSigner(t)
	if s.ttl != DefaultTokenTTL {
		t.Errorf("ttl = %v, want %v", s.ttl, DefaultTokenTTL)
	}
}

func TestTokenSigner_SignVerify_ReturnsPayload(t *testing.T) {
	s := newTestSigner(t)

	token, err := s.Sign(map[string]any{"order": "CG123", "scope": "share"})
	if err != nil {
		t.Fatalf("Sign error = %v", err)
	}

	payload, ok := s.Verify(token)
	if !ok {
		t.Fatal("Verify returned false for a freshly signed token")
	}
	if payload["order"] != "CG123" {
		t.Errorf("order = %v, want CG123", payload["order"])
	}
	if payload["scope"] != "share" {
		t.Errorf("scope = %v, want share", payload["scope"])
	}
	if _, exists := payload["exp"]; exists {
		t.Error("exp should not be exposed in payload")
	}
}

func TestTokenSigner_Sign_DoesNotMutateInput(t *testing.T) {
	s := newTestSigner(t)
	in := map[string]any{"k": "v"}

	if _, err := s.Sign(in); err != nil {
		t.Fatalf("Sign error = %v", err)
	}
	if len(in) != 1 {
		t.Errorf("input payload mutated: %v", in)
	}
}

func TestTokenSigner_Verify_Expired_ReturnsFalse(t *testing.T) {
	s := newTestSigner(t)
	issued := time.Now().Add(-8 * 24 * time.Hour)
	s.now = func() time.Time { return issued }

	token, err := s.Sign(map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("Sign error = %v", err)
	}

	s.now = time.Now
	if _, ok := s.Verify(token); ok {
		t.Error("Verify should reject a token older than the default 7 day expiry")
	}
}

func TestTokenSigner_Verify_WrongKey_ReturnsFalse(t *testing.T) {
	s := newTestSigner(t)
	other, err := NewTokenSigner([]byte("other-key"), 0)
	if err != nil {
		t.Fatalf("NewTokenSigner error = %v", err)
	}

	token, err := other.Sign(map[string]any{"k": "v"})
	if err != nil {
		t.Fatalf("Sign error = %v", err)
	}

	if _, ok := s.Verify(token); ok {
		t.Error("Verify should reject a token signed with another key")
	}
}

func TestTokenSigner_Verify_Malformed_ReturnsFalse(t *testing.T) {
	s := newTestSigner(t)

	for _, token := range []string{"", "abc", "a.b.c", strings.Repeat("x", 500)} {
		if payload, ok := s.Verify(token); ok || payload != nil {
			t.Errorf("Verify(%q) = (%v, %v), want (nil, false)", token, payload, ok)
		}
	}
}

func TestTokenSigner_Verify_TamperedPayload_ReturnsFalse(t *testing.T) {
	s := newTestSigner(t)

	token, err := s.Sign(map[string]any{"role": "CUSTOMER"})
	if err != nil {
		t.Fatalf("Sign error = %v", err)
	}

	parts := strings.Split(token, ".")
	body := []byte(parts[1])
	if body[0] == 'A' {
		body[0] = 'B'
	} else {
		body[0] = 'A'
	}
	tampered := parts[0] + "." + string(body) + "." + parts[2]

	if _, ok := s.Verify(tampered); ok {
		t.Error("Verify should reject a token with a modified payload")
	}
}

func TestTokenSigner_SignWithTTL_InvalidTTL_ReturnsError(t *testing.T) {
	s := newTestSigner(t)
	if _, err := s.SignWithTTL(map[string]any{}, 0); err == nil {
		t.Fatal("expected error for zero ttl")
	}
}

func TestTokenSigner_Sign_DropsRegisteredClaims(t *testing.T) {
	s := newTestSigner(t)

	token, err := s.Sign(map[string]any{
		"sub":   "victim-user",
		"jti":   "forged-id",
		"iss":   "chefgo",
		"aud":   "chefgo-session",
		"order": "CG123",
	})
	if err != nil {
		t.Fatalf("Sign error = %v", err)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		t.Fatalf("ParseUnverified error = %v", err)
	}
	for _, k := range []string{"sub", "jti", "iss"} {
		if _, exists := claims[k]; exists {
			t.Errorf("claim %q should not be signed, got %v", k, claims[k])
		}
	}
	if claims["aud"] != TokenAudience {
		t.Errorf("aud = %v, want %q", claims["aud"], TokenAudience)
	}

	payload, ok := s.Verify(token)
	if !ok {
		t.Fatal("Verify returned false")
	}
	if payload["order"] != "CG123" {
		t.Errorf("order = %v, want CG123", payload["order"])
	}
	if _, exists := payload["aud"]; exists {
		t.Error("aud should not be exposed in payload")
	}
}

func TestTokenSigner_Verify_WrongAudience_ReturnsFalse(t *testing.T) {
	s := newTestSigner(t)

	now := time.Now()
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"aud": "chefgo-session",
		"sub": "u1",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	}).SignedString(s.key)
	if err != nil {
		t.Fatalf("SignedString error = %v", err)
	}

	if _, ok := s.Verify(foreign); ok {
		t.Error("Verify should reject a token issued for another audience")
	}
}

func TestTokenSigner_Verify_AnyBitFlip_ReturnsFalse(t *testing.T) {
	s := newTestSigner(t)

	token, err := s.Sign(map[string]any{"order": "CG123"})
	if err != nil {
		t.Fatalf("Sign error = %v", err)
	}

	for i := range len(token) {
		for bit := range 8 {
			b := []byte(token)
			b[i] ^= 1 << bit
			if _, ok := s.Verify(string(b)); ok {
				t.Fatalf("Verify accepted token with bit %d of byte %d flipped", bit, i)
			}
		}
	}
}
