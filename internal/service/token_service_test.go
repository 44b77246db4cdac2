package service

import (
	"strings"
	"testing"
	"time"

	"user-mgmt/internal/domain"
)

func newTestTokenService(now time.Time) *TokenService {
	svc := NewTokenService("test-secret", 72*time.Hour)
	svc.now = func() time.Time { return now }
	return svc
}

func testUser() domain.User {
	return domain.User{
		ID:           "11111111-2222-3333-4444-555555555555",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Now().UTC(),
	}
}

func TestTokenService_IssueValidate(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestTokenService(now)
	user := testUser()

	token := svc.Issue(user)
	if token == "" {
		t.Fatalf("expected token")
	}
	if !svc.Validate(user, token) {
		t.Fatalf("expected token valid against same state")
	}
}

func TestTokenService_ValidWithinWindow(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestTokenService(now)
	user := testUser()
	token := svc.Issue(user)

	svc.now = func() time.Time { return now.Add(71 * time.Hour) }
	if !svc.Validate(user, token) {
		t.Fatalf("expected token valid inside expiry window")
	}
}

func TestTokenService_Expired(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestTokenService(now)
	user := testUser()
	token := svc.Issue(user)

	svc.now = func() time.Time { return now.Add(73 * time.Hour) }
	if svc.Validate(user, token) {
		t.Fatalf("expected token expired after window")
	}
}

func TestTokenService_StateChangeInvalidates(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestTokenService(now)
	user := testUser()
	token := svc.Issue(user)

	// La activacion cambia la huella: el token ya usado deja de reproducirse.
	user.IsActive = true
	user.IsEmailVerified = true
	if svc.Validate(user, token) {
		t.Fatalf("expected token invalid after account state changed")
	}
}

func TestTokenService_PasswordChangeInvalidates(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestTokenService(now)
	user := testUser()
	token := svc.Issue(user)

	user.PasswordHash = "$2a$10$otherhash"
	if svc.Validate(user, token) {
		t.Fatalf("expected token invalid after password changed")
	}
}

func TestTokenService_MalformedTokens(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestTokenService(now)
	user := testUser()

	for _, token := range []string{
		"",
		"no-separator-but-garbage",
		"-missingts",
		"missingsig-",
		"!!!-abc",
		strings.Repeat("z", 64),
	} {
		if svc.Validate(user, token) {
			t.Fatalf("expected token %q invalid", token)
		}
	}
}

func TestTokenService_WrongSecret(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestTokenService(now)
	other := NewTokenService("other-secret", 72*time.Hour)
	other.now = svc.now

	user := testUser()
	token := svc.Issue(user)
	if other.Validate(user, token) {
		t.Fatalf("expected token invalid under a different secret")
	}
}

func TestTokenService_FutureTimestampRejected(t *testing.T) {
	now := time.Now().UTC()
	svc := newTestTokenService(now.Add(time.Hour))
	user := testUser()
	token := svc.Issue(user)

	svc.now = func() time.Time { return now }
	if svc.Validate(user, token) {
		t.Fatalf("expected token with future timestamp rejected")
	}
}

func TestEncodeDecodeUID(t *testing.T) {
	id := "11111111-2222-3333-4444-555555555555"
	encoded := EncodeUID(id)
	if strings.ContainsAny(encoded, "+/=") {
		t.Fatalf("expected url-safe encoding, got %q", encoded)
	}
	decoded, err := DecodeUID(encoded)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded != id {
		t.Fatalf("round trip mismatch: got %q", decoded)
	}
}

func TestDecodeUID_Malformed(t *testing.T) {
	if _, err := DecodeUID("%%%not-base64%%%"); err == nil {
		t.Fatalf("expected decode error")
	}
}
