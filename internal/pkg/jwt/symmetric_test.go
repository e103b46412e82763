package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/authgate/authgate/internal/pkg/clock"
	"github.com/authgate/authgate/internal/pkg/uid"
)

func newTestJWT(t *testing.T, now time.Time) *Symmetric {
	t.Helper()

	s, err := NewHS512(Config{
		Secret:     []byte(strings.Repeat("s", 64)),
		Issuer:     "authgate-test",
		Audiences:  []string{"authgate"},
		SessionTTL: 24 * time.Hour,
		PreAuthTTL: 5 * time.Minute,
		Clock:      clock.Static{T: now},
		UUID:       uid.NewUUID(),
	})
	if err != nil {
		t.Fatalf("new hs512: %v", err)
	}

	return s
}

func TestNewHS512RejectsShortSecret(t *testing.T) {
	_, err := NewHS512(Config{Secret: []byte("too-short")})
	if !errors.Is(err, ErrSigningKeyTooShort) {
		t.Fatalf("expected ErrSigningKeyTooShort, got %v", err)
	}
}

func TestGenerateAndVerifySession(t *testing.T) {
	now := time.Now()
	s := newTestJWT(t, now)

	tokenStr, err := s.Generate(42, "a@x.com", PurposeSession)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := s.Verify(tokenStr, PurposeSession)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.UserID != 42 {
		t.Fatalf("expected user id 42, got %d", claims.UserID)
	}
	if claims.UserEmail != "a@x.com" {
		t.Fatalf("expected email a@x.com, got %q", claims.UserEmail)
	}
	if claims.Subject != "42" {
		t.Fatalf("expected subject 42, got %q", claims.Subject)
	}
}

func TestVerifyRejectsWrongPurpose(t *testing.T) {
	s := newTestJWT(t, time.Now())

	tokenStr, err := s.Generate(7, "b@x.com", PurposePending2FA)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := s.Verify(tokenStr, PurposeSession); !errors.Is(err, ErrWrongPurpose) {
		t.Fatalf("expected ErrWrongPurpose, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	// Issue in the past so the pre-auth TTL has already lapsed.
	issuedAt := time.Now().Add(-10 * time.Minute)
	s := newTestJWT(t, issuedAt)

	tokenStr, err := s.Generate(7, "b@x.com", PurposePending2FA)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := s.Verify(tokenStr, PurposePending2FA); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestGenerateRejectsUnknownPurpose(t *testing.T) {
	s := newTestJWT(t, time.Now())

	if _, err := s.Generate(7, "b@x.com", Purpose("refresh")); !errors.Is(err, ErrUnknownPurpose) {
		t.Fatalf("expected ErrUnknownPurpose, got %v", err)
	}
}
