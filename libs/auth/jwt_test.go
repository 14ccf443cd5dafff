package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHS256RoundTrip(t *testing.T) {
	claims := NewClaims("host-1", RoleStaff, time.Now(), time.Hour)
	secret := "test-secret"

	token, err := SignHS256(claims, secret)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parsed, err := ParseAndVerifyHS256(token, secret)
	if err != nil {
		t.Fatalf("ParseAndVerifyHS256 failed: %v", err)
	}
	if parsed.Subject != claims.Subject || parsed.Role != claims.Role {
		t.Fatalf("claims mismatch: got %+v", parsed)
	}
	if _, err := ParseAndVerifyHS256(token, "wrong-secret"); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	issued := time.Date(2030, 1, 1, 10, 0, 0, 0, time.UTC)
	token, err := SignHS256(NewClaims("host-1", RoleAdmin, issued, time.Minute), "s")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := parseAndVerify(token, "s", issued.Add(30*time.Second)); err != nil {
		t.Fatalf("expected token valid before expiry: %v", err)
	}
	if _, err := parseAndVerify(token, "s", issued.Add(2*time.Minute)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestTamperedPayloadRejected(t *testing.T) {
	token, err := SignHS256(NewClaims("host-1", RoleStaff, time.Now(), time.Hour), "s")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	forged, err := SignHS256(NewClaims("host-1", RoleAdmin, time.Now(), time.Hour), "other")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	parts := strings.Split(token, ".")
	forgedParts := strings.Split(forged, ".")
	mixed := parts[0] + "." + forgedParts[1] + "." + parts[2]
	if _, err := ParseAndVerifyHS256(mixed, "s"); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestRejectsNoneAlgorithmAndUnknownRole(t *testing.T) {
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, NewClaims("host-1", RoleAdmin, time.Now(), time.Hour)).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := ParseAndVerifyHS256(unsigned, "s"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected alg none to be rejected, got %v", err)
	}

	guest, err := SignHS256(NewClaims("walk-in", "guest", time.Now(), time.Hour), "s")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := ParseAndVerifyHS256(guest, "s"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected unknown role to be rejected, got %v", err)
	}
}

func TestMissingExpiryRejected(t *testing.T) {
	claims := NewClaims("host-1", RoleStaff, time.Now(), time.Hour)
	claims.ExpiresAt = nil
	token, err := SignHS256(claims, "s")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := ParseAndVerifyHS256(token, "s"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token without exp to be rejected, got %v", err)
	}
}
