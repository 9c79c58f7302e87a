package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte(strings.Repeat("s", 32))

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, "hms", time.Hour)

	tok, err := issuer.Issue("d0a8b9f4-1111-4e7a-9c55-000000000001", RolePatient)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if tok.ID == "" || tok.Token == "" {
		t.Fatal("expected token and id")
	}

	claims, err := issuer.Parse(tok.Token)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if claims.Subject != "d0a8b9f4-1111-4e7a-9c55-000000000001" {
		t.Errorf("unexpected subject %q", claims.Subject)
	}
	if claims.Role != RolePatient {
		t.Errorf("expected patient role, got %q", claims.Role)
	}
	if claims.ID != tok.ID {
		t.Errorf("expected jti %q, got %q", tok.ID, claims.ID)
	}
	if !claims.ExpiresAt.Time.Equal(tok.ExpiresAt) {
		t.Errorf("expected expiry %s, got %s", tok.ExpiresAt, claims.ExpiresAt.Time)
	}
}

func TestTokenIssuer_RejectsExpired(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, "hms", time.Hour)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, err := issuer.Issue("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}

	issuer.now = time.Now
	if _, err := issuer.Parse(tok.Token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestTokenIssuer_RejectsWrongSecret(t *testing.T) {
	tok, err := NewTokenIssuer(testSecret, "hms", time.Hour).Issue("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	other := NewTokenIssuer([]byte(strings.Repeat("o", 32)), "hms", time.Hour)
	if _, err := other.Parse(tok.Token); err == nil {
		t.Error("expected signature mismatch")
	}
}

func TestTokenIssuer_RejectsWrongIssuer(t *testing.T) {
	tok, err := NewTokenIssuer(testSecret, "someone-else", time.Hour).Issue("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("Issue() error: %v", err)
	}
	if _, err := NewTokenIssuer(testSecret, "hms", time.Hour).Parse(tok.Token); err == nil {
		t.Error("expected issuer mismatch")
	}
}

func TestTokenIssuer_RejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			Subject:   "admin",
			Issuer:    "hms",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: RoleAdmin,
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewTokenIssuer(testSecret, "hms", time.Hour).Parse(unsigned); err == nil {
		t.Error("expected alg=none token to be rejected")
	}
}

func TestTokenIssuer_RejectsUnknownRole(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, "hms", time.Hour)
	if _, err := issuer.Issue("x", "doctor"); err == nil {
		t.Error("expected unknown role to be rejected at issue")
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti",
			Subject:   "x",
			Issuer:    "hms",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: "superuser",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := issuer.Parse(signed); err == nil {
		t.Error("expected unknown role to be rejected at parse")
	}
}

func TestRandomSecret(t *testing.T) {
	a, err := RandomSecret()
	if err != nil {
		t.Fatalf("RandomSecret() error: %v", err)
	}
	b, _ := RandomSecret()
	if len(a) != 32 {
		t.Errorf("expected 32 bytes, got %d", len(a))
	}
	if string(a) == string(b) {
		t.Error("expected distinct secrets")
	}
}
