package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleAdmin   = "admin"
	RolePatient = "patient"
)

// Claims is the JWT payload of a session token. Subject is the admin id for
// admins and the patient UUID for patients.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// IssuedToken is a freshly signed session token.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue signs a token for subject with the given role.
func (t *TokenIssuer) Issue(subject, role string) (*IssuedToken, error) {
	if subject == "" {
		return nil, errors.New("token subject is required")
	}
	if role != RoleAdmin && role != RolePatient {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	now := t.now()
	exp := now.Add(t.ttl)
	jti := uuid.NewString()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   subject,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: role,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &IssuedToken{Token: signed, ID: jti, ExpiresAt: exp.Truncate(time.Second)}, nil
}

// Parse verifies the signature, expiry and issuer of tokenStr.
func (t *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.ID == "" || claims.Subject == "" {
		return nil, errors.New("token is missing jti or sub")
	}
	if claims.Role != RoleAdmin && claims.Role != RolePatient {
		return nil, fmt.Errorf("token has unknown role %q", claims.Role)
	}
	return claims, nil
}

// RandomSecret returns a 32-byte signing key. Tokens signed with it do not
// survive a restart, which is only acceptable in development.
func RandomSecret() ([]byte, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	return b, nil
}
