package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	Subject   string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// PatientID returns the patient UUID for patient principals.
func (p Principal) PatientID() (uuid.UUID, bool) {
	if p.Role != RolePatient {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(p.Subject)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// CanAccessPatient reports whether the caller may read or change the records
// of patient id. Admins may access every patient.
func (p Principal) CanAccessPatient(id uuid.UUID) bool {
	if p.IsAdmin() {
		return true
	}
	own, ok := p.PatientID()
	return ok && own == id
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
