package identity

import (
	"context"
	"errors"
	"time"

	"github.com/curenation/hms/internal/platform/apierror"
	"github.com/curenation/hms/internal/platform/auth"
	"github.com/curenation/hms/internal/platform/db"
)

// SessionIssuer mints session tokens. auth.TokenIssuer implements it.
type SessionIssuer interface {
	Issue(subject, role string) (*auth.IssuedToken, error)
}

// AdminSession is returned by a successful admin login.
type AdminSession struct {
	AdminID   string    `json:"adminId"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// PatientSession is the logged-in patient's record plus a session token.
type PatientSession struct {
	*Patient
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Registration is returned by a successful self-registration.
type Registration struct {
	PatientID string `json:"patientId"`
	Email     string `json:"email"`
}

type CredentialService struct {
	directory *Service
	admins    AdminRepository
	tokens    SessionIssuer
}

func NewCredentialService(directory *Service, admins AdminRepository, tokens SessionIssuer) *CredentialService {
	return &CredentialService{directory: directory, admins: admins, tokens: tokens}
}

func (s *CredentialService) AdminLogin(ctx context.Context, adminID, password string) (*AdminSession, error) {
	if adminID == "" || password == "" {
		return nil, apierror.Validation("Admin ID and password are required")
	}
	const invalid = "Invalid admin credentials"

	admin, err := s.admins.GetByID(ctx, adminID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apierror.InvalidCredentials(invalid)
	}
	if err != nil {
		return nil, apierror.Internal("Server error during login", err)
	}
	if err := s.verify(admin.PasswordHash, password, invalid); err != nil {
		return nil, err
	}

	tok, err := s.tokens.Issue(admin.AdminID, auth.RoleAdmin)
	if err != nil {
		return nil, apierror.Internal("Server error during login", err)
	}
	return &AdminSession{AdminID: admin.AdminID, Role: auth.RoleAdmin, Token: tok.Token, ExpiresAt: tok.ExpiresAt}, nil
}

// PatientLogin checks credentials by exact email match. Unknown email and
// wrong password fail the same way.
func (s *CredentialService) PatientLogin(ctx context.Context, email, password string) (*PatientSession, error) {
	if email == "" || password == "" {
		return nil, apierror.Validation("Email and password are required")
	}
	const invalid = "Invalid email or password"

	p, err := s.directory.patients.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, apierror.InvalidCredentials(invalid)
	}
	if err != nil {
		return nil, apierror.Internal("Server error during login", err)
	}
	if err := s.verify(p.PasswordHash, password, invalid); err != nil {
		return nil, err
	}

	tok, err := s.tokens.Issue(p.ID.String(), auth.RolePatient)
	if err != nil {
		return nil, apierror.Internal("Server error during login", err)
	}
	return &PatientSession{Patient: p, Role: auth.RolePatient, Token: tok.Token, ExpiresAt: tok.ExpiresAt}, nil
}

func (s *CredentialService) RegisterPatient(ctx context.Context, in *PatientInput) (*Registration, error) {
	if in.missingRequired() || in.Password == "" {
		return nil, apierror.Validation("All required fields must be filled")
	}
	p, err := s.directory.createPatient(ctx, in, in.Password)
	if err != nil {
		return nil, err
	}
	s.directory.welcome(ctx, p)
	return &Registration{PatientID: p.PatientCode, Email: p.Email}, nil
}

func (s *CredentialService) ChangePassword(ctx context.Context, email, current, next string) error {
	if email == "" || current == "" || next == "" {
		return apierror.Validation("Email, current password, and new password are required")
	}
	if err := checkPassword(next, "New password must be at least 8 characters long"); err != nil {
		return err
	}

	p, err := s.directory.patients.GetByEmail(ctx, email)
	if err != nil {
		return patientLookupErr(err, "Server error during password change")
	}
	if err := s.verify(p.PasswordHash, current, "Current password is incorrect"); err != nil {
		return err
	}

	hash, err := s.directory.hasher.Hash(next)
	if err != nil {
		return apierror.Internal("Server error during password change", err)
	}
	if err := s.directory.patients.UpdatePassword(ctx, p.ID, hash); err != nil {
		return patientLookupErr(err, "Server error during password change")
	}
	return nil
}

// SetAdminPassword creates or resets the admin credential. It backs the
// maintenance CLI.
func (s *CredentialService) SetAdminPassword(ctx context.Context, adminID, password string) error {
	if adminID == "" {
		return apierror.Validation("Admin ID is required")
	}
	if err := checkPassword(password, "Password must be at least 8 characters long"); err != nil {
		return err
	}
	hash, err := s.directory.hasher.Hash(password)
	if err != nil {
		return apierror.Internal("Error setting admin password", err)
	}
	if err := s.admins.SetPassword(ctx, adminID, hash); err != nil {
		return apierror.Internal("Error setting admin password", err)
	}
	return nil
}

func (s *CredentialService) verify(hash, password, invalid string) error {
	err := s.directory.hasher.Compare(hash, password)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrPasswordMismatch):
		return apierror.InvalidCredentials(invalid)
	default:
		return apierror.Internal("Authentication error", err)
	}
}
