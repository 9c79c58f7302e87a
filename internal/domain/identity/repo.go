package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrEmailTaken is returned when an insert or update hits the unique
	// email constraint.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUnknownDepartment is returned when a doctor references a department
	// that does not exist.
	ErrUnknownDepartment = errors.New("department does not exist")
	// ErrDoctorReferenced is returned when a doctor delete is blocked by
	// appointments.
	ErrDoctorReferenced = errors.New("doctor is referenced by appointments")
)

type PatientRepository interface {
	// Create assigns the ID and the yearly display code and inserts p.
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)
	// EmailTaken reports whether a patient other than exclude uses email.
	EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	Update(ctx context.Context, p *Patient) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Patient, error)

	// ResetAllPasswords sets every patient's hash and returns the row count.
	ResetAllPasswords(ctx context.Context, hash string) (int64, error)
}

type DoctorRepository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	EmailTaken(ctx context.Context, email string, exclude uuid.UUID) (bool, error)
	Update(ctx context.Context, d *Doctor) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Doctor, error)
	ListByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Doctor, error)

	DepartmentExists(ctx context.Context, id uuid.UUID) (bool, error)
	CountAppointments(ctx context.Context, doctorID uuid.UUID) (int, error)
}

type AdminRepository interface {
	GetByID(ctx context.Context, adminID string) (*Admin, error)
	// SetPassword creates the admin record or replaces its hash.
	SetPassword(ctx context.Context, adminID, hash string) error
}
