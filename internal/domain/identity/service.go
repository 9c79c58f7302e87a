package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/curenation/hms/internal/platform/apierror"
	"github.com/curenation/hms/internal/platform/auth"
	"github.com/curenation/hms/internal/platform/db"
	"github.com/curenation/hms/internal/platform/notification"
)

const minPasswordLength = 8

// PasswordHasher hashes and verifies credentials. auth.BcryptHasher
// implements it.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// Notifier sends best-effort patient emails.
type Notifier interface {
	Notify(ctx context.Context, templateID, recipient string, data map[string]string)
}

type Service struct {
	patients        PatientRepository
	doctors         DoctorRepository
	hasher          PasswordHasher
	notifier        Notifier
	defaultPassword string
	now             func() time.Time
}

// NewService wires the patient and doctor directory. defaultPassword is
// assigned to patients created without one. notifier may be nil.
func NewService(patients PatientRepository, doctors DoctorRepository, hasher PasswordHasher, notifier Notifier, defaultPassword string) *Service {
	return &Service{
		patients:        patients,
		doctors:         doctors,
		hasher:          hasher,
		notifier:        notifier,
		defaultPassword: defaultPassword,
		now:             time.Now,
	}
}

// -- Patient --

// CreatePatient adds a patient from the directory. The configured default
// password is used unless in carries one.
func (s *Service) CreatePatient(ctx context.Context, in *PatientInput) (*Patient, error) {
	if in.missingRequired() {
		return nil, apierror.Validation("All required fields must be filled")
	}
	password := in.Password
	if password == "" {
		password = s.defaultPassword
	}
	p, err := s.createPatient(ctx, in, password)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// createPatient validates the shared patient fields, hashes password and
// inserts the row. Required-field checks are the caller's job since
// registration and directory create word them differently.
func (s *Service) createPatient(ctx context.Context, in *PatientInput, password string) (*Patient, error) {
	if !ValidEmail(in.Email) {
		return nil, apierror.Validation("Invalid email format")
	}
	if err := checkPassword(password, "Password must be at least 8 characters long"); err != nil {
		return nil, err
	}

	taken, err := s.patients.EmailTaken(ctx, in.Email, uuid.Nil)
	if err != nil {
		return nil, apierror.Internal("Error creating patient", err)
	}
	if taken {
		return nil, apierror.DuplicateEmail()
	}

	p := in.toPatient()
	if p.Age, err = s.ageOf(p.DateOfBirth); err != nil {
		return nil, err
	}

	if p.PasswordHash, err = s.hasher.Hash(password); err != nil {
		return nil, apierror.Internal("Error creating patient", err)
	}

	if err := s.patients.Create(ctx, p); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apierror.DuplicateEmail()
		}
		return nil, apierror.Internal("Error creating patient", err)
	}
	return p, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, patientLookupErr(err, "Error fetching patient")
	}
	return p, nil
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, apierror.Internal("Error fetching patients", err)
	}
	return patients, nil
}

// UpdatePatient merges patch onto the stored patient. Age is recomputed when
// the date of birth changes.
func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, patch *PatientPatch) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, patientLookupErr(err, "Error updating patient")
	}

	if patch.Email != nil && *patch.Email != p.Email {
		if !ValidEmail(*patch.Email) {
			return nil, apierror.Validation("Invalid email format")
		}
		taken, err := s.patients.EmailTaken(ctx, *patch.Email, p.ID)
		if err != nil {
			return nil, apierror.Internal("Error updating patient", err)
		}
		if taken {
			return nil, apierror.DuplicateEmail()
		}
	}

	dobChanged := patch.DateOfBirth != nil && *patch.DateOfBirth != p.DateOfBirth
	patch.Apply(p)
	if dobChanged {
		if p.Age, err = s.ageOf(p.DateOfBirth); err != nil {
			return nil, err
		}
	}

	if err := s.patients.Update(ctx, p); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, apierror.DuplicateEmail()
		}
		return nil, patientLookupErr(err, "Error updating patient")
	}
	return p, nil
}

// DeletePatient removes the patient and, with it, every appointment the
// patient owns.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.patients.Delete(ctx, id); err != nil {
		return patientLookupErr(err, "Error deleting patient")
	}
	return nil
}

// ResetPatientPasswords sets every patient's password to password. It backs
// the maintenance CLI.
func (s *Service) ResetPatientPasswords(ctx context.Context, password string) (int64, error) {
	if err := checkPassword(password, "Password must be at least 8 characters long"); err != nil {
		return 0, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return 0, apierror.Internal("Error resetting passwords", err)
	}
	n, err := s.patients.ResetAllPasswords(ctx, hash)
	if err != nil {
		return 0, apierror.Internal("Error resetting passwords", err)
	}
	return n, nil
}

func (s *Service) ageOf(dateOfBirth string) (int, error) {
	dob, err := ParseDateOfBirth(dateOfBirth)
	if err != nil {
		return 0, apierror.Validation("Invalid date of birth")
	}
	age := AgeOn(dob, s.now())
	if age < 0 || age > maxAge {
		return 0, apierror.Validation("Invalid date of birth")
	}
	return age, nil
}

func (s *Service) welcome(ctx context.Context, p *Patient) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, notification.TemplateWelcome, p.Email, map[string]string{
		"patient_name": p.FullName(),
		"patient_code": p.PatientCode,
		"email":        p.Email,
	})
}

// -- Doctor --

func (s *Service) CreateDoctor(ctx context.Context, in *DoctorInput) (*Doctor, error) {
	if in.missingRequired() {
		return nil, apierror.Validation("All required fields must be filled")
	}
	if !ValidEmail(in.Email) {
		return nil, apierror.Validation("Invalid email format")
	}
	if *in.Experience < 0 {
		return nil, apierror.Validation("Experience must be zero or more years")
	}

	taken, err := s.doctors.EmailTaken(ctx, in.Email, uuid.Nil)
	if err != nil {
		return nil, apierror.Internal("Error creating doctor", err)
	}
	if taken {
		return nil, apierror.DuplicateEmail()
	}
	if err := s.checkDepartment(ctx, in.DepartmentID, "Error creating doctor"); err != nil {
		return nil, err
	}

	d := in.toDoctor()
	if err := s.doctors.Create(ctx, d); err != nil {
		return nil, doctorWriteErr(err, "Error creating doctor")
	}
	return s.GetDoctor(ctx, d.ID)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, doctorLookupErr(err, "Error fetching doctor")
	}
	return d, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]*Doctor, error) {
	doctors, err := s.doctors.List(ctx)
	if err != nil {
		return nil, apierror.Internal("Error fetching doctors", err)
	}
	return doctors, nil
}

func (s *Service) ListDoctorsByDepartment(ctx context.Context, departmentID uuid.UUID) ([]*Doctor, error) {
	doctors, err := s.doctors.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, apierror.Internal("Error fetching doctors", err)
	}
	return doctors, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id uuid.UUID, patch *DoctorPatch) (*Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil {
		return nil, doctorLookupErr(err, "Error updating doctor")
	}

	if patch.Email != nil && *patch.Email != d.Email {
		if !ValidEmail(*patch.Email) {
			return nil, apierror.Validation("Invalid email format")
		}
		taken, err := s.doctors.EmailTaken(ctx, *patch.Email, d.ID)
		if err != nil {
			return nil, apierror.Internal("Error updating doctor", err)
		}
		if taken {
			return nil, apierror.DuplicateEmail()
		}
	}
	if patch.Experience != nil && *patch.Experience < 0 {
		return nil, apierror.Validation("Experience must be zero or more years")
	}
	if err := s.checkDepartment(ctx, patch.DepartmentID, "Error updating doctor"); err != nil {
		return nil, err
	}

	patch.Apply(d)
	if err := s.doctors.Update(ctx, d); err != nil {
		return nil, doctorWriteErr(err, "Error updating doctor")
	}
	return s.GetDoctor(ctx, d.ID)
}

// DeleteDoctor refuses while any appointment references the doctor.
func (s *Service) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	if _, err := s.doctors.GetByID(ctx, id); err != nil {
		return doctorLookupErr(err, "Error deleting doctor")
	}
	n, err := s.doctors.CountAppointments(ctx, id)
	if err != nil {
		return apierror.Internal("Error deleting doctor", err)
	}
	if n > 0 {
		return apierror.HasDependents("Cannot delete doctor with existing appointments")
	}
	if err := s.doctors.Delete(ctx, id); err != nil {
		return doctorWriteErr(err, "Error deleting doctor")
	}
	return nil
}

func (s *Service) checkDepartment(ctx context.Context, id *uuid.UUID, failMsg string) error {
	if id == nil {
		return nil
	}
	ok, err := s.doctors.DepartmentExists(ctx, *id)
	if err != nil {
		return apierror.Internal(failMsg, err)
	}
	if !ok {
		return apierror.NotFound("Department not found")
	}
	return nil
}

func checkPassword(password, tooShort string) error {
	if len(password) < minPasswordLength {
		return apierror.Validation("%s", tooShort)
	}
	if len(password) > auth.MaxPasswordBytes {
		return apierror.Validation("Password must be at most %d bytes long", auth.MaxPasswordBytes)
	}
	return nil
}

func patientLookupErr(err error, failMsg string) error {
	if errors.Is(err, db.ErrNotFound) {
		return apierror.NotFound("Patient not found")
	}
	return apierror.Internal(failMsg, err)
}

func doctorLookupErr(err error, failMsg string) error {
	if errors.Is(err, db.ErrNotFound) {
		return apierror.NotFound("Doctor not found")
	}
	return apierror.Internal(failMsg, err)
}

func doctorWriteErr(err error, failMsg string) error {
	switch {
	case errors.Is(err, ErrEmailTaken):
		return apierror.DuplicateEmail()
	case errors.Is(err, ErrUnknownDepartment):
		return apierror.NotFound("Department not found")
	case errors.Is(err, ErrDoctorReferenced):
		return apierror.HasDependents("Cannot delete doctor with existing appointments")
	default:
		return doctorLookupErr(err, failMsg)
	}
}
