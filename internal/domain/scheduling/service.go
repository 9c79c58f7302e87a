package scheduling

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/curenation/hms/internal/platform/apierror"
	"github.com/curenation/hms/internal/platform/db"
	"github.com/curenation/hms/internal/platform/notification"
)

// Notifier sends best-effort patient emails.
type Notifier interface {
	Notify(ctx context.Context, templateID, recipient string, data map[string]string)
}

type Service struct {
	appts    AppointmentRepository
	policy   Policy
	notifier Notifier
	now      func() time.Time
}

// NewService builds the appointment service. notifier may be nil.
func NewService(appts AppointmentRepository, policy Policy, notifier Notifier) *Service {
	return &Service{appts: appts, policy: policy, notifier: notifier, now: time.Now}
}

// Book creates a pending appointment after checking that every referenced
// row exists and the doctor's slot is free. The partial unique index on the
// slot backs the check against concurrent bookings.
func (s *Service) Book(ctx context.Context, in *AppointmentInput) (*Appointment, error) {
	if in.missingRequired() {
		return nil, apierror.Validation("All fields are required")
	}
	date, err := NormalizeDate(in.Date)
	if err != nil {
		return nil, apierror.Validation("Invalid appointment date, expected YYYY-MM-DD")
	}
	tm, err := NormalizeTime(in.Time)
	if err != nil {
		return nil, apierror.Validation("Invalid appointment time, expected HH:MM")
	}

	if err := s.mustExist(ctx, s.appts.PatientExists, in.PatientID, "Patient not found"); err != nil {
		return nil, err
	}
	if err := s.mustExist(ctx, s.appts.DoctorExists, in.DoctorID, "Doctor not found"); err != nil {
		return nil, err
	}
	if err := s.mustExist(ctx, s.appts.DepartmentExists, in.DepartmentID, "Department not found"); err != nil {
		return nil, err
	}

	a := &Appointment{
		PatientID:    in.PatientID,
		DoctorID:     in.DoctorID,
		DepartmentID: in.DepartmentID,
		Date:         date,
		Time:         tm,
		Reason:       strings.TrimSpace(in.Reason),
		Status:       StatusPending,
	}
	if err := s.checkSlot(ctx, a.Slot(), uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.appts.Create(ctx, a); err != nil {
		return nil, writeErr(err, "Error creating appointment")
	}

	booked, err := s.Get(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, notification.TemplateAppointmentBooked, booked)
	return booked, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Error fetching appointment")
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Appointment, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, invalidStatus()
	}
	appts, err := s.appts.List(ctx, f)
	if err != nil {
		return nil, apierror.Internal("Error fetching appointments", err)
	}
	return appts, nil
}

// Update merges patch onto the stored appointment. Moving a live
// appointment to another slot is checked for conflicts like a new booking.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch *AppointmentPatch) (*Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Error updating appointment")
	}

	if patch.Date != nil {
		date, err := NormalizeDate(*patch.Date)
		if err != nil {
			return nil, apierror.Validation("Invalid appointment date, expected YYYY-MM-DD")
		}
		patch.Date = &date
	}
	if patch.Time != nil {
		tm, err := NormalizeTime(*patch.Time)
		if err != nil {
			return nil, apierror.Validation("Invalid appointment time, expected HH:MM")
		}
		patch.Time = &tm
	}
	if patch.Reason != nil && strings.TrimSpace(*patch.Reason) == "" {
		return nil, apierror.Validation("Reason cannot be empty")
	}
	if patch.DoctorID != nil && *patch.DoctorID != a.DoctorID {
		if err := s.mustExist(ctx, s.appts.DoctorExists, *patch.DoctorID, "Doctor not found"); err != nil {
			return nil, err
		}
	}
	if patch.DepartmentID != nil && *patch.DepartmentID != a.DepartmentID {
		if err := s.mustExist(ctx, s.appts.DepartmentExists, *patch.DepartmentID, "Department not found"); err != nil {
			return nil, err
		}
	}

	before := a.Slot()
	patch.Apply(a)
	if a.Status != StatusCancelled && a.Slot() != before {
		if err := s.checkSlot(ctx, a.Slot(), a.ID); err != nil {
			return nil, err
		}
	}

	if err := s.appts.Update(ctx, a); err != nil {
		return nil, writeErr(err, "Error updating appointment")
	}
	return s.Get(ctx, a.ID)
}

// SetStatus moves the appointment to status if the configured policy allows
// it. Reopening a cancelled appointment needs its slot to still be free.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*Appointment, error) {
	if !ValidStatus(status) {
		return nil, invalidStatus()
	}
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "Error updating appointment status")
	}
	if !s.policy.Allows(a.Status, status) {
		return nil, apierror.InvalidTransition(a.Status, status)
	}
	if a.Status == StatusCancelled && status != StatusCancelled {
		if err := s.checkSlot(ctx, a.Slot(), a.ID); err != nil {
			return nil, err
		}
	}

	if err := s.appts.UpdateStatus(ctx, id, status); err != nil {
		return nil, writeErr(err, "Error updating appointment status")
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status != status {
		s.notify(ctx, notification.TemplateAppointmentStatus, updated)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.appts.Delete(ctx, id); err != nil {
		return lookupErr(err, "Error deleting appointment")
	}
	return nil
}

func (s *Service) checkSlot(ctx context.Context, slot Slot, exclude uuid.UUID) error {
	taken, err := s.appts.SlotTaken(ctx, slot, exclude)
	if err != nil {
		return apierror.Internal("Error checking availability", err)
	}
	if taken {
		return apierror.SlotConflict()
	}
	return nil
}

func (s *Service) mustExist(ctx context.Context, exists func(context.Context, uuid.UUID) (bool, error), id uuid.UUID, notFound string) error {
	ok, err := exists(ctx, id)
	if err != nil {
		return apierror.Internal("Error creating appointment", err)
	}
	if !ok {
		return apierror.NotFound(notFound)
	}
	return nil
}

func (s *Service) notify(ctx context.Context, templateID string, a *Appointment) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, templateID, a.PatientEmail, emailData(a))
}

func emailData(a *Appointment) map[string]string {
	return map[string]string{
		"patient_name": a.PatientName,
		"patient_code": a.PatientCode,
		"doctor_name":  a.DoctorName,
		"department":   a.DepartmentName,
		"date":         a.Date,
		"time":         a.Time,
		"status":       a.Status,
	}
}

func invalidStatus() error {
	return apierror.Validation("Invalid status. Must be one of: %s", strings.Join(Statuses, ", "))
}

func lookupErr(err error, failMsg string) error {
	if errors.Is(err, db.ErrNotFound) {
		return apierror.NotFound("Appointment not found")
	}
	return apierror.Internal(failMsg, err)
}

func writeErr(err error, failMsg string) error {
	if errors.Is(err, ErrSlotTaken) {
		return apierror.SlotConflict()
	}
	return lookupErr(err, failMsg)
}
