package scheduling

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrSlotTaken is returned when a write would leave two live appointments
// in the same slot.
var ErrSlotTaken = errors.New("slot already booked")

type AppointmentRepository interface {
	// Create inserts a and fills its ID and timestamps.
	Create(ctx context.Context, a *Appointment) error
	// GetByID returns the appointment with every joined display field.
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns joined rows ordered by date then time, newest first.
	List(ctx context.Context, f ListFilter) ([]*Appointment, error)
	// ListForReminder returns approved appointments dated date.
	ListForReminder(ctx context.Context, date string) ([]*Appointment, error)

	// SlotTaken reports whether an appointment other than exclude holds the
	// slot and is not cancelled.
	SlotTaken(ctx context.Context, slot Slot, exclude uuid.UUID) (bool, error)
	PatientExists(ctx context.Context, id uuid.UUID) (bool, error)
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
	DepartmentExists(ctx context.Context, id uuid.UUID) (bool, error)
}
