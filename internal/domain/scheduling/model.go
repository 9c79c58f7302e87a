package scheduling

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Statuses lists every appointment status in lifecycle order.
var Statuses = []string{StatusPending, StatusApproved, StatusCompleted, StatusCancelled}

func ValidStatus(s string) bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Appointment maps to the appointments table. The patient, doctor and
// department display fields are joined in on read.
type Appointment struct {
	ID           uuid.UUID `json:"id"`
	PatientID    uuid.UUID `json:"patientId"`
	DoctorID     uuid.UUID `json:"doctorId"`
	DepartmentID uuid.UUID `json:"departmentId"`
	Date         string    `json:"appointmentDate"`
	Time         string    `json:"appointmentTime"`
	Reason       string    `json:"reason"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	PatientName    string `json:"patientName,omitempty"`
	PatientCode    string `json:"patientCode,omitempty"`
	PatientEmail   string `json:"patientEmail,omitempty"`
	PatientPhone   string `json:"patientPhone,omitempty"`
	DoctorName     string `json:"doctorName,omitempty"`
	DoctorPhone    string `json:"doctorPhone,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	DepartmentName string `json:"departmentName,omitempty"`
}

// Slot is the unit of booking conflicts.
type Slot struct {
	DoctorID uuid.UUID
	Date     string
	Time     string
}

func (a *Appointment) Slot() Slot {
	return Slot{DoctorID: a.DoctorID, Date: a.Date, Time: a.Time}
}

// AppointmentInput is the body of a booking request.
type AppointmentInput struct {
	PatientID    uuid.UUID `json:"patientId"`
	DoctorID     uuid.UUID `json:"doctorId"`
	DepartmentID uuid.UUID `json:"departmentId"`
	Date         string    `json:"appointmentDate"`
	Time         string    `json:"appointmentTime"`
	Reason       string    `json:"reason"`
}

func (in *AppointmentInput) missingRequired() bool {
	return in.PatientID == uuid.Nil || in.DoctorID == uuid.Nil || in.DepartmentID == uuid.Nil ||
		in.Date == "" || in.Time == "" || strings.TrimSpace(in.Reason) == ""
}

// AppointmentPatch holds a partial appointment update. Status changes go
// through SetStatus instead.
type AppointmentPatch struct {
	DoctorID     *uuid.UUID `json:"doctorId"`
	DepartmentID *uuid.UUID `json:"departmentId"`
	Date         *string    `json:"appointmentDate"`
	Time         *string    `json:"appointmentTime"`
	Reason       *string    `json:"reason"`
}

func (pt *AppointmentPatch) Apply(a *Appointment) {
	if pt.DoctorID != nil {
		a.DoctorID = *pt.DoctorID
	}
	if pt.DepartmentID != nil {
		a.DepartmentID = *pt.DepartmentID
	}
	if pt.Date != nil {
		a.Date = *pt.Date
	}
	if pt.Time != nil {
		a.Time = *pt.Time
	}
	if pt.Reason != nil {
		a.Reason = *pt.Reason
	}
}

// ListFilter narrows List. Zero fields match everything; set fields are
// combined with AND.
type ListFilter struct {
	Status    string
	PatientID *uuid.UUID
}

// NormalizeDate checks a YYYY-MM-DD date and returns it unchanged.
func NormalizeDate(s string) (string, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return d.Format(time.DateOnly), nil
}

// NormalizeTime accepts HH:MM or HH:MM:SS and returns HH:MM.
func NormalizeTime(s string) (string, error) {
	for _, layout := range []string{"15:04", time.TimeOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("invalid time %q", s)
}
