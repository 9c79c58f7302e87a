package admin

import (
	"time"

	"github.com/google/uuid"
)

// Department maps to the departments table. The counts are computed on read.
type Department struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description,omitempty"`
	DoctorCount      int       `json:"doctorCount"`
	AppointmentCount int       `json:"appointmentCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// DepartmentPatch holds a partial department update.
type DepartmentPatch struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func (pt *DepartmentPatch) Apply(d *Department) {
	if pt.Name != nil {
		d.Name = *pt.Name
	}
	if pt.Description != nil {
		d.Description = pt.Description
	}
}
