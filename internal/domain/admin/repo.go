package admin

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNameTaken is returned when a write hits the unique name constraint.
	ErrNameTaken = errors.New("department name already exists")
	// ErrDepartmentReferenced is returned when a delete is blocked by rows
	// that point at the department.
	ErrDepartmentReferenced = errors.New("department is referenced")
)

type DepartmentRepository interface {
	Create(ctx context.Context, d *Department) error
	GetByID(ctx context.Context, id uuid.UUID) (*Department, error)
	// NameTaken reports whether a department other than exclude uses name.
	NameTaken(ctx context.Context, name string, exclude uuid.UUID) (bool, error)
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*Department, error)
	CountDoctors(ctx context.Context, id uuid.UUID) (int, error)
}
