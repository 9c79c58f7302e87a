package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/curenation/hms/internal/platform/apierror"
	"github.com/curenation/hms/internal/platform/db"
)

type Service struct {
	departments DepartmentRepository
}

func NewService(departments DepartmentRepository) *Service {
	return &Service{departments: departments}
}

func (s *Service) CreateDepartment(ctx context.Context, name string, description *string) (*Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apierror.Validation("Department name is required")
	}
	taken, err := s.departments.NameTaken(ctx, name, uuid.Nil)
	if err != nil {
		return nil, apierror.Internal("Error creating department", err)
	}
	if taken {
		return nil, apierror.DuplicateName("Department already exists")
	}

	d := &Department{Name: name, Description: description}
	if err := s.departments.Create(ctx, d); err != nil {
		return nil, departmentErr(err, "Error creating department")
	}
	return d, nil
}

func (s *Service) GetDepartment(ctx context.Context, id uuid.UUID) (*Department, error) {
	d, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, departmentErr(err, "Error fetching department")
	}
	return d, nil
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, apierror.Internal("Error fetching departments", err)
	}
	return departments, nil
}

func (s *Service) UpdateDepartment(ctx context.Context, id uuid.UUID, patch *DepartmentPatch) (*Department, error) {
	d, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, departmentErr(err, "Error updating department")
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apierror.Validation("Department name is required")
		}
		patch.Name = &name
		if name != d.Name {
			taken, err := s.departments.NameTaken(ctx, name, d.ID)
			if err != nil {
				return nil, apierror.Internal("Error updating department", err)
			}
			if taken {
				return nil, apierror.DuplicateName("Department already exists")
			}
		}
	}

	patch.Apply(d)
	if err := s.departments.Update(ctx, d); err != nil {
		return nil, departmentErr(err, "Error updating department")
	}
	return d, nil
}

// DeleteDepartment refuses while any doctor is assigned to the department.
func (s *Service) DeleteDepartment(ctx context.Context, id uuid.UUID) error {
	if _, err := s.departments.GetByID(ctx, id); err != nil {
		return departmentErr(err, "Error deleting department")
	}
	n, err := s.departments.CountDoctors(ctx, id)
	if err != nil {
		return apierror.Internal("Error deleting department", err)
	}
	if n > 0 {
		return apierror.HasDependents("Cannot delete department with assigned doctors")
	}
	if err := s.departments.Delete(ctx, id); err != nil {
		return departmentErr(err, "Error deleting department")
	}
	return nil
}

func departmentErr(err error, failMsg string) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return apierror.NotFound("Department not found")
	case errors.Is(err, ErrNameTaken):
		return apierror.DuplicateName("Department already exists")
	case errors.Is(err, ErrDepartmentReferenced):
		return apierror.HasDependents("Cannot delete department with existing appointments")
	default:
		return apierror.Internal(failMsg, err)
	}
}
