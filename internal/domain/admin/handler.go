package admin

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/curenation/hms/internal/platform/apierror"
	"github.com/curenation/hms/internal/platform/auth"
	"github.com/curenation/hms/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the department endpoints. Reads are public; writes
// need an admin on protected.
func (h *Handler) RegisterRoutes(public, protected *echo.Group) {
	public.GET("/departments", h.ListDepartments)
	public.GET("/departments/:id", h.GetDepartment)

	admin := protected.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/departments", h.CreateDepartment)
	admin.PUT("/departments/:id", h.UpdateDepartment)
	admin.DELETE("/departments/:id", h.DeleteDepartment)
}

type departmentRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (h *Handler) CreateDepartment(c echo.Context) error {
	var req departmentRequest
	if err := c.Bind(&req); err != nil {
		return apierror.Validation("Invalid request body")
	}
	d, err := h.svc.CreateDepartment(c.Request().Context(), req.Name, req.Description)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusCreated, d, "Department added successfully")
}

func (h *Handler) GetDepartment(c echo.Context) error {
	id, err := departmentID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDepartment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, d, "")
}

func (h *Handler) ListDepartments(c echo.Context) error {
	departments, err := h.svc.ListDepartments(c.Request().Context())
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, departments, "")
}

func (h *Handler) UpdateDepartment(c echo.Context) error {
	id, err := departmentID(c)
	if err != nil {
		return err
	}
	var patch DepartmentPatch
	if err := c.Bind(&patch); err != nil {
		return apierror.Validation("Invalid request body")
	}
	d, err := h.svc.UpdateDepartment(c.Request().Context(), id, &patch)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, d, "Department updated successfully")
}

func (h *Handler) DeleteDepartment(c echo.Context) error {
	id, err := departmentID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDepartment(c.Request().Context(), id); err != nil {
		return err
	}
	return response.Message(c, http.StatusOK, "Department deleted successfully")
}

func departmentID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierror.Validation("Invalid id")
	}
	return id, nil
}
