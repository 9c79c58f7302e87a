package scheduling

import (
	"fmt"
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

// RegisterRoutes mounts the appointment endpoints on protected, which must
// already run Authenticator.Required. Patients are limited to their own
// appointments.
func (h *Handler) RegisterRoutes(protected *echo.Group) {
	self := protected.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePatient))
	self.POST("/appointments", h.CreateAppointment)
	self.GET("/appointments", h.ListAppointments)
	self.GET("/appointments/:id", h.GetAppointment)
	self.PUT("/appointments/:id/status", h.SetStatus)

	admin := protected.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.PUT("/appointments/:id", h.UpdateAppointment)
	admin.DELETE("/appointments/:id", h.DeleteAppointment)
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var in AppointmentInput
	if err := c.Bind(&in); err != nil {
		return apierror.Validation("Invalid request body")
	}

	p, err := principal(c)
	if err != nil {
		return err
	}
	if !p.IsAdmin() {
		own, _ := p.PatientID()
		if in.PatientID == uuid.Nil {
			in.PatientID = own
		}
		if in.PatientID != own {
			return apierror.Forbidden("Patients can only book appointments for themselves")
		}
	}

	a, err := h.svc.Book(c.Request().Context(), &in)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusCreated, a, "Appointment booked successfully")
}

func (h *Handler) ListAppointments(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	f := ListFilter{Status: c.QueryParam("status")}
	if raw := c.QueryParam("patientId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apierror.Validation("Invalid patientId")
		}
		f.PatientID = &id
	}
	if !p.IsAdmin() {
		own, _ := p.PatientID()
		f.PatientID = &own
	}

	appts, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, appts, "")
}

func (h *Handler) GetAppointment(c echo.Context) error {
	a, err := h.ownAppointment(c)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, a, "")
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) SetStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return apierror.Validation("Invalid request body")
	}
	a, err := h.ownAppointment(c)
	if err != nil {
		return err
	}
	if p, _ := principal(c); !p.IsAdmin() && ValidStatus(req.Status) && req.Status != StatusCancelled {
		return apierror.Forbidden("Patients can only cancel their appointments")
	}

	updated, err := h.svc.SetStatus(c.Request().Context(), a.ID, req.Status)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, updated, fmt.Sprintf("Appointment %s successfully", req.Status))
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	var patch AppointmentPatch
	if err := c.Bind(&patch); err != nil {
		return apierror.Validation("Invalid request body")
	}
	a, err := h.svc.Update(c.Request().Context(), id, &patch)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, a, "Appointment updated successfully")
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	id, err := appointmentID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return response.Message(c, http.StatusOK, "Appointment deleted successfully")
}

// ownAppointment loads :id and checks the caller may see it.
func (h *Handler) ownAppointment(c echo.Context) (*Appointment, error) {
	id, err := appointmentID(c)
	if err != nil {
		return nil, err
	}
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	if !p.CanAccessPatient(a.PatientID) {
		return nil, apierror.Forbidden("You can only access your own appointments")
	}
	return a, nil
}

func principal(c echo.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return auth.Principal{}, apierror.Unauthorized("Authentication required")
	}
	return p, nil
}

func appointmentID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apierror.Validation("Invalid id")
	}
	return id, nil
}
