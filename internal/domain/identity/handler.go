package identity

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/curenation/hms/internal/platform/apierror"
	"github.com/curenation/hms/internal/platform/auth"
	"github.com/curenation/hms/pkg/response"
)

type Handler struct {
	svc   *Service
	creds *CredentialService
	authn *auth.Authenticator
}

func NewHandler(svc *Service, creds *CredentialService, authn *auth.Authenticator) *Handler {
	return &Handler{svc: svc, creds: creds, authn: authn}
}

// RegisterRoutes mounts the auth, patient and doctor endpoints. public has no
// authentication; protected must already run Authenticator.Required.
func (h *Handler) RegisterRoutes(public, protected *echo.Group) {
	public.POST("/auth/admin/login", h.AdminLogin)
	public.POST("/auth/patient/login", h.PatientLogin)
	public.POST("/auth/patient/register", h.RegisterPatient)
	public.POST("/auth/patient/change-password", h.ChangePassword)
	protected.POST("/auth/logout", h.authn.Logout)

	// Catalog reads used by the booking form.
	public.GET("/doctors", h.ListDoctors)
	public.GET("/doctors/:id", h.GetDoctor)
	public.GET("/doctors/department/:departmentId", h.ListDoctorsByDepartment)

	// Own record for patients, any record for admins.
	self := protected.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePatient))
	self.GET("/patients/:id", h.GetPatient)
	self.PUT("/patients/:id", h.UpdatePatient)

	admin := protected.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/patients", h.ListPatients)
	admin.POST("/patients", h.CreatePatient)
	admin.DELETE("/patients/:id", h.DeletePatient)
	admin.POST("/doctors", h.CreateDoctor)
	admin.PUT("/doctors/:id", h.UpdateDoctor)
	admin.DELETE("/doctors/:id", h.DeleteDoctor)
}

// -- Auth Handlers --

type adminLoginRequest struct {
	AdminID  string `json:"adminId"`
	Password string `json:"password"`
}

func (h *Handler) AdminLogin(c echo.Context) error {
	var req adminLoginRequest
	if err := c.Bind(&req); err != nil {
		return badBody()
	}
	sess, err := h.creds.AdminLogin(c.Request().Context(), req.AdminID, req.Password)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, sess, "Login successful")
}

type patientLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) PatientLogin(c echo.Context) error {
	var req patientLoginRequest
	if err := c.Bind(&req); err != nil {
		return badBody()
	}
	sess, err := h.creds.PatientLogin(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, sess, "Login successful")
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var in PatientInput
	if err := c.Bind(&in); err != nil {
		return badBody()
	}
	reg, err := h.creds.RegisterPatient(c.Request().Context(), &in)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusCreated, reg, "Registration successful. Please login with your credentials.")
}

type changePasswordRequest struct {
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *Handler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return badBody()
	}
	if err := h.creds.ChangePassword(c.Request().Context(), req.Email, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return response.Message(c, http.StatusOK, "Password changed successfully")
}

// -- Patient Handlers --

func (h *Handler) ListPatients(c echo.Context) error {
	patients, err := h.svc.ListPatients(c.Request().Context())
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, patients, "")
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := ownPatientParam(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, p, "")
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var in PatientInput
	if err := c.Bind(&in); err != nil {
		return badBody()
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), &in)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusCreated, p, "Patient added successfully")
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := ownPatientParam(c)
	if err != nil {
		return err
	}
	var patch PatientPatch
	if err := c.Bind(&patch); err != nil {
		return badBody()
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), id, &patch)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, p, "Patient updated successfully")
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return err
	}
	return response.Message(c, http.StatusOK, "Patient deleted successfully")
}

// -- Doctor Handlers --

func (h *Handler) ListDoctors(c echo.Context) error {
	doctors, err := h.svc.ListDoctors(c.Request().Context())
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, doctors, "")
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	d, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, d, "")
}

func (h *Handler) ListDoctorsByDepartment(c echo.Context) error {
	id, err := idParam(c, "departmentId")
	if err != nil {
		return err
	}
	doctors, err := h.svc.ListDoctorsByDepartment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, doctors, "")
}

func (h *Handler) CreateDoctor(c echo.Context) error {
	var in DoctorInput
	if err := c.Bind(&in); err != nil {
		return badBody()
	}
	d, err := h.svc.CreateDoctor(c.Request().Context(), &in)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusCreated, d, "Doctor added successfully")
}

func (h *Handler) UpdateDoctor(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var patch DoctorPatch
	if err := c.Bind(&patch); err != nil {
		return badBody()
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), id, &patch)
	if err != nil {
		return err
	}
	return response.JSON(c, http.StatusOK, d, "Doctor updated successfully")
}

func (h *Handler) DeleteDoctor(c echo.Context) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDoctor(c.Request().Context(), id); err != nil {
		return err
	}
	return response.Message(c, http.StatusOK, "Doctor deleted successfully")
}

func idParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apierror.Validation("Invalid %s", name)
	}
	return id, nil
}

// ownPatientParam parses :id and checks the caller may access that patient.
func ownPatientParam(c echo.Context) (uuid.UUID, error) {
	id, err := idParam(c, "id")
	if err != nil {
		return uuid.Nil, err
	}
	p, ok := auth.PrincipalFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, apierror.Unauthorized("Authentication required")
	}
	if !p.CanAccessPatient(id) {
		return uuid.Nil, apierror.Forbidden("You can only access your own records")
	}
	return id, nil
}

func badBody() error {
	return apierror.Validation("Invalid request body")
}
