package scheduling

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/curenation/hms/internal/platform/apierror"
	"github.com/curenation/hms/internal/platform/auth"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

var adminPrincipal = &auth.Principal{Subject: "admin", Role: auth.RoleAdmin}

func patientPrincipal(id uuid.UUID) *auth.Principal {
	return &auth.Principal{Subject: id.String(), Role: auth.RolePatient}
}

func newTestHandler() (*Handler, *fixture, *echo.Echo) {
	f := newFixture(PolicyPermissive)
	return NewHandler(f.svc), f, echo.New()
}

func newJSONContext(e *echo.Echo, method, target, body string, p *auth.Principal) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if p != nil {
		req = req.WithContext(auth.WithPrincipal(req.Context(), *p))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func withID(c echo.Context, id uuid.UUID) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	return c
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestHandler_CreateAppointment_PatientDefaultsToSelf(t *testing.T) {
	h, f, e := newTestHandler()
	body := `{"doctorId":"` + f.doctor.String() + `","departmentId":"` + f.dept.String() +
		`","appointmentDate":"2025-06-01","appointmentTime":"10:00","reason":"Checkup"}`
	c, rec := newJSONContext(e, http.MethodPost, "/appointments", body, patientPrincipal(f.patient))

	if err := h.CreateAppointment(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	resp := decode(t, rec)
	if resp.Message != "Appointment booked successfully" {
		t.Errorf("unexpected message %q", resp.Message)
	}
	var a Appointment
	json.Unmarshal(resp.Data, &a)
	if a.PatientID != f.patient || a.Status != StatusPending {
		t.Errorf("unexpected appointment %+v", a)
	}
}

func TestHandler_CreateAppointment_PatientForOther(t *testing.T) {
	h, f, e := newTestHandler()
	body := `{"patientId":"` + uuid.NewString() + `","doctorId":"` + f.doctor.String() + `","departmentId":"` + f.dept.String() +
		`","appointmentDate":"2025-06-01","appointmentTime":"10:00","reason":"Checkup"}`
	c, _ := newJSONContext(e, http.MethodPost, "/appointments", body, patientPrincipal(f.patient))

	err := h.CreateAppointment(c)
	if !apierror.Is(err, apierror.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestHandler_ListAppointments_PatientSeesOwn(t *testing.T) {
	h, f, e := newTestHandler()
	other := uuid.New()
	f.repo.patients[other] = person{name: "Other"}
	f.book(t, "2025-06-01", "10:00")
	in := f.input("2025-06-01", "11:00")
	in.PatientID = other
	if _, err := f.svc.Book(context.Background(), in); err != nil {
		t.Fatalf("book: %v", err)
	}

	c, rec := newJSONContext(e, http.MethodGet, "/appointments?patientId="+other.String(), "", patientPrincipal(f.patient))
	if err := h.ListAppointments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var appts []Appointment
	json.Unmarshal(decode(t, rec).Data, &appts)
	if len(appts) != 1 || appts[0].PatientID != f.patient {
		t.Errorf("expected only the caller's appointment, got %+v", appts)
	}

	c, rec = newJSONContext(e, http.MethodGet, "/appointments", "", adminPrincipal)
	if err := h.ListAppointments(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	json.Unmarshal(decode(t, rec).Data, &appts)
	if len(appts) != 2 {
		t.Errorf("expected admin to see 2, got %d", len(appts))
	}
}

func TestHandler_ListAppointments_BadFilters(t *testing.T) {
	h, _, e := newTestHandler()

	c, _ := newJSONContext(e, http.MethodGet, "/appointments?status=archived", "", adminPrincipal)
	if err := h.ListAppointments(c); !apierror.Is(err, apierror.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	c, _ = newJSONContext(e, http.MethodGet, "/appointments?patientId=nope", "", adminPrincipal)
	if err := h.ListAppointments(c); !apierror.Is(err, apierror.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_GetAppointment_OtherPatient(t *testing.T) {
	h, f, e := newTestHandler()
	a := f.book(t, "2025-06-01", "10:00")

	c, _ := newJSONContext(e, http.MethodGet, "/", "", patientPrincipal(uuid.New()))
	err := h.GetAppointment(withID(c, a.ID))
	if !apierror.Is(err, apierror.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	c, rec := newJSONContext(e, http.MethodGet, "/", "", patientPrincipal(f.patient))
	if err := h.GetAppointment(withID(c, a.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_SetStatus_PatientMayOnlyCancel(t *testing.T) {
	h, f, e := newTestHandler()
	a := f.book(t, "2025-06-01", "10:00")

	c, _ := newJSONContext(e, http.MethodPut, "/", `{"status":"approved"}`, patientPrincipal(f.patient))
	err := h.SetStatus(withID(c, a.ID))
	if !apierror.Is(err, apierror.KindForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}

	c, rec := newJSONContext(e, http.MethodPut, "/", `{"status":"cancelled"}`, patientPrincipal(f.patient))
	if err := h.SetStatus(withID(c, a.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp := decode(t, rec)
	if resp.Message != "Appointment cancelled successfully" {
		t.Errorf("unexpected message %q", resp.Message)
	}
}

func TestHandler_SetStatus_Admin(t *testing.T) {
	h, f, e := newTestHandler()
	a := f.book(t, "2025-06-01", "10:00")

	c, rec := newJSONContext(e, http.MethodPut, "/", `{"status":"approved"}`, adminPrincipal)
	if err := h.SetStatus(withID(c, a.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var updated Appointment
	json.Unmarshal(decode(t, rec).Data, &updated)
	if updated.Status != StatusApproved {
		t.Errorf("expected approved, got %s", updated.Status)
	}

	c, _ = newJSONContext(e, http.MethodPut, "/", `{"status":"done"}`, adminPrincipal)
	if err := h.SetStatus(withID(c, a.ID)); !apierror.Is(err, apierror.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	h, f, e := newTestHandler()
	a := f.book(t, "2025-06-01", "10:00")

	c, rec := newJSONContext(e, http.MethodPut, "/", `{"appointmentTime":"14:30"}`, adminPrincipal)
	if err := h.UpdateAppointment(withID(c, a.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var updated Appointment
	json.Unmarshal(decode(t, rec).Data, &updated)
	if updated.Time != "14:30" {
		t.Errorf("expected 14:30, got %s", updated.Time)
	}

	c, rec = newJSONContext(e, http.MethodDelete, "/", "", adminPrincipal)
	if err := h.DeleteAppointment(withID(c, a.ID)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decode(t, rec).Message != "Appointment deleted successfully" {
		t.Error("unexpected delete message")
	}

	c, _ = newJSONContext(e, http.MethodDelete, "/", "", adminPrincipal)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")
	if err := h.DeleteAppointment(c); !apierror.Is(err, apierror.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestHandler_NoPrincipal(t *testing.T) {
	h, _, e := newTestHandler()
	c, _ := newJSONContext(e, http.MethodGet, "/appointments", "", nil)
	if err := h.ListAppointments(c); !apierror.Is(err, apierror.KindUnauthorized) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}
