package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/curenation/hms/internal/config"
	"github.com/curenation/hms/internal/platform/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig() *config.Config {
	return &config.Config{
		Port:                   "3000",
		Env:                    "test",
		JWTSecret:              testSecret,
		JWTIssuer:              "hms",
		TokenTTL:               time.Hour,
		BcryptCost:             4,
		DefaultPatientPassword: "patient123",
		StatusPolicy:           "permissive",
		CORSOrigins:            []string{"http://localhost:3000"},
		RateLimitRPS:           100,
		RateLimitBurst:         100,
		RequestTimeout:         5 * time.Second,
		BodyLimit:              "1M",
	}
}

// The repositories only touch the pool when a query runs, so routing and
// auth can be exercised without a database.
func newTestApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()
	a, err := newApp(context.Background(), cfg, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(a.close)
	return a
}

func TestNewApp_RegistersRoutes(t *testing.T) {
	a := newTestApp(t, testConfig())

	registered := make(map[string]bool)
	for _, r := range a.echo.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	want := []string{
		"GET /health",
		"POST /api/auth/admin/login",
		"POST /api/auth/patient/login",
		"POST /api/auth/patient/register",
		"POST /api/auth/patient/change-password",
		"POST /api/auth/logout",
		"GET /api/patients",
		"GET /api/patients/:id",
		"POST /api/patients",
		"PUT /api/patients/:id",
		"DELETE /api/patients/:id",
		"GET /api/doctors",
		"GET /api/doctors/:id",
		"GET /api/doctors/department/:departmentId",
		"POST /api/doctors",
		"PUT /api/doctors/:id",
		"DELETE /api/doctors/:id",
		"GET /api/departments",
		"GET /api/departments/:id",
		"POST /api/departments",
		"PUT /api/departments/:id",
		"DELETE /api/departments/:id",
		"GET /api/appointments",
		"GET /api/appointments/:id",
		"POST /api/appointments",
		"PUT /api/appointments/:id",
		"PUT /api/appointments/:id/status",
		"DELETE /api/appointments/:id",
		"GET /api/appointments/stats/summary",
	}
	for _, route := range want {
		if !registered[route] {
			t.Errorf("route %s not registered", route)
		}
	}
}

func TestNewApp_ProtectedRoutesRequireToken(t *testing.T) {
	a := newTestApp(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestNewApp_AdminRoutesRejectPatients(t *testing.T) {
	a := newTestApp(t, testConfig())
	issued, err := auth.NewTokenIssuer([]byte(testSecret), "hms", time.Hour).Issue(uuid.NewString(), auth.RolePatient)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	for _, target := range []string{"/api/patients", "/api/appointments/stats/summary"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", "Bearer "+issued.Token)
		rec := httptest.NewRecorder()
		a.echo.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", target, rec.Code)
		}
	}
}

func TestNewApp_ForeignTokenRejected(t *testing.T) {
	a := newTestApp(t, testConfig())
	issued, _ := auth.NewTokenIssuer([]byte("another-secret-another-secret-xx"), "hms", time.Hour).Issue("admin", auth.RoleAdmin)

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestNewApp_UnknownPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.StatusPolicy = "lenient"
	if _, err := newApp(context.Background(), cfg, nil, zerolog.Nop()); err == nil {
		t.Error("expected unknown status policy to fail")
	}
}

func TestNewApp_ReminderSchedule(t *testing.T) {
	cfg := testConfig()
	if a := newTestApp(t, cfg); a.scheduler != nil {
		t.Error("expected no scheduler without a reminder schedule")
	}

	cfg.ReminderSchedule = "0 8 * * *"
	if a := newTestApp(t, cfg); a.scheduler == nil {
		t.Error("expected reminder job to be scheduled")
	}

	cfg.ReminderSchedule = "every morning"
	if _, err := newApp(context.Background(), cfg, nil, zerolog.Nop()); err == nil {
		t.Error("expected invalid cron spec to fail")
	}
}

func TestNewApp_DevModeGeneratesSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Env = "development"
	cfg.JWTSecret = ""
	newTestApp(t, cfg)
}
