package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/curenation/hms/internal/platform/apierror"
)

func newTestAuthenticator(devMode bool) (*Authenticator, *TokenIssuer, *MemoryRevocationStore) {
	tokens := NewTokenIssuer(testSecret, "hms", time.Hour)
	store := NewMemoryRevocationStore(0)
	return NewAuthenticator(tokens, store, devMode), tokens, store
}

func runAuth(t *testing.T, mw []echo.MiddlewareFunc, authHeader string) (Principal, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/appointments", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got Principal
	h := func(c echo.Context) error {
		got, _ = PrincipalFromContext(c.Request().Context())
		return c.NoContent(http.StatusOK)
	}
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return got, h(c)
}

func TestRequired_ValidToken(t *testing.T) {
	a, tokens, store := newTestAuthenticator(false)
	defer store.Close()
	patientID := uuid.New()
	tok, _ := tokens.Issue(patientID.String(), RolePatient)

	p, err := runAuth(t, []echo.MiddlewareFunc{a.Required()}, "Bearer "+tok.Token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id, ok := p.PatientID(); !ok || id != patientID {
		t.Errorf("expected patient principal %s, got %+v", patientID, p)
	}
	if p.TokenID != tok.ID {
		t.Errorf("expected token id %s, got %s", tok.ID, p.TokenID)
	}
}

func TestRequired_Rejections(t *testing.T) {
	a, tokens, store := newTestAuthenticator(false)
	defer store.Close()
	revokedTok, _ := tokens.Issue("admin", RoleAdmin)
	_ = store.Revoke(context.Background(), revokedTok.ID, revokedTok.ExpiresAt)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic YWRtaW46cGFzcw=="},
		{"garbage token", "Bearer not.a.jwt"},
		{"revoked token", "Bearer " + revokedTok.Token},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runAuth(t, []echo.MiddlewareFunc{a.Required()}, tt.header)
			if !apierror.Is(err, apierror.KindUnauthorized) {
				t.Errorf("expected unauthorized, got %v", err)
			}
		})
	}
}

func TestRequired_DevModeDefaultsToAdmin(t *testing.T) {
	a, _, store := newTestAuthenticator(true)
	defer store.Close()

	p, err := runAuth(t, []echo.MiddlewareFunc{a.Required()}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsAdmin() || p.Subject != DevAdminSubject {
		t.Errorf("expected dev admin, got %+v", p)
	}

	// A presented token is still verified in development.
	if _, err := runAuth(t, []echo.MiddlewareFunc{a.Required()}, "Bearer bogus"); !apierror.Is(err, apierror.KindUnauthorized) {
		t.Errorf("expected unauthorized for bad token in dev mode, got %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	a, tokens, store := newTestAuthenticator(false)
	defer store.Close()
	patientTok, _ := tokens.Issue(uuid.NewString(), RolePatient)
	adminTok, _ := tokens.Issue("admin", RoleAdmin)

	adminOnly := []echo.MiddlewareFunc{a.Required(), RequireRole(RoleAdmin)}

	if _, err := runAuth(t, adminOnly, "Bearer "+patientTok.Token); !apierror.Is(err, apierror.KindForbidden) {
		t.Errorf("expected forbidden for patient, got %v", err)
	}
	if _, err := runAuth(t, adminOnly, "Bearer "+adminTok.Token); err != nil {
		t.Errorf("expected admin to pass, got %v", err)
	}
	if _, err := runAuth(t, []echo.MiddlewareFunc{RequireRole(RoleAdmin)}, ""); !apierror.Is(err, apierror.KindUnauthorized) {
		t.Errorf("expected unauthorized without principal, got %v", err)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	a, tokens, store := newTestAuthenticator(false)
	defer store.Close()
	tok, _ := tokens.Issue("admin", RoleAdmin)

	if _, err := runAuth(t, []echo.MiddlewareFunc{a.Required(), func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error { return a.Logout(c) }
	}}, "Bearer "+tok.Token); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	if _, err := runAuth(t, []echo.MiddlewareFunc{a.Required()}, "Bearer "+tok.Token); !apierror.Is(err, apierror.KindUnauthorized) {
		t.Errorf("expected token to be rejected after logout, got %v", err)
	}
}

func TestPrincipal_CanAccessPatient(t *testing.T) {
	own := uuid.New()
	patient := Principal{Subject: own.String(), Role: RolePatient}
	admin := Principal{Subject: "admin", Role: RoleAdmin}

	if !patient.CanAccessPatient(own) {
		t.Error("patient should access own record")
	}
	if patient.CanAccessPatient(uuid.New()) {
		t.Error("patient must not access another record")
	}
	if !admin.CanAccessPatient(uuid.New()) {
		t.Error("admin should access any record")
	}
	if _, ok := admin.PatientID(); ok {
		t.Error("admin has no patient id")
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer ", "", false},
		{"Token abc", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
