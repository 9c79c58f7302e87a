package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/curenation/hms/internal/platform/apierror"
	"github.com/curenation/hms/pkg/response"
)

// DevAdminSubject is the principal used for unauthenticated requests in
// development mode.
const DevAdminSubject = "dev-admin"

// Authenticator verifies session tokens and puts the caller's Principal on
// the request context.
type Authenticator struct {
	tokens  *TokenIssuer
	revoked RevocationStore
	devMode bool
}

func NewAuthenticator(tokens *TokenIssuer, revoked RevocationStore, devMode bool) *Authenticator {
	return &Authenticator{tokens: tokens, revoked: revoked, devMode: devMode}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Required rejects requests without a valid, unrevoked token. In development
// a request with no Authorization header is treated as an admin; a presented
// token is always verified.
func (a *Authenticator) Required() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			header := c.Request().Header.Get(echo.HeaderAuthorization)

			if header == "" && a.devMode {
				p := Principal{Subject: DevAdminSubject, Role: RoleAdmin}
				c.SetRequest(c.Request().WithContext(WithPrincipal(ctx, p)))
				return next(c)
			}
			if header == "" {
				return apierror.Unauthorized("Authentication required")
			}

			tokenStr, ok := BearerToken(header)
			if !ok {
				return apierror.Unauthorized("Invalid authorization format")
			}

			claims, err := a.tokens.Parse(tokenStr)
			if err != nil {
				zerolog.Ctx(ctx).Debug().Err(err).Msg("rejected token")
				return apierror.Unauthorized("Invalid or expired token")
			}

			revoked, err := a.revoked.IsRevoked(ctx, claims.ID)
			if err != nil {
				return apierror.Internal("Could not verify session", err)
			}
			if revoked {
				return apierror.Unauthorized("Session has been logged out")
			}

			p := Principal{
				Subject:   claims.Subject,
				Role:      claims.Role,
				TokenID:   claims.ID,
				ExpiresAt: claims.ExpiresAt.Time,
			}
			c.SetRequest(c.Request().WithContext(WithPrincipal(ctx, p)))
			return next(c)
		}
	}
}

// RequireRole lets the request through when the principal holds one of
// roles. It must run after Required.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := PrincipalFromContext(c.Request().Context())
			if !ok {
				return apierror.Unauthorized("Authentication required")
			}
			for _, r := range roles {
				if p.Role == r {
					return next(c)
				}
			}
			return apierror.Forbidden("You do not have permission to perform this action")
		}
	}
}

// Logout revokes the token carried by the current request.
func (a *Authenticator) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.TokenID == "" {
		// Dev-mode principals carry no token; there is nothing to revoke.
		return response.Message(c, http.StatusOK, "Logged out successfully")
	}
	if err := a.revoked.Revoke(ctx, p.TokenID, p.ExpiresAt); err != nil {
		return apierror.Internal("Could not log out", err)
	}
	return response.Message(c, http.StatusOK, "Logged out successfully")
}
