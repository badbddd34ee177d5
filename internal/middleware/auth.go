// Package middleware adapts the identity resolver and role authorizer to echo.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"usersvc/internal/auth"
	apperrors "usersvc/internal/errors"
)

const principalKey = "principal"

var rejectionMessages = map[auth.Reason]string{
	auth.ReasonNoCredentials:    "unauthorized: authentication required (X-User-Id header or Bearer token)",
	auth.ReasonTokenExpired:     "token expired",
	auth.ReasonTokenInvalid:     "invalid token",
	auth.ReasonIdentityNotFound: "user not found",
	auth.ReasonAccountInactive:  "user inactive, contact an administrator",
}

// Authenticate resolves the caller and stores the Principal on the context.
// Unauthenticated requests stop here with 401.
func Authenticate(resolver *auth.Resolver, log *zap.Logger) echo.MiddlewareFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			principal, err := resolver.Resolve(req.Context(), auth.MetadataFromHeader(req.Header))
			if err != nil {
				var rejection *auth.Rejection
				if errors.As(err, &rejection) {
					log.Debug("request rejected",
						zap.String("reason", rejection.Reason.String()),
						zap.String("path", req.URL.Path),
					)
					return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
						Message: rejectionMessages[rejection.Reason],
						Code:    strings.ToUpper(rejection.Reason.String()),
					})
				}
				log.Error("identity lookup failed", zap.Error(err))
				return echo.NewHTTPError(http.StatusInternalServerError, apperrors.ErrorResponse{
					Message: "authentication error",
					Code:    "AUTH_ERROR",
				})
			}

			c.Set(principalKey, principal)
			return next(c)
		}
	}
}

// RequireRoles lets the request through only when the caller's role is one of
// roles. It must run after Authenticate.
func RequireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := PrincipalFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
					Message: "unauthorized: user not authenticated",
					Code:    "UNAUTHENTICATED",
				})
			}

			decision := auth.Authorize(principal, roles...)
			if !decision.Allowed {
				var observed *string
				if decision.ObservedRole != "" {
					observed = &decision.ObservedRole
				}
				return echo.NewHTTPError(http.StatusForbidden, apperrors.ForbiddenResponse{
					ErrorResponse: apperrors.ErrorResponse{
						Message: fmt.Sprintf("forbidden: requires one of these roles: %s", strings.Join(roles, ", ")),
						Code:    "FORBIDDEN",
					},
					UserRole: observed,
				})
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the Principal stored by Authenticate.
func PrincipalFrom(c echo.Context) (auth.Principal, bool) {
	principal, ok := c.Get(principalKey).(auth.Principal)
	return principal, ok && principal != nil
}
