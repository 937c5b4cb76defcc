package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"note-service/pkg/jwtutil"
	"note-service/pkg/logger"
	"note-service/prometheus"
)

// ClaimsKey is the echo context key under which verified claims are stored.
const ClaimsKey = "user"

// JWTAuth validates the bearer token on every protected request and stores
// the verified claims in the context. A missing credential is a 401; a
// credential that is present but malformed, tampered or expired is a 403,
// with the cases deliberately indistinguishable to the caller.
func JWTAuth(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid authorization header format")
				prometheus.RecordAuthError("invalid_auth_format")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid token"})
			}

			// Trusted as-is for the rest of the request, no storage lookup.
			c.Set(ClaimsKey, claims)
			log.Debug("Token validated",
				zap.Uint("user_id", claims.UserID),
				zap.Uint("tenant_id", claims.TenantID),
				zap.String("role", claims.Role))

			return next(c)
		}
	}
}

// ClaimsFromContext returns the verified claims set by JWTAuth.
func ClaimsFromContext(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(ClaimsKey).(*jwtutil.UserClaims)
	return claims, ok
}
