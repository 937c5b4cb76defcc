package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"note-service/pkg/logger"
	"note-service/prometheus"
)

// RequireRole gates an operation to a single role from the verified claims.
// Must run after JWTAuth.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			claims, ok := ClaimsFromContext(c)
			if !ok {
				log.Error("Missing claims in context for role check")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			if claims.Role != role {
				log.Warn("Insufficient role",
					zap.String("required", role),
					zap.String("actual", claims.Role))
				prometheus.RecordAuthError("insufficient_role")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
			}

			return next(c)
		}
	}
}
