package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"note-service/internal/middleware"
	"note-service/internal/store"
	"note-service/pkg/logger"
	"note-service/prometheus"
)

// UserHandler serves the tenant user listing used by the note detail view.
type UserHandler struct {
	store store.Store
}

func NewUserHandler(s store.Store) *UserHandler {
	return &UserHandler{store: s}
}

// ListUsers returns the users of the claims' tenant. Passwords are never
// serialized.
func (h *UserHandler) ListUsers(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("list_users")

	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		log.Error("Missing claims in context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	users, err := h.store.ListUsers(c.Request().Context(), claims.TenantID)
	if err != nil {
		log.Error("Failed to list users", zap.Uint("tenant_id", claims.TenantID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	log.Info("Users listed", zap.Uint("tenant_id", claims.TenantID), zap.Int("count", len(users)))
	return c.JSON(http.StatusOK, users)
}
