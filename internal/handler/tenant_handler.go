package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"note-service/internal/model"
	"note-service/internal/store"
	"note-service/pkg/logger"
	"note-service/prometheus"
)

// TenantHandler serves tenant plan management. The upgrade route is gated
// to admins by middleware.RequireRole.
type TenantHandler struct {
	store store.Store
}

func NewTenantHandler(s store.Store) *TenantHandler {
	return &TenantHandler{store: s}
}

// UpgradePlan moves the tenant identified by slug to the pro plan. Tokens
// issued before the upgrade keep their free-plan claim until re-issued.
func (h *TenantHandler) UpgradePlan(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordTenantOperation("upgrade")

	slug := c.Param("slug")

	defer prometheus.TrackDBOperation("update")(time.Now())
	tenant, err := h.store.UpdateTenantPlan(c.Request().Context(), slug, model.PlanPro)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("Tenant not found for upgrade", zap.String("slug", slug))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
		}
		log.Error("Failed to upgrade tenant plan", zap.String("slug", slug), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	log.Info("Tenant upgraded",
		zap.String("slug", tenant.Slug),
		zap.String("plan", tenant.Plan))

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"tenant":  tenant,
	})
}
