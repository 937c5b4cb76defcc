package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"note-service/internal/store"
	"note-service/pkg/jwtutil"
	"note-service/pkg/logger"
	"note-service/prometheus"
)

// AuthHandler issues session tokens. It holds no state beyond its
// dependencies; nothing is persisted on login.
type AuthHandler struct {
	store store.Store
	jwt   *jwtutil.JWTUtil
}

func NewAuthHandler(s store.Store, jwt *jwtutil.JWTUtil) *AuthHandler {
	return &AuthHandler{store: s, jwt: jwt}
}

// Login verifies the email/password pair and mints a token embedding the
// user's tenant, role, tenant slug and plan. Unknown email and wrong
// password produce the same response so emails cannot be enumerated.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Email == "" || req.Password == "" {
		log.Error("Missing login credentials", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email and password are required"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	user, tenant, err := h.store.FindUserWithTenantByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Warn("User not found", zap.String("email", req.Email))
			prometheus.RecordAuthError("user_not_found")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		log.Error("Failed to look up user", zap.Error(err))
		prometheus.RecordAuthError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	// Stored secrets are opaque values compared as-is. Never logged.
	if user.Password != req.Password {
		log.Warn("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	token, err := h.jwt.GenerateToken(user.ID, tenant.ID, user.Role, tenant.Slug, tenant.Plan)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.IncreaseActiveTokens()

	log.Info("User logged in",
		zap.String("email", user.Email),
		zap.Uint("tenant_id", tenant.ID),
		zap.String("tenant_slug", tenant.Slug),
		zap.String("role", user.Role))

	return c.JSON(http.StatusOK, echo.Map{"token": token})
}
