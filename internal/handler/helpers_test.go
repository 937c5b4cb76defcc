package handler

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"note-service/internal/middleware"
	"note-service/internal/model"
	"note-service/internal/store"
	"note-service/pkg/jwtutil"
)

type fixture struct {
	store  *store.MemoryStore
	tenant model.Tenant // free plan
	other  model.Tenant // pro plan
	admin  model.User
	member model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	f := &fixture{store: s}
	f.tenant = s.PutTenant(model.Tenant{Slug: "acme", Plan: model.PlanFree})
	f.other = s.PutTenant(model.Tenant{Slug: "globex", Plan: model.PlanPro})
	f.admin = s.PutUser(model.User{Email: "admin@acme.test", Password: "password", Role: model.RoleAdmin, TenantID: f.tenant.ID})
	f.member = s.PutUser(model.User{Email: "member@acme.test", Password: "password", Role: model.RoleMember, TenantID: f.tenant.ID})
	return f
}

func (f *fixture) claims(user model.User, tenant model.Tenant) *jwtutil.UserClaims {
	return &jwtutil.UserClaims{
		UserID:     user.ID,
		TenantID:   tenant.ID,
		Role:       user.Role,
		TenantSlug: tenant.Slug,
		Plan:       tenant.Plan,
	}
}

// newContext builds an echo context carrying verified claims, the state the
// auth gate leaves behind for handlers.
func newContext(e *echo.Echo, method, target, body string, claims *jwtutil.UserClaims) (echo.Context, *httptest.ResponseRecorder) {
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(r, rec)
	if claims != nil {
		c.Set(middleware.ClaimsKey, claims)
	}
	return c, rec
}
