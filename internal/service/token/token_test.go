package token

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/grishakov/marketplace/internal/config"
	"github.com/grishakov/marketplace/internal/models"
)

func newService(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))

	return &Service{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func makeUser(t *testing.T, db *gorm.DB, role string, active bool) *models.User {
	t.Helper()
	user := &models.User{
		FirstName: "Test", LastName: "User",
		Email: role + "@example.com", Phone: "+7900" + role,
		PasswordHash: "x", Role: role, Active: active,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func request(e *echo.Echo, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func guardedEcho(mw echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.GET("/guarded", func(c echo.Context) error {
		user, _ := c.Get(ContextKey).(*models.User)
		return c.JSON(http.StatusOK, echo.Map{"user_id": user.ID})
	}, mw)
	return e
}

func TestRequireAuth(t *testing.T) {
	s := newService(t)
	user := makeUser(t, s.DB, models.RoleBuyer, true)
	e := guardedEcho(s.RequireAuth)

	// no token
	require.Equal(t, http.StatusUnauthorized, request(e, "").Code)

	// garbage token
	require.Equal(t, http.StatusUnauthorized, request(e, "not-a-jwt").Code)

	access, _, err := s.IssueAccess(user)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, request(e, access).Code)
}

func TestRequireAuthInactiveAccount(t *testing.T) {
	s := newService(t)
	user := makeUser(t, s.DB, models.RoleBuyer, false)
	e := guardedEcho(s.RequireAuth)

	access, _, err := s.IssueAccess(user)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, request(e, access).Code)
}

func TestRequireSeller(t *testing.T) {
	s := newService(t)
	buyer := makeUser(t, s.DB, models.RoleBuyer, true)
	seller := makeUser(t, s.DB, models.RoleSeller, true)
	e := guardedEcho(s.RequireSeller)

	require.Equal(t, http.StatusUnauthorized, request(e, "").Code)

	buyerToken, _, err := s.IssueAccess(buyer)
	require.NoError(t, err)
	require.Equal(t, http.StatusForbidden, request(e, buyerToken).Code)

	sellerToken, _, err := s.IssueAccess(seller)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, request(e, sellerToken).Code)
}

func TestIssueRefreshPersists(t *testing.T) {
	s := newService(t)
	user := makeUser(t, s.DB, models.RoleBuyer, true)

	refresh, err := s.IssueRefresh(user)
	require.NoError(t, err)
	require.NotEmpty(t, refresh)

	var row models.RefreshToken
	require.NoError(t, s.DB.Where("user_id = ?", user.ID).First(&row).Error)
	require.Equal(t, refresh, row.Token)
	require.False(t, row.Revoked)
}
