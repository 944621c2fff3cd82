package token

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/grishakov/marketplace/internal/models"
)

const (
	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

// ContextKey is where RequireAuth stores the authenticated *models.User.
const ContextKey = "auth_user"

type Service struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

func (s *Service) IssueAccess(user *models.User) (string, time.Time, error) {
	exp := time.Now().Add(accessTTL)
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"exp":  exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.JWTSecret)
	return signed, exp, err
}

func (s *Service) IssueRefresh(user *models.User) (string, error) {
	exp := time.Now().Add(refreshTTL)
	claims := jwt.MapClaims{
		"sub": user.ID,
		"exp": exp.Unix(),
		"typ": "refresh",
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.RefreshSecret)
	if err != nil {
		return "", err
	}

	row := models.RefreshToken{
		Token:     signed,
		UserID:    user.ID,
		ExpiresAt: exp,
	}
	if err := s.DB.Create(&row).Error; err != nil {
		return "", err
	}
	return signed, nil
}

func (s *Service) parseAccess(raw string) (uint, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return s.JWTSecret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !t.Valid {
		return 0, errors.New("invalid or expired token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, errors.New("invalid subject")
	}
	return uint(sub), nil
}

// RequireAuth resolves the bearer token into a *models.User before any data
// access; the authenticated principal travels in the echo context, never in
// package state.
func (s *Service) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
		}

		userID, err := s.parseAccess(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}

		var user models.User
		if err := s.DB.First(&user, userID).Error; err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unknown account")
		}
		if !user.Active {
			return echo.NewHTTPError(http.StatusUnauthorized, "account is not active")
		}

		c.Set(ContextKey, &user)
		return next(c)
	}
}

func (s *Service) RequireSeller(next echo.HandlerFunc) echo.HandlerFunc {
	return s.RequireAuth(func(c echo.Context) error {
		user, _ := c.Get(ContextKey).(*models.User)
		if user == nil || user.Role != models.RoleSeller {
			return echo.NewHTTPError(http.StatusForbidden, "sellers only")
		}
		return next(c)
	})
}
