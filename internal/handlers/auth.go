package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/grishakov/marketplace/internal/hash"
	"github.com/grishakov/marketplace/internal/logging"
	"github.com/grishakov/marketplace/internal/models"
	"github.com/grishakov/marketplace/internal/mykafka"
	"github.com/grishakov/marketplace/internal/notify"
	"github.com/grishakov/marketplace/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
	Notifier notify.Notifier
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		Phone     string `json:"phone"`
		Role      string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, "malformed request body")
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" || req.Phone == "" {
		return fail(c, http.StatusBadRequest, CodeValidation, "first_name, last_name, email, password and phone are required")
	}
	if err := validatePassword(req.Password); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, err.Error())
	}
	if req.Role == "" {
		req.Role = models.RoleBuyer
	}
	if req.Role != models.RoleBuyer && req.Role != models.RoleSeller {
		return fail(c, http.StatusBadRequest, CodeValidation, "role must be buyer or seller")
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	user := models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: pwHash,
		Role:         req.Role,
		Active:       false,
	}
	// The unique constraints on email and phone are the source of truth here:
	// a pre-check would race with a concurrent registration.
	if err := h.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fail(c, http.StatusConflict, CodeConflict, "account with this email or phone already exists")
		}
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	key, err := newTokenKey()
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
	confirm := models.ConfirmEmailToken{UserID: user.ID, Key: key}
	if err := h.DB.Create(&confirm).Error; err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.Notifier.AccountCreated(ctx, &user, key); err != nil {
		logging.FromContext(ctx).Error("confirmation email failed", "user_id", user.ID, "error", err)
	}
	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":    "user_registered",
		"user_id": user.ID,
		"email":   user.Email,
	})

	return succeed(c, http.StatusCreated, echo.Map{
		"message": "account registered, please confirm your email",
		"user":    user,
	})
}

func (h *AuthHandler) Confirm(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
		Token string `json:"token"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, "malformed request body")
	}
	if req.Email == "" || req.Token == "" {
		return fail(c, http.StatusBadRequest, CodeValidation, "email and token are required")
	}

	var confirm models.ConfirmEmailToken
	err := h.DB.
		Joins("JOIN users ON users.id = confirm_email_tokens.user_id").
		Where("users.email = ? AND confirm_email_tokens.key = ?", req.Email, req.Token).
		First(&confirm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusBadRequest, CodeValidation, "wrong token or email")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", confirm.UserID).
			Update("active", true).Error; err != nil {
			return err
		}
		return tx.Delete(&confirm).Error
	})
	if txErr != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, txErr.Error())
	}

	return succeed(c, http.StatusOK, echo.Map{"message": "email confirmed"})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, "malformed request body")
	}
	if req.Email == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, CodeValidation, "email and password are required")
	}

	var user models.User
	if err := h.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		return fail(c, http.StatusUnauthorized, CodeUnauthorized, "wrong email or password")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return fail(c, http.StatusUnauthorized, CodeUnauthorized, "wrong email or password")
	}
	if !user.Active {
		return fail(c, http.StatusForbidden, CodeForbidden, "email confirmation required")
	}

	access, _, err := h.Tokens.IssueAccess(&user)
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
	refresh, err := h.Tokens.IssueRefresh(&user)
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	publish(c, h.Producer, "user_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":    "user_logged_in",
		"user_id": user.ID,
	})

	return succeed(c, http.StatusOK, echo.Map{
		"access_token":  access,
		"refresh_token": refresh,
	})
}
