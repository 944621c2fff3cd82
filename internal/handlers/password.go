package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/grishakov/marketplace/internal/hash"
	"github.com/grishakov/marketplace/internal/logging"
	"github.com/grishakov/marketplace/internal/models"
	"github.com/grishakov/marketplace/internal/notify"
)

type PasswordHandler struct {
	DB       *gorm.DB
	Notifier notify.Notifier
}

// ResetRequest answers 200 whether or not the account exists, so the endpoint
// cannot be used to enumerate emails.
func (h *PasswordHandler) ResetRequest(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return fail(c, http.StatusBadRequest, CodeValidation, "email is required")
	}

	var user models.User
	err := h.DB.Where("email = ?", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return succeed(c, http.StatusOK, echo.Map{"message": "reset token sent if the account exists"})
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	key, err := newTokenKey()
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
	reset := models.PasswordResetToken{UserID: user.ID, Key: key}
	if err := h.DB.Create(&reset).Error; err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	ctx := c.Request().Context()
	if err := h.Notifier.PasswordReset(ctx, &user, key); err != nil {
		logging.FromContext(ctx).Error("reset email failed", "user_id", user.ID, "error", err)
	}

	return succeed(c, http.StatusOK, echo.Map{"message": "reset token sent if the account exists"})
}

func (h *PasswordHandler) ResetConfirm(c echo.Context) error {
	var req struct {
		Email    string `json:"email"`
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, "malformed request body")
	}
	if req.Email == "" || req.Token == "" || req.Password == "" {
		return fail(c, http.StatusBadRequest, CodeValidation, "email, token and password are required")
	}
	if err := validatePassword(req.Password); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, err.Error())
	}

	var reset models.PasswordResetToken
	err := h.DB.
		Joins("JOIN users ON users.id = password_reset_tokens.user_id").
		Where("users.email = ? AND password_reset_tokens.key = ?", req.Email, req.Token).
		First(&reset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusBadRequest, CodeValidation, "wrong token or email")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", reset.UserID).
			Update("password_hash", pwHash).Error; err != nil {
			return err
		}
		// old sessions die with the old password
		if err := tx.Model(&models.RefreshToken{}).Where("user_id = ?", reset.UserID).
			Update("revoked", true).Error; err != nil {
			return err
		}
		return tx.Delete(&reset).Error
	})
	if txErr != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, txErr.Error())
	}

	return succeed(c, http.StatusOK, echo.Map{"message": "password updated"})
}
