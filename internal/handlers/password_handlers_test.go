package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grishakov/marketplace/internal/hash"
	"github.com/grishakov/marketplace/internal/models"
	"github.com/grishakov/marketplace/internal/notify"
)

func newPasswordEnv(t *testing.T) (*PasswordHandler, *models.User) {
	db := InitTestDB(t)
	user := makeUser(t, db, "reset@example.com", models.RoleBuyer, true)
	return &PasswordHandler{DB: db, Notifier: notify.Noop{}}, user
}

func TestResetRequest(t *testing.T) {
	h, user := newPasswordEnv(t)

	rec, c := doJSONRequest(t, http.MethodPost, "/user/password_reset", map[string]string{
		"email": user.Email,
	})
	require.NoError(t, h.ResetRequest(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, h.DB.Model(&models.PasswordResetToken{}).
		Where("user_id = ?", user.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestResetRequestUnknownEmail(t *testing.T) {
	h, _ := newPasswordEnv(t)

	// same answer as for a known email, and no token row
	rec, c := doJSONRequest(t, http.MethodPost, "/user/password_reset", map[string]string{
		"email": "ghost@example.com",
	})
	require.NoError(t, h.ResetRequest(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	require.NoError(t, h.DB.Model(&models.PasswordResetToken{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestResetConfirm(t *testing.T) {
	h, user := newPasswordEnv(t)

	reset := models.PasswordResetToken{UserID: user.ID, Key: "reset-key-123"}
	require.NoError(t, h.DB.Create(&reset).Error)

	recWrong, cWrong := doJSONRequest(t, http.MethodPost, "/user/password_reset/confirm", map[string]string{
		"email":    user.Email,
		"token":    "wrong-key",
		"password": "newpassword1",
	})
	require.NoError(t, h.ResetConfirm(cWrong))
	require.Equal(t, http.StatusBadRequest, recWrong.Code)

	rec, c := doJSONRequest(t, http.MethodPost, "/user/password_reset/confirm", map[string]string{
		"email":    user.Email,
		"token":    "reset-key-123",
		"password": "newpassword1",
	})
	require.NoError(t, h.ResetConfirm(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.User
	require.NoError(t, h.DB.First(&updated, user.ID).Error)
	require.True(t, hash.CheckPassword(updated.PasswordHash, "newpassword1"))

	// token is single use
	recAgain, cAgain := doJSONRequest(t, http.MethodPost, "/user/password_reset/confirm", map[string]string{
		"email":    user.Email,
		"token":    "reset-key-123",
		"password": "anotherpassword2",
	})
	require.NoError(t, h.ResetConfirm(cAgain))
	require.Equal(t, http.StatusBadRequest, recAgain.Code)
}

func TestResetConfirmWeakPassword(t *testing.T) {
	h, user := newPasswordEnv(t)

	reset := models.PasswordResetToken{UserID: user.ID, Key: "reset-key-456"}
	require.NoError(t, h.DB.Create(&reset).Error)

	rec, c := doJSONRequest(t, http.MethodPost, "/user/password_reset/confirm", map[string]string{
		"email":    user.Email,
		"token":    "reset-key-456",
		"password": "short",
	})
	require.NoError(t, h.ResetConfirm(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
