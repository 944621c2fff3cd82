package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"unicode"

	"github.com/labstack/echo/v4"

	"github.com/grishakov/marketplace/internal/logging"
	"github.com/grishakov/marketplace/internal/models"
	"github.com/grishakov/marketplace/internal/mykafka"
	"github.com/grishakov/marketplace/internal/service/token"
)

// Stable machine-readable error codes carried next to the human text.
const (
	CodeValidation   = "validation_error"
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeUpstream     = "upstream_error"
	CodeInternal     = "internal_error"
)

type ErrorBody struct {
	Status bool   `json:"status"`
	Code   string `json:"code"`
	Error  string `json:"error"`
}

func fail(c echo.Context, httpStatus int, code, msg string) error {
	return c.JSON(httpStatus, ErrorBody{Status: false, Code: code, Error: msg})
}

func succeed(c echo.Context, httpStatus int, payload echo.Map) error {
	body := echo.Map{"status": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(httpStatus, body)
}

// CurrentUser returns the principal resolved by the auth middleware.
func CurrentUser(c echo.Context) *models.User {
	user, _ := c.Get(token.ContextKey).(*models.User)
	return user
}

func newTokenKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return errors.New("password must contain at least one letter and one digit")
	}
	return nil
}

func publish(c echo.Context, producer *mykafka.Producer, topic, key string, event map[string]interface{}) {
	ctx := c.Request().Context()
	if err := producer.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("kafka publish failed", "topic", topic, "error", err)
	}
}

// orderTotal sums quantity times listing price. Items whose listing was
// wholesale-replaced by a later import count as zero.
func orderTotal(order *models.Order) uint {
	var total uint
	for _, item := range order.Items {
		if item.ProductInfo != nil {
			total += item.Quantity * item.ProductInfo.Price
		}
	}
	return total
}

type orderView struct {
	models.Order
	Total uint `json:"total"`
}

func viewOrders(orders []models.Order) []orderView {
	views := make([]orderView, len(orders))
	for i := range orders {
		views[i] = orderView{Order: orders[i], Total: orderTotal(&orders[i])}
	}
	return views
}
