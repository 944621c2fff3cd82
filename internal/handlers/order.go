package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/grishakov/marketplace/internal/logging"
	"github.com/grishakov/marketplace/internal/models"
	"github.com/grishakov/marketplace/internal/mykafka"
	"github.com/grishakov/marketplace/internal/notify"
)

type OrderHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Notifier notify.Notifier
}

func (h *OrderHandler) List(c echo.Context) error {
	user := CurrentUser(c)

	var orders []models.Order
	err := h.DB.
		Where("user_id = ? AND status <> ?", user.ID, models.StatusBasket).
		Preload("Contact").
		Preload("Items.ProductInfo.Product").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	return c.JSON(http.StatusOK, viewOrders(orders))
}

var errEmptyBasket = errors.New("basket is empty")

// Checkout flips the caller's basket to "new" with a delivery address. Stock is
// not decremented: listing quantity is informational.
func (h *OrderHandler) Checkout(c echo.Context) error {
	user := CurrentUser(c)

	var req struct {
		ContactID uint `json:"contact_id"`
	}
	if err := c.Bind(&req); err != nil || req.ContactID == 0 {
		return fail(c, http.StatusBadRequest, CodeValidation, "contact_id is required")
	}

	var contact models.Contact
	err := h.DB.Where("id = ? AND user_id = ?", req.ContactID, user.ID).First(&contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, CodeNotFound, "contact not found")
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	var order models.Order
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND status = ?", user.ID, models.StatusBasket).
			Preload("Items").
			First(&order).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errEmptyBasket
		}
		if err != nil {
			return err
		}
		if len(order.Items) == 0 {
			return errEmptyBasket
		}

		return tx.Model(&order).Updates(map[string]interface{}{
			"status":     models.StatusNew,
			"contact_id": contact.ID,
		}).Error
	})
	if txErr != nil {
		if errors.Is(txErr, errEmptyBasket) {
			return fail(c, http.StatusBadRequest, CodeValidation, errEmptyBasket.Error())
		}
		return fail(c, http.StatusInternalServerError, CodeInternal, txErr.Error())
	}
	order.Status = models.StatusNew

	ctx := c.Request().Context()
	if err := h.Notifier.OrderPlaced(ctx, user, &order); err != nil {
		logging.FromContext(ctx).Error("order email failed", "order_id", order.ID, "error", err)
	}
	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]interface{}{
		"type":     "order_placed",
		"order_id": order.ID,
		"user_id":  user.ID,
	})

	return succeed(c, http.StatusOK, echo.Map{
		"message":  "order accepted",
		"order_id": order.ID,
	})
}
