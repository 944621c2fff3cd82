package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/grishakov/marketplace/internal/models"
	"github.com/grishakov/marketplace/internal/mykafka"
)

type BasketHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

var errConflict = errors.New("listing already in basket")
var errListingMissing = errors.New("listing not found")

func (h *BasketHandler) Get(c echo.Context) error {
	user := CurrentUser(c)

	var basket models.Order
	err := h.DB.Where("user_id = ? AND status = ?", user.ID, models.StatusBasket).
		Preload("Items.ProductInfo.Product").
		First(&basket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return succeed(c, http.StatusOK, echo.Map{"items": []models.OrderItem{}, "total": 0})
	}
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	return succeed(c, http.StatusOK, echo.Map{
		"order_id": basket.ID,
		"items":    basket.Items,
		"total":    orderTotal(&basket),
	})
}

// Add inserts listings into the caller's basket, lazily creating it. Re-adding
// a listing is a conflict: quantity changes go through PATCH.
func (h *BasketHandler) Add(c echo.Context) error {
	user := CurrentUser(c)

	var req struct {
		Items []struct {
			ProductInfo uint `json:"product_info"`
			Quantity    uint `json:"quantity"`
		} `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, "malformed request body")
	}
	if len(req.Items) == 0 {
		return fail(c, http.StatusBadRequest, CodeValidation, "items are required")
	}

	added := 0
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var basket models.Order
		if err := tx.Where(models.Order{UserID: user.ID, Status: models.StatusBasket}).
			FirstOrCreate(&basket).Error; err != nil {
			return err
		}

		for _, item := range req.Items {
			if item.ProductInfo == 0 || item.Quantity == 0 {
				return fmt.Errorf("each item needs product_info and a positive quantity")
			}

			var info models.ProductInfo
			if err := tx.First(&info, item.ProductInfo).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: %d", errListingMissing, item.ProductInfo)
				}
				return err
			}

			var existing models.OrderItem
			err := tx.Where("order_id = ? AND product_info_id = ?", basket.ID, item.ProductInfo).
				First(&existing).Error
			if err == nil {
				return fmt.Errorf("%w: %d", errConflict, item.ProductInfo)
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			if err := tx.Create(&models.OrderItem{
				OrderID:       basket.ID,
				ProductInfoID: item.ProductInfo,
				Quantity:      item.Quantity,
			}).Error; err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if txErr != nil {
		switch {
		case errors.Is(txErr, errConflict):
			return fail(c, http.StatusConflict, CodeConflict, txErr.Error())
		case errors.Is(txErr, errListingMissing):
			return fail(c, http.StatusNotFound, CodeNotFound, txErr.Error())
		default:
			return fail(c, http.StatusBadRequest, CodeValidation, txErr.Error())
		}
	}

	publish(c, h.Producer, "order_events", fmt.Sprint(user.ID), map[string]interface{}{
		"type":    "basket_items_added",
		"user_id": user.ID,
		"added":   added,
	})

	return succeed(c, http.StatusOK, echo.Map{"added": added})
}

// UpdateQuantity overwrites quantities of basket items by item id.
func (h *BasketHandler) UpdateQuantity(c echo.Context) error {
	user := CurrentUser(c)

	var req struct {
		Items []struct {
			ID       uint `json:"id"`
			Quantity uint `json:"quantity"`
		} `json:"items"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, "malformed request body")
	}
	if len(req.Items) == 0 {
		return fail(c, http.StatusBadRequest, CodeValidation, "items are required")
	}

	basket, err := h.callerBasket(c, user.ID)
	if basket == nil {
		return err
	}

	updated := 0
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		for _, item := range req.Items {
			if item.Quantity == 0 {
				return fmt.Errorf("quantity must be positive, item %d", item.ID)
			}
			result := tx.Model(&models.OrderItem{}).
				Where("order_id = ? AND id = ?", basket.ID, item.ID).
				Update("quantity", item.Quantity)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return fmt.Errorf("%w: item %d", errListingMissing, item.ID)
			}
			updated++
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, errListingMissing) {
			return fail(c, http.StatusNotFound, CodeNotFound, txErr.Error())
		}
		return fail(c, http.StatusBadRequest, CodeValidation, txErr.Error())
	}

	return succeed(c, http.StatusOK, echo.Map{"updated": updated})
}

func (h *BasketHandler) Remove(c echo.Context) error {
	user := CurrentUser(c)

	var req struct {
		Item uint `json:"item"`
	}
	if err := c.Bind(&req); err != nil || req.Item == 0 {
		return fail(c, http.StatusBadRequest, CodeValidation, "item id is required")
	}

	basket, err := h.callerBasket(c, user.ID)
	if basket == nil {
		return err
	}

	result := h.DB.Where("order_id = ? AND id = ?", basket.ID, req.Item).Delete(&models.OrderItem{})
	if result.Error != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, result.Error.Error())
	}
	if result.RowsAffected == 0 {
		return fail(c, http.StatusNotFound, CodeNotFound, "basket item not found")
	}

	return succeed(c, http.StatusOK, echo.Map{"message": "item removed"})
}

func (h *BasketHandler) callerBasket(c echo.Context, userID uint) (*models.Order, error) {
	var basket models.Order
	err := h.DB.Where("user_id = ? AND status = ?", userID, models.StatusBasket).First(&basket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(c, http.StatusNotFound, CodeNotFound, "basket is empty")
	}
	if err != nil {
		return nil, fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
	return &basket, nil
}
