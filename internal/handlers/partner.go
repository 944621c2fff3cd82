package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/grishakov/marketplace/internal/catalog"
	"github.com/grishakov/marketplace/internal/feed"
	"github.com/grishakov/marketplace/internal/models"
	"github.com/grishakov/marketplace/internal/mykafka"
	"github.com/grishakov/marketplace/internal/notify"
)

type PartnerHandler struct {
	DB       *gorm.DB
	Importer *catalog.Importer
	Producer *mykafka.Producer
	Notifier notify.Notifier
}

var allowedTransitions = map[string][]string{
	models.StatusNew:      {models.StatusDelivery, models.StatusCanceled},
	models.StatusDelivery: {models.StatusFinish, models.StatusCanceled},
}

// Update pulls the seller's YAML feed and wholesale-replaces the shop catalog.
func (h *PartnerHandler) Update(c echo.Context) error {
	user := CurrentUser(c)

	var req struct {
		URL string `json:"url"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, "malformed request body")
	}
	if req.URL == "" {
		return fail(c, http.StatusBadRequest, CodeValidation, "feed url is required")
	}
	if err := feed.ValidateURL(req.URL); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, fmt.Sprintf("invalid feed url: %v", err))
	}

	doc, err := feed.Fetch(c.Request().Context(), req.URL)
	if err != nil {
		return fail(c, http.StatusBadGateway, CodeUpstream, err.Error())
	}

	res, err := h.Importer.Import(c.Request().Context(), user, doc, req.URL)
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	publish(c, h.Producer, "catalog_events", fmt.Sprint(res.ShopID), map[string]interface{}{
		"type":       "catalog_updated",
		"shop_id":    res.ShopID,
		"seller_id":  user.ID,
		"categories": res.Categories,
		"goods":      res.Goods,
	})

	return succeed(c, http.StatusOK, echo.Map{
		"message": "catalog updated",
		"result":  res,
	})
}

func (h *PartnerHandler) sellerShop(c echo.Context) (*models.Shop, error) {
	user := CurrentUser(c)

	var shop models.Shop
	err := h.DB.Where("user_id = ?", user.ID).First(&shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fail(c, http.StatusNotFound, CodeNotFound, "shop not found, import a catalog first")
	}
	if err != nil {
		return nil, fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
	return &shop, nil
}

func (h *PartnerHandler) GetState(c echo.Context) error {
	shop, err := h.sellerShop(c)
	if shop == nil {
		return err
	}
	return succeed(c, http.StatusOK, echo.Map{
		"name":   shop.Name,
		"opened": shop.Opened,
	})
}

func (h *PartnerHandler) SetState(c echo.Context) error {
	shop, err := h.sellerShop(c)
	if shop == nil {
		return err
	}

	var req struct {
		State string `json:"state"`
	}
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, CodeValidation, "malformed request body")
	}
	if req.State != "0" && req.State != "1" {
		return fail(c, http.StatusBadRequest, CodeValidation, `state must be "1" to open the shop or "0" to close it`)
	}
	opened := req.State == "1"

	if err := h.DB.Model(shop).Update("opened", opened).Error; err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	msg := "shop is closed"
	if opened {
		msg = "shop is open for orders"
	}
	return succeed(c, http.StatusOK, echo.Map{"message": msg, "opened": opened})
}

// Orders lists non-basket orders containing at least one of the seller's
// listings. The total covers the whole order, even when it spans shops.
func (h *PartnerHandler) Orders(c echo.Context) error {
	user := CurrentUser(c)

	var orders []models.Order
	err := h.DB.Model(&models.Order{}).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN product_infos ON product_infos.id = order_items.product_info_id").
		Joins("JOIN shops ON shops.id = product_infos.shop_id").
		Where("shops.user_id = ? AND orders.status <> ?", user.ID, models.StatusBasket).
		Distinct("orders.*").
		Preload("Contact").
		Preload("Items.ProductInfo.Product").
		Find(&orders).Error
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	return c.JSON(http.StatusOK, viewOrders(orders))
}

func (h *PartnerHandler) SetOrderStatus(c echo.Context) error {
	user := CurrentUser(c)

	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil || orderID <= 0 {
		return fail(c, http.StatusBadRequest, CodeValidation, "invalid order id")
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return fail(c, http.StatusBadRequest, CodeValidation, "status is required")
	}

	var order models.Order
	findErr := h.DB.Model(&models.Order{}).
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Joins("JOIN product_infos ON product_infos.id = order_items.product_info_id").
		Joins("JOIN shops ON shops.id = product_infos.shop_id").
		Where("orders.id = ? AND shops.user_id = ? AND orders.status <> ?", orderID, user.ID, models.StatusBasket).
		Distinct("orders.*").
		First(&order).Error
	if errors.Is(findErr, gorm.ErrRecordNotFound) {
		return fail(c, http.StatusNotFound, CodeNotFound, "order not found")
	}
	if findErr != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, findErr.Error())
	}

	if !transitionAllowed(order.Status, req.Status) {
		return fail(c, http.StatusBadRequest, CodeValidation,
			fmt.Sprintf("cannot move order from %q to %q", order.Status, req.Status))
	}

	if err := h.DB.Model(&order).Update("status", req.Status).Error; err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
	order.Status = req.Status

	var buyer models.User
	if err := h.DB.First(&buyer, order.UserID).Error; err == nil {
		if notifyErr := h.Notifier.OrderStatusChanged(c.Request().Context(), &buyer, &order); notifyErr != nil {
			c.Logger().Errorf("status email failed: %v", notifyErr)
		}
	}
	publish(c, h.Producer, "order_events", fmt.Sprint(order.ID), map[string]interface{}{
		"type":     "order_status_changed",
		"order_id": order.ID,
		"status":   order.Status,
	})

	return succeed(c, http.StatusOK, echo.Map{"order_id": order.ID, "order_status": order.Status})
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
