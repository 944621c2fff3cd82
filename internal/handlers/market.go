package handlers

import (
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/grishakov/marketplace/internal/models"
	"github.com/grishakov/marketplace/internal/search"
	"github.com/grishakov/marketplace/internal/util"
)

type MarketHandler struct {
	DB    *gorm.DB
	ES    *elasticsearch.Client
	Index string
}

func (h *MarketHandler) Shops(c echo.Context) error {
	var shops []models.Shop
	if err := h.DB.Where("opened = ?", true).Order("name ASC").Find(&shops).Error; err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
	return c.JSON(http.StatusOK, shops)
}

func (h *MarketHandler) Categories(c echo.Context) error {
	var categories []models.Category
	if err := h.DB.Order("name ASC").Find(&categories).Error; err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
	return c.JSON(http.StatusOK, categories)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Products lists listings from open shops, optionally narrowed by shop and/or
// category, with parameters attached.
func (h *MarketHandler) Products(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	query := h.DB.Model(&models.ProductInfo{}).
		Joins("JOIN shops ON shops.id = product_infos.shop_id").
		Where("shops.opened = ?", true)

	if shopID := c.QueryParam("shop_id"); shopID != "" {
		query = query.Where("product_infos.shop_id = ?", shopID)
	}
	if categoryID := c.QueryParam("category_id"); categoryID != "" {
		query = query.
			Joins("JOIN products ON products.id = product_infos.product_id").
			Where("products.category_id = ?", categoryID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	var items []models.ProductInfo
	if err := query.
		Preload("Product.Category").
		Preload("Parameters.Parameter").
		Order("product_infos.id ASC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *MarketHandler) Search(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return fail(c, http.StatusBadRequest, CodeValidation, "query parameter q is required")
	}
	if h.ES == nil {
		return fail(c, http.StatusServiceUnavailable, CodeInternal, "search is not available")
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	from, limit := util.Calculate(page, size)

	total, docs, err := search.Listings(c.Request().Context(), h.ES, h.Index, q, from, limit)
	if err != nil {
		return fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"total": total, "products": docs})
}
