package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grishakov/marketplace/internal/models"
)

func newMarketEnv(t *testing.T) (*MarketHandler, models.ProductInfo, models.ProductInfo) {
	db := InitTestDB(t)
	seller := makeUser(t, db, "market-seller@example.com", models.RoleSeller, true)
	info1, info2 := seedListings(t, db, seller)
	return &MarketHandler{DB: db}, info1, info2
}

func TestMarketShopsOnlyOpen(t *testing.T) {
	h, _, _ := newMarketEnv(t)

	closedOwner := makeUser(t, h.DB, "closed@example.com", models.RoleSeller, true)
	require.NoError(t, h.DB.Create(&models.Shop{
		Name: "Closed shop", UserID: closedOwner.ID, Opened: false,
	}).Error)

	rec, c := doJSONRequest(t, http.MethodGet, "/market/shops", nil)
	require.NoError(t, h.Shops(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var shops []models.Shop
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &shops))
	require.Len(t, shops, 1)
	require.Equal(t, "Svyaznoy", shops[0].Name)
}

func TestMarketCategories(t *testing.T) {
	h, _, _ := newMarketEnv(t)

	rec, c := doJSONRequest(t, http.MethodGet, "/market/categories", nil)
	require.NoError(t, h.Categories(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var categories []models.Category
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &categories))
	require.Len(t, categories, 1)
}

type productsPage struct {
	Data []models.ProductInfo `json:"data"`
	Meta struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func TestMarketProducts(t *testing.T) {
	h, _, _ := newMarketEnv(t)

	rec, c := doJSONRequest(t, http.MethodGet, "/market/products", nil)
	require.NoError(t, h.Products(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var page productsPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.EqualValues(t, 2, page.Meta.Total)
	require.Len(t, page.Data, 2)
	require.NotNil(t, page.Data[0].Product)
}

func TestMarketProductsFilters(t *testing.T) {
	h, info1, _ := newMarketEnv(t)

	rec, c := doJSONRequest(t, http.MethodGet,
		fmt.Sprintf("/market/products?shop_id=%d&category_id=224", info1.ShopID), nil)
	require.NoError(t, h.Products(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var page productsPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.EqualValues(t, 2, page.Meta.Total)

	recNone, cNone := doJSONRequest(t, http.MethodGet, "/market/products?category_id=999", nil)
	require.NoError(t, h.Products(cNone))
	var empty productsPage
	require.NoError(t, json.Unmarshal(recNone.Body.Bytes(), &empty))
	require.EqualValues(t, 0, empty.Meta.Total)
}

func TestMarketProductsHideClosedShops(t *testing.T) {
	h, info1, _ := newMarketEnv(t)

	require.NoError(t, h.DB.Model(&models.Shop{}).
		Where("id = ?", info1.ShopID).Update("opened", false).Error)

	rec, c := doJSONRequest(t, http.MethodGet, "/market/products", nil)
	require.NoError(t, h.Products(c))

	var page productsPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.EqualValues(t, 0, page.Meta.Total)
}

func TestMarketSearchRequiresQuery(t *testing.T) {
	h, _, _ := newMarketEnv(t)

	rec, c := doJSONRequest(t, http.MethodGet, "/market/products/search", nil)
	require.NoError(t, h.Search(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarketSearchUnavailable(t *testing.T) {
	h, _, _ := newMarketEnv(t)

	rec, c := doJSONRequest(t, http.MethodGet, "/market/products/search?q=iphone", nil)
	require.NoError(t, h.Search(c))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
