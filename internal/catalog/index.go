package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/grishakov/marketplace/internal/models"
)

// ListingDoc is the search projection of a ProductInfo row.
type ListingDoc struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Model      string `json:"model"`
	ShopID     uint   `json:"shop_id"`
	CategoryID uint   `json:"category_id"`
	Price      uint   `json:"price"`
}

func (im *Importer) reindexShop(ctx context.Context, shopID uint) error {
	if im.ES == nil {
		return nil
	}

	var infos []models.ProductInfo
	if err := im.DB.WithContext(ctx).
		Preload("Product").
		Where("shop_id = ?", shopID).
		Find(&infos).Error; err != nil {
		return err
	}

	for _, info := range infos {
		doc := ListingDoc{
			ID:     info.ID,
			Model:  info.Model,
			ShopID: info.ShopID,
			Price:  info.Price,
		}
		if info.Product != nil {
			doc.Name = info.Product.Name
			doc.CategoryID = info.Product.CategoryID
		}

		body, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		res, err := im.ES.Index(
			im.Index,
			bytes.NewReader(body),
			im.ES.Index.WithDocumentID(strconv.FormatUint(uint64(info.ID), 10)),
			im.ES.Index.WithContext(ctx),
		)
		if err != nil {
			return err
		}
		res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("es index: %s", res.Status())
		}
	}
	return nil
}
