package catalog

import (
	"context"

	"github.com/elastic/go-elasticsearch/v9"
	"gorm.io/gorm"

	"github.com/grishakov/marketplace/internal/feed"
	"github.com/grishakov/marketplace/internal/logging"
	"github.com/grishakov/marketplace/internal/models"
)

type Importer struct {
	DB    *gorm.DB
	ES    *elasticsearch.Client
	Index string
}

type Result struct {
	ShopID     uint `json:"shop_id"`
	Categories int  `json:"categories"`
	Goods      int  `json:"goods"`
}

// Import replaces the seller's catalog with the feed contents. All writes run
// in one transaction: a mid-import failure leaves the previous catalog intact.
func (im *Importer) Import(ctx context.Context, seller *models.User, doc *feed.Document, sourceURL string) (*Result, error) {
	var res Result

	txErr := im.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// New shops open for orders; a re-import must not reopen a closed one.
		var shop models.Shop
		if err := tx.Where(models.Shop{UserID: seller.ID}).
			Attrs(models.Shop{Opened: true}).
			Assign(models.Shop{Name: doc.Shop, URL: sourceURL}).
			FirstOrCreate(&shop).Error; err != nil {
			return err
		}
		res.ShopID = shop.ID

		for _, c := range doc.Categories {
			var cat models.Category
			if err := tx.Where(models.Category{ID: c.ID}).
				Assign(models.Category{Name: c.Name}).
				FirstOrCreate(&cat).Error; err != nil {
				return err
			}
			if err := tx.Model(&cat).Association("Shops").Append(&shop); err != nil {
				return err
			}
			res.Categories++
		}

		if err := wipeListings(tx, shop.ID); err != nil {
			return err
		}

		for _, good := range doc.Goods {
			var product models.Product
			if err := tx.Where(models.Product{Name: good.Name, CategoryID: good.Category}).
				FirstOrCreate(&product).Error; err != nil {
				return err
			}

			info := models.ProductInfo{
				ExternalID: good.ID,
				Model:      good.Model,
				ProductID:  product.ID,
				ShopID:     shop.ID,
				Quantity:   good.Quantity,
				Price:      good.Price,
				PriceRRC:   good.PriceRRC,
			}
			if err := tx.Create(&info).Error; err != nil {
				return err
			}

			for name, value := range good.Parameters {
				var param models.Parameter
				if err := tx.Where(models.Parameter{Name: name}).
					FirstOrCreate(&param).Error; err != nil {
					return err
				}
				link := models.ProductParameter{
					ProductInfoID: info.ID,
					ParameterID:   param.ID,
					Value:         value,
				}
				if err := tx.Create(&link).Error; err != nil {
					return err
				}
			}
			res.Goods++
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	if err := im.reindexShop(ctx, res.ShopID); err != nil {
		logging.FromContext(ctx).Error("catalog reindex failed", "shop_id", res.ShopID, "error", err)
	}

	return &res, nil
}

// wipeListings hard-deletes the shop's listings with their parameter links.
// Order items referencing them keep their rows but lose the listing join.
func wipeListings(tx *gorm.DB, shopID uint) error {
	var infoIDs []uint
	if err := tx.Model(&models.ProductInfo{}).
		Where("shop_id = ?", shopID).
		Pluck("id", &infoIDs).Error; err != nil {
		return err
	}
	if len(infoIDs) == 0 {
		return nil
	}
	if err := tx.Where("product_info_id IN ?", infoIDs).
		Delete(&models.ProductParameter{}).Error; err != nil {
		return err
	}
	return tx.Where("shop_id = ?", shopID).Delete(&models.ProductInfo{}).Error
}
