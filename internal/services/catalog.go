package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/electioncart/internal/errs"
	"github.com/example/electioncart/internal/models"
)

// ProductSummary is the catalog snapshot used when pricing cart and
// order lines.
type ProductSummary struct {
	Name     string
	Price    decimal.Decimal
	IsActive bool
}

// ResolveProduct loads the priced catalog entry behind a product ref.
func ResolveProduct(tx *gorm.DB, ref models.ProductRef) (ProductSummary, error) {
	switch ref.Type {
	case models.ProductPackage:
		var pkg models.Package
		if err := tx.First(&pkg, "id = ?", ref.ID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ProductSummary{}, errs.NotFound("package")
			}
			return ProductSummary{}, err
		}
		return ProductSummary{Name: pkg.Name, Price: pkg.Price, IsActive: pkg.IsActive}, nil

	case models.ProductCampaign:
		var c models.Campaign
		if err := tx.First(&c, "id = ?", ref.ID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ProductSummary{}, errs.NotFound("campaign")
			}
			return ProductSummary{}, err
		}
		return ProductSummary{Name: c.Name, Price: c.Price, IsActive: c.IsActive}, nil
	}

	return ProductSummary{}, errs.Validation("unknown product type")
}
