package imports

import (
	"context"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/products"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
)

// productRepoCreator narrows the full product repository down to the
// creation surface the importer needs.
type productRepoCreator struct {
	repo products.Repository
}

// NewProductCreator adapts the product repository into a ProductCreator.
func NewProductCreator(repo products.Repository) ProductCreator {
	return productRepoCreator{repo: repo}
}

func (c productRepoCreator) WithTx(tx *gorm.DB) ProductCreator {
	return productRepoCreator{repo: c.repo.WithTx(tx)}
}

func (c productRepoCreator) Create(ctx context.Context, product *models.Product) error {
	return c.repo.Create(ctx, product)
}
