package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
)

// Store exposes product lookups and the atomic quantity adjustment used by
// the order and purchase lifecycles. AdjustQuantity must run inside the same
// transaction as the triggering line write; callers bind via WithTx.
type Store interface {
	WithTx(tx *gorm.DB) Store
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByCode(ctx context.Context, code string) (*models.Product, error)
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error)
}

type store struct {
	db *gorm.DB
}

// NewStore returns an inventory store bound to the provided database.
func NewStore(db *gorm.DB) Store {
	return &store{db: db}
}

func (s *store) WithTx(tx *gorm.DB) Store {
	if tx == nil {
		return s
	}
	return &store{db: tx}
}

func (s *store) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}
	return &product, nil
}

// FindByCode returns nil without an error when no live product carries the code.
func (s *store) FindByCode(ctx context.Context, code string) (*models.Product, error) {
	if code == "" {
		return nil, nil
	}
	var product models.Product
	if err := s.db.WithContext(ctx).
		Where("code = ?", code).
		First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

// AdjustQuantity locks the product row, applies the delta and returns the
// updated record. The result is not clamped; availability checks belong to
// the caller.
func (s *store) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, err
	}

	product.Quantity += delta
	if err := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("quantity", product.Quantity).Error; err != nil {
		return nil, err
	}
	return &product, nil
}
