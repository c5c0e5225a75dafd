package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// ListQuery configures product list and search queries.
type ListQuery struct {
	CategoryID *uuid.UUID
	Search     string
	Pagination pagination.Params
}

// Repository handles product persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) error
	Save(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Product], error)
	ListAll(ctx context.Context) ([]models.Product, error)
	CountReferences(ctx context.Context, id uuid.UUID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a product repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category", "Unit").Create(product).Error
}

func (r *repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Omit("Category", "Unit").Save(product).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Unit").
		Where("id = ?", id).
		First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Product{}).Error
}

func (r *repository) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Product], error) {
	base := r.db.WithContext(ctx).Model(&models.Product{})
	if query.CategoryID != nil {
		base = base.Where("category_id = ?", *query.CategoryID)
	}
	if term := strings.TrimSpace(query.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		base = base.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	params := query.Pagination.Normalize()
	var rows []models.Product
	if err := base.
		Preload("Category").
		Preload("Unit").
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return pagination.NewPage(rows, params, total), nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Unit").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountReferences reports how many order and purchase lines point at the
// product. A non-zero count blocks deletion.
func (r *repository) CountReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var orderLines int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderDetail{}).
		Where("product_id = ?", id).
		Count(&orderLines).Error; err != nil {
		return 0, err
	}

	var purchaseLines int64
	if err := r.db.WithContext(ctx).
		Model(&models.PurchaseDetail{}).
		Where("product_id = ?", id).
		Count(&purchaseLines).Error; err != nil {
		return 0, err
	}

	return orderLines + purchaseLines, nil
}
