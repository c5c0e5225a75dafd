package purchases

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// ListQuery configures purchase list and search queries.
type ListQuery struct {
	Status     *enums.PurchaseStatus
	Search     string
	Pagination pagination.Params
}

// Repository handles purchase persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, purchase *models.Purchase) error
	CreateDetail(ctx context.Context, detail *models.PurchaseDetail) error
	Save(ctx context.Context, purchase *models.Purchase) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Purchase], error)
	ExistsPurchaseNo(ctx context.Context, purchaseNo string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a purchase repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Omit("Details", "Supplier").Create(purchase).Error
}

func (r *repository) CreateDetail(ctx context.Context, detail *models.PurchaseDetail) error {
	return r.db.WithContext(ctx).Omit("Product").Create(detail).Error
}

func (r *repository) Save(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Omit("Details", "Supplier").Save(purchase).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).
		Preload("Supplier").
		Preload("Details").
		Preload("Details.Product").
		Where("id = ?", id).
		First(&purchase).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &purchase, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("purchase_id = ?", id).
		Delete(&models.PurchaseDetail{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Purchase{}).Error
}

func (r *repository) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Purchase], error) {
	base := r.db.WithContext(ctx).Model(&models.Purchase{})
	if query.Status != nil {
		base = base.Where("purchases.status = ?", *query.Status)
	}
	if term := strings.TrimSpace(query.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		base = base.
			Joins("LEFT JOIN suppliers ON suppliers.id = purchases.supplier_id").
			Where("LOWER(purchases.purchase_no) LIKE ? OR LOWER(suppliers.name) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	params := query.Pagination.Normalize()
	var rows []models.Purchase
	if err := base.
		Preload("Supplier").
		Preload("Details").
		Order("purchases.created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return pagination.NewPage(rows, params, total), nil
}

func (r *repository) ExistsPurchaseNo(ctx context.Context, purchaseNo string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("purchase_no = ?", purchaseNo).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
