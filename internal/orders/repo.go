package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// ListQuery configures order list and search queries.
type ListQuery struct {
	Status     *enums.OrderStatus
	Search     string
	Pagination pagination.Params
}

// Repository handles order persistence.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateDetail(ctx context.Context, detail *models.OrderDetail) error
	Save(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Order], error)
	ExistsInvoiceNo(ctx context.Context, invoiceNo string) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Details", "Customer").Create(order).Error
}

func (r *repository) CreateDetail(ctx context.Context, detail *models.OrderDetail) error {
	return r.db.WithContext(ctx).Omit("Product").Create(detail).Error
}

func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Details", "Customer").Save(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Customer").
		Preload("Details").
		Preload("Details.Product").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", id).
		Delete(&models.OrderDetail{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Order{}).Error
}

func (r *repository) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Order], error) {
	base := r.db.WithContext(ctx).Model(&models.Order{})
	if query.Status != nil {
		base = base.Where("orders.status = ?", *query.Status)
	}
	if term := strings.TrimSpace(query.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		base = base.
			Joins("LEFT JOIN customers ON customers.id = orders.customer_id").
			Where("LOWER(orders.invoice_no) LIKE ? OR LOWER(customers.name) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	params := query.Pagination.Normalize()
	var rows []models.Order
	if err := base.
		Preload("Customer").
		Preload("Details").
		Order("orders.created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return pagination.NewPage(rows, params, total), nil
}

func (r *repository) ExistsInvoiceNo(ctx context.Context, invoiceNo string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("invoice_no = ?", invoiceNo).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
