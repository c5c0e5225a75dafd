package contacts

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// ListQuery configures customer and supplier listings.
type ListQuery struct {
	Search     string
	Pagination pagination.Params
}

// CustomerRepository handles customer persistence.
type CustomerRepository interface {
	WithTx(tx *gorm.DB) CustomerRepository
	Create(ctx context.Context, customer *models.Customer) error
	Save(ctx context.Context, customer *models.Customer) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Customer], error)
	CountOrders(ctx context.Context, id uuid.UUID) (int64, error)
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository returns a customer repository bound to the database.
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) WithTx(tx *gorm.DB) CustomerRepository {
	if tx == nil {
		return r
	}
	return &customerRepository{db: tx}
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *customerRepository) Save(ctx context.Context, customer *models.Customer) error {
	return r.db.WithContext(ctx).Save(customer).Error
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&customer).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Customer{}).Error
}

func (r *customerRepository) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Customer], error) {
	base := r.db.WithContext(ctx).Model(&models.Customer{})
	if term := strings.TrimSpace(query.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		base = base.Where("LOWER(name) LIKE ? OR phone LIKE ?", pattern, "%"+term+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	params := query.Pagination.Normalize()
	var rows []models.Customer
	if err := base.
		Order("name ASC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return pagination.NewPage(rows, params, total), nil
}

func (r *customerRepository) CountOrders(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("customer_id = ?", id).
		Count(&count).Error
	return count, err
}

// SupplierRepository handles supplier persistence.
type SupplierRepository interface {
	WithTx(tx *gorm.DB) SupplierRepository
	Create(ctx context.Context, supplier *models.Supplier) error
	Save(ctx context.Context, supplier *models.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Supplier], error)
	CountPurchases(ctx context.Context, id uuid.UUID) (int64, error)
}

type supplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository returns a supplier repository bound to the database.
func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) WithTx(tx *gorm.DB) SupplierRepository {
	if tx == nil {
		return r
	}
	return &supplierRepository{db: tx}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Create(supplier).Error
}

func (r *supplierRepository) Save(ctx context.Context, supplier *models.Supplier) error {
	return r.db.WithContext(ctx).Save(supplier).Error
}

func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&supplier).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Supplier{}).Error
}

func (r *supplierRepository) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Supplier], error) {
	base := r.db.WithContext(ctx).Model(&models.Supplier{})
	if term := strings.TrimSpace(query.Search); term != "" {
		pattern := "%" + strings.ToLower(term) + "%"
		base = base.Where("LOWER(name) LIKE ? OR LOWER(COALESCE(shop_name, '')) LIKE ? OR phone LIKE ?",
			pattern, pattern, "%"+term+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	params := query.Pagination.Normalize()
	var rows []models.Supplier
	if err := base.
		Order("name ASC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return pagination.NewPage(rows, params, total), nil
}

func (r *supplierRepository) CountPurchases(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("supplier_id = ?", id).
		Count(&count).Error
	return count, err
}
