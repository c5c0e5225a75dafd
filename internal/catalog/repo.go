package catalog

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// ListQuery configures category and unit listings.
type ListQuery struct {
	Search     string
	Pagination pagination.Params
}

// CategoryRepository handles category persistence.
type CategoryRepository interface {
	WithTx(tx *gorm.DB) CategoryRepository
	Create(ctx context.Context, category *models.Category) error
	Save(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Category], error)
	CountProducts(ctx context.Context, id uuid.UUID) (int64, error)
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository returns a category repository bound to the database.
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) WithTx(tx *gorm.DB) CategoryRepository {
	if tx == nil {
		return r
	}
	return &categoryRepository{db: tx}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) Save(ctx context.Context, category *models.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Category{}).Error
}

func (r *categoryRepository) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Category], error) {
	base := r.db.WithContext(ctx).Model(&models.Category{})
	if term := strings.TrimSpace(query.Search); term != "" {
		base = base.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	params := query.Pagination.Normalize()
	var rows []models.Category
	if err := base.
		Order("name ASC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return pagination.NewPage(rows, params, total), nil
}

func (r *categoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count, err
}

// UnitRepository handles unit persistence.
type UnitRepository interface {
	WithTx(tx *gorm.DB) UnitRepository
	Create(ctx context.Context, unit *models.Unit) error
	Save(ctx context.Context, unit *models.Unit) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	FindByName(ctx context.Context, name string) (*models.Unit, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Unit], error)
	CountProducts(ctx context.Context, id uuid.UUID) (int64, error)
}

type unitRepository struct {
	db *gorm.DB
}

// NewUnitRepository returns a unit repository bound to the database.
func NewUnitRepository(db *gorm.DB) UnitRepository {
	return &unitRepository{db: db}
}

func (r *unitRepository) WithTx(tx *gorm.DB) UnitRepository {
	if tx == nil {
		return r
	}
	return &unitRepository{db: tx}
}

func (r *unitRepository) Create(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *unitRepository) Save(ctx context.Context, unit *models.Unit) error {
	return r.db.WithContext(ctx).Save(unit).Error
}

func (r *unitRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	var unit models.Unit
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&unit).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepository) FindByName(ctx context.Context, name string) (*models.Unit, error) {
	var unit models.Unit
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&unit).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &unit, nil
}

func (r *unitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Unit{}).Error
}

func (r *unitRepository) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Unit], error) {
	base := r.db.WithContext(ctx).Model(&models.Unit{})
	if term := strings.TrimSpace(query.Search); term != "" {
		base = base.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, err
	}

	params := query.Pagination.Normalize()
	var rows []models.Unit
	if err := base.
		Order("name ASC").
		Offset(params.Offset()).
		Limit(params.Limit()).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	return pagination.NewPage(rows, params, total), nil
}

func (r *unitRepository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("unit_id = ?", id).
		Count(&count).Error
	return count, err
}
