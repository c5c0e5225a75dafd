package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// NameRequest carries the single mutable field categories and units have.
type NameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// CategoryService owns category CRUD with the referenced-by-products guard.
type CategoryService interface {
	Create(ctx context.Context, actorID uuid.UUID, req NameRequest) (*models.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Category, error)
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Category], error)
	Update(ctx context.Context, actorID, id uuid.UUID, req NameRequest) (*models.Category, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type categoryService struct {
	tx         repo.TxRunner
	categories CategoryRepository
	audit      audit.Writer
	logg       *logger.Logger
}

// NewCategoryService wires the category service.
func NewCategoryService(tx repo.TxRunner, categories CategoryRepository, auditWriter audit.Writer, logg *logger.Logger) CategoryService {
	return &categoryService{tx: tx, categories: categories, audit: auditWriter, logg: logg}
}

func (s *categoryService) Create(ctx context.Context, actorID uuid.UUID, req NameRequest) (*models.Category, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	var created *models.Category
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		categories := s.categories.WithTx(tx)
		existing, err := categories.FindByName(ctx, req.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "category name already exists").
				WithDetails(map[string]any{"name": req.Name})
		}

		category := &models.Category{Name: req.Name}
		if err := categories.Create(ctx, category); err != nil {
			return err
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionCreate,
			SubjectType: enums.ActivitySubjectCategory,
			SubjectID:   category.ID,
			Details:     map[string]any{"name": category.Name},
		}); err != nil {
			return err
		}

		created = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return category, nil
}

func (s *categoryService) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Category], error) {
	return s.categories.List(ctx, query)
}

func (s *categoryService) Update(ctx context.Context, actorID, id uuid.UUID, req NameRequest) (*models.Category, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	var updated *models.Category
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		categories := s.categories.WithTx(tx)
		category, err := categories.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if category == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}

		if req.Name != category.Name {
			existing, err := categories.FindByName(ctx, req.Name)
			if err != nil {
				return err
			}
			if existing != nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "category name already exists").
					WithDetails(map[string]any{"name": req.Name})
			}
		}

		oldName := category.Name
		category.Name = req.Name
		if err := categories.Save(ctx, category); err != nil {
			return err
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionUpdate,
			SubjectType: enums.ActivitySubjectCategory,
			SubjectID:   category.ID,
			Details: map[string]any{"changes": audit.Diff(
				map[string]any{"name": oldName},
				map[string]any{"name": category.Name},
			)},
		}); err != nil {
			return err
		}

		updated = category
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *categoryService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		categories := s.categories.WithTx(tx)
		category, err := categories.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if category == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}

		products, err := categories.CountProducts(ctx, id)
		if err != nil {
			return err
		}
		if products > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "category is assigned to products").
				WithDetails(map[string]any{"products": products})
		}

		if err := categories.Delete(ctx, id); err != nil {
			return err
		}

		return s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionDelete,
			SubjectType: enums.ActivitySubjectCategory,
			SubjectID:   id,
			Details:     map[string]any{"name": category.Name},
		})
	})
}

// UnitService owns unit CRUD with the referenced-by-products guard.
type UnitService interface {
	Create(ctx context.Context, actorID uuid.UUID, req NameRequest) (*models.Unit, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Unit], error)
	Update(ctx context.Context, actorID, id uuid.UUID, req NameRequest) (*models.Unit, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type unitService struct {
	tx    repo.TxRunner
	units UnitRepository
	audit audit.Writer
	logg  *logger.Logger
}

// NewUnitService wires the unit service.
func NewUnitService(tx repo.TxRunner, units UnitRepository, auditWriter audit.Writer, logg *logger.Logger) UnitService {
	return &unitService{tx: tx, units: units, audit: auditWriter, logg: logg}
}

func (s *unitService) Create(ctx context.Context, actorID uuid.UUID, req NameRequest) (*models.Unit, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	var created *models.Unit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		units := s.units.WithTx(tx)
		existing, err := units.FindByName(ctx, req.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "unit name already exists").
				WithDetails(map[string]any{"name": req.Name})
		}

		unit := &models.Unit{Name: req.Name}
		if err := units.Create(ctx, unit); err != nil {
			return err
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionCreate,
			SubjectType: enums.ActivitySubjectUnit,
			SubjectID:   unit.ID,
			Details:     map[string]any{"name": unit.Name},
		}); err != nil {
			return err
		}

		created = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *unitService) Get(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	unit, err := s.units.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
	}
	return unit, nil
}

func (s *unitService) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Unit], error) {
	return s.units.List(ctx, query)
}

func (s *unitService) Update(ctx context.Context, actorID, id uuid.UUID, req NameRequest) (*models.Unit, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	var updated *models.Unit
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		units := s.units.WithTx(tx)
		unit, err := units.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if unit == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}

		if req.Name != unit.Name {
			existing, err := units.FindByName(ctx, req.Name)
			if err != nil {
				return err
			}
			if existing != nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "unit name already exists").
					WithDetails(map[string]any{"name": req.Name})
			}
		}

		oldName := unit.Name
		unit.Name = req.Name
		if err := units.Save(ctx, unit); err != nil {
			return err
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionUpdate,
			SubjectType: enums.ActivitySubjectUnit,
			SubjectID:   unit.ID,
			Details: map[string]any{"changes": audit.Diff(
				map[string]any{"name": oldName},
				map[string]any{"name": unit.Name},
			)},
		}); err != nil {
			return err
		}

		updated = unit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *unitService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		units := s.units.WithTx(tx)
		unit, err := units.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if unit == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "unit not found")
		}

		products, err := units.CountProducts(ctx, id)
		if err != nil {
			return err
		}
		if products > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "unit is assigned to products").
				WithDetails(map[string]any{"products": products})
		}

		if err := units.Delete(ctx, id); err != nil {
			return err
		}

		return s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionDelete,
			SubjectType: enums.ActivitySubjectUnit,
			SubjectID:   id,
			Details:     map[string]any{"name": unit.Name},
		})
	})
}
