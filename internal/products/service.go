package products

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/internal/inventory"
	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

// CreateRequest carries a new product.
type CreateRequest struct {
	Name         string          `json:"name" validate:"required,max=255"`
	Code         string          `json:"code" validate:"required,max=64"`
	CategoryID   uuid.UUID       `json:"category_id" validate:"required"`
	UnitID       uuid.UUID       `json:"unit_id" validate:"required"`
	Quantity     int             `json:"quantity" validate:"gte=0"`
	BuyingPrice  decimal.Decimal `json:"buying_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Tax          decimal.Decimal `json:"tax"`
	TaxType      enums.TaxType   `json:"tax_type" validate:"omitempty,oneof=exclusive inclusive"`
}

// UpdateRequest carries a partial product update. Nil fields are untouched.
// Quantity is deliberately absent: stock only moves through the order and
// purchase lifecycles.
type UpdateRequest struct {
	Name         *string          `json:"name" validate:"omitempty,max=255"`
	Code         *string          `json:"code" validate:"omitempty,max=64"`
	CategoryID   *uuid.UUID       `json:"category_id"`
	UnitID       *uuid.UUID       `json:"unit_id"`
	BuyingPrice  *decimal.Decimal `json:"buying_price"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	Tax          *decimal.Decimal `json:"tax"`
	TaxType      *enums.TaxType   `json:"tax_type" validate:"omitempty,oneof=exclusive inclusive"`
}

// Service owns product CRUD, the deletion guard and the xlsx export.
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreateRequest) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Product], error)
	Update(ctx context.Context, actorID, id uuid.UUID, req UpdateRequest) (*models.Product, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
	Export(ctx context.Context, actorID uuid.UUID) (*excelize.File, error)
}

type service struct {
	tx        repo.TxRunner
	products  Repository
	inventory inventory.Store
	audit     audit.Writer
	logg      *logger.Logger
}

// NewService wires the product service.
func NewService(tx repo.TxRunner, products Repository, inv inventory.Store, auditWriter audit.Writer, logg *logger.Logger) Service {
	return &service{
		tx:        tx,
		products:  products,
		inventory: inv,
		audit:     auditWriter,
		logg:      logg,
	}
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, req CreateRequest) (*models.Product, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}
	if req.BuyingPrice.IsNegative() || req.SellingPrice.IsNegative() || req.Tax.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices and tax must be non-negative")
	}

	taxType := req.TaxType
	if taxType == "" {
		taxType = enums.TaxTypeExclusive
	}

	var created *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		existing, err := s.inventory.WithTx(tx).FindByCode(ctx, req.Code)
		if err != nil {
			return err
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "product code already exists").
				WithDetails(map[string]any{"code": req.Code})
		}

		product := &models.Product{
			Name:         req.Name,
			Code:         req.Code,
			Quantity:     req.Quantity,
			BuyingPrice:  req.BuyingPrice,
			SellingPrice: req.SellingPrice,
			Tax:          req.Tax,
			TaxType:      taxType,
			CategoryID:   req.CategoryID,
			UnitID:       req.UnitID,
		}
		if err := s.products.WithTx(tx).Create(ctx, product); err != nil {
			return err
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionCreate,
			SubjectType: enums.ActivitySubjectProduct,
			SubjectID:   product.ID,
			Details:     map[string]any{"code": product.Code, "name": product.Name},
		}); err != nil {
			return err
		}

		created = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Product], error) {
	return s.products.List(ctx, query)
}

func (s *service) Update(ctx context.Context, actorID, id uuid.UUID, req UpdateRequest) (*models.Product, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	var updated *models.Product
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productsRepo := s.products.WithTx(tx)
		product, err := productsRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		before := snapshotFields(product)

		if req.Code != nil && *req.Code != product.Code {
			existing, err := s.inventory.WithTx(tx).FindByCode(ctx, *req.Code)
			if err != nil {
				return err
			}
			if existing != nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "product code already exists").
					WithDetails(map[string]any{"code": *req.Code})
			}
			product.Code = *req.Code
		}
		if req.Name != nil {
			product.Name = *req.Name
		}
		if req.CategoryID != nil {
			product.CategoryID = *req.CategoryID
		}
		if req.UnitID != nil {
			product.UnitID = *req.UnitID
		}
		if req.BuyingPrice != nil {
			if req.BuyingPrice.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "buying price must be non-negative")
			}
			product.BuyingPrice = *req.BuyingPrice
		}
		if req.SellingPrice != nil {
			if req.SellingPrice.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "selling price must be non-negative")
			}
			product.SellingPrice = *req.SellingPrice
		}
		if req.Tax != nil {
			if req.Tax.IsNegative() {
				return pkgerrors.New(pkgerrors.CodeValidation, "tax must be non-negative")
			}
			product.Tax = *req.Tax
		}
		if req.TaxType != nil {
			if !req.TaxType.IsValid() {
				return pkgerrors.New(pkgerrors.CodeValidation, "invalid tax type")
			}
			product.TaxType = *req.TaxType
		}

		if err := productsRepo.Save(ctx, product); err != nil {
			return err
		}

		details := map[string]any{"code": product.Code}
		if changes := audit.Diff(before, snapshotFields(product)); changes != nil {
			details["changes"] = changes
		}
		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionUpdate,
			SubjectType: enums.ActivitySubjectProduct,
			SubjectID:   product.ID,
			Details:     details,
		}); err != nil {
			return err
		}

		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		productsRepo := s.products.WithTx(tx)
		product, err := productsRepo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		references, err := productsRepo.CountReferences(ctx, id)
		if err != nil {
			return err
		}
		if references > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "product is referenced by orders or purchases").
				WithDetails(map[string]any{"references": references})
		}

		if err := productsRepo.Delete(ctx, id); err != nil {
			return err
		}

		return s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionDelete,
			SubjectType: enums.ActivitySubjectProduct,
			SubjectID:   id,
			Details:     map[string]any{"code": product.Code, "name": product.Name},
		})
	})
}

var exportHeader = []string{
	"Product Name", "Category", "Unit", "Product Code",
	"Buying Price", "Selling Price", "Quantity", "Tax", "Tax Type",
}

// Export renders the full product list as an xlsx workbook. The column
// layout matches what the import pipeline accepts, so an export round-trips.
func (s *service) Export(ctx context.Context, actorID uuid.UUID) (*excelize.File, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for col, label := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, label); err != nil {
			return nil, err
		}
	}

	for row, product := range products {
		categoryName := ""
		if product.Category != nil {
			categoryName = product.Category.Name
		}
		unitName := ""
		if product.Unit != nil {
			unitName = product.Unit.Name
		}
		values := []any{
			product.Name,
			categoryName,
			unitName,
			product.Code,
			product.BuyingPrice.String(),
			product.SellingPrice.String(),
			product.Quantity,
			product.Tax.String(),
			product.TaxType.String(),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	if err := s.audit.Record(ctx, audit.Entry{
		ActorID:     actorID,
		Action:      enums.ActivityActionExport,
		SubjectType: enums.ActivitySubjectProduct,
		Details:     map[string]any{"rows": len(products)},
	}); err != nil {
		return nil, err
	}

	return f, nil
}

func snapshotFields(p *models.Product) map[string]any {
	return map[string]any{
		"name":          p.Name,
		"code":          p.Code,
		"category_id":   p.CategoryID,
		"unit_id":       p.UnitID,
		"buying_price":  p.BuyingPrice,
		"selling_price": p.SellingPrice,
		"tax":           p.Tax,
		"tax_type":      p.TaxType,
	}
}

// ExportFileName builds the attachment name for the export download.
func ExportFileName(date string) string {
	return fmt.Sprintf("products-%s.xlsx", date)
}
