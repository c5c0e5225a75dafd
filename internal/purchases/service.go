package purchases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
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

// LineInput is one product line on a purchase.
type LineInput struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	UnitCost  decimal.Decimal `json:"unit_cost" validate:"required"`
}

// CreateRequest carries everything needed to record a purchase. TotalAmount
// is taken as supplied by the caller, not recomputed from lines.
type CreateRequest struct {
	SupplierID   uuid.UUID       `json:"supplier_id" validate:"required"`
	PurchaseNo   string          `json:"purchase_no" validate:"required,max=64"`
	PurchaseDate time.Time       `json:"purchase_date" validate:"required"`
	TotalAmount  decimal.Decimal `json:"total_amount" validate:"required"`
	Lines        []LineInput     `json:"lines" validate:"required,min=1,dive"`
}

// UpdateRequest updates header fields and appends any provided lines to the
// existing set. Lines are never replaced or removed through this path.
type UpdateRequest struct {
	PurchaseDate *time.Time       `json:"purchase_date,omitempty"`
	TotalAmount  *decimal.Decimal `json:"total_amount,omitempty"`
	Lines        []LineInput      `json:"lines,omitempty" validate:"omitempty,dive"`
}

// Service owns the purchase lifecycle: creation, approval with stock
// addition, header updates and deletion.
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreateRequest) (*models.Purchase, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error)
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Purchase], error)
	Approve(ctx context.Context, actorID, purchaseID uuid.UUID) (*models.Purchase, error)
	Update(ctx context.Context, actorID, purchaseID uuid.UUID, req UpdateRequest) (*models.Purchase, error)
	Delete(ctx context.Context, actorID, purchaseID uuid.UUID) error
}

type service struct {
	tx        repo.TxRunner
	purchases Repository
	inventory inventory.Store
	audit     audit.Writer
	logg      *logger.Logger
}

// NewService wires the purchase lifecycle service.
func NewService(tx repo.TxRunner, purchases Repository, inv inventory.Store, auditWriter audit.Writer, logg *logger.Logger) Service {
	return &service{
		tx:        tx,
		purchases: purchases,
		inventory: inv,
		audit:     auditWriter,
		logg:      logg,
	}
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, req CreateRequest) (*models.Purchase, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}
	if len(req.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase requires at least one line")
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
	}

	var created *models.Purchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		purchasesRepo := s.purchases.WithTx(tx)

		exists, err := purchasesRepo.ExistsPurchaseNo(ctx, req.PurchaseNo)
		if err != nil {
			return err
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "purchase number already exists").
				WithDetails(map[string]any{"purchase_no": req.PurchaseNo})
		}

		purchase := &models.Purchase{
			SupplierID:   req.SupplierID,
			PurchaseNo:   req.PurchaseNo,
			PurchaseDate: req.PurchaseDate,
			Status:       enums.PurchaseStatusPending,
			TotalAmount:  req.TotalAmount,
			CreatedBy:    actorID,
		}
		if err := purchasesRepo.Create(ctx, purchase); err != nil {
			return err
		}

		details := make([]models.PurchaseDetail, len(req.Lines))
		for i, line := range req.Lines {
			qty := decimal.NewFromInt(int64(line.Quantity))
			details[i] = models.PurchaseDetail{
				PurchaseID: purchase.ID,
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitCost:   line.UnitCost,
				Total:      line.UnitCost.Mul(qty),
			}
			if err := purchasesRepo.CreateDetail(ctx, &details[i]); err != nil {
				return err
			}
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionCreate,
			SubjectType: enums.ActivitySubjectPurchase,
			SubjectID:   purchase.ID,
			Details: map[string]any{
				"purchase_no":  purchase.PurchaseNo,
				"total_amount": purchase.TotalAmount,
				"line_count":   len(details),
			},
		}); err != nil {
			return err
		}

		purchase.Details = details
		created = purchase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	purchase, err := s.purchases.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if purchase == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	}
	return purchase, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Purchase], error) {
	return s.purchases.List(ctx, query)
}

func (s *service) Approve(ctx context.Context, actorID, purchaseID uuid.UUID) (*models.Purchase, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	var updated *models.Purchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		purchasesRepo := s.purchases.WithTx(tx)
		purchase, err := purchasesRepo.FindByID(ctx, purchaseID)
		if err != nil {
			return err
		}
		if purchase == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		if purchase.Status != enums.PurchaseStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot approve purchase in status %s", purchase.Status))
		}

		inv := s.inventory.WithTx(tx)
		changes := []map[string]any{}
		for _, detail := range purchase.Details {
			adjusted, err := inv.AdjustQuantity(ctx, detail.ProductID, detail.Quantity)
			if err != nil {
				if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
					continue
				}
				return err
			}
			changes = append(changes, map[string]any{
				"product_id":   adjusted.ID,
				"code":         adjusted.Code,
				"old_quantity": adjusted.Quantity - detail.Quantity,
				"new_quantity": adjusted.Quantity,
				"added":        detail.Quantity,
			})
		}

		purchase.Status = enums.PurchaseStatusApproved
		purchase.UpdatedBy = &actorID
		if err := purchasesRepo.Save(ctx, purchase); err != nil {
			return err
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionApprove,
			SubjectType: enums.ActivitySubjectPurchase,
			SubjectID:   purchase.ID,
			Details: map[string]any{
				"purchase_no": purchase.PurchaseNo,
				"changes":     changes,
			},
		}); err != nil {
			return err
		}

		updated = purchase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Update(ctx context.Context, actorID, purchaseID uuid.UUID, req UpdateRequest) (*models.Purchase, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
	}

	var updated *models.Purchase
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		purchasesRepo := s.purchases.WithTx(tx)
		purchase, err := purchasesRepo.FindByID(ctx, purchaseID)
		if err != nil {
			return err
		}
		if purchase == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}
		if purchase.Status != enums.PurchaseStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot update purchase in status %s", purchase.Status))
		}

		oldValues := map[string]any{
			"purchase_date": purchase.PurchaseDate.Format("2006-01-02"),
			"total_amount":  purchase.TotalAmount,
		}

		if req.PurchaseDate != nil {
			purchase.PurchaseDate = *req.PurchaseDate
		}
		if req.TotalAmount != nil {
			purchase.TotalAmount = *req.TotalAmount
		}
		purchase.UpdatedBy = &actorID
		if err := purchasesRepo.Save(ctx, purchase); err != nil {
			return err
		}

		for _, line := range req.Lines {
			qty := decimal.NewFromInt(int64(line.Quantity))
			detail := models.PurchaseDetail{
				PurchaseID: purchase.ID,
				ProductID:  line.ProductID,
				Quantity:   line.Quantity,
				UnitCost:   line.UnitCost,
				Total:      line.UnitCost.Mul(qty),
			}
			if err := purchasesRepo.CreateDetail(ctx, &detail); err != nil {
				return err
			}
			purchase.Details = append(purchase.Details, detail)
		}

		newValues := map[string]any{
			"purchase_date": purchase.PurchaseDate.Format("2006-01-02"),
			"total_amount":  purchase.TotalAmount,
		}

		details := map[string]any{"appended_lines": len(req.Lines)}
		if diff := audit.Diff(oldValues, newValues); diff != nil {
			details["fields"] = diff
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionUpdate,
			SubjectType: enums.ActivitySubjectPurchase,
			SubjectID:   purchase.ID,
			Details:     details,
		}); err != nil {
			return err
		}

		updated = purchase
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, actorID, purchaseID uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		purchasesRepo := s.purchases.WithTx(tx)
		purchase, err := purchasesRepo.FindByID(ctx, purchaseID)
		if err != nil {
			return err
		}
		if purchase == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
		}

		// An approved purchase already restocked its products; deleting it
		// would erase the record behind a live stock adjustment.
		if purchase.Status != enums.PurchaseStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot delete purchase in %s status", purchase.Status))
		}

		if err := purchasesRepo.Delete(ctx, purchaseID); err != nil {
			return err
		}

		return s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionDelete,
			SubjectType: enums.ActivitySubjectPurchase,
			SubjectID:   purchaseID,
			Details:     map[string]any{"purchase_no": purchase.PurchaseNo},
		})
	})
}
