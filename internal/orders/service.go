package orders

import (
	"context"
	"fmt"

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
	"github.com/angelmondragon/stockroom-backend/pkg/security"
)

const invoiceDigits = 10

// Service owns the order lifecycle: creation with stock deduction,
// completion, cancellation and return with stock restitution.
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, req CreateRequest) (*models.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Order], error)
	Complete(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error)
	Cancel(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error)
	Return(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error)
	Delete(ctx context.Context, actorID, orderID uuid.UUID) error
}

type service struct {
	tx        repo.TxRunner
	orders    Repository
	inventory inventory.Store
	audit     audit.Writer
	logg      *logger.Logger
}

// NewService wires the order lifecycle service.
func NewService(tx repo.TxRunner, orders Repository, inv inventory.Store, auditWriter audit.Writer, logg *logger.Logger) Service {
	return &service{
		tx:        tx,
		orders:    orders,
		inventory: inv,
		audit:     auditWriter,
		logg:      logg,
	}
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, req CreateRequest) (*models.Order, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}
	if len(req.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line")
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		inv := s.inventory.WithTx(tx)

		// Availability check runs against every line before anything is
		// persisted so the failure payload lists all shortfalls at once.
		products := make([]*models.Product, len(req.Lines))
		outOfStock := []OutOfStockItem{}
		for i, line := range req.Lines {
			product, err := inv.FindByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			products[i] = product
			if product.Quantity < line.Quantity {
				outOfStock = append(outOfStock, OutOfStockItem{
					ProductID: product.ID,
					Code:      product.Code,
					Name:      product.Name,
					Available: product.Quantity,
					Required:  line.Quantity,
				})
			}
		}
		if len(outOfStock) > 0 {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "insufficient stock").
				WithDetails(map[string]any{"items": outOfStock})
		}

		invoiceNo, err := s.generateInvoiceNo(ctx, ordersRepo)
		if err != nil {
			return err
		}

		subTotal := decimal.Zero
		vat := decimal.Zero
		details := make([]models.OrderDetail, len(req.Lines))
		for i, line := range req.Lines {
			product := products[i]
			qty := decimal.NewFromInt(int64(line.Quantity))
			lineTotal := product.SellingPrice.Mul(qty)
			subTotal = subTotal.Add(lineTotal)
			if product.TaxType == enums.TaxTypeExclusive {
				vat = vat.Add(product.Tax.Mul(qty))
			}
			details[i] = models.OrderDetail{
				ProductID: product.ID,
				Quantity:  line.Quantity,
				UnitCost:  product.SellingPrice,
				Total:     lineTotal,
			}
		}

		discount := req.DiscountPercent.Div(decimal.NewFromInt(100)).Mul(subTotal).Round(2)
		total := subTotal.Add(vat).Add(req.Shipping).Sub(discount)
		due := total.Sub(req.Pay)

		order := &models.Order{
			CustomerID: req.CustomerID,
			InvoiceNo:  invoiceNo,
			OrderDate:  req.OrderDate,
			Status:     enums.OrderStatusPending,
			SubTotal:   subTotal,
			Vat:        vat,
			Discount:   discount,
			Shipping:   req.Shipping,
			Total:      total,
			Pay:        req.Pay,
			Due:        due,
			CreatedBy:  actorID,
		}
		if err := ordersRepo.Create(ctx, order); err != nil {
			return err
		}

		changes := make([]quantityChange, 0, len(details))
		for i := range details {
			details[i].OrderID = order.ID
			if err := ordersRepo.CreateDetail(ctx, &details[i]); err != nil {
				return err
			}
			adjusted, err := inv.AdjustQuantity(ctx, details[i].ProductID, -details[i].Quantity)
			if err != nil {
				return err
			}
			changes = append(changes, quantityChange{
				ProductID:   adjusted.ID,
				Code:        adjusted.Code,
				OldQuantity: adjusted.Quantity + details[i].Quantity,
				NewQuantity: adjusted.Quantity,
				Delta:       -details[i].Quantity,
			})
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionCreate,
			SubjectType: enums.ActivitySubjectOrder,
			SubjectID:   order.ID,
			Details: map[string]any{
				"invoice_no": order.InvoiceNo,
				"total":      order.Total,
				"changes":    changes,
			},
		}); err != nil {
			return err
		}

		order.Details = details
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) generateInvoiceNo(ctx context.Context, ordersRepo Repository) (string, error) {
	// One retry on collision; the unique index is the real guarantee.
	for attempt := 0; attempt < 2; attempt++ {
		digits, err := security.RandomDigits(invoiceDigits)
		if err != nil {
			return "", err
		}
		invoiceNo := fmt.Sprintf("INV-%s", digits)
		exists, err := ordersRepo.ExistsInvoiceNo(ctx, invoiceNo)
		if err != nil {
			return "", err
		}
		if !exists {
			return invoiceNo, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique invoice number")
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Order], error) {
	return s.orders.List(ctx, query)
}

func (s *service) Complete(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, actorID, orderID, enums.OrderStatusComplete, enums.ActivityActionComplete, false)
}

func (s *service) Cancel(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, actorID, orderID, enums.OrderStatusCancel, enums.ActivityActionCancel, true)
}

func (s *service) Return(ctx context.Context, actorID, orderID uuid.UUID) (*models.Order, error) {
	return s.transition(ctx, actorID, orderID, enums.OrderStatusReturn, enums.ActivityActionReturn, true)
}

// transition applies a guarded status change. Restocking transitions add each
// line's quantity back, skipping products that no longer exist.
func (s *service) transition(ctx context.Context, actorID, orderID uuid.UUID, target enums.OrderStatus, action enums.ActivityAction, restock bool) (*models.Order, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		order, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if err := guardTransition(order.Status, target); err != nil {
			return err
		}

		changes := []quantityChange{}
		if restock {
			inv := s.inventory.WithTx(tx)
			for _, detail := range order.Details {
				adjusted, err := inv.AdjustQuantity(ctx, detail.ProductID, detail.Quantity)
				if err != nil {
					if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
						continue
					}
					return err
				}
				changes = append(changes, quantityChange{
					ProductID:   adjusted.ID,
					Code:        adjusted.Code,
					OldQuantity: adjusted.Quantity - detail.Quantity,
					NewQuantity: adjusted.Quantity,
					Delta:       detail.Quantity,
				})
			}
		}

		oldStatus := order.Status
		order.Status = target
		order.UpdatedBy = &actorID
		if err := ordersRepo.Save(ctx, order); err != nil {
			return err
		}

		details := map[string]any{
			"status": audit.Diff(
				map[string]any{"status": oldStatus},
				map[string]any{"status": target},
			)["status"],
		}
		if len(changes) > 0 {
			details["changes"] = changes
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      action,
			SubjectType: enums.ActivitySubjectOrder,
			SubjectID:   order.ID,
			Details:     details,
		}); err != nil {
			return err
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func guardTransition(current, target enums.OrderStatus) error {
	allowed := false
	switch target {
	case enums.OrderStatusComplete, enums.OrderStatusCancel:
		allowed = current == enums.OrderStatusPending
	case enums.OrderStatusReturn:
		allowed = current == enums.OrderStatusComplete
	}
	if !allowed {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition order from %s to %s", current, target))
	}
	return nil
}

func (s *service) Delete(ctx context.Context, actorID, orderID uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.orders.WithTx(tx)
		order, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}

		// Pending and completed orders hold live stock adjustments; only
		// cancelled or returned orders may be removed.
		if order.Status != enums.OrderStatusCancel && order.Status != enums.OrderStatusReturn {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot delete order in %s status", order.Status))
		}

		if err := ordersRepo.Delete(ctx, orderID); err != nil {
			return err
		}

		return s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionDelete,
			SubjectType: enums.ActivitySubjectOrder,
			SubjectID:   orderID,
			Details:     map[string]any{"invoice_no": order.InvoiceNo},
		})
	})
}
