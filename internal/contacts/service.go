package contacts

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

// CustomerRequest carries customer create and update payloads.
type CustomerRequest struct {
	Name    string  `json:"name" validate:"required,max=255"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   string  `json:"phone" validate:"required,max=32"`
	Address *string `json:"address" validate:"omitempty,max=500"`
}

// SupplierRequest carries supplier create and update payloads.
type SupplierRequest struct {
	Name     string  `json:"name" validate:"required,max=255"`
	ShopName *string `json:"shop_name" validate:"omitempty,max=255"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    string  `json:"phone" validate:"required,max=32"`
	Address  *string `json:"address" validate:"omitempty,max=500"`
}

// CustomerService owns customer CRUD with the referenced-by-orders guard.
type CustomerService interface {
	Create(ctx context.Context, actorID uuid.UUID, req CustomerRequest) (*models.Customer, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Customer], error)
	Update(ctx context.Context, actorID, id uuid.UUID, req CustomerRequest) (*models.Customer, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type customerService struct {
	tx        repo.TxRunner
	customers CustomerRepository
	audit     audit.Writer
	logg      *logger.Logger
}

// NewCustomerService wires the customer service.
func NewCustomerService(tx repo.TxRunner, customers CustomerRepository, auditWriter audit.Writer, logg *logger.Logger) CustomerService {
	return &customerService{tx: tx, customers: customers, audit: auditWriter, logg: logg}
}

func (s *customerService) Create(ctx context.Context, actorID uuid.UUID, req CustomerRequest) (*models.Customer, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	var created *models.Customer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		customer := &models.Customer{
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Address: req.Address,
		}
		if err := s.customers.WithTx(tx).Create(ctx, customer); err != nil {
			return err
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionCreate,
			SubjectType: enums.ActivitySubjectCustomer,
			SubjectID:   customer.ID,
			Details:     map[string]any{"name": customer.Name},
		}); err != nil {
			return err
		}

		created = customer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *customerService) Get(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
	}
	return customer, nil
}

func (s *customerService) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Customer], error) {
	return s.customers.List(ctx, query)
}

func (s *customerService) Update(ctx context.Context, actorID, id uuid.UUID, req CustomerRequest) (*models.Customer, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	var updated *models.Customer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		customers := s.customers.WithTx(tx)
		customer, err := customers.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if customer == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}

		before := map[string]any{"name": customer.Name, "phone": customer.Phone}
		customer.Name = req.Name
		customer.Email = req.Email
		customer.Phone = req.Phone
		customer.Address = req.Address
		if err := customers.Save(ctx, customer); err != nil {
			return err
		}

		details := map[string]any{"name": customer.Name}
		if changes := audit.Diff(before, map[string]any{"name": customer.Name, "phone": customer.Phone}); changes != nil {
			details["changes"] = changes
		}
		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionUpdate,
			SubjectType: enums.ActivitySubjectCustomer,
			SubjectID:   customer.ID,
			Details:     details,
		}); err != nil {
			return err
		}

		updated = customer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *customerService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		customers := s.customers.WithTx(tx)
		customer, err := customers.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if customer == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}

		orders, err := customers.CountOrders(ctx, id)
		if err != nil {
			return err
		}
		if orders > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "customer has orders on record").
				WithDetails(map[string]any{"orders": orders})
		}

		if err := customers.Delete(ctx, id); err != nil {
			return err
		}

		return s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionDelete,
			SubjectType: enums.ActivitySubjectCustomer,
			SubjectID:   id,
			Details:     map[string]any{"name": customer.Name},
		})
	})
}

// SupplierService owns supplier CRUD with the referenced-by-purchases guard.
type SupplierService interface {
	Create(ctx context.Context, actorID uuid.UUID, req SupplierRequest) (*models.Supplier, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	List(ctx context.Context, query ListQuery) (*pagination.Page[models.Supplier], error)
	Update(ctx context.Context, actorID, id uuid.UUID, req SupplierRequest) (*models.Supplier, error)
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

type supplierService struct {
	tx        repo.TxRunner
	suppliers SupplierRepository
	audit     audit.Writer
	logg      *logger.Logger
}

// NewSupplierService wires the supplier service.
func NewSupplierService(tx repo.TxRunner, suppliers SupplierRepository, auditWriter audit.Writer, logg *logger.Logger) SupplierService {
	return &supplierService{tx: tx, suppliers: suppliers, audit: auditWriter, logg: logg}
}

func (s *supplierService) Create(ctx context.Context, actorID uuid.UUID, req SupplierRequest) (*models.Supplier, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	var created *models.Supplier
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		supplier := &models.Supplier{
			Name:     req.Name,
			ShopName: req.ShopName,
			Email:    req.Email,
			Phone:    req.Phone,
			Address:  req.Address,
		}
		if err := s.suppliers.WithTx(tx).Create(ctx, supplier); err != nil {
			return err
		}

		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionCreate,
			SubjectType: enums.ActivitySubjectSupplier,
			SubjectID:   supplier.ID,
			Details:     map[string]any{"name": supplier.Name},
		}); err != nil {
			return err
		}

		created = supplier
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *supplierService) Get(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if supplier == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	return supplier, nil
}

func (s *supplierService) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Supplier], error) {
	return s.suppliers.List(ctx, query)
}

func (s *supplierService) Update(ctx context.Context, actorID, id uuid.UUID, req SupplierRequest) (*models.Supplier, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	var updated *models.Supplier
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		suppliers := s.suppliers.WithTx(tx)
		supplier, err := suppliers.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if supplier == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}

		before := map[string]any{"name": supplier.Name, "phone": supplier.Phone}
		supplier.Name = req.Name
		supplier.ShopName = req.ShopName
		supplier.Email = req.Email
		supplier.Phone = req.Phone
		supplier.Address = req.Address
		if err := suppliers.Save(ctx, supplier); err != nil {
			return err
		}

		details := map[string]any{"name": supplier.Name}
		if changes := audit.Diff(before, map[string]any{"name": supplier.Name, "phone": supplier.Phone}); changes != nil {
			details["changes"] = changes
		}
		if err := s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionUpdate,
			SubjectType: enums.ActivitySubjectSupplier,
			SubjectID:   supplier.ID,
			Details:     details,
		}); err != nil {
			return err
		}

		updated = supplier
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *supplierService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		suppliers := s.suppliers.WithTx(tx)
		supplier, err := suppliers.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if supplier == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}

		purchases, err := suppliers.CountPurchases(ctx, id)
		if err != nil {
			return err
		}
		if purchases > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "supplier has purchases on record").
				WithDetails(map[string]any{"purchases": purchases})
		}

		if err := suppliers.Delete(ctx, id); err != nil {
			return err
		}

		return s.audit.WithTx(tx).Record(ctx, audit.Entry{
			ActorID:     actorID,
			Action:      enums.ActivityActionDelete,
			SubjectType: enums.ActivitySubjectSupplier,
			SubjectID:   id,
			Details:     map[string]any{"name": supplier.Name},
		})
	})
}
