package contacts

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubCustomersRepo struct {
	customers map[uuid.UUID]*models.Customer
	orders    map[uuid.UUID]int64
}

func newStubCustomersRepo(customers ...*models.Customer) *stubCustomersRepo {
	byID := map[uuid.UUID]*models.Customer{}
	for _, c := range customers {
		byID[c.ID] = c
	}
	return &stubCustomersRepo{customers: byID, orders: map[uuid.UUID]int64{}}
}

func (r *stubCustomersRepo) WithTx(tx *gorm.DB) CustomerRepository { return r }

func (r *stubCustomersRepo) Create(ctx context.Context, customer *models.Customer) error {
	if customer.ID == uuid.Nil {
		customer.ID = uuid.New()
	}
	copied := *customer
	r.customers[customer.ID] = &copied
	return nil
}

func (r *stubCustomersRepo) Save(ctx context.Context, customer *models.Customer) error {
	copied := *customer
	r.customers[customer.ID] = &copied
	return nil
}

func (r *stubCustomersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, ok := r.customers[id]
	if !ok {
		return nil, nil
	}
	copied := *customer
	return &copied, nil
}

func (r *stubCustomersRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.customers, id)
	return nil
}

func (r *stubCustomersRepo) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Customer], error) {
	rows := []models.Customer{}
	for _, customer := range r.customers {
		rows = append(rows, *customer)
	}
	return pagination.NewPage(rows, query.Pagination, int64(len(rows))), nil
}

func (r *stubCustomersRepo) CountOrders(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.orders[id], nil
}

type stubSuppliersRepo struct {
	suppliers map[uuid.UUID]*models.Supplier
	purchases map[uuid.UUID]int64
}

func newStubSuppliersRepo(suppliers ...*models.Supplier) *stubSuppliersRepo {
	byID := map[uuid.UUID]*models.Supplier{}
	for _, s := range suppliers {
		byID[s.ID] = s
	}
	return &stubSuppliersRepo{suppliers: byID, purchases: map[uuid.UUID]int64{}}
}

func (r *stubSuppliersRepo) WithTx(tx *gorm.DB) SupplierRepository { return r }

func (r *stubSuppliersRepo) Create(ctx context.Context, supplier *models.Supplier) error {
	if supplier.ID == uuid.Nil {
		supplier.ID = uuid.New()
	}
	copied := *supplier
	r.suppliers[supplier.ID] = &copied
	return nil
}

func (r *stubSuppliersRepo) Save(ctx context.Context, supplier *models.Supplier) error {
	copied := *supplier
	r.suppliers[supplier.ID] = &copied
	return nil
}

func (r *stubSuppliersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	supplier, ok := r.suppliers[id]
	if !ok {
		return nil, nil
	}
	copied := *supplier
	return &copied, nil
}

func (r *stubSuppliersRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.suppliers, id)
	return nil
}

func (r *stubSuppliersRepo) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Supplier], error) {
	rows := []models.Supplier{}
	for _, supplier := range r.suppliers {
		rows = append(rows, *supplier)
	}
	return pagination.NewPage(rows, query.Pagination, int64(len(rows))), nil
}

func (r *stubSuppliersRepo) CountPurchases(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.purchases[id], nil
}

type stubAudit struct {
	entries []audit.Entry
}

func (a *stubAudit) WithTx(tx *gorm.DB) audit.Writer { return a }

func (a *stubAudit) Record(ctx context.Context, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *stubAudit) List(ctx context.Context, query audit.ListQuery) (*pagination.Page[models.ActivityLog], error) {
	return pagination.NewPage[models.ActivityLog](nil, query.Pagination, 0), nil
}

func TestCustomerCreateUpdateAudits(t *testing.T) {
	repo := newStubCustomersRepo()
	auditLog := &stubAudit{}
	svc := NewCustomerService(stubTx{}, repo, auditLog, nil)
	actor := uuid.New()

	customer, err := svc.Create(context.Background(), actor, CustomerRequest{Name: "Daw Mya", Phone: "0911"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), actor, customer.ID, CustomerRequest{Name: "Daw Mya Mya", Phone: "0922"})
	require.NoError(t, err)
	require.Equal(t, "Daw Mya Mya", updated.Name)

	require.Len(t, auditLog.entries, 2)
	require.Equal(t, enums.ActivitySubjectCustomer, auditLog.entries[0].SubjectType)
	require.Equal(t, enums.ActivityActionUpdate, auditLog.entries[1].Action)
}

func TestCustomerDeleteBlockedWhenOrdered(t *testing.T) {
	existing := &models.Customer{ID: uuid.New(), Name: "Daw Mya", Phone: "0911"}
	repo := newStubCustomersRepo(existing)
	repo.orders[existing.ID] = 4
	svc := NewCustomerService(stubTx{}, repo, &stubAudit{}, nil)

	err := svc.Delete(context.Background(), uuid.New(), existing.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
	require.Contains(t, repo.customers, existing.ID)
}

func TestSupplierDeleteBlockedWhenPurchasedFrom(t *testing.T) {
	existing := &models.Supplier{ID: uuid.New(), Name: "Acme Traders", Phone: "0911"}
	repo := newStubSuppliersRepo(existing)
	repo.purchases[existing.ID] = 1
	svc := NewSupplierService(stubTx{}, repo, &stubAudit{}, nil)

	err := svc.Delete(context.Background(), uuid.New(), existing.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestSupplierCreateAndDelete(t *testing.T) {
	repo := newStubSuppliersRepo()
	auditLog := &stubAudit{}
	svc := NewSupplierService(stubTx{}, repo, auditLog, nil)
	actor := uuid.New()

	shop := "Acme Shop"
	supplier, err := svc.Create(context.Background(), actor, SupplierRequest{Name: "Acme Traders", ShopName: &shop, Phone: "0911"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), actor, supplier.ID))
	require.NotContains(t, repo.suppliers, supplier.ID)

	require.Len(t, auditLog.entries, 2)
	require.Equal(t, enums.ActivityActionDelete, auditLog.entries[1].Action)
}

func TestCustomerGetMissing(t *testing.T) {
	svc := NewCustomerService(stubTx{}, newStubCustomersRepo(), &stubAudit{}, nil)

	_, err := svc.Get(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
