package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/internal/inventory"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrdersRepo struct {
	orders  map[uuid.UUID]*models.Order
	details map[uuid.UUID][]models.OrderDetail
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{
		orders:  map[uuid.UUID]*models.Order{},
		details: map[uuid.UUID][]models.OrderDetail{},
	}
}

func (r *stubOrdersRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *stubOrdersRepo) CreateDetail(ctx context.Context, detail *models.OrderDetail) error {
	r.details[detail.OrderID] = append(r.details[detail.OrderID], *detail)
	return nil
}

func (r *stubOrdersRepo) Save(ctx context.Context, order *models.Order) error {
	copied := *order
	r.orders[order.ID] = &copied
	return nil
}

func (r *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	copied := *order
	copied.Details = append([]models.OrderDetail{}, r.details[id]...)
	return &copied, nil
}

func (r *stubOrdersRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.orders, id)
	delete(r.details, id)
	return nil
}

func (r *stubOrdersRepo) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Order], error) {
	rows := []models.Order{}
	for _, order := range r.orders {
		if query.Status != nil && order.Status != *query.Status {
			continue
		}
		rows = append(rows, *order)
	}
	return pagination.NewPage(rows, query.Pagination, int64(len(rows))), nil
}

func (r *stubOrdersRepo) ExistsInvoiceNo(ctx context.Context, invoiceNo string) (bool, error) {
	for _, order := range r.orders {
		if order.InvoiceNo == invoiceNo {
			return true, nil
		}
	}
	return false, nil
}

type stubInventory struct {
	products map[uuid.UUID]*models.Product
}

func newStubInventory(products ...*models.Product) *stubInventory {
	byID := map[uuid.UUID]*models.Product{}
	for _, p := range products {
		byID[p.ID] = p
	}
	return &stubInventory{products: byID}
}

func (s *stubInventory) WithTx(tx *gorm.DB) inventory.Store { return s }

func (s *stubInventory) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	copied := *product
	return &copied, nil
}

func (s *stubInventory) FindByCode(ctx context.Context, code string) (*models.Product, error) {
	for _, product := range s.products {
		if product.Code == code {
			copied := *product
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *stubInventory) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*models.Product, error) {
	product, ok := s.products[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	product.Quantity += delta
	copied := *product
	return &copied, nil
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

func testProduct(code string, quantity int, price, tax int64) *models.Product {
	return &models.Product{
		ID:           uuid.New(),
		Name:         "Product " + code,
		Code:         code,
		Quantity:     quantity,
		BuyingPrice:  decimal.NewFromInt(price / 2),
		SellingPrice: decimal.NewFromInt(price),
		Tax:          decimal.NewFromInt(tax),
		TaxType:      enums.TaxTypeExclusive,
	}
}

func newTestService(inv *stubInventory, repo *stubOrdersRepo, auditLog *stubAudit) Service {
	return NewService(stubTx{}, repo, inv, auditLog, nil)
}

func TestCreateDeductsStockAndComputesTotals(t *testing.T) {
	p := testProduct("P-001", 20, 100, 5)
	inv := newStubInventory(p)
	repo := newStubOrdersRepo()
	auditLog := &stubAudit{}
	svc := newTestService(inv, repo, auditLog)

	actor := uuid.New()
	order, err := svc.Create(context.Background(), actor, CreateRequest{
		CustomerID:      uuid.New(),
		OrderDate:       time.Now(),
		Lines:           []LineInput{{ProductID: p.ID, Quantity: 5}},
		DiscountPercent: decimal.NewFromInt(10),
		Shipping:        decimal.NewFromInt(20),
		Pay:             decimal.NewFromInt(300),
	})
	require.NoError(t, err)
	require.NotNil(t, order)

	// sub_total 500, vat 25, discount 50, total 495, due 195
	require.True(t, order.SubTotal.Equal(decimal.NewFromInt(500)), "sub_total %s", order.SubTotal)
	require.True(t, order.Vat.Equal(decimal.NewFromInt(25)), "vat %s", order.Vat)
	require.True(t, order.Discount.Equal(decimal.NewFromInt(50)), "discount %s", order.Discount)
	require.True(t, order.Total.Equal(decimal.NewFromInt(495)), "total %s", order.Total)
	require.True(t, order.Due.Equal(decimal.NewFromInt(195)), "due %s", order.Due)

	require.Equal(t, 15, inv.products[p.ID].Quantity)
	require.Equal(t, enums.OrderStatusPending, order.Status)
	require.Contains(t, order.InvoiceNo, "INV-")
	require.Len(t, auditLog.entries, 1)
	require.Equal(t, enums.ActivityActionCreate, auditLog.entries[0].Action)
	require.Equal(t, actor, auditLog.entries[0].ActorID)
}

func TestCreateRejectsWholeOrderWhenAnyLineShort(t *testing.T) {
	p := testProduct("P-001", 10, 100, 0)
	q := testProduct("Q-001", 2, 50, 0)
	inv := newStubInventory(p, q)
	repo := newStubOrdersRepo()
	svc := newTestService(inv, repo, &stubAudit{})

	_, err := svc.Create(context.Background(), uuid.New(), CreateRequest{
		CustomerID: uuid.New(),
		OrderDate:  time.Now(),
		Lines: []LineInput{
			{ProductID: p.ID, Quantity: 4},
			{ProductID: q.ID, Quantity: 3},
		},
	})
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeOutOfStock, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	items, ok := details["items"].([]OutOfStockItem)
	require.True(t, ok)
	require.Len(t, items, 1)
	require.Equal(t, q.ID, items[0].ProductID)
	require.Equal(t, 2, items[0].Available)
	require.Equal(t, 3, items[0].Required)

	require.Equal(t, 10, inv.products[p.ID].Quantity)
	require.Equal(t, 2, inv.products[q.ID].Quantity)
	require.Empty(t, repo.orders)
}

func TestCreateRejectsEmptyAndNonPositiveLines(t *testing.T) {
	svc := newTestService(newStubInventory(), newStubOrdersRepo(), &stubAudit{})

	_, err := svc.Create(context.Background(), uuid.New(), CreateRequest{CustomerID: uuid.New(), OrderDate: time.Now()})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), uuid.New(), CreateRequest{
		CustomerID: uuid.New(),
		OrderDate:  time.Now(),
		Lines:      []LineInput{{ProductID: uuid.New(), Quantity: 0}},
	})
	require.Error(t, err)
}

func TestLifecycleCreateCompleteReturn(t *testing.T) {
	p := testProduct("P-001", 20, 100, 0)
	inv := newStubInventory(p)
	repo := newStubOrdersRepo()
	svc := newTestService(inv, repo, &stubAudit{})
	actor := uuid.New()

	order, err := svc.Create(context.Background(), actor, CreateRequest{
		CustomerID: uuid.New(),
		OrderDate:  time.Now(),
		Lines:      []LineInput{{ProductID: p.ID, Quantity: 5}},
	})
	require.NoError(t, err)
	require.Equal(t, 15, inv.products[p.ID].Quantity)

	completed, err := svc.Complete(context.Background(), actor, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusComplete, completed.Status)
	require.Equal(t, 15, inv.products[p.ID].Quantity)

	returned, err := svc.Return(context.Background(), actor, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusReturn, returned.Status)
	require.Equal(t, 20, inv.products[p.ID].Quantity)
}

func TestCancelRestocksAndIsNotRepeatable(t *testing.T) {
	p := testProduct("P-001", 10, 100, 0)
	inv := newStubInventory(p)
	repo := newStubOrdersRepo()
	svc := newTestService(inv, repo, &stubAudit{})
	actor := uuid.New()

	order, err := svc.Create(context.Background(), actor, CreateRequest{
		CustomerID: uuid.New(),
		OrderDate:  time.Now(),
		Lines:      []LineInput{{ProductID: p.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, 6, inv.products[p.ID].Quantity)

	_, err = svc.Cancel(context.Background(), actor, order.ID)
	require.NoError(t, err)
	require.Equal(t, 10, inv.products[p.ID].Quantity)

	_, err = svc.Cancel(context.Background(), actor, order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	require.Equal(t, 10, inv.products[p.ID].Quantity)
}

func TestReturnRequiresCompletedOrder(t *testing.T) {
	p := testProduct("P-001", 10, 100, 0)
	inv := newStubInventory(p)
	svc := newTestService(inv, newStubOrdersRepo(), &stubAudit{})
	actor := uuid.New()

	order, err := svc.Create(context.Background(), actor, CreateRequest{
		CustomerID: uuid.New(),
		OrderDate:  time.Now(),
		Lines:      []LineInput{{ProductID: p.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.Return(context.Background(), actor, order.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestRestockSkipsMissingProducts(t *testing.T) {
	p := testProduct("P-001", 10, 100, 0)
	inv := newStubInventory(p)
	repo := newStubOrdersRepo()
	svc := newTestService(inv, repo, &stubAudit{})
	actor := uuid.New()

	order, err := svc.Create(context.Background(), actor, CreateRequest{
		CustomerID: uuid.New(),
		OrderDate:  time.Now(),
		Lines:      []LineInput{{ProductID: p.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	delete(inv.products, p.ID)

	cancelled, err := svc.Cancel(context.Background(), actor, order.ID)
	require.NoError(t, err)
	require.Equal(t, enums.OrderStatusCancel, cancelled.Status)
}

func TestTransitionAndDeleteOnMissingOrder(t *testing.T) {
	svc := newTestService(newStubInventory(), newStubOrdersRepo(), &stubAudit{})
	actor := uuid.New()

	_, err := svc.Complete(context.Background(), actor, uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	err = svc.Delete(context.Background(), actor, uuid.New())
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeleteOnlyAllowsTerminalOrders(t *testing.T) {
	p := testProduct("P-001", 10, 100, 0)
	inv := newStubInventory(p)
	repo := newStubOrdersRepo()
	svc := newTestService(inv, repo, &stubAudit{})
	actor := uuid.New()

	order, err := svc.Create(context.Background(), actor, CreateRequest{
		CustomerID: uuid.New(),
		OrderDate:  time.Now(),
		Lines:      []LineInput{{ProductID: p.ID, Quantity: 4}},
	})
	require.NoError(t, err)
	require.Equal(t, 6, inv.products[p.ID].Quantity)

	// pending: the deducted stock is still in play
	err = svc.Delete(context.Background(), actor, order.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	require.NotEmpty(t, repo.orders)

	_, err = svc.Complete(context.Background(), actor, order.ID)
	require.NoError(t, err)

	// completed orders stay on the books too
	err = svc.Delete(context.Background(), actor, order.ID)
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())

	_, err = svc.Return(context.Background(), actor, order.ID)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), actor, order.ID)
	require.NoError(t, err)
	require.Empty(t, repo.orders)
}
