package purchases

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

type stubPurchasesRepo struct {
	purchases map[uuid.UUID]*models.Purchase
	details   map[uuid.UUID][]models.PurchaseDetail
}

func newStubPurchasesRepo() *stubPurchasesRepo {
	return &stubPurchasesRepo{
		purchases: map[uuid.UUID]*models.Purchase{},
		details:   map[uuid.UUID][]models.PurchaseDetail{},
	}
}

func (r *stubPurchasesRepo) WithTx(tx *gorm.DB) Repository { return r }

func (r *stubPurchasesRepo) Create(ctx context.Context, purchase *models.Purchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	copied := *purchase
	r.purchases[purchase.ID] = &copied
	return nil
}

func (r *stubPurchasesRepo) CreateDetail(ctx context.Context, detail *models.PurchaseDetail) error {
	r.details[detail.PurchaseID] = append(r.details[detail.PurchaseID], *detail)
	return nil
}

func (r *stubPurchasesRepo) Save(ctx context.Context, purchase *models.Purchase) error {
	copied := *purchase
	copied.Details = nil
	r.purchases[purchase.ID] = &copied
	return nil
}

func (r *stubPurchasesRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	purchase, ok := r.purchases[id]
	if !ok {
		return nil, nil
	}
	copied := *purchase
	copied.Details = append([]models.PurchaseDetail{}, r.details[id]...)
	return &copied, nil
}

func (r *stubPurchasesRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.purchases, id)
	delete(r.details, id)
	return nil
}

func (r *stubPurchasesRepo) List(ctx context.Context, query ListQuery) (*pagination.Page[models.Purchase], error) {
	rows := []models.Purchase{}
	for _, purchase := range r.purchases {
		if query.Status != nil && purchase.Status != *query.Status {
			continue
		}
		rows = append(rows, *purchase)
	}
	return pagination.NewPage(rows, query.Pagination, int64(len(rows))), nil
}

func (r *stubPurchasesRepo) ExistsPurchaseNo(ctx context.Context, purchaseNo string) (bool, error) {
	for _, purchase := range r.purchases {
		if purchase.PurchaseNo == purchaseNo {
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

func testProduct(code string, quantity int) *models.Product {
	return &models.Product{
		ID:          uuid.New(),
		Name:        "Product " + code,
		Code:        code,
		Quantity:    quantity,
		BuyingPrice: decimal.NewFromInt(50),
	}
}

func validCreateRequest(productID uuid.UUID) CreateRequest {
	return CreateRequest{
		SupplierID:   uuid.New(),
		PurchaseNo:   "PO-1001",
		PurchaseDate: time.Now(),
		TotalAmount:  decimal.NewFromInt(500),
		Lines: []LineInput{
			{ProductID: productID, Quantity: 10, UnitCost: decimal.NewFromInt(50)},
		},
	}
}

func TestCreatePersistsHeaderAndLinesWithoutStockChange(t *testing.T) {
	p := testProduct("P-001", 3)
	inv := newStubInventory(p)
	repo := newStubPurchasesRepo()
	auditLog := &stubAudit{}
	svc := NewService(stubTx{}, repo, inv, auditLog, nil)
	actor := uuid.New()

	purchase, err := svc.Create(context.Background(), actor, validCreateRequest(p.ID))
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseStatusPending, purchase.Status)
	require.Len(t, purchase.Details, 1)
	require.True(t, purchase.Details[0].Total.Equal(decimal.NewFromInt(500)))

	// stock is untouched until approval
	require.Equal(t, 3, inv.products[p.ID].Quantity)
	require.Len(t, auditLog.entries, 1)
	require.Equal(t, enums.ActivityActionCreate, auditLog.entries[0].Action)
}

func TestCreateRejectsDuplicatePurchaseNo(t *testing.T) {
	p := testProduct("P-001", 0)
	repo := newStubPurchasesRepo()
	svc := NewService(stubTx{}, repo, newStubInventory(p), &stubAudit{}, nil)
	actor := uuid.New()

	_, err := svc.Create(context.Background(), actor, validCreateRequest(p.ID))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), actor, validCreateRequest(p.ID))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeConflict, typed.Code())
}

func TestApproveAddsStockOnce(t *testing.T) {
	p := testProduct("P-001", 3)
	inv := newStubInventory(p)
	repo := newStubPurchasesRepo()
	svc := NewService(stubTx{}, repo, inv, &stubAudit{}, nil)
	actor := uuid.New()

	purchase, err := svc.Create(context.Background(), actor, validCreateRequest(p.ID))
	require.NoError(t, err)

	approved, err := svc.Approve(context.Background(), actor, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseStatusApproved, approved.Status)
	require.Equal(t, 13, inv.products[p.ID].Quantity)

	_, err = svc.Approve(context.Background(), actor, purchase.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	require.Equal(t, 13, inv.products[p.ID].Quantity)
}

func TestApproveSkipsMissingProducts(t *testing.T) {
	p := testProduct("P-001", 3)
	inv := newStubInventory(p)
	repo := newStubPurchasesRepo()
	svc := NewService(stubTx{}, repo, inv, &stubAudit{}, nil)
	actor := uuid.New()

	purchase, err := svc.Create(context.Background(), actor, validCreateRequest(p.ID))
	require.NoError(t, err)

	delete(inv.products, p.ID)

	approved, err := svc.Approve(context.Background(), actor, purchase.ID)
	require.NoError(t, err)
	require.Equal(t, enums.PurchaseStatusApproved, approved.Status)
}

func TestUpdateAppendsLinesAndBlocksApproved(t *testing.T) {
	p := testProduct("P-001", 0)
	q := testProduct("Q-001", 0)
	inv := newStubInventory(p, q)
	repo := newStubPurchasesRepo()
	svc := NewService(stubTx{}, repo, inv, &stubAudit{}, nil)
	actor := uuid.New()

	purchase, err := svc.Create(context.Background(), actor, validCreateRequest(p.ID))
	require.NoError(t, err)

	newTotal := decimal.NewFromInt(700)
	updated, err := svc.Update(context.Background(), actor, purchase.ID, UpdateRequest{
		TotalAmount: &newTotal,
		Lines: []LineInput{
			{ProductID: q.ID, Quantity: 4, UnitCost: decimal.NewFromInt(50)},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Details, 2)
	require.True(t, updated.TotalAmount.Equal(newTotal))

	_, err = svc.Approve(context.Background(), actor, purchase.ID)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), actor, purchase.ID, UpdateRequest{})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
}

func TestGetAndDeleteMissingPurchase(t *testing.T) {
	svc := NewService(stubTx{}, newStubPurchasesRepo(), newStubInventory(), &stubAudit{}, nil)

	_, err := svc.Get(context.Background(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	err = svc.Delete(context.Background(), uuid.New(), uuid.New())
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDeleteBlocksApprovedPurchase(t *testing.T) {
	p := testProduct("P-001", 3)
	inv := newStubInventory(p)
	repo := newStubPurchasesRepo()
	svc := NewService(stubTx{}, repo, inv, &stubAudit{}, nil)
	actor := uuid.New()

	purchase, err := svc.Create(context.Background(), actor, validCreateRequest(p.ID))
	require.NoError(t, err)

	// pending purchases can still be removed
	err = svc.Delete(context.Background(), actor, purchase.ID)
	require.NoError(t, err)
	require.Empty(t, repo.purchases)

	purchase, err = svc.Create(context.Background(), actor, validCreateRequest(p.ID))
	require.NoError(t, err)
	_, err = svc.Approve(context.Background(), actor, purchase.ID)
	require.NoError(t, err)

	// approved: the restock already happened, the record must stay
	err = svc.Delete(context.Background(), actor, purchase.ID)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	require.NotEmpty(t, repo.purchases)
	require.Equal(t, 13, inv.products[p.ID].Quantity)
}
