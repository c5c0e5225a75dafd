package imports

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/purchases"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/pagination"
)

type stubPurchasesRepo struct {
	purchases   map[uuid.UUID]*models.Purchase
	details     map[uuid.UUID][]models.PurchaseDetail
	failOn      string
	existsErrOn string
}

func newStubPurchasesRepo() *stubPurchasesRepo {
	return &stubPurchasesRepo{
		purchases: map[uuid.UUID]*models.Purchase{},
		details:   map[uuid.UUID][]models.PurchaseDetail{},
	}
}

func (r *stubPurchasesRepo) WithTx(tx *gorm.DB) purchases.Repository { return r }

func (r *stubPurchasesRepo) Create(ctx context.Context, purchase *models.Purchase) error {
	if r.failOn != "" && purchase.PurchaseNo == r.failOn {
		return pkgerrors.New(pkgerrors.CodeInternal, "insert failed")
	}
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

func (r *stubPurchasesRepo) List(ctx context.Context, query purchases.ListQuery) (*pagination.Page[models.Purchase], error) {
	rows := []models.Purchase{}
	for _, purchase := range r.purchases {
		rows = append(rows, *purchase)
	}
	return pagination.NewPage(rows, query.Pagination, int64(len(rows))), nil
}

func (r *stubPurchasesRepo) ExistsPurchaseNo(ctx context.Context, purchaseNo string) (bool, error) {
	if r.existsErrOn != "" && purchaseNo == r.existsErrOn {
		return false, pkgerrors.New(pkgerrors.CodeDependency, "purchase number lookup failed")
	}
	for _, purchase := range r.purchases {
		if purchase.PurchaseNo == purchaseNo {
			return true, nil
		}
	}
	return false, nil
}

type stubSuppliers struct {
	byID map[uuid.UUID]*models.Supplier
}

func (s *stubSuppliers) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	return s.byID[id], nil
}

var purchaseHeader = []any{"Purchase No", "Product Code", "Quantity"}

// snapshotTx simulates transactional rollback for the in-memory stubs: when
// fn fails, the repo snapshots taken before fn ran are restored.
type snapshotTx struct {
	repo  *stubPurchasesRepo
	audit *stubAudit
}

func (s snapshotTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	purchasesBefore := map[uuid.UUID]*models.Purchase{}
	for id, p := range s.repo.purchases {
		copied := *p
		purchasesBefore[id] = &copied
	}
	detailsBefore := map[uuid.UUID][]models.PurchaseDetail{}
	for id, d := range s.repo.details {
		detailsBefore[id] = append([]models.PurchaseDetail{}, d...)
	}
	auditBefore := len(s.audit.entries)

	if err := fn(nil); err != nil {
		s.repo.purchases = purchasesBefore
		s.repo.details = detailsBefore
		s.audit.entries = s.audit.entries[:auditBefore]
		return err
	}
	return nil
}

func purchaseImportFixture() (*PurchaseImporter, *stubPurchasesRepo, *stubAudit, *stubInventory, uuid.UUID) {
	supplier := &models.Supplier{ID: uuid.New(), Name: "Acme Traders", Phone: "0911"}
	widget := &models.Product{ID: uuid.New(), Name: "Widget", Code: "W-01", BuyingPrice: decimal.NewFromInt(25)}
	gadget := &models.Product{ID: uuid.New(), Name: "Gadget", Code: "G-01", BuyingPrice: decimal.NewFromInt(40)}

	inv := newStubInventory(widget, gadget)
	repo := newStubPurchasesRepo()
	auditLog := &stubAudit{}
	importer := NewPurchaseImporter(
		snapshotTx{repo: repo, audit: auditLog},
		repo,
		inv,
		&stubSuppliers{byID: map[uuid.UUID]*models.Supplier{supplier.ID: supplier}},
		auditLog,
		nil,
		0,
	)
	return importer, repo, auditLog, inv, supplier.ID
}

func TestPurchasePreviewGroupsAndValidates(t *testing.T) {
	importer, repo, _, _, supplierID := purchaseImportFixture()

	// an existing purchase number skips its whole group
	require.NoError(t, repo.Create(context.Background(), &models.Purchase{
		SupplierID: supplierID,
		PurchaseNo: "PO-OLD",
		Status:     enums.PurchaseStatusPending,
	}))

	sheet := buildSheet(t, [][]any{
		purchaseHeader,
		{"PO-100", "W-01", 3},
		{"PO-100", "G-01", 2},
		{"PO-OLD", "W-01", 1},
		{"PO-200", "NOPE", 1},
		{"PO-300", "W-01", 0},
	})

	report, err := importer.Preview(context.Background(), supplierID, sheet)
	require.NoError(t, err)

	require.Len(t, report.Success, 2)
	require.Equal(t, "PO-100", report.Success[0].Key)
	require.Equal(t, "PO-100", report.Success[1].Key)

	require.Len(t, report.Skipped, 3)
	require.Contains(t, report.Skipped[0].Reason, `purchase number "PO-OLD" already exists`)
	require.Contains(t, report.Skipped[1].Reason, `product code "NOPE" does not exist`)
	require.Contains(t, report.Skipped[2].Reason, "quantity must be a positive integer")
}

func TestPurchasePreviewRejectsUnknownSupplier(t *testing.T) {
	importer, _, _, _, _ := purchaseImportFixture()

	sheet := buildSheet(t, [][]any{
		purchaseHeader,
		{"PO-100", "W-01", 3},
	})

	report, err := importer.Preview(context.Background(), uuid.New(), sheet)
	require.NoError(t, err)
	require.Empty(t, report.Success)
	require.Len(t, report.Skipped, 1)
	require.Contains(t, report.Skipped[0].Reason, "supplier does not exist")
}

func TestPurchaseConfirmCreatesPendingPurchases(t *testing.T) {
	importer, repo, auditLog, inv, supplierID := purchaseImportFixture()
	actor := uuid.New()

	sheet := buildSheet(t, [][]any{
		purchaseHeader,
		{"PO-100", "W-01", 3},
		{"PO-100", "G-01", 2},
		{"PO-200", "W-01", 4},
	})

	report, err := importer.Confirm(context.Background(), actor, supplierID, sheet)
	require.NoError(t, err)
	require.Len(t, report.Success, 3)
	require.Len(t, repo.purchases, 2)

	byNo := map[string]*models.Purchase{}
	for _, p := range repo.purchases {
		byNo[p.PurchaseNo] = p
	}

	first := byNo["PO-100"]
	require.NotNil(t, first)
	require.Equal(t, enums.PurchaseStatusPending, first.Status)
	require.Equal(t, supplierID, first.SupplierID)
	// 3*25 + 2*40
	require.True(t, first.TotalAmount.Equal(decimal.NewFromInt(155)))
	require.Len(t, repo.details[first.ID], 2)
	require.True(t, repo.details[first.ID][0].UnitCost.Equal(decimal.NewFromInt(25)))

	second := byNo["PO-200"]
	require.NotNil(t, second)
	require.True(t, second.TotalAmount.Equal(decimal.NewFromInt(100)))

	// stock moves only on approval, never at import time
	for _, product := range inv.products {
		require.Equal(t, 0, product.Quantity)
	}

	require.Len(t, auditLog.entries, 2)
	for _, entry := range auditLog.entries {
		require.Equal(t, actor, entry.ActorID)
		require.Equal(t, enums.ActivityActionImport, entry.Action)
		require.Equal(t, enums.ActivitySubjectPurchase, entry.SubjectType)
	}
}

func TestPurchaseConfirmRollsBackAllGroupsOnFailure(t *testing.T) {
	importer, repo, auditLog, _, supplierID := purchaseImportFixture()
	repo.failOn = "PO-200"

	sheet := buildSheet(t, [][]any{
		purchaseHeader,
		{"PO-100", "W-01", 3},
		{"PO-200", "G-01", 2},
	})

	_, err := importer.Confirm(context.Background(), uuid.New(), supplierID, sheet)
	require.Error(t, err)

	// the earlier group does not survive the failed batch
	require.Empty(t, repo.purchases)
	require.Empty(t, auditLog.entries)
}

func TestPurchaseConfirmRequiresActor(t *testing.T) {
	importer, _, _, _, supplierID := purchaseImportFixture()

	_, err := importer.Confirm(context.Background(), uuid.Nil, supplierID, buildSheet(t, [][]any{purchaseHeader}))
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
}

func TestPurchasePreviewFilesLookupFailuresUnderErrors(t *testing.T) {
	importer, repo, _, _, supplierID := purchaseImportFixture()
	repo.existsErrOn = "PO-200"

	sheet := buildSheet(t, [][]any{
		purchaseHeader,
		{"PO-100", "W-01", 3},
		{"PO-200", "G-01", 2},
	})

	report, err := importer.Preview(context.Background(), supplierID, sheet)
	require.NoError(t, err)

	// the failed group is reported as an error and the rest still validates
	require.Len(t, report.Success, 1)
	require.Equal(t, "PO-100", report.Success[0].Key)
	require.Empty(t, report.Skipped)
	require.Len(t, report.Errors, 1)
	require.Equal(t, 3, report.Errors[0].Row)
	require.Contains(t, report.Errors[0].Reason, "purchase number lookup failed")
	require.Equal(t, "1 purchase rows valid, 0 skipped, 1 errors", report.Message)
}
