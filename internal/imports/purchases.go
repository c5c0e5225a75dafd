package imports

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockroom-backend/internal/audit"
	"github.com/angelmondragon/stockroom-backend/internal/inventory"
	"github.com/angelmondragon/stockroom-backend/internal/purchases"
	"github.com/angelmondragon/stockroom-backend/internal/repo"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/angelmondragon/stockroom-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/logger"
)

var purchaseHeaderLabels = map[string]string{
	"purchase no":     "purchase_no",
	"purchase number": "purchase_no",
	"product code":    "code",
	"code":            "code",
	"quantity":        "quantity",
	"qty":             "quantity",
}

// SupplierResolver checks the supplier an import batch is recorded against.
// A nil result without an error means the supplier does not exist.
type SupplierResolver interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
}

// PurchaseImporter runs the two-phase purchase import. Rows are grouped by
// purchase number; validation is group-level once grouped, and the confirm
// phase commits every group inside one all-or-nothing transaction.
type PurchaseImporter struct {
	tx        repo.TxRunner
	purchases purchases.Repository
	inventory inventory.Store
	suppliers SupplierResolver
	audit     audit.Writer
	logg      *logger.Logger
	maxRows   int
}

// NewPurchaseImporter wires the purchase import pipeline.
func NewPurchaseImporter(
	tx repo.TxRunner,
	purchasesRepo purchases.Repository,
	inv inventory.Store,
	suppliers SupplierResolver,
	auditWriter audit.Writer,
	logg *logger.Logger,
	maxRows int,
) *PurchaseImporter {
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &PurchaseImporter{
		tx:        tx,
		purchases: purchasesRepo,
		inventory: inv,
		suppliers: suppliers,
		audit:     auditWriter,
		logg:      logg,
		maxRows:   maxRows,
	}
}

type purchaseRow struct {
	rowNumber  int
	purchaseNo string
	code       string
	quantity   int
}

// purchaseGroup is one purchase-number's worth of validated rows.
type purchaseGroup struct {
	purchaseNo string
	rows       []purchaseRow
	products   []*models.Product
}

// Preview validates and groups the file without persisting anything.
func (p *PurchaseImporter) Preview(ctx context.Context, supplierID uuid.UUID, file io.Reader) (*Report, error) {
	report, _, err := p.validate(ctx, supplierID, file)
	if err != nil {
		return nil, err
	}
	report.finalize("purchase")
	return report, nil
}

// Confirm re-validates the file and commits every valid group inside a
// single transaction. A failure while committing any group rolls back all
// of them.
func (p *PurchaseImporter) Confirm(ctx context.Context, actorID, supplierID uuid.UUID, file io.Reader) (*Report, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	report, groups, err := p.validate(ctx, supplierID, file)
	if err != nil {
		return nil, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	err = p.tx.WithTx(ctx, func(tx *gorm.DB) error {
		purchasesRepo := p.purchases.WithTx(tx)
		auditWriter := p.audit.WithTx(tx)

		for _, group := range groups {
			total := decimal.Zero
			details := make([]models.PurchaseDetail, len(group.rows))
			for i, row := range group.rows {
				product := group.products[i]
				qty := decimal.NewFromInt(int64(row.quantity))
				lineTotal := product.BuyingPrice.Mul(qty)
				total = total.Add(lineTotal)
				details[i] = models.PurchaseDetail{
					ProductID: product.ID,
					Quantity:  row.quantity,
					UnitCost:  product.BuyingPrice,
					Total:     lineTotal,
				}
			}

			purchase := &models.Purchase{
				SupplierID:   supplierID,
				PurchaseNo:   group.purchaseNo,
				PurchaseDate: today,
				Status:       enums.PurchaseStatusPending,
				TotalAmount:  total,
				CreatedBy:    actorID,
			}
			if err := purchasesRepo.Create(ctx, purchase); err != nil {
				return err
			}
			for i := range details {
				details[i].PurchaseID = purchase.ID
				if err := purchasesRepo.CreateDetail(ctx, &details[i]); err != nil {
					return err
				}
			}

			if err := auditWriter.Record(ctx, audit.Entry{
				ActorID:     actorID,
				Action:      enums.ActivityActionImport,
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
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	report.finalize("purchase")
	return report, nil
}

func (p *PurchaseImporter) validate(ctx context.Context, supplierID uuid.UUID, file io.Reader) (*Report, []purchaseGroup, error) {
	rows, err := ReadSheet(file)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "spreadsheet is empty")
	}
	if len(rows)-1 > p.maxRows {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("spreadsheet exceeds the %d row limit", p.maxRows))
	}

	supplier, err := p.suppliers.FindByID(ctx, supplierID)
	if err != nil {
		return nil, nil, err
	}
	supplierValid := supplier != nil

	mapping := mapHeader(rows[0], purchaseHeaderLabels)
	report := newReport()

	// Row-level parsing first; grouping and group-level checks follow.
	grouped := map[string][]purchaseRow{}
	groupOrder := []string{}
	for i, raw := range rows[1:] {
		rowNumber := i + 2
		if rowEmpty(raw) {
			report.addSkipped(rowNumber, "", "Empty row")
			continue
		}

		fields := extractFields(raw, mapping)
		row := purchaseRow{rowNumber: rowNumber, purchaseNo: fields["purchase_no"], code: fields["code"]}
		reasons := []string{}
		if row.purchaseNo == "" {
			reasons = append(reasons, "purchase number is required")
		}
		if row.code == "" {
			reasons = append(reasons, "product code is required")
		}
		if raw := fields["quantity"]; raw == "" {
			reasons = append(reasons, "quantity is required")
		} else if qty, convErr := strconv.Atoi(raw); convErr != nil || qty <= 0 {
			reasons = append(reasons, "quantity must be a positive integer")
		} else {
			row.quantity = qty
		}
		if len(reasons) > 0 {
			report.addSkipped(rowNumber, row.purchaseNo, strings.Join(reasons, "; "))
			continue
		}

		if _, seen := grouped[row.purchaseNo]; !seen {
			groupOrder = append(groupOrder, row.purchaseNo)
		}
		grouped[row.purchaseNo] = append(grouped[row.purchaseNo], row)
	}

	valid := []purchaseGroup{}
	for _, purchaseNo := range groupOrder {
		groupRows := grouped[purchaseNo]
		group, reason, err := p.validateGroup(ctx, purchaseNo, groupRows, supplierValid)
		if err != nil {
			// Lookup failed, not a rule violation; the rest of the sheet
			// still gets validated.
			for _, row := range groupRows {
				report.addError(row.rowNumber, purchaseNo, err.Error())
			}
			continue
		}
		if reason != "" {
			for _, row := range groupRows {
				report.addSkipped(row.rowNumber, purchaseNo, reason)
			}
			continue
		}
		valid = append(valid, group)
		for _, row := range groupRows {
			report.addSuccess(row.rowNumber, purchaseNo)
		}
	}

	sort.Slice(report.Skipped, func(i, j int) bool { return report.Skipped[i].Row < report.Skipped[j].Row })
	sort.Slice(report.Success, func(i, j int) bool { return report.Success[i].Row < report.Success[j].Row })
	sort.Slice(report.Errors, func(i, j int) bool { return report.Errors[i].Row < report.Errors[j].Row })

	return report, valid, nil
}

// validateGroup applies group-level rules: the whole group is skipped when
// the purchase number exists, the supplier is invalid or any product code
// is unknown.
func (p *PurchaseImporter) validateGroup(ctx context.Context, purchaseNo string, rows []purchaseRow, supplierValid bool) (purchaseGroup, string, error) {
	if !supplierValid {
		return purchaseGroup{}, "supplier does not exist", nil
	}

	exists, err := p.purchases.ExistsPurchaseNo(ctx, purchaseNo)
	if err != nil {
		return purchaseGroup{}, "", err
	}
	if exists {
		return purchaseGroup{}, fmt.Sprintf("purchase number %q already exists", purchaseNo), nil
	}

	group := purchaseGroup{purchaseNo: purchaseNo, rows: rows, products: make([]*models.Product, len(rows))}
	for i, row := range rows {
		product, err := p.inventory.FindByCode(ctx, row.code)
		if err != nil {
			return purchaseGroup{}, "", err
		}
		if product == nil {
			return purchaseGroup{}, fmt.Sprintf("product code %q does not exist", row.code), nil
		}
		group.products[i] = product
	}
	return group, "", nil
}
