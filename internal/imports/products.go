package imports

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

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
)

const (
	maxNameLength = 255
	maxCodeLength = 64
)

// productHeaderLabels maps known spreadsheet column labels to canonical
// field names. Matching is case-insensitive on the trimmed label.
var productHeaderLabels = map[string]string{
	"product name":  "name",
	"name":          "name",
	"category":      "category",
	"unit":          "unit",
	"product code":  "code",
	"code":          "code",
	"buying price":  "buying_price",
	"selling price": "selling_price",
	"quantity":      "quantity",
	"stock":         "quantity",
	"tax":           "tax",
	"tax type":      "tax_type",
}

// CategoryResolver looks a category up by its exact name. A nil result
// without an error means the category does not exist.
type CategoryResolver interface {
	FindByName(ctx context.Context, name string) (*models.Category, error)
}

// UnitResolver looks a unit up by its exact name.
type UnitResolver interface {
	FindByName(ctx context.Context, name string) (*models.Unit, error)
}

// ProductCreator persists imported products.
type ProductCreator interface {
	WithTx(tx *gorm.DB) ProductCreator
	Create(ctx context.Context, product *models.Product) error
}

// ProductImporter runs the two-phase product import. Preview validates and
// reports without persisting; Confirm re-validates the file from scratch and
// persists every valid row independently.
type ProductImporter struct {
	tx         repo.TxRunner
	categories CategoryResolver
	units      UnitResolver
	inventory  inventory.Store
	products   ProductCreator
	audit      audit.Writer
	logg       *logger.Logger
	maxRows    int
}

// NewProductImporter wires the product import pipeline.
func NewProductImporter(
	tx repo.TxRunner,
	categories CategoryResolver,
	units UnitResolver,
	inv inventory.Store,
	products ProductCreator,
	auditWriter audit.Writer,
	logg *logger.Logger,
	maxRows int,
) *ProductImporter {
	if maxRows <= 0 {
		maxRows = 5000
	}
	return &ProductImporter{
		tx:         tx,
		categories: categories,
		units:      units,
		inventory:  inv,
		products:   products,
		audit:      auditWriter,
		logg:       logg,
		maxRows:    maxRows,
	}
}

// productRow is one fully validated and normalized row ready to persist.
type productRow struct {
	rowNumber    int
	name         string
	code         string
	categoryID   uuid.UUID
	unitID       uuid.UUID
	quantity     int
	buyingPrice  decimal.Decimal
	sellingPrice decimal.Decimal
	tax          decimal.Decimal
	taxType      enums.TaxType
}

// Preview validates the file and reports per-row outcomes without writing.
func (p *ProductImporter) Preview(ctx context.Context, file io.Reader) (*Report, error) {
	report, _, err := p.validate(ctx, file)
	if err != nil {
		return nil, err
	}
	report.finalize("product")
	return report, nil
}

// Confirm re-validates the file and persists each valid row as a new
// product. Rows commit independently; one failing row does not roll back
// the others.
func (p *ProductImporter) Confirm(ctx context.Context, actorID uuid.UUID, file io.Reader) (*Report, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is required")
	}

	report, rows, err := p.validate(ctx, file)
	if err != nil {
		return nil, err
	}

	imported := []RowResult{}
	for _, row := range rows {
		row := row
		err := p.tx.WithTx(ctx, func(tx *gorm.DB) error {
			product := &models.Product{
				Name:         row.name,
				Code:         row.code,
				Quantity:     row.quantity,
				BuyingPrice:  row.buyingPrice,
				SellingPrice: row.sellingPrice,
				Tax:          row.tax,
				TaxType:      row.taxType,
				CategoryID:   row.categoryID,
				UnitID:       row.unitID,
			}
			if err := p.products.WithTx(tx).Create(ctx, product); err != nil {
				return err
			}
			return p.audit.WithTx(tx).Record(ctx, audit.Entry{
				ActorID:     actorID,
				Action:      enums.ActivityActionImport,
				SubjectType: enums.ActivitySubjectProduct,
				SubjectID:   product.ID,
				Details:     map[string]any{"code": product.Code, "name": product.Name},
			})
		})
		if err != nil {
			report.addError(row.rowNumber, row.code, err.Error())
			continue
		}
		imported = append(imported, RowResult{Row: row.rowNumber, Key: row.code})
	}

	report.Success = imported
	report.finalize("product")
	return report, nil
}

func (p *ProductImporter) validate(ctx context.Context, file io.Reader) (*Report, []productRow, error) {
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

	mapping := mapHeader(rows[0], productHeaderLabels)
	report := newReport()
	valid := []productRow{}
	seenCodes := map[string]int{}

	for i, raw := range rows[1:] {
		rowNumber := i + 2
		if rowEmpty(raw) {
			report.addSkipped(rowNumber, "", "Empty row")
			continue
		}

		row, reasons, failures := p.validateRow(ctx, rowNumber, extractFields(raw, mapping), seenCodes)
		if len(failures) > 0 {
			report.addError(rowNumber, row.code, strings.Join(failures, "; "))
			continue
		}
		if len(reasons) > 0 {
			report.addSkipped(rowNumber, row.code, strings.Join(reasons, "; "))
			continue
		}
		seenCodes[row.code] = rowNumber
		valid = append(valid, row)
		report.addSuccess(rowNumber, row.code)
	}

	return report, valid, nil
}

// validateRow runs the full rule set and accumulates every violation
// instead of stopping at the first. Rule violations come back as reasons
// (the row is skipped); lookup failures come back as failures (the row is
// reported as an error).
func (p *ProductImporter) validateRow(ctx context.Context, rowNumber int, fields map[string]string, seenCodes map[string]int) (productRow, []string, []string) {
	row := productRow{rowNumber: rowNumber, taxType: enums.TaxTypeExclusive}
	reasons := []string{}
	failures := []string{}

	row.name = fields["name"]
	if row.name == "" {
		reasons = append(reasons, "product name is required")
	} else if len(row.name) > maxNameLength {
		reasons = append(reasons, fmt.Sprintf("product name exceeds %d characters", maxNameLength))
	}

	row.code = fields["code"]
	switch {
	case row.code == "":
		reasons = append(reasons, "product code is required")
	case len(row.code) > maxCodeLength:
		reasons = append(reasons, fmt.Sprintf("product code exceeds %d characters", maxCodeLength))
	default:
		if prior, dup := seenCodes[row.code]; dup {
			reasons = append(reasons, fmt.Sprintf("duplicate product code (first seen on row %d)", prior))
		} else if existing, err := p.inventory.FindByCode(ctx, row.code); err != nil {
			failures = append(failures, fmt.Sprintf("could not check product code: %v", err))
		} else if existing != nil {
			reasons = append(reasons, "product code already exists")
		}
	}

	if name := fields["category"]; name == "" {
		reasons = append(reasons, "category is required")
	} else if category, err := p.categories.FindByName(ctx, name); err != nil {
		failures = append(failures, fmt.Sprintf("could not check category: %v", err))
	} else if category == nil {
		reasons = append(reasons, fmt.Sprintf("category %q does not exist", name))
	} else {
		row.categoryID = category.ID
	}

	if name := fields["unit"]; name == "" {
		reasons = append(reasons, "unit is required")
	} else if unit, err := p.units.FindByName(ctx, name); err != nil {
		failures = append(failures, fmt.Sprintf("could not check unit: %v", err))
	} else if unit == nil {
		reasons = append(reasons, fmt.Sprintf("unit %q does not exist", name))
	} else {
		row.unitID = unit.ID
	}

	row.buyingPrice = parsePrice(fields["buying_price"], "buying price", &reasons)
	row.sellingPrice = parsePrice(fields["selling_price"], "selling price", &reasons)

	if raw := fields["quantity"]; raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil || qty < 0 {
			reasons = append(reasons, "quantity must be a non-negative integer")
		} else {
			row.quantity = qty
		}
	}

	if raw := fields["tax"]; raw != "" {
		tax, err := decimal.NewFromString(raw)
		if err != nil || tax.IsNegative() {
			reasons = append(reasons, "tax must be a non-negative number")
		} else {
			row.tax = tax
		}
	}

	row.taxType = enums.ResolveTaxType(fields["tax_type"])

	return row, reasons, failures
}

func parsePrice(raw, label string, reasons *[]string) decimal.Decimal {
	if raw == "" {
		*reasons = append(*reasons, label+" is required")
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil || value.IsNegative() {
		*reasons = append(*reasons, label+" must be a non-negative number")
		return decimal.Zero
	}
	return value
}
