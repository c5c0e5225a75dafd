package imports

import (
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
)

// ReadSheet parses the first worksheet of an xlsx stream into rows of cells.
func ReadSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read spreadsheet")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "spreadsheet has no worksheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "could not read worksheet rows")
	}
	return rows, nil
}

// mapHeader maps column indexes to canonical field names using a
// case-insensitive label lookup. Unknown columns are ignored.
func mapHeader(header []string, labels map[string]string) map[int]string {
	mapped := map[int]string{}
	for i, cell := range header {
		label := strings.ToLower(strings.TrimSpace(cell))
		if field, ok := labels[label]; ok {
			mapped[i] = field
		}
	}
	return mapped
}

// extractFields pulls the mapped cells of one row into field name -> value.
func extractFields(row []string, mapping map[int]string) map[string]string {
	fields := map[string]string{}
	for i, field := range mapping {
		if i < len(row) {
			fields[field] = strings.TrimSpace(row[i])
		}
	}
	return fields
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
