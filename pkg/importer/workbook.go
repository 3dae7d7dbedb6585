package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/classroom-sre/hub-manager/internal/errdef"
)

// ImportWorkbook reads the first sheet of an xlsx workbook under the same
// contract as ImportCSV: exact header first, then one student per row.
func (i *Importer) ImportWorkbook(ctx context.Context, path string, course string) (int, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("opening workbook: %w", err)
	}
	defer workbook.Close()

	rows, err := workbook.GetRows(workbook.GetSheetName(0))
	if err != nil {
		return 0, fmt.Errorf("reading workbook: %w", err)
	}
	if len(rows) == 0 {
		return 0, errdef.NewMalformed("workbook has no header row")
	}
	if err := checkHeader(trimRow(rows[0])); err != nil {
		return 0, err
	}

	imported := 0
	for index, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		// trailing empty cells are dropped by the reader, pad them back
		for len(row) < len(expectedHeader) {
			row = append(row, "")
		}
		if err := i.importRow(ctx, trimRow(row), index+2, course); err != nil {
			return imported, err
		}
		imported++
	}

	i.logger.InfoContext(ctx, "import finished", "course", course, "students", imported)
	return imported, nil
}

func trimRow(row []string) []string {
	trimmed := make([]string, len(row))
	for index, cell := range row {
		trimmed[index] = strings.TrimSpace(cell)
	}
	return trimmed
}
