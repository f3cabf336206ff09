package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"bekutils/internal/errors"
	"bekutils/internal/pivot"
)

// FindHeaderRow returns the zero-based index of the first row, among the
// first HeaderSearchRows, whose cell in column (a letter such as "B" or "AA")
// equals headerString ignoring case and surrounding space.
func FindHeaderRow(records [][]string, headerString, column string) (int, error) {
	col, err := excelize.ColumnNameToNumber(column)
	if err != nil {
		return 0, errors.NewAppValidationError(fmt.Sprintf("bad header column %q", column))
	}
	want := strings.ToLower(strings.TrimSpace(headerString))

	for i, rec := range records {
		if i >= HeaderSearchRows {
			break
		}
		if col-1 < len(rec) && strings.ToLower(strings.TrimSpace(rec[col-1])) == want {
			return i, nil
		}
	}
	return 0, errors.NewParsingError(
		fmt.Sprintf("header check string %q was not found in column %q in the first %d lines", headerString, column, HeaderSearchRows), nil)
}

// HeaderCheck expects Label at Cell. For sheets Cell is a coordinate such as
// "B1"; for datasets only its column letters are used.
type HeaderCheck struct {
	Cell  string
	Label string
}

// CheckSheetHeaders verifies header labels on a worksheet.
func CheckSheetHeaders(f *excelize.File, sheet string, checks []HeaderCheck) error {
	for _, c := range checks {
		got, err := f.GetCellValue(sheet, c.Cell)
		if err != nil {
			return errors.NewParsingError(fmt.Sprintf("failed to read cell %s", c.Cell), err).WithContext("sheet", sheet)
		}
		if !sameLabel(got, c.Label) {
			return headingMismatch(c, sheet, got)
		}
	}
	return nil
}

// CheckHeaders verifies that ds columns carry the expected labels.
func CheckHeaders(ds *pivot.Dataset, checks []HeaderCheck) error {
	for _, c := range checks {
		letters := strings.TrimRight(strings.ToUpper(c.Cell), "0123456789")
		col, err := excelize.ColumnNameToNumber(letters)
		if err != nil {
			return errors.NewAppValidationError(fmt.Sprintf("bad header cell %q", c.Cell))
		}
		got := ""
		if col-1 < len(ds.Columns) {
			got = ds.Columns[col-1]
		}
		if !sameLabel(got, c.Label) {
			return headingMismatch(c, "", got)
		}
	}
	return nil
}

func sameLabel(got, want string) bool {
	return strings.ToLower(strings.TrimSpace(got)) == strings.ToLower(want)
}

func headingMismatch(c HeaderCheck, sheet, got string) error {
	err := errors.NewAppValidationError(fmt.Sprintf("column heading %q is %q, expected %q", c.Cell, got, c.Label))
	if sheet != "" {
		err.WithContext("sheet", sheet)
	}
	return err
}
