package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"bekutils/internal/errors"
	"bekutils/internal/pivot"
)

// HeaderSearchRows bounds how far FindHeaderRow looks for the header.
const HeaderSearchRows = 30

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Options controls how a file becomes a dataset.
type Options struct {
	// Sheet names the worksheet to read; empty means the first sheet.
	Sheet string
	// HeaderRow is the zero-based row holding column names.
	HeaderRow int
	// HeaderString, when set, locates the header row instead of HeaderRow.
	HeaderString string
	// HeaderColumn is the column letter searched for HeaderString. Default "A".
	HeaderColumn string
	// KeepText lists columns whose cells are never parsed as numbers.
	KeepText []string
}

// Format is a supported input file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps a file name to its input format.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", errors.NewUnsupportedFileError(filepath.Base(name))
}

// ReadFile loads a CSV or XLSX file chosen by extension.
func ReadFile(path string, opts Options) (*pivot.Dataset, error) {
	if _, err := DetectFormat(path); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError("failed to open input file", err).WithContext("file", path)
	}
	defer f.Close()
	return Read(path, f, opts)
}

// Read loads r, using name only to pick the format.
func Read(name string, r io.Reader, opts Options) (*pivot.Dataset, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	if format == FormatXLSX {
		return ReadXLSX(r, opts)
	}
	return ReadCSV(r, opts)
}

// ReadCSV loads comma separated records. Rows may have differing lengths.
func ReadCSV(r io.Reader, opts Options) (*pivot.Dataset, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.NewStorageError("failed to read csv", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.NewParsingError("failed to parse csv", err)
	}
	return FromRecords(records, opts)
}

// ReadXLSX loads one worksheet of a workbook.
func ReadXLSX(r io.Reader, opts Options) (*pivot.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	records, err := SheetRows(f, opts.Sheet)
	if err != nil {
		return nil, err
	}
	return FromRecords(records, opts)
}

// SheetRows returns the raw cell text of sheet, or of the first sheet when
// sheet is empty.
func SheetRows(f *excelize.File, sheet string) ([][]string, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewParsingError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, errors.NewNotFoundError(fmt.Sprintf("sheet %q", sheet))
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.NewParsingError("failed to read sheet rows", err).WithContext("sheet", sheet)
	}
	return rows, nil
}

// FromRecords turns raw records into a dataset. Blank header cells become
// "Unnamed: <n>" and repeated names get a ".<n>" suffix. Fully blank rows
// are dropped.
func FromRecords(records [][]string, opts Options) (*pivot.Dataset, error) {
	headerRow := opts.HeaderRow
	if opts.HeaderString != "" {
		col := opts.HeaderColumn
		if col == "" {
			col = "A"
		}
		row, err := FindHeaderRow(records, opts.HeaderString, col)
		if err != nil {
			return nil, err
		}
		headerRow = row
	}
	if headerRow < 0 || headerRow >= len(records) {
		return nil, errors.NewParsingError(fmt.Sprintf("header row %d is outside the file (%d rows)", headerRow+1, len(records)), nil)
	}

	columns := headerNames(records[headerRow])
	ds := &pivot.Dataset{Columns: columns}
	for _, rec := range records[headerRow+1:] {
		if blank(rec) {
			continue
		}
		row := make(pivot.Row, len(columns))
		for i, name := range columns {
			cell := ""
			if i < len(rec) {
				cell = rec[i]
			}
			row[name] = parseCell(cell, slices.Contains(opts.KeepText, name))
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func parseCell(cell string, keepText bool) pivot.Value {
	if !keepText {
		return pivot.Parse(cell)
	}
	if strings.TrimSpace(cell) == "" {
		return pivot.Missing()
	}
	return pivot.Text(cell)
}

func headerNames(raw []string) []string {
	seen := make(map[string]int, len(raw))
	names := make([]string, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = name + "." + strconv.Itoa(n+1)
		}
		if _, ok := seen[name]; !ok {
			seen[name] = 0
		}
		names[i] = name
	}
	return names
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
