package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"bekutils/internal/config"
	"bekutils/internal/pivot"
)

const (
	DefaultSheetName = "Summary Report"
	DefaultStartRow  = 6
)

// TitleCell is a free-standing value written above the report.
type TitleCell struct {
	Cell  string
	Value string
	Bold  bool
	Size  float64
}

// ReportOptions lays out a pivot table on a worksheet.
type ReportOptions struct {
	SheetName string
	// StartRow is the number of rows left above the header row.
	StartRow int
	Titles   []TitleCell
	// AutosizeBeforeTitles sizes columns from the table alone so long
	// titles do not widen column A.
	AutosizeBeforeTitles bool
}

// DefaultSourceLabel prefixes the source file name under the title.
const DefaultSourceLabel = "Source data: "

// DefaultTitles returns the report heading and, when sourceFile is set, the
// source data line.
func DefaultTitles(title, sourceFile string) []TitleCell {
	return reportTitles(title, DefaultSourceLabel, sourceFile)
}

func reportTitles(title, label, sourceFile string) []TitleCell {
	if title == "" {
		title = DefaultSheetName
	}
	titles := []TitleCell{{Cell: "A1", Value: title, Bold: true, Size: 20}}
	if sourceFile != "" {
		titles = append(titles, TitleCell{Cell: "A3", Value: label + sourceFile, Size: 12})
	}
	return titles
}

// DefaultReportOptions returns the standard layout.
func DefaultReportOptions(sourceFile string) ReportOptions {
	return ReportOptions{
		SheetName:            DefaultSheetName,
		StartRow:             DefaultStartRow,
		Titles:               DefaultTitles("", sourceFile),
		AutosizeBeforeTitles: true,
	}
}

// NewReportOptions builds the layout from report configuration. An empty
// title falls back to the configured one.
func NewReportOptions(cfg config.ReportConfig, title, sourceFile string) ReportOptions {
	opts := DefaultReportOptions(sourceFile)
	if cfg.SheetName != "" {
		opts.SheetName = cfg.SheetName
	}
	opts.StartRow = cfg.StartRow
	if title == "" {
		title = cfg.Title
	}
	label := cfg.SourceLabel
	if label == "" {
		label = DefaultSourceLabel
	}
	opts.Titles = reportTitles(title, label, sourceFile)
	return opts
}

// XLSXWriter renders pivot tables as Excel workbooks.
type XLSXWriter struct {
	logger *slog.Logger
}

// NewXLSXWriter creates a workbook writer.
func NewXLSXWriter(logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{logger: logger.With(slog.String("component", "xlsx_writer"))}
}

// Write encodes t as a workbook to out.
func (w *XLSXWriter) Write(out io.Writer, t *pivot.Table, opts ReportOptions) error {
	f, err := w.Build(t, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Save writes t as a workbook at path.
func (w *XLSXWriter) Save(path string, t *pivot.Table, opts ReportOptions) error {
	f, err := w.Build(t, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	w.logger.Info("Saving report workbook",
		slog.String("path", path),
		slog.Int("rows", t.Len()))

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// Build lays t out on a new workbook. The caller closes the returned file.
func (w *XLSXWriter) Build(t *pivot.Table, opts ReportOptions) (*excelize.File, error) {
	if opts.SheetName == "" {
		opts.SheetName = DefaultSheetName
	}
	if opts.StartRow < 0 {
		return nil, fmt.Errorf("start row must not be negative, got %d", opts.StartRow)
	}

	f := excelize.NewFile()
	ok := false
	defer func() {
		if !ok {
			f.Close()
		}
	}()

	sheet := opts.SheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet %q: %w", sheet, err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	widths := newColumnWidths(len(t.GroupColumns) + len(t.ValueColumns))

	headerRow := opts.StartRow + 1
	header := make([]interface{}, 0, len(widths.max))
	for _, h := range t.Header() {
		header = append(header, h)
	}
	if err := setRow(f, sheet, headerRow, header); err != nil {
		return nil, err
	}
	widths.observeRow(header)
	if err := styleRow(f, sheet, headerRow, len(header), bold); err != nil {
		return nil, err
	}

	for i, r := range t.Rows {
		rowNum := headerRow + 1 + i
		cells := make([]interface{}, 0, len(header))
		for _, k := range r.Key {
			cells = append(cells, keyCellValue(k))
		}
		for _, v := range r.Values {
			cells = append(cells, cellValue(v))
		}
		if err := setRow(f, sheet, rowNum, cells); err != nil {
			return nil, err
		}
		widths.observeRow(cells)
		if r.Kind != pivot.RowDetail {
			if err := styleRow(f, sheet, rowNum, len(cells), bold); err != nil {
				return nil, err
			}
		}
	}

	if opts.AutosizeBeforeTitles {
		if err := widths.apply(f, sheet); err != nil {
			return nil, err
		}
	}
	for _, title := range opts.Titles {
		if err := writeTitle(f, sheet, title); err != nil {
			return nil, err
		}
		if col, _, err := excelize.CellNameToCoordinates(title.Cell); err == nil {
			widths.observe(col-1, title.Value)
		}
	}
	if !opts.AutosizeBeforeTitles {
		if err := widths.apply(f, sheet); err != nil {
			return nil, err
		}
	}

	ok = true
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, width, style int) error {
	if width == 0 {
		return nil
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(width, row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, first, last, style)
}

func writeTitle(f *excelize.File, sheet string, title TitleCell) error {
	if err := f.SetCellValue(sheet, title.Cell, title.Value); err != nil {
		return fmt.Errorf("failed to write title %s: %w", title.Cell, err)
	}
	if !title.Bold && title.Size == 0 {
		return nil
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: title.Bold, Size: title.Size}})
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, title.Cell, title.Cell, style)
}

// columnWidths tracks the longest rendered value per column.
type columnWidths struct {
	max []int
}

func newColumnWidths(n int) *columnWidths {
	return &columnWidths{max: make([]int, n)}
}

func (c *columnWidths) observeRow(cells []interface{}) {
	for i, v := range cells {
		c.observe(i, renderCell(v))
	}
}

func (c *columnWidths) observe(col int, s string) {
	if col < 0 {
		return
	}
	for col >= len(c.max) {
		c.max = append(c.max, 0)
	}
	if n := utf8.RuneCountInString(s); n > c.max[col] {
		c.max[col] = n
	}
}

func (c *columnWidths) apply(f *excelize.File, sheet string) error {
	for i, n := range c.max {
		if n == 0 {
			continue
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, name, name, float64(n+1)); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	return nil
}

func renderCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return pivot.FormatNumber(x)
	default:
		return fmt.Sprint(x)
	}
}
