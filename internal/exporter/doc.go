// Package exporter writes pivot tables in the report formats.
//
// XLSXWriter lays a table out on a worksheet below a block of title cells,
// autosizes the columns and bolds subtotal rows. WriteTable and CSVWriter
// write header and records with a UTF-8 BOM so Excel opens them correctly;
// CSVWriter streams rows to disk through a StreamWriter. HTMLRenderer renders a standalone page from an
// embedded template and WriteJSON encodes the table as a TableDocument.
//
// Example usage:
//
//	t, _ := pivot.Build(ds, req)
//	w := exporter.NewXLSXWriter(logger)
//	err := w.Save("report.xlsx", t, exporter.DefaultReportOptions("export.csv"))
package exporter
