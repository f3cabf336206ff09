// Package pivot builds grouped aggregation tables with multi-level subtotal rows.
//
// A Build call groups a Dataset by every column of a GroupSpec, then adds one
// subtotal row per distinct value combination for every requested subset of
// subtotal-eligible columns, plus a single grand-total row. Rolled-up key
// components are marked as totals and render as "_TOTAL". The combined result
// is sorted case-insensitively so each subtotal follows the detail rows it
// summarizes and the grand total comes last.
//
// Example usage:
//
//	ds := &pivot.Dataset{Columns: []string{"Factory", "Name", "Count"}, Rows: rows}
//	table, err := pivot.Build(ds, pivot.Request{
//		Groups: pivot.GroupSpec{pivot.WithTotals("Factory"), pivot.WithTotals("Name")},
//		Values: []string{"Count"},
//		Op:     pivot.OpSum,
//	})
//
// The package performs no I/O and no logging. Loading datasets and writing
// reports live in the dataset and exporter packages.
package pivot
