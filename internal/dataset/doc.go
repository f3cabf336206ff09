// Package dataset loads CSV and XLSX exports into pivot datasets.
//
// Exports often carry title rows above the header. Set Options.HeaderString
// to locate the header by a known label in a given column, the way the
// report files are checked by hand:
//
//	ds, err := dataset.ReadFile("parent-campaign-address-counts.csv", dataset.Options{
//		HeaderString: "Factory",
//		HeaderColumn: "A",
//	})
package dataset
