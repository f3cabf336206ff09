package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"bekutils/internal/pivot"
)

// FactoryCSV is a small export in the shape of the address count reports.
const FactoryCSV = `Factory,Name,Total Addresses,Assigned to Writers
A,x,1,0
A,y,2,1
B,x,3,3
`

// FactoryDataset returns the rows of FactoryCSV as a dataset.
func FactoryDataset() *pivot.Dataset {
	return &pivot.Dataset{
		Columns: []string{"Factory", "Name", "Total Addresses", "Assigned to Writers"},
		Rows: []pivot.Row{
			{"Factory": pivot.Text("A"), "Name": pivot.Text("x"), "Total Addresses": pivot.Number(1), "Assigned to Writers": pivot.Number(0)},
			{"Factory": pivot.Text("A"), "Name": pivot.Text("y"), "Total Addresses": pivot.Number(2), "Assigned to Writers": pivot.Number(1)},
			{"Factory": pivot.Text("B"), "Name": pivot.Text("x"), "Total Addresses": pivot.Number(3), "Assigned to Writers": pivot.Number(3)},
		},
	}
}

// FactoryRequest sums both value columns of FactoryDataset with subtotals on
// Factory and Name.
func FactoryRequest() pivot.Request {
	return pivot.Request{
		Groups: pivot.GroupSpec{pivot.WithTotals("Factory"), pivot.WithTotals("Name")},
		Values: []string{"Total Addresses", "Assigned to Writers"},
		Op:     pivot.OpSum,
	}
}

// WriteFile writes content under dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteWorkbook saves rows to sheet of a new workbook under dir. Rows start
// at A1; nil cells are left empty.
func WriteWorkbook(t *testing.T, dir, name, sheet string, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		if _, err := f.NewSheet(sheet); err != nil {
			t.Fatalf("new sheet %s: %v", sheet, err)
		}
		if err := f.DeleteSheet("Sheet1"); err != nil {
			t.Fatalf("delete default sheet: %v", err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			t.Fatalf("set row %d: %v", i+1, err)
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save %s: %v", path, err)
	}
	return path
}
