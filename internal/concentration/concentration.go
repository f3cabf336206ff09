// Package concentration flags addresses listed on a concentration workbook,
// where many ballots are registered to one property.
package concentration

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"bekutils/internal/cleaning"
	"bekutils/internal/dataset"
	"bekutils/internal/errors"
	"bekutils/internal/pivot"
)

// SheetName is the worksheet holding the address list.
const SheetName = "Addresses"

var requiredColumns = []string{"state", "city", "address", "desc", "remove"}

// Entry describes one listed address.
type Entry struct {
	Desc   string
	Remove string
}

type key struct {
	state, city, address string
}

// Index looks up addresses by cleaned state, city and street address.
type Index struct {
	entries map[key]Entry
}

// Load reads the Addresses sheet of the workbook at path.
func Load(path string) (*Index, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.NewStorageError("failed to open concentration workbook", err).WithContext("file", path)
	}
	defer f.Close()

	rows, err := dataset.SheetRows(f, SheetName)
	if err != nil {
		return nil, err
	}
	return FromRows(rows)
}

// FromRows builds an index from raw sheet rows. The first row is the header;
// column names are matched case-insensitively.
func FromRows(rows [][]string) (*Index, error) {
	if len(rows) == 0 {
		return nil, errors.NewParsingError("concentration sheet is empty", nil)
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	ds, err := dataset.FromRecords(append([][]string{header}, rows[1:]...), dataset.Options{KeepText: requiredColumns})
	if err != nil {
		return nil, err
	}
	for _, c := range requiredColumns {
		if !ds.HasColumn(c) {
			return nil, errors.NewParsingError(fmt.Sprintf("concentration sheet has no %q column", c), nil)
		}
	}

	idx := &Index{entries: make(map[key]Entry, len(ds.Rows))}
	for _, row := range ds.Rows {
		k := newKey(cell(row, "state"), cell(row, "city"), cell(row, "address"))
		idx.entries[k] = Entry{
			Desc:   strings.TrimSpace(cell(row, "desc")),
			Remove: strings.TrimSpace(cell(row, "remove")),
		}
	}
	return idx, nil
}

func cell(row pivot.Row, col string) string {
	return cleaning.SafeString(row[col])
}

func newKey(state, city, address string) key {
	return key{cleaning.Clean(state), cleaning.Clean(city), cleaning.Clean(address)}
}

// Len returns the number of listed addresses.
func (x *Index) Len() int { return len(x.entries) }

// Lookup returns the entry for an address, if listed.
func (x *Index) Lookup(state, city, address string) (Entry, bool) {
	e, ok := x.entries[newKey(state, city, address)]
	return e, ok
}

// Concentrated reports whether the address is listed.
func (x *Index) Concentrated(state, city, address string) bool {
	_, ok := x.Lookup(state, city, address)
	return ok
}

// Description returns the listing description, or "".
func (x *Index) Description(state, city, address string) string {
	e, _ := x.Lookup(state, city, address)
	return e.Desc
}

// RemoveNote returns the removal note, or "".
func (x *Index) RemoveNote(state, city, address string) string {
	e, _ := x.Lookup(state, city, address)
	return e.Remove
}
