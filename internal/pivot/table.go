package pivot

import (
	"cmp"
	"strings"
)

// TotalLabel is how a rolled-up key component is rendered.
const TotalLabel = "_TOTAL"

// KeyPart is one component of a composite row key.
type KeyPart struct {
	Text    string
	Num     float64
	Numeric bool
	Total   bool
}

// TotalPart returns the rolled-up key component.
func TotalPart() KeyPart { return KeyPart{Text: TotalLabel, Total: true} }

func keyPartOf(v Value) KeyPart {
	switch v.Kind {
	case KindNumber:
		return KeyPart{Text: FormatNumber(v.Num), Num: v.Num, Numeric: true}
	case KindText:
		return KeyPart{Text: v.Text}
	default:
		return KeyPart{}
	}
}

// String renders the component.
func (k KeyPart) String() string {
	if k.Total {
		return TotalLabel
	}
	return k.Text
}

// compareParts orders key components ascending: empty values first, then
// numbers compared numerically, then text compared upper-cased, then totals.
func compareParts(a, b KeyPart) int {
	if c := cmp.Compare(a.rank(), b.rank()); c != 0 {
		return c
	}
	switch {
	case a.Total:
		return 0
	case a.Numeric:
		if c := cmp.Compare(a.Num, b.Num); c != 0 {
			return c
		}
	}
	if c := strings.Compare(strings.ToUpper(a.Text), strings.ToUpper(b.Text)); c != 0 {
		return c
	}
	return strings.Compare(a.Text, b.Text)
}

func (k KeyPart) rank() int {
	switch {
	case k.Total:
		return 3
	case k.Numeric:
		return 1
	case k.Text == "":
		return 0
	default:
		return 2
	}
}

func compareKeys(a, b []KeyPart) int {
	for i := range a {
		if c := compareParts(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(a), len(b))
}

// RowKind tells detail, subtotal and grand-total rows apart.
type RowKind uint8

const (
	RowDetail RowKind = iota
	RowSubtotal
	RowGrandTotal
)

func (k RowKind) String() string {
	switch k {
	case RowSubtotal:
		return "subtotal"
	case RowGrandTotal:
		return "grand_total"
	default:
		return "detail"
	}
}

// ResultRow is one output row. Key always has one component per group column.
type ResultRow struct {
	Key       []KeyPart
	Values    []Value
	Kind      RowKind
	GroupedOn []string

	state []partial
}

// KeyStrings renders the key components.
func (r ResultRow) KeyStrings() []string {
	out := make([]string, len(r.Key))
	for i, k := range r.Key {
		out[i] = k.String()
	}
	return out
}

// Table is the combined detail, subtotal and grand-total result.
type Table struct {
	GroupColumns []string
	ValueColumns []string
	Op           AggOp
	Rows         []ResultRow
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Header returns group column names followed by value column names.
func (t *Table) Header() []string {
	h := make([]string, 0, len(t.GroupColumns)+len(t.ValueColumns))
	h = append(h, t.GroupColumns...)
	return append(h, t.ValueColumns...)
}

// Records renders every row as strings in Header order.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		rec := r.KeyStrings()
		for _, v := range r.Values {
			rec = append(rec, v.String())
		}
		out[i] = rec
	}
	return out
}

// Find returns the row whose rendered key equals parts, or nil.
func (t *Table) Find(parts ...string) *ResultRow {
	if len(parts) != len(t.GroupColumns) {
		return nil
	}
	for i := range t.Rows {
		match := true
		for j, k := range t.Rows[i].Key {
			if k.String() != parts[j] {
				match = false
				break
			}
		}
		if match {
			return &t.Rows[i]
		}
	}
	return nil
}

// Count returns how many rows have the given kind.
func (t *Table) Count(kind RowKind) int {
	n := 0
	for _, r := range t.Rows {
		if r.Kind == kind {
			n++
		}
	}
	return n
}
