package pivot

import (
	"math"
	"strconv"
	"strings"
)

// Kind identifies what a Value holds.
type Kind uint8

const (
	KindMissing Kind = iota
	KindText
	KindNumber
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	default:
		return "missing"
	}
}

// Value is a single dataset cell: text, number or missing.
type Value struct {
	Kind Kind
	Text string
	Num  float64
}

// Text returns a text value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Missing returns the missing value.
func Missing() Value { return Value{} }

// Parse infers a Value from a raw cell. Blank cells are missing, finite
// numbers are numeric and everything else is kept as text.
func Parse(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Missing()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Number(f)
	}
	return Text(raw)
}

// IsMissing reports whether the cell is empty.
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// Float returns the numeric content of v.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.Num, true
}

// String renders the value the way it appears in exported reports.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindNumber:
		return FormatNumber(v.Num)
	default:
		return ""
	}
}

// FormatNumber renders f with the shortest exact representation.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Row maps column names to cell values.
type Row map[string]Value

// Dataset is an ordered collection of rows with a named header.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether name is part of the dataset header. A dataset
// without an explicit header accepts any column that appears in a row.
func (d *Dataset) HasColumn(name string) bool {
	if len(d.Columns) > 0 {
		for _, c := range d.Columns {
			if c == name {
				return true
			}
		}
		return false
	}
	for _, r := range d.Rows {
		if _, ok := r[name]; ok {
			return true
		}
	}
	return false
}
