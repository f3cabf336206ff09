package exporter

import (
	"encoding/json"
	"io"

	"bekutils/internal/pivot"
)

// TableDocument is the JSON shape of a pivot table.
type TableDocument struct {
	GroupColumns []string      `json:"group_columns"`
	ValueColumns []string      `json:"value_columns"`
	Agg          string        `json:"agg"`
	Rows         []RowDocument `json:"rows"`
}

// RowDocument is one table row. Values are numbers, strings or null.
type RowDocument struct {
	Key    []string      `json:"key"`
	Values []interface{} `json:"values"`
	Kind   string        `json:"kind"`
}

// NewTableDocument converts t for JSON encoding.
func NewTableDocument(t *pivot.Table) TableDocument {
	doc := TableDocument{
		GroupColumns: t.GroupColumns,
		ValueColumns: t.ValueColumns,
		Agg:          string(t.Op),
		Rows:         make([]RowDocument, len(t.Rows)),
	}
	for i, r := range t.Rows {
		values := make([]interface{}, len(r.Values))
		for j, v := range r.Values {
			values[j] = cellValue(v)
		}
		doc.Rows[i] = RowDocument{Key: r.KeyStrings(), Values: values, Kind: r.Kind.String()}
	}
	return doc
}

// WriteJSON encodes t as a TableDocument.
func WriteJSON(out io.Writer, t *pivot.Table) error {
	return json.NewEncoder(out).Encode(NewTableDocument(t))
}
