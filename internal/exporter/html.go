package exporter

import (
	"embed"
	"fmt"
	"io"

	"github.com/google/safehtml/template"

	"bekutils/internal/pivot"
)

//go:embed templates/*
var templateFS embed.FS

// HTMLRenderer renders pivot tables as standalone HTML pages.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the embedded page template.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	trustedFS := template.TrustedFSFromEmbed(templateFS)

	tmpl, err := template.New("pivot.html").ParseFS(trustedFS, "templates/pivot.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse report template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// PageMeta carries the headings shown above the table.
type PageMeta struct {
	Title  string
	Source string
}

type pageView struct {
	Title    string
	Source   string
	Header   []string
	Rows     []rowView
	RowCount int
	Agg      string
}

type rowView struct {
	Key      []string
	Values   []string
	Subtotal bool
	Grand    bool
}

// Render writes t as an HTML page to w.
func (r *HTMLRenderer) Render(w io.Writer, t *pivot.Table, meta PageMeta) error {
	if meta.Title == "" {
		meta.Title = DefaultSheetName
	}
	view := pageView{
		Title:    meta.Title,
		Source:   meta.Source,
		Header:   t.Header(),
		Rows:     make([]rowView, len(t.Rows)),
		RowCount: t.Len(),
		Agg:      string(t.Op),
	}
	for i, row := range t.Rows {
		values := make([]string, len(row.Values))
		for j, v := range row.Values {
			values[j] = v.String()
		}
		view.Rows[i] = rowView{
			Key:      row.KeyStrings(),
			Values:   values,
			Subtotal: row.Kind == pivot.RowSubtotal,
			Grand:    row.Kind == pivot.RowGrandTotal,
		}
	}
	return r.tmpl.Execute(w, view)
}
