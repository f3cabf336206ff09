package exporter

import (
	"fmt"
	"strings"

	"bekutils/internal/pivot"
)

// Format names an output encoding for a pivot table.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
)

// Formats lists every supported output format.
var Formats = []Format{FormatJSON, FormatCSV, FormatXLSX, FormatHTML}

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	switch name {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "html", "htm":
		return FormatHTML, nil
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/json"
	}
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// cellValue is the spreadsheet representation of v: float64 for numbers,
// nil for missing values.
func cellValue(v pivot.Value) interface{} {
	switch v.Kind {
	case pivot.KindNumber:
		return v.Num
	case pivot.KindText:
		return v.Text
	default:
		return nil
	}
}

func keyCellValue(k pivot.KeyPart) interface{} {
	if k.Numeric && !k.Total {
		return k.Num
	}
	return k.String()
}
