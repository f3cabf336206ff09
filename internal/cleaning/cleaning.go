// Package cleaning normalizes spreadsheet fields for lookups and comparisons.
package cleaning

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"bekutils/internal/pivot"
)

// CaseMode selects how CleanField changes letter case.
type CaseMode string

const (
	CaseLower CaseMode = "lower"
	CaseUpper CaseMode = "upper"
	CaseKeep  CaseMode = "keep"
)

var fieldStripper = strings.NewReplacer(" ", "", "'", "", ".", "", "-", "")

// CleanField trims s, removes spaces, apostrophes, periods and hyphens, then
// applies the case mode. An empty mode means CaseLower.
func CleanField(s string, mode CaseMode) (string, error) {
	out := fieldStripper.Replace(strings.TrimSpace(s))
	switch mode {
	case CaseLower, "":
		return strings.ToLower(out), nil
	case CaseUpper:
		return strings.ToUpper(out), nil
	case CaseKeep:
		return out, nil
	default:
		return "", fmt.Errorf("clean field: unknown case mode %q", mode)
	}
}

// Clean is CleanField with lower casing.
func Clean(s string) string {
	out, _ := CleanField(s, CaseLower)
	return out
}

// IsNumber reports whether s parses as a float. NaN does not count.
func IsNumber(s string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil && !math.IsNaN(f)
}

// ConvertBool accepts a bool or any casing of "true" and "false".
func ConvertBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(b) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, fmt.Errorf("convert bool: %v is not true or false", v)
}

// SafeString renders a cell, using "" for missing values.
func SafeString(v pivot.Value) string {
	if v.IsMissing() {
		return ""
	}
	return v.String()
}
