// Package shared holds code used across layers. Its testutil subpackage
// provides workbook and CSV fixtures plus a buffered slog handler for log
// assertions.
package shared
