package services

import "errors"

// Report errors
var (
	ErrReportNotFound    = errors.New("report not found")
	ErrInvalidReportPath = errors.New("invalid report path")
	ErrUnsupportedFormat = errors.New("unsupported output format")
	ErrReportExtension   = errors.New("report extension does not match format")
)
