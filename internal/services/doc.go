// Package services holds the operations shared by the HTTP handlers and the
// command line tools.
//
// # Services
//
//   - PivotService: loads uploaded CSV/XLSX files, builds subtotal pivots
//     and writes them out as JSON, CSV, XLSX or HTML
//   - ReportService: saves finished reports under the reports directory,
//     lists them and serves them back
//   - HealthService: health, readiness, liveness and version information
//
// Services take their *slog.Logger through the constructor and tag it with
// a component attribute. Build failures are returned unchanged so callers
// can match pivot.ErrInvalidInput and friends with errors.Is.
package services
