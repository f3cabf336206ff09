package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bekutils/internal/config"
	"bekutils/internal/dataset"
	"bekutils/internal/exporter"
	"bekutils/internal/infrastructure"
	"bekutils/internal/pivot"
)

// ExportMeta names the report in titles and download headers
type ExportMeta struct {
	Title  string
	Source string
}

// PivotService loads datasets, builds pivots and exports them
type PivotService struct {
	report  config.ReportConfig
	metrics *infrastructure.PivotMetrics
	tracer  trace.Tracer
	xlsx    *exporter.XLSXWriter
	html    *exporter.HTMLRenderer
	logger  *slog.Logger
}

// NewPivotService creates a pivot service. metrics and tracer may be nil.
func NewPivotService(report config.ReportConfig, metrics *infrastructure.PivotMetrics, tracer trace.Tracer, logger *slog.Logger) (*PivotService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.MeterName)
	}

	html, err := exporter.NewHTMLRenderer()
	if err != nil {
		return nil, err
	}

	return &PivotService{
		report:  report,
		metrics: metrics,
		tracer:  tracer,
		xlsx:    exporter.NewXLSXWriter(logger),
		html:    html,
		logger:  logger.With(slog.String("component", "pivot_service")),
	}, nil
}

// Build computes the subtotal pivot of ds. Errors from the pivot package are
// returned as is.
func (s *PivotService) Build(ctx context.Context, ds *pivot.Dataset, req pivot.Request) (*pivot.Table, error) {
	if req.Op == "" && s.report.DefaultAgg != "" {
		op, err := pivot.ParseAggOp(s.report.DefaultAgg)
		if err != nil {
			return nil, err
		}
		req.Op = op
	}

	ctx, span := s.tracer.Start(ctx, "pivot.build",
		trace.WithAttributes(
			attribute.String("pivot.agg", string(req.Op)),
			attribute.String("pivot.groups", req.Groups.String()),
			attribute.Int("pivot.values", len(req.Values)),
		))
	defer span.End()

	rowsIn := 0
	if ds != nil {
		rowsIn = len(ds.Rows)
	}
	s.logger.DebugContext(ctx, "building pivot",
		slog.String("groups", req.Groups.String()),
		slog.Any("values", req.Values),
		slog.String("agg", string(req.Op)),
		slog.Int("rows_in", rowsIn))

	start := time.Now()
	var opts []pivot.Option
	if s.report.Concurrency > 0 {
		opts = append(opts, pivot.WithConcurrency(s.report.Concurrency))
	}
	table, err := pivot.BuildContext(ctx, ds, req, opts...)
	duration := time.Since(start)

	if err != nil {
		kind := errorKind(err)
		s.metrics.RecordPivotBuild(ctx, string(req.Op), duration, 0, kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, kind)
		s.logger.WarnContext(ctx, "pivot build failed",
			slog.String("error", err.Error()),
			slog.String("error_kind", kind),
			slog.Duration("duration", duration))
		return nil, err
	}

	s.metrics.RecordPivotBuild(ctx, string(req.Op), duration, table.Len(), "")
	span.SetAttributes(attribute.Int("pivot.rows_out", table.Len()))
	s.logger.InfoContext(ctx, "pivot built",
		slog.Int("rows_in", rowsIn),
		slog.Int("rows_out", table.Len()),
		slog.Int("subtotals", table.Count(pivot.RowSubtotal)),
		slog.Duration("duration", duration))
	return table, nil
}

// LoadUpload reads an uploaded CSV or XLSX file, choosing the reader by the
// file name's extension.
func (s *PivotService) LoadUpload(ctx context.Context, filename string, r io.Reader, opts dataset.Options) (*pivot.Dataset, error) {
	_, span := s.tracer.Start(ctx, "dataset.load",
		trace.WithAttributes(attribute.String("file.name", filepath.Base(filename))))
	defer span.End()

	ds, err := dataset.Read(filename, r, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		s.logger.WarnContext(ctx, "failed to load upload",
			slog.String("file", filepath.Base(filename)),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.logger.DebugContext(ctx, "loaded upload",
		slog.String("file", filepath.Base(filename)),
		slog.Int("columns", len(ds.Columns)),
		slog.Int("rows", len(ds.Rows)))
	return ds, nil
}

// Export writes t to w in format.
func (s *PivotService) Export(ctx context.Context, w io.Writer, t *pivot.Table, format exporter.Format, meta ExportMeta) error {
	_, span := s.tracer.Start(ctx, "pivot.export",
		trace.WithAttributes(attribute.String("export.format", string(format))))
	defer span.End()

	var err error
	switch format {
	case exporter.FormatJSON:
		err = exporter.WriteJSON(w, t)
	case exporter.FormatCSV:
		err = exporter.WriteTable(w, t)
	case exporter.FormatXLSX:
		err = s.xlsx.Write(w, t, s.ReportOptions(meta))
	case exporter.FormatHTML:
		err = s.html.Render(w, t, exporter.PageMeta{Title: s.title(meta), Source: meta.Source})
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "export failed")
		return err
	}
	return nil
}

// ReportOptions returns the workbook layout for meta under the configured
// report settings.
func (s *PivotService) ReportOptions(meta ExportMeta) exporter.ReportOptions {
	return exporter.NewReportOptions(s.report, meta.Title, meta.Source)
}

// DefaultFormat is the configured output format, xlsx when unset.
func (s *PivotService) DefaultFormat() exporter.Format {
	if f, err := exporter.ParseFormat(s.report.DefaultFormat); err == nil {
		return f
	}
	return exporter.FormatXLSX
}

func (s *PivotService) title(meta ExportMeta) string {
	if meta.Title != "" {
		return meta.Title
	}
	return s.report.Title
}

// errorKind labels a build failure for metrics and logs
func errorKind(err error) string {
	switch {
	case errors.Is(err, pivot.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, pivot.ErrUnsupportedAggregation):
		return "unsupported_aggregation"
	case errors.Is(err, pivot.ErrKeyReconciliation):
		return "key_reconciliation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	}
	return "internal"
}
