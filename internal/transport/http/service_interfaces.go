package http

import (
	"context"
	"io"
	"os"

	"bekutils/internal/dataset"
	"bekutils/internal/exporter"
	"bekutils/internal/pivot"
	"bekutils/internal/services"
)

// PivotServiceInterface defines the pivot operations used by PivotHandler
type PivotServiceInterface interface {
	Build(ctx context.Context, ds *pivot.Dataset, req pivot.Request) (*pivot.Table, error)
	LoadUpload(ctx context.Context, filename string, r io.Reader, opts dataset.Options) (*pivot.Dataset, error)
	Export(ctx context.Context, w io.Writer, t *pivot.Table, format exporter.Format, meta services.ExportMeta) error
	DefaultFormat() exporter.Format
}

// ReportServiceInterface defines the saved report operations
type ReportServiceInterface interface {
	Save(ctx context.Context, name string, t *pivot.Table, format exporter.Format, meta services.ExportMeta) (*services.ReportInfo, error)
	List(ctx context.Context) ([]services.ReportInfo, error)
	Open(ctx context.Context, name string) (*os.File, exporter.Format, error)
}
