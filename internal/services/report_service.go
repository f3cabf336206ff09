package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bekutils/internal/config"
	"bekutils/internal/exporter"
	"bekutils/internal/pivot"
)

// ReportInfo describes one saved report file
type ReportInfo struct {
	Name     string    `json:"name"`
	Format   string    `json:"format"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// ReportService stores finished reports under the reports directory
type ReportService struct {
	paths  *config.Paths
	pivots *PivotService
	csv    *exporter.CSVWriter
	logger *slog.Logger
}

// NewReportService creates a report store rooted at paths.ReportsDir
func NewReportService(paths *config.Paths, pivots *PivotService, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "report_service"))

	logger.Info("ReportService initialized",
		slog.String("reports_dir", paths.ReportsDir))

	return &ReportService{
		paths:  paths,
		pivots: pivots,
		csv:    exporter.NewCSVWriter(paths, logger),
		logger: logger,
	}
}

// Save writes t under name in the reports directory and returns its info.
// An empty name gets a timestamped default. A name without a report
// extension gets the format's; one naming another format is rejected.
func (s *ReportService) Save(ctx context.Context, name string, t *pivot.Table, format exporter.Format, meta ExportMeta) (*ReportInfo, error) {
	if name == "" {
		name = fmt.Sprintf("pivot_%s.%s", time.Now().Format("20060102_150405"), format.Extension())
	} else {
		if _, err := s.resolve(name); err != nil {
			return nil, err
		}
		var err error
		if name, err = reportName(name, format); err != nil {
			return nil, err
		}
	}

	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.paths.ReportsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create reports directory: %w", err)
	}

	switch format {
	case exporter.FormatCSV:
		err = s.csv.SaveTable(path, t)
	case exporter.FormatXLSX:
		err = s.pivots.xlsx.Save(path, t, s.pivots.ReportOptions(meta))
	default:
		err = s.saveWith(ctx, path, t, format, meta)
	}
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat saved report: %w", err)
	}

	s.logger.InfoContext(ctx, "report saved",
		slog.String("name", info.Name()),
		slog.String("format", string(format)),
		slog.Int64("size", info.Size()))

	return &ReportInfo{
		Name:     info.Name(),
		Format:   string(format),
		Size:     info.Size(),
		Modified: info.ModTime(),
	}, nil
}

// reportName makes the extension of name agree with format, so that List
// and Open see the file as the format it was written in.
func reportName(name string, format exporter.Format) (string, error) {
	got, err := exporter.ParseFormat(filepath.Ext(name))
	if err != nil {
		return name + "." + format.Extension(), nil
	}
	if got != format {
		return "", fmt.Errorf("%w: %q is not a %s file", ErrReportExtension, name, format)
	}
	return name, nil
}

func (s *ReportService) saveWith(ctx context.Context, path string, t *pivot.Table, format exporter.Format, meta ExportMeta) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report %s: %w", path, err)
	}
	if err := s.pivots.Export(ctx, f, t, format, meta); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// List returns the saved reports, newest first
func (s *ReportService) List(ctx context.Context) ([]ReportInfo, error) {
	entries, err := os.ReadDir(s.paths.ReportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ReportInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read reports directory: %w", err)
	}

	reports := make([]ReportInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		format, err := exporter.ParseFormat(filepath.Ext(entry.Name()))
		if err != nil {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Debug("Error accessing report",
				slog.String("name", entry.Name()),
				slog.String("error", err.Error()))
			continue
		}
		reports = append(reports, ReportInfo{
			Name:     entry.Name(),
			Format:   string(format),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Modified.After(reports[j].Modified)
	})

	s.logger.DebugContext(ctx, "listed reports", slog.Int("count", len(reports)))
	return reports, nil
}

// Open resolves name inside the reports directory and opens it. Names that
// escape the directory are rejected.
func (s *ReportService) Open(ctx context.Context, name string) (*os.File, exporter.Format, error) {
	path, err := s.resolve(name)
	if err != nil {
		s.logger.WarnContext(ctx, "rejected report path", slog.String("requested", name))
		return nil, "", err
	}
	format, err := exporter.ParseFormat(filepath.Ext(path))
	if err != nil {
		return nil, "", ErrReportNotFound
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrReportNotFound
		}
		return nil, "", fmt.Errorf("failed to open report: %w", err)
	}
	return f, format, nil
}

// resolve maps a report name to a path inside the reports directory
func (s *ReportService) resolve(name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == "." || filepath.IsAbs(cleaned) || strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidReportPath
	}

	absDir, err := filepath.Abs(s.paths.ReportsDir)
	if err != nil {
		return "", fmt.Errorf("invalid reports directory: %w", err)
	}
	absPath := filepath.Join(absDir, cleaned)
	if filepath.Dir(absPath) != absDir {
		return "", ErrInvalidReportPath
	}
	return absPath, nil
}
