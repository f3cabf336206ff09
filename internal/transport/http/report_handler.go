package http

import (
	"fmt"
	"log/slog"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "bekutils/internal/errors"
	"bekutils/internal/exporter"
	bekmw "bekutils/internal/middleware"
	"bekutils/internal/services"
)

// ReportHandler lists and serves saved reports
type ReportHandler struct {
	service      ReportServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	query        *bekmw.QueryParamValidator
}

// NewReportHandler creates a new report handler with RFC 7807 error handling
func NewReportHandler(service ReportServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ReportHandler {
	return &ReportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "report_handler")),
		errorHandler: errorHandler,
		query:        bekmw.NewQueryParamValidator(errorHandler),
	}
}

// Routes returns the report routes
func (h *ReportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListReports)
	r.Get("/{name}", h.DownloadReport)
	return r
}

// ListReports handles GET /api/reports, optionally filtered by ?format=
func (h *ReportHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	format, ok := h.query.ValidateEnum(w, r, "format", formatNames(), "")
	if !ok {
		return
	}

	reports, err := h.service.List(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list reports",
			slog.String("error", err.Error()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if format != "" {
		filtered := make([]services.ReportInfo, 0, len(reports))
		for _, info := range reports {
			if info.Format == format {
				filtered = append(filtered, info)
			}
		}
		reports = filtered
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   reports,
		"count":  len(reports),
	})
}

// DownloadReport handles GET /api/reports/{name}. A ?format= that differs
// from the stored report's format is rejected.
func (h *ReportHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	want, ok := h.query.ValidateEnum(w, r, "format", formatNames(), "")
	if !ok {
		return
	}

	f, format, err := h.service.Open(r.Context(), name)
	if err != nil {
		h.errorHandler.HandleError(w, r, reportError(err))
		return
	}
	defer f.Close()

	if want != "" && string(format) != want {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("format",
			fmt.Sprintf("report %s is stored as %s, not %s", name, format, want)))
		return
	}

	info, err := f.Stat()
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("stat", err))
		return
	}

	h.logger.DebugContext(r.Context(), "serving report",
		slog.String("name", info.Name()),
		slog.Int64("size", info.Size()))

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name()}))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func formatNames() []string {
	names := make([]string, len(exporter.Formats))
	for i, f := range exporter.Formats {
		names[i] = string(f)
	}
	return names
}
