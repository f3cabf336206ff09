package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"bekutils/internal/dataset"
	apierrors "bekutils/internal/errors"
	"bekutils/internal/exporter"
	bekmw "bekutils/internal/middleware"
	"bekutils/internal/pivot"
	"bekutils/internal/services"
)

// maxFormMemory is how much of a multipart upload is held in memory before
// spilling to temp files
const maxFormMemory = 8 << 20

// GroupByRequest is one grouping column of a pivot request
type GroupByRequest struct {
	Column   string `json:"column" validate:"required"`
	Subtotal bool   `json:"subtotal"`
}

// PivotRequest is the JSON body of POST /api/pivot. Rows hold one cell per
// column: numbers, strings, booleans or null.
type PivotRequest struct {
	Columns []string         `json:"columns" validate:"required,min=1,unique,dive,required"`
	Rows    [][]interface{}  `json:"rows"`
	GroupBy []GroupByRequest `json:"group_by" validate:"required,min=1,dive"`
	Values  []string         `json:"values" validate:"required,min=1,unique,dive,required"`
	Agg     string           `json:"agg" validate:"omitempty,aggop"`
	Format  string           `json:"format" validate:"omitempty,format"`
	Title   string           `json:"title" validate:"max=200"`
	Source  string           `json:"source" validate:"max=255"`
	SaveAs  string           `json:"save_as" validate:"max=255"`
}

// UploadForm holds the fields of POST /api/pivot/upload
type UploadForm struct {
	Filename     string `form:"file" validate:"required,filename"`
	GroupBy      string `form:"group_by" validate:"required"`
	Values       string `form:"values" validate:"required"`
	Agg          string `form:"agg" validate:"omitempty,aggop"`
	Format       string `form:"format" validate:"omitempty,format"`
	Sheet        string `form:"sheet" validate:"max=31"`
	HeaderString string `form:"header_string" validate:"max=255"`
	HeaderCol    string `form:"header_col" validate:"omitempty,alpha,max=3"`
	KeepText     string `form:"keep_text"`
	Title        string `form:"title" validate:"max=200"`
	SaveAs       string `form:"save_as" validate:"max=255"`
}

// PivotHandler builds pivot reports over HTTP
type PivotHandler struct {
	service      PivotServiceInterface
	reports      ReportServiceInterface
	validator    *bekmw.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPivotHandler creates a pivot handler. reports may be nil, which
// disables save_as.
func NewPivotHandler(service PivotServiceInterface, reports ReportServiceInterface, validator *bekmw.Validator, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PivotHandler {
	return &PivotHandler{
		service:      service,
		reports:      reports,
		validator:    validator,
		logger:       logger.With(slog.String("component", "pivot_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the pivot routes
func (h *PivotHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(bekmw.ContentTypeValidator("application/json")).Post("/", h.CreatePivot)
	r.With(bekmw.ContentTypeValidator("multipart/form-data")).Post("/upload", h.UploadPivot)
	return r
}

// CreatePivot handles POST /api/pivot
func (h *PivotHandler) CreatePivot(w http.ResponseWriter, r *http.Request) {
	var req PivotRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, decodeError(err))
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	ds, err := datasetFromRequest(req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	groups := make(pivot.GroupSpec, len(req.GroupBy))
	for i, g := range req.GroupBy {
		groups[i] = pivot.GroupColumn{Name: g.Column, Subtotal: g.Subtotal}
	}
	pr, err := buildRequest(groups, req.Values, req.Agg)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format := exporter.FormatJSON
	if req.Format != "" {
		format, _ = exporter.ParseFormat(req.Format)
	}

	h.logger.InfoContext(r.Context(), "pivot requested",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("groups", groups.String()),
		slog.Int("rows", len(ds.Rows)),
		slog.String("format", string(format)))

	h.respond(w, r, ds, pr, format, services.ExportMeta{Title: req.Title, Source: req.Source}, req.SaveAs)
}

// UploadPivot handles POST /api/pivot/upload
func (h *PivotHandler) UploadPivot(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		h.errorHandler.HandleError(w, r, decodeError(err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "file is required"))
		return
	}
	defer file.Close()

	form := UploadForm{
		Filename:     header.Filename,
		GroupBy:      r.FormValue("group_by"),
		Values:       r.FormValue("values"),
		Agg:          r.FormValue("agg"),
		Format:       r.FormValue("format"),
		Sheet:        r.FormValue("sheet"),
		HeaderString: r.FormValue("header_string"),
		HeaderCol:    r.FormValue("header_col"),
		KeepText:     r.FormValue("keep_text"),
		Title:        r.FormValue("title"),
		SaveAs:       r.FormValue("save_as"),
	}
	if err := h.validator.ValidateStruct(&form); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	groups, err := pivot.ParseGroupSpec(form.GroupBy)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	pr, err := buildRequest(groups, splitList(form.Values), form.Agg)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format := h.service.DefaultFormat()
	if form.Format != "" {
		format, _ = exporter.ParseFormat(form.Format)
	}

	h.logger.InfoContext(r.Context(), "pivot upload received",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size),
		slog.String("groups", groups.String()),
		slog.String("format", string(format)))

	ds, err := h.service.LoadUpload(r.Context(), header.Filename, file, dataset.Options{
		Sheet:        form.Sheet,
		HeaderString: form.HeaderString,
		HeaderColumn: strings.ToUpper(form.HeaderCol),
		KeepText:     splitList(form.KeepText),
	})
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.respond(w, r, ds, pr, format, services.ExportMeta{Title: form.Title, Source: header.Filename}, form.SaveAs)
}

// respond builds the pivot and writes it in format, saving a copy first when
// saveAs is set
func (h *PivotHandler) respond(w http.ResponseWriter, r *http.Request, ds *pivot.Dataset, req pivot.Request, format exporter.Format, meta services.ExportMeta, saveAs string) {
	table, err := h.service.Build(r.Context(), ds, req)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var saved *services.ReportInfo
	if saveAs != "" {
		if h.reports == nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("save_as", "saving reports is disabled"))
			return
		}
		saved, err = h.reports.Save(r.Context(), saveAs, table, format, meta)
		if err != nil {
			h.errorHandler.HandleError(w, r, reportError(err))
			return
		}
		w.Header().Set("X-Report-Name", saved.Name)
	}

	if format == exporter.FormatJSON {
		response := map[string]interface{}{
			"status": "success",
			"count":  table.Len(),
			"data":   exporter.NewTableDocument(table),
		}
		if saved != nil {
			response["report"] = saved
		}
		render.JSON(w, r, response)
		return
	}

	var buf bytes.Buffer
	if err := h.service.Export(r.Context(), &buf, table, format, meta); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := "pivot." + format.Extension()
	if saved != nil {
		filename = saved.Name
	}
	w.Header().Set("Content-Type", format.ContentType())
	if format != exporter.FormatHTML {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	}
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write response", slog.String("error", err.Error()))
	}
}

// datasetFromRequest converts the JSON rows to a dataset
func datasetFromRequest(req PivotRequest) (*pivot.Dataset, error) {
	ds := &pivot.Dataset{
		Columns: req.Columns,
		Rows:    make([]pivot.Row, 0, len(req.Rows)),
	}
	for i, cells := range req.Rows {
		if len(cells) > len(req.Columns) {
			return nil, apierrors.ErrValidation(fmt.Sprintf("rows[%d]", i),
				fmt.Sprintf("row has %d cells but there are %d columns", len(cells), len(req.Columns)))
		}
		row := make(pivot.Row, len(req.Columns))
		for j, col := range req.Columns {
			if j >= len(cells) {
				row[col] = pivot.Missing()
				continue
			}
			v, err := jsonCell(cells[j])
			if err != nil {
				return nil, apierrors.ErrValidation(fmt.Sprintf("rows[%d][%d]", i, j), err.Error())
			}
			row[col] = v
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// jsonCell maps a decoded JSON value to a cell. Strings stay text.
func jsonCell(v interface{}) (pivot.Value, error) {
	switch c := v.(type) {
	case nil:
		return pivot.Missing(), nil
	case float64:
		return pivot.Number(c), nil
	case string:
		return pivot.Text(c), nil
	case bool:
		return pivot.Text(strconv.FormatBool(c)), nil
	}
	return pivot.Value{}, fmt.Errorf("cell must be a number, string, boolean or null, got %T", v)
}

func buildRequest(groups pivot.GroupSpec, values []string, agg string) (pivot.Request, error) {
	req := pivot.Request{Groups: groups, Values: values}
	if agg != "" {
		op, err := pivot.ParseAggOp(agg)
		if err != nil {
			return req, err
		}
		req.Op = op
	}
	return req, nil
}

// splitList splits a comma separated form value, dropping blanks
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// decodeError keeps body size errors intact so they render as 413
func decodeError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}
	return apierrors.InvalidRequestWithError(err)
}

// reportError maps report store errors to API errors
func reportError(err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidReportPath):
		return apierrors.ErrValidation("name", "report name must be a plain file name")
	case errors.Is(err, services.ErrReportExtension):
		return apierrors.ErrValidation("save_as", err.Error())
	case errors.Is(err, services.ErrReportNotFound):
		return apierrors.NotFoundError("report")
	}
	return err
}
