package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "bekutils/internal/errors"
	"bekutils/internal/exporter"
	"bekutils/internal/services"
	"bekutils/internal/shared/testutil"
)

func newReportRouter(t *testing.T, svc ReportServiceInterface) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	handler := NewReportHandler(svc, logger, apierrors.NewErrorHandler(logger, false))

	r := chi.NewRouter()
	r.Mount("/api/reports", handler.Routes())
	return r
}

func TestReportHandler_ListReports(t *testing.T) {
	modified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		setupMock      func(*MockReportService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "successful list",
			setupMock: func(m *MockReportService) {
				m.On("List").Return([]services.ReportInfo{
					{Name: "counts.xlsx", Format: "xlsx", Size: 2048, Modified: modified},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"count":1,"data":[{"name":"counts.xlsx","format":"xlsx","size":2048,"modified":"2026-03-01T12:00:00Z"}],"status":"success"}`,
		},
		{
			name: "empty",
			setupMock: func(m *MockReportService) {
				m.On("List").Return([]services.ReportInfo{}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"count":0`,
		},
		{
			name: "internal error",
			setupMock: func(m *MockReportService) {
				m.On("List").Return(nil, errors.New("permission denied"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"Internal Server Error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockReportService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
			rec := httptest.NewRecorder()
			newReportRouter(t, mockService).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}

func TestReportHandler_ListReportsByFormat(t *testing.T) {
	modified := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	all := []services.ReportInfo{
		{Name: "counts.xlsx", Format: "xlsx", Size: 2048, Modified: modified},
		{Name: "counts.csv", Format: "csv", Size: 120, Modified: modified},
		{Name: "totals.csv", Format: "csv", Size: 80, Modified: modified},
	}

	mockService := new(MockReportService)
	mockService.On("List").Return(all, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reports?format=CSV", nil)
	rec := httptest.NewRecorder()
	newReportRouter(t, mockService).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `"count":2`)
	assert.Contains(t, body, `"name":"counts.csv"`)
	assert.Contains(t, body, `"name":"totals.csv"`)
	assert.NotContains(t, body, `"name":"counts.xlsx"`)
	mockService.AssertExpectations(t)
}

func TestReportHandler_ListReportsRejectsUnknownFormat(t *testing.T) {
	mockService := new(MockReportService)

	req := httptest.NewRequest(http.MethodGet, "/api/reports?format=pdf", nil)
	rec := httptest.NewRecorder()
	newReportRouter(t, mockService).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "format must be one of: json, csv, xlsx, html")
	mockService.AssertNotCalled(t, "List")
}

func TestReportHandler_DownloadReport(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "counts.csv", "Factory,Total\nA,3\n")

	mockService := new(MockReportService)
	f, err := os.Open(path)
	require.NoError(t, err)
	mockService.On("Open", "counts.csv").Return(f, exporter.FormatCSV, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/counts.csv", nil)
	rec := httptest.NewRecorder()
	newReportRouter(t, mockService).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=counts.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "Factory,Total\nA,3\n", rec.Body.String())
	mockService.AssertExpectations(t)
}

func TestReportHandler_DownloadFormatQuery(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedBody   string
	}{
		{"matching format", "?format=csv", http.StatusOK, "Factory,Total"},
		{"other format", "?format=xlsx", http.StatusBadRequest, "report counts.csv is stored as csv, not xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, t.TempDir(), "counts.csv", "Factory,Total\nA,3\n")
			f, err := os.Open(path)
			require.NoError(t, err)

			mockService := new(MockReportService)
			mockService.On("Open", "counts.csv").Return(f, exporter.FormatCSV, nil)

			req := httptest.NewRequest(http.MethodGet, "/api/reports/counts.csv"+tt.query, nil)
			rec := httptest.NewRecorder()
			newReportRouter(t, mockService).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}

	t.Run("unknown format", func(t *testing.T) {
		mockService := new(MockReportService)

		req := httptest.NewRequest(http.MethodGet, "/api/reports/counts.csv?format=pdf", nil)
		rec := httptest.NewRecorder()
		newReportRouter(t, mockService).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"field":"format"`)
		mockService.AssertNotCalled(t, "Open", "counts.csv")
	})
}

func TestReportHandler_DownloadErrors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{"not found", services.ErrReportNotFound, http.StatusNotFound, apierrors.TypeNotFound},
		{"invalid name", services.ErrInvalidReportPath, http.StatusBadRequest, `"field":"name"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockReportService)
			mockService.On("Open", "missing.xlsx").Return(nil, exporter.Format(""), tt.err)

			req := httptest.NewRequest(http.MethodGet, "/api/reports/missing.xlsx", nil)
			rec := httptest.NewRecorder()
			newReportRouter(t, mockService).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
		})
	}
}
