package app

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bekutils/internal/config"
	"bekutils/internal/shared/testutil"
)

func newTestApp(t *testing.T) *Application {
	t.Helper()

	cfg := config.Default()
	cfg.Security.RateLimit.Enabled = false
	paths := config.NewPaths(t.TempDir(), cfg.Paths)
	logger, _ := testutil.NewTestLogger(t)

	app, err := New(cfg, paths, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		app.collector.Stop()
	})
	return app
}

func serve(app *Application, method, target, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func TestApplication_Health(t *testing.T) {
	app := newTestApp(t)

	rec := serve(app, http.MethodGet, "/api/health", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = serve(app, http.MethodGet, "/api/health/ready", "", "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestApplication_Pivot(t *testing.T) {
	app := newTestApp(t)

	body := `{
		"columns": ["Factory", "Total"],
		"rows": [["A", 1], ["A", 2], ["B", 3]],
		"group_by": [{"column": "Factory", "subtotal": true}],
		"values": ["Total"]
	}`
	rec := serve(app, http.MethodPost, "/api/pivot", "application/json", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"success"`)
	assert.Contains(t, rec.Body.String(), `"_TOTAL"`)
}

func TestApplication_PivotRejectsBadAggregation(t *testing.T) {
	app := newTestApp(t)

	body := `{"columns": ["Factory", "Total"], "rows": [["A", 1]], "group_by": [{"column": "Factory"}], "values": ["Total"], "agg": "median"}`
	rec := serve(app, http.MethodPost, "/api/pivot", "application/json", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestApplication_NotFound(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/nope", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Contains(t, rec.Body.String(), `"trace_id":"req-123"`)
}

func TestApplication_CompressesJSON(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"status":"ok"`)
}

func TestApplication_ReportsEmpty(t *testing.T) {
	app := newTestApp(t)

	rec := serve(app, http.MethodGet, "/api/reports", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":0`)
}

func TestApplication_Metrics(t *testing.T) {
	app := newTestApp(t)

	serve(app, http.MethodGet, "/api/health", "", "")

	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "http_requests_total")
}
