package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	base := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere")

	p := NewPaths(base, PathsConfig{DataDir: "data", ReportsDir: abs, LogsDir: "logs"})

	assert.Equal(t, filepath.Join(base, "data"), p.DataDir)
	assert.Equal(t, abs, p.ReportsDir)
	assert.Equal(t, filepath.Join(base, "logs", "app.log"), p.GetLogPath("app.log"))
	assert.Equal(t, filepath.Join(abs, "summary.xlsx"), p.GetReportPath("summary.xlsx"))
	assert.Equal(t, "/tmp/x.xlsx", p.GetReportPath("/tmp/x.xlsx"))
	assert.Equal(t, filepath.Join(base, "data", "in.csv"), p.GetDataPath("in.csv"))

	require.NoError(t, p.EnsureDirectories())
	assert.True(t, FileExists(p.DataDir))
	assert.True(t, FileExists(p.ReportsDir))
	assert.True(t, FileExists(p.LogsDir))
}

func TestGetPaths(t *testing.T) {
	p, err := GetPaths()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(p.ExecutableDir))
	assert.True(t, strings.HasPrefix(p.ReportsDir, p.ExecutableDir))
}

func TestDefaultReportName(t *testing.T) {
	name := DefaultReportName(".xlsx")
	assert.True(t, strings.HasSuffix(name, ".xlsx"))
	assert.Equal(t, ExecutableName()+".csv", DefaultReportName("csv"))
}
