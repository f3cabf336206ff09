package services

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bekutils/internal/config"
	"bekutils/internal/infrastructure"
	"bekutils/internal/shared/testutil"
)

func TestHealthService_HealthCheck(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	hs := NewHealthService("1.2.3", "", nil, nil, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.WithinDuration(t, time.Now(), status.Timestamp, time.Second)
	assert.True(t, handler.ContainsMessage("HealthService initialized"))
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) *config.Paths
		want    string
		message string
	}{
		{
			name: "writable reports dir",
			setup: func(t *testing.T) *config.Paths {
				paths := config.NewPaths(t.TempDir(), config.Default().Paths)
				require.NoError(t, paths.EnsureDirectories())
				return paths
			},
			want:    "ready",
			message: "Reports directory is writable",
		},
		{
			name: "missing reports dir",
			setup: func(t *testing.T) *config.Paths {
				return config.NewPaths(t.TempDir(), config.Default().Paths)
			},
			want:    "not_ready",
			message: "Reports directory not found",
		},
		{
			name: "reports path is a file",
			setup: func(t *testing.T) *config.Paths {
				dir := t.TempDir()
				file := testutil.WriteFile(t, dir, "reports", "")
				return &config.Paths{ExecutableDir: dir, ReportsDir: file}
			},
			want:    "not_ready",
			message: "not a directory",
		},
		{
			name:    "no paths",
			setup:   func(t *testing.T) *config.Paths { return nil },
			want:    "not_ready",
			message: "paths not configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService("dev", "", tt.setup(t), nil, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.want, status.Status)
			require.Contains(t, status.Services, "reports")
			assert.Equal(t, tt.want, status.Services["reports"].Status)
			assert.Contains(t, status.Services["reports"].Message, tt.message)
		})
	}
}

func TestHealthService_ReadinessLeavesNoTempFile(t *testing.T) {
	paths := config.NewPaths(t.TempDir(), config.Default().Paths)
	require.NoError(t, paths.EnsureDirectories())

	hs := NewHealthService("dev", "", paths, nil, nil)
	hs.ReadinessCheck(context.Background())

	entries, err := os.ReadDir(paths.ReportsDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHealthService_LivenessCheck(t *testing.T) {
	collector, err := infrastructure.NewSystemMetricsCollector(nil, time.Minute)
	require.NoError(t, err)

	for _, hs := range []*HealthService{
		NewHealthService("dev", "", nil, nil, nil),
		NewHealthService("dev", "", nil, collector, nil),
	} {
		status := hs.LivenessCheck(context.Background())
		assert.Equal(t, "alive", status.Status)
		assert.Equal(t, runtime.Version(), status.Runtime["go_version"])
		assert.Positive(t, status.Runtime["goroutines"])
	}
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService("1.0.0", "2026-01-01T00:00:00Z", nil, nil, nil)

	v := hs.Version()
	assert.Equal(t, "1.0.0", v["version"])
	assert.Equal(t, runtime.GOOS, v["os"])
	assert.Equal(t, "2026-01-01T00:00:00Z", v["build_time"])

	v = NewHealthService("1.0.0", "", nil, nil, nil).Version()
	assert.NotContains(t, v, "build_time")
}

func TestHealthService_SystemStats(t *testing.T) {
	hs := NewHealthService("dev", "", &config.Paths{ReportsDir: filepath.Join(t.TempDir(), "r")}, nil, nil)

	stats := hs.SystemStats(context.Background())
	require.NotNil(t, stats)
	assert.Positive(t, stats.GoRoutines)
	assert.Equal(t, runtime.NumCPU(), stats.CPUCount)
}
