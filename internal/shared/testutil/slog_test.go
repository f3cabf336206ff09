package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures records and attrs", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("pivot built", slog.String("op", "sum"))
		logger.Error("export failed", slog.Int("code", 500))

		assert.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsMessage("pivot built"))
		assert.True(t, handler.ContainsAttr("op", "sum"))
		assert.True(t, handler.ContainsAttr("code", int64(500)))
	})

	t.Run("child loggers share records and keep attrs", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		child := logger.With(slog.String("component", "pivot_service"))
		child.WithGroup("req").Info("request", slog.String("agg", "mean"))

		records := handler.GetRecords()
		assert.Len(t, records, 1)
		assert.Equal(t, "pivot_service", records[0].Attrs["component"])
		assert.Equal(t, "mean", records[0].Attrs["req.agg"])
	})

	t.Run("filters by level and clears", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Debug("debug")
		logger.Info("info")
		logger.Warn("warn")

		assert.Len(t, handler.GetRecordsByLevel(slog.LevelWarn), 1)
		AssertLogContains(t, handler, slog.LevelInfo, "info")
		AssertNoErrors(t, handler)

		handler.Clear()
		assert.Zero(t, handler.Count())
	})
}
