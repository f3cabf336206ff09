package exporter

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bekutils/internal/config"
	"bekutils/internal/pivot"
	"bekutils/internal/shared/testutil"
)

func factoryTable(t *testing.T) *pivot.Table {
	t.Helper()
	table, err := pivot.Build(testutil.FactoryDataset(), testutil.FactoryRequest())
	require.NoError(t, err)
	return table
}

func setupTestEnv(t *testing.T) (*CSVWriter, string) {
	t.Helper()

	tempDir := t.TempDir()
	paths := &config.Paths{
		ExecutableDir: tempDir,
		ReportsDir:    filepath.Join(tempDir, "reports"),
	}
	logger, _ := testutil.NewTestLogger(t)
	return NewCSVWriter(paths, logger), tempDir
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(data, utf8BOM), "missing BOM")
	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, factoryTable(t)))

	records := readCSV(t, buf.Bytes())
	require.Len(t, records, 9)
	assert.Equal(t, []string{"Factory", "Name", "Total Addresses", "Assigned to Writers"}, records[0])
	assert.Equal(t, []string{"A", "x", "1", "0"}, records[1])
	assert.Equal(t, []string{"A", "_TOTAL", "3", "1"}, records[3])
	assert.Equal(t, []string{"_TOTAL", "_TOTAL", "6", "4"}, records[8])
}

func TestCSVWriter_SaveTable(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	require.NoError(t, writer.SaveTable("summary.csv", factoryTable(t)))

	data, err := os.ReadFile(filepath.Join(tempDir, "reports", "summary.csv"))
	require.NoError(t, err)
	records := readCSV(t, data)
	assert.Len(t, records, 9)
}

func TestCSVWriter_SaveTablePaths(t *testing.T) {
	writer, tempDir := setupTestEnv(t)
	table := factoryTable(t)

	tests := []struct {
		name     string
		filePath string
		expected string
	}{
		{"relative lands in reports dir", "plain.csv", filepath.Join(tempDir, "reports", "plain.csv")},
		{"nested relative", filepath.Join("sub", "nested.csv"), filepath.Join(tempDir, "reports", "sub", "nested.csv")},
		{"absolute path", filepath.Join(tempDir, "elsewhere", "abs.csv"), filepath.Join(tempDir, "elsewhere", "abs.csv")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, writer.SaveTable(tt.filePath, table))

			data, err := os.ReadFile(tt.expected)
			require.NoError(t, err)
			assert.Equal(t, table.Records(), readCSV(t, data)[1:])
		})
	}
}

func TestCSVWriter_CreateStreamWriter(t *testing.T) {
	writer, tempDir := setupTestEnv(t)
	table := factoryTable(t)

	stream, err := writer.CreateStreamWriter("stream.csv", table.Header())
	require.NoError(t, err)
	for _, row := range table.Rows {
		require.NoError(t, stream.WriteRow(row))
	}
	require.NoError(t, stream.Close())

	data, err := os.ReadFile(filepath.Join(tempDir, "reports", "stream.csv"))
	require.NoError(t, err)
	records := readCSV(t, data)
	require.Len(t, records, 9)
	assert.Equal(t, table.Header(), records[0])
	assert.Equal(t, table.Records(), records[1:])
}

func TestCSVWriter_LogsWrites(t *testing.T) {
	tempDir := t.TempDir()
	logger, handler := testutil.NewTestLogger(t)
	writer := NewCSVWriter(&config.Paths{ReportsDir: tempDir}, logger)

	require.NoError(t, writer.SaveTable("logged.csv", factoryTable(t)))

	assert.True(t, handler.ContainsMessage("Creating CSV stream writer"))
	assert.True(t, handler.ContainsMessage("CSV report written"))
	assert.True(t, handler.ContainsAttr("component", "csv_writer"))
}
