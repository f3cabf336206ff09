package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"bekutils/internal/shared/testutil"
)

const factoryCSV = "Factory,Name,Total Addresses,Assigned to Writers\nA,x,1,0\nA,y,2,1\nB,x,3,3\n"

func TestRun_XLSXReport(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "orders.csv", factoryCSV)
	out := filepath.Join(dir, "summary.xlsx")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-in", in,
		"-group", "Factory:total,Name:total",
		"-values", "Total Addresses, Assigned to Writers",
		"-out", out,
		"-title", "Writers",
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Equal(t, out+"\n", stdout.String())

	f, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Summary Report")
}

func TestRun_JSONReport(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "orders.csv", factoryCSV)
	out := filepath.Join(dir, "summary.json")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{
		"-in", in, "-group", "Factory:total,Name", "-values", "Total Addresses",
		"-agg", "count", "-format", "json", "-out", out,
	}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, string(data), "_TOTAL")
}

func TestRun_AggregationNames(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "orders.csv", factoryCSV)

	for _, agg := range []string{"SUM", "avg", " Max "} {
		t.Run(agg, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "summary.csv")
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), []string{
				"-in", in, "-group", "Factory:total", "-values", "Total Addresses",
				"-agg", agg, "-format", "csv", "-out", out,
			}, &stdout, &stderr)
			require.NoError(t, err, stderr.String())
			assert.FileExists(t, out)
		})
	}
}

func TestRun_KeepText(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "orders.csv", "Zip,Total Addresses\n02134,1\n02134,2\n10001,4\n")

	tests := []struct {
		name    string
		extra   []string
		want    string
		notWant string
	}{
		{"parsed as number", nil, "2134", "02134"},
		{"kept as text", []string{"-keep-text", "Zip"}, "02134", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "zips.csv")
			args := append([]string{
				"-in", in, "-group", "Zip", "-values", "Total Addresses",
				"-format", "csv", "-out", out,
			}, tt.extra...)

			var stdout, stderr bytes.Buffer
			require.NoError(t, run(context.Background(), args, &stdout, &stderr), stderr.String())

			data, err := os.ReadFile(out)
			require.NoError(t, err)
			assert.Contains(t, string(data), tt.want)
			if tt.notWant != "" {
				assert.NotContains(t, string(data), tt.notWant)
			}
		})
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	in := testutil.WriteFile(t, dir, "orders.csv", factoryCSV)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing flags", []string{"-in", in}, "missing required flags: -group, -values"},
		{"bad format", []string{"-in", in, "-group", "Factory", "-values", "Total Addresses", "-format", "pdf"}, "pdf"},
		{"bad aggregation", []string{"-in", in, "-group", "Factory", "-values", "Total Addresses", "-agg", "median", "-out", filepath.Join(dir, "x.xlsx")}, "median"},
		{"unknown column", []string{"-in", in, "-group", "Plant", "-values", "Total Addresses", "-out", filepath.Join(dir, "y.xlsx")}, "Plant"},
		{"missing input", []string{"-in", filepath.Join(dir, "nope.csv"), "-group", "Factory", "-values", "Total Addresses"}, "failed to open input file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
