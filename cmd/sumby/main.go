// Command sumby reads a CSV or XLSX file, groups it with subtotals and
// writes a titled report.
//
//	sumby -in orders.xlsx -group "Factory:total,Name" -values "Total Addresses,Assigned to Writers"
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"bekutils/internal/config"
	"bekutils/internal/dataset"
	"bekutils/internal/exporter"
	"bekutils/internal/infrastructure"
	"bekutils/internal/pivot"
	"bekutils/internal/services"
)

type options struct {
	in           string
	group        string
	values       string
	agg          string
	out          string
	sheet        string
	headerString string
	headerCol    string
	title        string
	format       string
	keepText     string
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "sumby:", err)
		}
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("sumby", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.in, "in", "", "input CSV or XLSX file (required)")
	fs.StringVar(&o.group, "group", "", `group columns, e.g. "Factory:total,Name" (required)`)
	fs.StringVar(&o.values, "values", "", "comma separated value columns (required)")
	fs.StringVar(&o.agg, "agg", "", "aggregation: sum, count, mean, min or max (default from config)")
	fs.StringVar(&o.out, "out", "", "output file (default <executable>.<format> in the current directory)")
	fs.StringVar(&o.sheet, "sheet", "", "input worksheet (default first sheet)")
	fs.StringVar(&o.headerString, "header-string", "", "text that marks the header row")
	fs.StringVar(&o.headerCol, "header-col", "A", "column searched for -header-string")
	fs.StringVar(&o.title, "title", "", "report title (default from config)")
	fs.StringVar(&o.keepText, "keep-text", "", "comma separated columns kept as text, e.g. ZIP codes")
	fs.StringVar(&o.format, "format", "", "output format: xlsx, csv, json or html (default from config)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}

	var missing []string
	for _, f := range []struct{ name, value string }{{"in", o.in}, {"group", o.group}, {"values", o.values}} {
		if f.value == "" {
			missing = append(missing, "-"+f.name)
		}
	}
	if len(missing) > 0 {
		fs.Usage()
		return o, fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	return o, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "sumby: using default configuration:", err)
		cfg = config.Default()
	}
	logger := infrastructure.NewLogger(cfg.Logging, stderr).With(slog.String("component", "sumby"))

	svc, err := services.NewPivotService(cfg.Report, nil, nil, logger)
	if err != nil {
		return err
	}

	format := svc.DefaultFormat()
	if o.format != "" {
		if format, err = exporter.ParseFormat(o.format); err != nil {
			return err
		}
	}

	groups, err := pivot.ParseGroupSpec(o.group)
	if err != nil {
		return err
	}
	req := pivot.Request{Groups: groups, Values: splitList(o.values)}
	if o.agg != "" {
		if req.Op, err = pivot.ParseAggOp(o.agg); err != nil {
			return err
		}
	}

	ds, err := dataset.ReadFile(o.in, dataset.Options{
		Sheet:        o.sheet,
		HeaderString: o.headerString,
		HeaderColumn: strings.ToUpper(o.headerCol),
		KeepText:     splitList(o.keepText),
	})
	if err != nil {
		return err
	}

	t, err := svc.Build(ctx, ds, req)
	if err != nil {
		return err
	}

	out := o.out
	if out == "" {
		out = config.DefaultReportName(format.Extension())
	}
	if err := writeReport(ctx, svc, out, t, format, services.ExportMeta{Title: o.title, Source: filepath.Base(o.in)}); err != nil {
		return err
	}

	logger.InfoContext(ctx, "report written",
		slog.String("file", out),
		slog.String("format", string(format)),
		slog.Int("rows", t.Len()))
	fmt.Fprintln(stdout, out)
	return nil
}

func writeReport(ctx context.Context, svc *services.PivotService, path string, t *pivot.Table, format exporter.Format, meta services.ExportMeta) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return svc.Export(ctx, f, t, format, meta)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
