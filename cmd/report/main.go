package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"pesticide-analytics/internal/analytics"
	"pesticide-analytics/internal/config"
	"pesticide-analytics/internal/datasource"
	"pesticide-analytics/internal/models"
	"pesticide-analytics/internal/report"
	"pesticide-analytics/internal/services"
	"pesticide-analytics/pkg/logging"
	"pesticide-analytics/pkg/metrics"
)

func main() {
	view := flag.String("view", "all", "View slug to render, or all")
	countries := flag.String("countries", "", "Comma separated countries (default: all)")
	types := flag.String("types", "", "Comma separated pesticide types (default: all)")
	from := flag.Int("from", 0, "First year, inclusive (default: earliest)")
	to := flag.Int("to", 0, "Last year, inclusive (default: latest)")
	focus := flag.String("focus", "", "Focus country (default: configured)")
	xlsxPath := flag.String("xlsx", "", "Write an xlsx workbook to this path")
	chartsDir := flag.String("charts", "", "Write PNG charts into this directory")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("pesticide-report", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(os.Stderr)
	logger.SetFormat(logging.FormatConsole)
	metricsCollector := metrics.NewCollector("pesticide_report", prometheus.NewRegistry())

	ctx := context.Background()

	src, closeSource, err := datasource.Open(ctx, cfg, logger, metricsCollector, datasource.Options{})
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Failed to open dataset source", logging.Fields{}, err)
	}
	dataset, err := datasource.LoadDataset(ctx, src, cfg.Source.Driver, logger, metricsCollector)
	closeSource()
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Failed to load dataset", logging.Fields{}, err)
	}

	dashboard, err := services.NewDashboardService(dataset, cfg.Analysis.Options(), cfg.Analysis.FocusCountry, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Failed to build dashboard", logging.Fields{}, err)
	}

	opts := dashboard.Options()
	sel, err := models.NewSelection(
		listFlag(*countries, opts.Countries),
		listFlag(*types, opts.PesticideTypes),
		yearFlag(*from, opts.YearMin),
		yearFlag(*to, opts.YearMax),
	)
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Invalid selection", logging.Fields{}, err)
	}

	var results []analytics.Result
	if *view == "all" {
		results, err = dashboard.RenderAll(ctx, sel, *focus)
	} else {
		var v models.View
		if v, err = models.ParseView(*view); err == nil {
			var res analytics.Result
			if res, err = dashboard.Render(ctx, models.Session{View: v, Selection: sel, FocusCountry: *focus}); err == nil {
				results = []analytics.Result{res}
			}
		}
	}
	if errors.Is(err, models.ErrNoData) {
		fmt.Println("No data available for the selected filters.")
		return
	}
	if err != nil {
		logger.Fatal(ctx, "[REPORT_ERROR] Failed to render", logging.Fields{"view": *view}, err)
	}

	for _, res := range results {
		if err := report.WriteText(os.Stdout, res); err != nil {
			logger.Fatal(ctx, "[REPORT_ERROR] Failed to write tables", logging.Fields{"view": res.View().Slug()}, err)
		}
		fmt.Println()
	}

	if *xlsxPath != "" {
		if err := writeWorkbook(*xlsxPath, results); err != nil {
			logger.Fatal(ctx, "[REPORT_ERROR] Failed to write workbook", logging.Fields{"path": *xlsxPath}, err)
		}
		metricsCollector.ReportArtifactsTotal.WithLabelValues("xlsx").Inc()
		logger.Info(ctx, "[REPORT_WORKBOOK] Workbook written", logging.Fields{"path": *xlsxPath, "sheets": len(results)})
	}

	if *chartsDir != "" {
		if err := os.MkdirAll(*chartsDir, 0o755); err != nil {
			logger.Fatal(ctx, "[REPORT_ERROR] Failed to create charts directory", logging.Fields{"dir": *chartsDir}, err)
		}
		paths, err := report.WriteCharts(*chartsDir, results)
		if err != nil {
			logger.Fatal(ctx, "[REPORT_ERROR] Failed to write charts", logging.Fields{"dir": *chartsDir}, err)
		}
		metricsCollector.ReportArtifactsTotal.WithLabelValues("png").Add(float64(len(paths)))
		logger.Info(ctx, "[REPORT_CHARTS] Charts written", logging.Fields{"files": paths})
	}
}

func writeWorkbook(path string, results []analytics.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteWorkbook(f, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// listFlag splits a comma separated flag; an unset flag selects everything.
func listFlag(value string, all []string) []string {
	if value == "" {
		return all
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func yearFlag(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
