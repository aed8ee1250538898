package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/decision-intel/backend-go/internal/decision"
	"github.com/andresuchdata/decision-intel/backend-go/internal/domain"
	"github.com/andresuchdata/decision-intel/backend-go/internal/ingest"
	"github.com/urfave/cli/v2"
)

const (
	formatJSON = "json"
	formatText = "text"
)

func analysisFlags() []cli.Flag {
	defaults := decision.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "initial-stock",
			Usage: "CSV of product_id,initial_stock",
		},
		&cli.IntFlag{
			Name:    "threshold-days",
			Usage:   "Days without a sale before a product is slow-moving",
			Value:   defaults.SlowMovingThresholdDays,
			EnvVars: []string{"SLOW_MOVING_THRESHOLD_DAYS"},
		},
		&cli.IntFlag{
			Name:    "lead-time",
			Usage:   "Supplier lead time in days",
			Value:   defaults.LeadTimeDays,
			EnvVars: []string{"REORDER_LEAD_TIME_DAYS"},
		},
		&cli.IntFlag{
			Name:    "safety-buffer",
			Usage:   "Extra days of cover held beyond lead time",
			Value:   defaults.SafetyBufferDays,
			EnvVars: []string{"SAFETY_BUFFER_DAYS"},
		},
		&cli.TimestampFlag{
			Name:   "now",
			Usage:  "Reference time for the analysis (RFC3339), defaults to the current time",
			Layout: time.RFC3339,
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Output format: json or text",
			Value: formatText,
		},
		&cli.IntFlag{
			Name:    "workers",
			Usage:   "Files parsed concurrently",
			Value:   4,
			EnvVars: []string{"APP_INGEST_WORKERS"},
		},
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Analyze local CSV or XLSX transaction files",
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Transaction file, repeatable",
				Required: true,
			},
		}, analysisFlags()...),
		Action: func(c *cli.Context) error {
			return analyzeFiles(c, c.StringSlice("file"))
		},
	}
}

// analyzeFiles parses paths and writes the full report in the requested format.
func analyzeFiles(c *cli.Context, paths []string) error {
	format := c.String("format")
	if format != formatJSON && format != formatText {
		return fmt.Errorf("unknown format %q", format)
	}

	result, err := ingest.ParseFiles(c.Context, paths, c.Int("workers"))
	if err != nil {
		return err
	}

	var initialStock map[string]int
	if path := c.String("initial-stock"); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("failed to open initial stock: %w", err)
		}
		defer f.Close()
		initialStock, _, err = ingest.ParseInitialStock(f)
		if err != nil {
			return fmt.Errorf("initial stock: %w", err)
		}
	}

	now := time.Now()
	if ts := c.Timestamp("now"); ts != nil {
		now = *ts
	}

	engine := decision.NewEngine(decision.Config{
		SlowMovingThresholdDays: c.Int("threshold-days"),
		LeadTimeDays:            c.Int("lead-time"),
		SafetyBufferDays:        c.Int("safety-buffer"),
	})
	report := engine.Analyze(result.Transactions, initialStock, now)

	if format == formatJSON {
		return writeJSON(c.App.Writer, report, result.RowsSkipped())
	}
	return writeText(c.App.Writer, report, result.RowsSkipped())
}

func writeJSON(w io.Writer, report decision.Report, rowsSkipped int) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		decision.Report
		Summary     domain.DecisionSummary `json:"summary"`
		RowsSkipped int                    `json:"rows_skipped"`
	}{
		Report:      report,
		Summary:     report.Summary(),
		RowsSkipped: rowsSkipped,
	})
}

func writeText(w io.Writer, report decision.Report, rowsSkipped int) error {
	summary := report.Summary()
	fmt.Fprintf(w, "Products: %d  Rows skipped: %d\n", summary.TotalProducts, rowsSkipped)
	fmt.Fprintf(w, "Risks: %d (critical %d, high %d, medium %d, low %d)\n",
		summary.InventoryRisks.Total,
		summary.InventoryRisks.Critical,
		summary.InventoryRisks.High,
		summary.InventoryRisks.Medium,
		summary.InventoryRisks.Low)
	fmt.Fprintf(w, "Slow movers: %d  Reorders: %d\n\n", summary.SlowMovingProducts, summary.ReorderRecommendations)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIORITY\tDECISION\tPRODUCT\tACTION")
	for _, in := range report.Insights {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", in.Priority, in.DecisionType, in.ProductName, in.RecommendedAction)
	}
	return tw.Flush()
}
