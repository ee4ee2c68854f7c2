package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"promohypo/adapters/db"
	"promohypo/adapters/excel"
	"promohypo/adapters/report"
	"promohypo/app"
	"promohypo/domain/analysis"
	"promohypo/internal/errors"

	"github.com/spf13/cobra"
)

type analyzeFlags struct {
	sheet           string
	level           float64
	workers         int
	allowSeparation bool
	htmlOut         string
	store           bool
}

func newAnalyzeCmd(c *cli) *cobra.Command {
	var f analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Fit the promotion models on a csv or xlsx file and print the report",
		Long: `Read employee rows (sales, customer rate, performance, promoted) from a csv or
xlsx file, fit every model family and print a markdown report to stdout.

The file defaults to DATA_FILE when no argument is given.

Example: promohypo-cli analyze promotions.xlsx --sheet Employees --html report.html --store`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.cfg.Data.File
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return errors.ValidationError("no input file: pass one or set DATA_FILE", nil)
			}
			if !cmd.Flags().Changed("sheet") {
				f.sheet = c.cfg.Data.Sheet
			}
			if cmd.Flags().Changed("level") {
				c.cfg.Analysis.ConfidenceLevel = f.level
			}
			if cmd.Flags().Changed("workers") {
				c.cfg.Analysis.Workers = f.workers
			}
			if cmd.Flags().Changed("allow-separation") {
				c.cfg.Analysis.AllowSeparation = f.allowSeparation
			}
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), c, path, f)
		},
	}

	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Worksheet to read from an xlsx file (default: first sheet)")
	cmd.Flags().Float64Var(&f.level, "level", 0.95, "Confidence level for odds-ratio intervals")
	cmd.Flags().IntVar(&f.workers, "workers", 4, "Model fits to run in parallel")
	cmd.Flags().BoolVar(&f.allowSeparation, "allow-separation", false, "Report separated fits with a warning instead of failing them")
	cmd.Flags().StringVar(&f.htmlOut, "html", "", "Also write the report as a standalone HTML page")
	cmd.Flags().BoolVar(&f.store, "store", false, "Save the report to the database")

	return cmd
}

func runAnalyze(ctx context.Context, c *cli, path string, f analyzeFlags) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".xlsx" {
		return errors.ValidationError(fmt.Sprintf("unsupported file type %q (want .csv or .xlsx)", ext), nil)
	}

	source := excel.NewDataReader(path).WithSheet(f.sheet)
	service := app.NewAnalysisService(serviceOptions(c.cfg))

	rep, err := service.RunSource(ctx, source, nil)
	if err != nil {
		return errors.AnalysisError(source.Name(), err)
	}

	if err := report.NewMarkdownRenderer().Render(os.Stdout, rep); err != nil {
		return err
	}

	if f.htmlOut != "" {
		if err := writeHTML(f.htmlOut, rep); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "📄 HTML report written to %s\n", f.htmlOut)
	}

	if f.store {
		conn, err := db.Open(ctx, c.cfg.Database.Driver, c.cfg.Database.URL)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := db.NewAnalysisRepository(conn).Save(ctx, rep); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "💾 Stored analysis %s\n", rep.ID)
	}

	if failed := rep.Failed(); len(failed) > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  %d operation(s) failed; see the report's Failed operations section\n", len(failed))
	}
	return nil
}

func writeHTML(path string, rep *analysis.Report) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	if err := report.NewHTMLRenderer().Render(out, rep); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
