package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"promohypo/adapters/db"
	"promohypo/adapters/db/migrations"
	"promohypo/adapters/report"
	"promohypo/domain/core"
	"promohypo/internal/errors"

	"github.com/spf13/cobra"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var limit int
	var reduced, full string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored analyses, or the stored tests of one model comparison",
		Long: `List analyses saved with 'analyze --store', newest first.

With --reduced and --full, list the likelihood-ratio tests of that pair instead.

Example: promohypo-cli history --reduced covariates --full performance_steps`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (reduced == "") != (full == "") {
				return errors.ValidationError("--reduced and --full must be given together", nil)
			}
			ctx := cmd.Context()
			conn, err := db.Open(ctx, c.cfg.Database.Driver, c.cfg.Database.URL)
			if err != nil {
				return err
			}
			defer conn.Close()

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if reduced != "" {
				records, err := db.ComparisonHistory(ctx, conn, reduced, full, limit)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "ANALYSIS\tCREATED\tCHI²\tDF\tP")
				for _, r := range records {
					fmt.Fprintf(tw, "%s\t%s\t%.4f\t%d\t%.4g\n", r.AnalysisID, r.CreatedAt, r.ChiSquare, r.DF, r.PValue)
				}
				return nil
			}

			summaries, err := db.NewAnalysisRepository(conn).List(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "ANALYSIS\tCREATED\tSOURCE\tROWS\tMODELS\tFAILURES")
			for _, s := range summaries {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n", s.ID, s.CreatedAt, s.Source, s.Rows, s.Models, s.Failures)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to list")
	cmd.Flags().StringVar(&reduced, "reduced", "", "Reduced model family of the comparison")
	cmd.Flags().StringVar(&full, "full", "", "Full model family of the comparison")
	return cmd
}

func newShowCmd(c *cli) *cobra.Command {
	var htmlOut string

	cmd := &cobra.Command{
		Use:   "show [analysis-id]",
		Short: "Print a stored report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseAnalysisID(args[0])
			if err != nil {
				return errors.ValidationError("invalid analysis id", err)
			}
			ctx := cmd.Context()
			conn, err := db.Open(ctx, c.cfg.Database.Driver, c.cfg.Database.URL)
			if err != nil {
				return err
			}
			defer conn.Close()

			rep, err := db.NewAnalysisRepository(conn).Get(ctx, id)
			if err != nil {
				return err
			}
			if htmlOut != "" {
				return writeHTML(htmlOut, rep)
			}
			return report.NewMarkdownRenderer().Render(os.Stdout, rep)
		},
	}

	cmd.Flags().StringVar(&htmlOut, "html", "", "Write HTML to this file instead of markdown to stdout")
	return cmd
}

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and print their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// Open applies pending migrations
			conn, err := db.Open(ctx, c.cfg.Database.Driver, c.cfg.Database.URL)
			if err != nil {
				return err
			}
			defer conn.Close()

			statuses, err := migrations.NewMigrator(conn).Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range statuses {
				mark := "⏳"
				if s.Applied {
					mark = "✅"
				}
				fmt.Printf("%s %s\n", mark, s.Name)
			}
			return nil
		},
	}
}
