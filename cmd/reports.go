package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/greenloan/validator-cli/internal/export"
	"github.com/greenloan/validator-cli/internal/model"
	"github.com/greenloan/validator-cli/internal/store"
)

var (
	reportsLight string
	reportsLimit int
	reportsOut   string
)

var reportsCmd = &cobra.Command{
	Use:   "reports",
	Short: "Inspect stored analysis reports",
}

var reportsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored reports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		summaries, err := st.ListReports(ctx, store.ReportFilter{
			TrafficLight: model.TrafficLight(reportsLight),
			Limit:        reportsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list reports")
		}

		for _, s := range summaries {
			fmt.Printf("%-32s %-7s ev:%-3d co:%-3d fe:%-3d flags:%-2d %s\n",
				s.DocID, s.TrafficLight, s.Evidence, s.Consistency,
				s.Feasibility, s.RedFlags, s.CreatedAt.Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var reportsShowCmd = &cobra.Command{
	Use:   "show <doc-id>",
	Short: "Print a stored report as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		report, err := st.GetReport(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "get report")
		}
		if report == nil {
			return eris.Errorf("report not found: %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

var reportsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export report summaries to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		summaries, err := st.ListReports(ctx, store.ReportFilter{
			TrafficLight: model.TrafficLight(reportsLight),
			Limit:        reportsLimit,
		})
		if err != nil {
			return eris.Wrap(err, "list reports")
		}

		if err := export.WriteXLSX(summaries, reportsOut); err != nil {
			return err
		}
		fmt.Printf("wrote %d reports to %s\n", len(summaries), reportsOut)
		return nil
	},
}

var reportsDeleteCmd = &cobra.Command{
	Use:   "delete <doc-id>",
	Short: "Delete a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		return st.DeleteReport(ctx, args[0])
	},
}

func init() {
	reportsCmd.PersistentFlags().StringVar(&reportsLight, "light", "", "filter by traffic light (GREEN, YELLOW, RED)")
	reportsCmd.PersistentFlags().IntVar(&reportsLimit, "limit", 0, "maximum reports to return")
	reportsExportCmd.Flags().StringVar(&reportsOut, "out", "reports.xlsx", "output file path")

	reportsCmd.AddCommand(reportsListCmd, reportsShowCmd, reportsExportCmd, reportsDeleteCmd)
	rootCmd.AddCommand(reportsCmd)
}
