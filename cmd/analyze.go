package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/greenloan/validator-cli/internal/model"
)

var (
	analyzeJSON    bool
	analyzeNoStore bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file.pdf> [file.pdf...]",
	Short: "Analyze one or more PV project PDFs",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAnalyzer(ctx, !analyzeNoStore)
		if err != nil {
			return err
		}
		defer env.Close()

		results := env.analyzer.RunBatch(ctx, args, cfg.Batch.MaxConcurrentDocuments)

		var failed int
		for _, res := range results {
			if res.Err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "FAILED %s: %v\n", res.Path, res.Err)
				continue
			}
			if analyzeJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res.Report); err != nil {
					return eris.Wrap(err, "encode report")
				}
				continue
			}
			printReport(res.Report)
		}

		if failed > 0 {
			return eris.Errorf("%d of %d documents failed", failed, len(results))
		}
		return nil
	},
}

func printReport(r *model.AnalysisReport) {
	card := r.ScoreCard
	fmt.Printf("%s  %s (%d pages)\n", r.Document.DocID, r.Document.Filename, r.Document.Pages)
	fmt.Printf("  traffic light:     %s\n", card.TrafficLight)
	fmt.Printf("  evidence coverage: %d\n", card.EvidenceCoverage)
	fmt.Printf("  consistency:       %d\n", card.Consistency)
	fmt.Printf("  feasibility:       %d\n", card.Feasibility)

	if len(card.MissingData) > 0 {
		fmt.Printf("  missing data:      %v\n", card.MissingData)
	}
	if len(card.PagesToVerify) > 0 {
		fmt.Printf("  pages to verify:   %v\n", card.PagesToVerify)
	}

	for _, v := range r.Verifications {
		fmt.Printf("  [%s] %s: %s\n", v.Result, v.CheckID, v.Why)
	}
	for _, f := range r.RedFlags {
		fmt.Printf("  [%s] %s: %s\n", f.Severity, f.FlagID, f.Title)
	}
	fmt.Println()
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "print full reports as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeNoStore, "no-store", false, "skip persisting reports")
	rootCmd.AddCommand(analyzeCmd)
}
