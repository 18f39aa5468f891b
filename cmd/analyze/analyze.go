// Package analyze implements the analyze command.
package analyze

import (
	"fmt"

	"fjacquet/statement-insights/cmd/common"
	"fjacquet/statement-insights/cmd/root"
	"fjacquet/statement-insights/internal/report"
	"fjacquet/statement-insights/internal/validation"

	"github.com/spf13/cobra"
)

var (
	format    string
	recommend bool
)

// Cmd represents the analyze command
var Cmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize income, expenses and cash flow",
	Long: `Parse the given statements and report income and expense totals per
category, monthly averages, cash flow and a linear wealth forecast.
With --recommend the transactions are also sent to Gemini for advice.`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringVar(&format, "format", report.FormatTable, "Output format (table or json)")
	Cmd.Flags().BoolVar(&recommend, "recommend", false, "Ask Gemini for savings recommendations")
}

func run(cmd *cobra.Command, args []string) error {
	if err := validation.IsValidOutputFormat(format, report.FormatTable, report.FormatJSON); err != nil {
		return err
	}
	c := root.GetContainer()

	result, err := common.LoadTransactions(cmd.Context(), c, root.SharedFlags.Inputs)
	if err != nil {
		return err
	}
	common.ReportFailures(cmd.ErrOrStderr(), result)

	analysis, err := c.GetAnalyzer().Analyze(result.Transactions)
	if err != nil {
		return err
	}

	w, closeFn, err := common.OpenOutput(root.SharedFlags.Output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	gen := report.NewGenerator(c.GetLogger())
	if err := gen.GenerateAnalysis(w, analysis, format); err != nil {
		return err
	}
	if !recommend {
		return nil
	}

	rec, err := c.GetRecommender()
	if err != nil {
		return err
	}
	recs, err := rec.Recommend(cmd.Context(), result.Transactions)
	if err != nil {
		return err
	}
	if format != report.FormatJSON {
		fmt.Fprintln(w)
	}
	return gen.GenerateRecommendations(w, recs, format)
}
