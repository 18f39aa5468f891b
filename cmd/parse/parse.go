// Package parse implements the parse command.
package parse

import (
	"fjacquet/statement-insights/cmd/common"
	"fjacquet/statement-insights/cmd/root"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/validation"

	"github.com/spf13/cobra"
)

var format string

// Cmd represents the parse command
var Cmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse statements into normalized transactions",
	Long: `Parse one or more statements (CSV, Excel, PDF, JPEG or PNG) and print the
normalized, categorized transactions as CSV or JSON.`,
	RunE: run,
}

func init() {
	Cmd.Flags().StringVar(&format, "format", "csv", "Output format (csv or json)")
}

func run(cmd *cobra.Command, args []string) error {
	if err := validation.IsValidOutputFormat(format, "csv", "json"); err != nil {
		return err
	}
	c := root.GetContainer()
	logger := root.GetLogger()

	result, err := common.LoadTransactions(cmd.Context(), c, root.SharedFlags.Inputs)
	if err != nil {
		return err
	}
	common.ReportFailures(cmd.ErrOrStderr(), result)

	w, closeFn, err := common.OpenOutput(root.SharedFlags.Output, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	if err := common.WriteTransactions(w, result.Transactions, format); err != nil {
		_ = closeFn()
		return err
	}
	if err := closeFn(); err != nil {
		return err
	}

	logger.Info("Parse completed",
		logging.F(logging.FieldCount, len(result.Transactions)),
		logging.F(logging.FieldOutputFile, root.SharedFlags.Output))
	return nil
}
