// Package rules implements the rules command group.
package rules

import (
	"fmt"
	"strings"

	"fjacquet/statement-insights/cmd/root"
	"fjacquet/statement-insights/internal/categorizer"
	"fjacquet/statement-insights/internal/fileutils"
	"fjacquet/statement-insights/internal/logging"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// DefaultRulesFile is written by "rules init" when no path is given.
const DefaultRulesFile = "rules.yaml"

var force bool

// Cmd represents the rules command
var Cmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect or export the categorization rules",
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the built-in rules to a YAML file for editing",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := DefaultRulesFile
		if len(args) == 1 {
			path = args[0]
		}
		if fileutils.FileExists(path) && !force {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
		if err := root.GetContainer().GetStore().SaveRules(path, categorizer.DefaultRules); err != nil {
			return err
		}
		root.GetLogger().Info("Wrote categorization rules", logging.F(logging.FieldPath, path))
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rules to %s\n", len(categorizer.DefaultRules), path)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the active rules in match order",
	RunE: func(cmd *cobra.Command, args []string) error {
		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.SetHeader([]string{"#", "Category", "Keywords"})
		for i, rule := range root.GetContainer().GetCategorizer().Rules() {
			table.Append([]string{fmt.Sprint(i + 1), string(rule.Category), strings.Join(rule.Keywords, ", ")})
		}
		table.Render()
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	Cmd.AddCommand(initCmd, listCmd)
}
