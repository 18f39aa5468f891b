package main

import (
	"fmt"
	"os"

	"fjacquet/statement-insights/cmd/analyze"
	"fjacquet/statement-insights/cmd/common"
	"fjacquet/statement-insights/cmd/parse"
	"fjacquet/statement-insights/cmd/root"
	"fjacquet/statement-insights/cmd/rules"
	"fjacquet/statement-insights/cmd/serve"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(parse.Cmd)
	root.Cmd.AddCommand(analyze.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(rules.Cmd)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, common.FormatError(err))
		os.Exit(1)
	}
}
