// Package root contains the root command for the application
package root

import (
	"fmt"
	"sync"

	"fjacquet/statement-insights/internal/config"
	"fjacquet/statement-insights/internal/container"
	"fjacquet/statement-insights/internal/logging"

	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Inputs []string
	Output string
}

var (
	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "statement-insights",
		Short: "Parse bank statements and analyze spending.",
		Long: `statement-insights reads bank statements exported as CSV, Excel, PDF or
images, normalizes them into one transaction list and reports where the
money goes.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if appContainer != nil {
				if err := appContainer.Close(); err != nil {
					appContainer.GetLogger().WithError(err).Warn("Failed to close container")
				}
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	// SharedFlags holds the flags accessible to all commands
	SharedFlags = CommonFlags{}

	logLevel  string
	logFormat string
	rulesFile string
	aiEnabled bool

	appContainer *container.Container
	initOnce     sync.Once
)

// Init initializes the root command and all flags. It is safe to call more than once.
func Init() {
	initOnce.Do(func() {
		pf := Cmd.PersistentFlags()
		pf.StringSliceVarP(&SharedFlags.Inputs, "input", "i", nil, "Input file or directory (repeatable)")
		pf.StringVarP(&SharedFlags.Output, "output", "o", "", "Output file (default stdout)")
		pf.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
		pf.StringVar(&logFormat, "log-format", "", "Log format (text or json)")
		pf.StringVar(&rulesFile, "rules", "", "Categorization rules file (YAML)")
		pf.BoolVar(&aiEnabled, "ai-enabled", false, "Enable Gemini OCR and recommendations")
	})
}

func setup(cmd *cobra.Command, args []string) error {
	config.LoadEnv()
	cfg, err := config.InitializeConfig()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = logFormat
	}
	if flags.Changed("rules") {
		cfg.Categorization.RulesFile = rulesFile
	}
	if flags.Changed("ai-enabled") {
		cfg.AI.Enabled = aiEnabled
	}
	logging.SetAllLogLevels(logging.ParseLevel(cfg.Log.Level))

	c, err := container.NewContainer(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	appContainer = c
	return nil
}

// GetContainer returns the application container built for the running command.
func GetContainer() *container.Container {
	return appContainer
}

// GetConfig returns the configuration of the running command, or nil before setup.
func GetConfig() *config.Config {
	if appContainer == nil {
		return nil
	}
	return appContainer.GetConfig()
}

// GetLogger returns the application logger, or a discard logger before setup.
func GetLogger() logging.Logger {
	if appContainer == nil {
		return logging.NewDiscardLogger()
	}
	return appContainer.GetLogger()
}
