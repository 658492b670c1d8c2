// Package cli provides the oaihealth command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"OAIHealthCheck/internal/app"
	"OAIHealthCheck/internal/config"
	"OAIHealthCheck/internal/logging"
	"OAIHealthCheck/internal/report"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// Deps lets callers replace the live wiring.
type Deps struct {
	NewApp   func(cfg config.Config, logger *slog.Logger) *app.Application
	Prompter Prompter
}

type rootOptions struct {
	cfgFile  string
	logLevel string
	output   string

	deps Deps
	app  *app.Application
}

// NewRootCmd creates and returns the root command.
func NewRootCmd(deps Deps) *cobra.Command {
	if deps.NewApp == nil {
		deps.NewApp = app.New
	}
	opts := &rootOptions{deps: deps}

	rootCmd := &cobra.Command{
		Use:   "oaihealth",
		Short: "Metadata health check for OAI-PMH repositories",
		Long: `oaihealth harvests a bounded sample of Dublin Core records from an OAI-PMH
endpoint and reports field completeness, temporal coverage, document types,
languages, formats and the records that need attention.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" || cmd.Name() == "completion" {
				return nil
			}
			return opts.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default: $OAIHEALTH_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (error|warn|info|debug)")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", report.FormatText, "output format (text|json|yaml)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return report.Formats, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newIdentifyCommand(opts))
	rootCmd.AddCommand(newDiagnoseCommand(opts))
	rootCmd.AddCommand(newServeCommand(opts))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	if !report.ValidFormat(o.output) {
		return fmt.Errorf("unknown output format %q", o.output)
	}

	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
	o.app = o.deps.NewApp(cfg, logger)
	return nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd(Deps{})
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "oaihealth v%s (%s)\n", Version, GitCommit)
		},
	}
}
