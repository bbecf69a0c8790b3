package cmd

import (
	"log"
	"os"

	"github.com/codeready-toolchain/toolchain-cicd/bandit-summary/internal/configuration"
	"github.com/codeready-toolchain/toolchain-cicd/bandit-summary/internal/history"
	"github.com/codeready-toolchain/toolchain-cicd/bandit-summary/internal/logging"
	"github.com/codeready-toolchain/toolchain-cicd/bandit-summary/internal/summary"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := NewSummaryCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func NewSummaryCmd() *cobra.Command {
	var configFile, root, output, order, logFile string
	var repositories []string
	var jobs int
	var debug bool
	var cmd = &cobra.Command{
		Use:          "bandit-summary",
		Short:        "Summarize the Bandit reports of each repository into a CSV file with one row per commit",
		SilenceUsage: true,
		Args:         cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			config, err := configuration.New(configFile)
			if err != nil {
				return err
			}
			// flags take precedence over the config file
			flags := cmd.Flags()
			if flags.Changed("root") {
				config.Root = root
			}
			if flags.Changed("repository") {
				config.Repositories = repositories
			}
			if flags.Changed("output") {
				config.OutputFolder = output
			}
			if flags.Changed("order") {
				config.Order = order
			}
			if flags.Changed("jobs") {
				config.Jobs = jobs
			}
			if flags.Changed("log-file") {
				config.Log.File = logFile
			}
			if err := config.Validate(); err != nil {
				return err
			}

			logger := logging.New(config.Log, debug, cmd.OutOrStdout()).With(zap.String("run", uuid.NewString()))
			defer logger.Sync() //nolint:errcheck
			logger.Debug("configuration", zap.String("root", config.Root), zap.Strings("repositories", config.Repositories), zap.String("order", config.Order), zap.Int("jobs", config.Jobs))

			orderFunc := summary.ByName
			if config.Order == configuration.OrderByHistory {
				orderFunc = history.ByHistory
			}
			_, err = summary.Run(cmd.Context(), logger, config, orderFunc)
			return err
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "path to the config file")
	cmd.Flags().StringVar(&root, "root", ".", "directory that contains the repositories")
	cmd.Flags().StringSliceVar(&repositories, "repository", nil, "repository to analyze (can be repeated)")
	cmd.Flags().StringVar(&output, "output", "", "folder where the CSV summaries are written")
	cmd.Flags().StringVar(&order, "order", configuration.OrderByName, "order of the rows: 'name' (report filenames) or 'git' (commit history)")
	cmd.Flags().IntVar(&jobs, "jobs", 1, "number of repositories analyzed at the same time")
	cmd.Flags().StringVar(&logFile, "log-file", "", "path to a rotated log file, in addition to the console")
	cmd.Flags().BoolVar(&debug, "debug", false, "debug mode")
	if err := cmd.MarkFlagFilename("config", "yaml", "yml"); err != nil {
		log.Fatalf("failed to mark flag filename: %v", err)
	}
	return cmd
}
