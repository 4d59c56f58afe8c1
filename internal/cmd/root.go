package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "rpa-assistant",
	Short: "Answer questions about RPA bot executions",
	Long: `rpa-assistant answers plain-language questions about RPA bot executions
(job status, running bots, machine status, failures) by matching them to a
catalog of intents and querying the execution log.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override logging.level")
}
