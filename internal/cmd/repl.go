package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"rpa-assistant/internal/terminal"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Ask questions interactively",
	Args:  cobra.NoArgs,
	RunE:  runREPL,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runREPL(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	r := terminal.NewREPL(a.bot, cmd.OutOrStdout(), a.requestTimeout())
	r.DisplayHelp()
	return r.Run(ctx, os.Stdin)
}
