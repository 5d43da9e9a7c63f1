package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/voyage-finance/voyage-recovery/config"
)

var rootCmd = &cobra.Command{
	Use:   "voyage-recovery",
	Short: "Watch Safe Delay Modifiers and announce recovery proposals",
	Long: `voyage-recovery watches the Zodiac Delay Modifiers of Safes bound to Telegram chats.

It keeps the queue of recovery proposals of every watched Safe fresh, tells the
chat when a proposal is queued, becomes executable or expires, and can execute
the next proposal with a configured Recoverer key.

Examples:
  voyage-recovery serve                              # Run the bot, watcher and HTTP API
  voyage-recovery state --safe 0x... --chain-id 100  # Print the recovery queue of a Safe
  voyage-recovery pin-modifiers                      # Pin discovered modifiers on every chat`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Init()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, stateCmd, pinModifiersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
