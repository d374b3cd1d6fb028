// Package main is the tablectl command line tool for inspecting and
// maintaining table state.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tablectl",
	Short: "Inspect and maintain rpg-table state",
	Long: `tablectl inspects sessions, presence, and message history, cleans up
expired reconnection tokens, and runs the dice roller and content
generators from the command line.

State is read from Redis when REDIS_URL is set (a .env file is honored).
Without it, commands run against empty in-memory repositories, which is
only useful for the local generators such as roll and content.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(presenceCmd)
	rootCmd.AddCommand(messagesCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(rollCmd)
	rootCmd.AddCommand(contentCmd)
}
