package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Maintain reconnection tokens",
}

var tokensCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired reconnection tokens",
	RunE:  runTokensCleanup,
}

func init() {
	tokensCmd.AddCommand(tokensCleanupCmd)
}

func runTokensCleanup(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext()
	defer cancel()

	removed, err := e.provider.ReconnectService.CleanupExpiredTokens(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean up tokens: %w", err)
	}

	fmt.Printf("Removed %d expired tokens\n", removed)
	return nil
}
