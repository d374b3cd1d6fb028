package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var messagesLimit int

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Inspect session message history",
}

var messagesTailCmd = &cobra.Command{
	Use:   "tail <session-id>",
	Short: "Show the most recent messages, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE:  runMessagesTail,
}

func init() {
	messagesTailCmd.Flags().IntVar(&messagesLimit, "limit", 20, "Maximum messages to show")
	messagesCmd.AddCommand(messagesTailCmd)
}

func runMessagesTail(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext()
	defer cancel()

	msgs, err := e.messageRepo.Recent(ctx, args[0], messagesLimit)
	if err != nil {
		return fmt.Errorf("failed to read messages: %w", err)
	}

	total, err := e.messageRepo.CountBySession(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to count messages: %w", err)
	}

	fmt.Printf("Showing %d of %d messages for session %s:\n", len(msgs), total, args[0])
	for _, msg := range msgs {
		from := msg.PlayerID
		if from == "" {
			from = "system"
		}
		fmt.Printf("  [%s] %-10s %s: %s\n",
			msg.CreatedAt.Format(time.RFC3339), msg.Type, from, msg.Content)
	}
	return nil
}
