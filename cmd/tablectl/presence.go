package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-table/internal/domain/presence"
)

var presenceCmd = &cobra.Command{
	Use:   "presence",
	Short: "Inspect player presence",
}

var presenceSummaryCmd = &cobra.Command{
	Use:   "summary <session-id>",
	Short: "Show every member's evaluated presence status",
	Args:  cobra.ExactArgs(1),
	RunE:  runPresenceSummary,
}

func init() {
	presenceCmd.AddCommand(presenceSummaryCmd)
}

func runPresenceSummary(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext()
	defer cancel()

	summary, err := e.provider.PresenceService.GetPresenceSummary(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get presence summary: %w", err)
	}

	fmt.Printf("Presence for session %s at %s\n",
		summary.SessionID, summary.GeneratedAt.Format(time.RFC3339))
	fmt.Printf("Online %d / Away %d / Offline %d\n\n",
		summary.Counts[presence.StatusOnline],
		summary.Counts[presence.StatusAway],
		summary.Counts[presence.StatusOffline])

	for _, ps := range summary.Players {
		line := fmt.Sprintf("  %-12s %-8s", ps.PlayerID, ps.Status)
		switch {
		case !ps.Connected:
			line += " never connected"
		case ps.Status == presence.StatusOnline:
			line += fmt.Sprintf(" connected for %s", ps.ConnectedFor.Round(time.Second))
		default:
			line += fmt.Sprintf(" last heartbeat %s", ps.LastHeartbeat.Format(time.RFC3339))
		}
		fmt.Println(line)
	}
	return nil
}
