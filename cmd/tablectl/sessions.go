package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect game sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions that have not ended",
	RunE:  runSessionsList,
}

var sessionsInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Show one session's status and seats",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsInspect,
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsInspectCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext()
	defer cancel()

	sessions, err := e.provider.SessionService.ListActiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	fmt.Printf("Found %d active sessions:\n", len(sessions))
	for _, sess := range sessions {
		fmt.Printf("  %s  %-20s %-8s %d members, created %s\n",
			sess.ID, sess.Name, sess.Status, len(sess.Members),
			sess.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func runSessionsInspect(cmd *cobra.Command, args []string) error {
	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := commandContext()
	defer cancel()

	sess, err := e.provider.SessionService.GetSession(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}

	fmt.Printf("Session: %s (%s)\n", sess.Name, sess.ID)
	fmt.Printf("Status:  %s\n", sess.Status)
	fmt.Printf("DM:      %s\n", sess.CreatorID)
	fmt.Printf("Created: %s\n", sess.CreatedAt.Format(time.RFC3339))
	if sess.StartedAt != nil {
		fmt.Printf("Started: %s\n", sess.StartedAt.Format(time.RFC3339))
	}
	if sess.EndedAt != nil {
		fmt.Printf("Ended:   %s\n", sess.EndedAt.Format(time.RFC3339))
	}

	// Map iteration order is random; sort for stable output.
	playerIDs := make([]string, 0, len(sess.Members))
	for playerID := range sess.Members {
		playerIDs = append(playerIDs, playerID)
	}
	sort.Strings(playerIDs)

	fmt.Printf("\nMembers (%d):\n", len(playerIDs))
	for _, playerID := range playerIDs {
		member := sess.Members[playerID]
		characterID := member.CharacterID
		if characterID == "" {
			characterID = "(no character)"
		}
		fmt.Printf("  %-12s %-6s %-20s joined %s\n",
			member.PlayerID, member.Role, characterID,
			member.JoinedAt.Format(time.RFC3339))
	}
	return nil
}
