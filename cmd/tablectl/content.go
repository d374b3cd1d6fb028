package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-table/internal/clients/catalog"
	contentSvc "github.com/KirkDiggler/rpg-table/internal/services/content"
)

var (
	encounterLevel      int
	encounterSize       int
	encounterDifficulty string
	lootCR              float64
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Generate encounters, loot, and NPCs",
	Long: `Generate game content from the built-in monster catalog and item
tables. Output is random; run a command again for a fresh result.`,
}

var contentEncounterCmd = &cobra.Command{
	Use:   "encounter",
	Short: "Generate a monster encounter sized for a party",
	RunE:  runContentEncounter,
}

var contentLootCmd = &cobra.Command{
	Use:   "loot",
	Short: "Roll treasure for a defeated challenge rating",
	RunE:  runContentLoot,
}

var contentNPCCmd = &cobra.Command{
	Use:   "npc",
	Short: "Generate a named NPC with a personality hook",
	RunE:  runContentNPC,
}

func init() {
	contentEncounterCmd.Flags().IntVar(&encounterLevel, "level", 1, "Party level (1-20)")
	contentEncounterCmd.Flags().IntVar(&encounterSize, "size", 4, "Number of players")
	contentEncounterCmd.Flags().StringVar(&encounterDifficulty, "difficulty", contentSvc.DifficultyMedium,
		"Encounter difficulty: easy, medium, hard, or deadly")
	contentLootCmd.Flags().Float64Var(&lootCR, "cr", 1, "Challenge rating the loot rewards")

	contentCmd.AddCommand(contentEncounterCmd)
	contentCmd.AddCommand(contentLootCmd)
	contentCmd.AddCommand(contentNPCCmd)
}

func newContentService() contentSvc.Service {
	return contentSvc.NewService(&contentSvc.ServiceConfig{
		Catalog: catalog.NewInMemory(),
	})
}

func runContentEncounter(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	enc, err := newContentService().GenerateEncounter(ctx, &contentSvc.GenerateEncounterInput{
		PartyLevel: encounterLevel,
		PartySize:  encounterSize,
		Difficulty: encounterDifficulty,
	})
	if err != nil {
		return fmt.Errorf("failed to generate encounter: %w", err)
	}

	fmt.Printf("%s encounter for %d level-%d players (CR %g to %g)\n",
		enc.Difficulty, encounterSize, encounterLevel, enc.MinCR, enc.MaxCR)
	for _, group := range enc.Monsters {
		fmt.Printf("  %dx %-14s CR %-5g AC %-3d HP %-4d %d XP each\n",
			group.Count, group.Template.Name, group.Template.ChallengeRating,
			group.Template.ArmorClass, group.Template.HitPoints, group.Template.XP)
	}
	fmt.Printf("Total XP %d, adjusted %d\n", enc.TotalXP, enc.AdjustedXP)
	return nil
}

func runContentLoot(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	loot, err := newContentService().GenerateLoot(ctx, &contentSvc.GenerateLootInput{
		ChallengeRating: lootCR,
	})
	if err != nil {
		return fmt.Errorf("failed to generate loot: %w", err)
	}

	fmt.Printf("Loot for CR %g:\n", lootCR)
	fmt.Printf("  %d gold\n", loot.Gold)
	for _, item := range loot.Items {
		fmt.Printf("  %s\n", item)
	}
	if loot.MagicItem != "" {
		fmt.Printf("  %s (magic)\n", loot.MagicItem)
	}
	return nil
}

func runContentNPC(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	npc, err := newContentService().GenerateNPC(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate NPC: %w", err)
	}

	fmt.Printf("%s, %s %s\n", npc.Name, npc.Race, npc.Role)
	fmt.Printf("  Trait: %s\n", npc.Trait)
	fmt.Printf("  Flaw:  %s\n", npc.Flaw)
	return nil
}
