package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KirkDiggler/rpg-table/internal/dice"
)

var (
	rollAdvantage    bool
	rollDisadvantage bool
)

var rollCmd = &cobra.Command{
	Use:   "roll <formula>",
	Short: "Roll dice using standard notation, like 2d6+3",
	Long: `Roll dice using standard notation. Advantage and disadvantage apply
to a single d20 only; other formulas roll normally.`,
	Args: cobra.ExactArgs(1),
	RunE: runRoll,
}

func init() {
	rollCmd.Flags().BoolVar(&rollAdvantage, "advantage", false, "Roll two d20 and keep the higher")
	rollCmd.Flags().BoolVar(&rollDisadvantage, "disadvantage", false, "Roll two d20 and keep the lower")
}

func runRoll(cmd *cobra.Command, args []string) error {
	if rollAdvantage && rollDisadvantage {
		return fmt.Errorf("cannot roll with both advantage and disadvantage")
	}

	mode := dice.ModeNormal
	if rollAdvantage {
		mode = dice.ModeAdvantage
	}
	if rollDisadvantage {
		mode = dice.ModeDisadvantage
	}

	formula, err := dice.ParseFormula(args[0])
	if err != nil {
		return err
	}

	result, err := dice.RollFormula(dice.NewCryptoRoller(), formula, mode)
	if err != nil {
		return err
	}

	fmt.Printf("%s = %d\n", result.Formula, result.Total)
	fmt.Printf("  rolls %v", result.Rolls)
	if result.Bonus != 0 {
		fmt.Printf(" %+d", result.Bonus)
	}
	if result.Mode != dice.ModeNormal {
		fmt.Printf(" (%s)", result.Mode)
	}
	fmt.Println()
	if result.IsCrit {
		fmt.Println("  natural 20")
	}
	if result.IsFumble {
		fmt.Println("  natural 1")
	}
	return nil
}
