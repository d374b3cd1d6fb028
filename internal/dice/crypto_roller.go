package dice

import (
	"crypto/rand"
	"math/big"

	"github.com/KirkDiggler/rpg-table/internal/errors"
)

// cryptoRoller implements Roller using crypto/rand. Players must not be able
// to predict outcomes, so the math/rand family is off the table here.
type cryptoRoller struct{}

// NewCryptoRoller creates a roller backed by the system's secure random source
func NewCryptoRoller() Roller {
	return &cryptoRoller{}
}

// Roll implements Roller.Roll
func (r *cryptoRoller) Roll(count, sides, bonus int) (*RollResult, error) {
	if count < 1 {
		return nil, errors.InvalidArgumentf("dice count must be at least 1, got %d", count)
	}
	if sides < MinDieSides {
		return nil, errors.InvalidArgumentf("die size must be at least %d, got %d", MinDieSides, sides)
	}

	rolls := make([]int, count)
	rawTotal := 0
	for i := 0; i < count; i++ {
		roll, err := rollDie(sides)
		if err != nil {
			return nil, err
		}
		rolls[i] = roll
		rawTotal += roll
	}

	result := &RollResult{
		Total:    rawTotal + bonus,
		Rolls:    rolls,
		Bonus:    bonus,
		Count:    count,
		Sides:    sides,
		RawTotal: rawTotal,
		Mode:     ModeNormal,
	}

	if count == 1 && sides == 20 {
		result.IsCrit = rolls[0] == 20
		result.IsFumble = rolls[0] == 1
	}

	return result, nil
}

// RollWithAdvantage implements Roller.RollWithAdvantage
func (r *cryptoRoller) RollWithAdvantage(sides, bonus int) (*RollResult, error) {
	return r.rollTwice(sides, bonus, ModeAdvantage)
}

// RollWithDisadvantage implements Roller.RollWithDisadvantage
func (r *cryptoRoller) RollWithDisadvantage(sides, bonus int) (*RollResult, error) {
	return r.rollTwice(sides, bonus, ModeDisadvantage)
}

func (r *cryptoRoller) rollTwice(sides, bonus int, mode AdvantageMode) (*RollResult, error) {
	if sides < MinDieSides {
		return nil, errors.InvalidArgumentf("die size must be at least %d, got %d", MinDieSides, sides)
	}

	first, err := rollDie(sides)
	if err != nil {
		return nil, err
	}
	second, err := rollDie(sides)
	if err != nil {
		return nil, err
	}

	kept := first
	if mode == ModeAdvantage && second > first {
		kept = second
	}
	if mode == ModeDisadvantage && second < first {
		kept = second
	}

	result := &RollResult{
		Total:    kept + bonus,
		Rolls:    []int{first, second},
		Bonus:    bonus,
		Count:    1,
		Sides:    sides,
		RawTotal: kept,
		Mode:     mode,
	}

	// Crit and fumble come from the kept die, not either die.
	if sides == 20 {
		result.IsCrit = kept == 20
		result.IsFumble = kept == 1
	}

	return result, nil
}

func rollDie(sides int) (int, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(sides)))
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.CodeInternal, "reading random source")
	}
	return int(n.Int64()) + 1, nil
}
