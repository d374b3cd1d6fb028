package dice

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/KirkDiggler/rpg-table/internal/errors"
)

// Parse limits. The count cap keeps a single formula from exploding into
// hundreds of rolls; the sides bounds reject degenerate dice.
const (
	MaxDiceCount = 100
	MinDieSides  = 2
	MaxDieSides  = 1000
)

var formulaPattern = regexp.MustCompile(`^(\d*)d(\d+)([+-]\d+)?$`)

// Formula is a parsed dice expression such as "2d6+3". Immutable once parsed.
type Formula struct {
	Count    int `json:"count"`
	Sides    int `json:"sides"`
	Modifier int `json:"modifier"`
}

// ParseFormula parses "[count]d<sides>[+|-modifier]". Count defaults to 1.
// Case and internal whitespace are ignored.
func ParseFormula(text string) (*Formula, error) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(text)), " ", "")
	if normalized == "" {
		return nil, errors.InvalidArgument("empty dice formula")
	}

	match := formulaPattern.FindStringSubmatch(normalized)
	if match == nil {
		return nil, errors.InvalidArgumentf("invalid dice formula: %s", text)
	}

	count := 1
	if match[1] != "" {
		parsed, err := strconv.Atoi(match[1])
		if err != nil {
			return nil, errors.InvalidArgumentf("invalid dice count in formula: %s", text)
		}
		count = parsed
	}

	sides, err := strconv.Atoi(match[2])
	if err != nil {
		return nil, errors.InvalidArgumentf("invalid die size in formula: %s", text)
	}

	modifier := 0
	if match[3] != "" {
		modifier, err = strconv.Atoi(match[3])
		if err != nil {
			return nil, errors.InvalidArgumentf("invalid modifier in formula: %s", text)
		}
	}

	if count < 1 || count > MaxDiceCount {
		return nil, errors.InvalidArgumentf("dice count must be 1-%d, got %d", MaxDiceCount, count)
	}
	if sides < MinDieSides || sides > MaxDieSides {
		return nil, errors.InvalidArgumentf("die size must be %d-%d, got %d", MinDieSides, MaxDieSides, sides)
	}

	return &Formula{
		Count:    count,
		Sides:    sides,
		Modifier: modifier,
	}, nil
}

// String renders the formula in canonical form, e.g. "2d6+3" or "1d20".
func (f *Formula) String() string {
	s := strconv.Itoa(f.Count) + "d" + strconv.Itoa(f.Sides)
	if f.Modifier > 0 {
		s += "+" + strconv.Itoa(f.Modifier)
	} else if f.Modifier < 0 {
		s += strconv.Itoa(f.Modifier)
	}
	return s
}
