// Package content generates encounters, treasure, and NPCs from fixed
// tables plus the monster catalog. Output feeds the DM's prep between
// scenes, so it draws on a plain seeded source rather than the
// fairness-grade roller combat uses.
package content

//go:generate mockgen -destination=mock/mock_service.go -package=mockcontent -source=service.go

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/KirkDiggler/rpg-table/internal/clients/catalog"
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

// Difficulty labels for encounter generation.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
	DifficultyDeadly = "deadly"
)

// Service generates game content on demand.
type Service interface {
	// GenerateEncounter builds a monster group sized for the party.
	GenerateEncounter(ctx context.Context, input *GenerateEncounterInput) (*GeneratedEncounter, error)

	// GenerateLoot rolls treasure for a defeated challenge.
	GenerateLoot(ctx context.Context, input *GenerateLootInput) (*LootResult, error)

	// GenerateNPC produces a named bystander with a personality hook.
	GenerateNPC(ctx context.Context) (*NPC, error)
}

// GenerateEncounterInput describes the party the encounter must fit.
type GenerateEncounterInput struct {
	PartyLevel int
	PartySize  int
	Difficulty string
}

// MonsterGroup is one monster type and how many of it appear.
type MonsterGroup struct {
	Template *catalog.MonsterTemplate
	Count    int
}

// GeneratedEncounter is a ready-to-run monster lineup.
type GeneratedEncounter struct {
	Difficulty string
	MinCR      float64
	MaxCR      float64
	Monsters   []*MonsterGroup

	// TotalXP sums the monsters' awards; AdjustedXP applies the
	// encounter-building multiplier for group size and party size.
	TotalXP    int
	AdjustedXP int

	Description string
}

// GenerateLootInput sets the challenge the treasure rewards.
type GenerateLootInput struct {
	ChallengeRating float64
}

// LootResult is rolled treasure.
type LootResult struct {
	Gold      int
	Items     []string
	MagicItem string
}

// NPC is a generated non-player character.
type NPC struct {
	Name  string
	Race  string
	Role  string
	Trait string
	Flaw  string
}

type service struct {
	catalog catalog.Client
	random  *rand.Rand
}

// ServiceConfig holds the dependencies for the content service.
type ServiceConfig struct {
	Catalog catalog.Client

	// Random is optional and defaults to a time-seeded source. Inject
	// a fixed seed for reproducible output.
	Random *rand.Rand
}

// NewService creates a new content service.
func NewService(cfg *ServiceConfig) Service {
	if cfg == nil {
		panic("content service config is required")
	}
	if cfg.Catalog == nil {
		panic("catalog client is required")
	}

	svc := &service{
		catalog: cfg.Catalog,
		random:  cfg.Random,
	}
	if svc.random == nil {
		svc.random = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return svc
}

func (s *service) GenerateEncounter(ctx context.Context, input *GenerateEncounterInput) (*GeneratedEncounter, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if input.PartyLevel < 1 || input.PartyLevel > 20 {
		return nil, errors.InvalidArgumentf("party level %d outside [1, 20]", input.PartyLevel)
	}
	if input.PartySize < 1 {
		return nil, errors.InvalidArgument("party size must be at least 1")
	}

	band, err := challengeBand(input.Difficulty, input.PartyLevel)
	if err != nil {
		return nil, err
	}

	candidates, err := s.catalog.ListMonstersByChallengeRating(band.min, band.max)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list monsters for encounter")
	}
	if len(candidates) == 0 {
		return nil, errors.NotFoundf("no monsters with challenge rating in [%g, %g]", band.min, band.max)
	}

	groups := s.pickGroups(candidates)

	totalXP := 0
	totalCount := 0
	for _, g := range groups {
		totalXP += g.Template.XP * g.Count
		totalCount += g.Count
	}

	out := &GeneratedEncounter{
		Difficulty:  strings.ToLower(input.Difficulty),
		MinCR:       band.min,
		MaxCR:       band.max,
		Monsters:    groups,
		TotalXP:     totalXP,
		AdjustedXP:  int(float64(totalXP) * encounterMultiplier(totalCount, input.PartySize)),
		Description: describeGroups(groups),
	}

	log.Printf("[CONTENT] Generated %s encounter: %s (%d adjusted XP)",
		out.Difficulty, out.Description, out.AdjustedXP)
	return out, nil
}

func (s *service) GenerateLoot(ctx context.Context, input *GenerateLootInput) (*LootResult, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if input.ChallengeRating < 0 {
		return nil, errors.InvalidArgumentf("challenge rating %g cannot be negative", input.ChallengeRating)
	}

	gr := goldRangeForCR(input.ChallengeRating)
	result := &LootResult{
		Gold: gr.min + s.random.Intn(gr.max-gr.min+1),
	}

	for _, item := range lootTableForCR(input.ChallengeRating) {
		if s.random.Float64() < item.chance {
			result.Items = append(result.Items, item.name)
		}
	}

	if items, chance := magicItemsForCR(input.ChallengeRating); len(items) > 0 && s.random.Float64() < chance {
		result.MagicItem = items[s.random.Intn(len(items))]
	}

	log.Printf("[CONTENT] Generated loot for CR %g: %d gp, %d items",
		input.ChallengeRating, result.Gold, len(result.Items))
	return result, nil
}

func (s *service) GenerateNPC(ctx context.Context) (*NPC, error) {
	race := pick(s.random, npcRaces)

	npc := &NPC{
		Name:  pick(s.random, npcFirstNames[race]) + " " + pick(s.random, npcLastNames[race]),
		Race:  race,
		Role:  pick(s.random, npcRoles),
		Trait: pick(s.random, npcTraits),
		Flaw:  pick(s.random, npcFlaws),
	}

	log.Printf("[CONTENT] Generated NPC %s (%s %s)", npc.Name, npc.Race, npc.Role)
	return npc, nil
}

type crBand struct {
	min, max float64
}

// difficultyBands hold the base challenge range for a tier-one party
// (levels 1-4).
var difficultyBands = map[string]crBand{
	DifficultyEasy:   {0, 0.5},
	DifficultyMedium: {0.25, 1},
	DifficultyHard:   {0.5, 2},
	DifficultyDeadly: {1, 3},
}

// challengeBand scales the base band by party tier (one step every
// four levels) and keeps the top below party level + 4.
func challengeBand(difficulty string, partyLevel int) (crBand, error) {
	base, ok := difficultyBands[strings.ToLower(difficulty)]
	if !ok {
		return crBand{}, errors.InvalidArgumentf(
			"difficulty must be easy, medium, hard, or deadly, got %q", difficulty)
	}

	tier := 1 + (partyLevel-1)/4
	band := crBand{min: base.min * float64(tier), max: base.max * float64(tier)}
	if ceiling := float64(partyLevel) + 4; band.max > ceiling {
		band.max = ceiling
	}
	return band, nil
}

// pickGroups selects one to three distinct monster types and sizes
// each group by how weak the monster is.
func (s *service) pickGroups(candidates []*catalog.MonsterTemplate) []*MonsterGroup {
	numTypes := 1 + s.random.Intn(3)
	if numTypes > len(candidates) {
		numTypes = len(candidates)
	}

	groups := make([]*MonsterGroup, 0, numTypes)
	for _, idx := range s.random.Perm(len(candidates))[:numTypes] {
		tpl := candidates[idx]
		groups = append(groups, &MonsterGroup{
			Template: tpl,
			Count:    s.groupSize(tpl.ChallengeRating),
		})
	}
	return groups
}

// groupSize lets weak monsters arrive in packs.
func (s *service) groupSize(cr float64) int {
	switch {
	case cr < 0.5:
		return 1 + s.random.Intn(4)
	case cr < 2:
		return 1 + s.random.Intn(2)
	default:
		return 1
	}
}

// encounterMultiplier is the adjusted-XP multiplier from the
// encounter-building table, shifted one bracket for small or large
// parties.
func encounterMultiplier(monsterCount, partySize int) float64 {
	var multiplier float64
	switch {
	case monsterCount <= 1:
		multiplier = 1.0
	case monsterCount == 2:
		multiplier = 1.5
	case monsterCount <= 6:
		multiplier = 2.0
	case monsterCount <= 10:
		multiplier = 2.5
	case monsterCount <= 14:
		multiplier = 3.0
	default:
		multiplier = 4.0
	}

	switch {
	case partySize < 3:
		multiplier *= 1.5
	case partySize > 5:
		multiplier *= 0.5
	}
	return multiplier
}

func describeGroups(groups []*MonsterGroup) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.Count > 1 {
			parts = append(parts, fmt.Sprintf("%dx %s", g.Count, g.Template.Name))
		} else {
			parts = append(parts, g.Template.Name)
		}
	}
	return strings.Join(parts, ", ")
}

type goldRange struct {
	min, max int
}

func goldRangeForCR(cr float64) goldRange {
	switch {
	case cr < 1:
		return goldRange{5, 30}
	case cr < 5:
		return goldRange{30, 150}
	case cr < 10:
		return goldRange{150, 500}
	default:
		return goldRange{500, 2000}
	}
}

type lootItem struct {
	name   string
	chance float64
}

func lootTableForCR(cr float64) []lootItem {
	switch {
	case cr < 1:
		return []lootItem{
			{"healing potion", 0.25},
			{"torch (5)", 0.15},
			{"rations (3 days)", 0.20},
		}
	case cr < 5:
		return []lootItem{
			{"healing potion", 0.35},
			{"greater healing potion", 0.10},
			{"antitoxin", 0.15},
			{"alchemist's fire", 0.10},
		}
	default:
		return []lootItem{
			{"greater healing potion", 0.30},
			{"superior healing potion", 0.15},
			{"potion of speed", 0.05},
			{"potion of giant strength", 0.05},
		}
	}
}

// magicItemsForCR lists candidate magic items per challenge bracket
// with the chance any drops at all. Nothing drops below CR 1.
func magicItemsForCR(cr float64) (items []string, chance float64) {
	switch {
	case cr < 1:
		return nil, 0
	case cr < 5:
		return []string{
			"Potion of Greater Healing", "Bag of Holding", "+1 Weapon",
			"Cloak of Protection", "Boots of Elvenkind",
		}, 0.25
	case cr < 11:
		return []string{
			"+2 Weapon", "Ring of Spell Storing", "Cloak of Displacement",
			"Flame Tongue",
		}, 0.35
	default:
		return []string{
			"+3 Weapon", "Ring of Telekinesis", "Armor of Invulnerability",
			"Vorpal Sword", "Holy Avenger",
		}, 0.5
	}
}

var (
	npcRaces = []string{"human", "elf", "dwarf", "halfling"}

	npcFirstNames = map[string][]string{
		"human":    {"Aric", "Brom", "Cedric", "Daria", "Elena", "Finn", "Gwen", "Hector"},
		"elf":      {"Aelrindel", "Elara", "Faelyn", "Galadriel", "Ilthraniel", "Laucian"},
		"dwarf":    {"Baern", "Dolgrin", "Eberk", "Fargrim", "Grudda", "Helga", "Thorgrim"},
		"halfling": {"Alton", "Bree", "Cade", "Merric", "Portia", "Shaena", "Vani"},
	}

	npcLastNames = map[string][]string{
		"human":    {"Thornheart", "Blackwood", "Silverhand", "Ironforge", "Stormwind"},
		"elf":      {"Moonwhisper", "Starweaver", "Nightbreeze", "Dawnblade"},
		"dwarf":    {"Ironfoot", "Stonefist", "Hammerfall", "Steelbeard"},
		"halfling": {"Goodbarrel", "Tealeaf", "Thorngage", "Brushgather"},
	}

	npcRoles = []string{
		"merchant", "guard", "noble", "commoner", "priest",
		"warrior", "rogue", "mage", "innkeeper", "blacksmith",
	}

	npcTraits = []string{
		"always has a plan for when things go wrong",
		"is incredibly slow to trust",
		"loves a good insult, even one aimed their way",
		"is unfailingly polite and respectful",
		"is haunted by memories they cannot forget",
		"judges others harshly, themselves even more so",
		"can find common ground with anyone",
		"speaks slowly and deliberately",
		"picks things up and examines them constantly",
		"laughs heartily at any joke",
	}

	npcFlaws = []string{
		"turns tail and runs when things look bad",
		"has a weakness for the vices of the city",
		"is convinced no one could ever fool them",
		"is too greedy for their own good",
		"cannot keep their true feelings hidden",
		"would rather fight than argue",
	}
)

func pick(r *rand.Rand, list []string) string {
	return list[r.Intn(len(list))]
}
