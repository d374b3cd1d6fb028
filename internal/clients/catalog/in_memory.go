package catalog

import (
	"github.com/KirkDiggler/rpg-table/internal/errors"
)

type inMemoryClient struct {
	templates []*MonsterTemplate
}

// NewInMemory returns a catalog serving a small built-in monster
// table, CR 1/8 through 5. Templates are shared; callers must not
// mutate them.
func NewInMemory() Client {
	return &inMemoryClient{templates: builtinMonsters()}
}

func (c *inMemoryClient) GetMonster(key string) (*MonsterTemplate, error) {
	if key == "" {
		return nil, errors.InvalidArgument("monster key is required")
	}
	for _, tpl := range c.templates {
		if tpl.Key == key {
			return tpl, nil
		}
	}
	return nil, errors.NotFoundf("monster %s not found", key)
}

func (c *inMemoryClient) ListMonstersByChallengeRating(minCR, maxCR float64) ([]*MonsterTemplate, error) {
	if minCR > maxCR {
		return nil, errors.InvalidArgumentf("challenge rating range [%g, %g] is inverted", minCR, maxCR)
	}
	var out []*MonsterTemplate
	for _, tpl := range c.templates {
		if tpl.ChallengeRating >= minCR && tpl.ChallengeRating <= maxCR {
			out = append(out, tpl)
		}
	}
	return out, nil
}

func builtinMonsters() []*MonsterTemplate {
	return []*MonsterTemplate{
		{
			Key: "kobold", Name: "Kobold", Type: "humanoid",
			ArmorClass: 12, HitPoints: 5, HitDice: "2d6-2",
			ChallengeRating: 0.125, XP: xpForChallengeRating[0.125],
			Actions: []*MonsterAction{
				{Name: "Dagger", AttackBonus: 4, Damage: []string{"1d4+2"}},
			},
		},
		{
			Key: "goblin", Name: "Goblin", Type: "humanoid",
			ArmorClass: 15, HitPoints: 7, HitDice: "2d6",
			ChallengeRating: 0.25, XP: xpForChallengeRating[0.25],
			Actions: []*MonsterAction{
				{Name: "Scimitar", AttackBonus: 4, Damage: []string{"1d6+2"}},
			},
		},
		{
			Key: "skeleton", Name: "Skeleton", Type: "undead",
			ArmorClass: 13, HitPoints: 13, HitDice: "2d8+4",
			ChallengeRating: 0.25, XP: xpForChallengeRating[0.25],
			Actions: []*MonsterAction{
				{Name: "Shortsword", AttackBonus: 4, Damage: []string{"1d6+2"}},
			},
		},
		{
			Key: "zombie", Name: "Zombie", Type: "undead",
			ArmorClass: 8, HitPoints: 22, HitDice: "3d8+9",
			ChallengeRating: 0.25, XP: xpForChallengeRating[0.25],
			Actions: []*MonsterAction{
				{Name: "Slam", AttackBonus: 3, Damage: []string{"1d6+1"}},
			},
		},
		{
			Key: "wolf", Name: "Wolf", Type: "beast",
			ArmorClass: 13, HitPoints: 11, HitDice: "2d8+2",
			ChallengeRating: 0.25, XP: xpForChallengeRating[0.25],
			Actions: []*MonsterAction{
				{Name: "Bite", AttackBonus: 4, Damage: []string{"2d4+2"}},
			},
		},
		{
			Key: "orc", Name: "Orc", Type: "humanoid",
			ArmorClass: 13, HitPoints: 15, HitDice: "2d8+6",
			ChallengeRating: 0.5, XP: xpForChallengeRating[0.5],
			Actions: []*MonsterAction{
				{Name: "Greataxe", AttackBonus: 5, Damage: []string{"1d12+3"}},
			},
		},
		{
			Key: "hobgoblin", Name: "Hobgoblin", Type: "humanoid",
			ArmorClass: 18, HitPoints: 11, HitDice: "2d8+2",
			ChallengeRating: 0.5, XP: xpForChallengeRating[0.5],
			Actions: []*MonsterAction{
				{Name: "Longsword", AttackBonus: 3, Damage: []string{"1d8+1"}},
			},
		},
		{
			Key: "gnoll", Name: "Gnoll", Type: "humanoid",
			ArmorClass: 15, HitPoints: 22, HitDice: "5d8",
			ChallengeRating: 0.5, XP: xpForChallengeRating[0.5],
			Actions: []*MonsterAction{
				{Name: "Spear", AttackBonus: 4, Damage: []string{"1d6+2"}},
			},
		},
		{
			Key: "bugbear", Name: "Bugbear", Type: "humanoid",
			ArmorClass: 16, HitPoints: 27, HitDice: "5d8+5",
			ChallengeRating: 1, XP: xpForChallengeRating[1],
			Actions: []*MonsterAction{
				{Name: "Morningstar", AttackBonus: 4, Damage: []string{"2d8+2"}},
			},
		},
		{
			Key: "ghoul", Name: "Ghoul", Type: "undead",
			ArmorClass: 12, HitPoints: 22, HitDice: "5d8",
			ChallengeRating: 1, XP: xpForChallengeRating[1],
			Actions: []*MonsterAction{
				{Name: "Claws", AttackBonus: 4, Damage: []string{"2d4+2"}},
			},
		},
		{
			Key: "ogre", Name: "Ogre", Type: "giant",
			ArmorClass: 11, HitPoints: 59, HitDice: "7d10+21",
			ChallengeRating: 2, XP: xpForChallengeRating[2],
			Actions: []*MonsterAction{
				{Name: "Greatclub", AttackBonus: 6, Damage: []string{"2d8+4"}},
			},
		},
		{
			Key: "minotaur", Name: "Minotaur", Type: "monstrosity",
			ArmorClass: 14, HitPoints: 76, HitDice: "9d10+27",
			ChallengeRating: 3, XP: xpForChallengeRating[3],
			Actions: []*MonsterAction{
				{Name: "Greataxe", AttackBonus: 6, Damage: []string{"2d12+4"}},
			},
		},
		{
			Key: "owlbear", Name: "Owlbear", Type: "monstrosity",
			ArmorClass: 13, HitPoints: 59, HitDice: "7d10+21",
			ChallengeRating: 3, XP: xpForChallengeRating[3],
			Actions: []*MonsterAction{
				{Name: "Claws", AttackBonus: 7, Damage: []string{"2d8+5"}},
			},
		},
		{
			Key: "troll", Name: "Troll", Type: "giant",
			ArmorClass: 15, HitPoints: 84, HitDice: "8d10+40",
			ChallengeRating: 5, XP: xpForChallengeRating[5],
			Actions: []*MonsterAction{
				{Name: "Claw", AttackBonus: 7, Damage: []string{"2d6+4"}},
			},
		},
	}
}
