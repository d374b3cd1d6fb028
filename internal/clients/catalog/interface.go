// Package catalog supplies monster templates for content generation.
// The real client wraps the dnd5e SRD API; an in-memory catalog with a
// small built-in table covers tests and offline tables.
package catalog

//go:generate mockgen -destination=mock/mock_client.go -package=mockcatalog -source=interface.go

// MonsterTemplate describes one monster the way the generators need
// it. Stats come straight from the SRD stat block.
type MonsterTemplate struct {
	Key             string
	Name            string
	Type            string
	ArmorClass      int
	HitPoints       int
	HitDice         string
	ChallengeRating float64
	XP              int
	Actions         []*MonsterAction
}

// MonsterAction is one attack option on a template.
type MonsterAction struct {
	Name        string
	AttackBonus int

	// Damage holds roll formulas like "1d6+2", one per damage part.
	Damage []string
}

// Client fetches monster templates by key or challenge rating.
//
// TODO: thread context through once the upstream API client accepts it
type Client interface {
	// GetMonster fetches a single monster by its catalog key.
	GetMonster(key string) (*MonsterTemplate, error)

	// ListMonstersByChallengeRating returns every monster whose
	// challenge rating falls inside [minCR, maxCR].
	ListMonstersByChallengeRating(minCR, maxCR float64) ([]*MonsterTemplate, error)
}
