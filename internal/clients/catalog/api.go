package catalog

import (
	"log"
	"net/http"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"
	apiEntities "github.com/fadedpez/dnd5e-api/entities"

	"github.com/KirkDiggler/rpg-table/internal/errors"
)

// standardChallengeRatings are the CR values the SRD uses. The API
// filters by exact value only, so range queries walk this list.
var standardChallengeRatings = []float64{0, 0.125, 0.25, 0.5, 1, 2, 3, 4, 5,
	6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20,
	21, 22, 23, 24, 25, 26, 27, 28, 29, 30}

// xpForChallengeRating maps CR to the XP award from the SRD encounter
// tables. Unlisted values award nothing.
var xpForChallengeRating = map[float64]int{
	0: 10, 0.125: 25, 0.25: 50, 0.5: 100,
	1: 200, 2: 450, 3: 700, 4: 1100, 5: 1800,
	6: 2300, 7: 2900, 8: 3900, 9: 5000, 10: 5900,
	11: 7200, 12: 8400, 13: 10000, 14: 11500, 15: 13000,
	16: 15000, 17: 18000, 18: 20000, 19: 22000, 20: 25000,
	21: 33000, 22: 41000, 23: 50000, 24: 62000, 25: 75000,
	26: 90000, 27: 105000, 28: 120000, 29: 135000, 30: 155000,
}

type apiClient struct {
	api dnd5e.Interface
}

// APIConfig holds configuration for the SRD-backed catalog.
type APIConfig struct {
	// HTTPClient is optional and defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// NewAPI creates a catalog backed by the dnd5e SRD API.
func NewAPI(cfg *APIConfig) (Client, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config cannot be nil")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	api, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{Client: httpClient})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create dnd5e API client")
	}

	return &apiClient{api: api}, nil
}

func (c *apiClient) GetMonster(key string) (*MonsterTemplate, error) {
	if key == "" {
		return nil, errors.InvalidArgument("monster key is required")
	}

	monster, err := c.api.GetMonster(key)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get monster %s", key)
	}
	if monster == nil {
		return nil, errors.NotFoundf("monster %s not found", key)
	}
	return apiToTemplate(monster), nil
}

func (c *apiClient) ListMonstersByChallengeRating(minCR, maxCR float64) ([]*MonsterTemplate, error) {
	if minCR > maxCR {
		return nil, errors.InvalidArgumentf("challenge rating range [%g, %g] is inverted", minCR, maxCR)
	}

	var out []*MonsterTemplate
	seen := make(map[string]bool)

	for _, cr := range standardChallengeRatings {
		if cr < minCR || cr > maxCR {
			continue
		}

		crValue := cr
		refs, err := c.api.ListMonstersWithFilter(&dnd5e.ListMonstersInput{
			ChallengeRating: &crValue,
		})
		if err != nil {
			log.Printf("[CATALOG] Listing monsters at CR %g failed: %v", cr, err)
			continue
		}

		for _, ref := range refs {
			if ref.Key == "" || seen[ref.Key] {
				continue
			}
			monster, err := c.api.GetMonster(ref.Key)
			if err != nil {
				log.Printf("[CATALOG] Fetching monster %s failed: %v", ref.Key, err)
				continue
			}
			if tpl := apiToTemplate(monster); tpl != nil {
				out = append(out, tpl)
				seen[ref.Key] = true
			}
		}
	}

	return out, nil
}

func apiToTemplate(m *apiEntities.Monster) *MonsterTemplate {
	if m == nil {
		return nil
	}

	tpl := &MonsterTemplate{
		Key:             m.Key,
		Name:            m.Name,
		Type:            m.Type,
		ArmorClass:      int(m.ArmorClass),
		HitPoints:       int(m.HitPoints),
		HitDice:         m.HitDice,
		ChallengeRating: float64(m.ChallengeRating),
	}
	tpl.XP = xpForChallengeRating[tpl.ChallengeRating]

	for _, a := range m.MonsterActions {
		if a == nil {
			continue
		}
		action := &MonsterAction{Name: a.Name, AttackBonus: int(a.AttackBonus)}
		for _, d := range a.Damage {
			if d != nil && d.DamageDice != "" {
				action.Damage = append(action.Damage, d.DamageDice)
			}
		}
		tpl.Actions = append(tpl.Actions, action)
	}

	return tpl
}
