package game

import (
	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

const (
	collectRate          = 2
	collectRateHarvester = 3
)

// stepSpiceCollection pays out surface spice to the forces sitting on it.
// Each force collects two spice, three for a faction operating the harvester
// works in Arrakeen or Carthag. Advisors collect nothing.
func (e *DuneEngine) stepSpiceCollection(_ *gameSession, g *GameState, _ []rules.DecisionResponse) (rules.StepResult, error) {
	var events []rules.Event
	for _, p := range g.Spice {
		if p.Amount == 0 {
			continue
		}
		for _, s := range g.StacksIn(p.Territory) {
			if s.Sector != p.Sector || s.Advisors || s.Total() == 0 {
				continue
			}
			rate := collectRate
			if hasHarvesters(g, s.Faction) {
				rate = collectRateHarvester
			}
			take := s.Total() * rate
			if take > p.Amount {
				take = p.Amount
			}
			if take == 0 {
				continue
			}
			p.Amount -= take
			g.Factions[s.Faction].Spice += take
			events = append(events, rules.NewEvent(rules.EventSpiceCollected, "spice harvested").
				WithFaction(string(s.Faction)).
				WithTerritory(p.Territory).
				WithAmount(take))
		}
	}
	g.Spice = compactSpice(g.Spice)
	return rules.Complete(events...), nil
}

// hasHarvesters reports whether the faction controls a city with harvester
// works, which raises its collection rate.
func hasHarvesters(g *GameState, f board.Faction) bool {
	return g.ForcesIn(f, "arrakeen") > 0 || g.ForcesIn(f, "carthag") > 0
}
