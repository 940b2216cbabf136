package game

import (
	"fmt"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

// stepSpiceBlow draws spice cards. A territory card places its yield unless
// the sector sits under the storm. Shai-Hulud devours everything in the
// territory of the previous blow and forces a redraw, so a single step can
// chain several draws.
func (e *DuneEngine) stepSpiceBlow(sess *gameSession, g *GameState, _ []rules.DecisionResponse) (rules.StepResult, error) {
	var events []rules.Event
	for {
		if len(g.SpiceDeck) == 0 {
			reshuffleSpiceDeck(sess, g)
			if len(g.SpiceDeck) == 0 {
				return rules.StepResult{}, fmt.Errorf("spice deck exhausted with empty discard")
			}
		}
		id := g.SpiceDeck[0]
		g.SpiceDeck = g.SpiceDeck[1:]
		card, ok := board.Spice(id)
		if !ok {
			return rules.StepResult{}, fmt.Errorf("unknown spice card %q", id)
		}

		if card.ShaiHulud {
			events = append(events, devourPreviousBlow(g, id)...)
			g.SpiceDiscard = append(g.SpiceDiscard, id)
			continue // worm cards always redraw
		}

		g.SpiceDiscard = append(g.SpiceDiscard, id)
		if card.Sector == g.StormSector {
			events = append(events, rules.NewEvent(rules.EventSpiceBlow, "spice blow lost to the storm").
				WithTerritory(card.TerritoryID))
			return rules.Complete(events...), nil
		}
		g.AddSpice(card.TerritoryID, card.Sector, card.Yield)
		events = append(events,
			rules.NewEvent(rules.EventSpiceBlow, "spice blows on the surface").
				WithTerritory(card.TerritoryID).
				WithAmount(card.Yield),
			rules.NewEvent(rules.EventSpicePlaced, "spice placed").
				WithTerritory(card.TerritoryID).
				WithAmount(card.Yield).
				WithData("sector", fmt.Sprintf("%d", card.Sector)),
		)
		return rules.Complete(events...), nil
	}
}

// devourPreviousBlow removes every force and all spice from the territory of
// the most recent blow. Storm-resilient factions ride the worm unharmed.
func devourPreviousBlow(g *GameState, wormID string) []rules.Event {
	events := []rules.Event{
		rules.NewEvent(rules.EventShaiHulud, "Shai-Hulud appears").WithData("card", wormID),
	}
	territory := lastBlowTerritory(g)
	if territory == "" {
		return events
	}
	events[0] = events[0].WithTerritory(territory)
	for _, s := range g.StacksIn(territory) {
		if board.Flags(s.Faction).StormResilient {
			continue
		}
		fs := g.Factions[s.Faction]
		fs.Casualties += s.Forces
		fs.EliteCasualties += s.Elite
		events = append(events, rules.NewEvent(rules.EventForcesDestroyed, "devoured by the worm").
			WithFaction(string(s.Faction)).
			WithTerritory(territory).
			WithAmount(s.Total()))
		s.Forces, s.Elite = 0, 0
	}
	g.Stacks = compactStacks(g.Stacks)
	for _, p := range g.Spice {
		if p.Territory == territory && p.Amount > 0 {
			events = append(events, rules.NewEvent(rules.EventSpiceDestroyed, "spice devoured").
				WithTerritory(territory).
				WithAmount(p.Amount))
			p.Amount = 0
		}
	}
	g.Spice = compactSpice(g.Spice)
	return events
}

// lastBlowTerritory finds the territory of the most recent non-worm card in
// the spice discard.
func lastBlowTerritory(g *GameState) string {
	for i := len(g.SpiceDiscard) - 1; i >= 0; i-- {
		card, ok := board.Spice(g.SpiceDiscard[i])
		if ok && !card.ShaiHulud {
			return card.TerritoryID
		}
	}
	return ""
}

// reshuffleSpiceDeck folds the discard back into a fresh shuffled deck.
func reshuffleSpiceDeck(sess *gameSession, g *GameState) {
	g.SpiceDeck = shuffled(sess.rng, g.SpiceDiscard)
	g.SpiceDiscard = g.SpiceDiscard[:0]
}
