package game

import (
	"fmt"
	"sort"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

const (
	soloVictoryStrongholds     = 3
	allianceVictoryStrongholds = 4
)

// stepMentatPause checks for victory and otherwise rolls the game into the
// next turn. A faction alone in three strongholds wins; an alliance holding
// four between its members wins together. At the turn limit the game ends on
// the stronghold count, with total spice as the tiebreak.
func (e *DuneEngine) stepMentatPause(sess *gameSession, g *GameState, _ []rules.DecisionResponse) (rules.StepResult, error) {
	held := strongholdsHeld(g)

	if winners := checkVictory(g, held); len(winners) > 0 {
		return e.endGame(g, winners, "stronghold victory"), nil
	}
	if g.Turn >= sess.maxTurn {
		winners := turnLimitWinners(g, held)
		result := e.endGame(g, winners, "turn limit reached")
		result.Events = append([]rules.Event{
			rules.NewEvent(rules.EventTurnLimit, fmt.Sprintf("turn %d is the last", g.Turn)),
		}, result.Events...)
		return result, nil
	}
	return rules.Complete(), nil
}

func (e *DuneEngine) endGame(g *GameState, winners []board.Faction, reason string) rules.StepResult {
	g.Ended = true
	g.Winners = winners
	names := factionNames(winners)
	events := []rules.Event{
		rules.NewEvent(rules.EventVictoryDeclared, fmt.Sprintf("%s: %v", reason, names)),
		rules.NewEvent(rules.EventGameEnded, "the game is over"),
	}
	for i, f := range winners {
		events[0] = events[0].WithData(fmt.Sprintf("winner_%d", i+1), string(f))
	}
	return rules.Complete(events...)
}

// strongholdsHeld maps each faction to the strongholds it alone garrisons
// with combatant forces.
func strongholdsHeld(g *GameState) map[board.Faction][]string {
	m := board.StandardMap()
	held := make(map[board.Faction][]string)
	for _, t := range m.Territories() {
		if t.Type != board.Stronghold {
			continue
		}
		occupants := occupantFactions(g, t.ID)
		if len(occupants) != 1 {
			continue
		}
		f := occupants[0]
		held[f] = append(held[f], t.ID)
	}
	return held
}

func checkVictory(g *GameState, held map[board.Faction][]string) []board.Faction {
	for _, f := range factionsInPlay(g) {
		if len(held[f]) >= soloVictoryStrongholds {
			return []board.Faction{f}
		}
	}
	for _, f := range factionsInPlay(g) {
		ally := g.Factions[f].Ally
		if ally == "" || f > ally {
			continue // evaluate each pair once
		}
		if len(held[f])+len(held[ally]) >= allianceVictoryStrongholds {
			return []board.Faction{f, ally}
		}
	}
	return nil
}

// turnLimitWinners ranks factions by strongholds held, then by spice.
func turnLimitWinners(g *GameState, held map[board.Faction][]string) []board.Faction {
	factions := factionsInPlay(g)
	sort.SliceStable(factions, func(i, j int) bool {
		hi, hj := len(held[factions[i]]), len(held[factions[j]])
		if hi != hj {
			return hi > hj
		}
		return g.Factions[factions[i]].Spice > g.Factions[factions[j]].Spice
	})
	best := factions[0]
	winners := []board.Faction{best}
	for _, f := range factions[1:] {
		if len(held[f]) == len(held[best]) && g.Factions[f].Spice == g.Factions[best].Spice {
			winners = append(winners, f)
		}
	}
	return winners
}
