package game

import (
	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

const charityFloor = 2

// stepCharity offers the CHOAM dole: any faction holding less than two spice
// may claim enough to reach two. Claims are a simultaneous batch.
func (e *DuneEngine) stepCharity(_ *gameSession, g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	if len(g.Pending) == 0 {
		var requests []rules.DecisionRequest
		for _, f := range factionsInPlay(g) {
			if g.Factions[f].Spice < charityFloor {
				requests = append(requests, newRequest(g, f, rules.RequestClaimCharity, nil))
			}
		}
		if len(requests) == 0 {
			return rules.Complete(), nil
		}
		return rules.Pending(true, requests), nil
	}

	result := rules.StepResult{Status: rules.StepComplete, Simultaneous: true}
	for _, req := range g.Pending {
		resp, ok := responseFor(g, responses, board.Faction(req.Faction), rules.RequestClaimCharity)
		if !ok {
			result.Status = rules.StepPending
			result.Requests = append(result.Requests, req)
			continue
		}
		if resp.Passed {
			continue
		}
		fs := g.Factions[board.Faction(req.Faction)]
		grant := charityFloor - fs.Spice
		if grant <= 0 {
			continue
		}
		fs.Spice += grant
		result.Events = append(result.Events, rules.NewEvent(rules.EventCharityClaimed, "charity claimed").
			WithFaction(req.Faction).
			WithAmount(grant))
	}
	return result, nil
}
