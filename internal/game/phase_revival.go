package game

import (
	"encoding/json"
	"fmt"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

const (
	revivalTurnLimit = 3
	revivalCost      = 2
	eliteRevivalCap  = 1
)

// stepRevival lets factions buy casualties back into reserves. Each faction
// revives up to three forces per turn; its free allotment costs nothing and
// the rest cost two spice apiece. At most one elite force returns per turn.
func (e *DuneEngine) stepRevival(_ *gameSession, g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	if len(g.Pending) == 0 {
		var requests []rules.DecisionRequest
		for _, f := range factionsInPlay(g) {
			fs := g.Factions[f]
			if fs.Casualties+fs.EliteCasualties > 0 || hasRevivableLeader(fs) {
				requests = append(requests, newRequest(g, f, rules.RequestReviveForces, nil))
			}
		}
		if len(requests) == 0 {
			return rules.Complete(), nil
		}
		return rules.Pending(true, requests), nil
	}

	result := rules.StepResult{Status: rules.StepComplete, Simultaneous: true}
	for id, req := range g.Pending {
		f := board.Faction(req.Faction)
		resp, ok := responseFor(g, responses, f, rules.RequestReviveForces)
		if !ok {
			result.Status = rules.StepPending
			result.Requests = append(result.Requests, req)
			continue
		}
		if resp.Passed {
			continue
		}
		var payload RevivalResponse
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			rejectSimultaneous(&result, req, id, rules.Invalid(rules.ErrInvalidResponse, "data",
				"malformed revival payload: %v", err))
			continue
		}
		if vr := validateRevival(g, f, payload); !vr.Valid() {
			result.Status = rules.StepPending
			result.Requests = append(result.Requests, req)
			result.Reject(id, vr)
			continue
		}
		result.Events = append(result.Events, applyRevival(g, f, payload)...)
	}
	return result, nil
}

func validateRevival(g *GameState, f board.Faction, r RevivalResponse) *rules.ValidationResult {
	result := &rules.ValidationResult{}
	fs := g.Factions[f]
	total := r.Forces + r.Elite
	if r.Forces < 0 || r.Elite < 0 || (total == 0 && r.LeaderID == "") {
		result.Add(rules.Invalid(rules.ErrInvalidResponse, "forces", "revival count must be positive"))
		return result
	}
	if r.LeaderID != "" {
		ls := fs.Leaders[r.LeaderID]
		if ls == nil || ls.Location != LeaderDeadRevivable {
			result.Add(rules.Invalid(rules.ErrLeaderUnavailable, "leader_id",
				"%s has no revivable leader %q", f, r.LeaderID))
			return result
		}
	}
	if total > revivalTurnLimit {
		result.Add(rules.Invalid(rules.ErrInvalidResponse, "forces",
			"at most %d forces revive per turn", revivalTurnLimit))
	}
	if r.Elite > eliteRevivalCap {
		result.Add(rules.Invalid(rules.ErrInvalidResponse, "elite",
			"at most %d elite force revives per turn", eliteRevivalCap))
	}
	if r.Forces > fs.Casualties {
		result.Add(rules.Invalid(rules.ErrInsufficientForces, "forces",
			"only %d forces in the casualty pool", fs.Casualties))
	}
	if r.Elite > fs.EliteCasualties {
		result.Add(rules.Invalid(rules.ErrInsufficientForces, "elite",
			"only %d elite forces in the casualty pool", fs.EliteCasualties))
	}
	cost := revivalPrice(f, total) + leaderRevivalPrice(r.LeaderID)
	if cost > fs.Spice {
		result.Add(rules.Invalid(rules.ErrInsufficientSpice, "spice",
			"revival costs %d spice, %d held", cost, fs.Spice))
	}
	return result
}

func applyRevival(g *GameState, f board.Faction, r RevivalResponse) []rules.Event {
	fs := g.Factions[f]
	total := r.Forces + r.Elite
	fs.Casualties -= r.Forces
	fs.EliteCasualties -= r.Elite
	fs.Reserves += r.Forces
	fs.EliteReserves += r.Elite
	fs.Spice -= revivalPrice(f, total) + leaderRevivalPrice(r.LeaderID)
	fs.FreeRevivalUsed = true

	var events []rules.Event
	if total > 0 {
		events = append(events, rules.NewEvent(rules.EventForcesRevived, "forces revived").
			WithFaction(string(f)).
			WithAmount(total))
	}
	if r.LeaderID != "" {
		ls := fs.Leaders[r.LeaderID]
		ls.Location = LeaderAvailable
		ls.Territory = ""
		events = append(events, rules.NewEvent(rules.EventLeaderRevived,
			fmt.Sprintf("%s returns from the tanks", r.LeaderID)).
			WithFaction(string(f)).
			WithData("leader_id", r.LeaderID))
	}
	return events
}

func hasRevivableLeader(fs *FactionState) bool {
	for _, l := range fs.Leaders {
		if l.Location == LeaderDeadRevivable {
			return true
		}
	}
	return false
}

// leaderRevivalPrice is the leader's printed strength in spice.
func leaderRevivalPrice(id string) int {
	if id == "" {
		return 0
	}
	if def, _, ok := board.Leader(id); ok {
		return def.Strength
	}
	return 0
}

// revivalPrice charges only for forces beyond the faction's free allotment.
func revivalPrice(f board.Faction, total int) int {
	cfg, err := board.Config(f)
	if err != nil {
		return total * revivalCost
	}
	paid := total - cfg.FreeRevivals
	if paid < 0 {
		paid = 0
	}
	return paid * revivalCost
}

// rejectSimultaneous re-queues one request of a simultaneous batch with a
// single violation attached.
func rejectSimultaneous(result *rules.StepResult, req rules.DecisionRequest, id string, violation *rules.ValidationError) {
	result.Status = rules.StepPending
	result.Requests = append(result.Requests, req)
	vr := &rules.ValidationResult{}
	vr.Add(violation)
	result.Reject(id, vr)
}
