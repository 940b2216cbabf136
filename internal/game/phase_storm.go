package game

import (
	"encoding/json"
	"fmt"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

const (
	stormDialMin = 1
	stormDialMax = 3
)

// StormPhaseState tracks the two outstanding storm dials.
type StormPhaseState struct {
	Dialers []string
	Dials   map[string]int
}

func (s *StormPhaseState) clone() *StormPhaseState {
	if s == nil {
		return nil
	}
	c := *s
	c.Dialers = append([]string(nil), s.Dialers...)
	c.Dials = make(map[string]int, len(s.Dials))
	for f, d := range s.Dials {
		c.Dials[f] = d
	}
	return &c
}

// stepStorm advances the storm. The two factions nearest the storm marker
// each dial a hidden number; the sum is how many sectors the storm moves.
// Every swept sector destroys unprotected forces and loose spice.
func (e *DuneEngine) stepStorm(sess *gameSession, g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	if g.StormPhase == nil {
		dialers := stormDialers(g)
		if len(dialers) == 0 {
			return rules.StepResult{}, fmt.Errorf("no factions available to dial the storm")
		}
		g.StormPhase = &StormPhaseState{
			Dialers: dialers,
			Dials:   make(map[string]int, len(dialers)),
		}
		requests := make([]rules.DecisionRequest, 0, len(dialers))
		for _, f := range dialers {
			requests = append(requests, newRequest(g, board.Faction(f), rules.RequestStormDial,
				StormDialContext{Min: stormDialMin, Max: stormDialMax}))
		}
		return rules.Pending(true, requests), nil
	}

	result := rules.StepResult{Status: rules.StepComplete, Simultaneous: true}
	for id, req := range g.Pending {
		if _, done := g.StormPhase.Dials[req.Faction]; done {
			continue
		}
		resp, ok := responseFor(g, responses, board.Faction(req.Faction), rules.RequestStormDial)
		if !ok {
			result.Status = rules.StepPending
			result.Requests = append(result.Requests, req)
			continue
		}
		var payload StormDialResponse
		if err := json.Unmarshal(resp.Data, &payload); err != nil || payload.Dial < stormDialMin || payload.Dial > stormDialMax {
			result.Status = rules.StepPending
			result.Requests = append(result.Requests, req)
			vr := &rules.ValidationResult{}
			vr.Add(rules.Invalid(rules.ErrInvalidResponse, "dial",
				"dial must be between %d and %d", stormDialMin, stormDialMax))
			result.Reject(id, vr)
			continue
		}
		g.StormPhase.Dials[req.Faction] = payload.Dial
	}
	if result.Status == rules.StepPending {
		return result, nil
	}

	moves := 0
	for _, d := range g.StormPhase.Dials {
		moves += d
	}
	result.Events = append(result.Events, moveStorm(g, moves)...)
	g.StormPhase = nil
	return result, nil
}

// stormDialers picks the two seats closest ahead of the storm marker.
func stormDialers(g *GameState) []string {
	order := g.StormOrder
	if len(order) > 2 {
		order = order[:2]
	}
	return append([]string(nil), order...)
}

// moveStorm advances the marker sector by sector, destroying what each swept
// sector holds, then recomputes storm order from the final position.
func moveStorm(g *GameState, moves int) []rules.Event {
	events := []rules.Event{
		rules.NewEvent(rules.EventStormMoved, fmt.Sprintf("the storm moves %d sectors", moves)).
			WithAmount(moves),
	}
	for i := 0; i < moves; i++ {
		g.StormSector = board.NormalizeSector(g.StormSector + 1)
		events = append(events, sweepSector(g, g.StormSector)...)
	}
	prev := fmt.Sprintf("%v", g.StormOrder)
	g.StormOrder = rules.StormOrder(g.Seats, g.StormSector)
	if fmt.Sprintf("%v", g.StormOrder) != prev {
		events = append(events, rules.NewEvent(rules.EventStormOrderChange, "storm order recalculated").
			WithData("sector", fmt.Sprintf("%d", g.StormSector)))
	}
	return events
}

// sweepSector destroys unprotected forces and spice in one storm sector.
// Storm-resilient forces lose half, rounded up, instead of everything.
func sweepSector(g *GameState, sector int) []rules.Event {
	var events []rules.Event
	m := board.StandardMap()
	for _, s := range g.Stacks {
		if s.Sector != sector || s.Total() == 0 {
			continue
		}
		t := m.Territory(s.Territory)
		if t == nil || t.StormProtected || len(t.Sectors) == 0 {
			continue
		}
		lostForces, lostElite := s.Forces, s.Elite
		if board.Flags(s.Faction).StormResilient {
			lostForces = (s.Forces + 1) / 2
			lostElite = (s.Elite + 1) / 2
		}
		if lostForces+lostElite == 0 {
			continue
		}
		fs := g.Factions[s.Faction]
		s.Forces -= lostForces
		s.Elite -= lostElite
		fs.Casualties += lostForces
		fs.EliteCasualties += lostElite
		events = append(events, rules.NewEvent(rules.EventForcesDestroyed, "storm destroys forces").
			WithFaction(string(s.Faction)).
			WithTerritory(s.Territory).
			WithAmount(lostForces+lostElite))
	}
	g.Stacks = compactStacks(g.Stacks)

	for _, p := range g.Spice {
		if p.Sector != sector || p.Amount == 0 {
			continue
		}
		t := m.Territory(p.Territory)
		if t == nil || t.StormProtected {
			continue
		}
		events = append(events, rules.NewEvent(rules.EventSpiceDestroyed, "storm buries spice").
			WithTerritory(p.Territory).
			WithAmount(p.Amount))
		p.Amount = 0
	}
	g.Spice = compactSpice(g.Spice)
	return events
}

func compactStacks(stacks []*ForceStack) []*ForceStack {
	out := stacks[:0]
	for _, s := range stacks {
		if s.Total() > 0 {
			out = append(out, s)
		}
	}
	return out
}

func compactSpice(piles []*SpicePile) []*SpicePile {
	out := piles[:0]
	for _, p := range piles {
		if p.Amount > 0 {
			out = append(out, p)
		}
	}
	return out
}
