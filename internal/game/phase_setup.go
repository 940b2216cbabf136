package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sort"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

// SetupPhaseState tracks setup progress across steps.
type SetupPhaseState struct {
	Dealt bool
}

func (s *SetupPhaseState) clone() *SetupPhaseState {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// stepSetup deals the game out: seats, decks, traitors, starting spice and
// forces. Factions with free placement distribute their starting forces
// through a placement request; everything else is deterministic given the
// seed.
func (e *DuneEngine) stepSetup(sess *gameSession, g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	if g.SetupPhase == nil || !g.SetupPhase.Dealt {
		return e.dealGame(sess, g)
	}
	return e.applySetupPlacements(g, responses)
}

func (e *DuneEngine) dealGame(sess *gameSession, g *GameState) (rules.StepResult, error) {
	g.SetupPhase = &SetupPhaseState{Dealt: true}

	factions := factionsInPlay(g)

	// Seats are evenly spread around the board edge in a fixed order so a
	// given seed always produces the same table.
	spacing := board.SectorCount / len(factions)
	g.Seats = g.Seats[:0]
	for i, f := range factions {
		g.Seats = append(g.Seats, rules.Seat{Faction: string(f), Sector: i * spacing})
	}

	g.StormSector = sess.rng.Intn(board.SectorCount)
	g.StormOrder = rules.StormOrder(g.Seats, g.StormSector)

	g.TreacheryDeck = shuffled(sess.rng, board.TreacheryDeck())
	g.SpiceDeck = shuffled(sess.rng, board.SpiceDeck())

	events := []rules.Event{
		rules.NewEvent(rules.EventGameStarted, "the game begins").
			WithData("storm_sector", fmt.Sprintf("%d", g.StormSector)),
	}

	// Faction boards: spice, leaders, reserves, starting garrisons.
	var placementRequests []rules.DecisionRequest
	for _, f := range factions {
		cfg, err := board.Config(f)
		if err != nil {
			return rules.StepResult{}, err
		}
		fs := g.Factions[f]
		fs.Spice = cfg.StartingSpice
		fs.Reserves = cfg.TotalForces
		for _, ld := range cfg.Leaders {
			fs.Leaders[ld.ID] = &LeaderState{
				ID:       ld.ID,
				Owner:    f,
				HeldBy:   f,
				Location: LeaderAvailable,
			}
		}
		if cfg.Flags.FreePlacementShipping {
			// Starting garrison is placed by choice instead of the
			// printed default.
			req := newRequest(g, f, rules.RequestSetupPlacement, SetupPlacementContext{
				Territories: freePlacementTerritories(),
				Forces:      startingGarrison(cfg),
			})
			placementRequests = append(placementRequests, req)
			continue
		}
		for territory, count := range cfg.StartingForces {
			g.AddForces(f, territory, cfg.StartingSector, count, 0, false)
			fs.Reserves -= count
		}
	}

	dealTraitors(sess, g, factions)
	dealStartingHands(sess, g, factions)

	if len(placementRequests) > 0 {
		return rules.Pending(true, placementRequests, events...), nil
	}
	return rules.Complete(events...), nil
}

func (e *DuneEngine) applySetupPlacements(g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	var events []rules.Event
	result := rules.StepResult{Status: rules.StepComplete}
	for id, req := range g.Pending {
		resp, ok := responseFor(g, responses, board.Faction(req.Faction), rules.RequestSetupPlacement)
		if !ok {
			result.Status = rules.StepPending
			result.Requests = append(result.Requests, req)
			continue
		}
		f := board.Faction(req.Faction)
		cfg, _ := board.Config(f)
		if resp.Passed {
			// Declined choice falls back to the printed garrison.
			for territory, count := range cfg.StartingForces {
				g.AddForces(f, territory, cfg.StartingSector, count, 0, false)
				g.Factions[f].Reserves -= count
			}
			continue
		}
		var payload SetupPlacementResponse
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			result.Status = rules.StepPending
			result.Requests = append(result.Requests, req)
			vr := &rules.ValidationResult{}
			vr.Add(rules.Invalid(rules.ErrInvalidResponse, "data", "malformed placement payload: %v", err))
			result.Reject(id, vr)
			continue
		}
		if vr := validateSetupPlacement(g, f, startingGarrison(cfg), payload.Placements); !vr.Valid() {
			result.Status = rules.StepPending
			result.Requests = append(result.Requests, req)
			result.Reject(id, vr)
			continue
		}
		for _, p := range payload.Placements {
			g.AddForces(f, p.Territory, p.Sector, p.Forces, p.Elite, false)
			g.Factions[f].Reserves -= p.Forces + p.Elite
			events = append(events, rules.NewEvent(rules.EventForcesShipped, "starting forces placed").
				WithFaction(string(f)).
				WithTerritory(p.Territory).
				WithAmount(p.Forces+p.Elite))
		}
	}
	result.Events = events
	result.Simultaneous = true
	return result, nil
}

// validateSetupPlacement checks a free-placement distribution: known
// territories inside the allowed neighborhood, sane counts, total not above
// the printed garrison.
func validateSetupPlacement(g *GameState, f board.Faction, budget int, placements []Placement) *rules.ValidationResult {
	result := &rules.ValidationResult{}
	allowed := make(map[string]bool)
	for _, id := range freePlacementTerritories() {
		allowed[id] = true
	}
	total := 0
	m := board.StandardMap()
	for _, p := range placements {
		t := m.Territory(p.Territory)
		if t == nil {
			result.Add(rules.Invalid(rules.ErrInvalidTerritory, "territory", "unknown territory %q", p.Territory))
			continue
		}
		if !allowed[p.Territory] {
			result.Add(rules.Invalid(rules.ErrInvalidDestination, "territory",
				"%s is outside the free placement area", p.Territory))
		}
		if !t.SpansSector(p.Sector) && len(t.Sectors) > 0 {
			result.Add(rules.Invalid(rules.ErrInvalidSector, "sector",
				"%s does not span sector %d", p.Territory, p.Sector))
		}
		if p.Forces < 0 || p.Elite < 0 || p.Forces+p.Elite == 0 {
			result.Add(rules.Invalid(rules.ErrInsufficientForces, "forces",
				"placement in %s has no forces", p.Territory))
		}
		total += p.Forces + p.Elite
	}
	if total > budget {
		result.Add(rules.Invalid(rules.ErrInsufficientReserves, "forces",
			"placed %d forces, only %d available", total, budget))
	}
	return result
}

// freePlacementTerritories returns the free placement neighborhood: the home
// region and every territory within two moves of it.
func freePlacementTerritories() []string {
	m := board.StandardMap()
	seen := map[string]int{board.GreatFlatID: 0}
	frontier := []string{board.GreatFlatID}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		if seen[id] >= 2 {
			continue
		}
		for _, next := range m.AdjacentTo(id) {
			if _, ok := seen[next.ID]; !ok {
				seen[next.ID] = seen[id] + 1
				frontier = append(frontier, next.ID)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func startingGarrison(cfg board.FactionConfig) int {
	total := 0
	for _, n := range cfg.StartingForces {
		total += n
	}
	return total
}

// dealTraitors shuffles every in-game leader and deals traitor cards: one per
// faction, the full deal of four for a faction flagged ExtraTraitors.
func dealTraitors(sess *gameSession, g *GameState, factions []board.Faction) {
	var pool []string
	for _, f := range factions {
		cfg, _ := board.Config(f)
		for _, ld := range cfg.Leaders {
			pool = append(pool, ld.ID)
		}
	}
	pool = shuffled(sess.rng, pool)
	for _, f := range factions {
		count := 1
		if board.Flags(f).ExtraTraitors {
			count = 4
		}
		fs := g.Factions[f]
		for i := 0; i < count && len(pool) > 0; i++ {
			// Skip own leaders; a traitor card against yourself is dead
			// weight in this ruleset.
			for j, id := range pool {
				if _, owner, ok := board.Leader(id); ok && owner != f {
					fs.Traitors = append(fs.Traitors, id)
					pool = append(pool[:j], pool[j+1:]...)
					break
				}
			}
		}
	}
}

// dealStartingHands gives every faction one treachery card off the top.
func dealStartingHands(sess *gameSession, g *GameState, factions []board.Faction) {
	for _, f := range factions {
		if len(g.TreacheryDeck) == 0 {
			return
		}
		g.Factions[f].Hand = append(g.Factions[f].Hand, g.TreacheryDeck[0])
		g.TreacheryDeck = g.TreacheryDeck[1:]
	}
}

// factionsInPlay returns the game's factions in the fixed board order.
func factionsInPlay(g *GameState) []board.Faction {
	out := make([]board.Faction, 0, len(g.Factions))
	for _, f := range board.AllFactions {
		if _, ok := g.Factions[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// shuffled returns a shuffled copy of ids.
func shuffled(rng *rand.Rand, ids []string) []string {
	out := append([]string(nil), ids...)
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
