package game

import (
	"encoding/json"
	"strconv"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

// Stages of one faction's shipment slot.
const (
	shipStageElect = "elect"
	shipStageShip  = "ship"
	shipStageMove  = "move"
)

// ShipmentPhaseState walks the storm order one faction at a time. A faction
// flagged OutOfOrderTurn holds no queue slot; before every queued faction
// acts, it is asked whether it takes the next slot itself.
type ShipmentPhaseState struct {
	Queue          []board.Faction
	OutOfOrder     board.Faction
	OutOfOrderDone bool
	Current        board.Faction
	Stage          string
}

func (s *ShipmentPhaseState) clone() *ShipmentPhaseState {
	if s == nil {
		return nil
	}
	c := *s
	c.Queue = append([]board.Faction(nil), s.Queue...)
	return &c
}

// stepShipment runs one micro-step of the shipment and movement phase: an
// election, a shipment, or a movement.
func (e *DuneEngine) stepShipment(_ *gameSession, g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	if g.ShipPhase == nil {
		sp := &ShipmentPhaseState{}
		for _, name := range g.StormOrder {
			sp.Queue = append(sp.Queue, board.Faction(name))
		}
		for _, f := range factionsInPlay(g) {
			if board.Flags(f).OutOfOrderTurn {
				sp.OutOfOrder = f
			}
		}
		g.ShipPhase = sp
		return e.nextShipmentSlot(g)
	}

	sp := g.ShipPhase
	switch sp.Stage {
	case shipStageElect:
		return e.handleElection(g, responses)
	case shipStageShip:
		return e.handleShipment(g, responses)
	case shipStageMove:
		return e.handleMovement(g, responses)
	default:
		return e.nextShipmentSlot(g)
	}
}

// nextShipmentSlot decides who acts next, or completes the phase.
func (e *DuneEngine) nextShipmentSlot(g *GameState) (rules.StepResult, error) {
	sp := g.ShipPhase
	sp.Current = ""
	sp.Stage = ""

	if sp.OutOfOrder != "" && !sp.OutOfOrderDone {
		if len(sp.Queue) == 0 {
			// Everyone else has acted; the monopoly takes the last slot.
			sp.Current = sp.OutOfOrder
			sp.OutOfOrderDone = true
			sp.Stage = shipStageShip
			return e.askShipment(g)
		}
		sp.Stage = shipStageElect
		req := newRequest(g, sp.OutOfOrder, rules.RequestGuildElection, nil)
		return rules.Pending(false, []rules.DecisionRequest{req}), nil
	}

	if len(sp.Queue) == 0 {
		g.ShipPhase = nil
		return rules.Complete(), nil
	}
	sp.Current = sp.Queue[0]
	sp.Queue = sp.Queue[1:]
	sp.Stage = shipStageShip
	return e.askShipment(g)
}

func (e *DuneEngine) handleElection(g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	sp := g.ShipPhase
	req := pendingRequestFor(g, sp.OutOfOrder, rules.RequestGuildElection)
	resp, ok := responseFor(g, responses, sp.OutOfOrder, rules.RequestGuildElection)
	if !ok {
		return rules.Pending(false, []rules.DecisionRequest{req}), nil
	}
	take := false
	if !resp.Passed {
		var payload GuildElectionResponse
		if err := json.Unmarshal(resp.Data, &payload); err == nil {
			take = payload.TakeTurn
		}
	}
	var events []rules.Event
	if take {
		sp.Current = sp.OutOfOrder
		sp.OutOfOrderDone = true
		events = append(events, rules.NewEvent(rules.EventGuildElected, "turn slot claimed out of order").
			WithFaction(string(sp.OutOfOrder)))
	} else {
		sp.Current = sp.Queue[0]
		sp.Queue = sp.Queue[1:]
	}
	sp.Stage = shipStageShip
	result, err := e.askShipment(g)
	result.Events = append(events, result.Events...)
	return result, err
}

func (e *DuneEngine) askShipment(g *GameState) (rules.StepResult, error) {
	sp := g.ShipPhase
	fs := g.Factions[sp.Current]
	req := newRequest(g, sp.Current, rules.RequestShipForces, ShipmentContext{
		Reserves:      fs.Reserves,
		EliteReserves: fs.EliteReserves,
		Spice:         fs.Spice,
	})
	return rules.Pending(false, []rules.DecisionRequest{req}), nil
}

func (e *DuneEngine) handleShipment(g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	sp := g.ShipPhase
	req := pendingRequestFor(g, sp.Current, rules.RequestShipForces)
	resp, ok := responseFor(g, responses, sp.Current, rules.RequestShipForces)
	if !ok {
		return rules.Pending(false, []rules.DecisionRequest{req}), nil
	}

	var events []rules.Event
	if !resp.Passed {
		var payload ShipmentResponse
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			return rejectRequest(req, rules.Invalid(rules.ErrInvalidResponse, "data",
				"malformed shipment payload: %v", err)), nil
		}
		f := sp.Current
		if payload.Advisors && !board.Flags(f).Advisors {
			return rejectRequest(req, rules.Invalid(rules.ErrInvalidResponse, "advisors",
				"%s has no advisor token state", f)), nil
		}
		m := board.StandardMap()
		if vr := ValidateShipment(g, m, f, payload.Territory, payload.Sector, payload.Forces, payload.Elite, payload.Advisors); !vr.Valid() {
			result := rules.Pending(false, []rules.DecisionRequest{req})
			result.Reject(req.ID, vr)
			return result, nil
		}
		events = applyShipment(g, f, payload)
	}

	sp.Stage = shipStageMove
	moveReq := newRequest(g, sp.Current, rules.RequestMoveForces, nil)
	result := rules.Pending(false, []rules.DecisionRequest{moveReq})
	result.Events = events
	return result, nil
}

// applyShipment lands the forces and routes the fee. The spacing monopoly
// collects every other faction's shipment fees; its own discounted fee goes
// to the bank.
func applyShipment(g *GameState, f board.Faction, s ShipmentResponse) []rules.Event {
	fs := g.Factions[f]
	fs.Reserves -= s.Forces
	fs.EliteReserves -= s.Elite
	g.AddForces(f, s.Territory, s.Sector, s.Forces, s.Elite, s.Advisors)

	cost := 0
	if !board.Flags(f).FreePlacementShipping {
		m := board.StandardMap()
		cost = ShipmentCost(f, m.Territory(s.Territory), s.Forces+s.Elite)
		fs.Spice -= cost
		if !board.Flags(f).OutOfOrderTurn {
			for _, other := range factionsInPlay(g) {
				if board.Flags(other).OutOfOrderTurn {
					g.Factions[other].Spice += cost
					break
				}
			}
		}
	}
	return []rules.Event{
		rules.NewEvent(rules.EventForcesShipped, "forces shipped").
			WithFaction(string(f)).
			WithTerritory(s.Territory).
			WithAmount(s.Forces + s.Elite).
			WithData("cost", strconv.Itoa(cost)),
	}
}

func (e *DuneEngine) handleMovement(g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	sp := g.ShipPhase
	req := pendingRequestFor(g, sp.Current, rules.RequestMoveForces)
	resp, ok := responseFor(g, responses, sp.Current, rules.RequestMoveForces)
	if !ok {
		return rules.Pending(false, []rules.DecisionRequest{req}), nil
	}

	var events []rules.Event
	if !resp.Passed {
		var payload MovementResponse
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			return rejectRequest(req, rules.Invalid(rules.ErrInvalidResponse, "data",
				"malformed movement payload: %v", err)), nil
		}
		f := sp.Current
		m := board.StandardMap()
		if vr := ValidateMovement(g, m, f, payload.FromTerritory, payload.FromSector,
			payload.ToTerritory, payload.ToSector, payload.Forces, payload.Elite); !vr.Valid() {
			result := rules.Pending(false, []rules.DecisionRequest{req})
			result.Reject(req.ID, vr)
			return result, nil
		}
		stack := g.StackAt(f, payload.FromTerritory, payload.FromSector)
		advisors := stack != nil && stack.Advisors
		if err := g.RemoveForces(f, payload.FromTerritory, payload.FromSector, payload.Forces, payload.Elite); err != nil {
			return rules.StepResult{}, err
		}
		g.AddForces(f, payload.ToTerritory, payload.ToSector, payload.Forces, payload.Elite, advisors)
		events = append(events, rules.NewEvent(rules.EventForcesMoved, "forces moved").
			WithFaction(string(f)).
			WithTerritory(payload.ToTerritory).
			WithAmount(payload.Forces+payload.Elite).
			WithData("from", payload.FromTerritory))
	}

	return e.finishSlot(g, events)
}

func (e *DuneEngine) finishSlot(g *GameState, events []rules.Event) (rules.StepResult, error) {
	result, err := e.nextShipmentSlot(g)
	if err != nil {
		return result, err
	}
	result.Events = append(events, result.Events...)
	return result, nil
}
