package game

import (
	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

// strongholdOccupancyLimit caps how many factions may occupy one stronghold.
const strongholdOccupancyLimit = 2

// CanPassThroughTerritory reports whether a territory is usable as a
// pathfinding node given the storm. A territory is passable when at least one
// of its sectors is outside the storm; a territory with no sectors is always
// passable.
func CanPassThroughTerritory(t *board.Territory, stormSector int) bool {
	if len(t.Sectors) == 0 {
		return true
	}
	for _, s := range t.Sectors {
		if s != stormSector {
			return true
		}
	}
	return false
}

// ValidateSourceSectorNotInStorm checks the source sector of a move against
// the storm. A territory spanning no sectors is exempt by construction.
// Returns nil on pass.
func ValidateSourceSectorNotInStorm(t *board.Territory, sector, stormSector int, flags board.CapabilityFlags) *rules.ValidationError {
	if len(t.Sectors) == 0 {
		return nil
	}
	if !t.SpansSector(sector) {
		return rules.Invalid(rules.ErrInvalidSector, "from_sector",
			"territory %s does not span sector %d", t.ID, sector)
	}
	if flags.StormMovement {
		return nil
	}
	if sector == stormSector {
		return rules.Invalid(rules.ErrSourceInStorm, "from_sector",
			"sector %d of %s is under the storm", sector, t.ID)
	}
	return nil
}

// ValidateDestinationSectorNotInStorm checks the destination sector of a move
// or shipment against the storm. Returns nil on pass.
func ValidateDestinationSectorNotInStorm(t *board.Territory, sector, stormSector int, flags board.CapabilityFlags) *rules.ValidationError {
	if len(t.Sectors) == 0 {
		return nil
	}
	if !t.SpansSector(sector) {
		return rules.Invalid(rules.ErrInvalidSector, "to_sector",
			"territory %s does not span sector %d", t.ID, sector)
	}
	if flags.StormMovement {
		return nil
	}
	if sector == stormSector {
		return rules.Invalid(rules.ErrDestinationInStorm, "to_sector",
			"sector %d of %s is under the storm", sector, t.ID)
	}
	return nil
}

// occupantFactions returns the factions occupying a territory. Presence made
// up solely of advisor tokens does not count.
func occupantFactions(g *GameState, territory string) []board.Faction {
	seen := make(map[board.Faction]bool)
	var out []board.Faction
	for _, s := range g.Stacks {
		if s.Territory != territory || s.Advisors || s.Total() == 0 {
			continue
		}
		if !seen[s.Faction] {
			seen[s.Faction] = true
			out = append(out, s.Faction)
		}
	}
	return out
}

// validateOccupancy enforces the stronghold two-faction cap for an entering
// faction. Returns nil when the faction is already an occupant.
func validateOccupancy(g *GameState, t *board.Territory, f board.Faction, asAdvisors bool) *rules.ValidationError {
	if t.Type != board.Stronghold || asAdvisors {
		return nil
	}
	occupants := occupantFactions(g, t.ID)
	for _, occ := range occupants {
		if occ == f {
			return nil
		}
	}
	if len(occupants) >= strongholdOccupancyLimit {
		return rules.Invalid(rules.ErrOccupancyLimitExceeded, "to_territory",
			"stronghold %s already has %d occupying factions", t.ID, len(occupants))
	}
	return nil
}

// MovementRange returns the maximum territory-hop count for ordinary
// movement: three with ornithopter access (occupying Arrakeen or Carthag),
// two for the desert-native exception, otherwise one.
func MovementRange(g *GameState, f board.Faction) int {
	if g.ForcesIn(f, "arrakeen") > 0 || g.ForcesIn(f, "carthag") > 0 {
		return 3
	}
	if board.Flags(f).StormMovement {
		return 2
	}
	return 1
}

// pathDistance runs a breadth-first search over the adjacency graph from one
// territory to another, treating fully stormed territories as impassable
// (unless the mover ignores the storm). Returns -1 when no path exists.
func pathDistance(m *board.GameMap, from, to string, stormSector int, flags board.CapabilityFlags) int {
	if from == to {
		return 0
	}
	visited := map[string]bool{from: true}
	frontier := []string{from}
	dist := 0
	for len(frontier) > 0 {
		dist++
		var next []string
		for _, id := range frontier {
			for _, adj := range m.AdjacentTo(id) {
				if visited[adj.ID] {
					continue
				}
				if adj.ID == to {
					return dist
				}
				if !flags.StormMovement && !CanPassThroughTerritory(adj, stormSector) {
					continue
				}
				visited[adj.ID] = true
				next = append(next, adj.ID)
			}
		}
		frontier = next
	}
	return -1
}

// ValidateMovement checks a proposed on-board force movement. All applicable
// violations are aggregated; an unknown territory or sector aborts the checks
// that depend on it.
func ValidateMovement(g *GameState, m *board.GameMap, f board.Faction, fromTerritory string, fromSector int, toTerritory string, toSector int, forces, elite int) *rules.ValidationResult {
	result := &rules.ValidationResult{}
	flags := board.Flags(f)

	from := m.Territory(fromTerritory)
	to := m.Territory(toTerritory)
	if from == nil {
		result.Add(rules.Invalid(rules.ErrInvalidTerritory, "from_territory",
			"unknown territory %q", fromTerritory))
	}
	if to == nil {
		result.Add(rules.Invalid(rules.ErrInvalidTerritory, "to_territory",
			"unknown territory %q", toTerritory))
	}
	if !result.Valid() {
		return result
	}

	result.Add(ValidateSourceSectorNotInStorm(from, fromSector, g.StormSector, flags))
	result.Add(ValidateDestinationSectorNotInStorm(to, toSector, g.StormSector, flags))

	stack := g.StackAt(f, fromTerritory, fromSector)
	have, haveElite := 0, 0
	if stack != nil {
		have, haveElite = stack.Forces, stack.Elite
	}
	if forces > have || elite > haveElite {
		result.Add(rules.Invalid(rules.ErrInsufficientForces, "forces",
			"%s has %d+%d forces in %s sector %d, tried to move %d+%d",
			f, have, haveElite, fromTerritory, fromSector, forces, elite))
	}

	if fromTerritory == toTerritory {
		// Repositioning within a territory: no adjacency or range limits,
		// but both sectors stay subject to the storm checks above.
		if fromSector == toSector {
			result.Add(rules.Invalid(rules.ErrInvalidDestination, "to_sector",
				"move from %s sector %d to the same sector is a no-op", fromTerritory, fromSector))
		}
		return result
	}

	dist := pathDistance(m, fromTerritory, toTerritory, g.StormSector, flags)
	if dist < 0 {
		result.Add(rules.Invalid(rules.ErrNoPathAvailable, "to_territory",
			"no passable path from %s to %s", fromTerritory, toTerritory))
	} else if dist > MovementRange(g, f) {
		result.Add(rules.Invalid(rules.ErrExceedsMovementRange, "to_territory",
			"%s to %s is %d territories, range is %d", fromTerritory, toTerritory, dist, MovementRange(g, f)))
	}

	asAdvisors := stack != nil && stack.Advisors
	result.Add(validateOccupancy(g, to, f, asAdvisors))
	return result
}

// ValidateShipment checks a shipment of reserves onto the board. The
// free-placement exception replaces adjacency and cost rules entirely with a
// destination restriction around the anchor territory.
func ValidateShipment(g *GameState, m *board.GameMap, f board.Faction, toTerritory string, toSector, forces, elite int, asAdvisors bool) *rules.ValidationResult {
	result := &rules.ValidationResult{}
	flags := board.Flags(f)

	to := m.Territory(toTerritory)
	if to == nil {
		result.Add(rules.Invalid(rules.ErrInvalidTerritory, "to_territory",
			"unknown territory %q", toTerritory))
		return result
	}

	result.Add(ValidateDestinationSectorNotInStorm(to, toSector, g.StormSector, flags))

	fs := g.Faction(f)
	if fs == nil || forces > fs.Reserves || elite > fs.EliteReserves {
		have, haveElite := 0, 0
		if fs != nil {
			have, haveElite = fs.Reserves, fs.EliteReserves
		}
		result.Add(rules.Invalid(rules.ErrInsufficientReserves, "forces",
			"%s has %d+%d in reserve, tried to ship %d+%d", f, have, haveElite, forces, elite))
	}

	if flags.FreePlacementShipping {
		dist := pathDistance(m, board.GreatFlatID, toTerritory, g.StormSector, flags)
		if dist < 0 || dist > 2 {
			result.Add(rules.Invalid(rules.ErrInvalidDestination, "to_territory",
				"%s must be %s or within two territories of it", toTerritory, board.GreatFlatID))
		}
	} else if fs != nil {
		cost := ShipmentCost(f, to, forces+elite)
		if cost > fs.Spice {
			result.Add(rules.Invalid(rules.ErrInsufficientSpice, "forces",
				"shipment costs %d spice, %s has %d", cost, f, fs.Spice))
		}
	}

	result.Add(validateOccupancy(g, to, f, asAdvisors))
	return result
}

// ShipmentCost returns the spice cost of shipping count forces into a
// territory: one per force into a stronghold, two per force elsewhere, halved
// (rounded up) for the spacing monopoly.
func ShipmentCost(f board.Faction, to *board.Territory, count int) int {
	perForce := 2
	if to.Type == board.Stronghold {
		perForce = 1
	}
	cost := perForce * count
	if board.Flags(f).OutOfOrderTurn {
		cost = (cost + 1) / 2
	}
	return cost
}
