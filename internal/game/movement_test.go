package game

import (
	"testing"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestState builds a bare state with the given factions seated and no
// forces on the board.
func newTestState(factions ...board.Faction) *GameState {
	g := &GameState{
		GameID:   "test-game",
		Turn:     1,
		Factions: make(map[board.Faction]*FactionState),
		Pending:  make(map[string]rules.DecisionRequest),
	}
	for _, f := range factions {
		g.Factions[f] = &FactionState{Faction: f, Leaders: make(map[string]*LeaderState)}
		g.Seats = append(g.Seats, rules.Seat{Faction: string(f)})
	}
	g.StormOrder = rules.StormOrder(g.Seats, g.StormSector)
	return g
}

func TestValidateMovementSourceInStorm(t *testing.T) {
	m := board.StandardMap()
	g := newTestState(board.FactionAtreides, board.FactionFremen)
	g.StormSector = 8
	g.AddForces(board.FactionAtreides, "sihaya_ridge", 8, 5, 0, false)
	g.AddForces(board.FactionFremen, "sihaya_ridge", 8, 5, 0, false)

	result := ValidateMovement(g, m, board.FactionAtreides, "sihaya_ridge", 8, "gara_kulon", 7, 3, 0)
	assert.True(t, result.Has(rules.ErrSourceInStorm))

	// The desert-native exception moves through the storm freely.
	result = ValidateMovement(g, m, board.FactionFremen, "sihaya_ridge", 8, "gara_kulon", 7, 3, 0)
	assert.True(t, result.Valid(), "unexpected violations: %s", result)
}

func TestValidateMovementDestinationInStorm(t *testing.T) {
	m := board.StandardMap()
	g := newTestState(board.FactionAtreides)
	g.StormSector = 7
	g.AddForces(board.FactionAtreides, "sihaya_ridge", 8, 5, 0, false)

	result := ValidateMovement(g, m, board.FactionAtreides, "sihaya_ridge", 8, "gara_kulon", 7, 3, 0)
	assert.True(t, result.Has(rules.ErrDestinationInStorm))
}

func TestValidateMovementSameSectorNoOp(t *testing.T) {
	m := board.StandardMap()
	g := newTestState(board.FactionAtreides)
	g.AddForces(board.FactionAtreides, "imperial_basin", 9, 5, 0, false)

	result := ValidateMovement(g, m, board.FactionAtreides, "imperial_basin", 9, "imperial_basin", 9, 2, 0)
	assert.True(t, result.Has(rules.ErrInvalidDestination))

	// Repositioning to a different sector of the same territory is legal and
	// exempt from range limits.
	result = ValidateMovement(g, m, board.FactionAtreides, "imperial_basin", 9, "imperial_basin", 10, 2, 0)
	assert.True(t, result.Valid(), "unexpected violations: %s", result)
}

func TestValidateMovementRange(t *testing.T) {
	m := board.StandardMap()
	g := newTestState(board.FactionHarkonnen)
	g.AddForces(board.FactionHarkonnen, "sietch_tabr", 13, 5, 0, false)

	// One hop is within the default range.
	result := ValidateMovement(g, m, board.FactionHarkonnen, "sietch_tabr", 13, "bight_of_the_cliff", 13, 2, 0)
	assert.True(t, result.Valid(), "unexpected violations: %s", result)

	// Two hops exceeds it.
	result = ValidateMovement(g, m, board.FactionHarkonnen, "sietch_tabr", 13, "funeral_plain", 14, 2, 0)
	assert.True(t, result.Has(rules.ErrExceedsMovementRange))

	// Holding Carthag grants ornithopters and three-territory range.
	g.AddForces(board.FactionHarkonnen, "carthag", 10, 1, 0, false)
	result = ValidateMovement(g, m, board.FactionHarkonnen, "sietch_tabr", 13, "funeral_plain", 14, 2, 0)
	assert.True(t, result.Valid(), "unexpected violations: %s", result)
}

func TestMovementRange(t *testing.T) {
	g := newTestState(board.FactionAtreides, board.FactionFremen)
	assert.Equal(t, 1, MovementRange(g, board.FactionAtreides))
	assert.Equal(t, 2, MovementRange(g, board.FactionFremen))

	g.AddForces(board.FactionAtreides, "arrakeen", 9, 1, 0, false)
	assert.Equal(t, 3, MovementRange(g, board.FactionAtreides))
}

// TestPathDistanceAroundStorm verifies that a fully stormed territory is
// impassable as an intermediate node and forces a detour.
func TestPathDistanceAroundStorm(t *testing.T) {
	m := board.StandardMap()

	dist := pathDistance(m, "funeral_plain", "the_greater_flat", 5, board.CapabilityFlags{})
	assert.Equal(t, 2, dist)

	// The Great Flat spans only sector 14; storming it forces the long way
	// around through Wind Pass.
	dist = pathDistance(m, "funeral_plain", "the_greater_flat", 14, board.CapabilityFlags{})
	assert.Greater(t, dist, 2)

	// Storm-immune movement ignores the blockage.
	dist = pathDistance(m, "funeral_plain", "the_greater_flat", 14, board.CapabilityFlags{StormMovement: true})
	assert.Equal(t, 2, dist)
}

func TestValidateMovementInsufficientForces(t *testing.T) {
	m := board.StandardMap()
	g := newTestState(board.FactionAtreides)
	g.AddForces(board.FactionAtreides, "arrakeen", 9, 3, 0, false)

	result := ValidateMovement(g, m, board.FactionAtreides, "arrakeen", 9, "imperial_basin", 9, 5, 0)
	assert.True(t, result.Has(rules.ErrInsufficientForces))
}

func TestStrongholdOccupancyLimit(t *testing.T) {
	m := board.StandardMap()
	g := newTestState(board.FactionAtreides, board.FactionHarkonnen, board.FactionEmperor, board.FactionBeneGesserit)
	g.AddForces(board.FactionAtreides, "arrakeen", 9, 5, 0, false)
	g.AddForces(board.FactionHarkonnen, "arrakeen", 9, 5, 0, false)
	g.Factions[board.FactionEmperor].Reserves = 10
	g.Factions[board.FactionEmperor].Spice = 20
	g.Factions[board.FactionBeneGesserit].Reserves = 10
	g.Factions[board.FactionBeneGesserit].Spice = 20

	result := ValidateShipment(g, m, board.FactionEmperor, "arrakeen", 9, 3, 0, false)
	assert.True(t, result.Has(rules.ErrOccupancyLimitExceeded))

	// An existing occupant may reinforce.
	g.Factions[board.FactionAtreides].Reserves = 10
	g.Factions[board.FactionAtreides].Spice = 20
	result = ValidateShipment(g, m, board.FactionAtreides, "arrakeen", 9, 3, 0, false)
	assert.True(t, result.Valid(), "unexpected violations: %s", result)

	// Advisors ignore the cap entirely.
	result = ValidateShipment(g, m, board.FactionBeneGesserit, "arrakeen", 9, 3, 0, true)
	assert.True(t, result.Valid(), "unexpected violations: %s", result)
}

func TestShipmentCost(t *testing.T) {
	m := board.StandardMap()
	stronghold := m.Territory("arrakeen")
	sand := m.Territory("hagga_basin")
	require.NotNil(t, stronghold)
	require.NotNil(t, sand)

	assert.Equal(t, 5, ShipmentCost(board.FactionAtreides, stronghold, 5))
	assert.Equal(t, 10, ShipmentCost(board.FactionAtreides, sand, 5))

	// The spacing monopoly ships at half price, rounded up.
	assert.Equal(t, 3, ShipmentCost(board.FactionGuild, stronghold, 5))
	assert.Equal(t, 5, ShipmentCost(board.FactionGuild, sand, 5))
}

func TestValidateShipmentSpice(t *testing.T) {
	m := board.StandardMap()
	g := newTestState(board.FactionAtreides)
	fs := g.Factions[board.FactionAtreides]
	fs.Reserves = 10
	fs.Spice = 5

	result := ValidateShipment(g, m, board.FactionAtreides, "hagga_basin", 11, 5, 0, false)
	assert.True(t, result.Has(rules.ErrInsufficientSpice))

	result = ValidateShipment(g, m, board.FactionAtreides, "arrakeen", 9, 5, 0, false)
	assert.True(t, result.Valid(), "unexpected violations: %s", result)
}

// TestValidateShipmentFreePlacement pins the desert-native exception: no
// spice is charged, but the destination must sit within two territories of
// the Great Flat.
func TestValidateShipmentFreePlacement(t *testing.T) {
	m := board.StandardMap()
	g := newTestState(board.FactionFremen)
	fs := g.Factions[board.FactionFremen]
	fs.Reserves = 10
	fs.Spice = 0

	result := ValidateShipment(g, m, board.FactionFremen, board.GreatFlatID, 14, 5, 0, false)
	assert.True(t, result.Valid(), "unexpected violations: %s", result)

	result = ValidateShipment(g, m, board.FactionFremen, "funeral_plain", 14, 5, 0, false)
	assert.True(t, result.Valid(), "unexpected violations: %s", result)

	result = ValidateShipment(g, m, board.FactionFremen, "arrakeen", 9, 5, 0, false)
	assert.True(t, result.Has(rules.ErrInvalidDestination))
}

func TestValidateShipmentInsufficientReserves(t *testing.T) {
	m := board.StandardMap()
	g := newTestState(board.FactionEmperor)
	fs := g.Factions[board.FactionEmperor]
	fs.Reserves = 2
	fs.Spice = 20

	result := ValidateShipment(g, m, board.FactionEmperor, "arrakeen", 9, 5, 0, false)
	assert.True(t, result.Has(rules.ErrInsufficientReserves))
}
