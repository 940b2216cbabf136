package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStormOrderClosestAheadFirst(t *testing.T) {
	seats := []Seat{
		{Faction: "ATREIDES", Sector: 9},
		{Faction: "HARKONNEN", Sector: 10},
		{Faction: "FREMEN", Sector: 13},
	}
	order := StormOrder(seats, 8)
	assert.Equal(t, []string{"ATREIDES", "HARKONNEN", "FREMEN"}, order)

	// Storm past Atreides: they wrap to the back.
	order = StormOrder(seats, 10)
	assert.Equal(t, []string{"FREMEN", "ATREIDES", "HARKONNEN"}, order)
}

// TestStormOrderUnderStormActsLast pins the distance-zero rule: a token
// sitting exactly under the storm acts last, not first.
func TestStormOrderUnderStormActsLast(t *testing.T) {
	seats := []Seat{
		{Faction: "ATREIDES", Sector: 9},
		{Faction: "HARKONNEN", Sector: 10},
	}
	order := StormOrder(seats, 9)
	assert.Equal(t, []string{"HARKONNEN", "ATREIDES"}, order)
}

func TestStormOrderExcludesOutOfOrderFactions(t *testing.T) {
	seats := []Seat{
		{Faction: "ATREIDES", Sector: 9},
		{Faction: "GUILD", Sector: 4},
		{Faction: "EMPEROR", Sector: 0},
	}
	order := StormOrder(seats, 0)
	assert.NotContains(t, order, "GUILD")
	assert.Len(t, order, 2)
}

func TestStormOrderStableForTies(t *testing.T) {
	seats := []Seat{
		{Faction: "ATREIDES", Sector: 5},
		{Faction: "HARKONNEN", Sector: 5},
	}
	order := StormOrder(seats, 0)
	assert.Equal(t, []string{"ATREIDES", "HARKONNEN"}, order)
}
