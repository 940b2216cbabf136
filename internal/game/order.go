package game

import (
	"sort"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

// fullTurnOrder sorts every seated faction by storm distance, including the
// factions that hold no slot in the shipment order. Bidding and battle
// sequencing use this; shipment uses GameState.StormOrder plus the in-between
// elections.
func fullTurnOrder(g *GameState) []board.Faction {
	seats := append([]rules.Seat(nil), g.Seats...)
	sort.SliceStable(seats, func(i, j int) bool {
		return stormDistanceForOrder(g.StormSector, seats[i].Sector) <
			stormDistanceForOrder(g.StormSector, seats[j].Sector)
	})
	out := make([]board.Faction, len(seats))
	for i, s := range seats {
		out[i] = board.Faction(s.Faction)
	}
	return out
}

func stormDistanceForOrder(storm, sector int) int {
	d := board.SectorDistance(storm, sector)
	if d == 0 {
		d = board.SectorCount // a token under the storm acts last
	}
	return d
}
