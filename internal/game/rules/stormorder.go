package rules

import (
	"sort"

	"github.com/landsraad/dune-server-go/internal/board"
)

// Seat is a faction's fixed player-token position on the board edge.
type Seat struct {
	Faction string
	Sector  int
}

// StormOrder computes the per-turn faction sequence: the faction whose token
// sits closest ahead of the storm marker, in the storm's direction of travel,
// acts first. Factions flagged OutOfOrderTurn hold no slot here; the phase
// machinery queries them separately before every other faction's action.
func StormOrder(seats []Seat, stormSector int) []string {
	ordered := make([]Seat, 0, len(seats))
	for _, s := range seats {
		if board.Flags(board.Faction(s.Faction)).OutOfOrderTurn {
			continue
		}
		ordered = append(ordered, s)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		di := board.SectorDistance(stormSector, ordered[i].Sector)
		dj := board.SectorDistance(stormSector, ordered[j].Sector)
		if di == 0 {
			di = board.SectorCount // a token under the storm acts last
		}
		if dj == 0 {
			dj = board.SectorCount
		}
		return di < dj
	})
	out := make([]string, len(ordered))
	for i, s := range ordered {
		out[i] = s.Faction
	}
	return out
}
