// Package board holds the static rule data for the game: the territory and
// sector graph, faction configuration, and treachery card definitions.
// Everything here is built once at process start and never mutated.
package board

import "fmt"

// SectorCount is the number of angular sectors on the board. The storm
// occupies exactly one sector at a time and travels in ascending order.
const SectorCount = 18

// TerritoryType classifies a territory for occupancy and storm rules.
type TerritoryType int

const (
	Sand TerritoryType = iota
	Rock
	Stronghold
	PolarSink
)

var territoryTypeNames = map[TerritoryType]string{
	Sand:       "SAND",
	Rock:       "ROCK",
	Stronghold: "STRONGHOLD",
	PolarSink:  "POLAR_SINK",
}

func (t TerritoryType) String() string {
	if name, ok := territoryTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TERRITORY_TYPE_%d", int(t))
}

// Territory is a single named region of the board. A territory spans zero or
// more angular sectors; the polar sink spans none, which is what makes it
// immune to the storm.
type Territory struct {
	ID             string
	Name           string
	Type           TerritoryType
	Sectors        []int
	Adjacent       []string
	SpiceBlow      bool // spice cards can place spice here
	StormProtected bool // forces here are not destroyed by the storm
}

// SpansSector reports whether the territory includes the given sector.
func (t *Territory) SpansSector(sector int) bool {
	for _, s := range t.Sectors {
		if s == sector {
			return true
		}
	}
	return false
}

// GameMap holds the full territory graph with constant-time lookup by ID.
type GameMap struct {
	territories map[string]*Territory
	order       []string // stable iteration order
}

// Territory returns the territory with the given ID, or nil if unknown.
func (m *GameMap) Territory(id string) *Territory {
	return m.territories[id]
}

// Territories returns all territories in a stable order.
func (m *GameMap) Territories() []*Territory {
	out := make([]*Territory, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.territories[id])
	}
	return out
}

// AdjacentTo returns the territories adjacent to the given territory ID.
func (m *GameMap) AdjacentTo(id string) []*Territory {
	t := m.territories[id]
	if t == nil {
		return nil
	}
	out := make([]*Territory, 0, len(t.Adjacent))
	for _, adj := range t.Adjacent {
		if at := m.territories[adj]; at != nil {
			out = append(out, at)
		}
	}
	return out
}

// NormalizeSector wraps an arbitrary sector value into [0, SectorCount).
func NormalizeSector(sector int) int {
	s := sector % SectorCount
	if s < 0 {
		s += SectorCount
	}
	return s
}

// SectorDistance returns the number of sectors from `from` to `to` traveling
// in the storm's direction of travel (ascending, wrapping at SectorCount).
func SectorDistance(from, to int) int {
	return NormalizeSector(to - from)
}

func buildMap(defs []Territory, adjacency [][2]string) (*GameMap, error) {
	m := &GameMap{territories: make(map[string]*Territory, len(defs))}
	for i := range defs {
		t := defs[i]
		if _, dup := m.territories[t.ID]; dup {
			return nil, fmt.Errorf("duplicate territory %q", t.ID)
		}
		for _, s := range t.Sectors {
			if s < 0 || s >= SectorCount {
				return nil, fmt.Errorf("territory %q: sector %d out of range", t.ID, s)
			}
		}
		if t.Type == PolarSink && len(t.Sectors) != 0 {
			return nil, fmt.Errorf("territory %q: polar territory must span no sectors", t.ID)
		}
		copied := t
		m.territories[t.ID] = &copied
		m.order = append(m.order, t.ID)
	}
	for _, pair := range adjacency {
		a, b := m.territories[pair[0]], m.territories[pair[1]]
		if a == nil || b == nil {
			return nil, fmt.Errorf("adjacency references unknown territory: %v", pair)
		}
		a.Adjacent = append(a.Adjacent, b.ID)
		b.Adjacent = append(b.Adjacent, a.ID)
	}
	return m, nil
}
