package game

import (
	"fmt"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

// LeaderLocation tracks where a leader currently is.
type LeaderLocation int

const (
	// LeaderAvailable means the leader is in the faction's pool.
	LeaderAvailable LeaderLocation = iota
	// LeaderInBattle means the leader is committed to the battle being
	// resolved.
	LeaderInBattle
	// LeaderSurvived means the leader won a battle and remains on-board in
	// the territory, immune to non-battle destruction while there.
	LeaderSurvived
	// LeaderDeadRevivable means the leader is in the tanks and may be
	// revived.
	LeaderDeadRevivable
	// LeaderDeadBlocked means the leader is dead and revival is blocked
	// until the rest of the roster has died once.
	LeaderDeadBlocked
	// LeaderCaptured means an opposing faction holds the leader.
	LeaderCaptured
)

var leaderLocationNames = map[LeaderLocation]string{
	LeaderAvailable:     "AVAILABLE",
	LeaderInBattle:      "IN_BATTLE",
	LeaderSurvived:      "SURVIVED_ON_BOARD",
	LeaderDeadRevivable: "DEAD_REVIVABLE",
	LeaderDeadBlocked:   "DEAD_BLOCKED",
	LeaderCaptured:      "CAPTURED",
}

func (l LeaderLocation) String() string {
	if name, ok := leaderLocationNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEADER_LOCATION_%d", int(l))
}

// LeaderState is the mutable per-game state of one leader.
type LeaderState struct {
	ID            string
	Owner         board.Faction
	HeldBy        board.Faction // differs from Owner when captured
	Location      LeaderLocation
	Territory     string // set for IN_BATTLE and SURVIVED_ON_BOARD
	UsedThisTurn  bool
	UsedTerritory string
}

// ForceStack is a faction's force presence in one territory sector.
// Advisors marks the Bene Gesserit non-combatant token state: advisors ignore
// occupancy limits and never fight, but the storm still destroys them.
type ForceStack struct {
	Faction   board.Faction
	Territory string
	Sector    int
	Forces    int
	Elite     int
	Advisors  bool
}

// Total returns the combined regular and elite force count.
func (s *ForceStack) Total() int {
	return s.Forces + s.Elite
}

// SpicePile is loose spice sitting in a territory sector.
type SpicePile struct {
	Territory string
	Sector    int
	Amount    int
}

// FactionState is the per-faction slice of the game state.
type FactionState struct {
	Faction         board.Faction
	Spice           int
	SpicePledged    int // promised to an ally, uncollected
	Reserves        int
	EliteReserves   int
	Casualties      int
	EliteCasualties int
	Leaders         map[string]*LeaderState
	Hand            []string // treachery card IDs
	Traitors        []string // leader IDs held as traitor cards
	Ally            board.Faction
	FreeRevivalUsed bool
	CheapHeroUsed   bool
}

// HasCard reports whether the faction holds the given treachery card.
func (f *FactionState) HasCard(cardID string) bool {
	for _, id := range f.Hand {
		if id == cardID {
			return true
		}
	}
	return false
}

// RemoveCard drops a card from the factions's hand. Returns false if the card
// was not held.
func (f *FactionState) RemoveCard(cardID string) bool {
	for i, id := range f.Hand {
		if id == cardID {
			f.Hand = append(f.Hand[:i], f.Hand[i+1:]...)
			return true
		}
	}
	return false
}

// HoldsTraitor reports whether the faction holds a traitor card naming the
// given leader.
func (f *FactionState) HoldsTraitor(leaderID string) bool {
	for _, id := range f.Traitors {
		if id == leaderID {
			return true
		}
	}
	return false
}

// AvailableLeaders returns the IDs of leaders in the faction's pool,
// including captured leaders it currently holds.
func (f *FactionState) AvailableLeaders() []string {
	out := make([]string, 0, len(f.Leaders))
	for id, l := range f.Leaders {
		if l.Location == LeaderAvailable && l.HeldBy == f.Faction {
			out = append(out, id)
		}
	}
	return out
}

// GameState is the root aggregate. All mutation goes through transition
// functions that operate on a Clone and return the new value; no component
// aliases a live GameState.
type GameState struct {
	GameID        string
	Turn          int
	Phase         rules.Phase
	AdvancedRules bool

	StormSector int
	StormOrder  []string
	Seats       []rules.Seat

	Factions map[board.Faction]*FactionState
	Stacks   []*ForceStack
	Spice    []*SpicePile

	TreacheryDeck    []string
	TreacheryDiscard []string
	SpiceDeck        []string
	SpiceDiscard     []string

	// Pending decision state: requests issued by the last step, keyed by
	// request ID, awaiting responses.
	Pending map[string]rules.DecisionRequest

	// Per-phase progress state, populated only while the phase runs.
	BattlePhase *BattlePhaseState
	BidPhase    *BidPhaseState
	ShipPhase   *ShipmentPhaseState
	StormPhase  *StormPhaseState
	SetupPhase  *SetupPhaseState

	Log []rules.Event

	Ended   bool
	Winners []board.Faction
}

// Faction returns the state for a faction, or nil if it is not in the game.
func (g *GameState) Faction(f board.Faction) *FactionState {
	return g.Factions[f]
}

// StackAt returns the force stack for a faction in a territory sector.
func (g *GameState) StackAt(f board.Faction, territory string, sector int) *ForceStack {
	for _, s := range g.Stacks {
		if s.Faction == f && s.Territory == territory && s.Sector == sector {
			return s
		}
	}
	return nil
}

// StacksIn returns every force stack in the territory.
func (g *GameState) StacksIn(territory string) []*ForceStack {
	var out []*ForceStack
	for _, s := range g.Stacks {
		if s.Territory == territory {
			out = append(out, s)
		}
	}
	return out
}

// ForcesIn returns a faction's total forces across all sectors of a
// territory, advisors included.
func (g *GameState) ForcesIn(f board.Faction, territory string) int {
	total := 0
	for _, s := range g.Stacks {
		if s.Faction == f && s.Territory == territory {
			total += s.Total()
		}
	}
	return total
}

// AddForces places forces into a territory sector, merging with an existing
// stack of the same faction and advisor status.
func (g *GameState) AddForces(f board.Faction, territory string, sector, forces, elite int, advisors bool) {
	for _, s := range g.Stacks {
		if s.Faction == f && s.Territory == territory && s.Sector == sector && s.Advisors == advisors {
			s.Forces += forces
			s.Elite += elite
			return
		}
	}
	g.Stacks = append(g.Stacks, &ForceStack{
		Faction:   f,
		Territory: territory,
		Sector:    sector,
		Forces:    forces,
		Elite:     elite,
		Advisors:  advisors,
	})
}

// RemoveForces takes forces out of a stack and drops the stack when empty.
// It returns an error when the stack does not hold the requested forces;
// callers are expected to have validated first, so this is a fail-fast path.
func (g *GameState) RemoveForces(f board.Faction, territory string, sector, forces, elite int) error {
	for i, s := range g.Stacks {
		if s.Faction != f || s.Territory != territory || s.Sector != sector {
			continue
		}
		if s.Forces < forces || s.Elite < elite {
			return fmt.Errorf("stack %s/%s/%d holds %d+%d, cannot remove %d+%d",
				f, territory, sector, s.Forces, s.Elite, forces, elite)
		}
		s.Forces -= forces
		s.Elite -= elite
		if s.Total() == 0 {
			g.Stacks = append(g.Stacks[:i], g.Stacks[i+1:]...)
		}
		return nil
	}
	return fmt.Errorf("no stack for %s in %s sector %d", f, territory, sector)
}

// SpiceAt returns the pile in a territory sector, or nil.
func (g *GameState) SpiceAt(territory string, sector int) *SpicePile {
	for _, p := range g.Spice {
		if p.Territory == territory && p.Sector == sector {
			return p
		}
	}
	return nil
}

// AddSpice places spice in a territory sector.
func (g *GameState) AddSpice(territory string, sector, amount int) {
	if amount <= 0 {
		return
	}
	if p := g.SpiceAt(territory, sector); p != nil {
		p.Amount += amount
		return
	}
	g.Spice = append(g.Spice, &SpicePile{Territory: territory, Sector: sector, Amount: amount})
}

// TakeSpice removes up to amount of spice from a pile and returns how much
// was actually taken.
func (g *GameState) TakeSpice(territory string, sector, amount int) int {
	for i, p := range g.Spice {
		if p.Territory != territory || p.Sector != sector {
			continue
		}
		taken := amount
		if taken > p.Amount {
			taken = p.Amount
		}
		p.Amount -= taken
		if p.Amount == 0 {
			g.Spice = append(g.Spice[:i], g.Spice[i+1:]...)
		}
		return taken
	}
	return 0
}

// Allied reports whether two factions are in the same alliance.
func (g *GameState) Allied(a, b board.Faction) bool {
	if a == b {
		return false
	}
	fa := g.Factions[a]
	return fa != nil && fa.Ally == b
}

// Leader returns the leader state wherever it lives.
func (g *GameState) Leader(id string) *LeaderState {
	for _, f := range g.Factions {
		if l, ok := f.Leaders[id]; ok {
			return l
		}
	}
	return nil
}

// Clone returns a deep copy. Phase transitions mutate the clone and the
// engine swaps it in atomically on success.
func (g *GameState) Clone() *GameState {
	out := *g
	out.StormOrder = append([]string(nil), g.StormOrder...)
	out.Seats = append([]rules.Seat(nil), g.Seats...)
	out.TreacheryDeck = append([]string(nil), g.TreacheryDeck...)
	out.TreacheryDiscard = append([]string(nil), g.TreacheryDiscard...)
	out.SpiceDeck = append([]string(nil), g.SpiceDeck...)
	out.SpiceDiscard = append([]string(nil), g.SpiceDiscard...)
	out.Log = append([]rules.Event(nil), g.Log...)
	out.Winners = append([]board.Faction(nil), g.Winners...)

	out.Factions = make(map[board.Faction]*FactionState, len(g.Factions))
	for name, f := range g.Factions {
		fc := *f
		fc.Hand = append([]string(nil), f.Hand...)
		fc.Traitors = append([]string(nil), f.Traitors...)
		fc.Leaders = make(map[string]*LeaderState, len(f.Leaders))
		for id, l := range f.Leaders {
			lc := *l
			fc.Leaders[id] = &lc
		}
		out.Factions[name] = &fc
	}

	out.Stacks = make([]*ForceStack, len(g.Stacks))
	for i, s := range g.Stacks {
		sc := *s
		out.Stacks[i] = &sc
	}
	out.Spice = make([]*SpicePile, len(g.Spice))
	for i, p := range g.Spice {
		pc := *p
		out.Spice[i] = &pc
	}

	out.Pending = make(map[string]rules.DecisionRequest, len(g.Pending))
	for id, req := range g.Pending {
		out.Pending[id] = req
	}

	out.BattlePhase = g.BattlePhase.clone()
	out.BidPhase = g.BidPhase.clone()
	out.ShipPhase = g.ShipPhase.clone()
	out.StormPhase = g.StormPhase.clone()
	out.SetupPhase = g.SetupPhase.clone()
	return &out
}

// ForceTotal returns reserves + on-board + casualties for a faction. The sum
// is invariant over every legal transition.
func (g *GameState) ForceTotal(f board.Faction) int {
	fs := g.Factions[f]
	if fs == nil {
		return 0
	}
	total := fs.Reserves + fs.EliteReserves + fs.Casualties + fs.EliteCasualties
	for _, s := range g.Stacks {
		if s.Faction == f {
			total += s.Total()
		}
	}
	return total
}
