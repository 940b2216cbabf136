package game

// StateView is the spectator projection of a game state: everything public,
// nothing hidden. Hands, traitor cards and unrevealed battle plans are
// reduced to counts.
type StateView struct {
	GameID        string        `json:"game_id"`
	Turn          int           `json:"turn"`
	Phase         string        `json:"phase"`
	AdvancedRules bool          `json:"advanced_rules"`
	StormSector   int           `json:"storm_sector"`
	StormOrder    []string      `json:"storm_order"`
	Factions      []FactionView `json:"factions"`
	Stacks        []StackView   `json:"stacks"`
	Spice         []SpiceView   `json:"spice"`
	Pending       []PendingView `json:"pending,omitempty"`
	Ended         bool          `json:"ended"`
	Winners       []string      `json:"winners,omitempty"`
}

// FactionView is the public slice of one faction's state.
type FactionView struct {
	Faction         string `json:"faction"`
	Spice           int    `json:"spice"`
	Reserves        int    `json:"reserves"`
	EliteReserves   int    `json:"elite_reserves"`
	Casualties      int    `json:"casualties"`
	EliteCasualties int    `json:"elite_casualties"`
	HandSize        int    `json:"hand_size"`
	TraitorCount    int    `json:"traitor_count"`
	Ally            string `json:"ally,omitempty"`
	LeadersAlive    int    `json:"leaders_alive"`
}

// StackView is one visible force stack.
type StackView struct {
	Faction   string `json:"faction"`
	Territory string `json:"territory"`
	Sector    int    `json:"sector"`
	Forces    int    `json:"forces"`
	Elite     int    `json:"elite"`
	Advisors  bool   `json:"advisors,omitempty"`
}

// SpiceView is one visible spice pile.
type SpiceView struct {
	Territory string `json:"territory"`
	Sector    int    `json:"sector"`
	Amount    int    `json:"amount"`
}

// PendingView names who the game is waiting on, without the request context.
type PendingView struct {
	Faction string `json:"faction"`
	Type    string `json:"type"`
}

// NewStateView projects a state into its public view.
func NewStateView(g *GameState) *StateView {
	view := &StateView{
		GameID:        g.GameID,
		Turn:          g.Turn,
		Phase:         g.Phase.String(),
		AdvancedRules: g.AdvancedRules,
		StormSector:   g.StormSector,
		StormOrder:    append([]string(nil), g.StormOrder...),
		Ended:         g.Ended,
	}
	for _, f := range factionsInPlay(g) {
		fs := g.Factions[f]
		alive := 0
		for _, l := range fs.Leaders {
			if l.Location != LeaderDeadRevivable && l.Location != LeaderDeadBlocked {
				alive++
			}
		}
		view.Factions = append(view.Factions, FactionView{
			Faction:         string(f),
			Spice:           fs.Spice,
			Reserves:        fs.Reserves,
			EliteReserves:   fs.EliteReserves,
			Casualties:      fs.Casualties,
			EliteCasualties: fs.EliteCasualties,
			HandSize:        len(fs.Hand),
			TraitorCount:    len(fs.Traitors),
			Ally:            string(fs.Ally),
			LeadersAlive:    alive,
		})
	}
	for _, s := range g.Stacks {
		view.Stacks = append(view.Stacks, StackView{
			Faction:   string(s.Faction),
			Territory: s.Territory,
			Sector:    s.Sector,
			Forces:    s.Forces,
			Elite:     s.Elite,
			Advisors:  s.Advisors,
		})
	}
	for _, p := range g.Spice {
		view.Spice = append(view.Spice, SpiceView{
			Territory: p.Territory,
			Sector:    p.Sector,
			Amount:    p.Amount,
		})
	}
	for _, req := range g.Pending {
		view.Pending = append(view.Pending, PendingView{
			Faction: req.Faction,
			Type:    string(req.Type),
		})
	}
	for _, w := range g.Winners {
		view.Winners = append(view.Winners, string(w))
	}
	return view
}
