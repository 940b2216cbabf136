package game

import "github.com/landsraad/dune-server-go/internal/board"

// Request context and response payloads exchanged with decision makers. The
// engine marshals contexts into DecisionRequest.Context and unmarshals
// DecisionResponse.Data into the matching response type.

// SetupPlacementContext offers the free-placement faction its legal
// territories and the force count to distribute.
type SetupPlacementContext struct {
	Territories []string `json:"territories"`
	Forces      int      `json:"forces"`
	Elite       int      `json:"elite"`
}

// Placement is one territory drop within a setup placement.
type Placement struct {
	Territory string `json:"territory"`
	Sector    int    `json:"sector"`
	Forces    int    `json:"forces"`
	Elite     int    `json:"elite"`
}

// SetupPlacementResponse distributes the starting forces.
type SetupPlacementResponse struct {
	Placements []Placement `json:"placements"`
}

// StormDialContext bounds a storm dial.
type StormDialContext struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// StormDialResponse carries one faction's storm dial.
type StormDialResponse struct {
	Dial int `json:"dial"`
}

// BidContext describes the lot under auction. CardID is populated only for
// the faction whose foresight lets it see the card.
type BidContext struct {
	Round      int    `json:"round"`
	CardID     string `json:"card_id,omitempty"`
	HighBid    int    `json:"high_bid"`
	HighBidder string `json:"high_bidder,omitempty"`
}

// BidResponse places a bid. Passing is expressed through Passed on the
// response envelope.
type BidResponse struct {
	Amount int `json:"amount"`
}

// RevivalResponse buys back forces from the casualty pool, and optionally one
// revivable leader from the tanks.
type RevivalResponse struct {
	Forces   int    `json:"forces"`
	Elite    int    `json:"elite"`
	LeaderID string `json:"leader_id,omitempty"`
}

// GuildElectionResponse reports whether the out-of-order faction takes the
// next shipment slot now or defers.
type GuildElectionResponse struct {
	TakeTurn bool `json:"take_turn"`
}

// ShipmentContext reports the actor's reserves and spice for the slot.
type ShipmentContext struct {
	Reserves      int `json:"reserves"`
	EliteReserves int `json:"elite_reserves"`
	Spice         int `json:"spice"`
}

// ShipmentResponse lands reserves on the board.
type ShipmentResponse struct {
	Territory string `json:"territory"`
	Sector    int    `json:"sector"`
	Forces    int    `json:"forces"`
	Elite     int    `json:"elite"`
	Advisors  bool   `json:"advisors,omitempty"`
}

// MovementResponse moves one stack on the board.
type MovementResponse struct {
	FromTerritory string `json:"from_territory"`
	FromSector    int    `json:"from_sector"`
	ToTerritory   string `json:"to_territory"`
	ToSector      int    `json:"to_sector"`
	Forces        int    `json:"forces"`
	Elite         int    `json:"elite"`
}

// BattleChoice is one fightable battle offered to an aggressor.
type BattleChoice struct {
	BattleID  string `json:"battle_id"`
	Territory string `json:"territory"`
	Sector    int    `json:"sector"`
	Defender  string `json:"defender"`
}

// AggressorTargetContext lists the aggressor's unresolved battles.
type AggressorTargetContext struct {
	Choices []BattleChoice `json:"choices"`
}

// AggressorTargetResponse picks the battle to fight next.
type AggressorTargetResponse struct {
	BattleID string `json:"battle_id"`
}

// VoiceContext identifies the battle the command applies to.
type VoiceContext struct {
	BattleID  string `json:"battle_id"`
	Territory string `json:"territory"`
	Opponent  string `json:"opponent"`
}

// VoiceResponse issues the command: forbid or require one card category.
type VoiceResponse struct {
	Category string `json:"category"`
	Forbid   bool   `json:"forbid"`
}

// PrescienceContext identifies the battle the question applies to.
type PrescienceContext struct {
	BattleID  string `json:"battle_id"`
	Territory string `json:"territory"`
	Opponent  string `json:"opponent"`
}

// PrescienceResponse asks one question about the opposing plan.
type PrescienceResponse struct {
	Query PrescienceQuery `json:"query"`
}

// PrescienceAnswerContext relays the question to the queried faction.
type PrescienceAnswerContext struct {
	BattleID string          `json:"battle_id"`
	By       string          `json:"by"`
	Query    PrescienceQuery `json:"query"`
}

// PrescienceAnswerResponse commits the answer. The revealed plan must match.
type PrescienceAnswerResponse struct {
	Answer string `json:"answer"`
}

// BattlePlanContext gives one side everything it may legally see before
// writing its plan.
type BattlePlanContext struct {
	BattleID      string            `json:"battle_id"`
	Territory     string            `json:"territory"`
	Sector        int               `json:"sector"`
	Opponent      string            `json:"opponent"`
	Leaders       []string          `json:"leaders"`
	ForcesPresent int               `json:"forces_present"`
	ElitePresent  int               `json:"elite_present"`
	Voice         *VoiceCommand     `json:"voice,omitempty"`
	Prescience    *PrescienceResult `json:"prescience,omitempty"`
}

// BattlePlanResponse is the submitted plan.
type BattlePlanResponse struct {
	LeaderID    string `json:"leader_id,omitempty"`
	CheapHero   string `json:"cheap_hero,omitempty"`
	NoLeader    bool   `json:"no_leader,omitempty"`
	Forces      int    `json:"forces"`
	Elite       int    `json:"elite"`
	SpiceDialed int    `json:"spice_dialed"`
	WeaponCard  string `json:"weapon_card,omitempty"`
	DefenseCard string `json:"defense_card,omitempty"`
}

// TraitorCallContext names the revealed opposing leader a traitor card could
// be played against.
type TraitorCallContext struct {
	BattleID       string `json:"battle_id"`
	Territory      string `json:"territory"`
	OpposingLeader string `json:"opposing_leader"`
}

// TraitorCallResponse confirms the call. Declining is expressed through
// Passed on the response envelope.
type TraitorCallResponse struct {
	LeaderID string `json:"leader_id"`
}

func factionNames(fs []board.Faction) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}
