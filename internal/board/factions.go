package board

import "fmt"

// Faction identifies one of the six playable factions.
type Faction string

const (
	FactionAtreides     Faction = "ATREIDES"
	FactionHarkonnen    Faction = "HARKONNEN"
	FactionEmperor      Faction = "EMPEROR"
	FactionGuild        Faction = "GUILD"
	FactionFremen       Faction = "FREMEN"
	FactionBeneGesserit Faction = "BENE_GESSERIT"
)

// AllFactions lists every faction in rulebook order.
var AllFactions = []Faction{
	FactionAtreides,
	FactionHarkonnen,
	FactionEmperor,
	FactionGuild,
	FactionFremen,
	FactionBeneGesserit,
}

// CapabilityFlags is the single auditable list of faction-specific rule
// exceptions. Validation and resolution code consults these flags instead of
// branching on faction identity.
type CapabilityFlags struct {
	// Prescience lets the faction inspect one element of the opponent's
	// battle plan before plans are locked in.
	Prescience bool
	// Voice lets the faction (or its ally) compel the opponent to play or
	// not play a category of card in the coming battle plan.
	Voice bool
	// Advisors gives the faction a non-combatant token state that ignores
	// occupancy limits and coexists with other factions.
	Advisors bool
	// StormMovement exempts the faction from source/destination
	// sector-in-storm checks when moving forces.
	StormMovement bool
	// ForcesFullStrength makes dialed forces always count at full strength
	// regardless of spice support under the advanced rules.
	ForcesFullStrength bool
	// FreePlacementShipping replaces the normal shipment rule with free
	// placement into GreatFlatID or its two-hop neighborhood.
	FreePlacementShipping bool
	// OutOfOrderTurn means the faction holds no fixed slot in storm order;
	// it elects each round whether to act now or wait.
	OutOfOrderTurn bool
	// ExtraTraitors lets the faction keep all four dealt traitor cards.
	ExtraTraitors bool
	// CapturesLeaders lets the faction capture a surviving enemy leader
	// after winning a battle.
	CapturesLeaders bool
	// BidProceeds routes spice paid for treachery cards to this faction
	// instead of the bank, except for its own purchases.
	BidProceeds bool
	// StormResilient halves storm losses (rounded up) instead of total
	// destruction and grants immunity to sandworm devouring.
	StormResilient bool
}

// LeaderDef is a static leader definition with battle strength.
type LeaderDef struct {
	ID       string
	Name     string
	Strength int
}

// FactionConfig is the static configuration for one faction.
type FactionConfig struct {
	Faction       Faction
	StartingSpice int
	TotalForces   int
	// StartingForces maps territory ID to the force count placed at setup.
	// The remainder of TotalForces begins in off-board reserves.
	StartingForces map[string]int
	// StartingSector is the sector used for initial placement in
	// multi-sector territories.
	StartingSector int
	FreeRevivals   int
	Leaders        []LeaderDef
	Flags          CapabilityFlags
}

var factionConfigs = map[Faction]FactionConfig{
	FactionAtreides: {
		Faction:        FactionAtreides,
		StartingSpice:  10,
		TotalForces:    20,
		StartingForces: map[string]int{"arrakeen": 10},
		StartingSector: 9,
		FreeRevivals:   2,
		Leaders: []LeaderDef{
			{ID: "thufir_hawat", Name: "Thufir Hawat", Strength: 5},
			{ID: "lady_jessica", Name: "Lady Jessica", Strength: 5},
			{ID: "gurney_halleck", Name: "Gurney Halleck", Strength: 4},
			{ID: "duncan_idaho", Name: "Duncan Idaho", Strength: 2},
			{ID: "dr_yueh", Name: "Dr. Wellington Yueh", Strength: 1},
		},
		Flags: CapabilityFlags{Prescience: true},
	},
	FactionHarkonnen: {
		Faction:        FactionHarkonnen,
		StartingSpice:  10,
		TotalForces:    20,
		StartingForces: map[string]int{"carthag": 10},
		StartingSector: 10,
		FreeRevivals:   2,
		Leaders: []LeaderDef{
			{ID: "feyd_rautha", Name: "Feyd-Rautha", Strength: 6},
			{ID: "beast_rabban", Name: "Beast Rabban", Strength: 4},
			{ID: "piter_de_vries", Name: "Piter de Vries", Strength: 3},
			{ID: "captain_nefud", Name: "Captain Iakin Nefud", Strength: 2},
			{ID: "umman_kudu", Name: "Umman Kudu", Strength: 1},
		},
		Flags: CapabilityFlags{ExtraTraitors: true, CapturesLeaders: true},
	},
	FactionEmperor: {
		Faction:       FactionEmperor,
		StartingSpice: 10,
		TotalForces:   20,
		FreeRevivals:  1,
		Leaders: []LeaderDef{
			{ID: "hasimir_fenring", Name: "Hasimir Fenring", Strength: 6},
			{ID: "captain_aramsham", Name: "Captain Aramsham", Strength: 5},
			{ID: "caid", Name: "Caid", Strength: 3},
			{ID: "burseg", Name: "Burseg", Strength: 3},
			{ID: "bashar", Name: "Bashar", Strength: 2},
		},
		Flags: CapabilityFlags{BidProceeds: true},
	},
	FactionGuild: {
		Faction:        FactionGuild,
		StartingSpice:  5,
		TotalForces:    20,
		StartingForces: map[string]int{"tueks_sietch": 5},
		StartingSector: 4,
		FreeRevivals:   1,
		Leaders: []LeaderDef{
			{ID: "staban_tuek", Name: "Staban Tuek", Strength: 5},
			{ID: "master_bewt", Name: "Master Bewt", Strength: 3},
			{ID: "esmar_tuek", Name: "Esmar Tuek", Strength: 3},
			{ID: "soo_soo_sook", Name: "Soo-Soo Sook", Strength: 2},
			{ID: "guild_rep", Name: "Guild Rep", Strength: 1},
		},
		Flags: CapabilityFlags{OutOfOrderTurn: true},
	},
	FactionFremen: {
		Faction:        FactionFremen,
		StartingSpice:  3,
		TotalForces:    20,
		StartingForces: map[string]int{"sietch_tabr": 10},
		StartingSector: 13,
		FreeRevivals:   3,
		Leaders: []LeaderDef{
			{ID: "stilgar", Name: "Stilgar", Strength: 7},
			{ID: "chani", Name: "Chani", Strength: 6},
			{ID: "otheym", Name: "Otheym", Strength: 5},
			{ID: "shadout_mapes", Name: "Shadout Mapes", Strength: 3},
			{ID: "jamis", Name: "Jamis", Strength: 2},
		},
		Flags: CapabilityFlags{
			StormMovement:         true,
			ForcesFullStrength:    true,
			FreePlacementShipping: true,
			StormResilient:        true,
		},
	},
	FactionBeneGesserit: {
		Faction:        FactionBeneGesserit,
		StartingSpice:  5,
		TotalForces:    20,
		StartingForces: map[string]int{"polar_sink": 1},
		FreeRevivals:   1,
		Leaders: []LeaderDef{
			{ID: "alia", Name: "Alia", Strength: 5},
			{ID: "margot_fenring", Name: "Margot Lady Fenring", Strength: 5},
			{ID: "princess_irulan", Name: "Princess Irulan", Strength: 5},
			{ID: "mother_ramallo", Name: "Mother Ramallo", Strength: 5},
			{ID: "wanna_marcus", Name: "Wanna Marcus", Strength: 5},
		},
		Flags: CapabilityFlags{Voice: true, Advisors: true},
	},
}

// Config returns the static configuration for a faction.
func Config(f Faction) (FactionConfig, error) {
	cfg, ok := factionConfigs[f]
	if !ok {
		return FactionConfig{}, fmt.Errorf("unknown faction %q", f)
	}
	return cfg, nil
}

// Flags returns the capability flags for a faction. Unknown factions get the
// zero value, which enables no exceptions.
func Flags(f Faction) CapabilityFlags {
	return factionConfigs[f].Flags
}

// Leader returns the static leader definition with the given ID.
func Leader(id string) (LeaderDef, Faction, bool) {
	for f, cfg := range factionConfigs {
		for _, l := range cfg.Leaders {
			if l.ID == id {
				return l, f, true
			}
		}
	}
	return LeaderDef{}, "", false
}
