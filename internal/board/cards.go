package board

import "fmt"

// CardCategory classifies a treachery card for battle-plan validation.
type CardCategory int

const (
	CategoryWeapon CardCategory = iota
	CategoryDefense
	CategorySpecial
	CategoryWorthless
	CategoryUtility
)

var cardCategoryNames = map[CardCategory]string{
	CategoryWeapon:    "WEAPON",
	CategoryDefense:   "DEFENSE",
	CategorySpecial:   "SPECIAL",
	CategoryWorthless: "WORTHLESS",
	CategoryUtility:   "UTILITY",
}

func (c CardCategory) String() string {
	if name, ok := cardCategoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CATEGORY_%d", int(c))
}

// CardSubtype is the weapon/defense interaction class.
type CardSubtype int

const (
	SubtypeNone CardSubtype = iota
	SubtypePoison
	SubtypeProjectile
	SubtypeSpecial
)

var cardSubtypeNames = map[CardSubtype]string{
	SubtypeNone:       "NONE",
	SubtypePoison:     "POISON",
	SubtypeProjectile: "PROJECTILE",
	SubtypeSpecial:    "SPECIAL",
}

func (s CardSubtype) String() string {
	if name, ok := cardSubtypeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SUBTYPE_%d", int(s))
}

// TreacheryCard is a static card definition.
//
// CounteredBy is the defense subtype that stops the card when used as a
// weapon. For most weapons it equals the weapon's own subtype; Poison Blade
// is the named exception (poison by flavor, stopped by a projectile defense).
type TreacheryCard struct {
	ID          string
	Name        string
	Category    CardCategory
	Subtype     CardSubtype
	CounteredBy CardSubtype
}

// LasgunID is the special weapon that triggers the explosion outcome.
const LasgunID = "lasgun"

// ShieldID is the special-class defense that counters the lasgun.
const ShieldID = "shield"

// CheapHeroID is the one-use leader substitute playable instead of a leader.
const CheapHeroID = "cheap_hero"

var treacheryCards = []TreacheryCard{
	// Poison weapons
	{ID: "chaumas", Name: "Chaumas", Category: CategoryWeapon, Subtype: SubtypePoison, CounteredBy: SubtypePoison},
	{ID: "chaumurky", Name: "Chaumurky", Category: CategoryWeapon, Subtype: SubtypePoison, CounteredBy: SubtypePoison},
	{ID: "ellaca_drug", Name: "Ellaca Drug", Category: CategoryWeapon, Subtype: SubtypePoison, CounteredBy: SubtypePoison},
	{ID: "gom_jabbar", Name: "Gom Jabbar", Category: CategoryWeapon, Subtype: SubtypePoison, CounteredBy: SubtypePoison},
	// Poison by flavor text, but a blade: a shield stops it.
	{ID: "poison_blade", Name: "Poison Blade", Category: CategoryWeapon, Subtype: SubtypePoison, CounteredBy: SubtypeProjectile},

	// Projectile weapons
	{ID: "crysknife", Name: "Crysknife", Category: CategoryWeapon, Subtype: SubtypeProjectile, CounteredBy: SubtypeProjectile},
	{ID: "maula_pistol", Name: "Maula Pistol", Category: CategoryWeapon, Subtype: SubtypeProjectile, CounteredBy: SubtypeProjectile},
	{ID: "slip_tip", Name: "Slip Tip", Category: CategoryWeapon, Subtype: SubtypeProjectile, CounteredBy: SubtypeProjectile},
	{ID: "stunner", Name: "Stunner", Category: CategoryWeapon, Subtype: SubtypeProjectile, CounteredBy: SubtypeProjectile},

	// Special weapon
	{ID: LasgunID, Name: "Lasgun", Category: CategoryWeapon, Subtype: SubtypeSpecial, CounteredBy: SubtypeSpecial},

	// Defenses
	{ID: ShieldID, Name: "Shield", Category: CategoryDefense, Subtype: SubtypeSpecial},
	{ID: "shield_2", Name: "Shield", Category: CategoryDefense, Subtype: SubtypeSpecial},
	{ID: "shield_3", Name: "Shield", Category: CategoryDefense, Subtype: SubtypeSpecial},
	{ID: "shield_4", Name: "Shield", Category: CategoryDefense, Subtype: SubtypeSpecial},
	{ID: "snooper", Name: "Snooper", Category: CategoryDefense, Subtype: SubtypePoison},
	{ID: "snooper_2", Name: "Snooper", Category: CategoryDefense, Subtype: SubtypePoison},
	{ID: "snooper_3", Name: "Snooper", Category: CategoryDefense, Subtype: SubtypePoison},
	{ID: "snooper_4", Name: "Snooper", Category: CategoryDefense, Subtype: SubtypePoison},

	// Specials and utilities
	{ID: CheapHeroID, Name: "Cheap Hero", Category: CategorySpecial},
	{ID: "cheap_hero_2", Name: "Cheap Hero", Category: CategorySpecial},
	{ID: "cheap_heroine", Name: "Cheap Heroine", Category: CategorySpecial},
	{ID: "karama", Name: "Karama", Category: CategoryUtility},
	{ID: "karama_2", Name: "Karama", Category: CategoryUtility},
	{ID: "truthtrance", Name: "Truthtrance", Category: CategoryUtility},
	{ID: "truthtrance_2", Name: "Truthtrance", Category: CategoryUtility},
	{ID: "weather_control", Name: "Weather Control", Category: CategoryUtility},
	{ID: "family_atomics", Name: "Family Atomics", Category: CategoryUtility},
	{ID: "hajr", Name: "Hajr", Category: CategoryUtility},
	{ID: "tleilaxu_ghola", Name: "Tleilaxu Ghola", Category: CategoryUtility},

	// Worthless
	{ID: "baliset", Name: "Baliset", Category: CategoryWorthless},
	{ID: "jubba_cloak", Name: "Jubba Cloak", Category: CategoryWorthless},
	{ID: "kulon", Name: "Kulon", Category: CategoryWorthless},
	{ID: "la_la_la", Name: "La, La, La", Category: CategoryWorthless},
	{ID: "trip_to_gamont", Name: "Trip To Gamont", Category: CategoryWorthless},
}

var cardsByID = func() map[string]TreacheryCard {
	m := make(map[string]TreacheryCard, len(treacheryCards))
	for _, c := range treacheryCards {
		if _, dup := m[c.ID]; dup {
			panic(fmt.Sprintf("duplicate treachery card id %q", c.ID))
		}
		m[c.ID] = c
	}
	return m
}()

// Card returns the treachery card with the given ID.
func Card(id string) (TreacheryCard, bool) {
	c, ok := cardsByID[id]
	return c, ok
}

// TreacheryDeck returns the card IDs of a fresh, unshuffled treachery deck.
func TreacheryDeck() []string {
	ids := make([]string, 0, len(treacheryCards))
	for _, c := range treacheryCards {
		ids = append(ids, c.ID)
	}
	return ids
}

// IsShield reports whether a card is a special-class defense (stops a lasgun
// and projectile weapons).
func IsShield(id string) bool {
	c, ok := cardsByID[id]
	return ok && c.Category == CategoryDefense && c.Subtype == SubtypeSpecial
}

// SpiceCard is one entry in the spice deck: a territory blow with a yield.
type SpiceCard struct {
	ID          string
	TerritoryID string
	Sector      int
	Yield       int
	ShaiHulud   bool
}

var spiceCards = []SpiceCard{
	{ID: "blow_cielago_north", TerritoryID: "cielago_north", Sector: 1, Yield: 8},
	{ID: "blow_cielago_south", TerritoryID: "cielago_south", Sector: 1, Yield: 12},
	{ID: "blow_red_chasm", TerritoryID: "red_chasm", Sector: 6, Yield: 8},
	{ID: "blow_south_mesa", TerritoryID: "south_mesa", Sector: 7, Yield: 10},
	{ID: "blow_sihaya_ridge", TerritoryID: "sihaya_ridge", Sector: 8, Yield: 6},
	{ID: "blow_old_gap", TerritoryID: "old_gap", Sector: 9, Yield: 6},
	{ID: "blow_broken_land", TerritoryID: "broken_land", Sector: 11, Yield: 8},
	{ID: "blow_hagga_basin", TerritoryID: "hagga_basin", Sector: 12, Yield: 6},
	{ID: "blow_rock_outcroppings", TerritoryID: "rock_outcroppings", Sector: 13, Yield: 6},
	{ID: "blow_funeral_plain", TerritoryID: "funeral_plain", Sector: 14, Yield: 6},
	{ID: "blow_the_minor_erg", TerritoryID: "the_minor_erg", Sector: 7, Yield: 8},
	{ID: "blow_habbanya_erg", TerritoryID: "habbanya_erg", Sector: 15, Yield: 8},
	{ID: "blow_habbanya_ridge_flat", TerritoryID: "habbanya_ridge_flat", Sector: 17, Yield: 10},
	{ID: "blow_wind_pass_north", TerritoryID: "wind_pass_north", Sector: 16, Yield: 6},
	{ID: "shai_hulud_1", ShaiHulud: true},
	{ID: "shai_hulud_2", ShaiHulud: true},
	{ID: "shai_hulud_3", ShaiHulud: true},
	{ID: "shai_hulud_4", ShaiHulud: true},
	{ID: "shai_hulud_5", ShaiHulud: true},
	{ID: "shai_hulud_6", ShaiHulud: true},
}

var spiceCardsByID = func() map[string]SpiceCard {
	m := make(map[string]SpiceCard, len(spiceCards))
	for _, c := range spiceCards {
		m[c.ID] = c
	}
	return m
}()

// Spice returns the spice card with the given ID.
func Spice(id string) (SpiceCard, bool) {
	c, ok := spiceCardsByID[id]
	return c, ok
}

// SpiceDeck returns the card IDs of a fresh, unshuffled spice deck.
func SpiceDeck() []string {
	ids := make([]string, 0, len(spiceCards))
	for _, c := range spiceCards {
		ids = append(ids, c.ID)
	}
	return ids
}
