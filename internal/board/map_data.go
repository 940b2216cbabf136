package board

// Standard board data. Territory IDs are stable and referenced by game state,
// spice cards, and faction starting positions. Sector numbering follows storm
// travel order (ascending, wrapping at 18).

// GreatFlatID anchors the Fremen free-placement shipment rule: Fremen reserves
// may be placed in this territory or anywhere within two territories of it.
const GreatFlatID = "the_great_flat"

var standardTerritories = []Territory{
	// Strongholds
	{ID: "arrakeen", Name: "Arrakeen", Type: Stronghold, Sectors: []int{9}, StormProtected: true},
	{ID: "carthag", Name: "Carthag", Type: Stronghold, Sectors: []int{10}, StormProtected: true},
	{ID: "sietch_tabr", Name: "Sietch Tabr", Type: Stronghold, Sectors: []int{13}, StormProtected: true},
	{ID: "habbanya_sietch", Name: "Habbanya Sietch", Type: Stronghold, Sectors: []int{16}, StormProtected: true},
	{ID: "tueks_sietch", Name: "Tuek's Sietch", Type: Stronghold, Sectors: []int{4}, StormProtected: true},

	// The polar sink spans no sectors and is therefore outside the storm track.
	{ID: "polar_sink", Name: "Polar Sink", Type: PolarSink, StormProtected: true},

	// Rock
	{ID: "false_wall_south", Name: "False Wall South", Type: Rock, Sectors: []int{3, 4}, StormProtected: true},
	{ID: "false_wall_east", Name: "False Wall East", Type: Rock, Sectors: []int{4, 5, 6, 7, 8}, StormProtected: true},
	{ID: "pasty_mesa", Name: "Pasty Mesa", Type: Rock, Sectors: []int{4, 5, 6, 7}, StormProtected: true},
	{ID: "shield_wall", Name: "Shield Wall", Type: Rock, Sectors: []int{7, 8}, StormProtected: true},
	{ID: "rim_wall_west", Name: "Rim Wall West", Type: Rock, Sectors: []int{8}, StormProtected: true},
	{ID: "gara_kulon", Name: "Gara Kulon", Type: Rock, Sectors: []int{7}, StormProtected: true},
	{ID: "plastic_basin", Name: "Plastic Basin", Type: Rock, Sectors: []int{11, 12, 13}, StormProtected: true},
	{ID: "rock_outcroppings", Name: "Rock Outcroppings", Type: Rock, Sectors: []int{12, 13}, SpiceBlow: true, StormProtected: true},
	{ID: "false_wall_west", Name: "False Wall West", Type: Rock, Sectors: []int{15, 16, 17}, StormProtected: true},

	// Sand
	{ID: "cielago_north", Name: "Cielago North", Type: Sand, Sectors: []int{0, 1, 2}, SpiceBlow: true},
	{ID: "cielago_depression", Name: "Cielago Depression", Type: Sand, Sectors: []int{0, 1, 2}},
	{ID: "meridian", Name: "Meridian", Type: Sand, Sectors: []int{0, 1}},
	{ID: "cielago_south", Name: "Cielago South", Type: Sand, Sectors: []int{1, 2}, SpiceBlow: true},
	{ID: "cielago_east", Name: "Cielago East", Type: Sand, Sectors: []int{2, 3}},
	{ID: "harg_pass", Name: "Harg Pass", Type: Sand, Sectors: []int{3, 4}},
	{ID: "the_minor_erg", Name: "The Minor Erg", Type: Sand, Sectors: []int{4, 5, 6, 7}, SpiceBlow: true},
	{ID: "red_chasm", Name: "Red Chasm", Type: Sand, Sectors: []int{6}, SpiceBlow: true},
	{ID: "south_mesa", Name: "South Mesa", Type: Sand, Sectors: []int{6, 7, 8}, SpiceBlow: true},
	{ID: "sihaya_ridge", Name: "Sihaya Ridge", Type: Sand, Sectors: []int{8}, SpiceBlow: true},
	{ID: "hole_in_the_rock", Name: "Hole In The Rock", Type: Sand, Sectors: []int{8}},
	{ID: "imperial_basin", Name: "Imperial Basin", Type: Sand, Sectors: []int{8, 9, 10}},
	{ID: "old_gap", Name: "Old Gap", Type: Sand, Sectors: []int{8, 9, 10}, SpiceBlow: true},
	{ID: "tsimpo", Name: "Tsimpo", Type: Sand, Sectors: []int{10, 11}},
	{ID: "broken_land", Name: "Broken Land", Type: Sand, Sectors: []int{10, 11}, SpiceBlow: true},
	{ID: "arsunt", Name: "Arsunt", Type: Sand, Sectors: []int{10, 11}},
	{ID: "hagga_basin", Name: "Hagga Basin", Type: Sand, Sectors: []int{11, 12}, SpiceBlow: true},
	{ID: "wind_pass", Name: "Wind Pass", Type: Sand, Sectors: []int{13, 14, 15, 16}},
	{ID: "bight_of_the_cliff", Name: "Bight Of The Cliff", Type: Sand, Sectors: []int{13, 14}},
	{ID: "funeral_plain", Name: "Funeral Plain", Type: Sand, Sectors: []int{14}, SpiceBlow: true},
	{ID: GreatFlatID, Name: "The Great Flat", Type: Sand, Sectors: []int{14}},
	{ID: "the_greater_flat", Name: "The Greater Flat", Type: Sand, Sectors: []int{15}},
	{ID: "habbanya_erg", Name: "Habbanya Erg", Type: Sand, Sectors: []int{15, 16}, SpiceBlow: true},
	{ID: "habbanya_ridge_flat", Name: "Habbanya Ridge Flat", Type: Sand, Sectors: []int{16, 17}, SpiceBlow: true},
	{ID: "wind_pass_north", Name: "Wind Pass North", Type: Sand, Sectors: []int{16, 17}, SpiceBlow: true},
	{ID: "cielago_west", Name: "Cielago West", Type: Sand, Sectors: []int{17, 0}},
}

var standardAdjacency = [][2]string{
	{"polar_sink", "cielago_north"},
	{"polar_sink", "cielago_west"},
	{"polar_sink", "wind_pass"},
	{"polar_sink", "wind_pass_north"},
	{"polar_sink", "arsunt"},
	{"polar_sink", "imperial_basin"},
	{"polar_sink", "old_gap"},
	{"polar_sink", "harg_pass"},
	{"polar_sink", "false_wall_east"},
	{"polar_sink", "hagga_basin"},

	{"cielago_north", "cielago_depression"},
	{"cielago_north", "cielago_west"},
	{"cielago_north", "cielago_east"},
	{"cielago_north", "harg_pass"},
	{"cielago_north", "false_wall_south"},
	{"cielago_depression", "meridian"},
	{"cielago_depression", "cielago_south"},
	{"cielago_depression", "cielago_east"},
	{"cielago_depression", "cielago_west"},
	{"meridian", "cielago_south"},
	{"meridian", "cielago_west"},
	{"meridian", "habbanya_ridge_flat"},
	{"cielago_south", "cielago_east"},
	{"cielago_east", "south_mesa"},
	{"cielago_east", "false_wall_south"},

	{"harg_pass", "false_wall_south"},
	{"harg_pass", "false_wall_east"},
	{"harg_pass", "the_minor_erg"},
	{"false_wall_south", "pasty_mesa"},
	{"false_wall_south", "tueks_sietch"},
	{"tueks_sietch", "pasty_mesa"},
	{"tueks_sietch", "south_mesa"},
	{"tueks_sietch", "red_chasm"},
	{"the_minor_erg", "false_wall_east"},
	{"the_minor_erg", "pasty_mesa"},
	{"the_minor_erg", "red_chasm"},
	{"pasty_mesa", "red_chasm"},
	{"pasty_mesa", "south_mesa"},
	{"pasty_mesa", "shield_wall"},
	{"pasty_mesa", "gara_kulon"},
	{"red_chasm", "south_mesa"},
	{"sihaya_ridge", "shield_wall"},
	{"sihaya_ridge", "gara_kulon"},
	{"sihaya_ridge", "hole_in_the_rock"},
	{"gara_kulon", "shield_wall"},

	{"false_wall_east", "shield_wall"},
	{"false_wall_east", "imperial_basin"},
	{"shield_wall", "hole_in_the_rock"},
	{"shield_wall", "imperial_basin"},
	{"hole_in_the_rock", "rim_wall_west"},
	{"rim_wall_west", "imperial_basin"},
	{"rim_wall_west", "arrakeen"},
	{"imperial_basin", "arrakeen"},
	{"imperial_basin", "old_gap"},
	{"imperial_basin", "carthag"},
	{"imperial_basin", "tsimpo"},
	{"imperial_basin", "arsunt"},
	{"arrakeen", "old_gap"},
	{"old_gap", "broken_land"},
	{"old_gap", "sihaya_ridge"},
	{"carthag", "tsimpo"},
	{"carthag", "hagga_basin"},
	{"carthag", "broken_land"},
	{"tsimpo", "broken_land"},
	{"tsimpo", "plastic_basin"},
	{"tsimpo", "hagga_basin"},
	{"broken_land", "rock_outcroppings"},
	{"arsunt", "hagga_basin"},
	{"hagga_basin", "plastic_basin"},
	{"hagga_basin", "wind_pass"},
	{"plastic_basin", "rock_outcroppings"},
	{"plastic_basin", "bight_of_the_cliff"},
	{"plastic_basin", "sietch_tabr"},
	{"plastic_basin", "wind_pass"},
	{"rock_outcroppings", "sietch_tabr"},
	{"rock_outcroppings", "bight_of_the_cliff"},
	{"sietch_tabr", "bight_of_the_cliff"},
	{"bight_of_the_cliff", "funeral_plain"},
	{"funeral_plain", "the_great_flat"},
	{"the_great_flat", "the_greater_flat"},
	{"the_great_flat", "wind_pass"},
	{"the_great_flat", "bight_of_the_cliff"},
	{"the_greater_flat", "habbanya_erg"},
	{"the_greater_flat", "false_wall_west"},
	{"habbanya_erg", "false_wall_west"},
	{"habbanya_erg", "habbanya_ridge_flat"},
	{"habbanya_ridge_flat", "habbanya_sietch"},
	{"habbanya_ridge_flat", "false_wall_west"},
	{"habbanya_ridge_flat", "cielago_west"},
	{"habbanya_sietch", "false_wall_west"},
	{"false_wall_west", "wind_pass"},
	{"false_wall_west", "cielago_west"},
	{"wind_pass", "wind_pass_north"},
	{"wind_pass_north", "cielago_west"},
}

var standardMap *GameMap

func init() {
	m, err := buildMap(standardTerritories, standardAdjacency)
	if err != nil {
		panic(err) // static data bug, fail at startup
	}
	standardMap = m
}

// StandardMap returns the shared immutable standard board.
func StandardMap() *GameMap {
	return standardMap
}
