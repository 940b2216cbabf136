package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardLookup(t *testing.T) {
	card, ok := Card("crysknife")
	require.True(t, ok)
	assert.Equal(t, CategoryWeapon, card.Category)
	assert.Equal(t, SubtypeProjectile, card.Subtype)

	_, ok = Card("hunter_seeker")
	assert.False(t, ok)
}

// TestPoisonBladeCounter pins the one weapon whose counter differs from its
// own subtype: the blade reads as poison but a projectile defense stops it.
func TestPoisonBladeCounter(t *testing.T) {
	card, ok := Card("poison_blade")
	require.True(t, ok)
	assert.Equal(t, SubtypePoison, card.Subtype)
	assert.Equal(t, SubtypeProjectile, card.CounteredBy)
}

func TestTreacheryDeckComposition(t *testing.T) {
	deck := TreacheryDeck()
	assert.Len(t, deck, len(treacheryCards))

	seen := make(map[string]bool)
	for _, id := range deck {
		require.False(t, seen[id], "duplicate card %s in deck", id)
		seen[id] = true
		_, ok := Card(id)
		assert.True(t, ok, "deck contains unknown card %s", id)
	}
	assert.True(t, seen[LasgunID])
	assert.True(t, seen[ShieldID])
	assert.True(t, seen[CheapHeroID])
}

func TestIsShield(t *testing.T) {
	assert.True(t, IsShield("shield"))
	assert.True(t, IsShield("shield_3"))
	assert.False(t, IsShield("snooper"))
	assert.False(t, IsShield(""))
}

func TestSpiceDeckTargetsBlowTerritories(t *testing.T) {
	m := StandardMap()
	for _, id := range SpiceDeck() {
		card, ok := Spice(id)
		require.True(t, ok)
		if card.ShaiHulud {
			continue
		}
		terr := m.Territory(card.TerritoryID)
		require.NotNil(t, terr, "spice card %s targets unknown territory", id)
		assert.True(t, terr.SpiceBlow, "spice card %s targets non-blow territory %s", id, card.TerritoryID)
		assert.True(t, terr.SpansSector(card.Sector),
			"spice card %s targets sector %d outside %s", id, card.Sector, card.TerritoryID)
	}
}
