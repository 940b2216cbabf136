package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStandardMapIntegrity verifies the static territory graph is well formed:
// symmetric adjacency, sectors in range, and exactly one polar territory.
func TestStandardMapIntegrity(t *testing.T) {
	m := StandardMap()
	territories := m.Territories()
	require.NotEmpty(t, territories)

	polar := 0
	for _, terr := range territories {
		for _, s := range terr.Sectors {
			assert.GreaterOrEqual(t, s, 0, "territory %s", terr.ID)
			assert.Less(t, s, SectorCount, "territory %s", terr.ID)
		}
		if terr.Type == PolarSink {
			polar++
			assert.Empty(t, terr.Sectors, "polar territory must span no sectors")
		}
		for _, adj := range terr.Adjacent {
			other := m.Territory(adj)
			require.NotNil(t, other, "territory %s adjacent to unknown %s", terr.ID, adj)
			assert.Contains(t, other.Adjacent, terr.ID,
				"adjacency %s -> %s is not symmetric", terr.ID, adj)
		}
	}
	assert.Equal(t, 1, polar)
}

func TestStandardMapStrongholds(t *testing.T) {
	m := StandardMap()
	strongholds := 0
	for _, terr := range m.Territories() {
		if terr.Type == Stronghold {
			strongholds++
			assert.True(t, terr.StormProtected, "stronghold %s must be storm protected", terr.ID)
		}
	}
	assert.Equal(t, 5, strongholds)
}

func TestSectorDistance(t *testing.T) {
	tests := []struct {
		from, to, want int
	}{
		{0, 0, 0},
		{0, 1, 1},
		{17, 0, 1},
		{5, 3, 16},
		{0, 17, 17},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SectorDistance(tt.from, tt.to),
			"SectorDistance(%d, %d)", tt.from, tt.to)
	}
}

func TestNormalizeSector(t *testing.T) {
	assert.Equal(t, 0, NormalizeSector(18))
	assert.Equal(t, 17, NormalizeSector(-1))
	assert.Equal(t, 5, NormalizeSector(23))
	assert.Equal(t, 3, NormalizeSector(3))
}

func TestSpansSector(t *testing.T) {
	m := StandardMap()
	arrakeen := m.Territory("arrakeen")
	require.NotNil(t, arrakeen)
	assert.True(t, arrakeen.SpansSector(9))
	assert.False(t, arrakeen.SpansSector(10))

	sink := m.Territory("polar_sink")
	require.NotNil(t, sink)
	assert.False(t, sink.SpansSector(0))
}

func TestFactionConfigs(t *testing.T) {
	for _, f := range AllFactions {
		cfg, err := Config(f)
		require.NoError(t, err)
		assert.Equal(t, f, cfg.Faction)
		assert.Len(t, cfg.Leaders, 5, "faction %s", f)
		assert.Equal(t, 20, cfg.TotalForces, "faction %s", f)

		placed := 0
		for terr, n := range cfg.StartingForces {
			assert.NotNil(t, StandardMap().Territory(terr),
				"faction %s starts in unknown territory %s", f, terr)
			placed += n
		}
		assert.LessOrEqual(t, placed, cfg.TotalForces, "faction %s", f)
	}

	_, err := Config("ZENSUNNI")
	assert.Error(t, err)
}

func TestFlagsUnknownFaction(t *testing.T) {
	assert.Equal(t, CapabilityFlags{}, Flags("ZENSUNNI"))
}

func TestLeaderLookup(t *testing.T) {
	def, owner, ok := Leader("stilgar")
	require.True(t, ok)
	assert.Equal(t, FactionFremen, owner)
	assert.Equal(t, 7, def.Strength)

	_, _, ok = Leader("paul_atreides")
	assert.False(t, ok)
}

func TestLeaderIDsUnique(t *testing.T) {
	seen := make(map[string]Faction)
	for _, f := range AllFactions {
		cfg, err := Config(f)
		require.NoError(t, err)
		for _, l := range cfg.Leaders {
			if prev, dup := seen[l.ID]; dup {
				t.Fatalf("leader %s defined for both %s and %s", l.ID, prev, f)
			}
			seen[l.ID] = f
		}
	}
}
