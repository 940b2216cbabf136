package game

import (
	"testing"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshotState() *GameState {
	g := &GameState{
		GameID:      "checksum-game",
		Turn:        3,
		StormSector: 7,
		StormOrder:  []string{"ATREIDES", "HARKONNEN"},
		Factions:    make(map[board.Faction]*FactionState),
	}
	g.Factions[board.FactionAtreides] = &FactionState{
		Faction:  board.FactionAtreides,
		Spice:    10,
		Reserves: 8,
		Hand:     []string{"crysknife", "shield"},
		Leaders: map[string]*LeaderState{
			"thufir_hawat": {ID: "thufir_hawat", Owner: board.FactionAtreides, HeldBy: board.FactionAtreides},
		},
	}
	g.Factions[board.FactionHarkonnen] = &FactionState{
		Faction:  board.FactionHarkonnen,
		Spice:    6,
		Reserves: 5,
		Traitors: []string{"duncan_idaho"},
		Leaders: map[string]*LeaderState{
			"feyd_rautha": {ID: "feyd_rautha", Owner: board.FactionHarkonnen, HeldBy: board.FactionHarkonnen},
		},
	}
	g.AddForces(board.FactionAtreides, "arrakeen", 9, 10, 0, false)
	g.AddForces(board.FactionHarkonnen, "carthag", 10, 7, 2, false)
	g.AddSpice("hagga_basin", 12, 6)
	g.TreacheryDeck = []string{"chaumas", "snooper", "baliset"}
	g.SpiceDeck = []string{"blow_hagga_basin", "shai_hulud_1"}
	return g
}

func TestComputeChecksum(t *testing.T) {
	g := snapshotState()
	checksum, err := g.ComputeChecksum()
	require.NoError(t, err)
	assert.NotEmpty(t, checksum.Hash)
	assert.Equal(t, 1, checksum.Version)
	assert.NotEmpty(t, checksum.Timestamp)
}

// TestDeterministicChecksum verifies that identical states produce identical
// checksums regardless of map iteration order.
func TestDeterministicChecksum(t *testing.T) {
	checksums := make([]string, 10)
	for i := range checksums {
		checksum, err := snapshotState().ComputeChecksum()
		require.NoError(t, err)
		checksums[i] = checksum.Hash
	}
	for i := 1; i < len(checksums); i++ {
		assert.Equal(t, checksums[0], checksums[i])
	}
}

func TestChecksumDetectsChanges(t *testing.T) {
	g := snapshotState()
	before, err := g.ComputeChecksum()
	require.NoError(t, err)

	g.Factions[board.FactionAtreides].Spice++
	after, err := g.ComputeChecksum()
	require.NoError(t, err)
	assert.NotEqual(t, before.Hash, after.Hash, "spice change must change the checksum")

	ok, err := g.VerifyChecksum(after)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = g.VerifyChecksum(before)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestChecksumIgnoresLog verifies the event log does not participate in the
// fingerprint; its timestamps would make every checksum unique.
func TestChecksumIgnoresLog(t *testing.T) {
	g := snapshotState()
	before, err := g.ComputeChecksum()
	require.NoError(t, err)

	g2 := snapshotState()
	g2.Log = append(g2.Log, rules.NewEvent(rules.EventStormMoved, "storm advanced").WithAmount(3))
	after, err := g2.ComputeChecksum()
	require.NoError(t, err)
	assert.Equal(t, before.Hash, after.Hash)
}

func TestSerializeRoundTrip(t *testing.T) {
	g := snapshotState()
	data, err := g.SerializeToBytes()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	restored, err := DeserializeFromBytes(data)
	require.NoError(t, err)

	assert.Equal(t, g.GameID, restored.GameID)
	assert.Equal(t, g.Turn, restored.Turn)
	assert.Equal(t, g.StormSector, restored.StormSector)
	assert.Equal(t, g.Factions[board.FactionAtreides].Spice, restored.Factions[board.FactionAtreides].Spice)
	assert.Len(t, restored.Stacks, len(g.Stacks))

	// The canonical fingerprints must survive the round trip.
	before, err := g.ComputeChecksum()
	require.NoError(t, err)
	after, err := restored.ComputeChecksum()
	require.NoError(t, err)
	assert.Equal(t, before.Hash, after.Hash)
}

func TestDeserializeGarbage(t *testing.T) {
	_, err := DeserializeFromBytes([]byte("not a gob stream"))
	assert.Error(t, err)
}
