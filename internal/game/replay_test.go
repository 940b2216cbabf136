package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordedReplay(t *testing.T, turns int) *Replay {
	t.Helper()
	replay := NewReplay("replay-game")
	g := snapshotState()
	g.GameID = "replay-game"
	for i := 0; i < turns; i++ {
		g.Turn = i + 1
		replay.Record(g)
	}
	return replay
}

func TestReplayRecordClones(t *testing.T) {
	replay := NewReplay("replay-game")
	g := snapshotState()
	replay.Record(g)

	// Mutating the source after recording must not alter the snapshot.
	g.Factions[board.FactionAtreides].Spice = 999
	g.Turn = 42

	snapshot := replay.StateAt(0)
	require.NotNil(t, snapshot)
	assert.Equal(t, 3, snapshot.Turn)
	assert.Equal(t, 10, snapshot.Factions[board.FactionAtreides].Spice)
}

func TestReplayNavigation(t *testing.T) {
	replay := recordedReplay(t, 3)
	assert.Equal(t, 3, replay.Size())

	replay.Start()
	assert.Equal(t, 1, replay.Next().Turn)
	assert.Equal(t, 2, replay.Next().Turn)
	assert.Equal(t, 3, replay.Next().Turn)
	assert.Nil(t, replay.Next(), "past the final snapshot")

	assert.Equal(t, 3, replay.Previous().Turn)
	assert.Equal(t, 2, replay.Previous().Turn)
	assert.Equal(t, 1, replay.Previous().Turn)
	assert.Nil(t, replay.Previous(), "before the first snapshot")
}

func TestReplaySkip(t *testing.T) {
	replay := recordedReplay(t, 5)
	replay.Start()

	assert.Equal(t, 3, replay.Skip(2).Turn)
	assert.Equal(t, 1, replay.Skip(-2).Turn)

	// Skipping past either end clamps to the nearest snapshot.
	assert.Equal(t, 5, replay.Skip(100).Turn)
	assert.Equal(t, 1, replay.Skip(-100).Turn)
}

func TestReplayStateAtBounds(t *testing.T) {
	replay := recordedReplay(t, 2)
	assert.NotNil(t, replay.StateAt(0))
	assert.NotNil(t, replay.StateAt(1))
	assert.Nil(t, replay.StateAt(-1))
	assert.Nil(t, replay.StateAt(2))
}

func TestReplaySaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	replay := recordedReplay(t, 4)
	require.NoError(t, replay.SaveToFile(dir))

	path := filepath.Join(dir, "replay-game.replay")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	loaded, err := LoadReplayFromFile(dir, "replay-game")
	require.NoError(t, err)
	require.Equal(t, replay.Size(), loaded.Size())
	assert.Equal(t, "replay-game", loaded.GameID)

	for i := 0; i < replay.Size(); i++ {
		want, err := replay.StateAt(i).ComputeChecksum()
		require.NoError(t, err)
		got, err := loaded.StateAt(i).ComputeChecksum()
		require.NoError(t, err)
		assert.Equal(t, want.Hash, got.Hash, "snapshot %d", i)
	}
}

func TestLoadReplayMissingFile(t *testing.T) {
	_, err := LoadReplayFromFile(t.TempDir(), "no-such-game")
	assert.Error(t, err)
}
