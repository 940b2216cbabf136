package game_test

import (
	"encoding/json"
	"testing"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game"
	"github.com/landsraad/dune-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// scriptedResponses answers every pending request with a fixed policy: dial
// low, claim charity, fight with the strongest leader, pass on everything
// optional. Enough to drive a game to its turn limit.
func scriptedResponses(t *testing.T, requests []rules.DecisionRequest) []rules.DecisionResponse {
	t.Helper()
	out := make([]rules.DecisionResponse, 0, len(requests))
	for _, req := range requests {
		resp := rules.DecisionResponse{
			RequestID: req.ID,
			Faction:   req.Faction,
			Type:      req.Type,
		}
		switch req.Type {
		case rules.RequestStormDial:
			resp.Data = marshal(t, game.StormDialResponse{Dial: 1})
		case rules.RequestClaimCharity:
			// claim by answering without passing
		case rules.RequestChooseAggressorTarget:
			var ctx game.AggressorTargetContext
			require.NoError(t, json.Unmarshal(req.Context, &ctx))
			require.NotEmpty(t, ctx.Choices)
			resp.Data = marshal(t, game.AggressorTargetResponse{BattleID: ctx.Choices[0].BattleID})
		case rules.RequestSubmitBattlePlan:
			var ctx game.BattlePlanContext
			require.NoError(t, json.Unmarshal(req.Context, &ctx))
			plan := game.BattlePlanResponse{Forces: ctx.ForcesPresent, Elite: ctx.ElitePresent}
			if len(ctx.Leaders) > 0 {
				plan.LeaderID = ctx.Leaders[0]
			} else {
				plan.NoLeader = true
			}
			resp.Data = marshal(t, plan)
		default:
			resp.Passed = true
		}
		out = append(out, resp)
	}
	return out
}

func marshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

// playToEnd drives a game with the scripted policy until it ends, checking
// force conservation after every suspension.
func playToEnd(t *testing.T, engine *game.DuneEngine, gameID string) *game.GameState {
	t.Helper()
	var responses []rules.DecisionResponse
	for i := 0; i < 300; i++ {
		result, err := engine.Run(gameID, responses)
		require.NoError(t, err)
		require.Empty(t, result.Rejections, "scripted responses must never be rejected")

		state, err := engine.State(gameID)
		require.NoError(t, err)
		for f := range state.Factions {
			cfg, err := board.Config(f)
			require.NoError(t, err)
			require.Equal(t, cfg.TotalForces, state.ForceTotal(f),
				"force conservation violated for %s in turn %d phase %s", f, state.Turn, state.Phase)
		}
		if state.Ended {
			return state
		}
		require.NotEmpty(t, result.Requests, "suspended without pending requests")
		responses = scriptedResponses(t, result.Requests)
	}
	t.Fatal("game did not end within 300 suspensions")
	return nil
}

func TestEngineFullGameToTurnLimit(t *testing.T) {
	engine := game.NewDuneEngine(zaptest.NewLogger(t))
	gameID, err := engine.CreateGame(game.GameOptions{
		Factions: []board.Faction{board.FactionAtreides, board.FactionHarkonnen},
		Seed:     42,
		MaxTurns: 2,
	})
	require.NoError(t, err)

	state := playToEnd(t, engine, gameID)
	assert.True(t, state.Ended)
	assert.NotEmpty(t, state.Winners)
	assert.LessOrEqual(t, state.Turn, 2)
}

func TestEngineFullGameAllFactions(t *testing.T) {
	engine := game.NewDuneEngine(zaptest.NewLogger(t))
	gameID, err := engine.CreateGame(game.GameOptions{
		Factions:      board.AllFactions,
		AdvancedRules: true,
		Seed:          7,
		MaxTurns:      3,
	})
	require.NoError(t, err)

	state := playToEnd(t, engine, gameID)
	assert.True(t, state.Ended)
	assert.NotEmpty(t, state.Winners)
}

func TestCreateGameValidation(t *testing.T) {
	engine := game.NewDuneEngine(nil)

	_, err := engine.CreateGame(game.GameOptions{Factions: []board.Faction{board.FactionAtreides}})
	assert.Error(t, err, "one faction is not a game")

	_, err = engine.CreateGame(game.GameOptions{
		Factions: []board.Faction{board.FactionAtreides, board.FactionAtreides},
	})
	assert.Error(t, err, "duplicate factions must be rejected")

	_, err = engine.CreateGame(game.GameOptions{
		Factions: []board.Faction{board.FactionAtreides, "ZENSUNNI"},
	})
	assert.Error(t, err, "unknown factions must be rejected")
}

func TestEngineRejectsInvalidDial(t *testing.T) {
	engine := game.NewDuneEngine(zaptest.NewLogger(t))
	gameID, err := engine.CreateGame(game.GameOptions{
		Factions: []board.Faction{board.FactionAtreides, board.FactionHarkonnen},
		Seed:     1,
	})
	require.NoError(t, err)

	result, err := engine.Run(gameID, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Requests)
	require.Equal(t, rules.RequestStormDial, result.Requests[0].Type)

	bad := result.Requests[0]
	resp := rules.DecisionResponse{
		RequestID: bad.ID,
		Faction:   bad.Faction,
		Type:      bad.Type,
		Data:      json.RawMessage(`{"dial":9}`),
	}
	result, err = engine.Run(gameID, []rules.DecisionResponse{resp})
	require.NoError(t, err)
	assert.Contains(t, result.Rejections, bad.ID)

	// The rejected request is re-issued unchanged.
	reissued := false
	for _, req := range result.Requests {
		if req.ID == bad.ID {
			reissued = true
		}
	}
	assert.True(t, reissued)
}

func TestEngineRejectsUnknownRequestID(t *testing.T) {
	engine := game.NewDuneEngine(zaptest.NewLogger(t))
	gameID, err := engine.CreateGame(game.GameOptions{
		Factions: []board.Faction{board.FactionAtreides, board.FactionHarkonnen},
		Seed:     1,
	})
	require.NoError(t, err)

	result, err := engine.Run(gameID, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Requests)

	resp := rules.DecisionResponse{
		RequestID: "no-such-request",
		Faction:   string(board.FactionAtreides),
		Type:      rules.RequestStormDial,
	}
	result, err = engine.Run(gameID, []rules.DecisionResponse{resp})
	require.NoError(t, err)
	require.Contains(t, result.Rejections, "")
	assert.True(t, result.Rejections[""].Has(rules.ErrUnexpectedResponse))
}

// TestEngineDeterministicFromSeed runs two games with the same seed and
// policy and expects identical final checksums.
func TestEngineDeterministicFromSeed(t *testing.T) {
	hashes := make([]string, 2)
	for i := range hashes {
		engine := game.NewDuneEngine(zaptest.NewLogger(t))
		gameID, err := engine.CreateGame(game.GameOptions{
			Factions: []board.Faction{board.FactionAtreides, board.FactionHarkonnen, board.FactionEmperor},
			Seed:     99,
			MaxTurns: 2,
		})
		require.NoError(t, err)

		state := playToEnd(t, engine, gameID)
		checksum, err := state.ComputeChecksum()
		require.NoError(t, err)
		hashes[i] = checksum.Hash
	}
	assert.Equal(t, hashes[0], hashes[1])
}

func TestEngineStateIsolation(t *testing.T) {
	engine := game.NewDuneEngine(nil)
	gameID, err := engine.CreateGame(game.GameOptions{
		Factions: []board.Faction{board.FactionAtreides, board.FactionHarkonnen},
		Seed:     5,
	})
	require.NoError(t, err)

	state, err := engine.State(gameID)
	require.NoError(t, err)
	state.Factions[board.FactionAtreides].Spice = 9999

	fresh, err := engine.State(gameID)
	require.NoError(t, err)
	assert.NotEqual(t, 9999, fresh.Factions[board.FactionAtreides].Spice,
		"mutating a returned state must not affect the engine")
}

func TestEngineSetAlliance(t *testing.T) {
	engine := game.NewDuneEngine(nil)
	gameID, err := engine.CreateGame(game.GameOptions{
		Factions: []board.Faction{board.FactionAtreides, board.FactionHarkonnen},
		Seed:     5,
	})
	require.NoError(t, err)

	require.NoError(t, engine.SetAlliance(gameID, board.FactionAtreides, board.FactionHarkonnen, true))
	state, err := engine.State(gameID)
	require.NoError(t, err)
	assert.True(t, state.Allied(board.FactionAtreides, board.FactionHarkonnen))
	assert.True(t, state.Allied(board.FactionHarkonnen, board.FactionAtreides))

	require.NoError(t, engine.SetAlliance(gameID, board.FactionAtreides, board.FactionHarkonnen, false))
	state, err = engine.State(gameID)
	require.NoError(t, err)
	assert.False(t, state.Allied(board.FactionAtreides, board.FactionHarkonnen))

	assert.Error(t, engine.SetAlliance("missing", board.FactionAtreides, board.FactionHarkonnen, true))
}

func TestEngineEventsPublished(t *testing.T) {
	engine := game.NewDuneEngine(zaptest.NewLogger(t))
	gameID, err := engine.CreateGame(game.GameOptions{
		Factions: []board.Faction{board.FactionAtreides, board.FactionHarkonnen},
		Seed:     3,
		MaxTurns: 1,
	})
	require.NoError(t, err)

	var seen []rules.EventType
	handle, err := engine.Subscribe(gameID, func(ev rules.Event) {
		seen = append(seen, ev.Type)
	})
	require.NoError(t, err)
	defer engine.Unsubscribe(gameID, handle)

	playToEnd(t, engine, gameID)
	assert.Contains(t, seen, rules.EventStormMoved)
	assert.Contains(t, seen, rules.EventGameEnded)
}

func TestEngineReplayRecording(t *testing.T) {
	engine := game.NewDuneEngine(zaptest.NewLogger(t))
	gameID, err := engine.CreateGame(game.GameOptions{
		Factions: []board.Faction{board.FactionAtreides, board.FactionHarkonnen},
		Seed:     3,
		MaxTurns: 1,
	})
	require.NoError(t, err)
	final := playToEnd(t, engine, gameID)

	replay, err := engine.Replay(gameID)
	require.NoError(t, err)
	require.Greater(t, replay.Size(), 1)

	first := replay.StateAt(0)
	require.NotNil(t, first)
	assert.Equal(t, final.GameID, first.GameID)

	last := replay.StateAt(replay.Size() - 1)
	require.NotNil(t, last)
	assert.True(t, last.Ended)
}

// TestEngineRestoreGame serializes a suspended game and resumes it on a fresh
// engine, as a restarted server does with stored snapshots.
func TestEngineRestoreGame(t *testing.T) {
	logger := zaptest.NewLogger(t)
	first := game.NewDuneEngine(logger)
	gameID, err := first.CreateGame(game.GameOptions{
		Factions: []board.Faction{board.FactionAtreides, board.FactionHarkonnen},
		Seed:     21,
		MaxTurns: 2,
	})
	require.NoError(t, err)

	result, err := first.Run(gameID, nil)
	require.NoError(t, err)
	require.Equal(t, rules.StepPending, result.Status)

	state, err := first.State(gameID)
	require.NoError(t, err)
	data, err := state.SerializeToBytes()
	require.NoError(t, err)
	loaded, err := game.DeserializeFromBytes(data)
	require.NoError(t, err)

	second := game.NewDuneEngine(logger)
	require.NoError(t, second.RestoreGame(loaded, 2))

	// The restored game keeps its suspension point and plays out normally.
	restored, err := second.State(gameID)
	require.NoError(t, err)
	assert.Equal(t, state.Turn, restored.Turn)
	assert.Equal(t, state.Phase, restored.Phase)
	assert.Len(t, restored.Pending, len(state.Pending))

	final := playToEnd(t, second, gameID)
	assert.True(t, final.Ended)
	assert.NotEmpty(t, final.Winners)
}

func TestEngineRestoreGameRefusals(t *testing.T) {
	logger := zaptest.NewLogger(t)
	engine := game.NewDuneEngine(logger)
	gameID, err := engine.CreateGame(game.GameOptions{
		Factions: []board.Faction{board.FactionAtreides, board.FactionHarkonnen},
		Seed:     5,
	})
	require.NoError(t, err)

	state, err := engine.State(gameID)
	require.NoError(t, err)

	// A registered game cannot be restored over.
	assert.Error(t, engine.RestoreGame(state, 10))

	// Neither can a finished one.
	ended := state.Clone()
	ended.GameID = "ended-game"
	ended.Ended = true
	assert.Error(t, engine.RestoreGame(ended, 10))

	assert.Error(t, engine.RestoreGame(nil, 10))
}

// TestEngineRejectsWrongFaction verifies answering another faction's request
// is refused as a protocol error and the request stays open.
func TestEngineRejectsWrongFaction(t *testing.T) {
	logger := zaptest.NewLogger(t)
	engine := game.NewDuneEngine(logger)
	gameID, err := engine.CreateGame(game.GameOptions{
		Factions: []board.Faction{board.FactionAtreides, board.FactionHarkonnen},
		Seed:     13,
	})
	require.NoError(t, err)

	result, err := engine.Run(gameID, nil)
	require.NoError(t, err)
	require.NotEmpty(t, result.Requests)

	req := result.Requests[0]
	imposter := string(board.FactionAtreides)
	if req.Faction == imposter {
		imposter = string(board.FactionHarkonnen)
	}
	result, err = engine.Run(gameID, []rules.DecisionResponse{{
		RequestID: req.ID,
		Faction:   imposter,
		Type:      req.Type,
		Passed:    true,
	}})
	require.NoError(t, err)

	vr := result.Rejections[""]
	require.NotNil(t, vr)
	assert.True(t, vr.Has(rules.ErrNotYourTurn))

	reissued := false
	for _, r := range result.Requests {
		if r.ID == req.ID {
			reissued = true
		}
	}
	assert.True(t, reissued, "the unanswered request must be re-issued")
}
