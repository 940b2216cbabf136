package game

import (
	"testing"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func revivalState() *GameState {
	g := newTestState(board.FactionAtreides, board.FactionHarkonnen)
	fs := g.Factions[board.FactionAtreides]
	fs.Spice = 10
	fs.Casualties = 5
	fs.EliteCasualties = 1
	fs.Leaders["duncan_idaho"] = &LeaderState{
		ID:       "duncan_idaho",
		Owner:    board.FactionAtreides,
		HeldBy:   board.FactionAtreides,
		Location: LeaderDeadRevivable,
	}
	fs.Leaders["thufir_hawat"] = &LeaderState{
		ID:       "thufir_hawat",
		Owner:    board.FactionAtreides,
		HeldBy:   board.FactionAtreides,
		Location: LeaderAvailable,
	}
	return g
}

func TestValidateRevivalLimits(t *testing.T) {
	g := revivalState()
	f := board.FactionAtreides

	tests := []struct {
		name    string
		payload RevivalResponse
		code    rules.ErrorCode
	}{
		{"nothing requested", RevivalResponse{}, rules.ErrInvalidResponse},
		{"negative count", RevivalResponse{Forces: -1}, rules.ErrInvalidResponse},
		{"over turn limit", RevivalResponse{Forces: 4}, rules.ErrInvalidResponse},
		{"over elite cap", RevivalResponse{Forces: 1, Elite: 2}, rules.ErrInvalidResponse},
		{"unknown leader", RevivalResponse{LeaderID: "stilgar"}, rules.ErrLeaderUnavailable},
		{"leader not in tanks", RevivalResponse{LeaderID: "thufir_hawat"}, rules.ErrLeaderUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vr := validateRevival(g, f, tt.payload)
			assert.True(t, vr.Has(tt.code))
		})
	}

	assert.True(t, validateRevival(g, f, RevivalResponse{Forces: 2, Elite: 1}).Valid())
	assert.True(t, validateRevival(g, f, RevivalResponse{LeaderID: "duncan_idaho"}).Valid())

	// Asking for more than the casualty pool holds.
	g.Factions[f].Casualties = 1
	vr := validateRevival(g, f, RevivalResponse{Forces: 2})
	assert.True(t, vr.Has(rules.ErrInsufficientForces))
}

// TestValidateRevivalSpice checks pricing: the free allotment costs nothing,
// extra forces two spice apiece, a leader its printed strength.
func TestValidateRevivalSpice(t *testing.T) {
	g := revivalState()
	fs := g.Factions[board.FactionAtreides]

	// Atreides gets two free revivals; the third force costs 2 and Duncan
	// Idaho (strength 2) costs 2 more.
	fs.Spice = 3
	vr := validateRevival(g, board.FactionAtreides, RevivalResponse{Forces: 3, LeaderID: "duncan_idaho"})
	assert.True(t, vr.Has(rules.ErrInsufficientSpice))

	fs.Spice = 4
	assert.True(t, validateRevival(g, board.FactionAtreides, RevivalResponse{Forces: 3, LeaderID: "duncan_idaho"}).Valid())
}

func TestApplyRevivalForces(t *testing.T) {
	g := revivalState()
	fs := g.Factions[board.FactionAtreides]

	events := applyRevival(g, board.FactionAtreides, RevivalResponse{Forces: 2, Elite: 1})
	require.Len(t, events, 1)
	assert.Equal(t, rules.EventForcesRevived, events[0].Type)
	assert.Equal(t, 3, events[0].Amount)

	assert.Equal(t, 3, fs.Casualties)
	assert.Equal(t, 0, fs.EliteCasualties)
	assert.Equal(t, 2, fs.Reserves)
	assert.Equal(t, 1, fs.EliteReserves)
	// Two free, one paid at two spice.
	assert.Equal(t, 8, fs.Spice)
	assert.True(t, fs.FreeRevivalUsed)
}

// TestApplyRevivalLeader brings a dead leader back from the tanks for its
// strength in spice.
func TestApplyRevivalLeader(t *testing.T) {
	g := revivalState()
	fs := g.Factions[board.FactionAtreides]

	events := applyRevival(g, board.FactionAtreides, RevivalResponse{LeaderID: "duncan_idaho"})
	require.Len(t, events, 1)
	assert.Equal(t, rules.EventLeaderRevived, events[0].Type)
	assert.Equal(t, string(board.FactionAtreides), events[0].Faction)

	assert.Equal(t, LeaderAvailable, fs.Leaders["duncan_idaho"].Location)
	// Duncan Idaho's strength is 2.
	assert.Equal(t, 8, fs.Spice)
	assert.Equal(t, 5, fs.Casualties, "no forces revived alongside the leader")
}

// TestRevivalRequestForDeadLeader verifies a faction with an empty casualty
// pool but a leader in the tanks is still asked.
func TestRevivalRequestForDeadLeader(t *testing.T) {
	g := revivalState()
	g.Factions[board.FactionAtreides].Casualties = 0
	g.Factions[board.FactionAtreides].EliteCasualties = 0
	g.Phase = rules.PhaseRevival

	e := NewDuneEngine(nil)
	result, err := e.stepRevival(nil, g, nil)
	require.NoError(t, err)
	require.Equal(t, rules.StepPending, result.Status)
	require.Len(t, result.Requests, 1)
	assert.Equal(t, string(board.FactionAtreides), result.Requests[0].Faction)
}
