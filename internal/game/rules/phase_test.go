package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPhaseSequence(t *testing.T) {
	want := []Phase{
		PhaseStorm,
		PhaseSpiceBlow,
		PhaseCharity,
		PhaseBidding,
		PhaseRevival,
		PhaseShipmentMovement,
		PhaseBattle,
		PhaseSpiceCollection,
		PhaseMentatPause,
	}
	p := PhaseSetup
	for i, expected := range want {
		next, newTurn := NextPhase(p)
		assert.Equal(t, expected, next, "step %d from %s", i, p)
		assert.Equal(t, i == 0, newTurn, "step %d from %s", i, p)
		p = next
	}

	// The mentat pause wraps into the next turn's storm phase.
	next, newTurn := NextPhase(PhaseMentatPause)
	assert.Equal(t, PhaseStorm, next)
	assert.True(t, newTurn)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "STORM", PhaseStorm.String())
	assert.Equal(t, "MENTAT_PAUSE", PhaseMentatPause.String())
	assert.Equal(t, "PHASE_42", Phase(42).String())
}
