package rules

import "fmt"

// Phase represents one phase of a game turn. A one-time setup phase precedes
// turn one; every later turn cycles through the nine numbered phases in order.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseStorm
	PhaseSpiceBlow
	PhaseCharity
	PhaseBidding
	PhaseRevival
	PhaseShipmentMovement
	PhaseBattle
	PhaseSpiceCollection
	PhaseMentatPause
)

var phaseNames = map[Phase]string{
	PhaseSetup:            "SETUP",
	PhaseStorm:            "STORM",
	PhaseSpiceBlow:        "SPICE_BLOW",
	PhaseCharity:          "CHARITY",
	PhaseBidding:          "BIDDING",
	PhaseRevival:          "REVIVAL",
	PhaseShipmentMovement: "SHIPMENT_MOVEMENT",
	PhaseBattle:           "BATTLE",
	PhaseSpiceCollection:  "SPICE_COLLECTION",
	PhaseMentatPause:      "MENTAT_PAUSE",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PHASE_%d", int(p))
}

// turnSequence is the repeating phase order after setup.
var turnSequence = []Phase{
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

// NextPhase returns the phase following p. Setup feeds into the storm phase of
// turn one; the mentat pause wraps back to the storm phase of the next turn.
// The second return value reports whether the transition starts a new turn.
func NextPhase(p Phase) (Phase, bool) {
	if p == PhaseSetup {
		return PhaseStorm, true
	}
	for i, phase := range turnSequence {
		if phase == p {
			if i == len(turnSequence)-1 {
				return turnSequence[0], true
			}
			return turnSequence[i+1], false
		}
	}
	return PhaseStorm, true
}
