package rules

import "encoding/json"

// RequestType tags a decision request with the kind of answer expected.
type RequestType string

const (
	RequestStormDial             RequestType = "STORM_DIAL"
	RequestClaimCharity          RequestType = "CLAIM_CHARITY"
	RequestPlaceBid              RequestType = "PLACE_BID"
	RequestReviveForces          RequestType = "REVIVE_FORCES"
	RequestShipForces            RequestType = "SHIP_FORCES"
	RequestMoveForces            RequestType = "MOVE_FORCES"
	RequestGuildElection         RequestType = "GUILD_TURN_ELECTION"
	RequestChooseAggressorTarget RequestType = "CHOOSE_AGGRESSOR_TARGET"
	RequestVoiceCommand          RequestType = "VOICE_COMMAND"
	RequestPrescience            RequestType = "PRESCIENCE"
	RequestPrescienceAnswer      RequestType = "PRESCIENCE_ANSWER"
	RequestSubmitBattlePlan      RequestType = "SUBMIT_BATTLE_PLAN"
	RequestCallTraitor           RequestType = "CALL_TRAITOR"
	RequestSetupPlacement        RequestType = "SETUP_PLACEMENT"
)

// DecisionRequest asks one faction for one decision. Context carries a
// request-type-specific payload (e.g. available leaders and forces present
// for a battle plan).
type DecisionRequest struct {
	ID      string          `json:"id"`
	GameID  string          `json:"game_id"`
	Faction string          `json:"faction"`
	Type    RequestType     `json:"type"`
	Context json.RawMessage `json:"context,omitempty"`
}

// DecisionResponse answers a pending request. Passed means the faction
// declined the opportunity; Data carries the type-specific payload otherwise.
type DecisionResponse struct {
	RequestID string          `json:"request_id"`
	Faction   string          `json:"faction"`
	Type      RequestType     `json:"type"`
	Passed    bool            `json:"passed"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// StepStatus is the shape of a phase step result.
type StepStatus int

const (
	// StepComplete means the phase finished; NextPhase is set.
	StepComplete StepStatus = iota
	// StepPending means external decisions are required before the phase
	// can continue.
	StepPending
	// StepIncomplete means the phase continues internally without needing
	// external input yet.
	StepIncomplete
)

var stepStatusNames = map[StepStatus]string{
	StepComplete:   "COMPLETE",
	StepPending:    "PENDING",
	StepIncomplete: "INCOMPLETE",
}

func (s StepStatus) String() string {
	if name, ok := stepStatusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// StepResult is returned by every phase handler step. Requests are only set
// for StepPending; Simultaneous reports whether those requests are answered
// as one atomic batch (order independent) or one at a time. When a response
// was rejected, Rejections carries the violations keyed by request ID and the
// same request appears again in Requests for resubmission.
type StepResult struct {
	Status       StepStatus
	NextPhase    Phase
	Events       []Event
	Requests     []DecisionRequest
	Simultaneous bool
	Rejections   map[string]*ValidationResult
}

// Reject records a rejected response on the result.
func (r *StepResult) Reject(requestID string, result *ValidationResult) {
	if r.Rejections == nil {
		r.Rejections = make(map[string]*ValidationResult)
	}
	r.Rejections[requestID] = result
}

// Complete builds a completed step result. The engine fills in NextPhase
// when it advances the phase marker.
func Complete(events ...Event) StepResult {
	return StepResult{Status: StepComplete, Events: events}
}

// Pending builds a suspended step result carrying decision requests.
func Pending(simultaneous bool, requests []DecisionRequest, events ...Event) StepResult {
	return StepResult{
		Status:       StepPending,
		Events:       events,
		Requests:     requests,
		Simultaneous: simultaneous,
	}
}

// Incomplete builds a step result for a phase that continues internally.
func Incomplete(events ...Event) StepResult {
	return StepResult{Status: StepIncomplete, Events: events}
}
