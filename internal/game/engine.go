package game

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
	"go.uber.org/zap"
)

// DuneEngine holds every running game and drives their phase state machines.
// All rule evaluation is synchronous; the only suspension points are pending
// decision requests carried in StepResults.
type DuneEngine struct {
	logger *zap.Logger
	mu     sync.RWMutex
	games  map[string]*gameSession
}

// gameSession pairs the authoritative state with its observers. The RNG lives
// here rather than in GameState so that serialized snapshots stay portable.
type gameSession struct {
	id      string
	state   *GameState
	bus     *rules.EventBus
	rng     *rand.Rand
	replay  *Replay
	mu      sync.Mutex
	maxTurn int
}

// NewDuneEngine creates an engine with no games.
func NewDuneEngine(logger *zap.Logger) *DuneEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DuneEngine{
		logger: logger,
		games:  make(map[string]*gameSession),
	}
}

// GameOptions configures a new game.
type GameOptions struct {
	Factions      []board.Faction
	AdvancedRules bool
	Seed          int64
	MaxTurns      int
}

// CreateGame registers a new game in the setup phase and returns its ID.
func (e *DuneEngine) CreateGame(opts GameOptions) (string, error) {
	if len(opts.Factions) < 2 {
		return "", fmt.Errorf("a game needs at least two factions, got %d", len(opts.Factions))
	}
	seen := make(map[board.Faction]bool)
	for _, f := range opts.Factions {
		if _, err := board.Config(f); err != nil {
			return "", err
		}
		if seen[f] {
			return "", fmt.Errorf("faction %s listed twice", f)
		}
		seen[f] = true
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	maxTurns := opts.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 10
	}

	gameID := uuid.NewString()
	state := &GameState{
		GameID:        gameID,
		Turn:          0,
		Phase:         rules.PhaseSetup,
		AdvancedRules: opts.AdvancedRules,
		Factions:      make(map[board.Faction]*FactionState),
		Pending:       make(map[string]rules.DecisionRequest),
	}
	for _, f := range opts.Factions {
		state.Factions[f] = &FactionState{Faction: f, Leaders: make(map[string]*LeaderState)}
	}

	sess := &gameSession{
		id:      gameID,
		state:   state,
		bus:     rules.NewEventBus(),
		rng:     rand.New(rand.NewSource(seed)),
		replay:  NewReplay(gameID),
		maxTurn: maxTurns,
	}

	e.mu.Lock()
	e.games[gameID] = sess
	e.mu.Unlock()

	e.logger.Info("game created",
		zap.String("game_id", gameID),
		zap.Int("factions", len(opts.Factions)),
		zap.Bool("advanced", opts.AdvancedRules),
		zap.Int64("seed", seed),
	)
	return gameID, nil
}

// RestoreGame registers a deserialized game snapshot, typically loaded from
// the database after a restart. Sealed battle plans do not survive
// serialization, so a battle suspended at plan submission is reopened and
// both sides are asked to submit again.
func (e *DuneEngine) RestoreGame(state *GameState, maxTurns int) error {
	if state == nil || state.GameID == "" {
		return fmt.Errorf("cannot restore a game without an ID")
	}
	if state.Ended {
		return fmt.Errorf("game %s has already ended", state.GameID)
	}
	if maxTurns <= 0 {
		maxTurns = 10
	}
	g := state.Clone()
	if g.Pending == nil {
		g.Pending = make(map[string]rules.DecisionRequest)
	}
	e.reopenBattlePlans(g)

	sess := &gameSession{
		id:      g.GameID,
		state:   g,
		bus:     rules.NewEventBus(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		replay:  NewReplay(g.GameID),
		maxTurn: maxTurns,
	}
	sess.replay.Record(g)

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.games[g.GameID]; exists {
		return fmt.Errorf("game %s is already registered", g.GameID)
	}
	e.games[g.GameID] = sess
	e.logger.Info("game restored",
		zap.String("game_id", g.GameID),
		zap.Int("turn", g.Turn),
		zap.String("phase", g.Phase.String()),
	)
	return nil
}

// reopenBattlePlans resets a battle that was suspended between plan
// submission and resolution. Any plan committed before the snapshot is
// retracted and fresh submission requests replace the stale pending set.
func (e *DuneEngine) reopenBattlePlans(g *GameState) {
	if g.BattlePhase == nil || g.BattlePhase.Current == nil {
		return
	}
	b := g.BattlePhase.Current
	if b.SubPhase != SubPhasePlans && b.SubPhase != SubPhaseTraitorCall {
		return
	}
	b.plans.retract(true)
	b.plans.retract(false)
	b.SubPhase = SubPhasePlans
	for f := range b.TraitorCalls {
		delete(b.TraitorCalls, f)
	}
	for id, req := range g.Pending {
		if req.Type == rules.RequestSubmitBattlePlan || req.Type == rules.RequestCallTraitor {
			delete(g.Pending, id)
		}
	}
	for _, f := range []board.Faction{b.Aggressor, b.Defender} {
		req := e.planRequest(g, b, f)
		g.Pending[req.ID] = req
	}
}

// Subscribe registers an event listener for one game. Returns the handle, or
// an error for unknown games.
func (e *DuneEngine) Subscribe(gameID string, listener rules.Listener) (int, error) {
	sess, err := e.session(gameID)
	if err != nil {
		return -1, err
	}
	return sess.bus.Subscribe(listener), nil
}

// Unsubscribe removes an event listener from one game.
func (e *DuneEngine) Unsubscribe(gameID string, handle int) {
	if sess, err := e.session(gameID); err == nil {
		sess.bus.Unsubscribe(handle)
	}
}

// State returns a deep copy of the current game state for inspection.
func (e *DuneEngine) State(gameID string) (*GameState, error) {
	sess, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state.Clone(), nil
}

// SetAlliance links or clears an alliance between two factions. Alliances are
// negotiated outside the engine; this records the outcome.
func (e *DuneEngine) SetAlliance(gameID string, a, b board.Faction, allied bool) error {
	sess, err := e.session(gameID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	next := sess.state.Clone()
	fa, fb := next.Faction(a), next.Faction(b)
	if fa == nil || fb == nil {
		return fmt.Errorf("faction not in game %s", gameID)
	}
	if allied {
		fa.Ally, fb.Ally = b, a
	} else {
		fa.Ally, fb.Ally = "", ""
	}
	sess.state = next
	return nil
}

// Step advances a game by one phase step. Responses answer the pending
// requests from the previous step (nil when none are pending). The returned
// StepResult carries emitted events, any new pending requests, and rejections
// for responses that failed validation; rejected requests are re-issued
// unchanged.
func (e *DuneEngine) Step(gameID string, responses []rules.DecisionResponse) (rules.StepResult, error) {
	sess, err := e.session(gameID)
	if err != nil {
		return rules.StepResult{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.state.Ended {
		return rules.StepResult{}, fmt.Errorf("game %s has ended", gameID)
	}

	next := sess.state.Clone()

	if protoErr := matchResponses(next, responses); protoErr != nil {
		// Protocol errors re-issue the same pending requests.
		result := rules.StepResult{Status: rules.StepPending, Simultaneous: true}
		for _, req := range next.Pending {
			result.Requests = append(result.Requests, req)
		}
		result.Reject("", protoErr)
		return result, nil
	}

	result, err := e.stepPhase(sess, next, responses)
	if err != nil {
		e.logger.Error("phase step failed",
			zap.String("game_id", gameID),
			zap.String("phase", next.Phase.String()),
			zap.Error(err),
		)
		return rules.StepResult{}, err
	}

	applyStepResult(next, &result)
	sess.state = next
	sess.replay.Record(next)
	sess.bus.PublishAll(result.Events)

	e.logger.Debug("phase step",
		zap.String("game_id", gameID),
		zap.String("phase", next.Phase.String()),
		zap.String("status", result.Status.String()),
		zap.Int("events", len(result.Events)),
		zap.Int("requests", len(result.Requests)),
	)
	return result, nil
}

// Run advances a game until it suspends for decisions or ends. It loops over
// internally incomplete steps so callers only see pending or complete.
func (e *DuneEngine) Run(gameID string, responses []rules.DecisionResponse) (rules.StepResult, error) {
	result, err := e.Step(gameID, responses)
	if err != nil {
		return result, err
	}
	for result.Status != rules.StepPending {
		state, err := e.State(gameID)
		if err != nil {
			return result, err
		}
		if state.Ended {
			return result, nil
		}
		result, err = e.Step(gameID, nil)
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

// GameIDs returns the IDs of every registered game.
func (e *DuneEngine) GameIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.games))
	for id := range e.games {
		ids = append(ids, id)
	}
	return ids
}

// Replay returns the replay recorder for a game.
func (e *DuneEngine) Replay(gameID string) (*Replay, error) {
	sess, err := e.session(gameID)
	if err != nil {
		return nil, err
	}
	return sess.replay, nil
}

func (e *DuneEngine) session(gameID string) (*gameSession, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	sess, ok := e.games[gameID]
	if !ok {
		return nil, fmt.Errorf("unknown game %q", gameID)
	}
	return sess, nil
}

// matchResponses validates supplied responses against the pending request
// set: every response must answer a pending request from the right faction
// with the right type. Game-legality of payloads is the phase handler's job.
func matchResponses(g *GameState, responses []rules.DecisionResponse) *rules.ValidationResult {
	result := &rules.ValidationResult{}
	for _, resp := range responses {
		req, ok := g.Pending[resp.RequestID]
		if !ok {
			result.Add(rules.Invalid(rules.ErrUnexpectedResponse, "request_id",
				"no pending request %q", resp.RequestID))
			continue
		}
		if req.Faction != resp.Faction {
			result.Add(rules.Invalid(rules.ErrNotYourTurn, "faction",
				"request %s belongs to %s, answered by %s", req.ID, req.Faction, resp.Faction))
		}
		if req.Type != resp.Type {
			result.Add(rules.Invalid(rules.ErrUnexpectedResponse, "type",
				"request %s expects %s, got %s", req.ID, req.Type, resp.Type))
		}
	}
	if !result.Valid() {
		return result
	}
	return nil
}

// applyStepResult folds a step result into the state: log events, replace the
// pending request set, and advance the phase marker on completion.
func applyStepResult(g *GameState, result *rules.StepResult) {
	g.Log = append(g.Log, result.Events...)
	g.Pending = make(map[string]rules.DecisionRequest, len(result.Requests))
	for _, req := range result.Requests {
		g.Pending[req.ID] = req
	}
	if result.Status != rules.StepComplete {
		return
	}
	next, newTurn := rules.NextPhase(g.Phase)
	result.NextPhase = next
	g.Phase = next
	if newTurn && !g.Ended {
		g.Turn++
		resetTurnMarkers(g)
	}
}

// resetTurnMarkers clears the per-turn flags at the start of a new turn.
func resetTurnMarkers(g *GameState) {
	for _, fs := range g.Factions {
		fs.FreeRevivalUsed = false
		for _, l := range fs.Leaders {
			l.UsedThisTurn = false
			l.UsedTerritory = ""
		}
	}
}

// stepPhase dispatches to the handler for the current phase.
func (e *DuneEngine) stepPhase(sess *gameSession, g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	switch g.Phase {
	case rules.PhaseSetup:
		return e.stepSetup(sess, g, responses)
	case rules.PhaseStorm:
		return e.stepStorm(sess, g, responses)
	case rules.PhaseSpiceBlow:
		return e.stepSpiceBlow(sess, g, responses)
	case rules.PhaseCharity:
		return e.stepCharity(sess, g, responses)
	case rules.PhaseBidding:
		return e.stepBidding(sess, g, responses)
	case rules.PhaseRevival:
		return e.stepRevival(sess, g, responses)
	case rules.PhaseShipmentMovement:
		return e.stepShipment(sess, g, responses)
	case rules.PhaseBattle:
		return e.stepBattle(sess, g, responses)
	case rules.PhaseSpiceCollection:
		return e.stepSpiceCollection(sess, g, responses)
	case rules.PhaseMentatPause:
		return e.stepMentatPause(sess, g, responses)
	default:
		return rules.StepResult{}, fmt.Errorf("no handler for phase %s", g.Phase)
	}
}

// newRequest builds a decision request addressed to one faction.
func newRequest(g *GameState, f board.Faction, t rules.RequestType, context any) rules.DecisionRequest {
	req := rules.DecisionRequest{
		ID:      uuid.NewString(),
		GameID:  g.GameID,
		Faction: string(f),
		Type:    t,
	}
	if context != nil {
		req.Context = mustJSON(context)
	}
	return req
}

// mustJSON marshals request context payloads. The payload structs are all
// engine-defined, so a marshal failure is a programming error.
func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("marshal request context: %v", err))
	}
	return raw
}

// responseFor picks the response answering a given faction and type out of a
// batch, if present.
func responseFor(g *GameState, responses []rules.DecisionResponse, f board.Faction, t rules.RequestType) (rules.DecisionResponse, bool) {
	for _, resp := range responses {
		if resp.Faction == string(f) && resp.Type == t {
			if req, ok := g.Pending[resp.RequestID]; ok && req.Type == t {
				return resp, true
			}
		}
	}
	return rules.DecisionResponse{}, false
}
