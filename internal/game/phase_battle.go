package game

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

// battleCandidate is one fightable pairing offered to an aggressor with a
// choice of targets.
type battleCandidate struct {
	ID        string
	Territory string
	Sector    int
	Defender  board.Faction
}

// BattlePhaseState drives the battle phase. Battles are re-identified after
// every resolution because each one changes who still stands where.
type BattlePhaseState struct {
	Started    bool
	Fought     bool
	Aggressor  board.Faction
	Candidates []battleCandidate
	Current    *Battle
}

func (s *BattlePhaseState) clone() *BattlePhaseState {
	if s == nil {
		return nil
	}
	c := *s
	c.Candidates = append([]battleCandidate(nil), s.Candidates...)
	c.Current = s.Current.clone()
	return &c
}

// stepBattle runs one micro-step of the battle phase: advisor flips, battle
// identification, an aggressor choice, or one sub-phase of the current
// battle.
func (e *DuneEngine) stepBattle(_ *gameSession, g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	if g.BattlePhase == nil {
		g.BattlePhase = &BattlePhaseState{Started: true}
		events := FlipLoneAdvisors(g)
		return rules.Incomplete(events...), nil
	}

	bp := g.BattlePhase
	if bp.Current == nil {
		if len(bp.Candidates) > 0 {
			return e.handleAggressorChoice(g, responses)
		}
		return e.nextBattle(g)
	}

	switch bp.Current.SubPhase {
	case SubPhaseVoice:
		return e.handleVoice(g, responses)
	case SubPhasePrescience:
		return e.handlePrescience(g, responses)
	case SubPhasePrescienceAnswer:
		return e.handlePrescienceAnswer(g, responses)
	case SubPhasePlans:
		return e.handlePlans(g, responses)
	case SubPhaseTraitorCall:
		return e.handleTraitorCalls(g, responses)
	default:
		return rules.StepResult{}, fmt.Errorf("battle %s in unexpected sub-phase %s",
			bp.Current.ID, bp.Current.SubPhase)
	}
}

// nextBattle re-scans the board and either starts the next battle or closes
// the phase.
func (e *DuneEngine) nextBattle(g *GameState) (rules.StepResult, error) {
	bp := g.BattlePhase
	groups := IdentifyBattles(g)
	if len(groups) == 0 {
		ev := rules.NewEvent(rules.EventBattlesComplete, "all battles resolved")
		if !bp.Fought {
			ev = rules.NewEvent(rules.EventNoBattles, "no contested territories")
		}
		g.BattlePhase = nil
		return rules.Complete(ev), nil
	}

	// The earliest faction in turn order with a fight on its hands is the
	// aggressor for the next battle.
	var aggressor board.Faction
	var candidates []battleCandidate
	for _, f := range fullTurnOrder(g) {
		for _, gr := range groups {
			if !containsFaction(gr.Factions, f) {
				continue
			}
			for _, opp := range gr.hostileOpponents(g, f) {
				candidates = append(candidates, battleCandidate{
					ID:        uuid.NewString(),
					Territory: gr.Territory,
					Sector:    gr.Sector,
					Defender:  opp,
				})
			}
		}
		if len(candidates) > 0 {
			aggressor = f
			break
		}
	}
	if aggressor == "" {
		// Hostile groups exist but nobody in turn order belongs to one;
		// identification and ordering disagree, which is a bug.
		return rules.StepResult{}, fmt.Errorf("no aggressor found for %d battle groups", len(groups))
	}

	bp.Aggressor = aggressor
	if len(candidates) == 1 {
		c := candidates[0]
		return e.startBattle(g, aggressor, c.Defender, c.Territory, c.Sector)
	}

	bp.Candidates = candidates
	choices := make([]BattleChoice, len(candidates))
	for i, c := range candidates {
		choices[i] = BattleChoice{
			BattleID:  c.ID,
			Territory: c.Territory,
			Sector:    c.Sector,
			Defender:  string(c.Defender),
		}
	}
	req := newRequest(g, aggressor, rules.RequestChooseAggressorTarget, AggressorTargetContext{Choices: choices})
	return rules.Pending(false, []rules.DecisionRequest{req}), nil
}

func (e *DuneEngine) handleAggressorChoice(g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	bp := g.BattlePhase
	req := pendingRequestFor(g, bp.Aggressor, rules.RequestChooseAggressorTarget)
	resp, ok := responseFor(g, responses, bp.Aggressor, rules.RequestChooseAggressorTarget)
	if !ok {
		return rules.Pending(false, []rules.DecisionRequest{req}), nil
	}
	var payload AggressorTargetResponse
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return rejectRequest(req, rules.Invalid(rules.ErrInvalidResponse, "data",
			"malformed target payload: %v", err)), nil
	}
	for _, c := range bp.Candidates {
		if c.ID == payload.BattleID {
			bp.Candidates = nil
			chosen := rules.NewEvent(rules.EventAggressorChosen,
				fmt.Sprintf("%s chooses to fight %s in %s", bp.Aggressor, c.Defender, c.Territory)).
				WithFaction(string(bp.Aggressor)).
				WithTerritory(c.Territory).
				WithData("defender", string(c.Defender))
			result, err := e.startBattle(g, bp.Aggressor, c.Defender, c.Territory, c.Sector)
			result.Events = append([]rules.Event{chosen}, result.Events...)
			return result, err
		}
	}
	return rejectRequest(req, rules.Invalid(rules.ErrInvalidResponse, "battle_id",
		"%q is not an offered battle", payload.BattleID)), nil
}

// startBattle creates the battle record and enters the first applicable
// sub-phase.
func (e *DuneEngine) startBattle(g *GameState, aggressor, defender board.Faction, territory string, sector int) (rules.StepResult, error) {
	b := &Battle{
		ID:           uuid.NewString(),
		Territory:    territory,
		Sector:       sector,
		Aggressor:    aggressor,
		Defender:     defender,
		TraitorCalls: make(map[board.Faction]string),
	}
	g.BattlePhase.Current = b
	events := []rules.Event{
		rules.NewEvent(rules.EventBattleStarted,
			fmt.Sprintf("%s attacks %s in %s", aggressor, defender, territory)).
			WithFaction(string(aggressor)).
			WithTerritory(territory).
			WithData("defender", string(defender)),
	}
	result, err := e.enterVoice(g, b)
	result.Events = append(events, result.Events...)
	return result, err
}

// voiceHolder returns the faction entitled to the compulsion and the battle
// side it speaks for. The holder fights the battle itself or speaks for an
// allied belligerent; the command always binds the side's opponent.
func voiceHolder(g *GameState, b *Battle) (holder, side board.Faction, ok bool) {
	for _, f := range []board.Faction{b.Aggressor, b.Defender} {
		if board.Flags(f).Voice {
			return f, f, true
		}
	}
	for _, f := range []board.Faction{b.Aggressor, b.Defender} {
		if ally := g.Factions[f].Ally; ally != "" && board.Flags(ally).Voice {
			return ally, f, true
		}
	}
	return "", "", false
}

// prescienceHolder returns the battle side entitled to foresight, if any.
func prescienceHolder(b *Battle) (board.Faction, bool) {
	for _, f := range []board.Faction{b.Aggressor, b.Defender} {
		if board.Flags(f).Prescience {
			return f, true
		}
	}
	return "", false
}

func (b *Battle) opponentOf(f board.Faction) board.Faction {
	if f == b.Aggressor {
		return b.Defender
	}
	return b.Aggressor
}

func (e *DuneEngine) enterVoice(g *GameState, b *Battle) (rules.StepResult, error) {
	holder, side, ok := voiceHolder(g, b)
	if !ok {
		return e.enterPrescience(g, b)
	}
	b.SubPhase = SubPhaseVoice
	req := newRequest(g, holder, rules.RequestVoiceCommand, VoiceContext{
		BattleID:  b.ID,
		Territory: b.Territory,
		Opponent:  string(b.opponentOf(side)),
	})
	return rules.Pending(false, []rules.DecisionRequest{req}), nil
}

func (e *DuneEngine) handleVoice(g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	b := g.BattlePhase.Current
	holder, side, _ := voiceHolder(g, b)
	req := pendingRequestFor(g, holder, rules.RequestVoiceCommand)
	resp, ok := responseFor(g, responses, holder, rules.RequestVoiceCommand)
	if !ok {
		return rules.Pending(false, []rules.DecisionRequest{req}), nil
	}
	var events []rules.Event
	if !resp.Passed {
		var payload VoiceResponse
		if err := json.Unmarshal(resp.Data, &payload); err != nil || payload.Category == "" {
			return rejectRequest(req, rules.Invalid(rules.ErrInvalidResponse, "category",
				"a voice command names a card category")), nil
		}
		b.Voice = &VoiceCommand{
			Target:   b.opponentOf(side),
			Category: payload.Category,
			Forbid:   payload.Forbid,
		}
		verb := "must play"
		if payload.Forbid {
			verb = "may not play"
		}
		events = append(events, rules.NewEvent(rules.EventVoiceCommand,
			fmt.Sprintf("%s %s a %s card", b.Voice.Target, verb, payload.Category)).
			WithFaction(string(holder)).
			WithTerritory(b.Territory))
	}
	result, err := e.enterPrescience(g, b)
	result.Events = append(events, result.Events...)
	return result, err
}

func (e *DuneEngine) enterPrescience(g *GameState, b *Battle) (rules.StepResult, error) {
	holder, ok := prescienceHolder(b)
	if !ok {
		return e.enterPlans(g, b)
	}
	b.SubPhase = SubPhasePrescience
	req := newRequest(g, holder, rules.RequestPrescience, PrescienceContext{
		BattleID:  b.ID,
		Territory: b.Territory,
		Opponent:  string(b.opponentOf(holder)),
	})
	return rules.Pending(false, []rules.DecisionRequest{req}), nil
}

func (e *DuneEngine) handlePrescience(g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	b := g.BattlePhase.Current
	holder, _ := prescienceHolder(b)
	req := pendingRequestFor(g, holder, rules.RequestPrescience)
	resp, ok := responseFor(g, responses, holder, rules.RequestPrescience)
	if !ok {
		return rules.Pending(false, []rules.DecisionRequest{req}), nil
	}
	if resp.Passed {
		return e.enterPlans(g, b)
	}
	var payload PrescienceResponse
	if err := json.Unmarshal(resp.Data, &payload); err != nil || !validPrescienceQuery(payload.Query) {
		return rejectRequest(req, rules.Invalid(rules.ErrInvalidResponse, "query",
			"query must be one of LEADER, WEAPON, DEFENSE, DIAL")), nil
	}
	target := b.opponentOf(holder)
	b.Prescience = &PrescienceResult{By: holder, Target: target, Query: payload.Query}
	b.SubPhase = SubPhasePrescienceAnswer
	answerReq := newRequest(g, target, rules.RequestPrescienceAnswer, PrescienceAnswerContext{
		BattleID: b.ID,
		By:       string(holder),
		Query:    payload.Query,
	})
	return rules.Pending(false, []rules.DecisionRequest{answerReq}), nil
}

func (e *DuneEngine) handlePrescienceAnswer(g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	b := g.BattlePhase.Current
	target := b.Prescience.Target
	req := pendingRequestFor(g, target, rules.RequestPrescienceAnswer)
	resp, ok := responseFor(g, responses, target, rules.RequestPrescienceAnswer)
	if !ok {
		return rules.Pending(false, []rules.DecisionRequest{req}), nil
	}
	var payload PrescienceAnswerResponse
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return rejectRequest(req, rules.Invalid(rules.ErrInvalidResponse, "answer",
			"malformed answer payload: %v", err)), nil
	}
	// The answer is binding; reveal-time validation holds the plan to it.
	b.Prescience.Answer = payload.Answer
	events := []rules.Event{
		rules.NewEvent(rules.EventPrescienceUsed,
			fmt.Sprintf("%s foresees the %s element of the enemy plan", b.Prescience.By, b.Prescience.Query)).
			WithFaction(string(b.Prescience.By)).
			WithTerritory(b.Territory),
	}
	result, err := e.enterPlans(g, b)
	result.Events = append(events, result.Events...)
	return result, err
}

func validPrescienceQuery(q PrescienceQuery) bool {
	switch q {
	case PrescienceLeader, PrescienceWeapon, PrescienceDefense, PrescienceDial:
		return true
	}
	return false
}

func (e *DuneEngine) enterPlans(g *GameState, b *Battle) (rules.StepResult, error) {
	b.SubPhase = SubPhasePlans
	requests := []rules.DecisionRequest{
		e.planRequest(g, b, b.Aggressor),
		e.planRequest(g, b, b.Defender),
	}
	return rules.Pending(true, requests), nil
}

func (e *DuneEngine) planRequest(g *GameState, b *Battle, f board.Faction) rules.DecisionRequest {
	fs := g.Factions[f]
	stack := g.StackAt(f, b.Territory, b.Sector)
	forces, elite := 0, 0
	if stack != nil {
		forces, elite = stack.Forces, stack.Elite
	}
	ctx := BattlePlanContext{
		BattleID:      b.ID,
		Territory:     b.Territory,
		Sector:        b.Sector,
		Opponent:      string(b.opponentOf(f)),
		Leaders:       fs.AvailableLeaders(),
		ForcesPresent: forces,
		ElitePresent:  elite,
	}
	if b.Voice != nil && b.Voice.Target == f {
		ctx.Voice = b.Voice
	}
	if b.Prescience != nil && b.Prescience.By == f {
		ctx.Prescience = b.Prescience
	}
	return newRequest(g, f, rules.RequestSubmitBattlePlan, ctx)
}

func (e *DuneEngine) handlePlans(g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	b := g.BattlePhase.Current
	result := rules.StepResult{Status: rules.StepIncomplete, Simultaneous: true}

	for id, req := range g.Pending {
		f := board.Faction(req.Faction)
		isAggressor := f == b.Aggressor
		if b.plans.Submitted(isAggressor) {
			continue
		}
		resp, ok := responseFor(g, responses, f, rules.RequestSubmitBattlePlan)
		if !ok {
			result.Status = rules.StepPending
			result.Requests = append(result.Requests, req)
			continue
		}
		if resp.Passed {
			rejectSimultaneous(&result, req, id, rules.Invalid(rules.ErrInvalidResponse, "passed",
				"a battle plan cannot be declined"))
			continue
		}
		var payload BattlePlanResponse
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			rejectSimultaneous(&result, req, id, rules.Invalid(rules.ErrInvalidResponse, "data",
				"malformed battle plan payload: %v", err))
			continue
		}
		plan := &BattlePlan{
			Faction:     f,
			LeaderID:    payload.LeaderID,
			CheapHero:   payload.CheapHero,
			NoLeader:    payload.NoLeader,
			Forces:      payload.Forces,
			Elite:       payload.Elite,
			SpiceDialed: payload.SpiceDialed,
			WeaponCard:  payload.WeaponCard,
			DefenseCard: payload.DefenseCard,
		}
		if vr := ValidateBattlePlan(g, b, plan); !vr.Valid() {
			result.Status = rules.StepPending
			result.Requests = append(result.Requests, req)
			result.Reject(id, vr)
			continue
		}
		if err := b.plans.Submit(isAggressor, plan); err != nil {
			return rules.StepResult{}, err
		}
		result.Events = append(result.Events, rules.NewEvent(rules.EventPlanSubmitted, "battle plan committed").
			WithFaction(string(f)).
			WithTerritory(b.Territory))
		if plan.NoLeader {
			result.Events = append(result.Events, rules.NewEvent(rules.EventNoLeaderAnnounced,
				fmt.Sprintf("%s sends forces without a leader", f)).
				WithFaction(string(f)).
				WithTerritory(b.Territory))
		}
	}

	if result.Status == rules.StepPending || !b.plans.Ready() {
		result.Status = rules.StepPending
		return result, nil
	}

	revealResult, err := e.revealPlans(g, b)
	if err != nil {
		return rules.StepResult{}, err
	}
	revealResult.Events = append(result.Events, revealResult.Events...)
	return revealResult, nil
}

// revealPlans exposes both plans and routes into the traitor call window or
// straight to resolution.
func (e *DuneEngine) revealPlans(g *GameState, b *Battle) (rules.StepResult, error) {
	agg, def, err := b.plans.Reveal()
	if err != nil {
		return rules.StepResult{}, err
	}
	events := []rules.Event{
		rules.NewEvent(rules.EventPlansRevealed,
			fmt.Sprintf("battle plans revealed in %s", b.Territory)).
			WithTerritory(b.Territory).
			WithData("aggressor_leader", agg.LeaderID).
			WithData("defender_leader", def.LeaderID),
	}

	var requests []rules.DecisionRequest
	for _, side := range []struct {
		caller board.Faction
		leader string
	}{
		{b.Aggressor, def.LeaderID},
		{b.Defender, agg.LeaderID},
	} {
		if side.leader == "" || !g.Factions[side.caller].HoldsTraitor(side.leader) {
			continue
		}
		requests = append(requests, newRequest(g, side.caller, rules.RequestCallTraitor, TraitorCallContext{
			BattleID:       b.ID,
			Territory:      b.Territory,
			OpposingLeader: side.leader,
		}))
	}
	if len(requests) > 0 {
		b.SubPhase = SubPhaseTraitorCall
		result := rules.Pending(true, requests)
		result.Events = events
		return result, nil
	}
	return e.resolveCurrentBattle(g, events)
}

func (e *DuneEngine) handleTraitorCalls(g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	b := g.BattlePhase.Current
	result := rules.StepResult{Status: rules.StepIncomplete, Simultaneous: true}
	for _, req := range g.Pending {
		f := board.Faction(req.Faction)
		resp, ok := responseFor(g, responses, f, rules.RequestCallTraitor)
		if !ok {
			result.Status = rules.StepPending
			result.Requests = append(result.Requests, req)
			continue
		}
		if resp.Passed {
			continue
		}
		var ctx TraitorCallContext
		if err := json.Unmarshal(req.Context, &ctx); err != nil {
			return rules.StepResult{}, fmt.Errorf("battle %s: bad traitor call context: %v", b.ID, err)
		}
		b.TraitorCalls[f] = ctx.OpposingLeader
		result.Events = append(result.Events, rules.NewEvent(rules.EventTraitorCalled,
			fmt.Sprintf("%s reveals %s as a traitor", f, ctx.OpposingLeader)).
			WithFaction(string(f)).
			WithTerritory(b.Territory))
	}
	if result.Status == rules.StepPending {
		return result, nil
	}
	return e.resolveCurrentBattle(g, result.Events)
}

// resolveCurrentBattle resolves the current battle and hands control back to
// the identification loop.
func (e *DuneEngine) resolveCurrentBattle(g *GameState, events []rules.Event) (rules.StepResult, error) {
	bp := g.BattlePhase
	b := bp.Current
	_, resolveEvents, err := ResolveBattle(g, b)
	if err != nil {
		return rules.StepResult{}, err
	}
	bp.Current = nil
	bp.Fought = true
	result := rules.Incomplete()
	result.Events = append(events, resolveEvents...)
	return result, nil
}

func containsFaction(fs []board.Faction, f board.Faction) bool {
	for _, x := range fs {
		if x == f {
			return true
		}
	}
	return false
}
