package game

import (
	"fmt"
	"sort"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

// BattleSubPhase sequences the hidden-information battle protocol.
type BattleSubPhase int

const (
	SubPhaseAggressorChoice BattleSubPhase = iota
	SubPhaseVoice
	SubPhasePrescience
	SubPhasePrescienceAnswer
	SubPhasePlans
	SubPhaseTraitorCall
	SubPhaseResolved
)

var subPhaseNames = map[BattleSubPhase]string{
	SubPhaseAggressorChoice:  "AGGRESSOR_CHOICE",
	SubPhaseVoice:            "VOICE",
	SubPhasePrescience:       "PRESCIENCE",
	SubPhasePrescienceAnswer: "PRESCIENCE_ANSWER",
	SubPhasePlans:            "PLAN_SUBMISSION",
	SubPhaseTraitorCall:      "TRAITOR_CALL",
	SubPhaseResolved:         "RESOLVED",
}

func (s BattleSubPhase) String() string {
	if name, ok := subPhaseNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SUB_PHASE_%d", int(s))
}

// VoiceCommand compels the opponent to play or not play a category of card.
type VoiceCommand struct {
	Target   board.Faction `json:"target"`
	Category string        `json:"category"` // e.g. "poison_weapon", "projectile_defense", "worthless"
	Forbid   bool          `json:"forbid"`
}

// PrescienceQuery names the plan element the foresight faction may inspect.
type PrescienceQuery string

const (
	PrescienceLeader  PrescienceQuery = "LEADER"
	PrescienceWeapon  PrescienceQuery = "WEAPON"
	PrescienceDefense PrescienceQuery = "DEFENSE"
	PrescienceDial    PrescienceQuery = "DIAL"
)

// PrescienceResult records the query and the opponent's committed answer.
// The answered element of the revealed plan must match the commitment.
type PrescienceResult struct {
	By     board.Faction   `json:"by"`
	Target board.Faction   `json:"target"`
	Query  PrescienceQuery `json:"query"`
	Answer string          `json:"answer"`
}

// BattlePlan is one side's declaration for a battle. Write-once per battle
// per side until the reveal.
type BattlePlan struct {
	Faction     board.Faction `json:"faction"`
	LeaderID    string        `json:"leader_id,omitempty"`
	CheapHero   string        `json:"cheap_hero,omitempty"` // hero-substitute card ID
	NoLeader    bool          `json:"no_leader,omitempty"`  // explicit no-leader announcement
	Forces      int           `json:"forces"`
	Elite       int           `json:"elite"`
	SpiceDialed int           `json:"spice_dialed"`
	WeaponCard  string        `json:"weapon_card,omitempty"`
	DefenseCard string        `json:"defense_card,omitempty"`
}

// Dialed returns the total force count committed by the plan.
func (p *BattlePlan) Dialed() int {
	return p.Forces + p.Elite
}

// planSlots enforces write-once-until-reveal semantics for the two battle
// plans. Each side's slot is populated independently; Reveal is the only path
// that exposes both to resolution logic.
type planSlots struct {
	aggressor *BattlePlan
	defender  *BattlePlan
	revealed  bool
}

// Submit stores a side's plan. Resubmission before the reveal is rejected.
func (s *planSlots) Submit(aggressor bool, plan *BattlePlan) error {
	if s.revealed {
		return fmt.Errorf("plans already revealed")
	}
	slot := &s.defender
	if aggressor {
		slot = &s.aggressor
	}
	if *slot != nil {
		return fmt.Errorf("plan already submitted for %s", plan.Faction)
	}
	*slot = plan
	return nil
}

// Submitted reports whether a side's slot is populated.
func (s *planSlots) Submitted(aggressor bool) bool {
	if aggressor {
		return s.aggressor != nil
	}
	return s.defender != nil
}

// Ready reports whether both slots are populated.
func (s *planSlots) Ready() bool {
	return s.aggressor != nil && s.defender != nil
}

// Reveal makes both plans visible. It is an error to reveal before both
// sides have submitted.
func (s *planSlots) Reveal() (aggressor, defender *BattlePlan, err error) {
	if !s.Ready() {
		return nil, nil, fmt.Errorf("cannot reveal: plans incomplete")
	}
	s.revealed = true
	return s.aggressor, s.defender, nil
}

// Plans returns both plans after the reveal; nil before it.
func (s *planSlots) Plans() (aggressor, defender *BattlePlan) {
	if !s.revealed {
		return nil, nil
	}
	return s.aggressor, s.defender
}

// retract clears a side's unrevealed slot so the side can be asked to submit
// again, as when a suspended battle is reopened after a restore.
func (s *planSlots) retract(aggressor bool) {
	if s.revealed {
		return
	}
	if aggressor {
		s.aggressor = nil
	} else {
		s.defender = nil
	}
}

// Battle is the ephemeral record of one pairwise fight. It is created by the
// identification scan, driven through its sub-phases by the battle phase
// handler, and discarded once resolved.
type Battle struct {
	ID        string
	Territory string
	Sector    int
	Aggressor board.Faction
	Defender  board.Faction

	SubPhase   BattleSubPhase
	Voice      *VoiceCommand
	Prescience *PrescienceResult
	plans      planSlots

	// TraitorCalls maps the calling faction to the opposing leader named.
	TraitorCalls map[board.Faction]string

	Outcome *BattleOutcome
}

// clone deep-copies a battle for GameState.Clone.
func (b *Battle) clone() *Battle {
	if b == nil {
		return nil
	}
	out := *b
	if b.Voice != nil {
		v := *b.Voice
		out.Voice = &v
	}
	if b.Prescience != nil {
		p := *b.Prescience
		out.Prescience = &p
	}
	if b.plans.aggressor != nil {
		p := *b.plans.aggressor
		out.plans.aggressor = &p
	}
	if b.plans.defender != nil {
		p := *b.plans.defender
		out.plans.defender = &p
	}
	out.TraitorCalls = make(map[board.Faction]string, len(b.TraitorCalls))
	for f, l := range b.TraitorCalls {
		out.TraitorCalls[f] = l
	}
	if b.Outcome != nil {
		o := b.Outcome.clone()
		out.Outcome = o
	}
	return &out
}

// battleGroup is a territory+sector cluster of mutually hostile factions
// found by the identification scan.
type battleGroup struct {
	Territory string
	Sector    int
	Factions  []board.Faction
}

// FlipLoneAdvisors converts advisor stacks to combatant status where the
// advisor faction is the only faction in the territory. The conversion only
// applies under the advanced ruleset and is suppressed when an ally shares
// the territory. Returns the emitted events.
func FlipLoneAdvisors(g *GameState) []rules.Event {
	if !g.AdvancedRules {
		return nil
	}
	var events []rules.Event
	byTerritory := make(map[string][]*ForceStack)
	for _, s := range g.Stacks {
		byTerritory[s.Territory] = append(byTerritory[s.Territory], s)
	}
	for territory, stacks := range byTerritory {
		var advisorFaction board.Faction
		hasAdvisors := false
		alone := true
		for _, s := range stacks {
			if s.Advisors {
				hasAdvisors = true
				advisorFaction = s.Faction
			} else if s.Total() > 0 {
				alone = false
			}
		}
		if !hasAdvisors || !alone {
			continue
		}
		allyPresent := false
		for _, s := range stacks {
			if s.Faction != advisorFaction && g.Allied(advisorFaction, s.Faction) {
				allyPresent = true
			}
		}
		if allyPresent {
			continue
		}
		for _, s := range stacks {
			if s.Faction == advisorFaction && s.Advisors {
				s.Advisors = false
			}
		}
		events = append(events, rules.NewEvent(rules.EventAdvisorsFlipped,
			fmt.Sprintf("%s advisors in %s flipped to fighters", advisorFaction, territory)).
			WithFaction(string(advisorFaction)).WithTerritory(territory))
	}
	return events
}

// IdentifyBattles scans board occupancy for territory+sector groups holding
// two or more mutually hostile factions. Allies sharing a territory do not
// fight each other; advisor stacks never participate. Groups are returned in
// a stable territory/sector order.
func IdentifyBattles(g *GameState) []battleGroup {
	type key struct {
		territory string
		sector    int
	}
	present := make(map[key][]board.Faction)
	for _, s := range g.Stacks {
		if s.Advisors || s.Total() == 0 {
			continue
		}
		k := key{s.Territory, s.Sector}
		dup := false
		for _, f := range present[k] {
			if f == s.Faction {
				dup = true
			}
		}
		if !dup {
			present[k] = append(present[k], s.Faction)
		}
	}

	var groups []battleGroup
	for k, factions := range present {
		if len(factions) < 2 {
			continue
		}
		hostile := false
		for i := 0; i < len(factions) && !hostile; i++ {
			for j := i + 1; j < len(factions); j++ {
				if !g.Allied(factions[i], factions[j]) {
					hostile = true
					break
				}
			}
		}
		if !hostile {
			continue
		}
		sort.Slice(factions, func(i, j int) bool {
			return g.stormOrderIndex(factions[i]) < g.stormOrderIndex(factions[j])
		})
		groups = append(groups, battleGroup{Territory: k.territory, Sector: k.sector, Factions: factions})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Territory != groups[j].Territory {
			return groups[i].Territory < groups[j].Territory
		}
		return groups[i].Sector < groups[j].Sector
	})
	return groups
}

// stormOrderIndex returns a faction's position in the current storm order.
// Factions outside the order (the out-of-turn exception) sort last.
func (g *GameState) stormOrderIndex(f board.Faction) int {
	for i, name := range g.StormOrder {
		if name == string(f) {
			return i
		}
	}
	return len(g.StormOrder)
}

// hostileOpponents lists the factions in a group the aggressor may choose to
// battle, in storm order.
func (gr *battleGroup) hostileOpponents(g *GameState, aggressor board.Faction) []board.Faction {
	var out []board.Faction
	for _, f := range gr.Factions {
		if f == aggressor || g.Allied(aggressor, f) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ValidateBattlePlan checks a submitted plan against the contested sector and
// the submitting faction's holdings. Violations are aggregated.
func ValidateBattlePlan(g *GameState, b *Battle, plan *BattlePlan) *rules.ValidationResult {
	result := &rules.ValidationResult{}
	fs := g.Faction(plan.Faction)
	if fs == nil {
		result.Add(rules.Invalid(rules.ErrInvalidResponse, "faction",
			"faction %s is not in the game", plan.Faction))
		return result
	}
	if b.plans.Submitted(plan.Faction == b.Aggressor) {
		result.Add(rules.Invalid(rules.ErrPlanAlreadyLocked, "plan",
			"%s already committed a plan for this battle", plan.Faction))
		return result
	}

	stack := g.StackAt(plan.Faction, b.Territory, b.Sector)
	have, haveElite := 0, 0
	if stack != nil && !stack.Advisors {
		have, haveElite = stack.Forces, stack.Elite
	}
	if plan.Forces > have || plan.Elite > haveElite {
		result.Add(rules.Invalid(rules.ErrForcesExceedPresent, "forces",
			"%s has %d+%d forces in %s sector %d, dialed %d+%d",
			plan.Faction, have, haveElite, b.Territory, b.Sector, plan.Forces, plan.Elite))
	}

	if plan.SpiceDialed < 0 || plan.SpiceDialed > fs.Spice {
		result.Add(rules.Invalid(rules.ErrInsufficientSpice, "spice_dialed",
			"%s has %d spice, dialed %d", plan.Faction, fs.Spice, plan.SpiceDialed))
	}

	result.Merge(validatePlanLeader(g, b, fs, plan))
	result.Merge(validatePlanCards(fs, plan))
	result.Merge(validateVoiceCompliance(b, fs, plan))
	result.Merge(validatePrescienceCompliance(b, plan))
	return result
}

func validatePlanLeader(g *GameState, b *Battle, fs *FactionState, plan *BattlePlan) *rules.ValidationResult {
	result := &rules.ValidationResult{}
	available := fs.AvailableLeaders()

	switch {
	case plan.LeaderID != "":
		if plan.CheapHero != "" {
			result.Add(rules.Invalid(rules.ErrInvalidCard, "cheap_hero",
				"cannot commit both a leader and a hero substitute"))
		}
		l, ok := fs.Leaders[plan.LeaderID]
		if !ok || l.HeldBy != fs.Faction || l.Location != LeaderAvailable {
			result.Add(rules.Invalid(rules.ErrLeaderUnavailable, "leader_id",
				"leader %s is not in %s's available pool", plan.LeaderID, plan.Faction))
		} else if l.UsedThisTurn && l.UsedTerritory != b.Territory {
			result.Add(rules.Invalid(rules.ErrLeaderUnavailable, "leader_id",
				"leader %s already fought this turn in %s", plan.LeaderID, l.UsedTerritory))
		}
	case plan.CheapHero != "":
		card, ok := board.Card(plan.CheapHero)
		if !ok || card.Category != board.CategorySpecial {
			result.Add(rules.Invalid(rules.ErrInvalidCard, "cheap_hero",
				"card %s is not a hero substitute", plan.CheapHero))
		} else if !fs.HasCard(plan.CheapHero) {
			result.Add(rules.Invalid(rules.ErrCardNotHeld, "cheap_hero",
				"%s does not hold card %s", plan.Faction, plan.CheapHero))
		}
	case plan.NoLeader:
		if len(available) > 0 {
			result.Add(rules.Invalid(rules.ErrLeaderRequired, "leader_id",
				"%s announced no leader but has %d available", plan.Faction, len(available)))
		}
	default:
		result.Add(rules.Invalid(rules.ErrLeaderRequired, "leader_id",
			"a leader, a hero substitute, or an explicit no-leader announcement is required"))
	}

	// Weapons and defenses need a leader or substitute to wield them.
	if plan.NoLeader && (plan.WeaponCard != "" || plan.DefenseCard != "") {
		result.Add(rules.Invalid(rules.ErrInvalidCard, "weapon_card",
			"cannot play battle cards without a leader or hero substitute"))
	}
	return result
}

func validatePlanCards(fs *FactionState, plan *BattlePlan) *rules.ValidationResult {
	result := &rules.ValidationResult{}
	if plan.WeaponCard != "" {
		card, ok := board.Card(plan.WeaponCard)
		switch {
		case !ok:
			result.Add(rules.Invalid(rules.ErrInvalidCard, "weapon_card",
				"unknown card %q", plan.WeaponCard))
		case !fs.HasCard(plan.WeaponCard):
			result.Add(rules.Invalid(rules.ErrCardNotHeld, "weapon_card",
				"%s does not hold %s", plan.Faction, plan.WeaponCard))
		case card.Category != board.CategoryWeapon && card.Category != board.CategoryWorthless:
			result.Add(rules.Invalid(rules.ErrInvalidCard, "weapon_card",
				"%s is a %s card, not a weapon", plan.WeaponCard, card.Category))
		}
	}
	if plan.DefenseCard != "" {
		card, ok := board.Card(plan.DefenseCard)
		switch {
		case !ok:
			result.Add(rules.Invalid(rules.ErrInvalidCard, "defense_card",
				"unknown card %q", plan.DefenseCard))
		case !fs.HasCard(plan.DefenseCard):
			result.Add(rules.Invalid(rules.ErrCardNotHeld, "defense_card",
				"%s does not hold %s", plan.Faction, plan.DefenseCard))
		case card.Category != board.CategoryDefense && card.Category != board.CategoryWorthless:
			result.Add(rules.Invalid(rules.ErrInvalidCard, "defense_card",
				"%s is a %s card, not a defense", plan.DefenseCard, card.Category))
		}
	}
	if plan.WeaponCard != "" && plan.WeaponCard == plan.DefenseCard {
		result.Add(rules.Invalid(rules.ErrInvalidCard, "defense_card",
			"the same card cannot fill both slots"))
	}
	return result
}

// validateVoiceCompliance checks the plan against a standing voice command.
func validateVoiceCompliance(b *Battle, fs *FactionState, plan *BattlePlan) *rules.ValidationResult {
	result := &rules.ValidationResult{}
	if b.Voice == nil || b.Voice.Target != plan.Faction {
		return result
	}
	matches := func(cardID string) bool {
		return cardID != "" && voiceCategoryMatches(b.Voice.Category, cardID)
	}
	played := matches(plan.WeaponCard) || matches(plan.DefenseCard)
	if b.Voice.Forbid && played {
		result.Add(rules.Invalid(rules.ErrVoiceViolated, "weapon_card",
			"the voice forbade playing a %s card", b.Voice.Category))
	}
	if !b.Voice.Forbid && !played && fs.holdsVoiceCategory(b.Voice.Category) {
		result.Add(rules.Invalid(rules.ErrVoiceViolated, "weapon_card",
			"the voice compelled playing a %s card and %s holds one", b.Voice.Category, plan.Faction))
	}
	return result
}

// voiceCategoryMatches reports whether a card falls in a voice category.
func voiceCategoryMatches(category, cardID string) bool {
	card, ok := board.Card(cardID)
	if !ok {
		return false
	}
	switch category {
	case "poison_weapon":
		return card.Category == board.CategoryWeapon && card.Subtype == board.SubtypePoison
	case "projectile_weapon":
		return card.Category == board.CategoryWeapon && card.Subtype == board.SubtypeProjectile
	case "poison_defense":
		return card.Category == board.CategoryDefense && card.Subtype == board.SubtypePoison
	case "projectile_defense":
		return card.Category == board.CategoryDefense && (card.Subtype == board.SubtypeProjectile || card.Subtype == board.SubtypeSpecial)
	case "lasgun":
		return card.ID == board.LasgunID
	case "worthless":
		return card.Category == board.CategoryWorthless
	}
	return false
}

func (f *FactionState) holdsVoiceCategory(category string) bool {
	for _, id := range f.Hand {
		if voiceCategoryMatches(category, id) {
			return true
		}
	}
	return false
}

// validatePrescienceCompliance checks the plan against the element the
// opponent committed to under foresight.
func validatePrescienceCompliance(b *Battle, plan *BattlePlan) *rules.ValidationResult {
	result := &rules.ValidationResult{}
	p := b.Prescience
	if p == nil || p.Target != plan.Faction || p.Answer == "" {
		return result
	}
	actual := ""
	switch p.Query {
	case PrescienceLeader:
		actual = plan.LeaderID
		if plan.LeaderID == "" && plan.CheapHero != "" {
			actual = plan.CheapHero
		}
	case PrescienceWeapon:
		actual = plan.WeaponCard
	case PrescienceDefense:
		actual = plan.DefenseCard
	case PrescienceDial:
		actual = fmt.Sprintf("%d", plan.Dialed())
	}
	if actual != p.Answer {
		result.Add(rules.Invalid(rules.ErrInvalidResponse, string(p.Query),
			"plan contradicts the %s answer given under foresight (%q, plan has %q)",
			p.Query, p.Answer, actual))
	}
	return result
}
