package game

import (
	"fmt"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

// spicePerForce caps battle spice payout at this much per surviving force.
const spicePerForce = 2

// BattleOutcome is the computed result of one battle, recorded before and
// after application of its consequences.
type BattleOutcome struct {
	Winner          board.Faction // empty when NoWinner
	Loser           board.Faction
	NoWinner        bool
	Explosion       bool
	TwoTraitors     bool
	TraitorCalledBy board.Faction

	AggressorStrength float64
	DefenderStrength  float64

	LeadersKilled  []string
	ForcesLost     map[board.Faction]int
	CardsDiscarded map[board.Faction][]string
	SpiceCollected int
}

func (o *BattleOutcome) clone() *BattleOutcome {
	if o == nil {
		return nil
	}
	out := *o
	out.LeadersKilled = append([]string(nil), o.LeadersKilled...)
	out.ForcesLost = make(map[board.Faction]int, len(o.ForcesLost))
	for f, n := range o.ForcesLost {
		out.ForcesLost[f] = n
	}
	out.CardsDiscarded = make(map[board.Faction][]string, len(o.CardsDiscarded))
	for f, cards := range o.CardsDiscarded {
		out.CardsDiscarded[f] = append([]string(nil), cards...)
	}
	return &out
}

// SideStrength computes one side's battle strength: dialed forces (elites
// count double), plus the committed leader's strength when the leader
// survives to count. Under the advanced ruleset forces count at full strength
// only when matched point-for-point by dialed spice; otherwise the force
// contribution is halved. One faction's forces always count in full,
// regardless of spice.
func SideStrength(g *GameState, plan *BattlePlan, leaderDead bool) float64 {
	forceStrength := float64(plan.Forces + 2*plan.Elite)
	if g.AdvancedRules && !board.Flags(plan.Faction).ForcesFullStrength {
		if plan.SpiceDialed < plan.Dialed() {
			forceStrength /= 2
		}
	}
	total := forceStrength
	if !leaderDead && plan.LeaderID != "" {
		if def, _, ok := board.Leader(plan.LeaderID); ok {
			total += float64(def.Strength)
		}
	}
	return total
}

// weaponKills reports whether a weapon kills the opposing leader given the
// opposing defense. The weapon's CounteredBy subtype decides the matchup, so
// the one poison-flavored blade is stopped by a projectile defense.
func weaponKills(weaponID, defenseID string) bool {
	weapon, ok := board.Card(weaponID)
	if !ok || weapon.Category != board.CategoryWeapon || weapon.Subtype == board.SubtypeSpecial {
		return false
	}
	if defenseID == "" {
		return true
	}
	defense, ok := board.Card(defenseID)
	if !ok || defense.Category != board.CategoryDefense {
		return true
	}
	if weapon.CounteredBy == board.SubtypeProjectile {
		// Projectile-class weapons are also stopped by the special-class
		// shield.
		return defense.Subtype != board.SubtypeProjectile && defense.Subtype != board.SubtypeSpecial
	}
	return defense.Subtype != weapon.CounteredBy
}

// lasgunExplodes reports whether a side's lasgun goes uncountered by the
// opposing special-class defense.
func lasgunExplodes(weaponID, opposingDefenseID string) bool {
	return weaponID == board.LasgunID && !board.IsShield(opposingDefenseID)
}

// ResolveBattle computes and applies the outcome of a battle whose plans have
// been revealed and whose traitor-call window has closed. Inputs are assumed
// validated; violated invariants here are calling-sequence bugs and surface
// as errors rather than plausible states.
func ResolveBattle(g *GameState, b *Battle) (*BattleOutcome, []rules.Event, error) {
	agg, def := b.plans.Plans()
	if agg == nil || def == nil {
		return nil, nil, fmt.Errorf("battle %s: resolution before reveal", b.ID)
	}

	outcome := &BattleOutcome{
		ForcesLost:     make(map[board.Faction]int),
		CardsDiscarded: make(map[board.Faction][]string),
	}
	var events []rules.Event

	aggTraitor := b.TraitorCalls[b.Defender] != "" && b.TraitorCalls[b.Defender] == agg.LeaderID
	defTraitor := b.TraitorCalls[b.Aggressor] != "" && b.TraitorCalls[b.Aggressor] == def.LeaderID

	switch {
	case aggTraitor && defTraitor:
		events = append(events, resolveTwoTraitors(g, b, agg, def, outcome)...)
	case aggTraitor:
		outcome.TraitorCalledBy = b.Defender
		events = append(events, resolveTraitor(g, b, def, agg, outcome)...)
	case defTraitor:
		outcome.TraitorCalledBy = b.Aggressor
		events = append(events, resolveTraitor(g, b, agg, def, outcome)...)
	case lasgunExplodes(agg.WeaponCard, def.DefenseCard) || lasgunExplodes(def.WeaponCard, agg.DefenseCard):
		events = append(events, resolveExplosion(g, b, agg, def, outcome)...)
	default:
		events = append(events, resolveNormal(g, b, agg, def, outcome)...)
	}

	payDialedSpice(g, agg)
	payDialedSpice(g, def)
	markLeaderUsed(g, b, agg)
	markLeaderUsed(g, b, def)

	b.Outcome = outcome
	b.SubPhase = SubPhaseResolved

	events = append(events, battleResolvedEvent(b, outcome))
	return outcome, events, nil
}

func battleResolvedEvent(b *Battle, o *BattleOutcome) rules.Event {
	msg := fmt.Sprintf("battle in %s resolved with no winner", b.Territory)
	if o.Winner != "" {
		msg = fmt.Sprintf("%s defeats %s in %s (%.1f to %.1f)",
			o.Winner, o.Loser, b.Territory, o.AggressorStrength, o.DefenderStrength)
	}
	ev := rules.NewEvent(rules.EventBattleResolved, msg).WithTerritory(b.Territory)
	ev = ev.WithData("aggressor", string(b.Aggressor)).WithData("defender", string(b.Defender))
	if o.Winner != "" {
		ev = ev.WithFaction(string(o.Winner))
	}
	return ev
}

// resolveNormal handles the no-traitor, no-explosion path: weapon/defense
// interaction, strength comparison with the aggressor winning exact ties,
// loser total loss, winner dialed loss, card disposition and spice payout.
func resolveNormal(g *GameState, b *Battle, agg, def *BattlePlan, outcome *BattleOutcome) []rules.Event {
	var events []rules.Event

	aggLeaderDead := agg.LeaderID != "" && weaponKills(def.WeaponCard, agg.DefenseCard)
	defLeaderDead := def.LeaderID != "" && weaponKills(agg.WeaponCard, def.DefenseCard)

	outcome.AggressorStrength = SideStrength(g, agg, aggLeaderDead)
	outcome.DefenderStrength = SideStrength(g, def, defLeaderDead)

	// The aggressor wins exact ties; the defender never does.
	winnerPlan, loserPlan := agg, def
	if outcome.DefenderStrength > outcome.AggressorStrength {
		winnerPlan, loserPlan = def, agg
	}
	outcome.Winner = winnerPlan.Faction
	outcome.Loser = loserPlan.Faction

	if aggLeaderDead {
		events = append(events, killLeader(g, agg.LeaderID, outcome)...)
	}
	if defLeaderDead {
		events = append(events, killLeader(g, def.LeaderID, outcome)...)
	}

	// Loser loses every force in the contested sector; winner loses only
	// the forces dialed.
	events = append(events, loseAllInSector(g, b, loserPlan.Faction, outcome)...)
	events = append(events, loseDialed(g, b, winnerPlan, outcome)...)

	winnerLeaderDead := (winnerPlan == agg && aggLeaderDead) || (winnerPlan == def && defLeaderDead)
	loserLeaderDead := (loserPlan == agg && aggLeaderDead) || (loserPlan == def && defLeaderDead)

	if winnerPlan.LeaderID != "" && !winnerLeaderDead {
		if l := g.Leader(winnerPlan.LeaderID); l != nil {
			l.Location = LeaderSurvived
			l.Territory = b.Territory
		}
	}
	if loserPlan.LeaderID != "" && !loserLeaderDead {
		if l := g.Leader(loserPlan.LeaderID); l != nil {
			if board.Flags(winnerPlan.Faction).CapturesLeaders {
				l.Location = LeaderCaptured
				l.HeldBy = winnerPlan.Faction
				l.Territory = ""
				events = append(events, rules.NewEvent(rules.EventLeaderCaptured,
					fmt.Sprintf("%s captures %s", winnerPlan.Faction, l.ID)).
					WithFaction(string(winnerPlan.Faction)).WithData("leader", l.ID))
			} else {
				l.Location = LeaderAvailable
				l.Territory = ""
			}
		}
	}

	events = append(events, disposeCards(g, winnerPlan, true, outcome)...)
	events = append(events, disposeCards(g, loserPlan, false, outcome)...)

	// Winner may collect spice lying in the contested sector, capped per
	// surviving force.
	survivors := 0
	if s := g.StackAt(winnerPlan.Faction, b.Territory, b.Sector); s != nil {
		survivors = s.Total()
	}
	payout := survivors * spicePerForce
	if taken := g.TakeSpice(b.Territory, b.Sector, payout); taken > 0 {
		fs := g.Faction(winnerPlan.Faction)
		fs.Spice += taken
		outcome.SpiceCollected = taken
		events = append(events, rules.NewEvent(rules.EventSpicePaidOut,
			fmt.Sprintf("%s collects %d spice from %s", winnerPlan.Faction, taken, b.Territory)).
			WithFaction(string(winnerPlan.Faction)).WithTerritory(b.Territory).WithAmount(taken))
	}
	return events
}

// resolveTraitor handles the single-traitor outcome: the holder wins outright,
// the exposed leader dies, the loser loses everything in the sector, and no
// spice is paid out.
func resolveTraitor(g *GameState, b *Battle, winner, loser *BattlePlan, outcome *BattleOutcome) []rules.Event {
	var events []rules.Event
	outcome.Winner = winner.Faction
	outcome.Loser = loser.Faction

	events = append(events, rules.NewEvent(rules.EventTraitorCalled,
		fmt.Sprintf("%s reveals %s as a traitor", winner.Faction, loser.LeaderID)).
		WithFaction(string(winner.Faction)).WithData("leader", loser.LeaderID))

	exposeTraitor(g, winner.Faction, loser.LeaderID)
	events = append(events, killLeader(g, loser.LeaderID, outcome)...)
	events = append(events, loseAllInSector(g, b, loser.Faction, outcome)...)
	// The traitor-holder's own forces survive untouched.
	outcome.ForcesLost[winner.Faction] = 0

	if winner.LeaderID != "" {
		if l := g.Leader(winner.LeaderID); l != nil {
			l.Location = LeaderSurvived
			l.Territory = b.Territory
		}
	}
	events = append(events, disposeCards(g, winner, true, outcome)...)
	events = append(events, disposeCards(g, loser, false, outcome)...)
	return events
}

// resolveTwoTraitors handles the mutual-traitor catastrophe: no winner, both
// sides' full presence in the territory dies through the normal force-removal
// path, both committed leaders die, all played cards are discarded, and the
// territory's spice stays where it is.
func resolveTwoTraitors(g *GameState, b *Battle, agg, def *BattlePlan, outcome *BattleOutcome) []rules.Event {
	var events []rules.Event
	outcome.NoWinner = true
	outcome.TwoTraitors = true

	events = append(events, rules.NewEvent(rules.EventTraitorCalled,
		fmt.Sprintf("both leaders in %s are traitors", b.Territory)).WithTerritory(b.Territory))

	exposeTraitor(g, b.Defender, agg.LeaderID)
	exposeTraitor(g, b.Aggressor, def.LeaderID)
	events = append(events, killLeader(g, agg.LeaderID, outcome)...)
	events = append(events, killLeader(g, def.LeaderID, outcome)...)
	events = append(events, loseAllInTerritory(g, b.Territory, agg.Faction, outcome)...)
	events = append(events, loseAllInTerritory(g, b.Territory, def.Faction, outcome)...)
	events = append(events, disposeCards(g, agg, false, outcome)...)
	events = append(events, disposeCards(g, def, false, outcome)...)
	return events
}

// resolveExplosion handles an uncountered lasgun: every leader committed to
// the battle dies, survived leaders in the territory lose their protection
// and die too, and both sides lose their full presence in the territory.
func resolveExplosion(g *GameState, b *Battle, agg, def *BattlePlan, outcome *BattleOutcome) []rules.Event {
	var events []rules.Event
	outcome.NoWinner = true
	outcome.Explosion = true

	events = append(events, rules.NewEvent(rules.EventLasgunExplosion,
		fmt.Sprintf("lasgun detonation in %s", b.Territory)).WithTerritory(b.Territory))

	events = append(events, killLeader(g, agg.LeaderID, outcome)...)
	events = append(events, killLeader(g, def.LeaderID, outcome)...)
	for _, f := range []board.Faction{agg.Faction, def.Faction} {
		fs := g.Faction(f)
		for id, l := range fs.Leaders {
			if l.Location == LeaderSurvived && l.Territory == b.Territory {
				events = append(events, killLeader(g, id, outcome)...)
			}
		}
	}
	events = append(events, loseAllInTerritory(g, b.Territory, agg.Faction, outcome)...)
	events = append(events, loseAllInTerritory(g, b.Territory, def.Faction, outcome)...)
	events = append(events, disposeCards(g, agg, false, outcome)...)
	events = append(events, disposeCards(g, def, false, outcome)...)

	// The blast also vaporizes any spice in the territory.
	for i := len(g.Spice) - 1; i >= 0; i-- {
		if g.Spice[i].Territory == b.Territory {
			events = append(events, rules.NewEvent(rules.EventSpiceDestroyed,
				fmt.Sprintf("%d spice in %s destroyed", g.Spice[i].Amount, b.Territory)).
				WithTerritory(b.Territory).WithAmount(g.Spice[i].Amount))
			g.Spice = append(g.Spice[:i], g.Spice[i+1:]...)
		}
	}
	return events
}

// killLeader moves a leader to the revivable dead pool. No-op for empty IDs.
func killLeader(g *GameState, leaderID string, outcome *BattleOutcome) []rules.Event {
	if leaderID == "" {
		return nil
	}
	l := g.Leader(leaderID)
	if l == nil || l.Location == LeaderDeadRevivable || l.Location == LeaderDeadBlocked {
		return nil
	}
	l.Location = LeaderDeadRevivable
	l.Territory = ""
	outcome.LeadersKilled = append(outcome.LeadersKilled, leaderID)
	return []rules.Event{rules.NewEvent(rules.EventLeaderKilled,
		fmt.Sprintf("%s is killed", leaderID)).WithFaction(string(l.Owner)).WithData("leader", leaderID)}
}

// loseAllInSector sends a faction's entire presence in the contested sector
// to its casualty pool.
func loseAllInSector(g *GameState, b *Battle, f board.Faction, outcome *BattleOutcome) []rules.Event {
	s := g.StackAt(f, b.Territory, b.Sector)
	if s == nil || s.Total() == 0 {
		outcome.ForcesLost[f] += 0
		return nil
	}
	forces, elite := s.Forces, s.Elite
	fs := g.Faction(f)
	fs.Casualties += forces
	fs.EliteCasualties += elite
	outcome.ForcesLost[f] += forces + elite
	if err := g.RemoveForces(f, b.Territory, b.Sector, forces, elite); err != nil {
		panic(fmt.Sprintf("loss application out of sync: %v", err))
	}
	return []rules.Event{rules.NewEvent(rules.EventForcesDestroyed,
		fmt.Sprintf("%s loses %d forces in %s", f, forces+elite, b.Territory)).
		WithFaction(string(f)).WithTerritory(b.Territory).WithAmount(forces + elite)}
}

// loseAllInTerritory removes a faction's presence across every sector of a
// territory, routing through the same removal path as normal losses.
func loseAllInTerritory(g *GameState, territory string, f board.Faction, outcome *BattleOutcome) []rules.Event {
	total := 0
	fs := g.Faction(f)
	for _, s := range g.StacksIn(territory) {
		if s.Faction != f {
			continue
		}
		forces, elite := s.Forces, s.Elite
		fs.Casualties += forces
		fs.EliteCasualties += elite
		total += forces + elite
		if err := g.RemoveForces(f, territory, s.Sector, forces, elite); err != nil {
			panic(fmt.Sprintf("loss application out of sync: %v", err))
		}
	}
	outcome.ForcesLost[f] += total
	if total == 0 {
		return nil
	}
	return []rules.Event{rules.NewEvent(rules.EventForcesDestroyed,
		fmt.Sprintf("%s loses %d forces in %s", f, total, territory)).
		WithFaction(string(f)).WithTerritory(territory).WithAmount(total)}
}

// loseDialed removes exactly the dialed forces from the winner's stack.
func loseDialed(g *GameState, b *Battle, plan *BattlePlan, outcome *BattleOutcome) []rules.Event {
	if plan.Dialed() == 0 {
		outcome.ForcesLost[plan.Faction] += 0
		return nil
	}
	fs := g.Faction(plan.Faction)
	fs.Casualties += plan.Forces
	fs.EliteCasualties += plan.Elite
	outcome.ForcesLost[plan.Faction] += plan.Dialed()
	if err := g.RemoveForces(plan.Faction, b.Territory, b.Sector, plan.Forces, plan.Elite); err != nil {
		panic(fmt.Sprintf("loss application out of sync: %v", err))
	}
	return []rules.Event{rules.NewEvent(rules.EventForcesDestroyed,
		fmt.Sprintf("%s loses the %d forces dialed in %s", plan.Faction, plan.Dialed(), b.Territory)).
		WithFaction(string(plan.Faction)).WithTerritory(b.Territory).WithAmount(plan.Dialed())}
}

// disposeCards applies card disposition for one side: a weapon is kept by a
// winning side and discarded otherwise, a defense is always discarded, and a
// spent hero substitute is always discarded.
func disposeCards(g *GameState, plan *BattlePlan, won bool, outcome *BattleOutcome) []rules.Event {
	var events []rules.Event
	fs := g.Faction(plan.Faction)
	discard := func(cardID string) {
		if cardID == "" || !fs.RemoveCard(cardID) {
			return
		}
		g.TreacheryDiscard = append(g.TreacheryDiscard, cardID)
		outcome.CardsDiscarded[plan.Faction] = append(outcome.CardsDiscarded[plan.Faction], cardID)
		events = append(events, rules.NewEvent(rules.EventCardDiscarded,
			fmt.Sprintf("%s discards %s", plan.Faction, cardID)).
			WithFaction(string(plan.Faction)).WithData("card", cardID))
	}
	if !won {
		discard(plan.WeaponCard)
	}
	discard(plan.DefenseCard)
	discard(plan.CheapHero)
	if plan.CheapHero != "" {
		fs.CheapHeroUsed = true
	}
	return events
}

// exposeTraitor removes the traitor card naming the leader from the holder.
func exposeTraitor(g *GameState, holder board.Faction, leaderID string) {
	fs := g.Faction(holder)
	if fs == nil {
		return
	}
	for i, id := range fs.Traitors {
		if id == leaderID {
			fs.Traitors = append(fs.Traitors[:i], fs.Traitors[i+1:]...)
			return
		}
	}
}

// payDialedSpice spends the spice committed in a plan.
func payDialedSpice(g *GameState, plan *BattlePlan) {
	if plan.SpiceDialed <= 0 {
		return
	}
	fs := g.Faction(plan.Faction)
	if fs.Spice < plan.SpiceDialed {
		panic(fmt.Sprintf("%s dialed %d spice with only %d held", plan.Faction, plan.SpiceDialed, fs.Spice))
	}
	fs.Spice -= plan.SpiceDialed
}

// markLeaderUsed records the used-this-turn marker for a committed leader.
func markLeaderUsed(g *GameState, b *Battle, plan *BattlePlan) {
	if plan.LeaderID == "" {
		return
	}
	if l := g.Leader(plan.LeaderID); l != nil {
		l.UsedThisTurn = true
		l.UsedTerritory = b.Territory
	}
}
