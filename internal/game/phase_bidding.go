package game

import (
	"encoding/json"
	"strconv"

	"github.com/landsraad/dune-server-go/internal/board"
	"github.com/landsraad/dune-server-go/internal/game/rules"
)

const handLimit = 4

// BidPhaseState tracks one auction day: the remaining lots and the rotation
// state of the lot currently under the hammer.
type BidPhaseState struct {
	LotsRemaining int
	Lot           int
	CardID        string
	Order         []board.Faction
	Turn          int
	HighBid       int
	HighBidder    board.Faction
	Passed        map[board.Faction]bool
}

func (s *BidPhaseState) clone() *BidPhaseState {
	if s == nil {
		return nil
	}
	c := *s
	c.Order = append([]board.Faction(nil), s.Order...)
	c.Passed = make(map[board.Faction]bool, len(s.Passed))
	for f, p := range s.Passed {
		c.Passed[f] = p
	}
	return &c
}

// stepBidding auctions treachery cards, one lot per faction with hand space.
// Bids run around the table in storm order; the first all-pass lot ends the
// phase early with the card returned to the deck.
func (e *DuneEngine) stepBidding(_ *gameSession, g *GameState, responses []rules.DecisionResponse) (rules.StepResult, error) {
	if g.BidPhase == nil {
		lots := 0
		for _, f := range factionsInPlay(g) {
			if len(g.Factions[f].Hand) < handLimit {
				lots++
			}
		}
		if lots == 0 || len(g.TreacheryDeck) == 0 {
			return rules.Complete(rules.NewEvent(rules.EventBiddingDone, "no cards up for bid")), nil
		}
		g.BidPhase = &BidPhaseState{LotsRemaining: lots}
		return e.openLot(g)
	}

	bp := g.BidPhase
	bidder := bp.Order[bp.Turn]
	req := pendingRequestFor(g, bidder, rules.RequestPlaceBid)
	resp, ok := responseFor(g, responses, bidder, rules.RequestPlaceBid)
	if !ok {
		return rules.Pending(false, []rules.DecisionRequest{req}), nil
	}

	var events []rules.Event
	if resp.Passed {
		bp.Passed[bidder] = true
	} else {
		var payload BidResponse
		if err := json.Unmarshal(resp.Data, &payload); err != nil {
			return rejectRequest(req, rules.Invalid(rules.ErrInvalidResponse, "data", "malformed bid payload: %v", err)), nil
		}
		fs := g.Factions[bidder]
		if payload.Amount <= bp.HighBid {
			return rejectRequest(req, rules.Invalid(rules.ErrInvalidResponse, "amount",
				"bid %d does not beat the high bid of %d", payload.Amount, bp.HighBid)), nil
		}
		if payload.Amount > fs.Spice {
			return rejectRequest(req, rules.Invalid(rules.ErrInsufficientSpice, "amount",
				"bid %d exceeds %d spice held", payload.Amount, fs.Spice)), nil
		}
		bp.HighBid = payload.Amount
		bp.HighBidder = bidder
		events = append(events, rules.NewEvent(rules.EventBidPlaced, "bid placed").
			WithFaction(string(bidder)).
			WithAmount(payload.Amount))
	}

	next, open := nextBidder(g, bp)
	if open {
		bp.Turn = next
		result := rules.Pending(false, []rules.DecisionRequest{e.bidRequest(g, bp.Order[next])})
		result.Events = events
		return result, nil
	}

	if bp.HighBidder == "" {
		// Nobody wanted the card. It goes back on top and the auction
		// closes for the turn.
		g.TreacheryDeck = append([]string{bp.CardID}, g.TreacheryDeck...)
		g.BidPhase = nil
		events = append(events, rules.NewEvent(rules.EventBiddingDone, "all factions passed"))
		return rules.Complete(events...), nil
	}

	events = append(events, e.settleLot(g)...)
	bp.LotsRemaining--
	if bp.LotsRemaining == 0 || len(g.TreacheryDeck) == 0 {
		g.BidPhase = nil
		events = append(events, rules.NewEvent(rules.EventBiddingDone, "bidding complete"))
		return rules.Complete(events...), nil
	}
	bp.Lot++
	result, err := e.openLot(g)
	result.Events = append(events, result.Events...)
	return result, err
}

// openLot draws the next card and asks the first eligible bidder.
func (e *DuneEngine) openLot(g *GameState) (rules.StepResult, error) {
	bp := g.BidPhase
	bp.CardID = g.TreacheryDeck[0]
	g.TreacheryDeck = g.TreacheryDeck[1:]
	bp.HighBid = 0
	bp.HighBidder = ""
	bp.Passed = make(map[board.Faction]bool)

	// Rotate the opening bidder one seat per lot.
	order := fullTurnOrder(g)
	offset := bp.Lot % len(order)
	bp.Order = make([]board.Faction, 0, len(order))
	bp.Order = append(bp.Order, order[offset:]...)
	bp.Order = append(bp.Order, order[:offset]...)

	first := -1
	for i, f := range bp.Order {
		if len(g.Factions[f].Hand) < handLimit {
			first = i
			break
		}
	}
	if first == -1 {
		g.BidPhase = nil
		return rules.Complete(rules.NewEvent(rules.EventBiddingDone, "no hand space remains")), nil
	}
	bp.Turn = first

	events := []rules.Event{
		rules.NewEvent(rules.EventCardUpForBid, "a treachery card is up for bid").
			WithData("lot", strconv.Itoa(bp.Lot+1)),
	}
	result := rules.Pending(false, []rules.DecisionRequest{e.bidRequest(g, bp.Order[first])})
	result.Events = events
	return result, nil
}

// bidRequest builds the bid request for one faction. Only a foresighted
// bidder is told which card is on the table.
func (e *DuneEngine) bidRequest(g *GameState, f board.Faction) rules.DecisionRequest {
	bp := g.BidPhase
	ctx := BidContext{
		Round:      bp.Lot + 1,
		HighBid:    bp.HighBid,
		HighBidder: string(bp.HighBidder),
	}
	if board.Flags(f).Prescience {
		ctx.CardID = bp.CardID
	}
	return newRequest(g, f, rules.RequestPlaceBid, ctx)
}

// nextBidder finds the next faction still in the running. The auction is
// open while anyone other than the high bidder can still act.
func nextBidder(g *GameState, bp *BidPhaseState) (int, bool) {
	for step := 1; step <= len(bp.Order); step++ {
		i := (bp.Turn + step) % len(bp.Order)
		f := bp.Order[i]
		if bp.Passed[f] || f == bp.HighBidder {
			continue
		}
		if len(g.Factions[f].Hand) >= handLimit {
			continue
		}
		return i, true
	}
	return 0, false
}

// settleLot hands the card to the high bidder and routes the payment.
func (e *DuneEngine) settleLot(g *GameState) []rules.Event {
	bp := g.BidPhase
	winner := g.Factions[bp.HighBidder]
	winner.Spice -= bp.HighBid
	winner.Hand = append(winner.Hand, bp.CardID)

	events := []rules.Event{
		rules.NewEvent(rules.EventCardWon, "treachery card won").
			WithFaction(string(bp.HighBidder)).
			WithAmount(bp.HighBid),
	}
	for _, f := range factionsInPlay(g) {
		if f != bp.HighBidder && board.Flags(f).BidProceeds {
			g.Factions[f].Spice += bp.HighBid
			events = append(events, rules.NewEvent(rules.EventSpiceCollected, "bid proceeds collected").
				WithFaction(string(f)).
				WithAmount(bp.HighBid))
			break
		}
	}
	return events
}

// rejectRequest re-issues a sequential request with the violation attached.
func rejectRequest(req rules.DecisionRequest, violation *rules.ValidationError) rules.StepResult {
	result := rules.Pending(false, []rules.DecisionRequest{req})
	vr := &rules.ValidationResult{}
	vr.Add(violation)
	result.Reject(req.ID, vr)
	return result
}

// pendingRequestFor finds the pending request addressed to one faction.
func pendingRequestFor(g *GameState, f board.Faction, t rules.RequestType) rules.DecisionRequest {
	for _, req := range g.Pending {
		if req.Faction == string(f) && req.Type == t {
			return req
		}
	}
	return rules.DecisionRequest{}
}
