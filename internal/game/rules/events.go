package rules

import (
	"sync"
	"time"
)

// EventType indicates the category of a game event.
type EventType string

const (
	// Game lifecycle
	EventGameStarted   EventType = "GAME_STARTED"
	EventGameEnded     EventType = "GAME_ENDED"
	EventTurnStarted   EventType = "TURN_STARTED"
	EventPhaseStarted  EventType = "PHASE_STARTED"
	EventPhaseComplete EventType = "PHASE_COMPLETE"

	// Storm phase
	EventStormMoved       EventType = "STORM_MOVED"
	EventForcesDestroyed  EventType = "FORCES_DESTROYED"
	EventSpiceDestroyed   EventType = "SPICE_DESTROYED"
	EventStormOrderChange EventType = "STORM_ORDER_CHANGED"

	// Spice blow phase
	EventSpiceBlow   EventType = "SPICE_BLOW"
	EventShaiHulud   EventType = "SHAI_HULUD"
	EventSpicePlaced EventType = "SPICE_PLACED"

	// Charity phase
	EventCharityClaimed EventType = "CHARITY_CLAIMED"

	// Bidding phase
	EventCardUpForBid EventType = "CARD_UP_FOR_BID"
	EventBidPlaced    EventType = "BID_PLACED"
	EventCardWon      EventType = "CARD_WON"
	EventBiddingDone  EventType = "BIDDING_COMPLETE"

	// Revival phase
	EventForcesRevived EventType = "FORCES_REVIVED"
	EventLeaderRevived EventType = "LEADER_REVIVED"

	// Shipment and movement
	EventForcesShipped EventType = "FORCES_SHIPPED"
	EventForcesMoved   EventType = "FORCES_MOVED"
	EventGuildElected  EventType = "GUILD_TURN_ELECTED"

	// Battle phase
	EventBattleStarted     EventType = "BATTLE_STARTED"
	EventAdvisorsFlipped   EventType = "ADVISORS_FLIPPED"
	EventAggressorChosen   EventType = "AGGRESSOR_TARGET_CHOSEN"
	EventVoiceCommand      EventType = "VOICE_COMMAND"
	EventPrescienceUsed    EventType = "PRESCIENCE_USED"
	EventPlanSubmitted     EventType = "BATTLE_PLAN_SUBMITTED"
	EventNoLeaderAnnounced EventType = "NO_LEADER_ANNOUNCED"
	EventPlansRevealed     EventType = "PLANS_REVEALED"
	EventTraitorCalled     EventType = "TRAITOR_CALLED"
	EventLasgunExplosion   EventType = "LASGUN_EXPLOSION"
	EventLeaderKilled      EventType = "LEADER_KILLED"
	EventLeaderCaptured    EventType = "LEADER_CAPTURED"
	EventBattleResolved    EventType = "BATTLE_RESOLVED"
	EventCardDiscarded     EventType = "CARD_DISCARDED"
	EventSpicePaidOut      EventType = "BATTLE_SPICE_COLLECTED"
	EventNoBattles         EventType = "NO_BATTLES"
	EventBattlesComplete   EventType = "BATTLES_COMPLETE"

	// Spice collection
	EventSpiceCollected EventType = "SPICE_COLLECTED"

	// Mentat pause
	EventVictoryDeclared EventType = "VICTORY_DECLARED"
	EventTurnLimit       EventType = "TURN_LIMIT_REACHED"
)

// Event records a state change for observers. The engine's correctness never
// depends on anyone consuming these.
type Event struct {
	Type      EventType         `json:"type"`
	Faction   string            `json:"faction,omitempty"`
	Territory string            `json:"territory,omitempty"`
	Amount    int               `json:"amount,omitempty"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// NewEvent creates an event with the timestamp populated.
func NewEvent(eventType EventType, message string) Event {
	return Event{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
		Data:      make(map[string]string),
	}
}

// WithFaction sets the faction field.
func (e Event) WithFaction(faction string) Event {
	e.Faction = faction
	return e
}

// WithTerritory sets the territory field.
func (e Event) WithTerritory(territory string) Event {
	e.Territory = territory
	return e
}

// WithAmount sets the amount field.
func (e Event) WithAmount(amount int) Event {
	e.Amount = amount
	return e
}

// WithData adds a key/value pair to the event payload.
func (e Event) WithData(key, value string) Event {
	if e.Data == nil {
		e.Data = make(map[string]string)
	}
	e.Data[key] = value
	return e
}

// Listener is a callback that reacts to published events.
type Listener func(Event)

// EventBus is a synchronous publish/subscribe fan-out used by transport and
// observability collaborators. Phase handlers never publish directly; they
// return events from each step and the engine drains them onto the bus.
type EventBus struct {
	mu         sync.RWMutex
	listeners  map[int]Listener
	nextHandle int
}

// NewEventBus constructs a fresh event bus.
func NewEventBus() *EventBus {
	return &EventBus{listeners: make(map[int]Listener)}
}

// Subscribe registers a listener and returns a handle for Unsubscribe.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// Unsubscribe removes the listener identified by handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
}

// Publish delivers the event to all listeners synchronously.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, listener := range bus.listeners {
		listener(event)
	}
}

// PublishAll publishes a batch of events in order.
func (bus *EventBus) PublishAll(events []Event) {
	for _, event := range events {
		bus.Publish(event)
	}
}
