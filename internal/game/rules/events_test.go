package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusFanOut(t *testing.T) {
	bus := NewEventBus()
	var got []EventType
	handle := bus.Subscribe(func(ev Event) {
		got = append(got, ev.Type)
	})
	assert.GreaterOrEqual(t, handle, 0)

	bus.Publish(NewEvent(EventStormMoved, "storm moves"))
	bus.PublishAll([]Event{
		NewEvent(EventSpiceBlow, "blow"),
		NewEvent(EventCharityClaimed, "charity"),
	})
	assert.Equal(t, []EventType{EventStormMoved, EventSpiceBlow, EventCharityClaimed}, got)

	bus.Unsubscribe(handle)
	bus.Publish(NewEvent(EventGameEnded, "over"))
	assert.Len(t, got, 3, "unsubscribed listener must not receive events")
}

func TestEventBusNilListener(t *testing.T) {
	bus := NewEventBus()
	assert.Equal(t, -1, bus.Subscribe(nil))
	// Publishing with no listeners is a no-op, not a panic.
	bus.Publish(NewEvent(EventGameStarted, "start"))
}

func TestEventBuilders(t *testing.T) {
	ev := NewEvent(EventForcesShipped, "shipped").
		WithFaction("ATREIDES").
		WithTerritory("arrakeen").
		WithAmount(4).
		WithData("cost", "4")
	assert.Equal(t, "ATREIDES", ev.Faction)
	assert.Equal(t, "arrakeen", ev.Territory)
	assert.Equal(t, 4, ev.Amount)
	assert.Equal(t, "4", ev.Data["cost"])
	assert.False(t, ev.Timestamp.IsZero())
}
