package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimpleBus_Unsubscribe(t *testing.T) {
	t.Parallel()
	bus := NewSimpleBus()
	calls := 0
	unsubscribe := bus.Subscribe("x", func(Event) { calls++ })

	bus.Publish("x", nil)
	assert.Equal(t, 1, calls)

	unsubscribe()
	bus.Publish("x", nil)
	assert.Equal(t, 1, calls)
}

func TestSimpleBus_Order(t *testing.T) {
	t.Parallel()
	bus := NewSimpleBus()
	var got []int
	bus.Subscribe("x", func(Event) { got = append(got, 1) })
	bus.Subscribe("x", func(Event) { got = append(got, 2) })
	bus.Subscribe("y", func(Event) { got = append(got, 3) })

	bus.Publish("x", nil)
	assert.Equal(t, []int{1, 2}, got)
}

func TestSimpleBus_Filter(t *testing.T) {
	t.Parallel()
	bus := NewSimpleBus()
	var seen []string
	bus.SubscribeWithFilter(ContextDestroyed, BySession("s1"), func(ev Event) {
		seen = append(seen, ev.Metadata.SessionID)
	})

	bus.PublishWithMetadata(ContextDestroyed, "SessionScoped", Metadata{SessionID: "s1"})
	bus.PublishWithMetadata(ContextDestroyed, "SessionScoped", Metadata{SessionID: "s2"})
	assert.Equal(t, []string{"s1"}, seen)
}
